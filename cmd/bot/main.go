// Command bot runs the referral tracker: the Discord gateway session, the
// refresh scheduler, and the ops HTTP server, all in one process.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/nrrp/referral-tracker/internal/config"
	"github.com/nrrp/referral-tracker/internal/discord"
	ophttp "github.com/nrrp/referral-tracker/internal/http"
	"github.com/nrrp/referral-tracker/internal/observability"
	"github.com/nrrp/referral-tracker/internal/repo"
	"github.com/nrrp/referral-tracker/internal/scheduler"
	"github.com/nrrp/referral-tracker/internal/services"
)

const version = "3.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin failed")
		}
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Str("path", cfg.DBPath).Msg("database ready")

	referrals := services.NewReferralService(db)
	reports := services.NewReportService(db)
	board := services.NewLeaderboardService(db, cfg.ExcludedInviters)

	bot, err := discord.New(cfg, db, referrals, nil, reports, board)
	if err != nil {
		log.Fatal().Err(err).Msg("session setup failed")
	}
	validation := services.NewValidationService(db, bot.Roster)
	bot.Validation = validation

	sched := scheduler.New(cfg.RefreshInterval, bot.Refresh)
	bot.RequestRefresh = sched.Request

	if err := bot.Open(); err != nil {
		log.Fatal().Err(err).Msg("gateway connect failed")
	}
	defer func() {
		if err := bot.Close(); err != nil {
			log.Warn().Err(err).Msg("session close failed")
		}
	}()

	go sched.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           ophttp.NewRouter(cfg, db),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("ops server shutdown failed")
	}
}

// setupLogging configures the global zerolog logger from the environment.
func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
