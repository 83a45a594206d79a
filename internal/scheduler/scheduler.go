// Package scheduler owns the periodic leaderboard refresh.
//
// One goroutine serves two inputs: a ticker firing on the configured
// interval, and a request channel that event handlers and admin commands
// signal when the standings need a refresh now. The channel is buffered by
// one, so any number of concurrent triggers coalesce into a single
// in-flight refresh instead of racing each other. The refresh sequence
// itself (validate, short delay, publish) is supplied by the caller and
// runs to completion once started; only the wait between refreshes is
// cancellable.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RefreshFunc runs one validate-and-publish sequence.
type RefreshFunc func(ctx context.Context) error

// Scheduler coalesces refresh triggers and runs them on an interval.
type Scheduler struct {
	interval time.Duration
	refresh  RefreshFunc
	requests chan struct{}
}

// New constructs a Scheduler. The interval must be positive.
func New(interval time.Duration, refresh RefreshFunc) *Scheduler {
	return &Scheduler{
		interval: interval,
		refresh:  refresh,
		requests: make(chan struct{}, 1),
	}
}

// Request signals that a refresh should run soon. Never blocks; a request
// arriving while one is already pending is absorbed.
func (s *Scheduler) Request() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// Run serves refreshes until ctx is cancelled. One refresh runs at start,
// matching the bot's historical ready-time publish.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("refresh scheduler started")
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.requests:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	if err := s.refresh(ctx); err != nil {
		log.Error().Err(err).Msg("leaderboard refresh failed")
		return
	}
	log.Info().Dur("took", time.Since(start)).Msg("leaderboard refreshed")
}
