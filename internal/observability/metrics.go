// Package observability wires tracing and metrics. This file defines the
// Prometheus collectors exported on the ops server's /metrics endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MemberJoins counts member-join events processed, by outcome
	// (recorded, reactivated, unattributed, error).
	MemberJoins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral_tracker",
		Name:      "member_joins_total",
		Help:      "Member join events processed, by attribution outcome.",
	}, []string{"outcome"})

	// MemberLeaves counts member-leave events processed.
	MemberLeaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "referral_tracker",
		Name:      "member_leaves_total",
		Help:      "Member leave events processed.",
	})

	// ValidationPasses counts full validation passes, by result.
	ValidationPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral_tracker",
		Name:      "validation_passes_total",
		Help:      "Full validation passes executed, by result.",
	}, []string{"result"})

	// ValidatedReferrals tracks the validated row count after the last pass.
	ValidatedReferrals = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "referral_tracker",
		Name:      "validated_referrals",
		Help:      "Referrals validated by the most recent pass.",
	})

	// LeaderboardPublishes counts leaderboard refresh publications, by result.
	LeaderboardPublishes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral_tracker",
		Name:      "leaderboard_publishes_total",
		Help:      "Leaderboard messages published or edited, by result.",
	}, []string{"result"})

	// CommandInvocations counts prefix command invocations, by command.
	CommandInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral_tracker",
		Name:      "command_invocations_total",
		Help:      "Prefix command invocations, by command name.",
	}, []string{"command"})

	// CommandRejections counts guarded command rejections, by reason
	// (permission, channel, cooldown, unknown).
	CommandRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "referral_tracker",
		Name:      "command_rejections_total",
		Help:      "Command invocations rejected by a guard, by reason.",
	}, []string{"reason"})
)
