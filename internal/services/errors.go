// Package services defines the business logic for referral tracking,
// validation, and leaderboard publishing. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing replies should be performed at the command
// handler layer.
package services

import "errors"

var (
	// ErrRoleNotFound indicates that the required membership role does not
	// exist in the guild's role list.
	ErrRoleNotFound = errors.New("required role not found")

	// ErrEmptyRoster is returned when the live membership roster could not
	// be fetched or came back empty, making a validation pass meaningless.
	ErrEmptyRoster = errors.New("membership roster is empty")

	// ErrNoReferrals indicates the queried inviter has no referral rows.
	ErrNoReferrals = errors.New("no referrals recorded")
)
