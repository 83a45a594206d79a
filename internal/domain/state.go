// Package domain – referral lifecycle state machine.
//
// A referral's lifecycle used to be implicit in the IsMemberActive and
// IsValidated booleans. This file makes it explicit as a small enumeration
// with transition functions, so handlers and services describe what happened
// (join, leave, role check) instead of flipping flags directly. The two
// booleans remain the persisted form for schema compatibility.
package domain

// ReferralState is the explicit lifecycle state of a referral row.
type ReferralState int

const (
	// StateUnseen means no referral row exists for the member.
	StateUnseen ReferralState = iota
	// StateActivePending means the invitee is a member but the referral has
	// not (or no longer) passed role validation.
	StateActivePending
	// StateActiveValidated means both parties currently hold the required role.
	StateActiveValidated
	// StateInactive means the invitee has left the guild.
	StateInactive
)

// String returns a human-readable state name.
func (s ReferralState) String() string {
	switch s {
	case StateUnseen:
		return "unseen"
	case StateActivePending:
		return "active_pending"
	case StateActiveValidated:
		return "active_validated"
	case StateInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// State derives the explicit lifecycle state from the persisted flags.
// A nil receiver maps to StateUnseen so callers can pass lookup results
// straight through.
func (r *Referral) State() ReferralState {
	switch {
	case r == nil:
		return StateUnseen
	case !r.IsMemberActive:
		return StateInactive
	case r.IsValidated:
		return StateActiveValidated
	default:
		return StateActivePending
	}
}

// OnJoin transitions the state for a member (re)joining the guild.
// A rejoin reactivates the referral with validation reset pending recheck;
// joining from Unseen yields ActivePending once a row is attributed.
func (s ReferralState) OnJoin() ReferralState {
	switch s {
	case StateUnseen, StateInactive, StateActivePending, StateActiveValidated:
		return StateActivePending
	default:
		return s
	}
}

// OnLeave transitions the state for a member leaving the guild. Leaving
// always lands in Inactive with validation cleared; Unseen stays Unseen.
func (s ReferralState) OnLeave() ReferralState {
	if s == StateUnseen {
		return StateUnseen
	}
	return StateInactive
}

// OnValidation transitions the state given the outcome of a role check.
// Only active referrals move; Inactive and Unseen are unaffected.
func (s ReferralState) OnValidation(bothHoldRole bool) ReferralState {
	switch s {
	case StateActivePending, StateActiveValidated:
		if bothHoldRole {
			return StateActiveValidated
		}
		return StateActivePending
	default:
		return s
	}
}

// Apply writes the state back onto the persisted flags.
func (r *Referral) Apply(s ReferralState) {
	switch s {
	case StateActivePending:
		r.IsMemberActive = true
		r.IsValidated = false
	case StateActiveValidated:
		r.IsMemberActive = true
		r.IsValidated = true
	case StateInactive:
		r.IsMemberActive = false
		r.IsValidated = false
	}
}
