package domain

import "testing"

func TestReferralState_FromFlags(t *testing.T) {
	cases := []struct {
		name string
		r    *Referral
		want ReferralState
	}{
		{"nil row", nil, StateUnseen},
		{"left guild", &Referral{IsMemberActive: false, IsValidated: false}, StateInactive},
		{"left guild stale flag", &Referral{IsMemberActive: false, IsValidated: true}, StateInactive},
		{"active pending", &Referral{IsMemberActive: true, IsValidated: false}, StateActivePending},
		{"active validated", &Referral{IsMemberActive: true, IsValidated: true}, StateActiveValidated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.State(); got != tc.want {
				t.Fatalf("State() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReferralState_Transitions(t *testing.T) {
	// Joining always lands in pending, whatever came before.
	for _, s := range []ReferralState{StateUnseen, StateActivePending, StateActiveValidated, StateInactive} {
		if got := s.OnJoin(); got != StateActivePending {
			t.Fatalf("%v.OnJoin() = %v, want %v", s, got, StateActivePending)
		}
	}

	// Leaving deactivates everything except a row that never existed.
	if got := StateUnseen.OnLeave(); got != StateUnseen {
		t.Fatalf("Unseen.OnLeave() = %v", got)
	}
	for _, s := range []ReferralState{StateActivePending, StateActiveValidated, StateInactive} {
		if got := s.OnLeave(); got != StateInactive {
			t.Fatalf("%v.OnLeave() = %v, want %v", s, got, StateInactive)
		}
	}

	// Validation only moves active rows.
	if got := StateActivePending.OnValidation(true); got != StateActiveValidated {
		t.Fatalf("Pending.OnValidation(true) = %v", got)
	}
	if got := StateActiveValidated.OnValidation(false); got != StateActivePending {
		t.Fatalf("Validated.OnValidation(false) = %v", got)
	}
	if got := StateInactive.OnValidation(true); got != StateInactive {
		t.Fatalf("Inactive.OnValidation(true) = %v", got)
	}
	if got := StateUnseen.OnValidation(true); got != StateUnseen {
		t.Fatalf("Unseen.OnValidation(true) = %v", got)
	}
}

func TestReferral_ApplyRoundTrip(t *testing.T) {
	for _, s := range []ReferralState{StateActivePending, StateActiveValidated, StateInactive} {
		var r Referral
		r.Apply(s)
		if got := r.State(); got != s {
			t.Fatalf("Apply(%v) then State() = %v", s, got)
		}
	}
}

func TestReferralState_String(t *testing.T) {
	cases := map[ReferralState]string{
		StateUnseen:          "unseen",
		StateActivePending:   "active_pending",
		StateActiveValidated: "active_validated",
		StateInactive:        "inactive",
		ReferralState(99):    "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("String(%d) = %q, want %q", int(s), got, want)
		}
	}
}
