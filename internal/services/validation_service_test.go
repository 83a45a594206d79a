package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
	"github.com/nrrp/referral-tracker/internal/repo"
)

func staticRoster(members ...Member) Roster {
	m := make(map[string]Member, len(members))
	for _, member := range members {
		m[member.ID] = member
	}
	return RosterFunc(func(context.Context) (map[string]Member, error) { return m, nil })
}

func seedActiveReferral(t *testing.T, db *gorm.DB, inviterID, invitedID string) domain.Referral {
	t.Helper()
	r := domain.Referral{InviterID: inviterID, InvitedID: invitedID, IsMemberActive: true}
	if err := repo.CreateReferral(context.Background(), db, &r); err != nil {
		t.Fatalf("seed referral: %v", err)
	}
	return r
}

func TestValidationRun_BothMustHoldRole(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	seedActiveReferral(t, db, "inv1", "both")    // both hold the role
	seedActiveReferral(t, db, "inv1", "oneside") // invitee lacks it
	seedActiveReferral(t, db, "lapsed", "other") // inviter lacks it
	seedActiveReferral(t, db, "inv1", "ghost")   // invitee not on the roster

	svc := NewValidationService(db, staticRoster(
		Member{ID: "inv1", HasRequiredRole: true},
		Member{ID: "both", HasRequiredRole: true},
		Member{ID: "oneside", HasRequiredRole: false},
		Member{ID: "lapsed", HasRequiredRole: false},
		Member{ID: "other", HasRequiredRole: true},
	))

	res, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Scanned != 4 || res.Validated != 1 || res.Invalid != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}

	r, err := repo.GetReferralByInvited(ctx, db, "both")
	if err != nil || !r.IsValidated {
		t.Fatalf("expected validated row, got %+v err=%v", r, err)
	}
	for _, id := range []string{"oneside", "other", "ghost"} {
		r, err := repo.GetReferralByInvited(ctx, db, id)
		if err != nil || r.IsValidated {
			t.Fatalf("expected unvalidated row for %s, got %+v err=%v", id, r, err)
		}
	}
}

func TestValidationRun_ClearsStalePositives(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	r := seedActiveReferral(t, db, "inv1", "new1")
	if err := repo.SetReferralState(ctx, db, r.ID, domain.StateActiveValidated); err != nil {
		t.Fatalf("SetReferralState: %v", err)
	}

	// The inviter lost the role since the last pass.
	svc := NewValidationService(db, staticRoster(
		Member{ID: "inv1", HasRequiredRole: false},
		Member{ID: "new1", HasRequiredRole: true},
	))
	res, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Validated != 0 || res.Invalid != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	got, err := repo.GetReferralByInvited(ctx, db, "new1")
	if err != nil || got.IsValidated {
		t.Fatalf("stale validation survived: %+v err=%v", got, err)
	}
}

func TestValidationRun_IdempotentOnUnchangedRoster(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	seedActiveReferral(t, db, "inv1", "new1")
	svc := NewValidationService(db, staticRoster(
		Member{ID: "inv1", HasRequiredRole: true},
		Member{ID: "new1", HasRequiredRole: true},
	))

	first, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := svc.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first != second {
		t.Fatalf("pass not idempotent: first=%+v second=%+v", first, second)
	}
	if second.Validated != 1 {
		t.Fatalf("expected 1 validated, got %+v", second)
	}
}

func TestValidationRun_EmptyRoster(t *testing.T) {
	db := newServiceDB(t)
	seedActiveReferral(t, db, "inv1", "new1")

	svc := NewValidationService(db, RosterFunc(func(context.Context) (map[string]Member, error) {
		return map[string]Member{}, nil
	}))
	if _, err := svc.Run(context.Background()); !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}

	// The guard must fire before the destructive reset.
	r, err := repo.GetReferralByInvited(context.Background(), db, "new1")
	if err != nil {
		t.Fatalf("GetReferralByInvited: %v", err)
	}
	if !r.IsMemberActive {
		t.Fatalf("row must be untouched: %+v", r)
	}
}

func TestValidationRun_RosterError(t *testing.T) {
	db := newServiceDB(t)
	want := errors.New("gateway down")

	svc := NewValidationService(db, RosterFunc(func(context.Context) (map[string]Member, error) {
		return nil, want
	}))
	if _, err := svc.Run(context.Background()); !errors.Is(err, want) {
		t.Fatalf("expected roster error, got %v", err)
	}
}

func TestValidationRun_SnapshotsFirstRoleObservationOnce(t *testing.T) {
	db := newServiceDB(t)
	ctx := context.Background()

	seedActiveReferral(t, db, "inv1", "new1")
	svc := NewValidationService(db, staticRoster(
		Member{ID: "inv1", HasRequiredRole: true},
		Member{ID: "new1", HasRequiredRole: true},
	))

	if _, err := svc.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := svc.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	for _, id := range []string{"inv1", "new1"} {
		n, err := repo.CountHistory(ctx, db, id)
		if err != nil {
			t.Fatalf("CountHistory: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected exactly one snapshot for %s, got %d", id, n)
		}
		had, err := repo.MemberHadRole(ctx, db, id)
		if err != nil || !had {
			t.Fatalf("expected role history for %s, had=%v err=%v", id, had, err)
		}
	}
}
