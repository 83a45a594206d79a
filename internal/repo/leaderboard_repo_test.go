package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/nrrp/referral-tracker/internal/domain"
)

func TestLeaderboardRows_OrderingAndTieBreak(t *testing.T) {
	db := newReferralRepoDB(t, &domain.Referral{})
	ctx := context.Background()

	// alice: 3 validated of 5 active. bob: 3 validated of 3. carol: 2 of 4.
	seed := func(inviter string, validated, pending int) {
		for i := 0; i < validated; i++ {
			seedReferral(t, db, domain.Referral{
				InviterID: inviter, InviterName: inviter,
				InvitedID:      inviter + "-v" + string(rune('a'+i)),
				IsMemberActive: true, IsValidated: true,
			})
		}
		for i := 0; i < pending; i++ {
			seedReferral(t, db, domain.Referral{
				InviterID: inviter, InviterName: inviter,
				InvitedID:      inviter + "-p" + string(rune('a'+i)),
				IsMemberActive: true,
			})
		}
	}
	seed("alice", 3, 2)
	seed("bob", 3, 0)
	seed("carol", 2, 2)

	rows, err := LeaderboardRows(ctx, db, nil, 10)
	if err != nil {
		t.Fatalf("LeaderboardRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}
	if rows[0].InviterID != "alice" || rows[1].InviterID != "bob" || rows[2].InviterID != "carol" {
		t.Fatalf("unexpected ranking: %+v", rows)
	}
	if rows[0].Validated != 3 || rows[0].Pending != 2 || rows[0].Total != 5 {
		t.Fatalf("unexpected counts for leader: %+v", rows[0])
	}
}

func TestLeaderboardRows_IgnoresInactiveRows(t *testing.T) {
	db := newReferralRepoDB(t, &domain.Referral{})

	// All of dave's invitees left; he must not appear at all.
	seedReferral(t, db, domain.Referral{InviterID: "dave", InviterName: "dave", InvitedID: "gone1"})
	seedReferral(t, db, domain.Referral{InviterID: "dave", InviterName: "dave", InvitedID: "gone2"})
	seedReferral(t, db, domain.Referral{
		InviterID: "erin", InviterName: "erin", InvitedID: "here1", IsMemberActive: true,
	})

	rows, err := LeaderboardRows(context.Background(), db, nil, 10)
	if err != nil {
		t.Fatalf("LeaderboardRows: %v", err)
	}
	if len(rows) != 1 || rows[0].InviterID != "erin" {
		t.Fatalf("expected only erin, got %+v", rows)
	}
}

func TestLeaderboardRows_ExcludesAndLimits(t *testing.T) {
	db := newReferralRepoDB(t, &domain.Referral{})

	for _, id := range []string{"staff", "a", "b", "c"} {
		seedReferral(t, db, domain.Referral{
			InviterID: id, InviterName: id, InvitedID: "of-" + id, IsMemberActive: true,
		})
	}

	rows, err := LeaderboardRows(context.Background(), db, []string{"staff"}, 2)
	if err != nil {
		t.Fatalf("LeaderboardRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(rows))
	}
	for _, r := range rows {
		if r.InviterID == "staff" {
			t.Fatalf("excluded inviter leaked into ranking: %+v", rows)
		}
	}
}

func TestLeaderboardMessage_Lifecycle(t *testing.T) {
	db := newReferralRepoDB(t, &domain.LeaderboardMessage{})
	ctx := context.Background()

	if _, err := GetLeaderboardMessage(ctx, db, "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before publish, got %v", err)
	}

	if err := SaveLeaderboardMessage(ctx, db, "g1", "ch1", "m1"); err != nil {
		t.Fatalf("SaveLeaderboardMessage: %v", err)
	}
	got, err := GetLeaderboardMessage(ctx, db, "g1")
	if err != nil {
		t.Fatalf("GetLeaderboardMessage: %v", err)
	}
	if got.ChannelID != "ch1" || got.MessageID != "m1" {
		t.Fatalf("unexpected handle: %+v", got)
	}

	// Republish replaces the handle in place.
	if err := SaveLeaderboardMessage(ctx, db, "g1", "ch1", "m2"); err != nil {
		t.Fatalf("SaveLeaderboardMessage update: %v", err)
	}
	got, err = GetLeaderboardMessage(ctx, db, "g1")
	if err != nil {
		t.Fatalf("GetLeaderboardMessage: %v", err)
	}
	if got.MessageID != "m2" {
		t.Fatalf("expected updated message id, got %+v", got)
	}

	if err := DeleteLeaderboardMessage(ctx, db, "g1"); err != nil {
		t.Fatalf("DeleteLeaderboardMessage: %v", err)
	}
	if _, err := GetLeaderboardMessage(ctx, db, "g1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting again is not an error.
	if err := DeleteLeaderboardMessage(ctx, db, "g1"); err != nil {
		t.Fatalf("DeleteLeaderboardMessage repeat: %v", err)
	}
}
