// Package services – LeaderboardService
//
// This file implements leaderboard aggregation and rendering. Ranking
// happens in the store (validated count descending, total count breaking
// ties, top N, denylisted inviters excluded); this service turns the rows
// into the fixed-width text table shown inside the leaderboard embed.
package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/repo"
)

// nameColWidth caps the inviter column of the rendered table.
const nameColWidth = 17

// LeaderboardService aggregates referral standings and renders them.
type LeaderboardService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Exclude lists inviter ids omitted from the standings. Configured, not
	// inferred; defaults to empty.
	Exclude []string
	// TopN caps the number of ranked entries (default 10).
	TopN int
}

// NewLeaderboardService constructs a LeaderboardService with the default
// top-10 cutoff.
func NewLeaderboardService(db *gorm.DB, exclude []string) *LeaderboardService {
	return &LeaderboardService{DB: db, Exclude: exclude, TopN: 10}
}

// Standings returns the ranked leaderboard rows. An empty result is not an
// error; the caller renders a placeholder instead.
func (s *LeaderboardService) Standings(ctx context.Context) ([]repo.LeaderboardRow, error) {
	return repo.LeaderboardRows(ctx, s.DB, s.Exclude, s.TopN)
}

// RenderTable formats standings as a fixed-width text table suitable for a
// monospace code block. resolveName maps an inviter id to their current
// display name; when it returns "", the denormalized snapshot stored on the
// row is used instead.
func (s *LeaderboardService) RenderTable(rows []repo.LeaderboardRow, resolveName func(id string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-*s %9s %9s %7s\n", "#", nameColWidth, "Inviter", "Verified", "Pending", "Total")
	b.WriteString(strings.Repeat("-", 4+1+nameColWidth+1+9+1+9+1+7))
	b.WriteByte('\n')
	for i, r := range rows {
		name := ""
		if resolveName != nil {
			name = resolveName(r.InviterID)
		}
		if name == "" {
			name = r.InviterName
		}
		if name == "" {
			name = "User " + r.InviterID
		}
		fmt.Fprintf(&b, "%-4s %-*s %9d %9d %7d\n",
			fmt.Sprintf("%d.", i+1), nameColWidth, clipName(name, nameColWidth), r.Validated, r.Pending, r.Total)
	}
	return b.String()
}

// clipName normalizes a display name and truncates it to max runes so
// composed characters cannot break the column alignment.
func clipName(name string, max int) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if utf8.RuneCountInString(name) <= max {
		return name
	}
	return string([]rune(name)[:max])
}
