// Package repo – leaderboard aggregation and the published message handle.
//
// The ranking query mirrors the store-side aggregation the bot has always
// used: per-inviter validated/pending/total counts over active rows, ordered
// by validated count with total count as the tie-break.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nrrp/referral-tracker/internal/domain"
)

// LeaderboardRow is one ranked entry: an inviter with aggregate counts over
// their active referrals.
type LeaderboardRow struct {
	InviterID   string `json:"inviter_id"`
	InviterName string `json:"inviter_name"`
	Validated   int64  `json:"validated"`
	Pending     int64  `json:"pending"`
	Total       int64  `json:"total"`
}

// LeaderboardRows returns the top inviters by validated count (total count
// breaking ties), excluding the given inviter ids and inviters with no
// active referrals. A limit <= 0 is coerced to 10.
func LeaderboardRows(ctx context.Context, db *gorm.DB, exclude []string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	q := db.WithContext(ctx).
		Model(&domain.Referral{}).
		Select(`inviter_id, inviter_name,
			SUM(CASE WHEN is_validated AND is_member_active THEN 1 ELSE 0 END) AS validated,
			SUM(CASE WHEN NOT is_validated AND is_member_active THEN 1 ELSE 0 END) AS pending,
			SUM(CASE WHEN is_member_active THEN 1 ELSE 0 END) AS total`).
		Group("inviter_id, inviter_name").
		Having("total > 0").
		Order("validated DESC, total DESC").
		Limit(limit)
	if len(exclude) > 0 {
		q = q.Where("inviter_id NOT IN ?", exclude)
	}
	var out []LeaderboardRow
	err := q.Scan(&out).Error
	return out, err
}

// GetLeaderboardMessage returns the stored handle of the live leaderboard
// message for a guild, or ErrNotFound when none has been published yet.
func GetLeaderboardMessage(ctx context.Context, db *gorm.DB, guildID string) (*domain.LeaderboardMessage, error) {
	var m domain.LeaderboardMessage
	err := db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveLeaderboardMessage upserts the message handle for a guild, replacing
// whatever was stored before.
func SaveLeaderboardMessage(ctx context.Context, db *gorm.DB, guildID, channelID, messageID string) error {
	m := domain.LeaderboardMessage{
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: messageID,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Save(&m).Error
}

// DeleteLeaderboardMessage drops the stored handle for a guild. Missing rows
// are not an error.
func DeleteLeaderboardMessage(ctx context.Context, db *gorm.DB, guildID string) error {
	return db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Delete(&domain.LeaderboardMessage{}).Error
}
