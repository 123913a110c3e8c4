package sanctions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"discord-moderator/model"

	"github.com/jmoiron/sqlx"
)

// Store persists active sanctions, one row per guild member.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Upsert inserts a sanction, replacing any existing row for the same member.
func (s *Store) Upsert(ctx context.Context, record model.SanctionRecord) error {
	query := `INSERT INTO sanctions (guild_id, user_id, actor_id, actor_name, reason, matched_keyword, channel_id, started_at, duration_seconds, expires_at)
			  VALUES (:guild_id, :user_id, :actor_id, :actor_name, :reason, :matched_keyword, :channel_id, :started_at, :duration_seconds, :expires_at)
			  ON CONFLICT (guild_id, user_id) DO UPDATE SET
			  actor_id = excluded.actor_id,
			  actor_name = excluded.actor_name,
			  reason = excluded.reason,
			  matched_keyword = excluded.matched_keyword,
			  channel_id = excluded.channel_id,
			  started_at = excluded.started_at,
			  duration_seconds = excluded.duration_seconds,
			  expires_at = excluded.expires_at`

	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to upsert sanction for user %s in guild %s: %w", record.UserID, record.GuildID, err)
	}
	return nil
}

// Get returns the sanction of a member, or nil when none is stored.
func (s *Store) Get(ctx context.Context, guildID, userID string) (*model.SanctionRecord, error) {
	var record model.SanctionRecord
	query := "SELECT * FROM sanctions WHERE guild_id = ? AND user_id = ?"
	err := s.db.GetContext(ctx, &record, query, guildID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sanction for user %s in guild %s: %w", userID, guildID, err)
	}
	return &record, nil
}

// Delete removes the sanction of a member. Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, guildID, userID string) error {
	query := "DELETE FROM sanctions WHERE guild_id = ? AND user_id = ?"
	if _, err := s.db.ExecContext(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("failed to delete sanction for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// ListActive returns every stored sanction ordered by expiry.
func (s *Store) ListActive(ctx context.Context) ([]model.SanctionRecord, error) {
	var records []model.SanctionRecord
	query := "SELECT * FROM sanctions ORDER BY expires_at ASC"
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list sanctions: %w", err)
	}
	return records, nil
}

// ListExpired returns the sanctions whose expiry is at or before the given time.
func (s *Store) ListExpired(ctx context.Context, before time.Time) ([]model.SanctionRecord, error) {
	var records []model.SanctionRecord
	query := "SELECT * FROM sanctions WHERE expires_at <= ? ORDER BY expires_at ASC"
	if err := s.db.SelectContext(ctx, &records, query, before.Unix()); err != nil {
		return nil, fmt.Errorf("failed to list expired sanctions: %w", err)
	}
	return records, nil
}

// CountByGuild returns how many members are currently muted in a guild.
func (s *Store) CountByGuild(ctx context.Context, guildID string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM sanctions WHERE guild_id = ?"
	if err := s.db.GetContext(ctx, &count, query, guildID); err != nil {
		return 0, fmt.Errorf("failed to count sanctions for guild %s: %w", guildID, err)
	}
	return count, nil
}
