package model

import "time"

// SanctionRecord is one active mute in the 'sanctions' table.
// A guild member has at most one row; a newer mute replaces the older one.
type SanctionRecord struct {
	GuildID         string `db:"guild_id"`
	UserID          string `db:"user_id"`
	ActorID         string `db:"actor_id"`
	ActorName       string `db:"actor_name"`
	Reason          string `db:"reason"`
	MatchedKeyword  string `db:"matched_keyword"` // empty when the default duration applied
	ChannelID       string `db:"channel_id"`      // channel the mute was issued from, used for the expiry notice
	StartedAt       int64  `db:"started_at"`
	DurationSeconds int64  `db:"duration_seconds"`
	ExpiresAt       int64  `db:"expires_at"`
}

func (r SanctionRecord) Started() time.Time {
	return time.Unix(r.StartedAt, 0)
}

func (r SanctionRecord) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

func (r SanctionRecord) Expires() time.Time {
	return time.Unix(r.ExpiresAt, 0)
}
