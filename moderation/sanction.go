package moderation

import (
	"time"

	"discord-moderator/model"
)

// Source tells where a reconstructed sanction came from.
type Source string

const (
	SourceStore   Source = "store"
	SourceAudit   Source = "audit"
	SourceUnknown Source = "unknown"
)

// Sanction is an active mute as seen by the bot.
type Sanction struct {
	GuildID        string
	UserID         string
	ActorID        string
	ActorName      string
	Reason         string
	MatchedKeyword string
	StartedAt      time.Time
	Duration       time.Duration
	Source         Source
}

func (s *Sanction) ExpiresAt() time.Time {
	return s.StartedAt.Add(s.Duration)
}

// Remaining is the time left at now, never negative.
func (s *Sanction) Remaining(now time.Time) time.Duration {
	left := s.Duration - now.Sub(s.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

func sanctionFromRecord(rec model.SanctionRecord) *Sanction {
	return &Sanction{
		GuildID:        rec.GuildID,
		UserID:         rec.UserID,
		ActorID:        rec.ActorID,
		ActorName:      rec.ActorName,
		Reason:         rec.Reason,
		MatchedKeyword: rec.MatchedKeyword,
		StartedAt:      rec.Started(),
		Duration:       rec.Duration(),
		Source:         SourceStore,
	}
}

func (s *Sanction) record(channelID string) model.SanctionRecord {
	return model.SanctionRecord{
		GuildID:         s.GuildID,
		UserID:          s.UserID,
		ActorID:         s.ActorID,
		ActorName:       s.ActorName,
		Reason:          s.Reason,
		MatchedKeyword:  s.MatchedKeyword,
		ChannelID:       channelID,
		StartedAt:       s.StartedAt.Unix(),
		DurationSeconds: int64(s.Duration / time.Second),
		ExpiresAt:       s.ExpiresAt().Unix(),
	}
}
