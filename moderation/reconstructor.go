package moderation

import (
	"context"
	"fmt"
	"slices"

	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	// DefaultAuditLookback bounds how many audit entries a status query reads.
	DefaultAuditLookback = 1000
	auditPageSize        = 100
)

// Reconstructor answers "is this member muted, by whom, why, and for how long".
type Reconstructor struct {
	platform   Platform
	roles      *RoleManager
	store      SanctionStore
	classifier *Classifier
	clock      Clock
	lookback   int
	logger     *zap.Logger
	retry      utils.RetryOptions
}

func NewReconstructor(platform Platform, roles *RoleManager, store SanctionStore, classifier *Classifier,
	clock Clock, lookback int, logger *zap.Logger,
) *Reconstructor {
	if clock == nil {
		clock = RealClock
	}
	if lookback <= 0 {
		lookback = DefaultAuditLookback
	}
	return &Reconstructor{
		platform:   platform,
		roles:      roles,
		store:      store,
		classifier: classifier,
		clock:      clock,
		lookback:   lookback,
		logger:     logger.Named("reconstructor"),
		retry:      utils.GetDiscordReadRetryOptions(),
	}
}

// ActiveSanction returns the member's current mute, or nil when the member does not hold the
// restricted role. The local store is consulted first and the audit log second.
func (r *Reconstructor) ActiveSanction(ctx context.Context, guildID string, member *discordgo.Member) (*Sanction, error) {
	if member == nil || member.User == nil {
		return nil, &TargetError{Reason: "unknown"}
	}
	userID := member.User.ID

	role, err := r.roles.FindRestrictedRole(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if role == nil || !slices.Contains(member.Roles, role.ID) {
		r.dropStale(ctx, guildID, userID)
		return nil, nil
	}

	record, err := r.store.Get(ctx, guildID, userID)
	if err != nil {
		r.logger.Warn("Failed to read sanction store, falling back to audit log",
			zap.String("guildID", guildID),
			zap.String("userID", userID),
			zap.Error(err))
	}
	if record != nil {
		reconstructions.WithLabelValues(string(SourceStore)).Inc()
		return sanctionFromRecord(*record), nil
	}

	sanction, err := r.fromAudit(ctx, guildID, userID, role.ID)
	if err != nil {
		return nil, err
	}
	if sanction != nil {
		reconstructions.WithLabelValues(string(SourceAudit)).Inc()
		return sanction, nil
	}

	r.logger.Warn("Member holds restricted role without explanation",
		zap.String("guildID", guildID),
		zap.String("userID", userID),
		zap.Error(ErrHistoryInconclusive))
	reconstructions.WithLabelValues(string(SourceUnknown)).Inc()
	return &Sanction{
		GuildID:   guildID,
		UserID:    userID,
		StartedAt: r.clock.Now(),
		Duration:  r.classifier.Default(),
		Source:    SourceUnknown,
	}, nil
}

func (r *Reconstructor) dropStale(ctx context.Context, guildID, userID string) {
	record, err := r.store.Get(ctx, guildID, userID)
	if err != nil || record == nil {
		return
	}
	if err := r.store.Delete(ctx, guildID, userID); err != nil {
		r.logger.Warn("Failed to delete stale sanction row",
			zap.String("guildID", guildID),
			zap.String("userID", userID),
			zap.Error(err))
	}
}

// fromAudit walks member role updates newest first until it finds the grant of roleID to userID.
func (r *Reconstructor) fromAudit(ctx context.Context, guildID, userID, roleID string) (*Sanction, error) {
	before := ""
	for scanned := 0; scanned < r.lookback; {
		limit := min(auditPageSize, r.lookback-scanned)
		page, err := readWithRetry(ctx, r.retry, func() (*discordgo.GuildAuditLog, error) {
			return r.platform.GuildAuditLog(guildID, "", before,
				int(discordgo.AuditLogActionMemberRoleUpdate), limit, discordgo.WithContext(ctx))
		})
		if err != nil {
			platformErrors.WithLabelValues("audit_log").Inc()
			return nil, fmt.Errorf("failed to read audit log: %w", err)
		}
		if page == nil || len(page.AuditLogEntries) == 0 {
			return nil, nil
		}

		for _, entry := range page.AuditLogEntries {
			before = entry.ID
			if entry.TargetID != userID || !addsRole(entry, roleID) {
				continue
			}
			return r.sanctionFromEntry(guildID, userID, entry), nil
		}

		scanned += len(page.AuditLogEntries)
		if len(page.AuditLogEntries) < limit {
			break
		}
	}
	return nil, nil
}

func (r *Reconstructor) sanctionFromEntry(guildID, userID string, entry *discordgo.AuditLogEntry) *Sanction {
	reason := entry.Reason
	actorName := ""
	if ann, ok := ParseAnnotation(entry.Reason); ok {
		reason = ann.Reason
		actorName = ann.Actor
	}

	started, err := discordgo.SnowflakeTimestamp(entry.ID)
	if err != nil {
		started = r.clock.Now()
	}

	cls := r.classifier.Classify(reason)
	return &Sanction{
		GuildID:        guildID,
		UserID:         userID,
		ActorID:        entry.UserID,
		ActorName:      actorName,
		Reason:         reason,
		MatchedKeyword: cls.Keyword,
		StartedAt:      started,
		Duration:       cls.Duration,
		Source:         SourceAudit,
	}
}

// addsRole reports whether an audit entry's "$add" change includes roleID.
func addsRole(entry *discordgo.AuditLogEntry, roleID string) bool {
	for _, change := range entry.Changes {
		if change.Key == nil || *change.Key != discordgo.AuditLogChangeKeyRoleAdd {
			continue
		}
		added, ok := change.NewValue.([]interface{})
		if !ok {
			continue
		}
		for _, v := range added {
			role, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			if id, _ := role["id"].(string); id == roleID {
				return true
			}
		}
	}
	return false
}
