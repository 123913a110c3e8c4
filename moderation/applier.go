package moderation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"discord-moderator/model"
	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const reversalTimeout = 30 * time.Second

// Reversal triggers, used for metrics and logs.
const (
	TriggerTimer   = "timer"
	TriggerSweeper = "sweeper"
	TriggerManual  = "manual"
	TriggerGone    = "already_lifted"
)

// SanctionStore persists active mutes. *sanctions.Store satisfies it.
type SanctionStore interface {
	Upsert(ctx context.Context, record model.SanctionRecord) error
	Get(ctx context.Context, guildID, userID string) (*model.SanctionRecord, error)
	Delete(ctx context.Context, guildID, userID string) error
	ListActive(ctx context.Context) ([]model.SanctionRecord, error)
	ListExpired(ctx context.Context, before time.Time) ([]model.SanctionRecord, error)
}

// Notifier is told about mutes lifted automatically.
type Notifier interface {
	SanctionExpired(ctx context.Context, record model.SanctionRecord)
}

// MuteRequest asks for Target to be muted by Actor.
type MuteRequest struct {
	Guild     *discordgo.Guild
	Actor     *discordgo.Member
	Target    *discordgo.Member
	Reason    string
	ChannelID string
}

// MuteResult describes an applied mute.
type MuteResult struct {
	Sanction *Sanction
	RoleID   string
	// Default is set when no reason keyword matched.
	Default bool
	// Replaced is set when a pending mute of the same member was superseded.
	Replaced bool
}

// UnmuteRequest asks for Target's mute to be lifted early.
type UnmuteRequest struct {
	Guild  *discordgo.Guild
	Actor  *discordgo.Member
	Target *discordgo.Member
	Reason string
}

// Applier applies mutes and arranges for them to be lifted.
type Applier struct {
	platform   Platform
	gate       *Gate
	classifier *Classifier
	roles      *RoleManager
	store      SanctionStore
	scheduler  *Scheduler
	notifier   Notifier
	logger     *zap.Logger
	retry      utils.RetryOptions
}

func NewApplier(platform Platform, gate *Gate, classifier *Classifier, roles *RoleManager,
	store SanctionStore, scheduler *Scheduler, notifier Notifier, logger *zap.Logger,
) *Applier {
	return &Applier{
		platform:   platform,
		gate:       gate,
		classifier: classifier,
		roles:      roles,
		store:      store,
		scheduler:  scheduler,
		notifier:   notifier,
		logger:     logger.Named("applier"),
		retry:      utils.GetDiscordReadRetryOptions(),
	}
}

// MemberName is the name written into audit annotations for m.
func MemberName(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return "unknown"
	}
	return m.DisplayName()
}

// Apply mutes the target: gate, classify, ensure role, grant, persist, schedule reversal.
func (a *Applier) Apply(ctx context.Context, req MuteRequest) (*MuteResult, error) {
	if err := a.gate.Authorize(req.Guild, req.Actor, ActionMute); err != nil {
		return nil, err
	}
	if err := a.gate.ValidateTarget(req.Guild, req.Actor, req.Target); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultReason
	}
	cls := a.classifier.Classify(reason)

	guildID := req.Guild.ID
	userID := req.Target.User.ID

	role, err := a.roles.EnsureRestrictedRole(ctx, guildID)
	if err != nil {
		return nil, err
	}

	actorName := MemberName(req.Actor)
	if err := a.grant(ctx, guildID, userID, role.ID, FormatAnnotation(AnnotationMuted, actorName, reason)); err != nil {
		return nil, err
	}

	sanction := &Sanction{
		GuildID:        guildID,
		UserID:         userID,
		ActorID:        req.Actor.User.ID,
		ActorName:      actorName,
		Reason:         reason,
		MatchedKeyword: cls.Keyword,
		StartedAt:      a.scheduler.Now(),
		Duration:       cls.Duration,
		Source:         SourceStore,
	}
	record := sanction.record(req.ChannelID)

	// store failures are logged; the timer below still lifts the mute
	if err := a.store.Upsert(ctx, record); err != nil {
		a.logger.Error("Failed to persist sanction",
			zap.String("guildID", guildID),
			zap.String("userID", userID),
			zap.Error(err))
	}

	key := SanctionKey(guildID, userID)
	replaced := a.scheduler.Pending(key)
	a.scheduler.Schedule(key, cls.Duration, func() { a.expire(record) })

	keyword := cls.Keyword
	if cls.Default {
		keyword = "default"
	}
	sanctionsApplied.WithLabelValues(keyword).Inc()
	sanctionDuration.Observe(cls.Duration.Minutes())

	a.logger.Info("Muted member",
		zap.String("guildID", guildID),
		zap.String("userID", userID),
		zap.String("actorID", sanction.ActorID),
		zap.String("reason", reason),
		zap.Duration("duration", cls.Duration),
		zap.Bool("replaced", replaced))

	return &MuteResult{
		Sanction: sanction,
		RoleID:   role.ID,
		Default:  cls.Default,
		Replaced: replaced,
	}, nil
}

// grant adds the role. A transient failure is resolved by reading the member back
// rather than repeating the write.
func (a *Applier) grant(ctx context.Context, guildID, userID, roleID, annotation string) error {
	err := a.platform.GuildMemberRoleAdd(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(annotation))
	if err == nil {
		return nil
	}

	platformErrors.WithLabelValues("role_add").Inc()
	err = classifyError(err)
	if !errors.Is(err, ErrTransient) {
		return fmt.Errorf("failed to grant restricted role: %w", err)
	}

	member, readErr := readWithRetry(ctx, a.retry, func() (*discordgo.Member, error) {
		return a.platform.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	})
	if readErr == nil && slices.Contains(member.Roles, roleID) {
		a.logger.Warn("Role grant reported failure but role is present",
			zap.String("guildID", guildID),
			zap.String("userID", userID),
			zap.Error(err))
		return nil
	}
	return fmt.Errorf("failed to grant restricted role: %w", err)
}

// Unmute lifts a mute before it expires.
func (a *Applier) Unmute(ctx context.Context, req UnmuteRequest) error {
	if err := a.gate.Authorize(req.Guild, req.Actor, ActionUnmute); err != nil {
		return err
	}
	if req.Target == nil || req.Target.User == nil {
		return &TargetError{Reason: "unknown"}
	}

	guildID := req.Guild.ID
	userID := req.Target.User.ID

	role, err := a.roles.FindRestrictedRole(ctx, guildID)
	if err != nil {
		return err
	}
	if role == nil || !slices.Contains(req.Target.Roles, role.ID) {
		return ErrTargetNotSanctioned
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = DefaultReason
	}

	a.scheduler.Cancel(SanctionKey(guildID, userID))
	err = a.platform.GuildMemberRoleRemove(guildID, userID, role.ID,
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(FormatAnnotation(AnnotationUnmuted, MemberName(req.Actor), reason)))
	if err != nil {
		platformErrors.WithLabelValues("role_remove").Inc()
		return fmt.Errorf("failed to remove restricted role: %w", classifyError(err))
	}

	if err := a.store.Delete(ctx, guildID, userID); err != nil {
		a.logger.Error("Failed to delete sanction row",
			zap.String("guildID", guildID),
			zap.String("userID", userID),
			zap.Error(err))
	}

	sanctionsReversed.WithLabelValues(TriggerManual).Inc()
	a.logger.Info("Unmuted member",
		zap.String("guildID", guildID),
		zap.String("userID", userID),
		zap.String("actorID", req.Actor.User.ID))
	return nil
}

func (a *Applier) expire(record model.SanctionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), reversalTimeout)
	defer cancel()

	if err := a.reverse(ctx, record, TriggerTimer); err != nil {
		a.logger.Error("Failed to lift expired mute, leaving it to the sweeper",
			zap.String("guildID", record.GuildID),
			zap.String("userID", record.UserID),
			zap.Error(err))
	}
}

// reverse lifts an expired mute. The store row is kept on failure so the sweeper retries it.
func (a *Applier) reverse(ctx context.Context, record model.SanctionRecord, trigger string) error {
	role, err := a.roles.FindRestrictedRole(ctx, record.GuildID)
	if err != nil {
		return err
	}
	if role == nil {
		if !a.superseded(ctx, record) {
			a.forget(ctx, record, TriggerGone)
		}
		return nil
	}

	member, err := readWithRetry(ctx, a.retry, func() (*discordgo.Member, error) {
		return a.platform.GuildMember(record.GuildID, record.UserID, discordgo.WithContext(ctx))
	})
	if err != nil {
		if isUnknownMember(err) {
			a.forget(ctx, record, TriggerGone)
			return nil
		}
		return fmt.Errorf("failed to read member: %w", err)
	}
	// the member may have been muted again while it was being read
	if a.superseded(ctx, record) {
		return nil
	}
	if !slices.Contains(member.Roles, role.ID) {
		a.forget(ctx, record, TriggerGone)
		return nil
	}

	err = a.platform.GuildMemberRoleRemove(record.GuildID, record.UserID, role.ID,
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(FormatAnnotation(AnnotationUnmuted, ExpiryActor, record.Reason)))
	if err != nil {
		platformErrors.WithLabelValues("role_remove").Inc()
		return fmt.Errorf("failed to remove restricted role: %w", classifyError(err))
	}

	a.forget(ctx, record, trigger)
	a.logger.Info("Mute expired",
		zap.String("guildID", record.GuildID),
		zap.String("userID", record.UserID),
		zap.String("trigger", trigger))

	if a.notifier != nil {
		a.notifier.SanctionExpired(ctx, record)
	}
	return nil
}

// superseded reports whether a newer mute has replaced record since its reversal fired.
func (a *Applier) superseded(ctx context.Context, record model.SanctionRecord) bool {
	if a.scheduler.Pending(SanctionKey(record.GuildID, record.UserID)) {
		a.logger.Debug("Skipping reversal of replaced mute",
			zap.String("guildID", record.GuildID),
			zap.String("userID", record.UserID))
		return true
	}
	current, err := a.store.Get(ctx, record.GuildID, record.UserID)
	if err != nil {
		a.logger.Warn("Failed to re-read sanction row",
			zap.String("guildID", record.GuildID),
			zap.String("userID", record.UserID),
			zap.Error(err))
		return false
	}
	if current == nil {
		return false
	}
	return current.StartedAt != record.StartedAt || current.ExpiresAt != record.ExpiresAt
}

func (a *Applier) forget(ctx context.Context, record model.SanctionRecord, trigger string) {
	sanctionsReversed.WithLabelValues(trigger).Inc()
	if err := a.store.Delete(ctx, record.GuildID, record.UserID); err != nil {
		a.logger.Error("Failed to delete sanction row",
			zap.String("guildID", record.GuildID),
			zap.String("userID", record.UserID),
			zap.Error(err))
	}
}

// Rearm schedules a reversal for every stored mute. Overdue mutes fire immediately.
func (a *Applier) Rearm(ctx context.Context) (int, error) {
	records, err := a.store.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load sanctions: %w", err)
	}

	now := a.scheduler.Now()
	for _, record := range records {
		a.scheduler.Schedule(SanctionKey(record.GuildID, record.UserID), record.Expires().Sub(now), func() {
			a.expire(record)
		})
	}
	return len(records), nil
}

// SweepExpired lifts stored mutes whose expiry passed without a live timer.
func (a *Applier) SweepExpired(ctx context.Context) (int, error) {
	records, err := a.store.ListExpired(ctx, a.scheduler.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sanctions: %w", err)
	}

	lifted := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return lifted, err
		}
		if a.scheduler.Pending(SanctionKey(record.GuildID, record.UserID)) {
			continue
		}
		if err := a.reverse(ctx, record, TriggerSweeper); err != nil {
			a.logger.Warn("Sweeper could not lift mute",
				zap.String("guildID", record.GuildID),
				zap.String("userID", record.UserID),
				zap.Error(err))
			continue
		}
		lifted++
	}
	return lifted, nil
}

// Scheduler exposes the reversal scheduler for status reporting.
func (a *Applier) Scheduler() *Scheduler {
	return a.scheduler
}
