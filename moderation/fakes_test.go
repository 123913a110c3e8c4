package moderation

import (
	"context"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"discord-moderator/model"
	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
)

var fastRetry = utils.RetryOptions{
	MaxElapsedTime:  time.Second,
	InitialInterval: time.Millisecond,
	MaxInterval:     time.Millisecond,
	MaxRetries:      2,
}

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status, Status: http.StatusText(status)},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

func auditReason(options []discordgo.RequestOption) string {
	req, _ := http.NewRequest(http.MethodGet, "http://discord.test", nil)
	cfg := &discordgo.RequestConfig{Request: req}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg.Request.Header.Get("X-Audit-Log-Reason")
}

type roleChange struct {
	UserID string
	RoleID string
	Reason string
}

// fakePlatform is an in-memory guild.
type fakePlatform struct {
	mu sync.Mutex

	guild    *discordgo.Guild
	channels []*discordgo.Channel
	members  map[string]*discordgo.Member
	audit    []*discordgo.AuditLogEntry
	messages []*discordgo.Message
	nextID   int64
	now      func() time.Time

	roleCreates    int
	roleDeletes    int
	permissionSets int
	roleAdds       []roleChange
	roleRemoves    []roleChange
	bans           []roleChange
	kicks          []roleChange
	bulkDeleted    [][]string
	deleted        []string
	auditReads     int

	errRoleCreate    error
	errPermissionSet error
	errRoleAdd       error
	roleAddApplies   bool
	errGuildMember   []error
	errAudit         error

	// beforeGuildMember runs once, outside the lock, ahead of the next member read.
	beforeGuildMember func()
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		guild: &discordgo.Guild{
			ID:      "g1",
			OwnerID: "owner",
			Roles: []*discordgo.Role{
				{ID: "g1", Name: "@everyone"},
				{ID: "r-admin", Name: DefaultAdminRoleName},
				{ID: "r-root", Name: "root", Permissions: discordgo.PermissionAdministrator},
			},
		},
		channels: []*discordgo.Channel{
			{ID: "c-text", Type: discordgo.ChannelTypeGuildText},
			{ID: "c-news", Type: discordgo.ChannelTypeGuildNews},
			{ID: "c-voice", Type: discordgo.ChannelTypeGuildVoice},
			{ID: "c-category", Type: discordgo.ChannelTypeGuildCategory},
		},
		members: make(map[string]*discordgo.Member),
		nextID:  1000,
		now:     time.Now,
	}
}

func (f *fakePlatform) addMember(id string, roles ...string) *discordgo.Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &discordgo.Member{GuildID: f.guild.ID, User: &discordgo.User{ID: id, Username: id}, Roles: roles}
	f.members[id] = m
	return f.copyMember(m)
}

func (f *fakePlatform) copyMember(m *discordgo.Member) *discordgo.Member {
	c := *m
	u := *m.User
	c.User = &u
	c.Roles = slices.Clone(m.Roles)
	return &c
}

// member returns a snapshot of the member as the platform sees it.
func (f *fakePlatform) member(id string) *discordgo.Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyMember(f.members[id])
}

func (f *fakePlatform) guildSnapshot() *discordgo.Guild {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := *f.guild
	g.Roles = slices.Clone(f.guild.Roles)
	return &g
}

func (f *fakePlatform) restrictedRoleID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r := utils.FindRole(f.guild.Roles, RestrictedRoleName); r != nil {
		return r.ID
	}
	return ""
}

func (f *fakePlatform) hasRole(userID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[userID]
	return ok && slices.Contains(m.Roles, roleID)
}

func (f *fakePlatform) id() string {
	f.nextID++
	return strconv.FormatInt(f.nextID, 10)
}

func (f *fakePlatform) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	return f.guildSnapshot(), nil
}

func (f *fakePlatform) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.guild.Roles), nil
}

func (f *fakePlatform) GuildRoleCreate(guildID string, data *discordgo.RoleParams, _ ...discordgo.RequestOption) (*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errRoleCreate != nil {
		return nil, f.errRoleCreate
	}
	f.roleCreates++
	role := &discordgo.Role{ID: "r-" + f.id(), Name: data.Name}
	if data.Permissions != nil {
		role.Permissions = *data.Permissions
	}
	f.guild.Roles = append(f.guild.Roles, role)
	return role, nil
}

func (f *fakePlatform) GuildRoleDelete(guildID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleDeletes++
	f.guild.Roles = slices.DeleteFunc(f.guild.Roles, func(r *discordgo.Role) bool { return r.ID == roleID })
	return nil
}

func (f *fakePlatform) GuildChannels(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*discordgo.Channel, 0, len(f.channels))
	for _, ch := range f.channels {
		c := *ch
		c.PermissionOverwrites = slices.Clone(ch.PermissionOverwrites)
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakePlatform) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errPermissionSet != nil {
		return f.errPermissionSet
	}
	f.permissionSets++
	for _, ch := range f.channels {
		if ch.ID != channelID {
			continue
		}
		ch.PermissionOverwrites = slices.DeleteFunc(ch.PermissionOverwrites, func(o *discordgo.PermissionOverwrite) bool {
			return o.ID == targetID
		})
		ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{
			ID: targetID, Type: targetType, Allow: allow, Deny: deny,
		})
	}
	return nil
}

func (f *fakePlatform) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.mu.Lock()
	hook := f.beforeGuildMember
	f.beforeGuildMember = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errGuildMember) > 0 {
		err := f.errGuildMember[0]
		f.errGuildMember = f.errGuildMember[1:]
		return nil, err
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, restError(http.StatusNotFound, discordgo.ErrCodeUnknownMember)
	}
	return f.copyMember(m), nil
}

func (f *fakePlatform) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reason := auditReason(options)
	if f.errRoleAdd != nil && !f.roleAddApplies {
		return f.errRoleAdd
	}
	m, ok := f.members[userID]
	if !ok {
		return restError(http.StatusNotFound, discordgo.ErrCodeUnknownMember)
	}
	if !slices.Contains(m.Roles, roleID) {
		m.Roles = append(m.Roles, roleID)
	}
	f.roleAdds = append(f.roleAdds, roleChange{UserID: userID, RoleID: roleID, Reason: reason})

	kind := discordgo.AuditLogChangeKeyRoleAdd
	action := discordgo.AuditLogActionMemberRoleUpdate
	// newest first, like the real audit log
	f.audit = append([]*discordgo.AuditLogEntry{{
		ID:         f.snowflake(f.now()),
		TargetID:   userID,
		UserID:     "bot",
		ActionType: &action,
		Reason:     reason,
		Changes: []*discordgo.AuditLogChange{{
			Key:      &kind,
			NewValue: []interface{}{map[string]interface{}{"id": roleID, "name": RestrictedRoleName}},
		}},
	}}, f.audit...)

	return f.errRoleAdd
}

func (f *fakePlatform) GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[userID]
	if !ok {
		return restError(http.StatusNotFound, discordgo.ErrCodeUnknownMember)
	}
	m.Roles = slices.DeleteFunc(m.Roles, func(r string) bool { return r == roleID })
	f.roleRemoves = append(f.roleRemoves, roleChange{UserID: userID, RoleID: roleID, Reason: auditReason(options)})
	return nil
}

func (f *fakePlatform) GuildAuditLog(guildID, userID, beforeID string, actionType, limit int, _ ...discordgo.RequestOption) (*discordgo.GuildAuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditReads++
	if f.errAudit != nil {
		return nil, f.errAudit
	}

	start := 0
	if beforeID != "" {
		start = len(f.audit)
		for i, e := range f.audit {
			if e.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.audit))
	return &discordgo.GuildAuditLog{AuditLogEntries: slices.Clone(f.audit[start:end])}, nil
}

func (f *fakePlatform) GuildBanCreateWithReason(guildID, userID, reason string, days int, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bans = append(f.bans, roleChange{UserID: userID, Reason: reason})
	delete(f.members, userID)
	return nil
}

func (f *fakePlatform) GuildMemberDeleteWithReason(guildID, userID, reason string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicks = append(f.kicks, roleChange{UserID: userID, Reason: reason})
	delete(f.members, userID)
	return nil
}

// ChannelMessages pages newest first through f.messages, which is kept newest first.
func (f *fakePlatform) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if beforeID != "" {
		start = len(f.messages)
		for i, m := range f.messages {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.messages))
	return slices.Clone(f.messages[start:end]), nil
}

func (f *fakePlatform) ChannelMessagesBulkDelete(channelID string, messages []string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkDeleted = append(f.bulkDeleted, slices.Clone(messages))
	return nil
}

func (f *fakePlatform) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

// snowflake builds an id whose timestamp is t.
func (f *fakePlatform) snowflake(t time.Time) string {
	f.nextID++
	ms := t.UnixMilli() - 1420070400000
	return strconv.FormatInt(ms<<22|f.nextID%4096, 10)
}

// seedMessages adds n messages at t, newest first, and returns the newest one's id.
func (f *fakePlatform) seedMessages(n int, t time.Time) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest string
	for i := 0; i < n; i++ {
		id := f.snowflake(t.Add(time.Duration(i) * time.Second))
		f.messages = append([]*discordgo.Message{{ID: id, ChannelID: "c-text"}}, f.messages...)
		newest = id
	}
	return newest
}

// fakeClock fires timers only from Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	due     time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, due: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every timer that became due, earliest first.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.due.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].due.Before(due[j].due) })
	for _, t := range due {
		t.f()
	}
}

// memStore is an in-memory SanctionStore.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]model.SanctionRecord
	failPut error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]model.SanctionRecord)}
}

func (s *memStore) Upsert(_ context.Context, r model.SanctionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.rows[SanctionKey(r.GuildID, r.UserID)] = r
	return nil
}

func (s *memStore) Get(_ context.Context, guildID, userID string) (*model.SanctionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[SanctionKey(guildID, userID)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *memStore) Delete(_ context.Context, guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, SanctionKey(guildID, userID))
	return nil
}

func (s *memStore) ListActive(context.Context) ([]model.SanctionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SanctionRecord, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	return out, nil
}

func (s *memStore) ListExpired(_ context.Context, before time.Time) ([]model.SanctionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SanctionRecord
	for _, r := range s.rows {
		if r.ExpiresAt <= before.Unix() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt < out[j].ExpiresAt })
	return out, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type recordingNotifier struct {
	mu      sync.Mutex
	expired []model.SanctionRecord
}

func (n *recordingNotifier) SanctionExpired(_ context.Context, r model.SanctionRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, r)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.expired)
}
