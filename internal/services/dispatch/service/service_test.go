package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"warden/internal/core/platform"
	"warden/internal/core/platform/fake"
	kit "warden/internal/platform/testkit"
	cfgdom "warden/internal/services/configs/domain"
	cfgsvc "warden/internal/services/configs/service"
	dom "warden/internal/services/dispatch/domain"
	evdom "warden/internal/services/eviction/domain"
	rolesvc "warden/internal/services/roles/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	guild      platform.ID = 1
	bot        platform.ID = 2
	user       platform.ID = 3
	mod        platform.ID = 4
	submitChan platform.ID = 20
	adminChan  platform.ID = 30
	otherChan  platform.ID = 40
	subRole    platform.ID = 50
	memberRole platform.ID = 51
)

type calls struct {
	mu      sync.Mutex
	manage  []cfgdom.AdminRequest
	onboard []cfgdom.AdminRequest
	evict   []evdom.Request
}

func (c *calls) Manage(_ context.Context, r cfgdom.AdminRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manage = append(c.manage, r)
	return nil
}

func (c *calls) Onboard(_ context.Context, r cfgdom.AdminRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onboard = append(c.onboard, r)
	return nil
}

func (c *calls) RunEviction(_ context.Context, r evdom.Request) (evdom.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evict = append(c.evict, r)
	return evdom.Result{Outcome: evdom.OutcomeCompleted}, nil
}

type harness struct {
	client *fake.Client
	calls  *calls
	store  *cfgsvc.Store
	svc    *Svc
}

func newHarness() *harness {
	h := &harness{client: fake.New(bot), calls: &calls{}, store: cfgsvc.NewStore()}
	h.store.TryAdd(guild, cfgdom.CommunityConfig{
		MembershipRoleID:           memberRole,
		MembershipChannelID:        60,
		SubmissionRoleID:           subRole,
		SubmissionChannelID:        submitChan,
		BotConfigurationChannelIDs: []platform.ID{adminChan},
	})
	h.svc = New(Config{Concurrency: 2}, Ports{
		Configs: h.store,
		Admin:   h.calls,
		Roles:   rolesvc.New(h.client, bot),
		Evictor: h.calls,
		Lookup:  h.client,
		Self:    bot,
	})
	return h
}

func msg(channel platform.ID, content string, mentionBot bool, files ...string) platform.Event {
	m := &platform.MessageEvent{Community: guild, Channel: channel, Message: 99, Author: user, Content: content}
	if mentionBot {
		m.Mentions = []platform.ID{bot}
	}
	for _, f := range files {
		m.Attachments = append(m.Attachments, platform.Attachment{Filename: f})
	}
	return platform.Event{Message: m}
}

func react(channel, message, reactor platform.ID, emoji string) platform.Event {
	return platform.Event{Reaction: &platform.ReactionEvent{Community: guild, Channel: channel, Message: message, User: reactor, Emoji: emoji}}
}

func TestSubmissionRoute(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.svc.Handle(ctx, msg(submitChan, "here is my proof", false, "proof.png")))
	assert.True(t, h.client.Holds(guild, user, subRole))

	// no attachment, other channel, bot author: nothing
	require.NoError(t, h.svc.Handle(ctx, msg(submitChan, "hi", false)))
	require.NoError(t, h.svc.Handle(ctx, msg(otherChan, "x", false, "a.png")))
	ev := msg(submitChan, "x", false, "a.png")
	ev.Message.AuthorIsBot = true
	require.NoError(t, h.svc.Handle(ctx, ev))
	assert.Len(t, h.client.Added(), 1)
}

func TestSubmissionChannelIgnoresCommands(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	conf, ok := h.store.Get(guild)
	require.True(t, ok)
	next := conf.Clone()
	next.BotConfigurationChannelIDs = append(next.BotConfigurationChannelIDs, submitChan)
	require.True(t, h.store.Replace(guild, next, cfgdom.Unchanged(conf)))

	require.NoError(t, h.svc.Handle(ctx, msg(submitChan, "<@2> evict", true)))
	assert.Empty(t, h.calls.evict)
	assert.Empty(t, h.client.Added())
}

func TestUnsetSubmissionChannel(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	conf, _ := h.store.Get(guild)
	next := conf.Clone()
	next.SubmissionRoleID = 0
	next.SubmissionChannelID = 0
	require.True(t, h.store.Replace(guild, next, cfgdom.Unchanged(conf)))

	require.NoError(t, h.svc.Handle(ctx, msg(submitChan, "proof", false, "proof.png")))
	require.NoError(t, h.svc.Handle(ctx, react(0, 99, mod, dom.ApprovalEmoji)))
	assert.Empty(t, h.client.Added())

	// admin commands keep working
	require.NoError(t, h.svc.Handle(ctx, msg(adminChan, "<@2> evict", true)))
	assert.Len(t, h.calls.evict, 1)
}

func TestAdminCommands(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.svc.Handle(ctx, msg(adminChan, "<@2> config", true, "1.json")))
	require.NoError(t, h.svc.Handle(ctx, msg(adminChan, "<@2> Onboard", true, "77.json")))
	require.NoError(t, h.svc.Handle(ctx, msg(adminChan, "<@2> please EVICT", true)))
	// CONFIG wins over EVICT
	require.NoError(t, h.svc.Handle(ctx, msg(adminChan, "<@2> evict? no, config", true)))

	require.Len(t, h.calls.manage, 2)
	assert.Equal(t, "1.json", h.calls.manage[0].Attachments[0].Filename)
	assert.Equal(t, adminChan, h.calls.manage[0].Channel)
	require.Len(t, h.calls.onboard, 1)
	require.Len(t, h.calls.evict, 1)
	assert.Equal(t, evdom.TriggerCommand, h.calls.evict[0].Trigger)
	assert.Equal(t, memberRole, h.calls.evict[0].Config.MembershipRoleID)
}

func TestAdminCommandsNeedMentionAndChannel(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	require.NoError(t, h.svc.Handle(ctx, msg(adminChan, "config", false)))
	require.NoError(t, h.svc.Handle(ctx, msg(otherChan, "<@2> config", true)))
	require.NoError(t, h.svc.Handle(ctx, msg(adminChan, "<@2> hello", true)))

	unknown := msg(adminChan, "<@2> config", true)
	unknown.Message.Community = 999
	require.NoError(t, h.svc.Handle(ctx, unknown))

	assert.Empty(t, h.calls.manage)
	assert.Empty(t, h.calls.evict)
}

func TestApprovalRoute(t *testing.T) {
	h := newHarness()
	h.client.Grant(guild, user, subRole)
	h.client.SetAuthor(99, user)
	ctx := context.Background()

	require.NoError(t, h.svc.Handle(ctx, react(submitChan, 99, mod, dom.ApprovalEmoji)))
	assert.True(t, h.client.Holds(guild, user, memberRole))
	assert.False(t, h.client.Holds(guild, user, subRole))
}

func TestApprovalIgnored(t *testing.T) {
	h := newHarness()
	h.client.SetAuthor(99, user)
	h.client.SetAuthor(98, bot)
	ctx := context.Background()

	require.NoError(t, h.svc.Handle(ctx, react(submitChan, 99, mod, "👍")))
	require.NoError(t, h.svc.Handle(ctx, react(otherChan, 99, mod, dom.ApprovalEmoji)))
	require.NoError(t, h.svc.Handle(ctx, react(submitChan, 99, bot, dom.ApprovalEmoji)))
	require.NoError(t, h.svc.Handle(ctx, react(submitChan, 98, mod, dom.ApprovalEmoji)))
	assert.Empty(t, h.client.Added())
}

func TestApprovalRequiresApproverRole(t *testing.T) {
	h := newHarness()
	cfg, _ := h.store.Get(guild)
	next := cfg.Clone()
	next.ApproverRoleIDs = []platform.ID{70}
	require.True(t, h.store.Replace(guild, next, cfgdom.Unchanged(cfg)))
	h.client.SetAuthor(99, user)
	ctx := context.Background()

	require.NoError(t, h.svc.Handle(ctx, react(submitChan, 99, mod, dom.ApprovalEmoji)))
	assert.Empty(t, h.client.Added())

	h.client.Grant(guild, mod, 70)
	require.NoError(t, h.svc.Handle(ctx, react(submitChan, 99, mod, dom.ApprovalEmoji)))
	assert.True(t, h.client.Holds(guild, user, memberRole))
}

func TestApprovalLookupFailure(t *testing.T) {
	h := newHarness()
	err := h.svc.Handle(context.Background(), react(submitChan, 12345, mod, dom.ApprovalEmoji))
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	cases := map[string]dom.Command{
		"<@2> config":                 dom.CommandConfig,
		"<@2> ＣＯＮＦＩＧ":                 dom.CommandConfig,
		"<@2> onboard this":           dom.CommandOnboard,
		"<@2> evict":                  dom.CommandEvict,
		"<@2> onboard, evict, config": dom.CommandConfig,
	}
	for in, want := range cases {
		got, ok := ParseCommand(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseCommand("<@2> status")
	assert.False(t, ok)
}

type slowEvictor struct {
	calls
	running, peak atomic.Int32
	gate          chan struct{}
}

func (s *slowEvictor) RunEviction(ctx context.Context, r evdom.Request) (evdom.Result, error) {
	n := s.running.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-s.gate
	s.running.Add(-1)
	return s.calls.RunEviction(ctx, r)
}

func TestRunBoundsConcurrency(t *testing.T) {
	h := newHarness()
	slow := &slowEvictor{gate: make(chan struct{})}
	h.svc.p.Evictor = slow

	events := make(chan platform.Event)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- h.svc.Run(ctx, events) }()

	go func() {
		for range 5 {
			events <- msg(adminChan, "<@2> evict", true)
		}
		close(events)
	}()

	kit.Eventually(t, time.Second, func() bool { return slow.running.Load() == 2 }, "pool saturated")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), slow.peak.Load())

	close(slow.gate)
	require.NoError(t, <-errc, "closed channel ends Run after draining")
	assert.Len(t, slow.evict, 5)
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.svc.Run(ctx, make(chan platform.Event)) }()
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}
