// Package discord implements the platform seams on top of the Discord gateway and REST API
package discord

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"warden/internal/core/platform"
	perr "warden/internal/platform/errors"
	"warden/internal/platform/logger"
)

const (
	auditPageMax      = 100
	memberPageMax     = 1000
	defaultEventQueue = 256
)

// Intents the bot needs: guild metadata, messages with content, member lists and reactions
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsMessageContent

// Options configures the Client
type Options struct {
	Token      string
	EventQueue int
}

// Client is a platform.Client backed by a discordgo session
type Client struct {
	s      *discordgo.Session
	self   platform.ID
	events chan platform.Event
	done   chan struct{}
	once   sync.Once
	log    zerolog.Logger
}

var _ platform.Client = (*Client)(nil)

// New builds a client; call Open to connect the gateway
func New(o Options) (*Client, error) {
	if o.Token == "" {
		return nil, perr.Validationf("discord token is empty")
	}
	if o.EventQueue <= 0 {
		o.EventQueue = defaultEventQueue
	}
	s, err := discordgo.New("Bot " + o.Token)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "discord session")
	}
	s.Identify.Intents = Intents

	c := &Client{
		s:      s,
		events: make(chan platform.Event, o.EventQueue),
		done:   make(chan struct{}),
		log:    *logger.Named("discord"),
	}
	s.AddHandler(c.onMessageCreate)
	s.AddHandler(c.onReactionAdd)
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		c.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway ready")
	})
	return c, nil
}

// Open connects the gateway and learns the bot's own user id
func (c *Client) Open(ctx context.Context) error {
	if err := c.s.Open(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "discord gateway open")
	}
	if c.s.State == nil || c.s.State.User == nil {
		return perr.Unavailablef("discord gateway did not report the bot user")
	}
	id, err := platform.ParseID(c.s.State.User.ID)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "parse bot user id")
	}
	c.self = id
	logger.C(ctx).Info().Uint64("bot_id", uint64(id)).Msg("discord connected")
	return nil
}

// Close disconnects the gateway and ends the event stream
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.s.Close()
	})
	return err
}

// Events is the inbound event stream; it is never closed, stop consuming when Close was called
func (c *Client) Events() <-chan platform.Event { return c.events }

// Self implements platform.Client
func (c *Client) Self() platform.ID { return c.self }

func (c *Client) publish(ev platform.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if ev, ok := messageEvent(m); ok {
		c.publish(platform.Event{Message: &ev})
	}
}

func (c *Client) onReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if ev, ok := reactionEvent(r); ok {
		c.publish(platform.Event{Reaction: &ev})
	}
}

// AddRole implements platform.RoleClient
func (c *Client) AddRole(ctx context.Context, community, user, role platform.ID, reason string) error {
	err := c.s.GuildMemberRoleAdd(community.String(), user.String(), role.String(), reqOpts(ctx, reason)...)
	return restErr(err, "add role")
}

// RemoveRole implements platform.RoleClient; removing a role the user lacks is not an error
func (c *Client) RemoveRole(ctx context.Context, community, user, role platform.ID, reason string) error {
	err := c.s.GuildMemberRoleRemove(community.String(), user.String(), role.String(), reqOpts(ctx, reason)...)
	if statusOf(err) == http.StatusNotFound {
		return nil
	}
	return restErr(err, "remove role")
}

// HasRole implements platform.RoleClient; users that left the community hold nothing
func (c *Client) HasRole(ctx context.Context, community, user, role platform.ID) (bool, error) {
	m, err := c.s.GuildMember(community.String(), user.String(), discordgo.WithContext(ctx))
	if statusOf(err) == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, restErr(err, "get member")
	}
	return slices.Contains(m.Roles, role.String()), nil
}

// FetchAuditPage implements platform.AuditTrailClient. Discord caps pages at 100 entries
func (c *Client) FetchAuditPage(ctx context.Context, community, before platform.ID, limit int, kind platform.AuditKind) ([]platform.AuditEntry, error) {
	limit = min(max(1, limit), auditPageMax)
	var beforeID string
	if before != 0 {
		beforeID = before.String()
	}
	log, err := c.s.GuildAuditLog(community.String(), "", beforeID, actionFor(kind), limit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, restErr(err, "audit log")
	}
	out := make([]platform.AuditEntry, 0, len(log.AuditLogEntries))
	for _, e := range log.AuditLogEntries {
		if ae, ok := auditEntry(e); ok {
			out = append(out, ae)
		}
	}
	return out, nil
}

// MembersWithRole implements platform.MemberDirectory by paging through the whole member list
func (c *Client) MembersWithRole(ctx context.Context, community, role platform.ID) ([]platform.ID, error) {
	var (
		after string
		out   []platform.ID
		want  = role.String()
	)
	for {
		page, err := c.s.GuildMembers(community.String(), after, memberPageMax, discordgo.WithContext(ctx))
		if err != nil {
			return nil, restErr(err, "list members")
		}
		for _, m := range page {
			if m.User == nil || !slices.Contains(m.Roles, want) {
				continue
			}
			if id, err := platform.ParseID(m.User.ID); err == nil {
				out = append(out, id)
			}
		}
		if len(page) < memberPageMax || page[len(page)-1].User == nil {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// SendText implements platform.MessageSink
func (c *Client) SendText(ctx context.Context, channel platform.ID, text string) error {
	_, err := c.s.ChannelMessageSend(channel.String(), text, discordgo.WithContext(ctx))
	return restErr(err, "send message")
}

// SendFile implements platform.MessageSink
func (c *Client) SendFile(ctx context.Context, channel platform.ID, filename string, body io.Reader, caption string) error {
	_, err := c.s.ChannelMessageSendComplex(channel.String(), &discordgo.MessageSend{
		Content: caption,
		Files:   []*discordgo.File{{Name: filename, ContentType: "application/json", Reader: body}},
	}, discordgo.WithContext(ctx))
	return restErr(err, "send file")
}

// MessageAuthor implements platform.MessageLookup
func (c *Client) MessageAuthor(ctx context.Context, channel, message platform.ID) (platform.ID, error) {
	m, err := c.s.ChannelMessage(channel.String(), message.String(), discordgo.WithContext(ctx))
	if err != nil {
		return 0, restErr(err, "get message")
	}
	if m.Author == nil {
		return 0, perr.NotFoundf("message %d has no author", message)
	}
	return platform.ParseID(m.Author.ID)
}

func reqOpts(ctx context.Context, reason string) []discordgo.RequestOption {
	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	return opts
}

func statusOf(err error) int {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode
	}
	return 0
}

// restErr maps discord failures onto project error codes
func restErr(err error, op string) error {
	if err == nil {
		return nil
	}
	switch statusOf(err) {
	case http.StatusNotFound:
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeNotFound, "discord "+op), op)
	case http.StatusTooManyRequests:
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeTooManyRequests, "discord "+op), op)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "discord "+op), op)
}

// SnowflakeTime is the creation time encoded in a Discord id
func SnowflakeTime(id string) (time.Time, error) {
	return discordgo.SnowflakeTimestamp(id)
}
