// Package fake is an in-memory platform.Client for service tests
package fake

import (
	"context"
	"io"
	"slices"
	"sync"

	"warden/internal/core/platform"
)

// RoleCall records one AddRole/RemoveRole invocation
type RoleCall struct {
	Community, User, Role platform.ID
	Reason                string
}

// Sent is one outbound message
type Sent struct {
	Channel  platform.ID
	Text     string
	Filename string
	Body     string
}

type memberKey struct{ community, user platform.ID }

// Client fakes every platform seam. Exported fields may be set before use; use the methods afterwards
type Client struct {
	SelfID platform.ID

	// ReversePages serves each audit page oldest-first
	ReversePages bool

	FailAudit   error
	FailMembers error
	FailSend    error
	FailAdd     error
	FailRemove  map[platform.ID]error

	// OnRemove runs inside RemoveRole before the role is dropped
	OnRemove func(ctx context.Context, user platform.ID) error

	mu        sync.Mutex
	roles     map[memberKey]map[platform.ID]struct{}
	audit     map[platform.ID][]platform.AuditEntry
	authors   map[platform.ID]platform.ID
	pageCalls int
	added     []RoleCall
	removed   []RoleCall
	sent      []Sent
}

var _ platform.Client = (*Client)(nil)

// New returns an empty fake whose bot user is self
func New(self platform.ID) *Client {
	return &Client{
		SelfID:     self,
		FailRemove: map[platform.ID]error{},
		roles:      map[memberKey]map[platform.ID]struct{}{},
		audit:      map[platform.ID][]platform.AuditEntry{},
		authors:    map[platform.ID]platform.ID{},
	}
}

// Self implements platform.Client
func (c *Client) Self() platform.ID { return c.SelfID }

// Grant gives user the roles without recording a call
func (c *Client) Grant(community, user platform.ID, roles ...platform.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := memberKey{community, user}
	if c.roles[k] == nil {
		c.roles[k] = map[platform.ID]struct{}{}
	}
	for _, r := range roles {
		c.roles[k][r] = struct{}{}
	}
}

// Holds reports whether user currently holds role
func (c *Client) Holds(community, user, role platform.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.roles[memberKey{community, user}][role]
	return ok
}

// AddAudit appends entries to the community trail
func (c *Client) AddAudit(community platform.ID, entries ...platform.AuditEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audit[community] = append(c.audit[community], entries...)
}

// SetAuthor registers the author of a message
func (c *Client) SetAuthor(message, author platform.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authors[message] = author
}

// AddRole implements platform.RoleClient
func (c *Client) AddRole(_ context.Context, community, user, role platform.ID, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.added = append(c.added, RoleCall{community, user, role, reason})
	if c.FailAdd != nil {
		return c.FailAdd
	}
	k := memberKey{community, user}
	if c.roles[k] == nil {
		c.roles[k] = map[platform.ID]struct{}{}
	}
	c.roles[k][role] = struct{}{}
	return nil
}

// RemoveRole implements platform.RoleClient
func (c *Client) RemoveRole(ctx context.Context, community, user, role platform.ID, reason string) error {
	if c.OnRemove != nil {
		if err := c.OnRemove(ctx, user); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, RoleCall{community, user, role, reason})
	if err := c.FailRemove[user]; err != nil {
		return err
	}
	delete(c.roles[memberKey{community, user}], role)
	return nil
}

// HasRole implements platform.RoleClient
func (c *Client) HasRole(_ context.Context, community, user, role platform.ID) (bool, error) {
	return c.Holds(community, user, role), nil
}

// FetchAuditPage serves entries strictly older than before, newest first, filtered by kind
func (c *Client) FetchAuditPage(_ context.Context, community, before platform.ID, limit int, kind platform.AuditKind) ([]platform.AuditEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageCalls++
	if c.FailAudit != nil {
		return nil, c.FailAudit
	}

	all := slices.Clone(c.audit[community])
	slices.SortFunc(all, func(a, b platform.AuditEntry) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	var page []platform.AuditEntry
	for _, e := range all {
		if before != 0 && e.ID >= before {
			continue
		}
		if kind != platform.AuditAny && e.Kind != kind {
			continue
		}
		page = append(page, e)
		if len(page) == limit {
			break
		}
	}
	if c.ReversePages {
		slices.Reverse(page)
	}
	return page, nil
}

// MembersWithRole implements platform.MemberDirectory
func (c *Client) MembersWithRole(_ context.Context, community, role platform.ID) ([]platform.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailMembers != nil {
		return nil, c.FailMembers
	}
	var out []platform.ID
	for k, set := range c.roles {
		if k.community != community {
			continue
		}
		if _, ok := set[role]; ok {
			out = append(out, k.user)
		}
	}
	slices.Sort(out)
	return out, nil
}

// SendText implements platform.MessageSink
func (c *Client) SendText(_ context.Context, channel platform.ID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSend != nil {
		return c.FailSend
	}
	c.sent = append(c.sent, Sent{Channel: channel, Text: text})
	return nil
}

// SendFile implements platform.MessageSink
func (c *Client) SendFile(_ context.Context, channel platform.ID, filename string, body io.Reader, caption string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSend != nil {
		return c.FailSend
	}
	c.sent = append(c.sent, Sent{Channel: channel, Text: caption, Filename: filename, Body: string(data)})
	return nil
}

// MessageAuthor implements platform.MessageLookup
func (c *Client) MessageAuthor(_ context.Context, _, message platform.ID) (platform.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.authors[message]
	if !ok {
		return 0, io.EOF
	}
	return a, nil
}

// Sent returns a copy of every outbound message
func (c *Client) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.sent)
}

// Texts returns the text of every outbound message
func (c *Client) Texts() []string {
	var out []string
	for _, s := range c.Sent() {
		out = append(out, s.Text)
	}
	return out
}

// Added returns recorded AddRole calls
func (c *Client) Added() []RoleCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.added)
}

// Removed returns recorded RemoveRole calls
func (c *Client) Removed() []RoleCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.removed)
}

// PageCalls counts FetchAuditPage invocations
func (c *Client) PageCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCalls
}
