package platform

import (
	"strconv"
	"time"
)

// ID is an opaque 64-bit platform identifier (snowflake)
type ID uint64

// String renders the id the way the platform API expects it
func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseID parses a decimal id; empty input is the zero id
func ParseID(s string) (ID, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// AuditKind filters audit log pages
type AuditKind int

const (
	// AuditAny is an unfiltered page
	AuditAny AuditKind = iota
	// AuditMemberRoleUpdate is a change of a member's role set
	AuditMemberRoleUpdate
)

// RoleChange is one role delta inside an audit entry
type RoleChange struct {
	Role  ID
	Added bool
}

// AuditEntry is a single platform audit record
type AuditEntry struct {
	ID        ID
	CreatedAt time.Time
	Kind      AuditKind
	Target    ID
	Changes   []RoleChange
}

// Adds reports whether the entry grants role to its target
func (e AuditEntry) Adds(role ID) bool {
	for _, c := range e.Changes {
		if c.Added && c.Role == role {
			return true
		}
	}
	return false
}

// Attachment is a file attached to an inbound message
type Attachment struct {
	Filename string
	URL      string
	ProxyURL string
	Size     int
}

// MessageEvent is an inbound chat message
type MessageEvent struct {
	Community   ID
	Channel     ID
	Message     ID
	Author      ID
	AuthorIsBot bool
	Content     string
	Mentions    []ID
	Attachments []Attachment
}

// Mentioned reports whether user is mentioned in the message
func (m MessageEvent) Mentioned(user ID) bool {
	for _, u := range m.Mentions {
		if u == user {
			return true
		}
	}
	return false
}

// ReactionEvent is an emoji reaction added to a message
type ReactionEvent struct {
	Community ID
	Channel   ID
	Message   ID
	User      ID
	Emoji     string
}

// Event is the union delivered by an event source; exactly one field is set
type Event struct {
	Message  *MessageEvent
	Reaction *ReactionEvent
}

// UnmarshalJSON accepts both numeric and quoted ids; platforms render snowflakes as strings
// while hand-written config files usually carry numbers
func (id *ID) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = v
	return nil
}
