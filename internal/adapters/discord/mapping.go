package discord

import (
	"github.com/bwmarrin/discordgo"

	"warden/internal/core/platform"
)

func actionFor(kind platform.AuditKind) int {
	if kind == platform.AuditMemberRoleUpdate {
		return int(discordgo.AuditLogActionMemberRoleUpdate)
	}
	return 0
}

// auditEntry converts an audit record; entries with unparseable ids are dropped
func auditEntry(e *discordgo.AuditLogEntry) (platform.AuditEntry, bool) {
	if e == nil {
		return platform.AuditEntry{}, false
	}
	id, err := platform.ParseID(e.ID)
	if err != nil || id == 0 {
		return platform.AuditEntry{}, false
	}
	at, err := SnowflakeTime(e.ID)
	if err != nil {
		return platform.AuditEntry{}, false
	}
	target, _ := platform.ParseID(e.TargetID)

	out := platform.AuditEntry{ID: id, CreatedAt: at, Target: target, Kind: platform.AuditAny}
	if e.ActionType != nil && *e.ActionType == discordgo.AuditLogActionMemberRoleUpdate {
		out.Kind = platform.AuditMemberRoleUpdate
	}
	for _, ch := range e.Changes {
		if ch == nil || ch.Key == nil {
			continue
		}
		var added bool
		switch *ch.Key {
		case discordgo.AuditLogChangeKeyRoleAdd:
			added = true
		case discordgo.AuditLogChangeKeyRoleRemove:
			added = false
		default:
			continue
		}
		for _, role := range roleIDs(ch.NewValue) {
			out.Changes = append(out.Changes, platform.RoleChange{Role: role, Added: added})
		}
	}
	return out, true
}

// roleIDs reads the partial role objects carried by $add and $remove changes
func roleIDs(v any) []platform.ID {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []platform.ID
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		s, _ := obj["id"].(string)
		if id, err := platform.ParseID(s); err == nil && id != 0 {
			out = append(out, id)
		}
	}
	return out
}

func messageEvent(m *discordgo.MessageCreate) (platform.MessageEvent, bool) {
	if m == nil || m.Message == nil || m.Author == nil || m.GuildID == "" {
		return platform.MessageEvent{}, false
	}
	community, err1 := platform.ParseID(m.GuildID)
	channel, err2 := platform.ParseID(m.ChannelID)
	msg, err3 := platform.ParseID(m.ID)
	author, err4 := platform.ParseID(m.Author.ID)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return platform.MessageEvent{}, false
	}

	ev := platform.MessageEvent{
		Community:   community,
		Channel:     channel,
		Message:     msg,
		Author:      author,
		AuthorIsBot: m.Author.Bot,
		Content:     m.Content,
	}
	for _, u := range m.Mentions {
		if u == nil {
			continue
		}
		if id, err := platform.ParseID(u.ID); err == nil {
			ev.Mentions = append(ev.Mentions, id)
		}
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		ev.Attachments = append(ev.Attachments, platform.Attachment{
			Filename: a.Filename,
			URL:      a.URL,
			ProxyURL: a.ProxyURL,
			Size:     a.Size,
		})
	}
	return ev, true
}

func reactionEvent(r *discordgo.MessageReactionAdd) (platform.ReactionEvent, bool) {
	if r == nil || r.MessageReaction == nil || r.GuildID == "" {
		return platform.ReactionEvent{}, false
	}
	community, err1 := platform.ParseID(r.GuildID)
	channel, err2 := platform.ParseID(r.ChannelID)
	msg, err3 := platform.ParseID(r.MessageID)
	user, err4 := platform.ParseID(r.UserID)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return platform.ReactionEvent{}, false
	}
	return platform.ReactionEvent{
		Community: community,
		Channel:   channel,
		Message:   msg,
		User:      user,
		Emoji:     r.Emoji.Name,
	}, true
}
