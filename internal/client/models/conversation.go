package models

import (
	"strconv"
	"strings"
	"time"
)

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ConversationSummary is one entry of the sidebar conversation list.
//
// Handle is a stable, client-generated identifier that never changes for the
// lifetime of the entry. ServerID is the backend-issued identifier; it is zero
// while the conversation exists only locally (not yet acknowledged by the
// backend) and is filled in, in place, once the backend assigns one.
type ConversationSummary struct {
	Handle       string
	ServerID     int64
	Title        string
	LastActivity time.Time
}

// Provisional reports whether the conversation has no backend identity yet.
func (c ConversationSummary) Provisional() bool { return c.ServerID == 0 }

// DisplayID is the identifier shown to the user: the numeric server ID, or a
// distinctly prefixed placeholder for local-only conversations.
func (c ConversationSummary) DisplayID() string {
	if c.Provisional() {
		return "temp-" + c.Handle
	}
	return strconv.FormatInt(c.ServerID, 10)
}

// Message is a single transcript entry. The sequence within a conversation is
// append-only and kept in insertion order.
type Message struct {
	ID        string
	Text      string
	Sender    Sender
	Timestamp time.Time
	// Source is the optional source-attribution label of an assistant reply.
	Source string
}

// ChatReply is the backend's answer to a sent message.
type ChatReply struct {
	Response       string
	ConversationID int64
	Source         string
}

// SenderFromBackendType maps a history item's type tag to a Sender. The match
// is case-insensitive against "user"/"human"; everything else counts as the
// assistant.
func SenderFromBackendType(t string) Sender {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "user", "human":
		return SenderUser
	default:
		return SenderAssistant
	}
}
