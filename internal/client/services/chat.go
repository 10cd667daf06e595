package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/houstonsbarros/hominsaude/internal/client/api"
	"github.com/houstonsbarros/hominsaude/internal/client/models"
	"github.com/houstonsbarros/hominsaude/internal/logging"
)

var (
	// ErrNotAuthenticated signals that an operation requires a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrBusy signals that a send or a history load is already in flight.
	ErrBusy = errors.New("another request is in progress")
	// ErrUnknownConversation signals that no conversation matches the given id.
	ErrUnknownConversation = errors.New("unknown conversation")
	// ErrSendFailed signals that a chat message could not be delivered.
	ErrSendFailed = errors.New("could not contact the server")
	// ErrHistoryLoadFailed signals that a conversation history fetch failed.
	ErrHistoryLoadFailed = errors.New("could not load conversation history")
	// ErrDeleteFailed signals that a conversation could not be deleted.
	ErrDeleteFailed = errors.New("could not delete conversation")
)

// welcomeText opens every new conversation locally; it is never sent to the
// backend.
const welcomeText = "Hello! I'm **Touch**, your HOMIN+ virtual assistant. How can I help you today?"

// errorNoticeText is appended as an assistant message when a send fails, so
// the transcript shows the failure where the reply would have been.
const errorNoticeText = "Sorry, I could not process your message right now. Please try again."

// conversation is the in-memory transcript of one chat. The handle is a
// client-generated id that never changes; serverID is 0 until the backend
// assigns one.
type conversation struct {
	handle   string
	serverID int64
	messages []models.Message
}

func displayID(conv *conversation) string {
	s := models.ConversationSummary{Handle: conv.handle, ServerID: conv.serverID}
	return s.DisplayID()
}

// ChatService manages conversations and messages for the signed-in user.
//
// All mutating operations are serialized: at most one send or history load
// runs at a time, and callers arriving in the meantime get ErrBusy instead of
// being queued. Reads return copies.
type ChatService interface {
	Conversations() []models.ConversationSummary
	Messages() []models.Message
	ActiveConversationID() string
	Sending() bool
	LoadingHistory() bool

	NewChat() models.ConversationSummary
	Send(ctx context.Context, text string) error
	RefreshConversations(ctx context.Context) error
	Open(ctx context.Context, displayID string) error

	RequestDelete(displayID string) error
	PendingDelete() (models.ConversationSummary, bool)
	ConfirmDelete(ctx context.Context) error
	CancelDelete()
}

type chatService struct {
	client api.Client
	auth   AuthService
	log    logging.Logger

	mu            sync.Mutex
	conversations map[string]*conversation
	summaries     []models.ConversationSummary
	activeHandle  string
	sending       bool
	loadingHist   bool
	pendingDelete string
}

// NewChatService constructs a ChatService bound to the given API client.
// The auth service gates every network operation on a signed-in user.
func NewChatService(client api.Client, auth AuthService, log logging.Logger) ChatService {
	return &chatService{
		client:        client,
		auth:          auth,
		log:           log.With("component", "chat"),
		conversations: make(map[string]*conversation),
	}
}

// Conversations returns the current summaries, newest activity first.
func (c *chatService) Conversations() []models.ConversationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ConversationSummary, len(c.summaries))
	copy(out, c.summaries)
	return out
}

// Messages returns the transcript of the active conversation.
func (c *chatService) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.conversations[c.activeHandle]
	if !ok {
		return nil
	}
	out := make([]models.Message, len(conv.messages))
	copy(out, conv.messages)
	return out
}

// ActiveConversationID returns the display id of the active conversation, or
// an empty string when none is open.
func (c *chatService) ActiveConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.conversations[c.activeHandle]
	if !ok {
		return ""
	}
	return displayID(conv)
}

func (c *chatService) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

func (c *chatService) LoadingHistory() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingHist
}

// NewChat opens a fresh conversation seeded with the welcome message and
// makes it active. Provisional entries from earlier chats are dropped: until
// the backend assigns an id they exist only locally, and abandoning them is
// how they are discarded.
func (c *chatService) NewChat() models.ConversationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropProvisionalLocked()

	conv := &conversation{
		handle: uuid.NewString(),
		messages: []models.Message{{
			ID:        "temp-msg-" + uuid.NewString(),
			Text:      welcomeText,
			Sender:    models.SenderAssistant,
			Timestamp: timeNow(),
		}},
	}
	c.conversations[conv.handle] = conv
	c.activeHandle = conv.handle

	return models.ConversationSummary{Handle: conv.handle, Title: "New conversation", LastActivity: timeNow()}
}

// Send delivers text to the assistant on the active conversation, creating
// one if none is open. The user message is appended optimistically before the
// network call; on failure it stays in the transcript, followed by an error
// notice.
//
// Empty or whitespace-only input is a no-op. While a send or history load is
// in flight, further sends return ErrBusy.
func (c *chatService) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if c.auth.CurrentUser() == nil {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.sending || c.loadingHist {
		c.mu.Unlock()
		return ErrBusy
	}

	conv, ok := c.conversations[c.activeHandle]
	if !ok {
		c.mu.Unlock()
		c.NewChat()
		c.mu.Lock()
		conv = c.conversations[c.activeHandle]
	}

	conv.messages = append(conv.messages, models.Message{
		ID:        "temp-msg-" + uuid.NewString(),
		Text:      text,
		Sender:    models.SenderUser,
		Timestamp: timeNow(),
	})
	c.ensureSummaryLocked(conv, text)

	var serverID *int64
	if conv.serverID != 0 {
		id := conv.serverID
		serverID = &id
	}
	handle := conv.handle
	c.sending = true
	c.mu.Unlock()

	reply, err := c.client.SendMessage(ctx, text, serverID)

	c.mu.Lock()
	c.sending = false
	conv, ok = c.conversations[handle]
	if !ok || c.activeHandle != handle {
		// The conversation was deleted or switched away from while the
		// request was in flight; the response no longer has a home.
		c.mu.Unlock()
		c.log.Warn(ctx, "dropping reply for inactive conversation", "handle", handle)
		return nil
	}

	if err != nil {
		conv.messages = append(conv.messages, models.Message{
			ID:        "temp-msg-" + uuid.NewString(),
			Text:      errorNoticeText,
			Sender:    models.SenderAssistant,
			Timestamp: timeNow(),
		})
		c.mu.Unlock()

		c.log.Error(ctx, "message send failed", "handle", handle, "error", err)
		if detail := api.DetailOf(err); detail != "" {
			return fmt.Errorf("%w: %s", ErrSendFailed, detail)
		}
		return ErrSendFailed
	}

	replyText := reply.Response
	if replyText == "" {
		replyText = "..."
	}
	conv.messages = append(conv.messages, models.Message{
		ID:        "temp-msg-" + uuid.NewString(),
		Text:      replyText,
		Sender:    models.SenderAssistant,
		Timestamp: timeNow(),
		Source:    reply.Source,
	})
	if conv.serverID == 0 && reply.ConversationID != 0 {
		conv.serverID = reply.ConversationID
		c.promoteSummaryLocked(handle, reply.ConversationID)
	}
	c.mu.Unlock()

	if err := c.RefreshConversations(ctx); err != nil {
		c.log.Warn(ctx, "conversation list refresh after send failed", "error", err)
	}
	return nil
}

// RefreshConversations reloads the summary list from the backend. Known
// server ids keep their handles, so an open conversation stays addressable
// across refreshes; provisional entries are preserved as-is.
func (c *chatService) RefreshConversations(ctx context.Context) error {
	if c.auth.CurrentUser() == nil {
		return ErrNotAuthenticated
	}

	remote, err := c.client.ListConversations(ctx)
	if err != nil {
		c.log.Error(ctx, "conversation list fetch failed", "error", err)
		return fmt.Errorf("%w: %v", ErrHistoryLoadFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	byServerID := make(map[int64]string, len(c.conversations))
	for handle, conv := range c.conversations {
		if conv.serverID != 0 {
			byServerID[conv.serverID] = handle
		}
	}

	merged := make([]models.ConversationSummary, 0, len(remote)+1)
	seen := make(map[int64]struct{}, len(remote))
	for _, s := range remote {
		if _, dup := seen[s.ServerID]; dup {
			continue
		}
		seen[s.ServerID] = struct{}{}
		if handle, ok := byServerID[s.ServerID]; ok {
			s.Handle = handle
		} else {
			c.conversations[s.Handle] = &conversation{handle: s.Handle, serverID: s.ServerID}
		}
		merged = append(merged, s)
	}
	for _, s := range c.summaries {
		if s.Provisional() {
			merged = append(merged, s)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].LastActivity.After(merged[j].LastActivity)
	})
	c.summaries = merged
	return nil
}

// Open makes the given conversation active and loads its history from the
// backend. Provisional conversations switch without a network call. Open is
// rejected with ErrBusy while a send is in flight; if the user switches away
// again before the history arrives, the stale response is discarded.
func (c *chatService) Open(ctx context.Context, displayID string) error {
	if c.auth.CurrentUser() == nil {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.sending || c.loadingHist {
		c.mu.Unlock()
		return ErrBusy
	}

	conv := c.findLocked(displayID)
	if conv == nil {
		c.mu.Unlock()
		return ErrUnknownConversation
	}

	c.activeHandle = conv.handle
	if conv.serverID == 0 {
		c.mu.Unlock()
		return nil
	}

	handle := conv.handle
	serverID := conv.serverID
	c.loadingHist = true
	c.mu.Unlock()

	messages, err := c.client.GetConversation(ctx, serverID)

	c.mu.Lock()
	c.loadingHist = false
	if c.activeHandle != handle {
		c.mu.Unlock()
		c.log.Warn(ctx, "discarding history for inactive conversation", "handle", handle)
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		c.log.Error(ctx, "history fetch failed", "server_id", serverID, "error", err)
		return fmt.Errorf("%w: %v", ErrHistoryLoadFailed, err)
	}
	if conv, ok := c.conversations[handle]; ok {
		conv.messages = messages
	}
	c.mu.Unlock()
	return nil
}

// RequestDelete stages a conversation for deletion; ConfirmDelete or
// CancelDelete resolves it. Only server-side conversations can be staged:
// a provisional display id is rejected with ErrUnknownConversation, since
// there is nothing to delete on the backend.
func (c *chatService) RequestDelete(displayID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv := c.findLocked(displayID)
	if conv == nil || conv.serverID == 0 {
		return ErrUnknownConversation
	}
	c.pendingDelete = conv.handle
	return nil
}

// PendingDelete returns the summary staged for deletion, if any.
func (c *chatService) PendingDelete() (models.ConversationSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingDelete == "" {
		return models.ConversationSummary{}, false
	}
	for _, s := range c.summaries {
		if s.Handle == c.pendingDelete {
			return s, true
		}
	}
	conv, ok := c.conversations[c.pendingDelete]
	if !ok {
		return models.ConversationSummary{}, false
	}
	return models.ConversationSummary{Handle: conv.handle, ServerID: conv.serverID}, true
}

// ConfirmDelete deletes the staged conversation on the backend and removes it
// locally. If it was active, the transcript view resets to empty.
func (c *chatService) ConfirmDelete(ctx context.Context) error {
	if c.auth.CurrentUser() == nil {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	handle := c.pendingDelete
	c.pendingDelete = ""
	conv, ok := c.conversations[handle]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownConversation
	}
	serverID := conv.serverID
	c.mu.Unlock()

	if err := c.client.DeleteConversation(ctx, serverID); err != nil {
		c.log.Error(ctx, "conversation delete failed", "server_id", serverID, "error", err)
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	c.mu.Lock()
	delete(c.conversations, handle)
	filtered := c.summaries[:0]
	for _, s := range c.summaries {
		if s.Handle != handle {
			filtered = append(filtered, s)
		}
	}
	c.summaries = filtered
	if c.activeHandle == handle {
		c.activeHandle = ""
	}
	c.mu.Unlock()

	c.log.Info(ctx, "conversation deleted", "server_id", serverID)
	return nil
}

// CancelDelete clears the staged deletion.
func (c *chatService) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = ""
	c.mu.Unlock()
}

// findLocked resolves a display id: the numeric server id for persisted
// conversations, or the "temp-" form for provisional ones. A bare handle also
// matches.
func (c *chatService) findLocked(displayID string) *conversation {
	if id, err := strconv.ParseInt(displayID, 10, 64); err == nil {
		for _, conv := range c.conversations {
			if conv.serverID == id {
				return conv
			}
		}
		return nil
	}
	handle := strings.TrimPrefix(displayID, "temp-")
	return c.conversations[handle]
}

// ensureSummaryLocked creates a provisional summary for a conversation that
// has none yet, and bumps activity on the existing one otherwise.
func (c *chatService) ensureSummaryLocked(conv *conversation, firstText string) {
	for i := range c.summaries {
		if c.summaries[i].Handle == conv.handle {
			c.summaries[i].LastActivity = timeNow()
			return
		}
	}
	title := firstText
	if runes := []rune(title); len(runes) > 40 {
		title = string(runes[:40]) + "..."
	}
	c.summaries = append([]models.ConversationSummary{{
		Handle:       conv.handle,
		Title:        title,
		LastActivity: timeNow(),
	}}, c.summaries...)
}

// promoteSummaryLocked upgrades a provisional summary in place once the
// backend assigns a server id, keeping its position in the list.
func (c *chatService) promoteSummaryLocked(handle string, serverID int64) {
	for i := range c.summaries {
		if c.summaries[i].Handle == handle {
			c.summaries[i].ServerID = serverID
			c.summaries[i].LastActivity = timeNow()
			return
		}
	}
}

// dropProvisionalLocked removes conversations the backend never saw.
func (c *chatService) dropProvisionalLocked() {
	filtered := c.summaries[:0]
	for _, s := range c.summaries {
		if s.Provisional() {
			delete(c.conversations, s.Handle)
			continue
		}
		filtered = append(filtered, s)
	}
	c.summaries = filtered
	if conv, ok := c.conversations[c.activeHandle]; ok && conv.serverID == 0 {
		delete(c.conversations, c.activeHandle)
		c.activeHandle = ""
	}
}
