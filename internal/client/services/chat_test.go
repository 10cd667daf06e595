package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houstonsbarros/hominsaude/internal/client/api"
	"github.com/houstonsbarros/hominsaude/internal/client/models"
)

// fakeAuth satisfies AuthService for chat tests; only CurrentUser matters.
type fakeAuth struct {
	user *models.User
}

func (f *fakeAuth) CurrentUser() *models.User { return f.user }
func (f *fakeAuth) Login(ctx context.Context, email string, password []byte) (bool, error) {
	return false, nil
}
func (f *fakeAuth) Register(ctx context.Context, email, name string, password []byte) error {
	return nil
}
func (f *fakeAuth) VerifyEmail(ctx context.Context, token string) error      { return nil }
func (f *fakeAuth) SocialLoginURL() string                                   { return "" }
func (f *fakeAuth) EstablishSession(ctx context.Context, token string) error { return nil }
func (f *fakeAuth) Restore(ctx context.Context) error                        { return nil }
func (f *fakeAuth) Logout(ctx context.Context) error                         { return nil }
func (f *fakeAuth) Close(ctx context.Context) error                          { return nil }

var _ AuthService = (*fakeAuth)(nil)

func signedIn() *fakeAuth {
	return &fakeAuth{user: &models.User{UID: "u-1", Username: "Alice", Role: models.RoleUser}}
}

func newChatService(fc *fakeClient, auth AuthService) ChatService {
	return NewChatService(fc, auth, testLogger())
}

func TestChatService_NewChat_SeedsWelcomeMessage(t *testing.T) {
	svc := newChatService(&fakeClient{}, signedIn())

	svc.NewChat()

	msgs := svc.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, models.SenderAssistant, msgs[0].Sender)
	assert.Contains(t, msgs[0].Text, "Touch")
}

func TestChatService_Send_EmptyInputIsNoop(t *testing.T) {
	fc := &fakeClient{}
	svc := newChatService(fc, signedIn())

	require.NoError(t, svc.Send(context.Background(), "   \t "))
	assert.Empty(t, fc.LastSendText)
}

func TestChatService_Send_RequiresAuthentication(t *testing.T) {
	svc := newChatService(&fakeClient{}, &fakeAuth{})

	err := svc.Send(context.Background(), "hello")
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestChatService_Send_FirstMessageCreatesConversation(t *testing.T) {
	fc := &fakeClient{
		SendRet: &models.ChatReply{Response: "Hi there!", ConversationID: 42},
		ListRet: []models.ConversationSummary{
			{Handle: "r-42", ServerID: 42, Title: "hello", LastActivity: time.Now()},
		},
	}
	svc := newChatService(fc, signedIn())

	require.NoError(t, svc.Send(context.Background(), "hello"))

	// Welcome message, optimistic user message, reply.
	msgs := svc.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, models.SenderAssistant, msgs[0].Sender)
	assert.Equal(t, models.SenderUser, msgs[1].Sender)
	assert.Equal(t, "hello", msgs[1].Text)
	assert.Equal(t, models.SenderAssistant, msgs[2].Sender)
	assert.Equal(t, "Hi there!", msgs[2].Text)

	// First message goes out without a conversation id.
	assert.Nil(t, fc.LastSendConvID)

	// The provisional summary was promoted in place to the assigned id.
	assert.Equal(t, "42", svc.ActiveConversationID())
	convs := svc.Conversations()
	require.NotEmpty(t, convs)
	assert.Equal(t, int64(42), convs[0].ServerID)
}

func TestChatService_Send_FollowUpCarriesConversationID(t *testing.T) {
	fc := &fakeClient{
		SendRet: &models.ChatReply{Response: "reply", ConversationID: 42},
	}
	svc := newChatService(fc, signedIn())

	require.NoError(t, svc.Send(context.Background(), "first"))
	require.NoError(t, svc.Send(context.Background(), "second"))

	require.NotNil(t, fc.LastSendConvID)
	assert.Equal(t, int64(42), *fc.LastSendConvID)
}

func TestChatService_Send_FailureKeepsUserMessageAndAddsNotice(t *testing.T) {
	fc := &fakeClient{SendErr: &api.Error{Status: 500, Detail: "model overloaded"}}
	svc := newChatService(fc, signedIn())

	err := svc.Send(context.Background(), "hello")
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "model overloaded")

	msgs := svc.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[1].Text)
	assert.Equal(t, models.SenderAssistant, msgs[2].Sender)
	assert.Contains(t, msgs[2].Text, "could not process")

	// The conversation stays provisional.
	convs := svc.Conversations()
	require.Len(t, convs, 1)
	assert.True(t, convs[0].Provisional())
}

func TestChatService_Send_EmptyReplyGetsPlaceholder(t *testing.T) {
	fc := &fakeClient{SendRet: &models.ChatReply{Response: "", ConversationID: 9}}
	svc := newChatService(fc, signedIn())

	require.NoError(t, svc.Send(context.Background(), "hello"))

	msgs := svc.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "...", msgs[2].Text)
}

func TestChatService_Send_RejectedWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	fc := &fakeClient{
		SendFn: func(ctx context.Context, text string, id *int64) (*models.ChatReply, error) {
			close(started)
			<-release
			return &models.ChatReply{Response: "late", ConversationID: 1}, nil
		},
	}
	svc := newChatService(fc, signedIn())

	done := make(chan error, 1)
	go func() { done <- svc.Send(context.Background(), "slow one") }()

	<-started
	assert.True(t, svc.Sending())
	err := svc.Send(context.Background(), "impatient")
	require.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, svc.Sending())
}

func TestChatService_RefreshConversations_PreservesHandlesAndProvisional(t *testing.T) {
	fc := &fakeClient{
		SendRet: &models.ChatReply{Response: "r", ConversationID: 7},
		ListRet: []models.ConversationSummary{
			{Handle: "srv-7", ServerID: 7, Title: "hello", LastActivity: time.Now()},
		},
	}
	svc := newChatService(fc, signedIn())

	// Creates a conversation with server id 7 and a known handle.
	require.NoError(t, svc.Send(context.Background(), "hello"))
	handle := svc.Conversations()[0].Handle

	// And one provisional conversation that never reached the backend.
	svc.NewChat()
	fc.SendErr = api.ErrUnavailable
	fc.SendRet = nil
	_ = svc.Send(context.Background(), "offline message")

	now := time.Now()
	fc.ListRet = []models.ConversationSummary{
		{Handle: "fresh-7", ServerID: 7, Title: "hello", LastActivity: now.Add(-time.Hour)},
		{Handle: "fresh-8", ServerID: 8, Title: "other", LastActivity: now.Add(-2 * time.Hour)},
	}
	fc.ListErr = nil
	require.NoError(t, svc.RefreshConversations(context.Background()))

	convs := svc.Conversations()
	require.Len(t, convs, 3)

	// Strictly newest first: the provisional entry, then id 7 (-1h), then
	// id 8 (-2h).
	assert.True(t, convs[0].Provisional())
	assert.Equal(t, int64(7), convs[1].ServerID)
	assert.Equal(t, int64(8), convs[2].ServerID)
	assert.True(t, convs[0].LastActivity.After(convs[1].LastActivity))
	assert.True(t, convs[1].LastActivity.After(convs[2].LastActivity))

	assert.Equal(t, handle, convs[1].Handle, "known server id keeps its handle")
	assert.Equal(t, "fresh-8", convs[2].Handle)
}

func TestChatService_RefreshConversations_DedupesByServerID(t *testing.T) {
	now := time.Now()
	fc := &fakeClient{
		ListRet: []models.ConversationSummary{
			{Handle: "a", ServerID: 5, Title: "one", LastActivity: now},
			{Handle: "b", ServerID: 5, Title: "dup", LastActivity: now},
		},
	}
	svc := newChatService(fc, signedIn())

	require.NoError(t, svc.RefreshConversations(context.Background()))
	assert.Len(t, svc.Conversations(), 1)
}

func TestChatService_Open_LoadsHistory(t *testing.T) {
	now := time.Now()
	fc := &fakeClient{
		ListRet: []models.ConversationSummary{
			{Handle: "h", ServerID: 3, Title: "t", LastActivity: now},
		},
		HistoryRet: []models.Message{
			{ID: "hist-1", Text: "hi", Sender: models.SenderUser, Timestamp: now},
			{ID: "hist-2", Text: "hello", Sender: models.SenderAssistant, Timestamp: now},
		},
	}
	svc := newChatService(fc, signedIn())
	require.NoError(t, svc.RefreshConversations(context.Background()))

	require.NoError(t, svc.Open(context.Background(), "3"))

	msgs := svc.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hist-1", msgs[0].ID)
	assert.Equal(t, "3", svc.ActiveConversationID())
}

func TestChatService_Open_UnknownConversation(t *testing.T) {
	svc := newChatService(&fakeClient{}, signedIn())
	err := svc.Open(context.Background(), "999")
	require.ErrorIs(t, err, ErrUnknownConversation)
}

func TestChatService_Open_DiscardsHistoryAfterSwitchingAway(t *testing.T) {
	now := time.Now()
	started := make(chan struct{})
	release := make(chan struct{})
	fc := &fakeClient{
		ListRet: []models.ConversationSummary{
			{Handle: "h", ServerID: 3, Title: "t", LastActivity: now},
		},
		HistoryFn: func(ctx context.Context, id int64) ([]models.Message, error) {
			close(started)
			<-release
			return []models.Message{{ID: "hist-1", Text: "stale", Sender: models.SenderUser}}, nil
		},
	}
	svc := newChatService(fc, signedIn())
	require.NoError(t, svc.RefreshConversations(context.Background()))

	done := make(chan error, 1)
	go func() { done <- svc.Open(context.Background(), "3") }()

	<-started
	assert.True(t, svc.LoadingHistory())
	svc.NewChat()

	close(release)
	require.NoError(t, <-done)

	// The welcome message of the new chat, not the stale history.
	msgs := svc.Messages()
	require.Len(t, msgs, 1)
	assert.NotEqual(t, "stale", msgs[0].Text)
}

func TestChatService_DeleteFlow(t *testing.T) {
	now := time.Now()
	fc := &fakeClient{
		ListRet: []models.ConversationSummary{
			{Handle: "h", ServerID: 3, Title: "t", LastActivity: now},
		},
	}
	svc := newChatService(fc, signedIn())
	require.NoError(t, svc.RefreshConversations(context.Background()))

	t.Run("cancel keeps the conversation", func(t *testing.T) {
		require.NoError(t, svc.RequestDelete("3"))
		pending, ok := svc.PendingDelete()
		require.True(t, ok)
		assert.Equal(t, int64(3), pending.ServerID)

		svc.CancelDelete()
		_, ok = svc.PendingDelete()
		assert.False(t, ok)
		assert.Len(t, svc.Conversations(), 1)
	})

	t.Run("confirm deletes on the backend and locally", func(t *testing.T) {
		require.NoError(t, svc.RequestDelete("3"))
		require.NoError(t, svc.ConfirmDelete(context.Background()))

		assert.Equal(t, int64(3), fc.LastDeleteID)
		assert.Empty(t, svc.Conversations())
	})
}

func TestChatService_RequestDelete_RejectsProvisional(t *testing.T) {
	fc := &fakeClient{SendErr: api.ErrUnavailable}
	svc := newChatService(fc, signedIn())
	_ = svc.Send(context.Background(), "never delivered")

	convs := svc.Conversations()
	require.Len(t, convs, 1)
	require.True(t, convs[0].Provisional())

	err := svc.RequestDelete(convs[0].DisplayID())
	require.ErrorIs(t, err, ErrUnknownConversation)
}

func TestChatService_NewChat_DropsProvisionalConversations(t *testing.T) {
	fc := &fakeClient{SendErr: api.ErrUnavailable}
	svc := newChatService(fc, signedIn())
	_ = svc.Send(context.Background(), "never delivered")
	require.Len(t, svc.Conversations(), 1)

	svc.NewChat()

	assert.Empty(t, svc.Conversations())
}
