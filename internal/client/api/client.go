// Package api implements the JSON-over-HTTPS client for the HOMIN+ backend.
// All remote calls of the application go through the Client interface; the
// concrete HTTPClient attaches the bearer token and maps transport and
// backend failures into the package's sentinel errors.
package api

import (
	"context"

	"github.com/houstonsbarros/hominsaude/internal/client/models"
)

// Client is the remote backend as seen by the services layer.
//
// Contract:
//   - Login/Register/VerifyEmail: account endpoints, no token required.
//   - FetchProfile: /auth/me with an explicit bearer token.
//   - SendMessage/ListConversations/GetConversation/DeleteConversation:
//     chat endpoints, authenticated with the token set via SetAccessToken.
//   - SocialLoginURL: builds the browser entry point of the social flow.
//
// All methods honor context cancellation and deadlines.
type Client interface {
	Close() error

	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, name, password string) error
	VerifyEmail(ctx context.Context, token string) error
	FetchProfile(ctx context.Context, token string) (map[string]any, error)

	SendMessage(ctx context.Context, text string, conversationID *int64) (*models.ChatReply, error)
	ListConversations(ctx context.Context) ([]models.ConversationSummary, error)
	GetConversation(ctx context.Context, id int64) ([]models.Message, error)
	DeleteConversation(ctx context.Context, id int64) error

	SocialLoginURL(next string) string

	SetAccessToken(token string)
	ClearAccessToken()
}
