package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/houstonsbarros/hominsaude/internal/client/models"
)

// HTTPClient talks to the backend over JSON/HTTP from a single configured
// origin. It is safe for concurrent use.
type HTTPClient struct {
	origin     string
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
}

// NewHTTPClient creates a client for the given backend origin
// (e.g. "https://api.hominsaude.com"). A trailing slash is tolerated.
func NewHTTPClient(origin string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		origin:     strings.TrimRight(origin, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Close() error { return nil }

// SetAccessToken installs the bearer credential attached to subsequent
// authenticated calls.
func (c *HTTPClient) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *HTTPClient) ClearAccessToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// --- wire types (field names are the backend contract) ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type chatRequest struct {
	Message    string `json:"message"`
	ConversaID *int64 `json:"conversa_id"`
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversaID     int64  `json:"conversa_id"`
	OrigemContexto string `json:"origem_contexto"`
}

type conversationDTO struct {
	IDConversa int64  `json:"id_conversa"`
	Titulo     string `json:"titulo"`
	DataInicio string `json:"data_inicio"`
	DataUltima string `json:"data_ultima_msg"`
}

type conversationsResponse struct {
	Conversas []conversationDTO `json:"conversas"`
}

type historyItemDTO struct {
	IDHistorico    int64  `json:"id_historico"`
	MensagemTexto  string `json:"mensagem_texto"`
	Tipo           string `json:"tipo"`
	OrigemContexto string `json:"origem_contexto"`
	DataHora       string `json:"data_hora"`
}

type historyResponse struct {
	Historico []historyItemDTO `json:"historico"`
}

// --- operations ---

// Login authenticates with email/password and returns the bearer token. The
// token is read from "access_token", falling back to "token". Rejected
// credentials surface as ErrInvalidCredentials.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/account/login", loginRequest{Email: email, Password: password}, &resp, "")
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	token := resp.AccessToken
	if token == "" {
		token = resp.Token
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (c *HTTPClient) Register(ctx context.Context, email, name, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/account/register", registerRequest{Email: email, Name: name, Password: password}, nil, "")
}

func (c *HTTPClient) VerifyEmail(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/account/verify-email/"+url.PathEscape(token), nil, nil, "")
}

// FetchProfile retrieves /auth/me with the given token as the bearer
// credential. Payloads of the form {user:{...}, claims:{...}} are flattened
// into the user object with "claims" kept as a nested key; bare objects are
// returned unchanged.
func (c *HTTPClient) FetchProfile(ctx context.Context, token string) (map[string]any, error) {
	var payload map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &payload, token); err != nil {
		return nil, err
	}

	if user, ok := payload["user"].(map[string]any); ok {
		claims, _ := payload["claims"].(map[string]any)
		if claims == nil {
			claims = map[string]any{}
		}
		user["claims"] = claims
		return user, nil
	}
	return payload, nil
}

// SendMessage posts the trimmed text to /ai/chat. conversationID is the
// active conversation's server identifier, or nil to ask the backend to
// create a new conversation.
func (c *HTTPClient) SendMessage(ctx context.Context, text string, conversationID *int64) (*models.ChatReply, error) {
	var resp chatResponse
	err := c.doJSON(ctx, http.MethodPost, "/ai/chat", chatRequest{Message: text, ConversaID: conversationID}, &resp, c.token())
	if err != nil {
		return nil, err
	}
	return &models.ChatReply{
		Response:       resp.Response,
		ConversationID: resp.ConversaID,
		Source:         resp.OrigemContexto,
	}, nil
}

// ListConversations fetches the conversation summaries. The display timestamp
// prefers the last-message date and falls back to the creation date.
func (c *HTTPClient) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	var resp conversationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/ai/conversas", nil, &resp, c.token()); err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(resp.Conversas))
	for _, dto := range resp.Conversas {
		when := parseBackendTime(dto.DataUltima)
		if when.IsZero() {
			when = parseBackendTime(dto.DataInicio)
		}
		summaries = append(summaries, models.ConversationSummary{
			Handle:       uuid.NewString(),
			ServerID:     dto.IDConversa,
			Title:        dto.Titulo,
			LastActivity: when,
		})
	}
	return summaries, nil
}

// GetConversation fetches the full message history of a server conversation.
func (c *HTTPClient) GetConversation(ctx context.Context, id int64) ([]models.Message, error) {
	var resp historyResponse
	path := fmt.Sprintf("/ai/conversas/%d", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, c.token()); err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(resp.Historico))
	for _, item := range resp.Historico {
		messages = append(messages, models.Message{
			ID:        fmt.Sprintf("hist-%d", item.IDHistorico),
			Text:      item.MensagemTexto,
			Sender:    models.SenderFromBackendType(item.Tipo),
			Timestamp: parseBackendTime(item.DataHora),
			Source:    item.OrigemContexto,
		})
	}
	return messages, nil
}

func (c *HTTPClient) DeleteConversation(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/ai/conversas/%d", id)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, c.token())
}

// SocialLoginURL builds the backend's social-auth entry point with next as
// the callback. Origin/path concatenation can produce a doubled separator
// when the configured origin ends with a slash; both URLs are normalized.
func (c *HTTPClient) SocialLoginURL(next string) string {
	next = strings.Replace(next, "//auth/callback", "/auth/callback", 1)
	u := fmt.Sprintf("%s/auth/login?next=%s", c.origin, url.QueryEscape(next))
	return strings.Replace(u, "//auth/login", "/auth/login", 1)
}

// --- request plumbing ---

// doJSON performs one request against the configured origin. A non-empty
// bearer is attached as the Authorization header. Responses outside 2xx are
// mapped: 401/403 to ErrUnauthorized, everything else to *Error with the
// detail message extracted from the body. Transport failures map to
// ErrUnavailable.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out any, bearer string) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return ErrUnauthorized
		}
		return &Error{Status: resp.StatusCode, Detail: extractDetail(data)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// extractDetail pulls the backend's message out of an error body, trying
// "detail" first and "message" second. The exact error-body contract is not
// formally specified by the backend; anything unusable yields "".
func extractDetail(data []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Message
}

// backend timestamps arrive in a few shapes depending on the endpoint
var backendTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseBackendTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range backendTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
