// Package services contains application services for the HOMIN+ client.
// This file defines the authentication service: credential and social login,
// registration, session establishment, and restoring a persisted session.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/houstonsbarros/hominsaude/internal/client/api"
	"github.com/houstonsbarros/hominsaude/internal/client/models"
	"github.com/houstonsbarros/hominsaude/internal/client/repositories/session"
	"github.com/houstonsbarros/hominsaude/internal/dbx"
	"github.com/houstonsbarros/hominsaude/internal/logging"
)

// ErrRegistrationFailed signals that the backend rejected a registration
// request.
var ErrRegistrationFailed = errors.New("registration failed")

// timeNow is a seam for tests.
var timeNow = time.Now

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate with email and password; false with a nil error
//     means the credentials were rejected.
//   - Register: create a new account on the server.
//   - VerifyEmail: confirm an account with an emailed token.
//   - SocialLoginURL: build the provider login URL for the browser.
//   - EstablishSession: persist a token and load the user profile.
//   - Restore: bring back a previously persisted session, once per process.
//   - Logout: drop the in-memory user and wipe persisted session state.
//   - Close: release underlying client resources.
//
// All methods honor context cancellation/timeouts.
type AuthService interface {
	CurrentUser() *models.User
	Login(ctx context.Context, email string, password []byte) (bool, error)
	Register(ctx context.Context, email string, name string, password []byte) error
	VerifyEmail(ctx context.Context, token string) error
	SocialLoginURL() string
	EstablishSession(ctx context.Context, token string) error
	Restore(ctx context.Context) error
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client and a
// local SQL database for session state.
type authService struct {
	client      api.Client
	db          *sql.DB
	log         logging.Logger
	callbackURL string
	cacheTTL    time.Duration

	mu   sync.Mutex
	user *models.User

	establishing atomic.Bool
	restored     bool
}

// NewAuthService constructs an AuthService bound to the given API client and
// DB. callbackURL is where the social-login provider should redirect back to;
// cacheTTL bounds how long a stored profile snapshot is served without a
// refetch.
func NewAuthService(client api.Client, db *sql.DB, log logging.Logger, callbackURL string, cacheTTL time.Duration) AuthService {
	return &authService{
		client:      client,
		db:          db,
		log:         log.With("component", "auth"),
		callbackURL: callbackURL,
		cacheTTL:    cacheTTL,
	}
}

func (a *authService) getSessionRepo() session.Repository {
	return session.NewSQLiteRepository(a.db)
}

// CurrentUser returns the signed-in user, or nil when no session is active.
func (a *authService) CurrentUser() *models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

// Login authenticates with email and password and establishes a session.
// A false result with a nil error means the backend rejected the credentials.
func (a *authService) Login(ctx context.Context, email string, password []byte) (bool, error) {
	token, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			return false, nil
		}
		return false, fmt.Errorf("login error: %w", err)
	}

	if err := a.EstablishSession(ctx, token); err != nil {
		return false, err
	}
	return true, nil
}

// Register creates a new account. The backend's detail message, when present,
// is carried in the returned error.
func (a *authService) Register(ctx context.Context, email string, name string, password []byte) error {
	err := a.client.Register(ctx, email, name, string(password))
	if err == nil {
		return nil
	}
	if detail := api.DetailOf(err); detail != "" {
		return fmt.Errorf("%w: %s", ErrRegistrationFailed, detail)
	}
	return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
}

// VerifyEmail confirms an account using the token from the verification email.
func (a *authService) VerifyEmail(ctx context.Context, token string) error {
	return a.client.VerifyEmail(ctx, token)
}

// SocialLoginURL returns the provider login URL to open in a browser. After
// the provider round-trip the backend redirects to the local callback server.
func (a *authService) SocialLoginURL() string {
	return a.client.SocialLoginURL(a.callbackURL)
}

// EstablishSession persists the access token, then resolves the user profile,
// preferring a stored snapshot younger than the cache TTL over a network
// fetch. The snapshot is only trusted when the incoming token matches the
// stored one; a different token may belong to a different account, so its
// snapshot is dropped and the profile refetched. Concurrent calls are
// dropped: only one establishment runs at a time, later arrivals return
// immediately without queueing.
//
// The token is persisted before the profile fetch, so a fetch failure leaves
// the token in place for a later Restore.
func (a *authService) EstablishSession(ctx context.Context, token string) error {
	if !a.establishing.CompareAndSwap(false, true) {
		a.log.Warn(ctx, "session establishment already in progress, dropping request")
		return nil
	}
	defer a.establishing.Store(false)

	repo := a.getSessionRepo()

	prev, err := repo.Get(ctx, session.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("token loading error: %w", err)
	}
	sameToken := len(prev) > 0 && string(prev) == token

	if err := repo.Set(ctx, session.KeyAccessToken, []byte(token)); err != nil {
		return fmt.Errorf("token saving error: %w", err)
	}
	a.client.SetAccessToken(token)

	if !sameToken {
		if err := repo.Delete(ctx, session.KeyUser); err != nil {
			return fmt.Errorf("profile clearing error: %w", err)
		}
		if err := repo.Delete(ctx, session.KeyUserLastFetch); err != nil {
			return fmt.Errorf("profile clearing error: %w", err)
		}
	} else if user, ok := a.cachedUser(ctx, repo); ok {
		a.adoptUser(user)
		a.log.Debug(ctx, "session established from cached profile", "uid", user.UID)
		return nil
	}

	payload, err := a.client.FetchProfile(ctx, token)
	if err != nil {
		return fmt.Errorf("profile fetch error: %w", err)
	}

	user := models.UserFromProfile(payload)
	if err := a.storeUser(ctx, &user); err != nil {
		return fmt.Errorf("profile saving error: %w", err)
	}

	a.adoptUser(&user)
	a.log.Info(ctx, "session established", "uid", user.UID)
	return nil
}

// Restore brings back a persisted session on startup. It runs at most once
// per process; Logout re-arms it. With a token and a profile snapshot it
// adopts the snapshot without touching the network; with a token alone it
// runs a full establishment. A failed restore logs out so the next start is
// clean.
func (a *authService) Restore(ctx context.Context) error {
	a.mu.Lock()
	if a.restored {
		a.mu.Unlock()
		return nil
	}
	a.restored = true
	a.mu.Unlock()

	repo := a.getSessionRepo()

	token, err := repo.Get(ctx, session.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("token loading error: %w", err)
	}
	if len(token) == 0 {
		return nil
	}

	snapshot, err := repo.Get(ctx, session.KeyUser)
	if err != nil {
		return fmt.Errorf("profile loading error: %w", err)
	}

	if len(snapshot) > 0 {
		var user models.User
		if jsonErr := json.Unmarshal(snapshot, &user); jsonErr == nil {
			a.client.SetAccessToken(string(token))
			a.adoptUser(&user)
			a.log.Debug(ctx, "session restored from snapshot", "uid", user.UID)
			return nil
		}
		a.log.Warn(ctx, "stored profile snapshot is corrupt, refetching")
	}

	if err := a.EstablishSession(ctx, string(token)); err != nil {
		if logoutErr := a.Logout(ctx); logoutErr != nil {
			a.log.Error(ctx, "logout after failed restore", "error", logoutErr)
		}
		return fmt.Errorf("session restore error: %w", err)
	}
	return nil
}

// Logout wipes the persisted session, clears the in-memory user, and re-arms
// Restore.
func (a *authService) Logout(ctx context.Context) error {
	repo := a.getSessionRepo()
	if err := repo.Clear(ctx); err != nil {
		return fmt.Errorf("session clearing error: %w", err)
	}

	a.client.ClearAccessToken()

	a.mu.Lock()
	a.user = nil
	a.restored = false
	a.mu.Unlock()

	a.log.Info(ctx, "logged out")
	return nil
}

// Close releases the underlying API client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

func (a *authService) adoptUser(user *models.User) {
	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
}

// cachedUser returns the stored profile snapshot when it is younger than the
// cache TTL. Any read or decode problem counts as a miss.
func (a *authService) cachedUser(ctx context.Context, repo session.Repository) (*models.User, bool) {
	lastFetch, err := repo.Get(ctx, session.KeyUserLastFetch)
	if err != nil || len(lastFetch) == 0 {
		return nil, false
	}
	ms, err := strconv.ParseInt(string(lastFetch), 10, 64)
	if err != nil {
		return nil, false
	}
	if timeNow().Sub(time.UnixMilli(ms)) >= a.cacheTTL {
		return nil, false
	}

	snapshot, err := repo.Get(ctx, session.KeyUser)
	if err != nil || len(snapshot) == 0 {
		return nil, false
	}

	var user models.User
	if err := json.Unmarshal(snapshot, &user); err != nil {
		return nil, false
	}
	return &user, true
}

// storeUser persists the profile snapshot and its fetch timestamp in a single
// transaction.
func (a *authService) storeUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	ms := strconv.FormatInt(timeNow().UnixMilli(), 10)

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := session.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, session.KeyUser, data); err != nil {
			return err
		}
		return repo.Set(ctx, session.KeyUserLastFetch, []byte(ms))
	})
}
