package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/charmbracelet/glamour"

	"github.com/houstonsbarros/hominsaude/internal/client/api"
	"github.com/houstonsbarros/hominsaude/internal/client/config"
	"github.com/houstonsbarros/hominsaude/internal/client/repositories/session"
	"github.com/houstonsbarros/hominsaude/internal/client/services"
	"github.com/houstonsbarros/hominsaude/internal/logging"

	_ "modernc.org/sqlite"
)

// App ties the services together behind the REPL.
type App struct {
	config      *config.Config
	log         logging.Logger
	authService services.AuthService
	chatService services.ChatService
	reader      *bufio.Reader
	renderer    *glamour.TermRenderer
}

// NewApp opens the local session database, builds the API client, and wires
// the services.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	db, err := session.Open(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.BackendOrigin, c.RequestTimeout)

	as := services.NewAuthService(apiClient, db, log, c.CallbackURL(), c.UserCacheTTL)
	cs := services.NewChatService(apiClient, as, log)

	return &App{
		config:      c,
		log:         log,
		authService: as,
		chatService: cs,
		reader:      bufio.NewReader(os.Stdin),
		renderer:    newMarkdownRenderer(),
	}, nil
}

// Run restores any persisted session and starts the REPL. It blocks until
// the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.authService.Close(ctx)

	if err := a.authService.Restore(ctx); err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	}

	printlnFn("HOMIN+ CLI (type /help for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.authService.CurrentUser() != nil
}

// status builds the prompt suffix: the username and, when a conversation is
// open, its id.
func (a *App) status() string {
	user := a.authService.CurrentUser()
	if user == nil {
		return ""
	}
	s := "(" + user.Username
	if id := a.chatService.ActiveConversationID(); id != "" {
		s += " #" + id
	}
	return s + ")"
}
