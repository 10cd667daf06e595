package callback

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/houstonsbarros/hominsaude/internal/logging"
)

// donePage is shown once the token has been captured.
const donePage = `<!DOCTYPE html>
<html>
<head><title>HOMIN+</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h2>Signed in</h2>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`

// relayPage runs when the provider delivered the token in the URL fragment,
// which never reaches the server. The script re-requests the same path with
// the fragment turned into a query string.
const relayPage = `<!DOCTYPE html>
<html>
<head><title>HOMIN+</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<p>Completing sign-in&hellip;</p>
<script>
if (location.hash.length > 1) {
  location.replace(location.pathname + '?' + location.hash.slice(1));
} else {
  document.body.innerHTML = '<p>No sign-in data received. You can close this window.</p>';
}
</script>
</body>
</html>`

// Listener is a loopback HTTP server that waits for the backend to redirect
// the browser back with an access token.
type Listener struct {
	addr   string
	path   string
	log    logging.Logger
	e      *echo.Echo
	tokens chan string
}

// NewListener prepares a listener on addr answering on path. Call Start, then
// Wait for the token, then Shutdown.
func NewListener(addr, path string, log logging.Logger) *Listener {
	l := &Listener{
		addr:   addr,
		path:   path,
		log:    log.With("component", "callback"),
		tokens: make(chan string, 1),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET(path, l.handle)
	l.e = e

	return l
}

// Start begins serving in the background.
func (l *Listener) Start() {
	go func() {
		if err := l.e.Start(l.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error(context.Background(), "callback server stopped", "error", err)
		}
	}()
}

// Wait blocks until a token arrives or the context is done.
func (l *Listener) Wait(ctx context.Context) (string, error) {
	select {
	case token := <-l.tokens:
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Shutdown stops the server.
func (l *Listener) Shutdown(ctx context.Context) error {
	return l.e.Shutdown(ctx)
}

func (l *Listener) handle(c echo.Context) error {
	token := firstToken(c.QueryParams())
	if token == "" {
		// The token may still be hiding in the fragment; let the browser
		// replay it as a query string.
		return c.HTML(http.StatusOK, relayPage)
	}

	select {
	case l.tokens <- token:
		l.log.Info(c.Request().Context(), "callback token received")
	default:
		l.log.Warn(c.Request().Context(), "duplicate callback token ignored")
	}
	return c.HTML(http.StatusOK, donePage)
}
