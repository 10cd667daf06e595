package cli

import (
	"context"
	"os"
	"time"

	"github.com/houstonsbarros/hominsaude/internal/client/callback"
	"github.com/houstonsbarros/hominsaude/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// socialLoginTimeout bounds how long /social waits for the browser round-trip.
const socialLoginTimeout = 3 * time.Minute

// Login prompts for email and password and signs in. Rejected credentials
// print a fixed message; transport problems are reported as such.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ok, err := a.authService.Login(ctx, email, password)
	if err != nil {
		printlnFn("Sign-in failed:", err.Error())
		return err
	}
	if !ok {
		printlnFn("Invalid email or password.")
		return nil
	}

	if user := a.authService.CurrentUser(); user != nil {
		printlnFn("Welcome, " + user.Username + "!")
	}
	return nil
}

// Register prompts for the account details and creates an account. On success
// the user still has to verify their email before signing in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter your name", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, email, name, password); err != nil {
		printlnFn("Registration failed:", err.Error())
		return err
	}

	printlnFn("Account created. Check your email for a verification link, then run /verify <token>.")
	return nil
}

// Verify confirms an account with the token from the verification email.
func (a *App) Verify(ctx context.Context, token string) error {
	if err := a.authService.VerifyEmail(ctx, token); err != nil {
		printlnFn("Verification failed:", err.Error())
		return err
	}
	printlnFn("Email verified. You can now sign in with /login.")
	return nil
}

// Social runs the browser-based sign-in: it prints the provider URL, waits on
// the loopback callback server for the redirect, and establishes the session
// with the received token. If no browser can reach this machine, the callback
// URL can be pasted with /callback instead.
func (a *App) Social(ctx context.Context) error {
	listener := callback.NewListener(a.config.CallbackAddr, a.config.CallbackPath, a.log)
	listener.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = listener.Shutdown(shutdownCtx)
	}()

	printlnFn("Open this URL in your browser to sign in:")
	printlnFn("  " + a.authService.SocialLoginURL())
	printlnFn("Waiting for the sign-in to complete... (or paste the final URL with /callback)")

	waitCtx, cancel := context.WithTimeout(ctx, socialLoginTimeout)
	defer cancel()

	token, err := listener.Wait(waitCtx)
	if err != nil {
		printlnFn("Sign-in not completed:", err.Error())
		return err
	}

	return a.finishTokenLogin(ctx, token)
}

// Callback completes a social sign-in from a pasted callback URL. The URL is
// logged with the token stripped.
func (a *App) Callback(ctx context.Context, rawURL string) error {
	token, err := callback.ExtractToken(rawURL)
	if err != nil {
		printlnFn("No token found in that URL.")
		return err
	}
	a.log.Debug(ctx, "completing social sign-in", "url", callback.CleanURL(rawURL))
	return a.finishTokenLogin(ctx, token)
}

func (a *App) finishTokenLogin(ctx context.Context, token string) error {
	if err := a.authService.EstablishSession(ctx, token); err != nil {
		printlnFn("Sign-in failed:", err.Error())
		return err
	}
	if user := a.authService.CurrentUser(); user != nil {
		printlnFn("Welcome, " + user.Username + "!")
	}
	return nil
}

// Logout signs out and wipes the persisted session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	printlnFn("Signed out.")
	return nil
}
