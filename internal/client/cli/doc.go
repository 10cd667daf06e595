// Package cli provides the interactive HOMIN+ command-line client.
//
// It wires configuration, the local session database, the backend API client,
// and an interactive REPL for talking to the Touch assistant. Typical flow:
// restore a persisted session, then read commands and chat messages until the
// user exits.
//
// Key features:
//   - Sign in with email/password or via a social provider round-trip
//   - Register and verify a new account
//   - Chat with the assistant; replies are rendered as Markdown
//   - List, open, and delete past conversations
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
