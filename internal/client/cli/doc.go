// Package cli provides the interactive MapFriends client used to drive the
// auth session from a terminal.
//
// NewApp wires configuration, the local key/value store, the identity backend
// client, the credential providers and the session controller. App.Run
// starts a background connectivity watcher and a REPL that supports:
//   - login, register, google, apple, reset
//   - terms, profile, skip, visibility, onboard, handle
//   - status, version, logout, exit
//
// Google and Apple sign-in read a token pasted on stdin; an empty line
// cancels the flow.
package cli
