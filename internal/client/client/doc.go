// Package client talks to the MapFriends identity backend.
//
// # Overview
//
// The package provides:
//  1. The contracts the session controller consumes: Backend (credential
//     exchange, sign-out, principal subscription) and ProfileSource (remote
//     profile documents and handle ownership).
//  2. GRPCClient, which implements both over the identity gRPC service. It
//     injects the access token via an interceptor, refreshes an expired
//     token once, persists the refresh token to restore the session on the
//     next start, and maps gRPC statuses to coded errors.
//  3. Local database bootstrap (InitDatabase, RunMigrations) applying the
//     embedded goose migrations.
//
// # Error Handling
//
// Failed calls return *BackendError whose Code is the backend's symbolic
// code ("auth/...") when present. Transport failures also match
// ErrUnavailable or ErrUnauthorized with errors.Is.
package client
