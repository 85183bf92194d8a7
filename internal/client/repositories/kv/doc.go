// Package kv provides the raw key/value persistence behind the profile and
// onboarding stores. Keys are opaque strings, values opaque bytes.
//
// Two backends are available: SQLiteRepository for the local database and
// RedisRepository for shared deployments.
package kv
