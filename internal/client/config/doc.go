// Package config loads runtime configuration for the MapFriends client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables prefixed MAPFRIENDS_, after an optional dotenv
//     file (.env, or the path given with -envfile) has been loaded.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   address:port of the identity backend gRPC endpoint
//	-d string   path of the local SQLite database
//	-s string   local storage backend: sqlite or redis
//	-p string   platform: ios, android or web
//	-l string   locale tag, e.g. pt-BR
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Durations decode through timex.Duration, so they may be strings like "3s"
// or integer nanoseconds:
//
//	{
//	  "backend_addr": "127.0.0.1:50051",
//	  "platform": "android",
//	  "google": {"android_prod": "123-abc.apps.googleusercontent.com"},
//	  "online_check_interval": "3s"
//	}
package config
