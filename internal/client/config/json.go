package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mapfriends/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields
// distinguish "absent" from "empty" so a partial file only overrides what it
// names.
type JsonConfig struct {
	BackendAddr         *string          `json:"backend_addr"`
	DatabaseDSN         *string          `json:"database_dsn"`
	StorageBackend      *string          `json:"storage_backend"`
	RedisURL            *string          `json:"redis_url"`
	Namespace           *string          `json:"namespace"`
	Platform            *string          `json:"platform"`
	ApplicationID       *string          `json:"application_id"`
	AuthScheme          *string          `json:"auth_scheme"`
	Locale              *string          `json:"locale"`
	Google              *GoogleClientIDs `json:"google"`
	App                 *AppVersion      `json:"app"`
	OnlineCheckInterval *timex.Duration  `json:"online_check_interval"`
	RequestTimeout      *timex.Duration  `json:"request_timeout"`
	WriteRetries        *int             `json:"write_retries"`
	LogLevel            *string          `json:"log_level"`
	LogFormat           *string          `json:"log_format"`
	SessionSecret       *string          `json:"session_secret"`
}

// parseJSON overlays cfg with the file at path. An empty path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	setString(&cfg.BackendAddr, jc.BackendAddr)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.StorageBackend, jc.StorageBackend)
	setString(&cfg.RedisURL, jc.RedisURL)
	setString(&cfg.Namespace, jc.Namespace)
	setString(&cfg.Platform, jc.Platform)
	setString(&cfg.ApplicationID, jc.ApplicationID)
	setString(&cfg.AuthScheme, jc.AuthScheme)
	setString(&cfg.Locale, jc.Locale)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.SessionSecret, jc.SessionSecret)

	if jc.Google != nil {
		cfg.Google = *jc.Google
	}
	if jc.App != nil {
		cfg.App = *jc.App
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.WriteRetries != nil {
		cfg.WriteRetries = *jc.WriteRetries
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
