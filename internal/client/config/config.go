package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/mapfriends/internal/flagx"
)

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// GoogleClientIDs holds the per-platform, per-flavor OAuth client ids.
type GoogleClientIDs struct {
	IOSDev        string `json:"ios_dev" env:"IOS_DEV"`
	IOSProd       string `json:"ios_prod" env:"IOS_PROD"`
	IOSLegacy     string `json:"ios_legacy" env:"IOS_LEGACY"`
	AndroidDev    string `json:"android_dev" env:"ANDROID_DEV"`
	AndroidProd   string `json:"android_prod" env:"ANDROID_PROD"`
	AndroidLegacy string `json:"android_legacy" env:"ANDROID_LEGACY"`
	Web           string `json:"web" env:"WEB"`
}

// AppVersion carries the version inputs normally baked into the app
// manifest. AndroidVersionCode 0 means unset.
type AppVersion struct {
	Version            string `json:"version" env:"VERSION"`
	IOSBuildNumber     string `json:"ios_build_number" env:"IOS_BUILD_NUMBER"`
	AndroidVersionCode int    `json:"android_version_code" env:"ANDROID_VERSION_CODE"`
	NativeVersion      string `json:"native_version" env:"NATIVE_VERSION"`
	NativeBuild        string `json:"native_build" env:"NATIVE_BUILD"`
	LabelTemplate      string `json:"label_template" env:"LABEL_TEMPLATE"`
}

// Config holds runtime settings for the MapFriends client.
type Config struct {
	BackendAddr         string          `env:"BACKEND_ADDR"`
	DatabaseDSN         string          `env:"DATABASE_DSN"`
	StorageBackend      string          `env:"STORAGE_BACKEND"`
	RedisURL            string          `env:"REDIS_URL"`
	Namespace           string          `env:"NAMESPACE"`
	Platform            string          `env:"PLATFORM"`
	ApplicationID       string          `env:"APPLICATION_ID"`
	AuthScheme          string          `env:"AUTH_SCHEME"`
	Locale              string          `env:"LOCALE"`
	Google              GoogleClientIDs `envPrefix:"GOOGLE_"`
	App                 AppVersion      `envPrefix:"APP_"`
	OnlineCheckInterval time.Duration   `env:"ONLINE_CHECK_INTERVAL"`
	RequestTimeout      time.Duration   `env:"REQUEST_TIMEOUT"`
	WriteRetries        int             `env:"WRITE_RETRIES"`
	LogLevel            string          `env:"LOG_LEVEL"`
	LogFormat           string          `env:"LOG_FORMAT"`

	// SessionSecret, when set, encrypts the stored refresh token.
	SessionSecret string `env:"SESSION_SECRET"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendAddr = "127.0.0.1:50051"
	c.DatabaseDSN = "mapfriends.db"
	c.StorageBackend = StorageSQLite
	c.RedisURL = "redis://127.0.0.1:6379/0"
	c.Namespace = "auth"
	c.Platform = "ios"
	c.ApplicationID = "com.eduardo880.mapfriends"
	c.AuthScheme = "com.eduardo880.mapfriends"
	c.Locale = "en-US"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.WriteRetries = 2
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageSQLite, StorageRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	switch c.Platform {
	case "ios", "android", "web":
	default:
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	if c.WriteRetries < 0 {
		return fmt.Errorf("write retries must not be negative, got %d", c.WriteRetries)
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	return nil
}

// LoadConfig builds a Config from defaults, then JSON, environment and flags
// taken from args (os.Args[1:] when nil). Later sources take precedence.
func LoadConfig(args []string) (*Config, error) {
	if args == nil {
		args = os.Args[1:]
	}

	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, flagx.ConfigPath(args)); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, flagx.EnvFilePath(args)); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
