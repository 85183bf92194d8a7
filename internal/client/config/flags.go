package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/mapfriends/internal/flagx"
)

var ownFlags = []string{"-a", "-d", "-s", "-p", "-l", "-i"}

// parseFlags populates selected Config fields from command-line flags. Only
// the flags listed in ownFlags are considered; see flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, ownFlags)

	fs := flag.NewFlagSet("mapfriends", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.BackendAddr, "a", cfg.BackendAddr, "address and port of the identity backend")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database path")
	fs.StringVar(&cfg.StorageBackend, "s", cfg.StorageBackend, "local storage backend (sqlite|redis)")
	fs.StringVar(&cfg.Platform, "p", cfg.Platform, "platform (ios|android|web)")
	fs.StringVar(&cfg.Locale, "l", cfg.Locale, "locale tag")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
