package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "MAPFRIENDS_"

// parseEnv loads the dotenv file (".env" when path is empty; a missing
// default file is ignored) and overlays cfg with MAPFRIENDS_* variables.
// Variables already present in the process environment win over the file.
func parseEnv(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix})
}
