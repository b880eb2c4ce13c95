package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads the configuration file when present and applies environment
// overrides on top. A missing file is not an error: env defaults are enough
// to boot the service.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
