// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game  GameConfig  `toml:"game"`
	Words WordsConfig `toml:"words"`
	Log   LogConfig   `toml:"log"`
	Serve ServeConfig `toml:"serve"`
}

// GameConfig maps round settings.
type GameConfig struct {
	Lang     *string `toml:"lang"`
	Attempts *int    `toml:"attempts"`
	Seconds  *int    `toml:"seconds"`
	DBPath   *string `toml:"db"`
}

// WordsConfig maps word source settings.
type WordsConfig struct {
	Source  *string `toml:"source"`
	URL     *string `toml:"url"`
	Retries *int    `toml:"retries"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// ServeConfig maps HTTP front end settings.
type ServeConfig struct {
	Addr      *string `toml:"addr"`
	RateLimit *int    `toml:"rate-limit"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with HANGMAN_* environment variables.
func (c *FileConfig) ApplyEnv() error {
	envString("HANGMAN_LANG", &c.Game.Lang)
	envString("HANGMAN_DB", &c.Game.DBPath)
	envString("HANGMAN_WORD_SOURCE", &c.Words.Source)
	envString("HANGMAN_WORD_URL", &c.Words.URL)
	envString("HANGMAN_LOG_LEVEL", &c.Log.Level)
	envString("HANGMAN_LOG_FILE", &c.Log.File)
	envString("HANGMAN_ADDR", &c.Serve.Addr)
	for key, target := range map[string]**int{
		"HANGMAN_ATTEMPTS":   &c.Game.Attempts,
		"HANGMAN_SECONDS":    &c.Game.Seconds,
		"HANGMAN_RETRIES":    &c.Words.Retries,
		"HANGMAN_RATE_LIMIT": &c.Serve.RateLimit,
	} {
		if err := envInt(key, target); err != nil {
			return err
		}
	}
	return nil
}

func envString(key string, target **string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	*target = &v
}

func envInt(key string, target **int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	*target = &n
	return nil
}
