// Package config loads application configuration: built-in defaults, an
// optional YAML file, then environment variables, later sources winning.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/khalid307-hue/speakcoach/pkg/live"
)

// Config is the resolved application configuration.
type Config struct {
	// APIKey authenticates against the Gemini API. From GEMINI_API_KEY,
	// with GOOGLE_API_KEY as fallback. Required.
	APIKey string `yaml:"-"`

	// ChatModel serves the one-shot helpers.
	ChatModel string `yaml:"chat_model"`

	// LiveModel serves realtime voice sessions.
	LiveModel string `yaml:"live_model"`

	// Persona is the default tutor persona name.
	Persona string `yaml:"persona"`

	// Mode is the default tutoring mode name.
	Mode string `yaml:"mode"`

	// ProgressPath is where learner progress is persisted. Defaults to
	// speakcoach/progress.json under the user config dir.
	ProgressPath string `yaml:"progress_path"`
}

// DefaultChatModel is the one-shot model used when none is configured.
const DefaultChatModel = "gemini-2.0-flash"

// Load resolves the configuration. path names an optional YAML file; an
// absent file is not an error, a malformed one is.
func Load(path string) (Config, error) {
	cfg := Config{
		ChatModel: DefaultChatModel,
		LiveModel: live.DefaultModel,
		Persona:   "Emma",
		Mode:      "free_talk",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults apply.
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if v := os.Getenv("SPEAKCOACH_CHAT_MODEL"); v != "" {
		cfg.ChatModel = v
	}
	if v := os.Getenv("SPEAKCOACH_LIVE_MODEL"); v != "" {
		cfg.LiveModel = v
	}
	if v := os.Getenv("SPEAKCOACH_PROGRESS_PATH"); v != "" {
		cfg.ProgressPath = v
	}

	if cfg.ProgressPath == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = "."
		}
		cfg.ProgressPath = filepath.Join(base, "speakcoach", "progress.json")
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	return cfg, nil
}
