package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/khalid307-hue/speakcoach/pkg/live"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY",
		"SPEAKCOACH_CHAT_MODEL", "SPEAKCOACH_LIVE_MODEL", "SPEAKCOACH_PROGRESS_PATH",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChatModel != DefaultChatModel {
		t.Fatalf("ChatModel = %q, want %q", cfg.ChatModel, DefaultChatModel)
	}
	if cfg.LiveModel != live.DefaultModel {
		t.Fatalf("LiveModel = %q, want %q", cfg.LiveModel, live.DefaultModel)
	}
	if cfg.ProgressPath == "" {
		t.Fatalf("ProgressPath is empty")
	}
}

func TestLoad_MissingKeyFails(t *testing.T) {
	clearEnv(t)
	if _, err := Load(""); err == nil {
		t.Fatalf("Load succeeded without an API key")
	}
}

func TestLoad_GoogleKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "google-key" {
		t.Fatalf("APIKey = %q, want google-key", cfg.APIKey)
	}

	// GEMINI_API_KEY wins when both are set.
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "gemini-key" {
		t.Fatalf("APIKey = %q, want gemini-key", cfg.APIKey)
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := strings.Join([]string{
		"chat_model: from-file",
		"live_model: live-from-file",
		"persona: Max",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChatModel != "from-file" {
		t.Fatalf("ChatModel = %q, want from-file", cfg.ChatModel)
	}
	if cfg.Persona != "Max" {
		t.Fatalf("Persona = %q, want Max", cfg.Persona)
	}

	// Env overrides the file.
	t.Setenv("SPEAKCOACH_CHAT_MODEL", "from-env")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChatModel != "from-env" {
		t.Fatalf("ChatModel = %q, want from-env", cfg.ChatModel)
	}
	if cfg.LiveModel != "live-from-file" {
		t.Fatalf("LiveModel = %q, want live-from-file", cfg.LiveModel)
	}
}

func TestLoad_AbsentFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChatModel != DefaultChatModel {
		t.Fatalf("ChatModel = %q, want default", cfg.ChatModel)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chat_model: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed YAML accepted")
	}
}
