package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/liuscraft/orion-dictate/internal/settings"
)

func TestLoad_MergesDefaultsAndEnv(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "dictate.json")
	data := `{
		"logging": {"level": "debug"},
		"audio": {"sample_rate": 8000},
		"dictation": {"activation": "always", "commands": {"send": "over and out"}}
	}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DASHSCOPE_API_KEY", "dash-key")
	t.Setenv("LLM_API_KEY", "llm-key")
	t.Setenv("DICTATION_LANGUAGE", "en-GB")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected LOG_LEVEL to override config, got %q", cfg.Logging.Level)
	}
	if cfg.Audio.SampleRate != 8000 {
		t.Fatalf("expected sample rate to be 8000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.BufferSize != 3200 {
		t.Fatalf("expected default buffer size to be preserved, got %d", cfg.Audio.BufferSize)
	}
	if cfg.ASR.APIKey != "dash-key" {
		t.Fatalf("expected ASR api key from env")
	}
	if cfg.Chat.APIKey != "llm-key" {
		t.Fatalf("expected chat api key from env")
	}

	s := cfg.Dictation.Settings()
	if s.Language != "en-GB" {
		t.Fatalf("expected language from env, got %q", s.Language)
	}
	if s.Activation != settings.ActivationAlways {
		t.Fatalf("expected always activation, got %q", s.Activation)
	}
	if s.Commands.Send != "over and out" {
		t.Fatalf("expected overridden send command, got %q", s.Commands.Send)
	}
	if s.Commands.Stop != "stop recognition" {
		t.Fatalf("expected default stop command, got %q", s.Commands.Stop)
	}
	if len(s.Replacements) != 3 {
		t.Fatalf("expected default replacements, got %d", len(s.Replacements))
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictate.yaml")
	data := `
chat:
  mode: nats
  nats:
    subject_prefix: room1
dictation:
  autosend: true
  replacements:
    - from: full stop
      to: "."
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Chat.Mode != "nats" || cfg.Chat.NATS.SubjectPrefix != "room1" {
		t.Fatalf("unexpected chat config: %+v", cfg.Chat)
	}
	s := cfg.Dictation.Settings()
	if !s.Autosend {
		t.Fatalf("expected autosend")
	}
	if len(s.Replacements) != 1 || s.Replacements[0].From != "full stop" {
		t.Fatalf("expected replacements to be replaced by yaml list, got %+v", s.Replacements)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dictation.Settings().Activation != settings.ActivationManual {
		t.Fatalf("expected manual activation by default")
	}
}

func TestValidateKeys(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidateKeys(true, true); err == nil {
		t.Fatalf("expected error when keys are missing")
	}

	cfg.ASR.APIKey = "asr"
	cfg.Chat.APIKey = "llm"
	if err := cfg.ValidateKeys(true, true); err != nil {
		t.Fatalf("unexpected key validation error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"activation", func(c *AppConfig) { c.Dictation.Activation = "sometimes" }},
		{"chat mode", func(c *AppConfig) { c.Chat.Mode = "carrier-pigeon" }},
		{"sample rate", func(c *AppConfig) { c.Audio.SampleRate = 0 }},
		{"replacement", func(c *AppConfig) {
			c.Dictation.Replacements = append(c.Dictation.Replacements, ReplacementConfig{To: "x"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
