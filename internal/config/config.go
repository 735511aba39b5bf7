package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/liuscraft/orion-dictate/internal/settings"
)

const DefaultPath = "config/dictate.json"

type AppConfig struct {
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	ASR       ASRConfig       `json:"asr" yaml:"asr"`
	Audio     AudioConfig     `json:"audio" yaml:"audio"`
	Chat      ChatConfig      `json:"chat" yaml:"chat"`
	Dictation DictationConfig `json:"dictation" yaml:"dictation"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type ASRConfig struct {
	APIKey             string `json:"api_key" yaml:"api_key"`
	Model              string `json:"model" yaml:"model"`
	Endpoint           string `json:"endpoint" yaml:"endpoint"`
	MaxSentenceSilence int    `json:"max_sentence_silence" yaml:"max_sentence_silence"`
}

type AudioConfig struct {
	SampleRate  int    `json:"sample_rate" yaml:"sample_rate"`
	Channels    int    `json:"channels" yaml:"channels"`
	BufferSize  int    `json:"buffer_size" yaml:"buffer_size"`
	Device      string `json:"device" yaml:"device"`
	HighLatency bool   `json:"high_latency" yaml:"high_latency"`
}

type ChatConfig struct {
	// Mode 取值 llm 或 nats
	Mode         string     `json:"mode" yaml:"mode"`
	APIKey       string     `json:"api_key" yaml:"api_key"`
	BaseURL      string     `json:"base_url" yaml:"base_url"`
	Model        string     `json:"model" yaml:"model"`
	SystemPrompt string     `json:"system_prompt" yaml:"system_prompt"`
	NATS         NATSConfig `json:"nats" yaml:"nats"`
}

type NATSConfig struct {
	URL           string `json:"url" yaml:"url"`
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
}

type ReplacementConfig struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

type CommandsConfig struct {
	Stop           string `json:"stop" yaml:"stop"`
	Send           string `json:"send" yaml:"send"`
	DeleteSentence string `json:"delete_sentence" yaml:"delete_sentence"`
	DeleteAll      string `json:"delete_all" yaml:"delete_all"`
}

type DictationConfig struct {
	Language     string              `json:"language" yaml:"language"`
	Activation   string              `json:"activation" yaml:"activation"`
	Autosend     bool                `json:"autosend" yaml:"autosend"`
	Commands     CommandsConfig      `json:"commands" yaml:"commands"`
	Replacements []ReplacementConfig `json:"replacements" yaml:"replacements"`
}

func DefaultConfig() *AppConfig {
	defaults := settings.Defaults()

	replacements := make([]ReplacementConfig, 0, len(defaults.Replacements))
	for _, r := range defaults.Replacements {
		replacements = append(replacements, ReplacementConfig{From: r.From, To: r.To})
	}

	return &AppConfig{
		Logging: LoggingConfig{},
		ASR: ASRConfig{
			Model: "fun-asr-realtime",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
			BufferSize: 3200,
		},
		Chat: ChatConfig{
			Mode:         "llm",
			BaseURL:      "https://open.bigmodel.cn/api/coding/paas/v4",
			Model:        "glm-4-flash",
			SystemPrompt: "You are a helpful assistant. The user is dictating by voice, so expect occasional recognition mistakes.",
			NATS: NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				SubjectPrefix: "chat",
			},
		},
		Dictation: DictationConfig{
			Language:   defaults.Language,
			Activation: string(defaults.Activation),
			Autosend:   defaults.Autosend,
			Commands: CommandsConfig{
				Stop:           defaults.Commands.Stop,
				Send:           defaults.Commands.Send,
				DeleteSentence: defaults.Commands.DeleteSentence,
				DeleteAll:      defaults.Commands.DeleteAll,
			},
			Replacements: replacements,
		},
	}
}

func Load(path string) (*AppConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyEnv()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

func (c *AppConfig) ApplyEnv() {
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		c.Logging.Level = level
	}
	if format := strings.TrimSpace(os.Getenv("LOG_FORMAT")); format != "" {
		c.Logging.Format = format
	}

	if dash := strings.TrimSpace(os.Getenv("DASHSCOPE_API_KEY")); dash != "" {
		c.ASR.APIKey = dash
		if strings.TrimSpace(c.Chat.APIKey) == "" {
			c.Chat.APIKey = dash
		}
	}
	if llm := strings.TrimSpace(os.Getenv("LLM_API_KEY")); llm != "" {
		c.Chat.APIKey = llm
	}
	if url := strings.TrimSpace(os.Getenv("NATS_URL")); url != "" {
		c.Chat.NATS.URL = url
	}
	if lang := strings.TrimSpace(os.Getenv("DICTATION_LANGUAGE")); lang != "" {
		c.Dictation.Language = lang
	}
}

func (c *AppConfig) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if c.Audio.Channels <= 0 {
		return errors.New("audio.channels must be positive")
	}
	if c.Audio.BufferSize <= 0 {
		return errors.New("audio.buffer_size must be positive")
	}

	switch strings.ToLower(strings.TrimSpace(c.Chat.Mode)) {
	case "llm", "nats":
	default:
		return fmt.Errorf("invalid chat mode: %s", c.Chat.Mode)
	}

	if _, ok := settings.ParseActivation(c.Dictation.Activation); !ok {
		return fmt.Errorf("invalid dictation activation: %s", c.Dictation.Activation)
	}

	for i, r := range c.Dictation.Replacements {
		if r.From == "" && r.To != "" {
			return fmt.Errorf("dictation.replacements[%d]: to set without from", i)
		}
	}

	return nil
}

func (c *AppConfig) ValidateKeys(requireASR, requireLLM bool) error {
	if requireASR && strings.TrimSpace(c.ASR.APIKey) == "" {
		return errors.New("asr api_key is required")
	}
	if requireLLM && strings.TrimSpace(c.Chat.APIKey) == "" {
		return errors.New("chat api_key is required")
	}
	return nil
}

// Settings 转换为听写配置快照
func (d DictationConfig) Settings() settings.Settings {
	activation, ok := settings.ParseActivation(d.Activation)
	if !ok {
		activation = settings.ActivationManual
	}

	out := settings.Settings{
		Language:   strings.TrimSpace(d.Language),
		Activation: activation,
		Autosend:   d.Autosend,
		Commands: settings.Commands{
			Stop:           d.Commands.Stop,
			Send:           d.Commands.Send,
			DeleteSentence: d.Commands.DeleteSentence,
			DeleteAll:      d.Commands.DeleteAll,
		},
	}
	for _, r := range d.Replacements {
		out.Replacements = append(out.Replacements, settings.Replacement{From: r.From, To: r.To})
	}
	return out
}
