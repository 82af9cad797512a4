package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qazi0/OpenSuperWhisper/internal/transcribe"
)

// Config holds all application configuration.
type Config struct {
	Backend          string              `yaml:"backend"` // "whisper" or "parakeet"
	ModelPath        string              `yaml:"model_path"`
	ParakeetModelDir string              `yaml:"parakeet_model_dir"`
	Transcription    TranscriptionConfig `yaml:"transcription"`
	Audio            AudioConfig         `yaml:"audio"`
	Clipboard        ClipboardConfig     `yaml:"clipboard"`
	HistoryPath      string              `yaml:"history_path"`
	LogLevel         string              `yaml:"log_level"`
}

// TranscriptionConfig holds the default decoding settings applied to each
// transcription request. A request snapshots these into transcribe.Settings;
// the snapshot never changes mid-request.
type TranscriptionConfig struct {
	Language           string  `yaml:"language"` // ISO 639-1 code or "auto"
	TranslateToEnglish bool    `yaml:"translate_to_english"`
	ShowTimestamps     bool    `yaml:"show_timestamps"`
	SuppressBlankAudio bool    `yaml:"suppress_blank_audio"`
	Temperature        float64 `yaml:"temperature"`
	NoSpeechThreshold  float64 `yaml:"no_speech_threshold"`
	InitialPrompt      string  `yaml:"initial_prompt"`
	UseBeamSearch      bool    `yaml:"use_beam_search"`
	BeamSize           int     `yaml:"beam_size"`
	AutocorrectCJK     bool    `yaml:"autocorrect_cjk"`
}

// AudioConfig holds live capture settings.
type AudioConfig struct {
	SampleRate uint32 `yaml:"sample_rate"`
	Channels   uint32 `yaml:"channels"`
}

// ClipboardConfig holds final-text insertion settings.
type ClipboardConfig struct {
	Method string `yaml:"method"` // "paste" or "type"
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "opensuperwhisper")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultDataDir returns the directory holding models and the history database.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "opensuperwhisper")
}

// DefaultModelsDir returns the default models directory path.
func DefaultModelsDir() string {
	return filepath.Join(DefaultDataDir(), "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend:          "whisper",
		ModelPath:        filepath.Join(DefaultModelsDir(), "ggml-base.en.bin"),
		ParakeetModelDir: filepath.Join(DefaultModelsDir(), "parakeet-tdt-v2"),
		Transcription: TranscriptionConfig{
			Language:          "auto",
			Temperature:       0.0,
			NoSpeechThreshold: 0.6,
			BeamSize:          5,
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
		},
		Clipboard: ClipboardConfig{
			Method: "paste",
		},
		HistoryPath: filepath.Join(DefaultDataDir(), "history.db"),
		LogLevel:    "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled with
// defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ModelPath = expandTilde(cfg.ModelPath)
	cfg.ParakeetModelDir = expandTilde(cfg.ParakeetModelDir)
	cfg.HistoryPath = expandTilde(cfg.HistoryPath)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Backend {
	case "whisper", "parakeet":
	default:
		return fmt.Errorf("backend must be \"whisper\" or \"parakeet\", got %q", c.Backend)
	}

	if c.Backend == "whisper" && c.ModelPath == "" {
		return fmt.Errorf("model_path must not be empty")
	}
	if c.Backend == "parakeet" && c.ParakeetModelDir == "" {
		return fmt.Errorf("parakeet_model_dir must not be empty")
	}

	t := c.Transcription
	if t.Temperature < 0 || t.Temperature > 1 {
		return fmt.Errorf("transcription.temperature must be in [0, 1], got %g", t.Temperature)
	}
	if t.NoSpeechThreshold < 0 || t.NoSpeechThreshold > 1 {
		return fmt.Errorf("transcription.no_speech_threshold must be in [0, 1], got %g", t.NoSpeechThreshold)
	}
	if t.BeamSize < 1 || t.BeamSize > 10 {
		return fmt.Errorf("transcription.beam_size must be in [1, 10], got %d", t.BeamSize)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}
	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	switch c.Clipboard.Method {
	case "paste", "type":
	default:
		return fmt.Errorf("clipboard.method must be \"paste\" or \"type\", got %q", c.Clipboard.Method)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Settings snapshots the transcription defaults into an immutable per-request
// settings value.
func (c *Config) Settings() transcribe.Settings {
	t := c.Transcription
	return transcribe.Settings{
		Language:           t.Language,
		TranslateToEnglish: t.TranslateToEnglish,
		ShowTimestamps:     t.ShowTimestamps,
		SuppressBlankAudio: t.SuppressBlankAudio,
		Temperature:        t.Temperature,
		NoSpeechThreshold:  t.NoSpeechThreshold,
		InitialPrompt:      t.InitialPrompt,
		UseBeamSearch:      t.UseBeamSearch,
		BeamSize:           t.BeamSize,
		AutocorrectCJK:     t.AutocorrectCJK,
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
