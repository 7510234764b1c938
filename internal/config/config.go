package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OllamaEmbedderConfig holds settings for the Ollama embedding provider.
type OllamaEmbedderConfig struct {
	Host        string `yaml:"host"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds settings for the OpenAI-compatible provider.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Ollama *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// GeneratorConfig configures the local generation model and its decoding
// defaults. ContextWindow and Threads are fixed for the process lifetime.
type GeneratorConfig struct {
	Host          string   `yaml:"host"`
	Model         string   `yaml:"model"`
	ContextWindow int      `yaml:"context_window"`
	Threads       int      `yaml:"threads"`
	MaxTokens     int      `yaml:"max_tokens"`
	Temperature   float64  `yaml:"temperature"`
	TopP          float64  `yaml:"top_p"`
	TopK          int      `yaml:"top_k"`
	RepeatPenalty float64  `yaml:"repeat_penalty"`
	Stop          []string `yaml:"stop,omitempty"`
	TimeoutSecs   int      `yaml:"timeout_secs"`
}

// RetrievalConfig holds the default search parameters.
type RetrievalConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity"`
}

// TranscribeConfig configures the audio transcription endpoint.
type TranscribeConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	WhisperURL  string `yaml:"whisper_url"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// JSONFieldsConfig names the fields extracted from ingested JSON documents.
type JSONFieldsConfig struct {
	TextFields []string `yaml:"text_fields"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Ingest     JSONFieldsConfig `yaml:"ingest"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/localrag/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "localrag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{
			Type:   "ollama",
			Ollama: &OllamaEmbedderConfig{},
		},
		Generator: GeneratorConfig{
			Model: "mistral",
		},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "ollama"
	}
	if cfg.Embedder.Type == "ollama" {
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.Host == "" {
			cfg.Embedder.Ollama.Host = "http://localhost:11434"
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
		if cfg.Embedder.Ollama.TimeoutSecs == 0 {
			cfg.Embedder.Ollama.TimeoutSecs = 30
		}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Generator.Host == "" {
		cfg.Generator.Host = "http://localhost:11434"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "mistral"
	}
	if cfg.Generator.ContextWindow == 0 {
		cfg.Generator.ContextWindow = 2048
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 512
	}
	if cfg.Generator.Temperature == 0 {
		cfg.Generator.Temperature = 0.7
	}
	if cfg.Generator.TopP == 0 {
		cfg.Generator.TopP = 0.9
	}
	if cfg.Generator.TopK == 0 {
		cfg.Generator.TopK = 40
	}
	if cfg.Generator.RepeatPenalty == 0 {
		cfg.Generator.RepeatPenalty = 1.1
	}
	if cfg.Generator.TimeoutSecs == 0 {
		cfg.Generator.TimeoutSecs = 300
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Transcribe.ListenAddr == "" {
		cfg.Transcribe.ListenAddr = ":8000"
	}
	if cfg.Transcribe.WhisperURL == "" {
		cfg.Transcribe.WhisperURL = "http://localhost:8080"
	}
	if cfg.Transcribe.Model == "" {
		cfg.Transcribe.Model = "whisper-1"
	}
	if cfg.Transcribe.TimeoutSecs == 0 {
		cfg.Transcribe.TimeoutSecs = 120
	}
	if len(cfg.Ingest.TextFields) == 0 {
		cfg.Ingest.TextFields = []string{"text", "content", "body"}
	}
}
