package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// IndexConfig describes the target index in the Endee vector service.
type IndexConfig struct {
	Name      string `yaml:"name"`
	Dimension int    `yaml:"dimension"`
	SpaceType string `yaml:"space_type"`
	Precision string `yaml:"precision"`
	BatchSize int    `yaml:"batch_size"`
}

// EndeeConfig contains connection details for the Endee index service.
// Host and port can be overridden by ENDEE_HOST / ENDEE_PORT.
type EndeeConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EncoderConfig configures the embedding encoder endpoint.
type EncoderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeneratorConfig configures the generative backend and its fallback
// chain. A missing API key disables chat without affecting search.
type GeneratorConfig struct {
	BaseURL            string   `yaml:"base_url"`
	APIKeyEnv          string   `yaml:"api_key_env"`
	Models             []string `yaml:"models"`
	AttemptTimeoutSecs int      `yaml:"attempt_timeout_secs"`
}

// ServerConfig configures the HTTP API surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	CorpusPath string          `yaml:"corpus_path"`
	Index      IndexConfig     `yaml:"index"`
	Endee      EndeeConfig     `yaml:"endee"`
	Encoder    EncoderConfig   `yaml:"encoder"`
	Generator  GeneratorConfig `yaml:"generator"`
	Server     ServerConfig    `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/remedyrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/remedyrag/config.yaml and returns them.
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
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
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
	return filepath.Join(home, ".config", "remedyrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.CorpusPath == "" {
		cfg.CorpusPath = "data/remedy_chunks.json"
	}
	if cfg.Index.Name == "" {
		cfg.Index.Name = "homeopathy_remedies"
	}
	if cfg.Index.Dimension == 0 {
		cfg.Index.Dimension = 384
	}
	if cfg.Index.SpaceType == "" {
		cfg.Index.SpaceType = "cosine"
	}
	if cfg.Index.Precision == "" {
		cfg.Index.Precision = "int8d"
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 50
	}
	if cfg.Endee.Host == "" {
		cfg.Endee.Host = "localhost"
	}
	if cfg.Endee.Port == "" {
		cfg.Endee.Port = "8080"
	}
	if cfg.Endee.TimeoutSecs == 0 {
		cfg.Endee.TimeoutSecs = 30
	}
	if cfg.Encoder.BaseURL == "" {
		cfg.Encoder.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Encoder.Model == "" {
		cfg.Encoder.Model = "all-minilm"
	}
	if cfg.Encoder.TimeoutSecs == 0 {
		cfg.Encoder.TimeoutSecs = 30
	}
	if cfg.Generator.APIKeyEnv == "" {
		cfg.Generator.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	if len(cfg.Generator.Models) == 0 {
		cfg.Generator.Models = []string{
			"gemini-flash-latest",
			"gemini-pro-latest",
			"gemini-2.0-flash",
			"gemini-2.5-flash",
		}
	}
	if cfg.Generator.AttemptTimeoutSecs == 0 {
		cfg.Generator.AttemptTimeoutSecs = 60
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if host := os.Getenv("ENDEE_HOST"); host != "" {
		cfg.Endee.Host = host
	}
	if port := os.Getenv("ENDEE_PORT"); port != "" {
		cfg.Endee.Port = port
	}
}
