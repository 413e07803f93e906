// Package config handles Paperscout configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/paperscout/config.yaml, /etc/paperscout/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "paperscout", "config.yaml"))
	}

	paths = append(paths, "/etc/paperscout/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Model providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Scholar modes.
const (
	ScholarPlaceholder = "placeholder"
	ScholarScrape      = "scrape"
)

// Config holds all Paperscout configuration.
type Config struct {
	Listen      ListenConfig      `yaml:"listen"`
	LLM         LLMConfig         `yaml:"llm"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Ollama      OllamaConfig      `yaml:"ollama"`
	Search      SearchConfig      `yaml:"search"`
	Agent       AgentConfig       `yaml:"agent"`
	Credentials CredentialsConfig `yaml:"credentials"`
	DataDir     string            `yaml:"data_dir"`
	LogLevel    string            `yaml:"log_level"`
	LogFormat   string            `yaml:"log_format"` // text or json
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// LLMConfig selects the model provider and generation parameters.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // gemini, openai, ollama
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	TimeoutSec      int     `yaml:"timeout_sec"`
}

// Timeout returns the per-call model timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// GeminiConfig defines Google Generative Language API settings. The key
// itself lives in the credential store.
type GeminiConfig struct {
	BaseURL string `yaml:"base_url"`
}

// OpenAIConfig defines an OpenAI-compatible chat completions endpoint.
// BaseURL may point at any compatible server.
type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// OllamaConfig defines a local Ollama server.
type OllamaConfig struct {
	URL string `yaml:"url"`
}

// SearchConfig defines the paper search backends.
type SearchConfig struct {
	TimeoutSec      int                   `yaml:"timeout_sec"`
	AllSources      []string              `yaml:"all_sources"`
	Arxiv           ArxivConfig           `yaml:"arxiv"`
	Scholar         ScholarConfig         `yaml:"scholar"`
	SemanticScholar SemanticScholarConfig `yaml:"semantic_scholar"`
	SearXNG         SearXNGConfig         `yaml:"searxng"`
}

// Timeout returns the per-source search timeout.
func (c SearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ArxivConfig overrides the arXiv export API endpoint.
type ArxivConfig struct {
	URL string `yaml:"url"`
}

// ScholarConfig selects how the "scholar" source is served.
type ScholarConfig struct {
	Mode string `yaml:"mode"` // placeholder or scrape
	URL  string `yaml:"url"`
}

// SemanticScholarConfig enables the "semantic" source.
type SemanticScholarConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"`
}

// SearXNGConfig enables the "searxng" source when URL is set.
type SearXNGConfig struct {
	URL string `yaml:"url"`
}

// Configured reports whether a SearXNG URL is set.
func (c SearXNGConfig) Configured() bool {
	return c.URL != ""
}

// AgentConfig bounds the tool-calling loop.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"`
}

// CredentialsConfig names the stored model key and an optional fallback
// value (typically ${GEMINI_API_KEY}) used when nothing is stored.
type CredentialsConfig struct {
	KeyName  string `yaml:"key_name"`
	Fallback string `yaml:"fallback"`
}

// RequiresCredential reports whether the configured provider needs an
// API key.
func (c *Config) RequiresCredential() bool {
	return c.LLM.Provider != ProviderOllama
}

// DBPath returns the SQLite database path under DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "paperscout.db")
}

// Load reads configuration from a YAML file. A .env file next to the
// config is loaded into the environment first (existing variables win),
// then ${VAR} references are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	cfg := &Config{
		Listen: ListenConfig{Port: 8080},
		LLM: LLMConfig{
			Provider:        ProviderGemini,
			Temperature:     0.1,
			MaxOutputTokens: 1000,
			TimeoutSec:      60,
		},
		Ollama: OllamaConfig{URL: "http://localhost:11434"},
		Search: SearchConfig{
			TimeoutSec: 15,
			AllSources: []string{"arxiv", "ieee", "scholar"},
			Scholar:    ScholarConfig{Mode: ScholarPlaceholder},
		},
		Agent:       AgentConfig{MaxIterations: 5},
		Credentials: CredentialsConfig{KeyName: "gemini_api_key"},
		DataDir:     "./data",
		LogLevel:    "info",
		LogFormat:   "text",
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills values that YAML may have blanked and derives the
// model name from the provider.
func (c *Config) applyDefaults() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case ProviderGemini:
			c.LLM.Model = "gemini-2.0-flash"
		case ProviderOpenAI:
			c.LLM.Model = "gpt-4o-mini"
		case ProviderOllama:
			c.LLM.Model = "llama3.2"
		}
	}
	if c.LLM.MaxOutputTokens <= 0 {
		c.LLM.MaxOutputTokens = 1000
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 15
	}
	if c.Search.Scholar.Mode == "" {
		c.Search.Scholar.Mode = ScholarPlaceholder
	}
	if c.Agent.MaxIterations <= 0 {
		c.Agent.MaxIterations = 5
	}
	if c.Credentials.KeyName == "" {
		c.Credentials.KeyName = "gemini_api_key"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("llm.provider: unknown provider %q (valid: gemini, openai, ollama)", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature: %v out of range [0, 2]", c.LLM.Temperature)
	}
	switch c.Search.Scholar.Mode {
	case ScholarPlaceholder, ScholarScrape:
	default:
		return fmt.Errorf("search.scholar.mode: unknown mode %q (valid: placeholder, scrape)", c.Search.Scholar.Mode)
	}
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port: %d out of range", c.Listen.Port)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format: unknown format %q (valid: text, json)", c.LogFormat)
	}
	return nil
}
