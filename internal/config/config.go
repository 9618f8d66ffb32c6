package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sjawhar/voicebrief/internal/llm"
)

// EnvPrefix is the namespace prefix for all Voicebrief environment variables.
const EnvPrefix = "VOICEBRIEF_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	Addr                  string `yaml:"addr"`
	DBPath                string `yaml:"db_path"`
	SummaryModel          string `yaml:"summary_model"`
	SummaryTimeout        string `yaml:"summary_timeout"`
	SilenceTimeout        string `yaml:"silence_timeout"`
	GDriveFolderID        string `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`

	// Secrets — env vars only, never serialized to YAML.
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
}

func defaults() Config {
	return Config{
		Addr:                  ":8080",
		DBPath:                "data/voicebrief.db",
		SummaryModel:          "openai/gpt-4o-mini",
		SummaryTimeout:        "30s",
		SilenceTimeout:        "2m",
		GoogleCredentialsFile: "./service-account.json",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// ParsedSummaryTimeout returns SummaryTimeout as a time.Duration,
// falling back to 30s if the value is invalid.
func (c *Config) ParsedSummaryTimeout() time.Duration {
	d, err := time.ParseDuration(c.SummaryTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ParsedSilenceTimeout returns SilenceTimeout as a time.Duration. An invalid
// or zero value disables the silence watchdog.
func (c *Config) ParsedSilenceTimeout() time.Duration {
	d, err := time.ParseDuration(c.SilenceTimeout)
	if err != nil {
		return 0
	}
	return d
}

// APIKeyFor returns the secret matching an LLM provider name.
func (c *Config) APIKeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "SUMMARY_MODEL"); v != "" {
		cfg.SummaryModel = v
	}
	if v := os.Getenv(EnvPrefix + "SUMMARY_TIMEOUT"); v != "" {
		cfg.SummaryTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "SILENCE_TIMEOUT"); v != "" {
		cfg.SilenceTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "GDRIVE_FOLDER_ID"); v != "" {
		cfg.GDriveFolderID = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.GoogleCredentialsFile = v
	}
}

func loadSecrets(cfg *Config) {
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv(EnvPrefix + "ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = os.Getenv(EnvPrefix + "GEMINI_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	provider, _, err := llm.ParseModel(cfg.SummaryModel)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid summary_model %q — summaries will fail until corrected.", cfg.SummaryModel))
	} else if cfg.APIKeyFor(provider) == "" {
		warnings = append(warnings, fmt.Sprintf("No API key configured for provider %q — summaries are disabled. Set %s%s_API_KEY.", provider, EnvPrefix, envKeySuffix(provider)))
	}

	if _, err := time.ParseDuration(cfg.SummaryTimeout); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid summary_timeout %q — using default 30s.", cfg.SummaryTimeout))
	}
	if _, err := time.ParseDuration(cfg.SilenceTimeout); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid silence_timeout %q — silence auto-stop disabled.", cfg.SilenceTimeout))
	}

	return warnings
}

func envKeySuffix(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI"
	case "anthropic":
		return "ANTHROPIC"
	case "gemini":
		return "GEMINI"
	default:
		return "OPENAI"
	}
}
