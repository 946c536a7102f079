package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for tagdelta.
type Config struct {
	GitHub     GitHubConfig     `yaml:"github"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Compare    CompareConfig    `yaml:"compare"`
}

// GitHubConfig describes the hosting service connection.
type GitHubConfig struct {
	Token string `yaml:"token"` // Inline, ${ENV_VAR}, or file path
	Host  string `yaml:"host"`  // Enterprise base URL; empty for github.com
}

// SummarizerConfig describes the text-generation service.
type SummarizerConfig struct {
	Type      string `yaml:"type"`       // "openai"
	Token     string `yaml:"token"`      // Inline, ${ENV_VAR}, or file path
	Model     string `yaml:"model"`      // default gpt-4o-mini
	MaxTokens int    `yaml:"max_tokens"` // default 1000
}

// CompareConfig holds the comparison pipeline defaults.
type CompareConfig struct {
	CommitLimit         int      `yaml:"commit_limit"`   // 0 = all
	Concurrency         int      `yaml:"concurrency"`    // detail-fetch worker pool size
	RetryAttempts       int      `yaml:"retry_attempts"` // backoff loop bound
	PayloadBudget       int      `yaml:"payload_budget"` // payload size cap in characters
	InstructionTemplate string   `yaml:"instruction_template"`
	PathFilter          string   `yaml:"path_filter"` // doublestar glob
	Deadline            Duration `yaml:"deadline"`    // overall comparison deadline
}

// Duration is a time.Duration that unmarshals from YAML strings like "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Value returns the underlying time.Duration.
func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment
// variables and resolving token file paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.GitHub.Token = resolveToken(cfg.GitHub.Token)
	cfg.Summarizer.Token = resolveToken(cfg.Summarizer.Token)
	cfg.applyDefaults()

	if validateErr := validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// FromEnv builds a configuration from environment variables alone, loading
// a .env file first when one is present. Used when no config file exists.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		GitHub: GitHubConfig{
			Token: os.Getenv("GITHUB_TOKEN"),
			Host:  os.Getenv("GITHUB_HOST"),
		},
		Summarizer: SummarizerConfig{
			Type:  "openai",
			Token: os.Getenv("OPENAI_API_KEY"),
		},
	}
	cfg.applyDefaults()

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".tagdelta.yaml",
		".tagdelta.yml",
		"tagdelta.yaml",
		"tagdelta.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

func (c *Config) applyDefaults() {
	if c.Summarizer.Type == "" {
		c.Summarizer.Type = "openai"
	}
	if c.Summarizer.Model == "" {
		c.Summarizer.Model = "gpt-4o-mini"
	}
	if c.Summarizer.MaxTokens <= 0 {
		c.Summarizer.MaxTokens = 1000
	}
	if c.Compare.CommitLimit < 0 {
		c.Compare.CommitLimit = 0
	}
	if c.Compare.Concurrency <= 0 {
		c.Compare.Concurrency = 8
	}
	if c.Compare.RetryAttempts <= 0 {
		c.Compare.RetryAttempts = 5
	}
	if c.Compare.PayloadBudget <= 0 {
		c.Compare.PayloadBudget = 48000
	}
	if c.Compare.Deadline <= 0 {
		c.Compare.Deadline = Duration(2 * time.Minute)
	}
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values. The summarizer token
// is optional: comparisons work without one, only summarization needs it.
func validate(cfg *Config) error {
	if cfg.GitHub.Token == "" {
		return errors.New(
			"github.token is required (set inline, via ${ENV_VAR}, as a file path, or GITHUB_TOKEN)",
		)
	}
	if cfg.Summarizer.Type != "openai" {
		return fmt.Errorf("unknown summarizer type: %q", cfg.Summarizer.Type)
	}
	return nil
}
