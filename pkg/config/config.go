package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/zen-systems/solvegate/pkg/adapter"
	"github.com/zen-systems/solvegate/pkg/sandbox"
	"github.com/zen-systems/solvegate/pkg/strategy"
)

// Environment variables read by Load. They take precedence over the file.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAPIBase      = "API_BASE"
	EnvModel        = "MODEL_NAME"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGoogleKey    = "GOOGLE_API_KEY"
	EnvAdapter      = "SOLVEGATE_ADAPTER"
)

// Config holds the application configuration.
type Config struct {
	APIKeys APIKeysConfig   `yaml:"api_keys"`
	Gateway GatewayConfig   `yaml:"gateway"`
	Solver  SolverConfig    `yaml:"solver"`
	Sandbox SandboxConfig   `yaml:"sandbox"`
	Logging LoggingConfig   `yaml:"logging"`
	Pricing adapter.Pricing `yaml:"pricing,omitempty"`

	ConfigDir string        `yaml:"-"`
	Aliases   *ModelAliases `yaml:"-"`
}

// APIKeysConfig holds provider API keys.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
}

// GatewayConfig selects the model endpoint.
type GatewayConfig struct {
	Adapter        string `yaml:"adapter"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-call HTTP timeout.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// EnsemblesConfig lists strategy kinds per planner recommendation.
type EnsemblesConfig struct {
	CodeSynthesis   []string `yaml:"code_synthesis"`
	DirectReasoning []string `yaml:"direct_reasoning"`
}

// TemperaturesConfig holds per-call sampling temperatures. Unset values take
// the defaults.
type TemperaturesConfig struct {
	Planner     *float64 `yaml:"planner"`
	CoT         *float64 `yaml:"cot"`
	PAL         *float64 `yaml:"pal"`
	ReAct       *float64 `yaml:"react"`
	FactCheck   *float64 `yaml:"fact_check"`
	SelfCorrect *float64 `yaml:"self_correct"`
	Summary     *float64 `yaml:"summary"`
}

// SolverConfig tunes the orchestration.
type SolverConfig struct {
	Quorum             int                `yaml:"quorum"`
	Ensembles          EnsemblesConfig    `yaml:"ensembles"`
	Temperatures       TemperaturesConfig `yaml:"temperatures"`
	PALMaxRepairs      int                `yaml:"pal_max_repairs"`
	ReActMaxTurns      int                `yaml:"react_max_turns"`
	ReActCompactChars  int                `yaml:"react_compact_chars"`
	ReActCompactTokens int                `yaml:"react_compact_tokens"`
	ReActMaxCodeChars  int                `yaml:"react_max_code_chars"`
	CodeLanguage       string             `yaml:"code_language"`
}

// SandboxConfig tunes code execution.
type SandboxConfig struct {
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	DefaultLanguage string `yaml:"default_language"`
}

// Timeout returns the per-run sandbox timeout.
func (s SandboxConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// LoggingConfig selects log level and destination.
type LoggingConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Load reads configuration from path (or ~/.solvegate/config.yaml when path
// is empty), a .env file in the working directory, and the environment.
// Environment variables take precedence over file configuration.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		path = filepath.Join(configDir, "config.yaml")
	}
	if err := loadFile(path, cfg, explicit); err != nil {
		return nil, err
	}
	cfg.ConfigDir = configDir

	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aliases, err := LoadAliasesWithFallback(filepath.Join(configDir, "models.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to load model aliases: %w", err)
	}
	if len(aliases.Aliases) == 0 && len(aliases.Providers) == 0 {
		aliases = DefaultAliases()
	}
	cfg.Aliases = aliases

	return cfg, nil
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Aliases = DefaultAliases()
	return cfg
}

// loadFile reads the YAML file into cfg. A missing default file is not an
// error; a missing explicit file is.
func loadFile(path string, cfg *Config, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIKeys.OpenAI = getEnvOrDefault(EnvOpenAIKey, cfg.APIKeys.OpenAI)
	cfg.APIKeys.Anthropic = getEnvOrDefault(EnvAnthropicKey, cfg.APIKeys.Anthropic)
	cfg.APIKeys.Google = getEnvOrDefault(EnvGoogleKey, cfg.APIKeys.Google)
	cfg.Gateway.BaseURL = getEnvOrDefault(EnvAPIBase, cfg.Gateway.BaseURL)
	cfg.Gateway.Model = getEnvOrDefault(EnvModel, cfg.Gateway.Model)
	cfg.Gateway.Adapter = getEnvOrDefault(EnvAdapter, cfg.Gateway.Adapter)
}

func floatPtr(v float64) *float64 { return &v }

func applyDefaults(cfg *Config) {
	if cfg.Gateway.Adapter == "" {
		cfg.Gateway.Adapter = defaultAdapter(cfg)
	}
	if cfg.Gateway.Model == "" {
		cfg.Gateway.Model = defaultModel(cfg.Gateway.Adapter)
	}
	if cfg.Gateway.MaxTokens == 0 {
		cfg.Gateway.MaxTokens = 8000
	}
	if cfg.Gateway.TimeoutSeconds == 0 {
		cfg.Gateway.TimeoutSeconds = 120
	}

	s := &cfg.Solver
	if s.Quorum == 0 {
		s.Quorum = 2
	}
	if len(s.Ensembles.CodeSynthesis) == 0 {
		s.Ensembles.CodeSynthesis = []string{"pal", "pal", "react"}
	}
	if len(s.Ensembles.DirectReasoning) == 0 {
		s.Ensembles.DirectReasoning = []string{"cot", "cot", "react"}
	}
	t := &s.Temperatures
	for _, p := range []**float64{&t.Planner, &t.CoT, &t.PAL, &t.ReAct, &t.FactCheck, &t.Summary} {
		if *p == nil {
			*p = floatPtr(0)
		}
	}
	if t.SelfCorrect == nil {
		t.SelfCorrect = floatPtr(0.3)
	}
	if s.PALMaxRepairs == 0 {
		s.PALMaxRepairs = 2
	}
	if s.ReActMaxTurns == 0 {
		s.ReActMaxTurns = 7
	}
	if s.ReActCompactChars == 0 {
		s.ReActCompactChars = 12000
	}
	if s.ReActMaxCodeChars == 0 {
		s.ReActMaxCodeChars = 4000
	}
	if s.CodeLanguage == "" {
		s.CodeLanguage = string(sandbox.LangLua)
	}

	if cfg.Sandbox.TimeoutSeconds == 0 {
		cfg.Sandbox.TimeoutSeconds = 5
	}
	if cfg.Sandbox.DefaultLanguage == "" {
		cfg.Sandbox.DefaultLanguage = string(sandbox.LangLua)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
}

// defaultAdapter picks an adapter from whichever credentials are present. A
// bare API_BASE means a self-hosted OpenAI-compatible endpoint.
func defaultAdapter(cfg *Config) string {
	switch {
	case cfg.Gateway.BaseURL != "":
		return "chat"
	case cfg.APIKeys.OpenAI != "":
		return "openai"
	case cfg.APIKeys.Anthropic != "":
		return "anthropic"
	case cfg.APIKeys.Google != "":
		return "google"
	default:
		return "openai"
	}
}

func defaultModel(adapterName string) string {
	switch adapterName {
	case "anthropic":
		return "claude-sonnet-4-20250514"
	case "google":
		return "gemini-2.0-flash"
	case "mock":
		return "mock-1"
	default:
		return "gpt-4o-mini"
	}
}

// Validate rejects settings the solver cannot run with.
func (c *Config) Validate() error {
	if c.Solver.Quorum < 1 {
		return fmt.Errorf("solver.quorum must be at least 1, got %d", c.Solver.Quorum)
	}
	if c.Solver.ReActMaxTurns < 1 {
		return fmt.Errorf("solver.react_max_turns must be at least 1, got %d", c.Solver.ReActMaxTurns)
	}
	if c.Solver.PALMaxRepairs < 0 {
		return fmt.Errorf("solver.pal_max_repairs must not be negative, got %d", c.Solver.PALMaxRepairs)
	}
	for name, kinds := range map[string][]string{
		"code_synthesis":   c.Solver.Ensembles.CodeSynthesis,
		"direct_reasoning": c.Solver.Ensembles.DirectReasoning,
	} {
		for _, k := range kinds {
			if _, err := strategy.ParseKind(k); err != nil {
				return fmt.Errorf("solver.ensembles.%s: %w", name, err)
			}
		}
	}
	if lang := sandbox.ParseLanguage(c.Sandbox.DefaultLanguage); !lang.Valid() {
		return fmt.Errorf("sandbox.default_language: unknown language %q", c.Sandbox.DefaultLanguage)
	}
	if lang := sandbox.ParseLanguage(c.Solver.CodeLanguage); lang != sandbox.LangGo && lang != sandbox.LangLua {
		return fmt.Errorf("solver.code_language must be go or lua, got %q", c.Solver.CodeLanguage)
	}
	return nil
}

// HasAdapter returns true if the credentials for the given adapter are configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.APIKeys.Anthropic != ""
	case "openai":
		return c.APIKeys.OpenAI != ""
	case "google":
		return c.APIKeys.Google != ""
	case "chat":
		return c.Gateway.BaseURL != ""
	case "mock":
		return true
	default:
		return false
	}
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".solvegate")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
