package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/opmgt/beergame-coach/internal/prompts"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// External service configurations
	OpenAICfg OpenAIConnectorConfig `envPrefix:"OPENAI_"`
	BlobCfg   BlobConnectorConfig   `envPrefix:"BLOB_"`

	// Coaching configuration
	CoachCfg CoachConfig `envPrefix:"COACH_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// Telegram bot configuration (optional front end)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Mode template overrides (loaded from JSON file)
	ModeOverrides map[string]prompts.Mode

	// Environment (set from flag, not from env var)
	Environment string
}

// OpenAIConnectorConfig configures the generative backend connector. Primary
// and fallback are two models behind the same API surface.
type OpenAIConnectorConfig struct {
	HTTPClientConfig
	PrimaryModel    string `env:"PRIMARY_MODEL" envDefault:"gpt-5-mini"`
	FallbackModel   string `env:"FALLBACK_MODEL" envDefault:"gpt-4o-mini"`
	ReasoningEffort string `env:"REASONING_EFFORT" envDefault:"minimal"`
}

// BlobConnectorConfig configures the persistence sink connector.
type BlobConnectorConfig struct {
	HTTPClientConfig
	// Bucket is the bucket or container name appended to the base URL.
	Bucket string `env:"BUCKET,notEmpty"`
}

// CoachConfig holds the coaching session settings.
type CoachConfig struct {
	// ModeKey selects the prompt mode for every session of this deployment.
	ModeKey string `env:"MODE_KEY" envDefault:"BeerGameQualitative"`
	// SessionTTL is the idle lifetime of an in-memory session.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"6h"`
	// Sections is the closed list of class sections offered to participants.
	Sections []string `env:"SECTIONS" envSeparator:";" envDefault:"OPMGT 301 A;OPMGT 301 B;OPMGT 301 C"`
	// ModesFile optionally overrides the built-in prompt templates.
	ModesFile string `env:"MODES_FILE"`
}

// TelegramConfig holds Telegram bot configuration. BotToken is empty when
// only the HTTP binary is deployed.
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"30"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT,notEmpty"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT,notEmpty"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE,notEmpty"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT,notEmpty"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT,notEmpty"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL,notEmpty"`
}

// modesFile represents the structure of the optional mode overrides JSON
type modesFile struct {
	Modes map[string]struct {
		SystemPrompt      string `json:"system_prompt"`
		OutputInstruction string `json:"output_instruction"`
	} `json:"modes"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := loadModeOverrides(cfg); err != nil {
		return nil, fmt.Errorf("load mode overrides: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.OpenAICfg.ReasoningEffort {
	case "", "minimal", "low", "medium", "high":
	default:
		return fmt.Errorf("OPENAI_REASONING_EFFORT must be one of minimal/low/medium/high, got %q", cfg.OpenAICfg.ReasoningEffort)
	}

	if cfg.CoachCfg.SessionTTL < time.Minute {
		return fmt.Errorf("COACH_SESSION_TTL must be at least 1m, got %s", cfg.CoachCfg.SessionTTL)
	}

	if len(cfg.CoachCfg.Sections) == 0 {
		return fmt.Errorf("COACH_SECTIONS must list at least one section")
	}

	if cfg.TelegramCfg.BotToken != "" {
		if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
			return fmt.Errorf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute)
		}
		if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
			return fmt.Errorf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout)
		}
	}

	return nil
}

func loadModeOverrides(cfg *Config) error {
	if cfg.CoachCfg.ModesFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.CoachCfg.ModesFile)
	if err != nil {
		return fmt.Errorf("read modes file: %w", err)
	}

	var parsed modesFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse modes JSON: %w", err)
	}

	if len(parsed.Modes) == 0 {
		return fmt.Errorf("modes file contains no modes: %s", cfg.CoachCfg.ModesFile)
	}

	cfg.ModeOverrides = make(map[string]prompts.Mode, len(parsed.Modes))
	for key, mode := range parsed.Modes {
		cfg.ModeOverrides[key] = prompts.Mode{
			Key:               key,
			SystemPrompt:      mode.SystemPrompt,
			OutputInstruction: mode.OutputInstruction,
		}
	}

	fmt.Printf("Loaded %d mode overrides from %s\n", len(cfg.ModeOverrides), cfg.CoachCfg.ModesFile)
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
