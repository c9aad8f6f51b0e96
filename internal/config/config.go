// Package config loads service configuration from YAML and FINANCE_ env vars.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverBigQuery = "bigquery"
	DriverPostgres = "postgres"
)

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Email drivers.
const (
	EmailLog  = "log"
	EmailSMTP = "smtp"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	LLM       LLMConfig       `koanf:"llm"`
	Email     EmailConfig     `koanf:"email"`
	Jobs      JobsConfig      `koanf:"jobs"`
	Export    ExportConfig    `koanf:"export"`
	Notion    NotionConfig    `koanf:"notion"`
	Assistant AssistantConfig `koanf:"assistant"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigin   string        `koanf:"allowed_origin"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type StoreConfig struct {
	Driver  string `koanf:"driver"`
	Project string `koanf:"project"`
	Dataset string `koanf:"dataset"`
	DSN     string `koanf:"dsn"`
}

// LLMConfig selects and tunes the chat model. RateLimit is requests per
// second; zero disables limiting.
type LLMConfig struct {
	Provider    string        `koanf:"provider"`
	Model       string        `koanf:"model"`
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Project     string        `koanf:"project"`
	Location    string        `koanf:"location"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	RateLimit   float64       `koanf:"rate_limit"`
	Burst       int           `koanf:"burst"`
	Timeout     time.Duration `koanf:"timeout"`
}

type EmailConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	AppURL   string `koanf:"app_url"`
	// AdminEmail receives new-user notifications.
	AdminEmail string `koanf:"admin_email"`
}

type JobsConfig struct {
	Buffer     int `koanf:"buffer"`
	Workers    int `koanf:"workers"`
	MaxRetries int `koanf:"max_retries"`
}

type ExportConfig struct {
	Bucket    string        `koanf:"bucket"`
	URLExpiry time.Duration `koanf:"url_expiry"`
}

type NotionConfig struct {
	Token      string `koanf:"token"`
	DatabaseID string `koanf:"database_id"`
}

type AssistantConfig struct {
	HistoryLimit int           `koanf:"history_limit"`
	DedupWindow  time.Duration `koanf:"dedup_window"`
}

// Defaults returns the configuration used when nothing overrides a field.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigin:   "*",
		},
		Log:   LogConfig{Level: "info", Format: "console"},
		Store: StoreConfig{Driver: DriverMemory, Dataset: "finance"},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Location:    "us-central1",
			Temperature: 0.7,
			MaxTokens:   800,
			RateLimit:   5,
			Burst:       10,
			Timeout:     30 * time.Second,
		},
		Email: EmailConfig{
			Driver: EmailLog,
			Port:   587,
			From:   "Finanças em Família <noreply@financas.app>",
			AppURL: "http://localhost:3000",
		},
		Jobs:      JobsConfig{Buffer: 100, Workers: 5, MaxRetries: 3},
		Export:    ExportConfig{URLExpiry: 15 * time.Minute},
		Assistant: AssistantConfig{HistoryLimit: 8, DedupWindow: 5 * time.Minute},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.WriteTimeout < 60*time.Second {
		errs = append(errs, fmt.Errorf("server.write_timeout must be at least 60s, got %s", c.Server.WriteTimeout))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverBigQuery:
		if c.Store.Project == "" {
			errs = append(errs, errors.New("store.project is required for the bigquery driver"))
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of memory, bigquery, postgres", c.Store.Driver))
	}

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of openai, gemini", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm.max_tokens must be positive"))
	}

	switch c.Email.Driver {
	case EmailLog:
	case EmailSMTP:
		if c.Email.Host == "" {
			errs = append(errs, errors.New("email.host is required for the smtp driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("email.driver %q is not one of log, smtp", c.Email.Driver))
	}

	if c.Jobs.Workers <= 0 {
		errs = append(errs, errors.New("jobs.workers must be positive"))
	}
	if c.Assistant.HistoryLimit < 0 {
		errs = append(errs, errors.New("assistant.history_limit must not be negative"))
	}
	if c.Assistant.DedupWindow <= 0 {
		errs = append(errs, errors.New("assistant.dedup_window must be positive"))
	}

	return errors.Join(errs...)
}
