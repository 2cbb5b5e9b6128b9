package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Log       LogConfig
	Browser   BrowserConfig
	Auth      AuthConfig
	LLM       LLMConfig
	Runner    RunnerConfig
	RateLimit RateLimitConfig

	// APIKey protects /api/v1 with a bearer token. Empty disables the check.
	APIKey string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver       string // "mysql" or "sqlite"
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
}

// StorageConfig holds screenshot storage configuration.
type StorageConfig struct {
	Type            string // "local" or "s3"
	BaseDir         string
	S3Bucket        string
	S3Region        string
	S3Prefix        string
	S3PresignExpiry time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// BrowserConfig holds browser session configuration.
type BrowserConfig struct {
	DevToolsURL       string
	ChromePath        string
	WindowWidth       int
	WindowHeight      int
	StartupTimeout    time.Duration
	NavigationTimeout time.Duration
	StepTimeout       time.Duration
	ScreenshotTimeout time.Duration
}

// AuthConfig holds manual login configuration.
type AuthConfig struct {
	DefaultTimeout  time.Duration
	MaxTimeout      time.Duration
	TokenSecret     string
	TokenTTL        time.Duration
	CleanupInterval time.Duration
}

// LLMConfig holds text completion configuration.
type LLMConfig struct {
	Enabled        bool
	Region         string
	Model          string
	MaxTokens      int
	Temperature    float64
	MaxInputLength int
}

// RunnerConfig holds run execution configuration.
type RunnerConfig struct {
	MaxConcurrent int
	Workers       int
	RunTimeout    time.Duration
}

// RateLimitConfig bounds run creation requests.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	// Synchronous runs hold the response open for the whole pipeline.
	v.SetDefault("server.write_timeout", "35m")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "validation_agent")
	v.SetDefault("database.path", "validation-agent.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "./screenshots")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_prefix", "")
	v.SetDefault("storage.s3_presign_expiry", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("browser.devtools_url", "")
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.window_width", 1366)
	v.SetDefault("browser.window_height", 900)
	v.SetDefault("browser.startup_timeout", "20s")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.step_timeout", "10s")
	v.SetDefault("browser.screenshot_timeout", "15s")

	v.SetDefault("auth.default_timeout", "300s")
	v.SetDefault("auth.max_timeout", "900s")
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_ttl", "30m")
	v.SetDefault("auth.cleanup_interval", "1m")

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.region", "us-east-1")
	v.SetDefault("llm.model", "anthropic.claude-3-5-sonnet-20240620-v1:0")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_input_length", 4000)

	v.SetDefault("runner.max_concurrent", 2)
	v.SetDefault("runner.workers", 2)
	v.SetDefault("runner.run_timeout", "30m")

	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("api_key", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.WriteTimeout = v.GetDuration("server.write_timeout")

	config.Database.Driver = v.GetString("database.driver")
	config.Database.Host = v.GetString("database.host")
	config.Database.Port = v.GetInt("database.port")
	config.Database.User = v.GetString("database.user")
	config.Database.Password = v.GetString("database.password")
	config.Database.Database = v.GetString("database.database")
	config.Database.Path = v.GetString("database.path")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")

	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")
	config.Storage.S3Prefix = v.GetString("storage.s3_prefix")
	config.Storage.S3PresignExpiry = v.GetDuration("storage.s3_presign_expiry")

	config.Log.Level = v.GetString("log.level")
	config.Log.Format = v.GetString("log.format")
	config.Log.File = v.GetString("log.file")
	config.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	config.Log.MaxBackups = v.GetInt("log.max_backups")
	config.Log.MaxAgeDays = v.GetInt("log.max_age_days")

	config.Browser.DevToolsURL = v.GetString("browser.devtools_url")
	config.Browser.ChromePath = v.GetString("browser.chrome_path")
	config.Browser.WindowWidth = v.GetInt("browser.window_width")
	config.Browser.WindowHeight = v.GetInt("browser.window_height")
	config.Browser.StartupTimeout = v.GetDuration("browser.startup_timeout")
	config.Browser.NavigationTimeout = v.GetDuration("browser.navigation_timeout")
	config.Browser.StepTimeout = v.GetDuration("browser.step_timeout")
	config.Browser.ScreenshotTimeout = v.GetDuration("browser.screenshot_timeout")

	config.Auth.DefaultTimeout = v.GetDuration("auth.default_timeout")
	config.Auth.MaxTimeout = v.GetDuration("auth.max_timeout")
	config.Auth.TokenSecret = v.GetString("auth.token_secret")
	config.Auth.TokenTTL = v.GetDuration("auth.token_ttl")
	config.Auth.CleanupInterval = v.GetDuration("auth.cleanup_interval")

	config.LLM.Enabled = v.GetBool("llm.enabled")
	config.LLM.Region = v.GetString("llm.region")
	config.LLM.Model = v.GetString("llm.model")
	config.LLM.MaxTokens = v.GetInt("llm.max_tokens")
	config.LLM.Temperature = v.GetFloat64("llm.temperature")
	config.LLM.MaxInputLength = v.GetInt("llm.max_input_length")

	config.Runner.MaxConcurrent = v.GetInt("runner.max_concurrent")
	config.Runner.Workers = v.GetInt("runner.workers")
	config.Runner.RunTimeout = v.GetDuration("runner.run_timeout")

	config.RateLimit.RPS = v.GetFloat64("ratelimit.rps")
	config.RateLimit.Burst = v.GetInt("ratelimit.burst")

	config.APIKey = v.GetString("api_key")

	if config.Auth.DefaultTimeout > config.Auth.MaxTimeout {
		return nil, fmt.Errorf("auth.default_timeout (%s) exceeds auth.max_timeout (%s)", config.Auth.DefaultTimeout, config.Auth.MaxTimeout)
	}

	return &config, nil
}
