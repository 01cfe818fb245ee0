package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type (
	// Config holds configuration settings for the remediation service
	Config struct {
		// API Server
		APIHost   string
		APIPort   int
		LogLevel  string
		LogFormat string

		// Step Execution
		Executor ExecutorConfig
		Notify   NotifyConfig

		// Engine
		StepTimeout      time.Duration
		AutoAdvanceDelay time.Duration
		ShutdownTimeout  time.Duration
	}

	// ExecutorConfig selects and tunes the StepExecutor the service uses
	ExecutorConfig struct {
		Mode        string
		BaseURL     string
		SuccessRate int
		Delay       time.Duration
	}

	// NotifyConfig locates the Redis instance that receives completion
	// signals. An empty Addr disables notification
	NotifyConfig struct {
		Addr     string
		Password string
		Channel  string
		DB       int
	}
)

const (
	ExecutorModeHTTP      = "http"
	ExecutorModeSimulated = "simulated"

	LogFormatJSON = "json"
	LogFormatText = "text"
)

const (
	DefaultStepTimeout      = 30 * time.Second
	DefaultAutoAdvanceDelay = time.Second
	DefaultShutdownTimeout  = 10 * time.Second

	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultExecutorBaseURL = "http://localhost:8081"
	DefaultSuccessRate     = 80
	DefaultSimulatedDelay  = 1500 * time.Millisecond
	MaxSuccessRate         = 100

	DefaultNotifyChannel = "remedy:workflow:completed"
	DefaultRedisDB       = 0

	MaxStepTimeout      = 24 * time.Hour
	MaxAutoAdvanceDelay = time.Minute
	MaxShutdownTimeout  = 10 * time.Minute
)

var (
	ErrInvalidAPIPort          = errors.New("invalid API port")
	ErrInvalidStepTimeout      = errors.New("step timeout must be positive")
	ErrInvalidAutoAdvanceDelay = errors.New(
		"auto advance delay cannot be negative",
	)
	ErrInvalidExecutorMode = errors.New("invalid executor mode")
	ErrExecutorURLRequired = errors.New(
		"executor base URL required for http mode",
	)
	ErrInvalidSuccessRate = errors.New(
		"simulated success rate must be between 0 and 100",
	)
	ErrInvalidSimulatedDelay = errors.New(
		"simulated delay cannot be negative",
	)
	ErrInvalidLogFormat     = errors.New("invalid log format")
	ErrNotifyChannelMissing = errors.New(
		"notify channel required when notify address is set",
	)
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// API server, the engine, and step execution
func NewDefaultConfig() *Config {
	return &Config{
		APIPort:   DefaultAPIPort,
		APIHost:   DefaultAPIHost,
		LogLevel:  "info",
		LogFormat: LogFormatJSON,
		Executor: ExecutorConfig{
			Mode:        ExecutorModeSimulated,
			BaseURL:     DefaultExecutorBaseURL,
			SuccessRate: DefaultSuccessRate,
			Delay:       DefaultSimulatedDelay,
		},
		Notify: NotifyConfig{
			Channel: DefaultNotifyChannel,
			DB:      DefaultRedisDB,
		},
		StepTimeout:      DefaultStepTimeout,
		AutoAdvanceDelay: DefaultAutoAdvanceDelay,
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	LoadNotifyConfigFromEnv(&c.Notify, "NOTIFY")

	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.LogFormat = logFormat
	}
	if mode := os.Getenv("EXECUTOR_MODE"); mode != "" {
		c.Executor.Mode = mode
	}
	if baseURL := os.Getenv("EXECUTOR_BASE_URL"); baseURL != "" {
		c.Executor.BaseURL = baseURL
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"SIMULATED_SUCCESS_RATE", &c.Executor.SuccessRate, -1, MaxSuccessRate,
	); err != nil {
		return err
	}

	if err := loadEnvMillis(
		"STEP_TIMEOUT", &c.StepTimeout, 0, MaxStepTimeout,
	); err != nil {
		return err
	}
	if err := loadEnvMillis(
		"AUTO_ADVANCE_DELAY", &c.AutoAdvanceDelay, -1, MaxAutoAdvanceDelay,
	); err != nil {
		return err
	}
	if err := loadEnvMillis(
		"SIMULATED_DELAY", &c.Executor.Delay, -1, MaxAutoAdvanceDelay,
	); err != nil {
		return err
	}
	return loadEnvMillis(
		"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout, 0, MaxShutdownTimeout,
	)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.StepTimeout <= 0 {
		return ErrInvalidStepTimeout
	}

	if c.AutoAdvanceDelay < 0 {
		return ErrInvalidAutoAdvanceDelay
	}

	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatText {
		return fmt.Errorf("%w: %s", ErrInvalidLogFormat, c.LogFormat)
	}

	if c.Notify.Addr != "" && c.Notify.Channel == "" {
		return ErrNotifyChannelMissing
	}

	return c.Executor.Validate()
}

// Validate checks the executor mode and its mode-specific settings
func (e *ExecutorConfig) Validate() error {
	switch e.Mode {
	case ExecutorModeHTTP:
		if e.BaseURL == "" {
			return ErrExecutorURLRequired
		}
	case ExecutorModeSimulated:
		if e.SuccessRate < 0 || e.SuccessRate > MaxSuccessRate {
			return fmt.Errorf("%w: %d", ErrInvalidSuccessRate, e.SuccessRate)
		}
		if e.Delay < 0 {
			return ErrInvalidSimulatedDelay
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidExecutorMode, e.Mode)
	}
	return nil
}

// LoadNotifyConfigFromEnv loads Redis notification settings from environment
// variables with the given prefix (e.g., "NOTIFY")
func LoadNotifyConfigFromEnv(n *NotifyConfig, prefix string) {
	if addr := os.Getenv(prefix + "_REDIS_ADDR"); addr != "" {
		n.Addr = addr
	}
	if password := os.Getenv(prefix + "_REDIS_PASSWORD"); password != "" {
		n.Password = password
	}
	if dbStr := os.Getenv(prefix + "_REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err == nil {
			n.DB = db
		}
	}
	if channel := os.Getenv(prefix + "_CHANNEL"); channel != "" {
		n.Channel = channel
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if the
// value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

// loadEnvMillis reads a millisecond count from the environment into a
// duration, bounded the same way as loadEnvInt
func loadEnvMillis(
	key string, dst *time.Duration, min, max time.Duration,
) error {
	ms := int64(*dst / time.Millisecond)
	minMs := int64(min / time.Millisecond)
	if min < 0 {
		minMs = -1
	}
	maxMs := int64(max / time.Millisecond)
	if err := loadEnvInt(key, &ms, minMs, maxMs); err != nil {
		return err
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}
