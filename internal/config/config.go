package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"zhypo/internal/errors"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Chart     ChartConfig     `yaml:"chart"`
	Upload    UploadConfig    `yaml:"upload"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Profiling ProfilingConfig `yaml:"profiling"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string        `yaml:"port"`
	GinMode         string        `yaml:"gin_mode"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps"` // per client IP, 0 disables
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
}

// EngineConfig holds z-test engine settings
type EngineConfig struct {
	StrictAlternative bool `yaml:"strict_alternative"`
}

// ChartConfig holds rejection-region chart settings
type ChartConfig struct {
	Enabled      bool    `yaml:"enabled"`
	WidthInches  float64 `yaml:"width_inches"`
	HeightInches float64 `yaml:"height_inches"`
	Samples      int     `yaml:"samples"`
}

// UploadConfig holds observation upload settings
type UploadConfig struct {
	MaxBytes int64  `yaml:"max_bytes"`
	MaxRows  int    `yaml:"max_rows"`
	Sheet    string `yaml:"sheet"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string `yaml:"port"`
	Enabled bool   `yaml:"enabled"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "5000",
			GinMode:         "release",
			AllowedOrigins:  []string{"*"},
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
		},
		Chart: ChartConfig{
			Enabled:      true,
			WidthInches:  6.4,
			HeightInches: 4.8,
			Samples:      1000,
		},
		Upload: UploadConfig{
			MaxBytes: 10 << 20,
			MaxRows:  1_000_000,
			Sheet:    "Sheet1",
		},
		Log: LogConfig{Level: "INFO"},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "zhypo",
		},
		Profiling: ProfilingConfig{
			Port:    "6060",
			Enabled: false,
		},
	}
}

// Load reads configuration from an optional YAML file named by
// ZTEST_CONFIG_FILE, then applies environment overrides and validates it
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv("ZTEST_CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadFile(path string, config *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return errors.ConfigInvalid("invalid YAML in " + path + ": " + err.Error())
	}
	return nil
}

func applyEnv(config *Config) {
	config.Server.Port = getEnvOrDefault("PORT", config.Server.Port)
	config.Server.GinMode = getEnvOrDefault("GIN_MODE", config.Server.GinMode)
	config.Server.AllowedOrigins = getEnvListOrDefault("CORS_ALLOWED_ORIGINS", config.Server.AllowedOrigins)
	config.Server.RequestTimeout = getEnvDurationOrDefault("REQUEST_TIMEOUT", config.Server.RequestTimeout)
	config.Server.ShutdownTimeout = getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", config.Server.ShutdownTimeout)
	config.Server.RateLimitRPS = getEnvFloatOrDefault("RATE_LIMIT_RPS", config.Server.RateLimitRPS)
	config.Server.RateLimitBurst = getEnvIntOrDefault("RATE_LIMIT_BURST", config.Server.RateLimitBurst)

	config.Engine.StrictAlternative = getEnvBoolOrDefault("ZTEST_STRICT_ALTERNATIVE", config.Engine.StrictAlternative)

	config.Chart.Enabled = getEnvBoolOrDefault("CHART_ENABLED", config.Chart.Enabled)
	config.Chart.WidthInches = getEnvFloatOrDefault("CHART_WIDTH_INCHES", config.Chart.WidthInches)
	config.Chart.HeightInches = getEnvFloatOrDefault("CHART_HEIGHT_INCHES", config.Chart.HeightInches)
	config.Chart.Samples = getEnvIntOrDefault("CHART_SAMPLES", config.Chart.Samples)

	config.Upload.MaxBytes = int64(getEnvIntOrDefault("UPLOAD_MAX_BYTES", int(config.Upload.MaxBytes)))
	config.Upload.MaxRows = getEnvIntOrDefault("UPLOAD_MAX_ROWS", config.Upload.MaxRows)
	config.Upload.Sheet = getEnvOrDefault("UPLOAD_SHEET", config.Upload.Sheet)

	config.Log.Level = getEnvOrDefault("LOG_LEVEL", config.Log.Level)

	config.Metrics.Enabled = getEnvBoolOrDefault("METRICS_ENABLED", config.Metrics.Enabled)
	config.Metrics.Namespace = getEnvOrDefault("METRICS_NAMESPACE", config.Metrics.Namespace)

	config.Profiling.Port = getEnvOrDefault("PPROF_PORT", config.Profiling.Port)
	config.Profiling.Enabled = getEnvBoolOrDefault("PPROF_ENABLED", config.Profiling.Enabled)
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if config.Server.RequestTimeout <= 0 {
		return errors.ConfigInvalid("request timeout must be positive")
	}
	if config.Server.RateLimitRPS < 0 || (config.Server.RateLimitRPS > 0 && config.Server.RateLimitBurst < 1) {
		return errors.ConfigInvalid("rate limit must be >= 0 with a burst of at least 1")
	}
	if config.Chart.WidthInches <= 0 || config.Chart.HeightInches <= 0 {
		return errors.ConfigInvalid("chart dimensions must be positive")
	}
	if config.Chart.Samples < 2 {
		return errors.ConfigInvalid("chart samples must be at least 2")
	}
	if config.Upload.MaxBytes <= 0 || config.Upload.MaxRows <= 0 {
		return errors.ConfigInvalid("upload limits must be positive")
	}
	if config.Metrics.Enabled && config.Metrics.Namespace == "" {
		return errors.ConfigInvalid("metrics namespace is required when metrics are enabled")
	}
	if config.Profiling.Enabled && config.Profiling.Port == "" {
		return errors.ConfigInvalid("profiling port is required when profiling is enabled")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
