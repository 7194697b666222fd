package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"llm-chat-client/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLMConfig holds everything a chat client needs to reach the provider.
// It is built once at startup and never mutated afterwards.
type LLMConfig struct {
	Backend        string        `yaml:"backend" validate:"required,oneof=openai langchain"`
	Model          string        `yaml:"model" validate:"required"`
	Endpoint       string        `yaml:"endpoint" validate:"omitempty,http_url"`
	APIKey         string        `yaml:"api_key" validate:"required,credential"`                     // From YAML or Env
	AuthHeader     string        `yaml:"auth_header" validate:"omitempty,printascii,excludesall= :"` // e.g. "api-key"; default is Bearer
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxRetries     int           `yaml:"max_retries" validate:"gte=0,lte=10"`
	MaxConcurrency int           `yaml:"max_concurrency" validate:"gte=0"` // 0 means unlimited
}

// StorageConfig holds configuration for exchange history
type StorageConfig struct {
	Driver  string        `yaml:"driver" validate:"omitempty,oneof=sqlite"` // empty disables history
	DSN     string        `yaml:"dsn" validate:"required_with=Driver"`
	Timeout time.Duration `yaml:"timeout"` // Timeout for storage operations (default: 5s)
}

// ServerConfig holds configuration for the HTTP API
type ServerConfig struct {
	Port             int           `yaml:"port" validate:"min=1,max=65535"`
	ConcurrencyLimit int           `yaml:"concurrency_limit" validate:"gte=0"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	MaxBodySize      int64         `yaml:"max_body_size" validate:"gt=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level    string `yaml:"level"`  // DEBUG, INFO, WARN, ERROR
	Format   string `yaml:"format"` // text, json
	Output   string `yaml:"output"` // stdout, stderr, /path/to/file
	Rotation struct {
		MaxSize    int  `yaml:"max_size"`    // Megabytes
		MaxBackups int  `yaml:"max_backups"` // Number of old files to keep
		MaxAge     int  `yaml:"max_age"`     // Days to keep
		Compress   bool `yaml:"compress"`
	} `yaml:"rotation"`
}

// Config holds the configuration for the chat client and its surfaces
type Config struct {
	Log     LogConfig     `yaml:"log"`
	LLM     LLMConfig     `yaml:"llm"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

// GetLogLevel returns the slog.Level based on Log.Level string
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns a configuration with defaults applied and no secrets.
func Default() *Config {
	cfg := &Config{}

	cfg.Log.Level = "INFO"
	cfg.Log.Format = "text"
	cfg.Log.Output = "stderr"
	cfg.Log.Rotation.MaxSize = 100
	cfg.Log.Rotation.MaxBackups = 10
	cfg.Log.Rotation.MaxAge = 7
	cfg.Log.Rotation.Compress = true

	cfg.LLM.Backend = BackendOpenAI
	cfg.LLM.Model = DefaultModel
	cfg.LLM.Endpoint = DefaultEndpoint
	cfg.LLM.Timeout = 120 * time.Second

	cfg.Server.Port = 8080
	cfg.Server.ConcurrencyLimit = 10
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 130 * time.Second
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Server.MaxBodySize = DefaultMaxBodySize

	cfg.Storage.DSN = "chat_history.db"
	cfg.Storage.Timeout = 5 * time.Second

	return cfg
}

// LoadConfig loads configuration from the YAML file and supplements it with
// the .env file and environment variables. A missing file is not an error;
// an unreadable or malformed one is a ConfigurationError.
func LoadConfig() (*Config, error) {
	cfg := Default()

	// .env never overrides variables already present in the environment
	envFile := getEnv(EnvEnvFile, DefaultEnvFile)
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &types.ConfigurationError{Field: EnvEnvFile, Message: "load env file " + envFile, Err: err}
		}
	} else {
		slog.Debug("env file loaded", "path", envFile)
	}

	configPath := getEnv(EnvConfigPath, DefaultConfigPath)
	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &types.ConfigurationError{Field: EnvConfigPath, Message: "unmarshal " + configPath, Err: err}
		}
		slog.Debug("config loaded", "path", configPath)
	} else {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &types.ConfigurationError{Field: EnvConfigPath, Message: "read " + configPath, Err: err}
		}
		slog.Debug("config not found, using defaults", "path", configPath)
	}

	// Always supplement/override with environment variables for secrets and critical items
	cfg.LLM.APIKey = firstEnv([]string{EnvAPIKey, EnvOpenAIAPIKey}, cfg.LLM.APIKey)
	cfg.LLM.Endpoint = firstEnv([]string{EnvEndpoint, EnvOpenAIBaseURL}, cfg.LLM.Endpoint)
	cfg.LLM.Model = getEnv(EnvModel, cfg.LLM.Model)
	cfg.LLM.Backend = getEnv(EnvBackend, cfg.LLM.Backend)
	cfg.LLM.AuthHeader = getEnv(EnvAuthHeader, cfg.LLM.AuthHeader)
	var ints envInts
	if ms := ints.get(EnvTimeoutMs, 0); ms > 0 {
		cfg.LLM.Timeout = time.Duration(ms) * time.Millisecond
	}
	cfg.LLM.MaxRetries = ints.get(EnvMaxRetries, cfg.LLM.MaxRetries)
	cfg.LLM.MaxConcurrency = ints.get(EnvMaxConcurrency, cfg.LLM.MaxConcurrency)

	cfg.Storage.Driver = getEnv(EnvStorageDriver, cfg.Storage.Driver)
	cfg.Storage.DSN = getEnv(EnvStorageDSN, cfg.Storage.DSN)

	if envPort := ints.get(EnvPort, 0); envPort != 0 {
		cfg.Server.Port = envPort
	}
	cfg.Server.ConcurrencyLimit = ints.get(EnvServerConcurrency, cfg.Server.ConcurrencyLimit)

	if envLogLevel := os.Getenv(EnvLogLevel); envLogLevel != "" {
		cfg.Log.Level = envLogLevel
	}
	if envLogFormat := os.Getenv(EnvLogFormat); envLogFormat != "" {
		cfg.Log.Format = envLogFormat
	}
	if envLogOutput := os.Getenv(EnvLogOutput); envLogOutput != "" {
		cfg.Log.Output = envLogOutput
	}
	if envLogMaxSize := ints.get(EnvLogMaxSize, 0); envLogMaxSize != 0 {
		cfg.Log.Rotation.MaxSize = envLogMaxSize
	}
	if envLogMaxBackups := ints.get(EnvLogMaxBackups, 0); envLogMaxBackups != 0 {
		cfg.Log.Rotation.MaxBackups = envLogMaxBackups
	}
	if envLogMaxAge := ints.get(EnvLogMaxAge, 0); envLogMaxAge != 0 {
		cfg.Log.Rotation.MaxAge = envLogMaxAge
	}

	if ints.err != nil {
		return nil, ints.err
	}

	return cfg, nil
}

// Validate validates the whole configuration.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := validateStruct(c.Server, "server"); err != nil {
		return err
	}
	return validateStruct(c.Storage, "storage")
}

// Validate checks the client settings. It is called before every call, so
// a client built from a broken configuration fails without touching the network.
func (c LLMConfig) Validate() error {
	return validateStruct(c, "llm")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report yaml names so errors match the config file
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
		_ = validate.RegisterValidation("credential", validCredential)
	})
	return validate
}

// validCredential rejects secrets that would corrupt an HTTP header.
func validCredential(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func validateStruct(s any, section string) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return &types.ConfigurationError{Field: section, Message: "validation failed", Err: err}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fieldName(section, e)+" "+formatValidationError(e))
	}

	first := validationErrors[0]
	return &types.ConfigurationError{
		Field:   fieldName(section, first),
		Message: strings.Join(messages, "; "),
		Err:     err,
	}
}

func fieldName(section string, e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return section + "." + ns
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_with":
		return "is required"
	case "credential":
		return "is malformed"
	case "oneof":
		return "must be one of: " + e.Param()
	case "http_url":
		return "must be an http(s) URL"
	case "min", "gte", "gt":
		return "must be at least " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	default:
		return fmt.Sprintf("failed %q validation", e.Tag())
	}
}

// Helper functions for reading environment variables

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func firstEnv(keys []string, fallback string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return fallback
}

// envInts reads integer variables and keeps the first malformed one
type envInts struct {
	err error
}

func (e *envInts) get(key string, fallback int) int {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		if e.err == nil {
			e.err = &types.ConfigurationError{Field: key, Message: fmt.Sprintf("must be an integer, got %q", valueStr), Err: err}
		}
		return fallback
	}
	return value
}
