package config

// Backend types
const (
	BackendOpenAI    = "openai"
	BackendLangChain = "langchain"
)

// Default configuration values
const (
	DefaultConfigPath  = "config.yaml"
	DefaultEnvFile     = ".env"
	DefaultEndpoint    = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o"
	DefaultMaxBodySize = 1 << 20 // 1MB
)

// Storage drivers
const (
	StorageDriverSQLite = "sqlite"
)

// Environment variables for secrets and critical items
const (
	EnvAPIKey            = "LLM_API_KEY"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvModel             = "LLM_MODEL"
	EnvEndpoint          = "LLM_ENDPOINT"
	EnvOpenAIBaseURL     = "OPENAI_BASE_URL"
	EnvBackend           = "LLM_BACKEND"
	EnvTimeoutMs         = "LLM_TIMEOUT_MS"
	EnvMaxRetries        = "LLM_MAX_RETRIES"
	EnvMaxConcurrency    = "LLM_MAX_CONCURRENCY"
	EnvAuthHeader        = "LLM_AUTH_HEADER"
	EnvConfigPath        = "CONFIG_PATH"
	EnvEnvFile           = "ENV_FILE"
	EnvStorageDriver     = "STORAGE_DRIVER"
	EnvStorageDSN        = "STORAGE_DSN"
	EnvPort              = "PORT"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogFormat         = "LOG_FORMAT"
	EnvLogOutput         = "LOG_OUTPUT"
	EnvLogMaxSize        = "LOG_MAX_SIZE"
	EnvLogMaxBackups     = "LOG_MAX_BACKUPS"
	EnvLogMaxAge         = "LOG_MAX_AGE"
	EnvServerConcurrency = "CONCURRENCY_LIMIT"
)
