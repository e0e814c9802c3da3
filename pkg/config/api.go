package config

// APIConfig holds runtime configuration for the account API.
type APIConfig struct {
	Environment        string
	Addr               string
	StateStorePort     int
	StateStoreName     string
	StorageBackend     string
	LogLevel           string
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":4000"),
		StateStorePort:     GetInt("STATE_STORE_PORT", 3500),
		StateStoreName:     GetString("STATE_STORE_NAME", "account-db"),
		StorageBackend:     GetString("ACCOUNT_STORAGE", "statestore"),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
