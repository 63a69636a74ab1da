package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"

	TokenFormatJWT    = "jwt"
	TokenFormatPaseto = "paseto"

	PasswordHashBcrypt   = "bcrypt"
	PasswordHashArgon2id = "argon2id"

	minJWTSecretLen = 32
	pasetoKeyLen    = 32
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	LogLevel        string // overrides the env default when set
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string
}

type DatabaseConfig struct {
	Backend        string // postgres or memory
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
	MaxOpenConns   int
	MaxIdleConns   int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	TokenFormat         string
	JWTSecret           []byte
	JWTIssuer           string
	PasetoKey           []byte // must be 32 bytes for v4.local
	AccessTokenDuration time.Duration
	PasswordHash        string
	BcryptCost          int
}

type RateLimitConfig struct {
	Requests     int
	Window       time.Duration
	AuthRequests int
	AuthWindow   time.Duration
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "4040"),
			Env:             getEnv("APP_ENV", "dev"),
			LogLevel:        getEnv("LOG_LEVEL", ""),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Backend:        strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendPostgres)),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "money_tracker"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenFormat:         strings.ToLower(getEnv("AUTH_TOKEN_FORMAT", TokenFormatJWT)),
			JWTSecret:           []byte(getEnv("JWT_SECRET", "")),
			JWTIssuer:           getEnv("JWT_ISSUER", "mybucks-api"),
			PasetoKey:           []byte(getEnv("PASETO_KEY", "")),
			AccessTokenDuration: getDurationEnv("ACCESS_TOKEN_DURATION", time.Hour),
			PasswordHash:        strings.ToLower(getEnv("PASSWORD_HASH_ALGORITHM", PasswordHashBcrypt)),
			BcryptCost:          getIntEnv("BCRYPT_COST", 10),
		},
		RateLimit: RateLimitConfig{
			Requests:     getIntEnv("RATE_LIMIT_REQUESTS", 100),
			Window:       getDurationEnv("RATE_LIMIT_WINDOW", 15*time.Minute),
			AuthRequests: getIntEnv("RATE_LIMIT_AUTH_REQUESTS", 20),
			AuthWindow:   getDurationEnv("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Backend {
	case StorageBackendPostgres, StorageBackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageBackendPostgres, StorageBackendMemory, c.Database.Backend)
	}

	// The signing secret is process-wide; without it nothing can be authenticated.
	switch c.Auth.TokenFormat {
	case TokenFormatJWT:
		if len(c.Auth.JWTSecret) < minJWTSecretLen {
			return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minJWTSecretLen, len(c.Auth.JWTSecret))
		}
	case TokenFormatPaseto:
		if len(c.Auth.PasetoKey) != pasetoKeyLen {
			return fmt.Errorf("PASETO_KEY must be exactly %d bytes, got %d", pasetoKeyLen, len(c.Auth.PasetoKey))
		}
	default:
		return fmt.Errorf("AUTH_TOKEN_FORMAT must be %q or %q, got %q", TokenFormatJWT, TokenFormatPaseto, c.Auth.TokenFormat)
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_DURATION must be positive")
	}

	switch c.Auth.PasswordHash {
	case PasswordHashBcrypt, PasswordHashArgon2id:
	default:
		return fmt.Errorf("PASSWORD_HASH_ALGORITHM must be %q or %q, got %q", PasswordHashBcrypt, PasswordHashArgon2id, c.Auth.PasswordHash)
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

// getDurationEnv accepts either a Go duration ("90s", "1h") or a plain number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
