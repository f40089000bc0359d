package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported record store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

var (
	// ErrMissingTokenSecrets is returned when either signing secret is unset.
	ErrMissingTokenSecrets = errors.New("JWT_SECRET and JWT_REFRESH_SECRET must both be set")
	// ErrSharedTokenSecret is returned when access and refresh tokens would share a signing secret.
	ErrSharedTokenSecret = errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	// ErrUnknownStoreDriver is returned for an unsupported STORE_DRIVER value.
	ErrUnknownStoreDriver = errors.New("STORE_DRIVER must be postgres or mongo")
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	StoreDriver string
	Database    DatabaseConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Cache       CacheConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Notifier    NotifierConfig
	Realtime    RealtimeConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// MongoConfig points at the document store used when StoreDriver is mongo.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the Redis-backed profile cache.
type CacheConfig struct {
	Enabled    bool
	ProfileTTL time.Duration
}

// JWTConfig holds the two signing secrets. They are validated to be distinct at load time.
type JWTConfig struct {
	Secret        string
	RefreshSecret string
	Issuer        string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// NotifierConfig sizes the queue that fans domain events out to live connections.
type NotifierConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

// RealtimeConfig tunes websocket connections.
type RealtimeConfig struct {
	SendBuffer     int
	MaxMessageSize int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER")))

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Mongo = MongoConfig{
		URI:            v.GetString("MONGO_URI"),
		Database:       v.GetString("MONGO_DATABASE"),
		ConnectTimeout: parseDuration(v.GetString("MONGO_CONNECT_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("CACHE_ENABLED"),
		ProfileTTL: parseDuration(v.GetString("PROFILE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:        v.GetString("JWT_SECRET"),
		RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		Issuer:        v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Notifier = NotifierConfig{
		Workers:    v.GetInt("NOTIFIER_WORKERS"),
		BufferSize: v.GetInt("NOTIFIER_BUFFER"),
		MaxRetries: v.GetInt("NOTIFIER_MAX_RETRIES"),
	}

	cfg.Realtime = RealtimeConfig{
		SendBuffer:     v.GetInt("WS_SEND_BUFFER"),
		MaxMessageSize: v.GetInt64("WS_MAX_MESSAGE_SIZE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.RefreshSecret == "" {
		return ErrMissingTokenSecrets
	}
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return ErrSharedTokenSecret
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo:
	default:
		return ErrUnknownStoreDriver
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "life_ease")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/life_ease")
	v.SetDefault("MONGO_DATABASE", "")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("PROFILE_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_REFRESH_SECRET", "")
	v.SetDefault("JWT_ISSUER", "life-ease-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("NOTIFIER_WORKERS", 2)
	v.SetDefault("NOTIFIER_BUFFER", 256)
	v.SetDefault("NOTIFIER_MAX_RETRIES", 1)

	v.SetDefault("WS_SEND_BUFFER", 256)
	v.SetDefault("WS_MAX_MESSAGE_SIZE", 64*1024)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
