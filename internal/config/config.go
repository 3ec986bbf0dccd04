// backend-go/internal/config/config.go
package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers understood by STORE_DRIVER.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Server        ServerConfig
	Store         StoreConfig
	Mongo         MongoConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Forecast      ForecastConfig
	Summarizer    SummarizerConfig
	ObjectStorage ObjectStorageConfig
	LogLevel      string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type StoreConfig struct {
	Driver string
}

type MongoConfig struct {
	URI                   string
	Database              string
	Collection            string
	ConnectTimeoutSeconds int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
	// MaxConcurrentTx bounds transactions in flight on one pool.
	MaxConcurrentTx int
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
	ForecastTTLSeconds  int
}

type ForecastConfig struct {
	Horizon       int
	HistoryMonths int
	HistoryStart  string
	Seed          int64
}

type SummarizerConfig struct {
	Enabled         bool
	Endpoint        string
	APIKey          string
	TimeoutSeconds  int
	BreakerFailures int
}

type ObjectStorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the environment once per process.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		v.AutomaticEnv()
		instance = FromViper(v)
	})

	return instance
}

// FromViper builds a Config from v after applying defaults.
func FromViper(v *viper.Viper) *Config {
	setDefaults(v)

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		},
		Mongo: MongoConfig{
			URI:                   v.GetString("MONGO_URI"),
			Database:              v.GetString("MONGO_DATABASE"),
			Collection:            v.GetString("MONGO_COLLECTION"),
			ConnectTimeoutSeconds: v.GetInt("MONGO_CONNECT_TIMEOUT_SECONDS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),

			MaxOpenConns:           v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:           v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetimeMinutes: v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES"),
			MaxConcurrentTx:        v.GetInt("DB_MAX_CONCURRENT_TX"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			DashboardTTLSeconds: v.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
			ForecastTTLSeconds:  v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Forecast: ForecastConfig{
			Horizon:       v.GetInt("FORECAST_HORIZON"),
			HistoryMonths: v.GetInt("FORECAST_HISTORY_MONTHS"),
			HistoryStart:  v.GetString("FORECAST_HISTORY_START"),
			Seed:          v.GetInt64("FORECAST_SEED"),
		},
		Summarizer: SummarizerConfig{
			Enabled:         v.GetBool("SUMMARIZER_ENABLED"),
			Endpoint:        v.GetString("SUMMARIZER_ENDPOINT"),
			APIKey:          v.GetString("SUMMARIZER_API_KEY"),
			TimeoutSeconds:  v.GetInt("SUMMARIZER_TIMEOUT_SECONDS"),
			BreakerFailures: v.GetInt("SUMMARIZER_BREAKER_FAILURES"),
		},
		ObjectStorage: ObjectStorageConfig{
			Endpoint:  v.GetString("OBJECT_STORAGE_ENDPOINT"),
			AccessKey: v.GetString("OBJECT_STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("OBJECT_STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("OBJECT_STORAGE_BUCKET"),
			Region:    v.GetString("OBJECT_STORAGE_REGION"),
			UseSSL:    v.GetBool("OBJECT_STORAGE_USE_SSL"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/")
	v.SetDefault("MONGO_DATABASE", "inventoryDB")
	v.SetDefault("MONGO_COLLECTION", "inventory")
	v.SetDefault("MONGO_CONNECT_TIMEOUT_SECONDS", 10)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)
	v.SetDefault("DB_MAX_CONCURRENT_TX", 10)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 3600)
	v.SetDefault("FORECAST_HORIZON", 6)
	v.SetDefault("FORECAST_HISTORY_MONTHS", 12)
	v.SetDefault("FORECAST_HISTORY_START", "2023-01-01")
	v.SetDefault("FORECAST_SEED", 0)
	v.SetDefault("SUMMARIZER_ENABLED", true)
	v.SetDefault("SUMMARIZER_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash-latest:generateContent")
	v.SetDefault("SUMMARIZER_API_KEY", "")
	v.SetDefault("SUMMARIZER_TIMEOUT_SECONDS", 20)
	v.SetDefault("SUMMARIZER_BREAKER_FAILURES", 5)
	v.SetDefault("OBJECT_STORAGE_REGION", "us-east-1")
	v.SetDefault("OBJECT_STORAGE_USE_SSL", true)
	v.SetDefault("LOG_LEVEL", "info")
}
