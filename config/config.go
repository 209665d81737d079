package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Elastic   ElasticsearchConfig
	Listing   ListingConfig
	Category  CategoryConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	GRPCPort        string
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	LifecycleTopic string
	IndexerGroupID string
}

type ElasticsearchConfig struct {
	Enabled   bool
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type ListingConfig struct {
	TTL             time.Duration
	DefaultPageSize int
	MaxPageSize     int
	ExpireBatchSize int
}

type CategoryConfig struct {
	TreeCacheTTL time.Duration
	CacheBackend string // memory or redis
}

type SchedulerConfig struct {
	Enabled            bool
	ExpirationInterval time.Duration
	LockEnabled        bool
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			HTTPPort:        getEnv("HTTP_PORT", ":8080"),
			GRPCPort:        getEnv("GRPC_PORT", ":8082"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "marketplace"),
			Password:        getEnv("POSTGRES_PASSWORD", "marketplace"),
			DBName:          getEnv("POSTGRES_DB", "marketplace_listing"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled:        getEnvBool("KAFKA_ENABLED", true),
			Brokers:        getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			LifecycleTopic: getEnv("KAFKA_TOPIC_LISTING_LIFECYCLE", "listing.lifecycle"),
			IndexerGroupID: getEnv("KAFKA_GROUP_LISTING_INDEXER", "listing-indexer"),
		},
		Elastic: ElasticsearchConfig{
			Enabled:   getEnvBool("ELASTICSEARCH_ENABLED", true),
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_INDEX_LISTINGS", "listings"),
		},
		Listing: ListingConfig{
			TTL:             getEnvDuration("LISTING_TTL", 720*time.Hour),
			DefaultPageSize: getEnvInt("LISTING_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:     getEnvInt("LISTING_MAX_PAGE_SIZE", 100),
			ExpireBatchSize: getEnvInt("LISTING_EXPIRE_BATCH_SIZE", 500),
		},
		Category: CategoryConfig{
			TreeCacheTTL: getEnvDuration("CATEGORY_TREE_CACHE_TTL", 12*time.Hour),
			CacheBackend: strings.ToLower(getEnv("CATEGORY_CACHE_BACKEND", "redis")),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getEnvBool("SCHEDULER_ENABLED", true),
			ExpirationInterval: getEnvDuration("SCHEDULER_EXPIRATION_INTERVAL", time.Hour),
			LockEnabled:        getEnvBool("SCHEDULER_LOCK_ENABLED", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}

// getEnvDuration accepts Go duration strings such as "720h" or "90s".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
