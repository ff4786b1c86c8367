package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Core service kinds selectable through SERVICE_KIND.
const (
	KindProduct        = "product"
	KindRecommendation = "recommendation"
	KindReview         = "review"
)

// Event channel drivers selectable through MESSAGING_DRIVER.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	DeadLetter  DeadLetterConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Integration IntegrationConfig
	Messaging   MessagingConfig
	Service     ServiceConfig
	Monitor     MonitorConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// JWTConfig guards the composite API. An empty Secret disables authorization.
type JWTConfig struct {
	Secret string
	Issuer string
}

type DeadLetterConfig struct {
	Path      string
	Retention time.Duration
}

// IntegrationConfig points the composite at the core services.
type IntegrationConfig struct {
	ProductURL         string
	RecommendationURL  string
	ReviewURL          string
	CallTimeout        time.Duration
	MaxConnsPerHost    int
	PublishConcurrency int
}

// MessagingConfig tunes the Redis Streams event channel.
type MessagingConfig struct {
	Driver         string
	Partitions     int
	InstanceIndex  int
	InstanceCount  int
	Group          string
	Consumer       string
	BatchSize      int
	BlockTimeout   time.Duration
	RetryBackoff   time.Duration
	RedeliveryIdle time.Duration
	SweepSchedule  string
	MaxDeliveries  int
	StreamMaxLen   int64
}

// ServiceConfig describes which core service a cmd/core process runs.
type ServiceConfig struct {
	Kind        string
	Address     string
	StoreDriver string
}

type MonitorConfig struct {
	Interval time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "product-composite"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "composite_db"),
			User:            getString("DB_USER", "composite_user"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", ""),
		},
		DeadLetter: DeadLetterConfig{
			Path:      getString("DEADLETTER_PATH", "./data/deadletter.db"),
			Retention: getDuration("DEADLETTER_RETENTION", 7*24*time.Hour),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		Integration: IntegrationConfig{
			ProductURL:         getString("PRODUCT_SERVICE_URL", "http://product:8080"),
			RecommendationURL:  getString("RECOMMENDATION_SERVICE_URL", "http://recommendation:8080"),
			ReviewURL:          getString("REVIEW_SERVICE_URL", "http://review:8080"),
			CallTimeout:        getDuration("INTEGRATION_CALL_TIMEOUT", 2*time.Second),
			MaxConnsPerHost:    getInt("INTEGRATION_MAX_CONNS_PER_HOST", 64),
			PublishConcurrency: getInt("PUBLISH_CONCURRENCY", 8),
		},
		Messaging: MessagingConfig{
			Driver:         getString("MESSAGING_DRIVER", DriverRedis),
			Partitions:     getInt("MESSAGING_PARTITIONS", 2),
			InstanceIndex:  getInt("MESSAGING_INSTANCE_INDEX", 0),
			InstanceCount:  getInt("MESSAGING_INSTANCE_COUNT", 1),
			Group:          getString("MESSAGING_GROUP", ""),
			Consumer:       os.Getenv("MESSAGING_CONSUMER"),
			BatchSize:      getInt("MESSAGING_BATCH_SIZE", 16),
			BlockTimeout:   getDuration("MESSAGING_BLOCK_TIMEOUT", 2*time.Second),
			RetryBackoff:   getDuration("MESSAGING_RETRY_BACKOFF", time.Second),
			RedeliveryIdle: getDuration("REDELIVERY_IDLE", 30*time.Second),
			SweepSchedule:  getString("REDELIVERY_SCHEDULE", "@every 15s"),
			MaxDeliveries:  getInt("MESSAGING_MAX_DELIVERIES", 5),
			StreamMaxLen:   int64(getInt("MESSAGING_STREAM_MAXLEN", 100_000)),
		},
		Service: ServiceConfig{
			Kind:        getString("SERVICE_KIND", "product"),
			Address:     os.Getenv("SERVICE_ADDRESS"),
			StoreDriver: getString("STORE_DRIVER", "postgres"),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("HEALTH_CHECK_INTERVAL", 10*time.Second),
		},
	}

	if cfg.Messaging.Group == "" {
		cfg.Messaging.Group = cfg.Service.Kind + "sGroup"
	}
	if cfg.Messaging.Consumer == "" {
		// must survive restarts, see messaging.StreamsConfig.Consumer
		cfg.Messaging.Consumer = fmt.Sprintf("%s-%d", cfg.Service.Kind, cfg.Messaging.InstanceIndex)
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Service.Kind {
	case KindProduct, KindRecommendation, KindReview:
	default:
		return fmt.Errorf("config: unknown SERVICE_KIND %q", c.Service.Kind)
	}
	switch c.Service.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.Service.StoreDriver)
	}
	switch c.Messaging.Driver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("config: unknown MESSAGING_DRIVER %q", c.Messaging.Driver)
	}
	if c.Messaging.Partitions < 1 {
		return fmt.Errorf("config: MESSAGING_PARTITIONS must be positive, got %d", c.Messaging.Partitions)
	}
	if c.Messaging.InstanceCount < 1 || c.Messaging.InstanceIndex < 0 || c.Messaging.InstanceIndex >= c.Messaging.InstanceCount {
		return fmt.Errorf("config: MESSAGING_INSTANCE_INDEX %d out of range for count %d",
			c.Messaging.InstanceIndex, c.Messaging.InstanceCount)
	}
	if c.Integration.PublishConcurrency < 1 {
		return fmt.Errorf("config: PUBLISH_CONCURRENCY must be positive, got %d", c.Integration.PublishConcurrency)
	}
	return nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
