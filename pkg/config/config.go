package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the platform reads.
const EnvPrefix = "levelpos"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Outbox       OutboxConfig
	PubSub       PubSubConfig
	Metrics      MetricsConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEVELPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"LEVELPOS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LEVELPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEVELPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LEVELPOS_DB_DSN"`
	Driver string `envconfig:"LEVELPOS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LEVELPOS_DB_HOST"`
	Port     int    `envconfig:"LEVELPOS_DB_PORT" default:"5432"`
	User     string `envconfig:"LEVELPOS_DB_USER"`
	Password string `envconfig:"LEVELPOS_DB_PASSWORD"`
	Name     string `envconfig:"LEVELPOS_DB_NAME"`
	SSLMode  string `envconfig:"LEVELPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEVELPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEVELPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEVELPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEVELPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a postgres DSN from discrete fields when none is set.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either LEVELPOS_DB_DSN or host/user/name must be provided")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"LEVELPOS_REDIS_URL"`
	Address      string        `envconfig:"LEVELPOS_REDIS_ADDR"`
	Password     string        `envconfig:"LEVELPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEVELPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEVELPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEVELPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEVELPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEVELPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEVELPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEVELPOS_FEATURE_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LEVELPOS_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LEVELPOS_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LEVELPOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	ProjectID   string `envconfig:"LEVELPOS_PUBSUB_PROJECT_ID"`
	DomainTopic string `envconfig:"LEVELPOS_PUBSUB_DOMAIN_TOPIC" default:"levelpos-domain-events"`
}

type RateLimitConfig struct {
	TransactionsLimit int           `envconfig:"LEVELPOS_RATE_LIMIT_TRANSACTIONS" default:"120"`
	Window            time.Duration `envconfig:"LEVELPOS_RATE_LIMIT_WINDOW" default:"1m"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"LEVELPOS_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"LEVELPOS_METRICS_PATH" default:"/metrics"`
}
