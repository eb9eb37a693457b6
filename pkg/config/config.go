package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	GoPay        GoPayConfig
	HyperPay     HyperPayConfig
	WhatsApp     WhatsAppConfig
	Checkout     CheckoutConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"MARSOS_APP_ENV" required:"true"`
	Port         string `envconfig:"MARSOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARSOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARSOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MARSOS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MARSOS_DB_DSN"`
	Driver string `envconfig:"MARSOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARSOS_DB_HOST"`
	LegacyPort     int    `envconfig:"MARSOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARSOS_DB_USER"`
	LegacyPassword string `envconfig:"MARSOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARSOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARSOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARSOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARSOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARSOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARSOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARSOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARSOS_REDIS_ADDR"`
	Password     string        `envconfig:"MARSOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARSOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARSOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARSOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARSOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARSOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARSOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARSOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARSOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARSOS_JWT_EXPIRATION_MINUTES" required:"true"`
}

type RateLimitConfig struct {
	Window        time.Duration `envconfig:"MARSOS_RATE_LIMIT_WINDOW" default:"1m"`
	UserLimit     int           `envconfig:"MARSOS_RATE_LIMIT_USER_LIMIT" default:"120"`
	CheckoutLimit int           `envconfig:"MARSOS_RATE_LIMIT_CHECKOUT_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARSOS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MARSOS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MARSOS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MARSOS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"MARSOS_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"MARSOS_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

// GoPayConfig drives the SADAD invoicing gateway client.
type GoPayConfig struct {
	BaseURL     string        `envconfig:"MARSOS_GOPAY_BASE_URL" required:"true"`
	APIKey      string        `envconfig:"MARSOS_GOPAY_API_KEY" required:"true"`
	ServiceName string        `envconfig:"MARSOS_GOPAY_SERVICE_NAME" default:"Marsos Marketplace"`
	Timeout     time.Duration `envconfig:"MARSOS_GOPAY_TIMEOUT" default:"30s"`
}

// HyperPayConfig drives the hosted card checkout gateway client.
type HyperPayConfig struct {
	BaseURL     string        `envconfig:"MARSOS_HYPERPAY_BASE_URL" required:"true"`
	AccessToken string        `envconfig:"MARSOS_HYPERPAY_ACCESS_TOKEN" required:"true"`
	EntityID    string        `envconfig:"MARSOS_HYPERPAY_ENTITY_ID" required:"true"`
	Timeout     time.Duration `envconfig:"MARSOS_HYPERPAY_TIMEOUT" default:"30s"`
}

type WhatsAppConfig struct {
	BaseURL     string        `envconfig:"MARSOS_WHATSAPP_BASE_URL"`
	AccessToken string        `envconfig:"MARSOS_WHATSAPP_ACCESS_TOKEN"`
	SenderID    string        `envconfig:"MARSOS_WHATSAPP_SENDER_ID"`
	Timeout     time.Duration `envconfig:"MARSOS_WHATSAPP_TIMEOUT" default:"15s"`
}

type CheckoutConfig struct {
	SadadExpiryDays   int `envconfig:"MARSOS_CHECKOUT_SADAD_EXPIRY_DAYS" default:"7"`
	SadadDeadlineDays int `envconfig:"MARSOS_CHECKOUT_SADAD_DEADLINE_DAYS" default:"3"`
}

func (c CheckoutConfig) SadadExpiry() time.Duration {
	days := c.SadadExpiryDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c CheckoutConfig) SadadDeadline() time.Duration {
	days := c.SadadDeadlineDays
	if days <= 0 {
		days = 3
	}
	return time.Duration(days) * 24 * time.Hour
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"MARSOS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"MARSOS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"MARSOS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"MARSOS_OUTBOX_IDEMPOTENCY_TTL" default:"168h"`
}

type CronConfig struct {
	ReconcileInterval time.Duration `envconfig:"MARSOS_CRON_RECONCILE_INTERVAL" default:"5m"`
	ReconcileBatch    int           `envconfig:"MARSOS_CRON_RECONCILE_BATCH" default:"100"`
	LockTTL           time.Duration `envconfig:"MARSOS_CRON_LOCK_TTL" default:"4m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
