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
	Paystack     PaystackConfig
	Checkout     CheckoutConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"BOOKMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOKMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOKMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOOKMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BOOKMARKET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BOOKMARKET_DB_DSN"`
	Driver string `envconfig:"BOOKMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOOKMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOKMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOKMARKET_DB_USER"`
	LegacyPassword string `envconfig:"BOOKMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOKMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOKMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOOKMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BOOKMARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BOOKMARKET_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BOOKMARKET_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PaystackConfig struct {
	SecretKey      string        `envconfig:"BOOKMARKET_PAYSTACK_SECRET_KEY"`
	BaseURL        string        `envconfig:"BOOKMARKET_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL    string        `envconfig:"BOOKMARKET_PAYSTACK_CALLBACK_URL"`
	Env            string        `envconfig:"BOOKMARKET_PAYSTACK_ENV" default:"test"`
	RequestTimeout time.Duration `envconfig:"BOOKMARKET_PAYSTACK_REQUEST_TIMEOUT" default:"15s"`
	MaxRetries     int           `envconfig:"BOOKMARKET_PAYSTACK_MAX_RETRIES" default:"3"`
}

// Environment returns the normalized Paystack environment (test/live).
func (p PaystackConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	CartMaxQtyPerLine  int           `envconfig:"BOOKMARKET_CART_MAX_QTY_PER_LINE" default:"10"`
	PendingPaymentTTL  time.Duration `envconfig:"BOOKMARKET_CHECKOUT_PENDING_TTL" default:"72h"`
	IdempotencyTTL     time.Duration `envconfig:"BOOKMARKET_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	VerifyGraceWindows int           `envconfig:"BOOKMARKET_CHECKOUT_VERIFY_GRACE_WINDOWS" default:"2"`
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"BOOKMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"BOOKMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"BOOKMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Channel        string `envconfig:"BOOKMARKET_OUTBOX_CHANNEL" default:"bookmarket.domain-events"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BOOKMARKET_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOOKMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOOKMARKET_AUTO_MIGRATE" default:"false"`
	AllowCash   bool `envconfig:"BOOKMARKET_FEATURE_ALLOW_CASH" default:"true"`
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
