package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "BOOKMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "BOOKMARKET_APP_ENV"
	EnvPort     = "BOOKMARKET_APP_PORT"
	EnvLogLevel = "BOOKMARKET_LOG_LEVEL"

	EnvDBDSN      = "BOOKMARKET_DB_DSN"
	EnvDBHost     = "BOOKMARKET_DB_HOST"
	EnvDBPort     = "BOOKMARKET_DB_PORT"
	EnvDBUser     = "BOOKMARKET_DB_USER"
	EnvDBPassword = "BOOKMARKET_DB_PASSWORD"
	EnvDBName     = "BOOKMARKET_DB_NAME"

	EnvRedisURL = "BOOKMARKET_REDIS_URL"

	EnvJWTSecret  = "BOOKMARKET_JWT_SECRET"
	EnvJWTIssuer  = "BOOKMARKET_JWT_ISSUER"
	EnvJWTExpMins = "BOOKMARKET_JWT_EXPIRATION_MINUTES"

	EnvPaystackSecretKey = "BOOKMARKET_PAYSTACK_SECRET_KEY"
	EnvPaystackBaseURL   = "BOOKMARKET_PAYSTACK_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
