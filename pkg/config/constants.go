package config

// EnvPrefix namespaces every environment variable consumed by the platform.
const EnvPrefix = "MARSOS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags (tests, error messages).
const (
	EnvAppEnv   = "MARSOS_APP_ENV"
	EnvPort     = "MARSOS_APP_PORT"
	EnvDBDSN    = "MARSOS_DB_DSN"
	EnvDBHost   = "MARSOS_DB_HOST"
	EnvDBUser   = "MARSOS_DB_USER"
	EnvDBName   = "MARSOS_DB_NAME"
	EnvRedisURL = "MARSOS_REDIS_URL"

	EnvJWTSecret  = "MARSOS_JWT_SECRET"
	EnvJWTIssuer  = "MARSOS_JWT_ISSUER"
	EnvJWTExpMins = "MARSOS_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID      = "MARSOS_GCP_PROJECT_ID"
	EnvPubSubDomainTopic = "MARSOS_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub   = "MARSOS_PUBSUB_DOMAIN_SUBSCRIPTION"

	EnvGoPayBaseURL    = "MARSOS_GOPAY_BASE_URL"
	EnvGoPayAPIKey     = "MARSOS_GOPAY_API_KEY"
	EnvHyperPayBaseURL = "MARSOS_HYPERPAY_BASE_URL"
	EnvHyperPayToken   = "MARSOS_HYPERPAY_ACCESS_TOKEN"
	EnvHyperPayEntity  = "MARSOS_HYPERPAY_ENTITY_ID"
	EnvWhatsAppBaseURL = "MARSOS_WHATSAPP_BASE_URL"
	EnvWhatsAppToken   = "MARSOS_WHATSAPP_ACCESS_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
