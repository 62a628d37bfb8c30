package config

const (
	EnvPrefix = "PRICING"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PRICING_DB_DSN"
	EnvDBHost = "PRICING_DB_HOST"
	EnvDBUser = "PRICING_DB_USER"
	EnvDBName = "PRICING_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
