package config

const (
	EnvPrefix = "NEXUS"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "NEXUS_DB_DSN"
	EnvDBHost = "NEXUS_DB_HOST"
	EnvDBUser = "NEXUS_DB_USER"
	EnvDBName = "NEXUS_DB_NAME"

	EnvCommissionDefaultRate = "NEXUS_COMMISSION_DEFAULT_RATE"
	EnvCommissionPlatformFee = "NEXUS_COMMISSION_PLATFORM_FEE"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
