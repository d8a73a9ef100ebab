package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry fully
	// qualified names, so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN    = "SHELFWISE_DB_DSN"
	EnvDBHost   = "SHELFWISE_DB_HOST"
	EnvDBUser   = "SHELFWISE_DB_USER"
	EnvDBName   = "SHELFWISE_DB_NAME"
	EnvDemoDate = "SHELFWISE_DEMO_DATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
