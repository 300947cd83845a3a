package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// COFFEECLUB_ names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
