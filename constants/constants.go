package constants

// General

const (
	AppName               = "sparkify"
	EnvVarPrefix          = "SPK" // prefixed for environment variables in twelveFactorMode
	DefaultConfigFileName = "dwh.yaml"
	DefaultConfigDir      = ".sparkify"
	DefaultConnectionName = "warehouse"
	DefaultS3Region       = "us-west-2"
	DefaultJsonFormat     = "auto"
	DefaultLogLevel       = "info"
	DefaultRetries        = 3
	DefaultRetryDelay     = "5m"
	DefaultServePort      = 8080
	EmojiBang             = "\U0001F4A5"
)

// Latency histogram bounds in milliseconds; longer statements are clamped.

const (
	StatsHistogramMinMillis          = 1
	StatsHistogramMaxMillis          = 3600000
	StatsHistogramSignificantFigures = 3
)

// Connections

const (
	ConnectionTypeRedshift  = "redshift"
	ConnectionTypePostgres  = "postgres"
	ConnectionTypeSnowflake = "snowflake"
	ConnectionTypeSqlite    = "sqlite"
	ConnectionTypeMock      = "mock"
)

// Load modes for dimension and fact tables.

const (
	LoadModeAppend         = "append"
	LoadModeTruncateInsert = "truncate-insert"
)

// Commands exposed to external schedulers.

const (
	CommandTables = "tables"
	CommandEtl    = "etl"
	CommandStage  = "stage"
	CommandLoad   = "load"
	CommandCheck  = "check"
	CommandRun    = "run"
	CommandPlan   = "plan"
	CommandServe  = "serve"
)
