package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/helper"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

// Config is built once at start up and handed to every runner and operator.
type Config struct {
	Warehouse     shared.ConnectionDetails            `mapstructure:"warehouse"`
	Connections   map[string]shared.ConnectionDetails `mapstructure:"connections"`
	S3            S3                                  `mapstructure:"s3"`
	IamRole       IamRole                             `mapstructure:"iam_role"`
	Aws           AwsCredentials                      `mapstructure:"aws"`
	Pipeline      Pipeline                            `mapstructure:"pipeline"`
	QualityChecks []QualityCheck                      `mapstructure:"quality_checks"`
	LogLevel      string                              `mapstructure:"log_level"`
	Source        string                              `mapstructure:"-"` // file the config was read from
}

// S3 locates the raw JSON data.
// LogData, SongData and LogJsonPath are either full s3:// URLs or keys inside Bucket.
type S3 struct {
	Bucket      string `mapstructure:"bucket"`
	Region      string `mapstructure:"region"`
	LogData     string `mapstructure:"log_data" errorTxt:"s3.log_data" mandatory:"yes"`
	SongData    string `mapstructure:"song_data" errorTxt:"s3.song_data" mandatory:"yes"`
	LogJsonPath string `mapstructure:"log_jsonpath"`
	Endpoint    string `mapstructure:"endpoint"` // optional, for S3 compatible stores
}

type IamRole struct {
	Arn string `mapstructure:"arn"`
}

type AwsCredentials struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
}

type Pipeline struct {
	Retries       int           `mapstructure:"retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	DimensionMode string        `mapstructure:"dimension_mode"`
	Preflight     bool          `mapstructure:"preflight"`
}

// QualityCheck is a query whose single scalar result is compared with ExpectedResult,
// or evaluated by the JSON Logic Rule when one is given.
type QualityCheck struct {
	Name           string      `mapstructure:"name"`
	CheckSql       string      `mapstructure:"check_sql"`
	ExpectedResult interface{} `mapstructure:"expected_result"`
	Rule           string      `mapstructure:"rule"`
}

// Load reads the YAML file at p, or the default location when p is empty,
// then applies defaults and environment overrides.
// The result is not validated; call Validate for that.
func Load(p string) (*Config, error) {
	if p == "" {
		p = ResolvePath()
	}
	f := newConfigFile(p)
	cfg := newConfig()
	if err := f.Decode(cfg); err != nil {
		return nil, err
	}
	cfg.Source = f.FullPath
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadOrEnv is Load without a required file: in twelve factor mode the whole config may come from the environment.
func LoadOrEnv(p string) (*Config, error) {
	cfg, err := Load(p)
	if errors.As(err, &FileNotFoundError{}) {
		cfg = newConfig()
		cfg.Source = "environment"
		cfg.ApplyDefaults()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return cfg, err
}

// newConfig returns a Config holding the defaults that a zero value cannot express.
// Decoding only overwrites the keys present in the file, so an explicit "retries: 0" still disables retries.
func newConfig() *Config {
	return &Config{Pipeline: Pipeline{Retries: constants.DefaultRetries}}
}

// ApplyDefaults fills in values the config file may omit.
func (c *Config) ApplyDefaults() {
	if c.Warehouse.Type == "" {
		c.Warehouse.Type = constants.ConnectionTypeRedshift
	}
	c.Warehouse.LogicalName = constants.DefaultConnectionName
	for k, v := range c.Connections {
		v.LogicalName = k
		c.Connections[k] = v
	}
	if c.S3.Region == "" {
		c.S3.Region = constants.DefaultS3Region
	}
	if c.Pipeline.RetryDelay == 0 {
		c.Pipeline.RetryDelay, _ = time.ParseDuration(constants.DefaultRetryDelay)
	}
	if c.Pipeline.Retries < 0 {
		c.Pipeline.Retries = 0
	}
	if c.Pipeline.DimensionMode == "" {
		c.Pipeline.DimensionMode = constants.LoadModeTruncateInsert
	}
	if c.LogLevel == "" {
		c.LogLevel = constants.DefaultLogLevel
	}
}

// ApplyEnv lets secrets and deployment specific values come from environment variables.
func (c *Config) ApplyEnv() {
	w := constants.DefaultConnectionName
	overrides := map[string]*string{
		helper.GetPasswordEnvVarName(w):            &c.Warehouse.Password,
		helper.GetDsnEnvVarName(w):                 &c.Warehouse.Dsn,
		helper.FlagNameToEnvVar(w + "-type"):       &c.Warehouse.Type,
		helper.FlagNameToEnvVar(w + "-host"):       &c.Warehouse.Host,
		helper.FlagNameToEnvVar(w + "-db-name"):    &c.Warehouse.DBName,
		helper.FlagNameToEnvVar(w + "-user"):       &c.Warehouse.User,
		helper.FlagNameToEnvVar("s3-bucket"):       &c.S3.Bucket,
		helper.FlagNameToEnvVar("s3-region"):       &c.S3.Region,
		helper.FlagNameToEnvVar("s3-log-data"):     &c.S3.LogData,
		helper.FlagNameToEnvVar("s3-song-data"):    &c.S3.SongData,
		helper.FlagNameToEnvVar("s3-log-jsonpath"): &c.S3.LogJsonPath,
		helper.FlagNameToEnvVar("iam-role-arn"):    &c.IamRole.Arn,
		helper.FlagNameToEnvVar("log-level"):       &c.LogLevel,
		"AWS_ACCESS_KEY_ID":                        &c.Aws.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY":                    &c.Aws.SecretAccessKey,
		"AWS_SESSION_TOKEN":                        &c.Aws.SessionToken,
	}
	for name, p := range overrides {
		helper.OverrideFromEnv(name, p)
	}
	if v := os.Getenv(helper.FlagNameToEnvVar(w + "-port")); v != "" {
		_, _ = fmt.Sscan(v, &c.Warehouse.Port)
	}
	for k, v := range c.Connections { // for each extra warehouse...
		helper.OverrideFromEnv(helper.GetPasswordEnvVarName(k), &v.Password)
		helper.OverrideFromEnv(helper.GetDsnEnvVarName(k), &v.Dsn)
		c.Connections[k] = v
	}
}

// Validate checks mandatory values and the warehouse connections.
func (c *Config) Validate() error {
	if err := helper.ValidateStructIsPopulated(c); err != nil {
		return errors.Wrapf(err, "invalid config %v", c.Source)
	}
	if err := c.Warehouse.Validate(); err != nil {
		return errors.Wrapf(err, "invalid config %v", c.Source)
	}
	for _, k := range c.ConnectionNames() {
		if err := c.Connections[k].Validate(); err != nil {
			return errors.Wrapf(err, "invalid config %v", c.Source)
		}
	}
	switch c.Pipeline.DimensionMode {
	case constants.LoadModeAppend, constants.LoadModeTruncateInsert:
	default:
		return fmt.Errorf("invalid config %v: unsupported pipeline.dimension_mode %q", c.Source, c.Pipeline.DimensionMode)
	}
	for idx, q := range c.QualityChecks {
		if q.CheckSql == "" {
			return fmt.Errorf("invalid config %v: quality check %v is missing check_sql", c.Source, idx)
		}
		if q.ExpectedResult == nil && q.Rule == "" {
			return fmt.Errorf("invalid config %v: quality check %v needs expected_result or rule", c.Source, idx)
		}
	}
	return nil
}

// ConnectionNames returns the sorted names of all configured warehouses.
func (c *Config) ConnectionNames() []string {
	retval := make([]string, 0, len(c.Connections))
	for k := range c.Connections {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval
}

// LoadConnection implements shared.ConnectionGetter.
// The name "warehouse" (or an empty name) is the default warehouse.
func (c *Config) LoadConnection(name string) (shared.ConnectionDetails, error) {
	if name == "" || name == constants.DefaultConnectionName {
		return c.Warehouse, nil
	}
	d, ok := c.Connections[name]
	if !ok {
		return shared.ConnectionDetails{}, KeyNotFoundError{c.Source, "connections." + name, nil}
	}
	return d, nil
}

// S3Path returns keyOrUrl as a full s3:// URL using the configured bucket.
func (c *Config) S3Path(keyOrUrl string) string {
	if keyOrUrl == "" || strings.HasPrefix(keyOrUrl, "s3://") {
		return keyOrUrl
	}
	return fmt.Sprintf("s3://%v/%v", c.S3.Bucket, strings.TrimLeft(keyOrUrl, "/"))
}
