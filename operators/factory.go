package operators

import (
	"fmt"

	"github.com/sparkify/sparkify-etl/aws/s3"
	"github.com/sparkify/sparkify-etl/catalog"
	"github.com/sparkify/sparkify-etl/config"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/loader"
	"github.com/sparkify/sparkify-etl/logger"
	"github.com/sparkify/sparkify-etl/rdbms/shared"
)

// StageParams are the values a scheduler interpolates into a stage task.
// Empty values fall back to the configuration.
type StageParams struct {
	Connection string `json:"connection"`
	Table      string `json:"table"`
	Path       string `json:"s3_path"`
	JSONPaths  string `json:"json_path"`
}

// LoadParams select the analytics table to load.
type LoadParams struct {
	Connection string `json:"connection"`
	Table      string `json:"table"`
	Mode       string `json:"mode"`
}

// Factory builds operators from the configuration, sharing the connections in Provider.
type Factory struct {
	Log       logger.Logger
	Config    *config.Config
	Provider  *ConnectionProvider
	NewClient s3.ClientFactory
}

func NewFactory(log logger.Logger, cfg *config.Config, provider *ConnectionProvider) *Factory {
	return &Factory{
		Log:      log,
		Config:   cfg,
		Provider: provider,
		NewClient: s3.NewClientFactory(s3.ClientConfig{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.Aws.AccessKeyID,
			SecretAccessKey: cfg.Aws.SecretAccessKey,
			SessionToken:    cfg.Aws.SessionToken,
		}),
	}
}

// Connect returns the connection and catalog for a named warehouse.
func (f *Factory) Connect(name string) (shared.Connector, *catalog.Catalog, error) {
	conn, d, err := f.Provider.Get(name)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.New(conn.GetType(), d.Schema)
	if err != nil {
		return nil, nil, err
	}
	return conn, cat, nil
}

// Credentials returns the IAM role when one is configured, else the access key pair.
func (f *Factory) Credentials() catalog.Credentials {
	if f.Config.IamRole.Arn != "" {
		return catalog.Credentials{IAMRole: f.Config.IamRole.Arn}
	}
	return catalog.Credentials{
		AccessKeyID:     f.Config.Aws.AccessKeyID,
		SecretAccessKey: f.Config.Aws.SecretAccessKey,
		SessionToken:    f.Config.Aws.SessionToken,
	}
}

// CopySources returns the configured source of each staging table.
func (f *Factory) CopySources() []catalog.CopySource {
	return []catalog.CopySource{
		f.copySource(catalog.StagingEvents, "", ""),
		f.copySource(catalog.StagingSongs, "", ""),
	}
}

func (f *Factory) copySource(table string, path string, jsonPaths string) catalog.CopySource {
	if path == "" {
		switch table {
		case catalog.StagingEvents:
			path = f.Config.S3.LogData
			if jsonPaths == "" {
				jsonPaths = f.Config.S3.LogJsonPath
			}
		case catalog.StagingSongs:
			path = f.Config.S3.SongData
		}
	}
	if jsonPaths == constants.DefaultJsonFormat {
		jsonPaths = ""
	}
	return catalog.CopySource{
		Table:       table,
		Path:        f.Config.S3Path(path),
		JSONPaths:   f.Config.S3Path(jsonPaths),
		Region:      f.Config.S3.Region,
		Credentials: f.Credentials(),
	}
}

// Stage returns the operator that reloads one staging table.
func (f *Factory) Stage(p StageParams) (*StageOperator, error) {
	t, schema, err := catalog.ParseTable(p.Table)
	if err != nil || t.Kind != catalog.KindStaging {
		return nil, fmt.Errorf("table %q is not a staging table", p.Table)
	}
	conn, cat, err := f.Connect(p.Connection)
	if err != nil {
		return nil, err
	}
	if err = cat.MatchSchema(schema); err != nil {
		return nil, err
	}
	return &StageOperator{
		Log:       f.Log,
		Conn:      conn,
		Catalog:   cat,
		Source:    f.copySource(t.Name, p.Path, p.JSONPaths),
		Copier:    loader.New(f.Log, cat, f.NewClient),
		NewClient: f.NewClient,
		Preflight: f.Config.Pipeline.Preflight,
	}, nil
}

// Load returns the operator that builds one analytics table.
// Without p.Mode dimensions use the configured mode and the fact table is replaced,
// so a rerun never duplicates songplays. Append only happens when asked for.
func (f *Factory) Load(p LoadParams) (*LoadTableOperator, error) {
	t, schema, err := catalog.ParseTable(p.Table)
	if err != nil || t.Kind == catalog.KindStaging {
		return nil, fmt.Errorf("table %q is not a dimension or fact table", p.Table)
	}
	mode := p.Mode
	if mode == "" {
		mode = constants.LoadModeTruncateInsert
		if t.Kind == catalog.KindDimension {
			mode = f.Config.Pipeline.DimensionMode
		}
	}
	conn, cat, err := f.Connect(p.Connection)
	if err != nil {
		return nil, err
	}
	if err = cat.MatchSchema(schema); err != nil {
		return nil, err
	}
	return &LoadTableOperator{Log: f.Log, Conn: conn, Catalog: cat, Table: t.Name, Mode: mode}, nil
}

// Checks returns the configured quality checks, or the default checks when none are configured.
func (f *Factory) Checks(cat *catalog.Catalog) []catalog.Check {
	if len(f.Config.QualityChecks) == 0 {
		return cat.DefaultChecks()
	}
	retval := make([]catalog.Check, len(f.Config.QualityChecks))
	for i, q := range f.Config.QualityChecks {
		retval[i] = catalog.Check{Name: q.Name, SQL: q.CheckSql, Expected: q.ExpectedResult, Rule: q.Rule}
	}
	return retval
}

// Quality returns the operator that runs the quality checks.
func (f *Factory) Quality(connection string) (*DataQualityOperator, error) {
	conn, cat, err := f.Connect(connection)
	if err != nil {
		return nil, err
	}
	return &DataQualityOperator{Log: f.Log, Conn: conn, Checks: f.Checks(cat)}, nil
}

// CreateTables returns the operator that creates the schema.
func (f *Factory) CreateTables(connection string, drop bool) (*CreateTablesOperator, error) {
	conn, cat, err := f.Connect(connection)
	if err != nil {
		return nil, err
	}
	return &CreateTablesOperator{Log: f.Log, Conn: conn, Catalog: cat, Drop: drop}, nil
}

func regionOrDefault(r string) string {
	if r == "" {
		return constants.DefaultS3Region
	}
	return r
}
