package shared

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/xo/dburl"
)

// ConnectionDetails holds credentials for a logical warehouse connection.
// Either Dsn or the individual fields are used, depending on Type.
type ConnectionDetails struct {
	Type        string `mapstructure:"type" json:"type" yaml:"type" errorTxt:"warehouse type" mandatory:"yes"`
	LogicalName string `mapstructure:"-" json:"-" yaml:"-"`
	Dsn         string `mapstructure:"dsn" json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Host        string `mapstructure:"host" json:"host,omitempty" yaml:"host,omitempty"`
	Port        int    `mapstructure:"port" json:"port,omitempty" yaml:"port,omitempty"`
	DBName      string `mapstructure:"db_name" json:"db_name,omitempty" yaml:"db_name,omitempty"`
	User        string `mapstructure:"user" json:"user,omitempty" yaml:"user,omitempty"`
	Password    string `mapstructure:"password" json:"-" yaml:"-"`
	Account     string `mapstructure:"account" json:"account,omitempty" yaml:"account,omitempty"`
	Warehouse   string `mapstructure:"warehouse" json:"warehouse,omitempty" yaml:"warehouse,omitempty"`
	Schema      string `mapstructure:"schema" json:"schema,omitempty" yaml:"schema,omitempty"`
	Role        string `mapstructure:"role" json:"role,omitempty" yaml:"role,omitempty"`
	Path        string `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty"` // sqlite database file
	SslMode     string `mapstructure:"sslmode" json:"sslmode,omitempty" yaml:"sslmode,omitempty"`
}

// String redacts passwords and pretty-prints the contents of ConnectionDetails.
func (c ConnectionDetails) String() string {
	x := []string{fmt.Sprintf("type = %v", c.Type)}
	if c.Dsn != "" { // if there's a DSN...
		x = append(x, fmt.Sprintf("dsn = %v", RedactDsn(c.Dsn)))
		return strings.Join(x, ", ")
	}
	m := map[string]string{
		"host":      c.Host,
		"db_name":   c.DBName,
		"user":      c.User,
		"account":   c.Account,
		"warehouse": c.Warehouse,
		"schema":    c.Schema,
		"role":      c.Role,
		"path":      c.Path,
	}
	if c.Port != 0 {
		m["port"] = fmt.Sprint(c.Port)
	}
	if c.Password != "" {
		m["password"] = "xxxxx"
	}
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		x = append(x, fmt.Sprintf("%v = %v", k, m[k]))
	}
	return strings.Join(x, ", ")
}

// Validate checks the fields required by each connection type are present.
func (c ConnectionDetails) Validate() error {
	if c.Type == "" {
		return errors.New("missing connection type")
	}
	if c.Dsn != "" {
		return nil
	}
	missing := make([]string, 0)
	need := func(name, val string) {
		if val == "" {
			missing = append(missing, name)
		}
	}
	switch c.Type {
	case constants.ConnectionTypeRedshift, constants.ConnectionTypePostgres:
		need("host", c.Host)
		need("db_name", c.DBName)
		need("user", c.User)
	case constants.ConnectionTypeSnowflake:
		need("account", c.Account)
		need("db_name", c.DBName)
		need("user", c.User)
		need("password", c.Password)
	case constants.ConnectionTypeSqlite:
		need("path", c.Path)
	case constants.ConnectionTypeMock:
	default:
		return fmt.Errorf("unsupported database type, %q", c.Type)
	}
	if len(missing) > 0 {
		return fmt.Errorf("connection %q (%v) is missing: %v", c.LogicalName, c.Type, strings.Join(missing, ", "))
	}
	return nil
}

// RedactDsn returns the DSN with its password masked.
// Strings that cannot be parsed as a URL are masked entirely.
func RedactDsn(dsn string) string {
	u, err := dburl.Parse(dsn)
	if err != nil {
		return "xxxxx"
	}
	return u.Redacted()
}

// DBConnections holds the named warehouses found in config.
type DBConnections map[string]ConnectionDetails

// LoadConnection will load the supplied *c[connectionName], which is expected to be in c, using the interface
// to do the actual loading.
func (c *DBConnections) LoadConnection(i ConnectionGetter, connectionName string) error {
	d, err := i.LoadConnection(connectionName)
	if err != nil {
		return err
	}
	(*c)[connectionName] = d // replace the connection with the loaded version
	return nil
}
