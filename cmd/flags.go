package cmd

import (
	"errors"
	"fmt"
	"os"
	"path"
	"reflect"
	"strconv"
	"strings"

	"github.com/sparkify/sparkify-etl/config"
	"github.com/sparkify/sparkify-etl/helper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	configKey string // optional dotted key in the config file that supplies the default
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "M", desc: "mock switch for testing"},
	"config-file": cliFlag{name: "config-file", shortHand: "c",
		desc: "Config `<file>` describing the warehouse and S3 locations\n" +
			"(default: ./dwh.yaml, falling back to ~/.sparkify/dwh.yaml)"},
	"connection": cliFlag{name: "connection", shortHand: "C",
		desc: "Name of the warehouse to use from the connections section of the config\n" +
			"(omit to use the default warehouse)"},
	"log-level": cliFlag{name: "log-level", shortHand: "l", configKey: "log_level",
		desc: "Log level: \"error | warn | info | debug | trace\""},
	"table": cliFlag{name: "table", shortHand: "t",
		desc: "Table to operate on"},
	"s3-path": cliFlag{name: "s3-path", shortHand: "s",
		desc: "S3 URL or key in the configured bucket to copy from (omit to use the config)"},
	"json-path": cliFlag{name: "json-path", shortHand: "j",
		desc: "JSONPaths file (S3 URL or key) mapping JSON fields onto columns, or \"auto\"\n" +
			"to match on column names (omit to use the config)"},
	"mode": cliFlag{name: "mode", shortHand: "m",
		desc: "Load mode: \"append | truncate-insert\" (omit to use the config for dimensions\n" +
			"and truncate-insert for the fact table)"},
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the task list"},
	"retries": cliFlag{name: "retries", shortHand: "r",
		desc: "Number of times to retry a failed task (negative to use the config)"},
	"retry-delay": cliFlag{name: "retry-delay", shortHand: "d",
		desc: "Time to wait between retries e.g. 5m (omit to use the config)"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port to listen on"},
}

// configValue reads a key from the default config file so flags can take their defaults from it.
func configValue(key string, out interface{}) error {
	p := config.ResolvePath()
	return config.NewConfigFileWithDir(path.Dir(p), path.Base(p)).Get(key, out)
}

// addFlag add a flag to cobra.Command c, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map, cliFlags.
// When running in twelveFactorMode, the targetVar is populated using the value of environment variable for the supplied
// name, or if not set then the supplied default value is used.
// When NOT running in twelveFactorMode, the default value is fetched from config if the flag has a configKey,
// else the supplied defaultValue is applied.
// The flag is marked as required in Cobra based on the value of required.
// Supply a value for desc2 to append to the existing description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, configValue)
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
			if sw.val != "" { // if there is a value via config or default...
				mustSetFlag(c.Flags(), sw.name, sw.val)
			}
		}
	case *bool:
		if twelveFactorMode {
			// Anything other than an explicit false switches the flag on.
			val := strings.ToLower(sw.val)
			*p = val != "" && val != "false" && val != "0"
		} else {
			defaultBool := strings.ToLower(sw.val) == "true"
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
		}
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required && !twelveFactorMode { // if the flag is required...
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment, when running in twelveFactorMode,
// else reads the config file key registered for the flag.
// If a value cannot be found then use the supplied defaultValue in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := (*f)[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	if twelveFactorMode { // if we should read env vars...
		if err := helper.ReadValueFromEnv(helper.FlagNameToEnvVar(name), &s.val); err != nil {
			s.val = defaultValue
		}
	} else if s.configKey != "" { // else check the config file...
		err := fnGetConfig(s.configKey, &s.val)
		if err != nil || s.val == "" {
			if err != nil && !errors.As(err, &config.KeyNotFoundError{}) && !errors.As(err, &config.FileNotFoundError{}) {
				fmt.Printf("ignoring config value for flag %q: %v\n", name, err)
			}
			s.val = defaultValue
		}
	} else {
		s.val = defaultValue
	}
	return s
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
