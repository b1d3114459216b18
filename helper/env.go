package helper

import (
	"fmt"
	"os"
	"strings"

	"github.com/sparkify/sparkify-etl/constants"
)

// GetEnvVar fetches OS environment variable.
// If the variable is not set it returns empty string.
// It also returns an error if there is a missing value AND mandatory == true.
func GetEnvVar(k string, mandatory bool) (string, error) {
	if value := os.Getenv(k); value != "" {
		return value, nil
	}
	if mandatory {
		return "", fmt.Errorf("environment variable %v is not set", k)
	}
	return "", nil
}

// ReadValueFromEnv reads the environment variable name into val.
// If the env var is not set then return an error and leave val untouched.
func ReadValueFromEnv(name string, val *string) error {
	v := os.Getenv(name)
	if v != "" { // if the environment variable was set...
		*val = v
		return nil
	}
	return fmt.Errorf("value for environment variable %v not found", name)
}

// ReadValueFromEnvWithDefault will read the value of name from the environment into v.
// If it's not set then it will apply the supplied defaultValue and return v.
func ReadValueFromEnvWithDefault(name string, defaultValue string) (v string) {
	_ = ReadValueFromEnv(name, &v)
	if v == "" && defaultValue != "" { // if the environment variable is not set and we have been given a default value...
		v = defaultValue
	}
	return
}

// OverrideFromEnv replaces *val with the value of environment variable name when it is set.
// It returns true if an override happened.
func OverrideFromEnv(name string, val *string) bool {
	return ReadValueFromEnv(name, val) == nil
}

// FlagNameToEnvVar will form a sanitised environment variable name using constants.EnvVarPrefix.
// e.g. "retry-delay" becomes SPK_RETRY_DELAY.
func FlagNameToEnvVar(name string) string {
	n := strings.TrimSpace(strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
	return fmt.Sprintf("%v_%v", constants.EnvVarPrefix, n)
}

// GetDsnEnvVarName returns the variable used to supply a full DSN for connectionName.
func GetDsnEnvVarName(connectionName string) string {
	return connectionEnvVarName(connectionName, "DSN")
}

// GetPasswordEnvVarName returns the variable used to supply the password for connectionName.
func GetPasswordEnvVarName(connectionName string) string {
	return connectionEnvVarName(connectionName, "PASSWORD")
}

func connectionEnvVarName(connectionName string, suffix string) string {
	n := strings.TrimSpace(strings.ToUpper(strings.ReplaceAll(connectionName, "-", "_")))
	return fmt.Sprintf("%v_%v_%v", constants.EnvVarPrefix, n, suffix)
}

// CsvToStringSliceTrimSpaces converts a string of the form, 'f1, f2,f3' into a slice of string values.
// Empty tokens are dropped.
func CsvToStringSliceTrimSpaces(s string) []string {
	retval := make([]string, 0)
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			retval = append(retval, t)
		}
	}
	return retval
}
