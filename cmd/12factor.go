package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sparkify/sparkify-etl/actions"
	c "github.com/sparkify/sparkify-etl/constants"
	"github.com/sparkify/sparkify-etl/helper"
	"github.com/sparkify/sparkify-etl/logger"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set such that other init() functions that configure
// Cobra can read environment variables in place of CLI flags.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == "lambda"
	} else { // else 12factor mode should be off...
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

const (
	envVarTwelveFactorMode = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand          = c.EnvVarPrefix + "_" + "COMMAND"
	envVarStackDump        = c.EnvVarPrefix + "_" + "STACK_DUMP"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if envVarTwelveFactorMode is "lambda"
	twelveFactorVars = map[string]string{
		envVarCommand:   "",
		envVarStackDump: "",
		helper.FlagNameToEnvVar("log-level"):                      "",
		helper.FlagNameToEnvVar("config-file"):                    "",
		helper.FlagNameToEnvVar("connection"):                     "",
		helper.FlagNameToEnvVar("table"):                          "",
		helper.FlagNameToEnvVar("s3-path"):                        "",
		helper.FlagNameToEnvVar("json-path"):                      "",
		helper.FlagNameToEnvVar("mode"):                           "",
		helper.FlagNameToEnvVar("retries"):                        "",
		helper.FlagNameToEnvVar("retry-delay"):                    "",
		helper.GetDsnEnvVarName(c.DefaultConnectionName):          "",
		helper.GetPasswordEnvVarName(c.DefaultConnectionName):     "",
		helper.FlagNameToEnvVar(c.DefaultConnectionName + "-type"): "",
	}
	twelveFactorVarsSensitive = map[string]string{ // used to flag some of the above variables as being sensitive.
		helper.GetDsnEnvVarName(c.DefaultConnectionName):      "",
		helper.GetPasswordEnvVarName(c.DefaultConnectionName): "",
	}
)

type twelveFactorAction struct {
	runnerFunc func() error
}

var twelveFactorActions = map[string]twelveFactorAction{
	c.CommandTables: {runnerFunc: runTables},
	c.CommandEtl:    {runnerFunc: runEtl},
	c.CommandStage:  {runnerFunc: runStage},
	c.CommandLoad:   {runnerFunc: runLoad},
	c.CommandCheck:  {runnerFunc: runCheck},
	c.CommandRun:    {runnerFunc: runPipeline},
	c.CommandPlan:   {runnerFunc: runPlan},
	c.CommandServe:  {runnerFunc: runServe},
}

func execute12FactorMode(acts map[string]twelveFactorAction) (err error) {
	logLevel := helper.ReadValueFromEnvWithDefault(helper.FlagNameToEnvVar("log-level"), c.DefaultLogLevel)
	log := logger.NewLogger(c.AppName, logLevel, stackDumpOnPanic)
	log.Info("running in 12 factor mode...")
	for k := range twelveFactorVars { // for each env variable that we need...
		twelveFactorVars[k] = os.Getenv(k)
		if _, sensitive := twelveFactorVarsSensitive[k]; !sensitive {
			log.Debug(k, "=", twelveFactorVars[k])
		} else { // else output obfuscated value...
			log.Debug(k, "=", "<obfuscated>")
		}
	}
	if twelveFactorVars[envVarStackDump] != "" {
		stackDumpOnPanic = true
	}
	a, ok := acts[twelveFactorVars[envVarCommand]]
	if !ok {
		err = fmt.Errorf("invalid command %q supplied in %v", twelveFactorVars[envVarCommand], envVarCommand)
		log.Error(err.Error())
		return
	}
	runCfg.TwelveFactor = true
	err = a.runnerFunc()
	if err != nil {
		log.Error("Error: ", err)
	}
	return err
}

// newLambdaHandler serves task requests, defaulting to the task named in envVarCommand.
func newLambdaHandler() actions.LambdaHandler {
	runCfg.TwelveFactor = true
	runCfg.StackDumpOnPanic = os.Getenv(envVarStackDump) != ""
	return actions.NewLambdaHandler(&runCfg, os.Getenv(envVarCommand))
}
