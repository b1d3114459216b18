package cmd

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sparkify/sparkify-etl/actions"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.3.0"
	buildDate        = "2020-09-14T10:21+0100"
	stackDumpOnPanic bool
	runCfg           = actions.RunConfig{Retries: -1}
)

var rootCmd = &cobra.Command{
	Use:   "sparkify",
	Short: "Load Sparkify song and event logs from S3 into a star schema",
	Long: `
Sparkify loads the raw JSON song metadata and user activity logs from S3 into
staging tables on the warehouse, then builds the analytics star schema from them:
songplays (fact) plus users, songs, artists and time (dimensions).

Run "tables" once to create the schema, then "etl" to copy and transform.
The stage, load and check commands run a single step each so a scheduler can
drive the load task by task; "run" executes the whole task list with retries.`,
	SilenceUsage: true,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// addRunFlags registers the flags every warehouse command shares.
func addRunFlags(c *cobra.Command) {
	switches.addFlag(c, &runCfg.ConfigFile, "config-file", "", false, "")
	switches.addFlag(c, &runCfg.Connection, "connection", "", false, "")
	switches.addFlag(c, &runCfg.LogLevel, "log-level", "", false, "")
}

// getRunConfig returns the shared run config with values only known after flag parsing.
func getRunConfig() *actions.RunConfig {
	runCfg.StackDumpOnPanic = stackDumpOnPanic
	runCfg.TwelveFactor = twelveFactorMode
	return &runCfg
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if lambdaMode { // if we should handle lambda execution...
			lambda.Start(newLambdaHandler())
		} else if err := execute12FactorMode(twelveFactorActions); err != nil {
			// execute12FactorMode logs the error.
			os.Exit(1)
		}
	} else { // else we're using CLI args and flags via Cobra...
		if err := rootCmd.Execute(); err != nil {
			// Execute() prints the error.
			os.Exit(1)
		}
	}
}
