package cmd

import (
	"github.com/sparkify/sparkify-etl/actions"
	"github.com/sparkify/sparkify-etl/operators"
	"github.com/spf13/cobra"
)

var stageParams = operators.StageParams{}
var loadParams = operators.LoadParams{}

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Reload one staging table from S3",
	Long: `Empty one staging table and copy the JSON files under an S3 path into it
in a single transaction. Without --s3-path the location comes from the config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage()
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load one dimension or fact table from the staging tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the data quality checks",
	Long: `Run each quality check from the config, or the default checks when none are
configured. The command fails on the first check that does not pass.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck()
	},
}

func runStage() error {
	return actions.RunStage(getRunConfig(), stageParams)
}

func runLoad() error {
	return actions.RunLoad(getRunConfig(), loadParams)
}

func runCheck() error {
	return actions.RunCheck(getRunConfig())
}

func init() {
	rootCmd.AddCommand(stageCmd)
	stageCmd.Flags().SortFlags = false
	switches.addFlag(stageCmd, &stageParams.Table, "table", "", true, " (staging_events | staging_songs)")
	switches.addFlag(stageCmd, &stageParams.Path, "s3-path", "", false, "")
	switches.addFlag(stageCmd, &stageParams.JSONPaths, "json-path", "", false, "")
	addRunFlags(stageCmd)

	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().SortFlags = false
	switches.addFlag(loadCmd, &loadParams.Table, "table", "", true, " (songplays | users | songs | artists | time)")
	switches.addFlag(loadCmd, &loadParams.Mode, "mode", "", false, "")
	addRunFlags(loadCmd)

	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().SortFlags = false
	addRunFlags(checkCmd)
}
