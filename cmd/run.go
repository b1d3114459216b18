package cmd

import (
	"os"

	"github.com/sparkify/sparkify-etl/actions"
	"github.com/spf13/cobra"
)

var planFormat string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every task in order, retrying failed tasks",
	Long: `Run the task list shown by "plan": create tables, stage both staging tables, 
load the dimensions, load the fact table and run the quality checks. A failed task is 
retried after a delay; the run stops when a task has used up its retries.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline()
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the ordered task list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan()
	},
}

func runPipeline() error {
	return actions.RunPipeline(getRunConfig())
}

func runPlan() error {
	return actions.RunPlan(planFormat, os.Stdout)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	switches.addFlag(runCmd, &runCfg.Retries, "retries", "-1", false, "")
	switches.addFlag(runCmd, &runCfg.RetryDelay, "retry-delay", "", false, "")
	addRunFlags(runCmd)

	rootCmd.AddCommand(planCmd)
	planCmd.Flags().SortFlags = false
	switches.addFlag(planCmd, &planFormat, "output", "yaml", false, "")
}
