package cmd

import (
	"github.com/sparkify/sparkify-etl/actions"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Drop and recreate the staging and analytics tables",
	Long: `Drop every staging and analytics table, then create them again.
Failed statements are logged and rolled back without stopping the command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTables()
	},
}

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Copy the S3 data into staging and build the analytics tables",
	Long: `Copy the event logs and song metadata from S3 into the staging tables, 
then insert the users, songs, artists and time dimensions followed by the songplays 
fact table. Failed statements are logged and rolled back without stopping the command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEtl()
	},
}

func runTables() error {
	return actions.RunCreateTables(getRunConfig())
}

func runEtl() error {
	return actions.RunEtl(getRunConfig())
}

func init() {
	rootCmd.AddCommand(tablesCmd)
	tablesCmd.Flags().SortFlags = false
	addRunFlags(tablesCmd)
	rootCmd.AddCommand(etlCmd)
	etlCmd.Flags().SortFlags = false
	addRunFlags(etlCmd)
}
