package cmd

import (
	"net"
	"strconv"

	"github.com/sparkify/sparkify-etl/actions"
	"github.com/sparkify/sparkify-etl/constants"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a web service that runs stage, load and check tasks on request",
	Long: `Start a web service so a scheduler can run one task per HTTP request:

  POST /tasks/stage   {"table": "staging_events", "s3_path": "...", "json_path": "..."}
  POST /tasks/load    {"table": "users", "mode": "truncate-insert"}
  POST /tasks/check
  POST /tasks/tables  {"drop": true}
  GET  /health
  GET  /stop

Failed quality checks answer 422. Tasks run one at a time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveConfig = actions.WebServerConfig{
	Scheme: "http",
	Addr:   net.IP{0, 0, 0, 0},
	Port:   constants.DefaultServePort,
}

func runServe() error {
	serveConfig.Run = *getRunConfig()
	return actions.RunWebServer(&serveConfig)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().SortFlags = false
	serveCmd.Flags().IPVarP(&serveConfig.Addr, "address", "a", net.IP{0, 0, 0, 0}, "Address to listen on")
	switches.addFlag(serveCmd, &serveConfig.Port, "port", strconv.Itoa(constants.DefaultServePort), false, "")
	addRunFlags(serveCmd)
}
