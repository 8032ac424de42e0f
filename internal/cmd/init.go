package cmd

import (
	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certshow/internal/cmd/initcmd"
)

var (
	initOutputPath     string
	initNonInteractive bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new cw-certshow configuration",
	Long: `Interactively create a new cw-certshow configuration file.

The wizard will guide you through setting up:
  • The default driver, concurrency and log level
  • openssl driver binary and timeouts
  • stream driver timeout
  • Additional named drivers

Examples:
  # Interactive mode (default)
  cw-certshow init

  # Specify output path
  cw-certshow init -o /etc/certshow/certshow.yaml

  # Non-interactive mode (for CI/scripting)
  CERTSHOW_DEFAULT=stream CERTSHOW_CONCURRENCY=10 cw-certshow init --non-interactive

Environment variables for non-interactive mode (all optional):
  CERTSHOW_DEFAULT          Default driver: openssl or stream (default: openssl)
  CERTSHOW_LOG_LEVEL        Log level (default: info)
  CERTSHOW_CONCURRENCY      Parallel lookups, 1 to 50 (default: 1)
  CERTSHOW_SERVER_LISTEN    Listen address for serve (default: 127.0.0.1:9403)
  CERTSHOW_OPENSSL_BINARY   openssl executable (default: openssl)
  CERTSHOW_PROCESS_TIMEOUT  openssl run timeout (default: 10s)
  CERTSHOW_HTTP_TIMEOUT     caIssuers download timeout (default: 1m)
  CERTSHOW_STREAM_TIMEOUT   stream driver timeout (default: 10s)`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", "./certshow.yaml",
		"Output path for the configuration file")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false,
		"Run in non-interactive mode using environment variables")
}

func runInit(_ *cobra.Command, _ []string) error {
	if initNonInteractive {
		return initcmd.RunNonInteractive(initOutputPath)
	}

	wizard := initcmd.NewWizard()
	wizard.SetOutputPath(initOutputPath)
	return wizard.Run()
}
