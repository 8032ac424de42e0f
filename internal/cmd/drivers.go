package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/config"
	"github.com/certwatch-app/cw-certshow/internal/manager"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List the configured drivers",
	Long: `List every driver defined in the configuration, its implementation and
timeouts. The default driver is marked with '*'.

Example:
  cw-certshow drivers -c certshow.yaml`,
	RunE: runDrivers,
}

func init() {
	rootCmd.AddCommand(driversCmd)
}

func runDrivers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return writeDrivers(os.Stdout, manager.New(cfg, zap.NewNop()))
}

// writeDrivers prints one row per configured driver, resolving each through
// the manager so unsupported kinds are reported
func writeDrivers(w io.Writer, mgr *manager.Manager) error {
	cfg := mgr.Config()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tDRIVER\tTIMEOUT\tSTATUS")
	for _, name := range cfg.DriverNames() {
		dc := cfg.Drivers[name]

		marker := " "
		if name == mgr.DefaultDriver() {
			marker = "*"
		}

		status := "ok"
		if _, err := mgr.Driver(name); err != nil {
			status = err.Error()
		}

		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\n", marker, name, dc.Driver, driverTimeout(dc), status)
	}

	return tw.Flush()
}

func driverTimeout(dc config.DriverConfig) string {
	var d time.Duration
	switch dc.Driver {
	case config.DriverOpenSSL:
		d = dc.ProcessTimeout
	default:
		d = dc.Timeout
	}
	if d == 0 {
		return "-"
	}
	return d.String()
}
