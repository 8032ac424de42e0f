package cmd

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/config"
	"github.com/certwatch-app/cw-certshow/internal/manager"
	"github.com/certwatch-app/cw-certshow/internal/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the cw-certshow configuration file and check that every driver
can be created.

Example:
  cw-certshow validate -c /path/to/certshow.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		return configErr
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	mgr := manager.New(cfg, zap.NewNop())
	for _, name := range cfg.DriverNames() {
		if _, err := mgr.Driver(name); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	fmt.Println(output.Success("Configuration is valid!"))
	fmt.Printf("  Default driver: %s\n", cfg.Default)
	fmt.Printf("  Drivers:        %d\n", len(cfg.Drivers))
	fmt.Printf("  Concurrency:    %d\n", cfg.Lookup.Concurrency)
	fmt.Printf("  Log level:      %s\n", cfg.LogLevel)

	// A missing openssl binary only fails at lookup time
	for _, name := range cfg.DriverNames() {
		dc := cfg.Drivers[name]
		if dc.Driver != config.DriverOpenSSL {
			continue
		}
		if _, err := exec.LookPath(dc.Binary); err != nil {
			fmt.Println("  " + output.Warning(fmt.Sprintf("driver %s: %s not found in PATH", name, dc.Binary)))
		}
	}

	return nil
}
