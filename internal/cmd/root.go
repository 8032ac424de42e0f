// Package cmd provides CLI commands for cw-certshow.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-certshow/internal/config"
	"github.com/certwatch-app/cw-certshow/internal/logging"
	"github.com/certwatch-app/cw-certshow/internal/version"
)

var (
	cfgFile string
	verbose bool

	// configErr holds the read error of a config file named with --config
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cw-certshow",
	Short: "cw-certshow - retrieve the TLS certificates served by remote endpoints",
	Long: `cw-certshow connects to remote endpoints and shows the X.509 certificate,
and optionally the full chain, that they present. Mail ports (25, 587, 110,
143) are upgraded with STARTTLS before the handshake.

Look up a certificate:
  cw-certshow show example.com
  cw-certshow show mail.example.com 587 --driver stream --format text

Drivers and timeouts are configured in certshow.yaml; create one with:
  cw-certshow init`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./certshow.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Bind flags to viper
	//nolint:errcheck // error is ignored because the flag is guaranteed to exist
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "certshow"))
		}
		viper.AddConfigPath("/etc/certshow")
		viper.SetConfigType("yaml")
		viper.SetConfigName("certshow")
	}

	// Read environment variables with CERTSHOW_ prefix
	viper.SetEnvPrefix("CERTSHOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	err := viper.ReadInConfig()
	switch {
	case err == nil:
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	case cfgFile != "":
		configErr = fmt.Errorf("failed to read config file: %w", err)
	}
}

// loadConfig loads and validates the configuration
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newLogger creates the logger for cfg; --verbose forces debug level
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(level)
}

// GetVersion returns the version information
func GetVersion() string {
	return version.GetVersion()
}
