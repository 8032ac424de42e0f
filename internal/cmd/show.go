package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/certwatch-app/cw-certshow/internal/manager"
	"github.com/certwatch-app/cw-certshow/internal/output"
	"github.com/certwatch-app/cw-certshow/internal/ssl"
)

var (
	showDriver       string
	showTargets      []string
	showOptions      []string
	showChain        bool
	showCAIssuers    bool
	showDER          bool
	showCryptoMethod string
	showFormat       string
	showPretty       bool
)

var showCmd = &cobra.Command{
	Use:   "show [HOST [PORT]]",
	Short: "Show the certificate presented by one or more endpoints",
	Long: `Connect to each target and print the certificate it presents.

Targets are given as HOST [PORT] arguments and/or repeated --target flags.
The port defaults to 443. Lookups that fail are reported with an error
message and do not stop the remaining targets.

With --ca-issuers the host is an id-ad-caIssuers URL and the issuer
certificate is downloaded instead of connecting to a TLS endpoint.

Examples:
  cw-certshow show example.com
  cw-certshow show mail.example.com 25 --driver stream --format text
  cw-certshow show -t example.com:443 -t imap.example.com:143 --pretty
  cw-certshow show http://crt.example.com/ca.der --ca-issuers --der
  cw-certshow show example.com -o crypto_method=tlsv1.2_client`,
	Args: cobra.MaximumNArgs(2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	f := showCmd.Flags()
	f.StringVarP(&showDriver, "driver", "d", "", "driver name from the configuration (default: the configured default)")
	f.StringArrayVarP(&showTargets, "target", "t", nil, "target as host[:port], may be repeated")
	f.StringArrayVarP(&showOptions, "option", "o", nil, "lookup option as key=value, may be repeated")
	f.BoolVar(&showChain, "chain", true, "capture the full peer certificate chain")
	f.BoolVar(&showCAIssuers, "ca-issuers", false, "treat the host as an id-ad-caIssuers URL")
	f.BoolVar(&showDER, "der", false, "the downloaded certificate is DER encoded")
	f.StringVar(&showCryptoMethod, "crypto-method", "", "TLS version selection (tls_client, any_client, tlsv1.0_client ... tlsv1.3_client)")
	f.StringVarP(&showFormat, "format", "f", "json", "output format: json or text")
	f.BoolVar(&showPretty, "pretty", false, "indent JSON output")
}

func runShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(showFormat)
	if err != nil {
		return err
	}

	questions, err := showQuestions(args, showTargets)
	if err != nil {
		return err
	}

	opts, err := showLookupOptions(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	driver, err := manager.New(cfg, logger).Driver(showDriver)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := driver.Show(ctx, questions, opts)
	if err != nil {
		return err
	}

	return output.Write(os.Stdout, format, results, showPretty)
}

// showQuestions combines positional HOST [PORT] with --target values
func showQuestions(args, targets []string) ([]ssl.Question, error) {
	var questions []ssl.Question

	switch len(args) {
	case 1:
		questions = append(questions, ssl.ParseTarget(args[0]))
	case 2:
		questions = append(questions, ssl.Question{Host: args[0], Port: args[1]})
	}

	for _, t := range targets {
		questions = append(questions, ssl.ParseTarget(t))
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: at least one target is required", ssl.ErrInvalidArgument)
	}

	return questions, nil
}

// showLookupOptions merges --option pairs with the dedicated flags; flags
// that were set explicitly win.
func showLookupOptions(cmd *cobra.Command) (ssl.Options, error) {
	raw, err := parseOptionPairs(showOptions)
	if err != nil {
		return ssl.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("chain") {
		raw[ssl.OptionChain] = showChain
	}
	if flags.Changed("ca-issuers") {
		raw[ssl.OptionCAIssuers] = showCAIssuers
	}
	if flags.Changed("der") {
		if showDER {
			raw[ssl.OptionDER] = true
		} else {
			delete(raw, ssl.OptionDER)
		}
	}
	if flags.Changed("crypto-method") {
		raw[ssl.OptionCryptoMethod] = showCryptoMethod
	}

	return ssl.OptionsFromMap(raw)
}

// parseOptionPairs parses key=value pairs; a bare key means true
func parseOptionPairs(pairs []string) (map[string]any, error) {
	raw := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("%w: option %q has no key", ssl.ErrInvalidArgument, pair)
		}
		if !found {
			raw[key] = true
			continue
		}
		raw[key] = strings.TrimSpace(value)
	}
	return raw, nil
}
