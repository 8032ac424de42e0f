package initcmd

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/certwatch-app/cw-certshow/internal/config"
)

// NewWelcomeForm creates the welcome and file configuration form.
func NewWelcomeForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cw-certshow setup!").
				Description("This wizard creates a configuration file for cw-certshow.\n\n"+
					"You'll choose:\n"+
					"  • Which driver answers lookups by default (openssl or stream)\n"+
					"  • Timeouts for the openssl subprocess and raw socket drivers\n"+
					"  • Optional extra named drivers"),

			huh.NewInput().
				Title("Config file path").
				Description("Where to save the configuration file").
				Placeholder("./certshow.yaml").
				Value(&state.ConfigPath).
				Validate(ValidateConfigPath),
		),
	).WithTheme(CreateTheme())
}

// NewGeneralForm creates the general configuration form.
func NewGeneralForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("General Settings").
				Description("How lookups are run"),

			huh.NewSelect[string]().
				Title("Default Driver").
				Description("Used when --driver is not given").
				Options(
					huh.NewOption("openssl (runs the openssl binary, reports verify codes)", config.DriverOpenSSL),
					huh.NewOption("stream (native TLS sockets, STARTTLS aware)", config.DriverStream),
				).
				Value(&state.DefaultDriver),

			huh.NewInput().
				Title("Concurrency").
				Description(fmt.Sprintf("Targets looked up in parallel (1 to %d)", config.MaxConcurrency)).
				Placeholder("1").
				Value(&state.Concurrency).
				Validate(ValidateConcurrency),

			huh.NewSelect[string]().
				Title("Log Level").
				Description("Logging verbosity").
				Options(
					huh.NewOption("Debug (verbose)", "debug"),
					huh.NewOption("Info (recommended)", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error (quiet)", "error"),
				).
				Value(&state.LogLevel),

			huh.NewInput().
				Title("Serve Address").
				Description("Listen address for 'cw-certshow serve'").
				Placeholder(config.DefaultListen).
				Value(&state.ServerListen).
				Validate(ValidateListen),
		),
	).WithTheme(CreateTheme())
}

// NewOpenSSLForm creates the openssl driver configuration form.
func NewOpenSSLForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("openssl Driver").
				Description("Runs 'openssl s_client' and 'openssl x509' for each target"),

			huh.NewInput().
				Title("Binary").
				Description("openssl executable name or absolute path").
				Placeholder(config.DefaultBinary).
				Value(&state.OpenSSLBinary).
				Validate(ValidateBinary),

			huh.NewSelect[string]().
				Title("Process Timeout").
				Description("Maximum run time of each openssl invocation").
				Options(
					huh.NewOption("5 seconds", "5s"),
					huh.NewOption("10 seconds (recommended)", "10s"),
					huh.NewOption("30 seconds", "30s"),
					huh.NewOption("1 minute", "1m0s"),
				).
				Value(&state.ProcessTimeout),

			huh.NewSelect[string]().
				Title("HTTP Timeout").
				Description("Timeout for id-ad-caIssuers downloads").
				Options(
					huh.NewOption("10 seconds", "10s"),
					huh.NewOption("30 seconds", "30s"),
					huh.NewOption("1 minute (recommended)", "1m0s"),
				).
				Value(&state.HTTPTimeout),
		),
	).WithTheme(CreateTheme())
}

// NewStreamForm creates the stream driver configuration form.
func NewStreamForm(state *WizardState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("stream Driver").
				Description("Connects directly and negotiates STARTTLS on ports 25, 587, 110 and 143"),

			huh.NewSelect[string]().
				Title("Timeout").
				Description("Connect, STARTTLS and handshake budget per target").
				Options(
					huh.NewOption("5 seconds", "5s"),
					huh.NewOption("10 seconds (recommended)", "10s"),
					huh.NewOption("30 seconds", "30s"),
				).
				Value(&state.StreamTimeout),

			huh.NewConfirm().
				Title("Add extra named drivers?").
				Description("For example a second stream driver with a longer timeout").
				Value(&state.AddDrivers).
				Affirmative("Yes").
				Negative("No"),
		),
	).WithTheme(CreateTheme())
}

// NewDriverForm creates an additional driver entry form.
func NewDriverForm(state *WizardState, driverNum int) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Driver #%d", driverNum)).
				Description("Select it at lookup time with --driver NAME"),

			huh.NewInput().
				Title("Name").
				Description("Lowercase letters, digits, dashes and underscores").
				Placeholder("slow-stream").
				Value(&state.CurrentDriver.Name).
				Validate(ValidateDriverName),

			huh.NewSelect[string]().
				Title("Driver").
				Options(
					huh.NewOption("stream", config.DriverStream),
					huh.NewOption("openssl", config.DriverOpenSSL),
				).
				Value(&state.CurrentDriver.Kind).
				Validate(ValidateDriverKind),

			huh.NewInput().
				Title("Timeout").
				Description("Leave empty for the driver default").
				Placeholder("30s").
				Value(&state.CurrentDriver.Timeout).
				Validate(ValidateOptionalTimeout),

			huh.NewConfirm().
				Title("Add another driver?").
				Value(&state.AddAnother).
				Affirmative("Yes").
				Negative("No"),
		),
	).WithTheme(CreateTheme())
}

// NewOverwriteConfirmForm creates a form to confirm file overwrite.
func NewOverwriteConfirmForm(state *WizardState, path string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("File '%s' already exists. Overwrite?", path)).
				Description("The existing file will be replaced with the new configuration.").
				Value(&state.OverwriteFile).
				Affirmative("Yes, overwrite").
				Negative("No, cancel"),
		),
	).WithTheme(CreateTheme())
}
