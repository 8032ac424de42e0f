package initcmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/certwatch-app/cw-certshow/internal/output"
)

// Wizard manages the interactive configuration wizard.
type Wizard struct {
	state      *WizardState
	outputPath string
}

// NewWizard creates a new wizard instance.
func NewWizard() *Wizard {
	return &Wizard{
		state: NewWizardState(),
	}
}

// SetOutputPath sets the output path (from command line flag).
func (w *Wizard) SetOutputPath(path string) {
	w.outputPath = path
	if path != "" {
		w.state.ConfigPath = path
	}
}

// Run executes the wizard flow.
func (w *Wizard) Run() error {
	// Setup signal handling for graceful Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println()
		fmt.Println(output.Warning("Setup canceled by user"))
		os.Exit(0)
	}()

	fmt.Println()
	fmt.Println(RenderHeader())
	fmt.Println()

	// Step 1: Welcome and file configuration
	if err := NewWelcomeForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 2: Check for existing file
	if err := w.handleExistingFile(); err != nil {
		return err
	}

	// Step 3: General settings
	fmt.Println(RenderSection("General Settings"))
	if err := NewGeneralForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 4: Built-in drivers
	fmt.Println(RenderSection("openssl Driver"))
	if err := NewOpenSSLForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	fmt.Println(RenderSection("stream Driver"))
	if err := NewStreamForm(w.state).Run(); err != nil {
		return w.handleError(err)
	}

	// Step 5: Extra drivers (loop)
	if w.state.AddDrivers {
		fmt.Println(RenderSection("Extra Drivers"))
		if err := w.runDriverForms(); err != nil {
			return w.handleError(err)
		}
	}

	// Step 6: Generate and validate config
	cfg, err := w.state.ToConfig()
	if err != nil {
		return w.handleError(fmt.Errorf("failed to create configuration: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return w.handleValidationError(err)
	}

	// Step 7: Write config file
	fmt.Println()
	if err := WriteConfig(cfg, w.state.ConfigPath); err != nil {
		return w.handleError(err)
	}

	// Step 8: Show success and next steps
	w.showSuccess()

	return nil
}

func (w *Wizard) runDriverForms() error {
	driverNum := 1
	seen := make(map[string]bool)

	for {
		w.state.ResetCurrentDriver()

		if err := NewDriverForm(w.state, driverNum).Run(); err != nil {
			return err
		}

		name := strings.TrimSpace(w.state.CurrentDriver.Name)
		if seen[name] {
			fmt.Println(output.Warning(fmt.Sprintf("Driver '%s' was already added, skipping", name)))
		} else {
			seen[name] = true
			w.state.SaveCurrentDriver()
		}

		if !w.state.AddAnother {
			break
		}

		driverNum++
	}

	return nil
}

func (w *Wizard) handleExistingFile() error {
	if !FileExists(w.state.ConfigPath) {
		return nil
	}

	form := NewOverwriteConfirmForm(w.state, w.state.ConfigPath)
	if err := form.Run(); err != nil {
		return w.handleError(err)
	}

	if !w.state.OverwriteFile {
		fmt.Println(output.Warning("Setup canceled: file already exists"))
		os.Exit(0)
	}

	return nil
}

func (w *Wizard) handleError(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println()
		fmt.Println(output.Warning("Setup canceled"))
		os.Exit(0)
	}
	fmt.Println()
	fmt.Println(output.Error(err.Error()))
	return err
}

func (w *Wizard) handleValidationError(err error) error {
	fmt.Println()
	fmt.Println(output.Error("Configuration validation failed:"))
	fmt.Println(output.Error("  " + err.Error()))
	fmt.Println()
	fmt.Println(output.Info("Please run 'cw-certshow init' again with corrected values."))
	return err
}

func (w *Wizard) showSuccess() {
	fmt.Println()
	fmt.Println(output.Success("Config written to " + w.state.ConfigPath))
	fmt.Println(output.Success("Validated successfully"))
	fmt.Println()

	// Show summary
	fmt.Println(output.TitleStyle.Render("Configuration Summary:"))
	fmt.Println(output.MutedStyle.Render("  Default driver: ") + w.state.DefaultDriver)
	fmt.Println(output.MutedStyle.Render("  Drivers:        ") + strings.Join(w.state.DriverNames(), ", "))
	fmt.Println(output.MutedStyle.Render("  Concurrency:    ") + w.state.Concurrency)
	fmt.Println(output.MutedStyle.Render("  Log level:      ") + w.state.LogLevel)
	fmt.Println()

	fmt.Println(output.TitleStyle.Render("Next steps:"))
	fmt.Println()
	fmt.Println("  To validate your config:")
	fmt.Println("    " + output.Code("cw-certshow validate -c "+w.state.ConfigPath))
	fmt.Println()
	fmt.Println("  To look up a certificate:")
	fmt.Println("    " + output.Code("cw-certshow show example.com -c "+w.state.ConfigPath))
	fmt.Println()
}

// RunNonInteractive writes a configuration built from CERTSHOW_*
// environment variables, falling back to defaults for unset ones.
func RunNonInteractive(outputPath string) error {
	state := NewWizardState()
	state.ConfigPath = outputPath

	if err := ValidateConfigPath(state.ConfigPath); err != nil {
		return err
	}

	envs := []struct {
		key      string
		target   *string
		validate func(string) error
	}{
		{"CERTSHOW_DEFAULT", &state.DefaultDriver, ValidateDriverKind},
		{"CERTSHOW_LOG_LEVEL", &state.LogLevel, nil},
		{"CERTSHOW_CONCURRENCY", &state.Concurrency, ValidateConcurrency},
		{"CERTSHOW_SERVER_LISTEN", &state.ServerListen, ValidateListen},
		{"CERTSHOW_OPENSSL_BINARY", &state.OpenSSLBinary, ValidateBinary},
		{"CERTSHOW_PROCESS_TIMEOUT", &state.ProcessTimeout, ValidateTimeout},
		{"CERTSHOW_HTTP_TIMEOUT", &state.HTTPTimeout, ValidateTimeout},
		{"CERTSHOW_STREAM_TIMEOUT", &state.StreamTimeout, ValidateTimeout},
	}

	for _, e := range envs {
		value := strings.TrimSpace(os.Getenv(e.key))
		if value == "" {
			continue
		}
		if e.validate != nil {
			if err := e.validate(value); err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
		}
		*e.target = value
	}

	// Convert and validate
	cfg, err := state.ToConfig()
	if err != nil {
		return fmt.Errorf("failed to create configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := WriteConfig(cfg, state.ConfigPath); err != nil {
		return err
	}

	fmt.Println(output.Success("Config written to " + state.ConfigPath))
	return nil
}
