package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/recall/internal/adapters/driven/ocr"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/services"
)

// secretKeys are masked on display and read without echo when no value is given.
var secretKeys = map[string]bool{
	"vision.api_key":      true,
	"vision.access_token": true,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change recall settings stored in config.toml.

Use 'recall settings set KEY VALUE' to change a value. List values are
comma separated.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Change a setting",
	Long: `Change a single setting. Secret keys prompt for their value when
VALUE is omitted.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset KEY",
	Short: "Restore a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsReset,
}

var settingsEngineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Select the OCR engine",
	Long:  `Choose the OCR engine interactively from those available in this build.`,
	RunE:  runSettingsEngine,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	settingsCmd.AddCommand(settingsEngineCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	section := ""
	for _, key := range svc.Keys() {
		prefix, _, _ := strings.Cut(key, ".")
		if prefix != section {
			if section != "" {
				cmd.Println()
			}
			section = prefix
			cmd.Printf("[%s]\n", prefix)
		}
		value, _ := services.SettingValue(settings, key)
		cmd.Printf("  %s = %s\n", key, displayValue(key, value))
	}
	cmd.Println()

	cmd.Printf("OCR engine: %s\n", settings.OCR.Engine.Description())
	if err := svc.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'recall settings set KEY VALUE' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	key := strings.ToLower(args[0])
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case secretKeys[key]:
		cmd.Printf("Enter %s: ", key)
		value = readSecret(bufio.NewReader(cmd.InOrStdin()), cmd.InOrStdin())
		cmd.Println()
	default:
		return fmt.Errorf("%w: missing value for %s", domain.ErrInvalidInput, key)
	}

	if err := svc.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, displayValue(key, value))
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	key := strings.ToLower(args[0])
	if err := svc.Reset(key); err != nil {
		return fmt.Errorf("failed to reset %s: %w", key, err)
	}
	defaults := svc.GetDefaults()
	value, _ := services.SettingValue(&defaults, key)
	cmd.Printf("Reset %s to %s\n", key, displayValue(key, value))
	return nil
}

func runSettingsEngine(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select OCR Engine")
	cmd.Println("-----------------")
	engines := ocr.AvailableEngines()
	for i, e := range engines {
		cmd.Printf("  %d. %s\n", i+1, e.Description())
	}
	cmd.Print("\nEnter choice: ")
	idx, ok := pick(readLine(reader), len(engines))
	if !ok {
		return errors.New("invalid selection")
	}

	selected := engines[idx]
	if selected == domain.EngineVision {
		settings, err := svc.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		if !settings.Vision.IsConfigured() {
			cmd.Print("Enter Vision API key: ")
			key := readSecret(reader, cmd.InOrStdin())
			cmd.Println()
			if key == "" {
				return errors.New("API key is required for this engine")
			}
			if err := svc.Set("vision.api_key", key); err != nil {
				return fmt.Errorf("failed to set API key: %w", err)
			}
		}
	}

	if err := svc.Set("ocr.engine", selected.String()); err != nil {
		return fmt.Errorf("failed to set engine: %w", err)
	}
	cmd.Printf("OCR engine set to: %s\n", selected.Description())
	return nil
}

func displayValue(key, value string) string {
	if !secretKeys[key] {
		return value
	}
	if value == "" {
		return "(not set)"
	}
	return mask(value)
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// pick parses a 1-based menu choice out of n options.
func pick(input string, n int) (int, bool) {
	i, err := strconv.Atoi(input)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// readSecret reads a line without echo when in is a terminal.
func readSecret(r *bufio.Reader, in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if b, err := term.ReadPassword(int(f.Fd())); err == nil {
			return string(b)
		}
	}
	return readLine(r)
}

// mask keeps the first and last four characters of long secrets.
func mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
