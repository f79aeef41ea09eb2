package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driven/ocr"
	"github.com/custodia-labs/recall/internal/adapters/driving/tui"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/logger"
)

var tuiGlobal bool

var tuiCmd = &cobra.Command{
	Use:   "tui [directory]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for recall.

Searches are scoped to the directory (default: the current directory)
unless --global is set.

Controls:
  ↑/k, ↓/j - Navigate results
  Enter    - Search / Show text
  Tab      - Cycle match mode
  g        - Toggle directory / all photos
  Settings - Choose match mode, OCR engine and Vision API key from the menu
  Esc      - Back
  q        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVarP(&tuiGlobal, "global", "g", false, "search every stored photo")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) (err error) {
	// bubbletea restores the terminal before a panic reaches here; report it
	// as an error with the stack in the verbose log.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tui panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("tui: %v", r)
		}
	}()

	app, err := newTUIApp(args)
	if err != nil {
		return err
	}
	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// newTUIApp builds the TUI from the configured services.
func newTUIApp(args []string) (*tui.App, error) {
	search, err := requireSearch()
	if err != nil {
		return nil, err
	}
	images, err := requireImages()
	if err != nil {
		return nil, err
	}

	opts := tui.Options{}
	if !tuiGlobal {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		abs, err := absDir(dir)
		if err != nil {
			return nil, err
		}
		opts.Directory = abs
	}
	settingsSvc, err := requireSettings()
	if err != nil {
		return nil, err
	}
	if settings, err := settingsSvc.Get(); err == nil {
		opts.Mode = settings.Search.Mode
	}
	opts.Engines = ocr.AvailableEngines()

	app, err := tui.NewApp(tui.NewPorts(search, images).WithSettings(settingsSvc), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app, nil
}

// absDir resolves dir to the absolute form shown in the TUI header.
func absDir(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
