// Package cli provides the recall command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driven/config/file"
	"github.com/custodia-labs/recall/internal/adapters/driven/imaging"
	"github.com/custodia-labs/recall/internal/adapters/driven/ocr"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/recall/internal/connectors/filesystem"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/core/services"
	"github.com/custodia-labs/recall/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// credits is printed by --credits.
const credits = `recall - OCR and search for text in your photos.
OCR by Tesseract (Apache-2.0), an external command, or Google Cloud Vision.
The default command engine is ocrs (models CC-BY-SA-4.0 by Robert Knight; see https://huggingface.co/robertknight/ocrs).`

// Global flags.
var (
	verbose   bool
	dataDir   string
	configDir string
	ephemeral bool
)

// Root command flags.
var (
	globalSearch bool
	numThreads   int
	showCredits  bool
	rootEngine   string
)

// Services used by commands. Tests replace them with mocks; otherwise they
// are built on first use and their resources released by Execute.
var (
	settingsService driving.SettingsService
	searchService   driving.SearchService
	imageService    driving.ImageService
	ingestService   driving.IngestService
	watchService    driving.WatchService
)

// resources holds what the lazily built services own.
var resources struct {
	db     *sqlite.Store
	images driven.ImageStore
	engine driven.OCREngine
	source *filesystem.Connector
}

var rootCmd = &cobra.Command{
	Use:   "recall [query] [directory]",
	Short: "OCR and search for text in your photos",
	Long: `Recall runs OCR over the photos in a directory, stores the text it finds
and lets you search it.

Without a subcommand, recall ingests the directory (default: the current
directory) and, when a query is given, prints the paths of matching photos.

Examples:
  recall                       # ingest photos in the current directory
  recall "parking level" ~/Pictures
  recall -g receipt            # search every photo ever ingested`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the database (default ~/.recall/data)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding config.toml (default ~/.recall)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"use default settings and keep results in memory; nothing is read from or written to disk\n"+
			"(the in-memory store has no full-text index, so --mode fulltext is rejected)")

	rootCmd.Flags().BoolVarP(&globalSearch, "global", "g", false, "search every stored photo, not just the directory")
	rootCmd.Flags().IntVarP(&numThreads, "num-threads", "n", 0, "photos to process in parallel (default: number of CPUs)")
	rootCmd.Flags().BoolVar(&showCredits, "credits", false, "show credits and license information")
	rootCmd.Flags().StringVarP(&rootEngine, "engine", "e", "", "OCR engine for this run: tesseract, command or vision (default: ocr.engine)")
}

// Execute runs the root command and releases resources opened along the way.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeResources()

	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

func runRoot(cmd *cobra.Command, args []string) error {
	if showCredits {
		cmd.Println(credits)
		return nil
	}

	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}

	settings, err := currentSettings()
	if err != nil {
		return err
	}
	ingest, err := requireIngest(cmd.Context(), rootEngine)
	if err != nil {
		return err
	}

	report, err := ingest.Ingest(cmd.Context(), domain.IngestOptions{
		Directory:     dir,
		Recursive:     settings.Ingest.Recursive,
		IncludeHidden: settings.Ingest.IncludeHidden,
		Workers:       numThreads,
		Progress:      progressPrinter(cmd),
	})
	if report != nil {
		printReportSummary(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if len(args) == 0 {
		return nil
	}

	search, err := requireSearch()
	if err != nil {
		return err
	}
	results, err := search.Search(cmd.Context(), args[0], domain.SearchOptions{
		Directory: dir,
		Global:    globalSearch,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	for i := range results {
		cmd.Println(results[i].Image.Path)
	}
	return nil
}

// currentSettings loads settings through the settings service.
func currentSettings() (*domain.AppSettings, error) {
	svc, err := requireSettings()
	if err != nil {
		return nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

func requireSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	var store driven.ConfigStore = memory.NewConfigStore()
	if !ephemeral {
		fileStore, err := file.NewConfigStore(configDir)
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		store = fileStore
	}
	logger.Debug("Config: %s", store.Path())
	settingsService = services.NewSettingsService(store, services.WithDefaultEngine(ocr.DefaultEngine()))
	return settingsService, nil
}

// openImages returns the image store, opening the database on first use.
func openImages() (driven.ImageStore, error) {
	if resources.images != nil {
		return resources.images, nil
	}
	if ephemeral {
		logger.Debug("Database: in memory")
		resources.images = memory.NewImageStore()
		return resources.images, nil
	}
	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("Database: %s", db.Path())
	resources.db = db
	resources.images = db.ImageStore()
	return resources.images, nil
}

func requireSearch() (driving.SearchService, error) {
	if searchService != nil {
		return searchService, nil
	}
	settings, err := currentSettings()
	if err != nil {
		return nil, err
	}
	images, err := openImages()
	if err != nil {
		return nil, err
	}
	searchService = services.NewSearchService(images, settings.Search)
	return searchService, nil
}

func requireImages() (driving.ImageService, error) {
	if imageService != nil {
		return imageService, nil
	}
	images, err := openImages()
	if err != nil {
		return nil, err
	}
	imageService = services.NewImageService(images)
	return imageService, nil
}

// requireIngest builds the ingest pipeline. engine overrides ocr.engine when set.
func requireIngest(ctx context.Context, engine string) (driving.IngestService, error) {
	if ingestService != nil {
		return ingestService, nil
	}
	settings, err := currentSettings()
	if err != nil {
		return nil, err
	}
	if engine != "" {
		settings.OCR.Engine = domain.EngineType(engine)
	}
	if err := requireValidSettings(settings); err != nil {
		return nil, err
	}

	images, err := openImages()
	if err != nil {
		return nil, err
	}
	ocrEngine, err := ocr.CreateEngine(ctx, settings)
	if err != nil {
		if errors.Is(err, domain.ErrEngineUnavailable) {
			return nil, fmt.Errorf("%w. Run 'recall settings set ocr.engine <engine>' to choose another engine", err)
		}
		return nil, err
	}
	resources.engine = ocrEngine
	resources.source = filesystem.New()
	logger.Debug("OCR engine: %s", ocrEngine.Name())

	ingestService = services.NewIngestService(
		images,
		resources.source,
		ocrEngine,
		imaging.NewPreprocessor(settings.OCR.MaxDimension),
		services.IngestConfigFromSettings(settings),
	)
	return ingestService, nil
}

func requireWatch(ctx context.Context) (driving.WatchService, error) {
	if watchService != nil {
		return watchService, nil
	}
	settings, err := currentSettings()
	if err != nil {
		return nil, err
	}
	ingest, err := requireIngest(ctx, "")
	if err != nil {
		return nil, err
	}
	if resources.source == nil {
		resources.source = filesystem.New()
	}
	watchService = services.NewWatchService(ingest, resources.source, settings.Ingest.Extensions)
	return watchService, nil
}

func requireValidSettings(settings *domain.AppSettings) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	if err := svc.Validate(settings); err != nil {
		return fmt.Errorf("%w. Run 'recall settings' to review", err)
	}
	return nil
}

// closeResources releases everything opened by the require helpers.
func closeResources() {
	if resources.source != nil {
		resources.source.Close() //nolint:errcheck
		resources.source = nil
	}
	if resources.engine != nil {
		if err := resources.engine.Close(); err != nil {
			logger.Warn("closing OCR engine: %v", err)
		}
		resources.engine = nil
	}
	if resources.db != nil {
		if err := resources.db.Close(); err != nil {
			logger.Warn("closing database: %v", err)
		}
		resources.db = nil
	}
	resources.images = nil
}
