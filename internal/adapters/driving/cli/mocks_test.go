package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/recall/internal/adapters/driven/ocr"
	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/services"
)

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	Results   []domain.SearchResult
	Err       error
	LastQuery string
	LastOpts  domain.SearchOptions
}

func (m *MockSearchService) Search(
	_ context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.LastQuery = query
	m.LastOpts = opts
	return m.Results, m.Err
}

// MockImageService implements driving.ImageService for testing.
type MockImageService struct {
	Record     *domain.ImageRecord
	Spans      []domain.TextSpan
	GetErr     error
	StatsValue *domain.ImageStats
	Listed     []domain.ImageRecord
	LastPath   string
	LastFilter domain.ImageFilter
}

func (m *MockImageService) Get(
	_ context.Context, path string,
) (*domain.ImageRecord, []domain.TextSpan, error) {
	m.LastPath = path
	if m.GetErr != nil {
		return nil, nil, m.GetErr
	}
	if m.Record == nil {
		return nil, nil, domain.ErrNotFound
	}
	return m.Record, m.Spans, nil
}

func (m *MockImageService) GetByID(
	_ context.Context, _ string,
) (*domain.ImageRecord, []domain.TextSpan, error) {
	if m.Record == nil {
		return nil, nil, domain.ErrNotFound
	}
	return m.Record, m.Spans, nil
}

func (m *MockImageService) List(_ context.Context, filter domain.ImageFilter) ([]domain.ImageRecord, error) {
	m.LastFilter = filter
	return m.Listed, nil
}

func (m *MockImageService) Stats(_ context.Context) (*domain.ImageStats, error) {
	if m.StatsValue != nil {
		return m.StatsValue, nil
	}
	return &domain.ImageStats{}, nil
}

// MockIngestService implements driving.IngestService for testing.
type MockIngestService struct {
	Report   *domain.IngestReport
	Err      error
	Calls    int
	LastOpts domain.IngestOptions
}

func (m *MockIngestService) Ingest(
	_ context.Context, opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	m.Calls++
	m.LastOpts = opts
	if m.Report != nil {
		return m.Report, m.Err
	}
	return &domain.IngestReport{Directory: opts.Directory, Failures: map[string]string{}}, m.Err
}

func (m *MockIngestService) IngestFile(
	_ context.Context, path string, _ bool,
) (domain.IngestProgress, error) {
	return domain.IngestProgress{Path: path, Outcome: domain.OutcomeProcessed}, nil
}

// MockWatchService implements driving.WatchService for testing.
type MockWatchService struct {
	Err      error
	LastOpts domain.WatchOptions
}

func (m *MockWatchService) Watch(_ context.Context, opts domain.WatchOptions) error {
	m.LastOpts = opts
	return m.Err
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search *MockSearchService
	images *MockImageService
	ingest *MockIngestService
	watch  *MockWatchService
	config *memory.ConfigStore
}

// setupTestServices installs mock services and returns them with a cleanup
// function that restores the previous services and flag values.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		search: &MockSearchService{},
		images: &MockImageService{},
		ingest: &MockIngestService{},
		watch:  &MockWatchService{},
		config: memory.NewConfigStore(),
	}

	origSettings, origSearch, origImages := settingsService, searchService, imageService
	origIngest, origWatch := ingestService, watchService

	settingsService = services.NewSettingsService(ts.config, services.WithDefaultEngine(ocr.DefaultEngine()))
	searchService = ts.search
	imageService = ts.images
	ingestService = ts.ingest
	watchService = ts.watch

	return ts, func() {
		settingsService, searchService, imageService = origSettings, origSearch, origImages
		ingestService, watchService = origIngest, origWatch
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}
}

// resetFlags restores flag variables to their defaults. Cobra keeps parsed
// values, including --help, between Execute calls in the same process.
func resetFlags() {
	resetCommandFlags(rootCmd)
	globalSearch, numThreads, showCredits, ephemeral = false, 0, false, false
	rootEngine = ""
	searchDir, searchGlobal, searchMode = ".", false, ""
	searchLimit, searchOffset, searchJSON = 0, 0, false
	showJSON, statusFailed = false, false
	ingestRecursive, ingestIncludeHidden, ingestForce = false, false, false
	ingestWorkers, ingestEngine = 0, ""
	watchRecursive, watchRescan = false, ""
	tuiGlobal, versionShort = false, false
	mcpPort, mcpHost, mcpIngest = 0, "localhost", false
}

// resetCommandFlags puts every flag of cmd and its subcommands back to its
// default value and clears Changed.
func resetCommandFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue) //nolint:errcheck
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetCommandFlags(sub)
	}
}
