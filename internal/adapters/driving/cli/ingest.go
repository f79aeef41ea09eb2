package cli

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	ingestRecursive     bool
	ingestIncludeHidden bool
	ingestForce         bool
	ingestWorkers       int
	ingestEngine        string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [directory]",
	Short: "Run OCR over the photos in a directory",
	Long: `Runs OCR over every photo in the directory (default: the current
directory) and stores the recognised text.

Photos already processed are skipped unless their contents changed.
Photos that failed are retried.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", false, "descend into subdirectories")
	ingestCmd.Flags().BoolVar(&ingestIncludeHidden, "include-hidden", false, "process hidden files and directories")
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "re-process photos already done")
	ingestCmd.Flags().IntVarP(&ingestWorkers, "workers", "w", 0, "photos to process in parallel (default from settings)")
	ingestCmd.Flags().StringVarP(&ingestEngine, "engine", "e", "", "OCR engine to use for this run")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	settings, err := currentSettings()
	if err != nil {
		return err
	}
	svc, err := requireIngest(cmd.Context(), ingestEngine)
	if err != nil {
		return err
	}

	opts := domain.IngestOptions{
		Directory:     dir,
		Recursive:     ingestRecursive || settings.Ingest.Recursive,
		IncludeHidden: ingestIncludeHidden || settings.Ingest.IncludeHidden,
		Force:         ingestForce,
		Workers:       ingestWorkers,
		Progress:      progressPrinter(cmd),
	}

	report, err := svc.Ingest(cmd.Context(), opts)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

// progressPrinter returns a progress callback that rewrites a single line on
// stderr, or nil when stderr is not a terminal.
func progressPrinter(cmd *cobra.Command) func(domain.IngestProgress) {
	if !isTerminal(cmd) {
		return nil
	}
	out := cmd.ErrOrStderr()
	return func(p domain.IngestProgress) {
		fmt.Fprintf(out, "\rProcessing... %d photos", p.Done)
	}
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.ErrOrStderr().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printReportSummary writes a one-line summary to stderr.
func printReportSummary(cmd *cobra.Command, report *domain.IngestReport) {
	out := cmd.ErrOrStderr()
	if isTerminal(cmd) && report.Handled() > 0 {
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%d photos: %d processed, %d skipped, %d failed (%s)\n",
		report.Discovered, report.Processed, report.Skipped, report.Failed,
		report.Duration.Round(time.Millisecond))
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	printReportSummary(cmd, report)
	if len(report.Failures) == 0 {
		return
	}

	paths := make([]string, 0, len(report.Failures))
	for p := range report.Failures {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	cmd.Println("Failed:")
	for _, p := range paths {
		cmd.Printf("  %s: %s\n", p, report.Failures[p])
	}
}
