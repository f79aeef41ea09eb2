package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	watchRecursive bool
	watchRescan    string
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Ingest photos as they appear",
	Long: `Ingests the directory, then keeps watching it and runs OCR on photos
that are added or changed. A full rescan also runs on the schedule in
watch.rescan (cron syntax, e.g. "@every 1h"). Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", false, "watch subdirectories")
	watchCmd.Flags().StringVar(&watchRescan, "rescan", "", "cron schedule for full rescans (default from settings)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	settings, err := currentSettings()
	if err != nil {
		return err
	}
	svc, err := requireWatch(cmd.Context())
	if err != nil {
		return err
	}

	rescan := settings.Watch.Rescan
	if cmd.Flags().Changed("rescan") {
		rescan = watchRescan
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)

	err = svc.Watch(cmd.Context(), domain.WatchOptions{
		Directory:     dir,
		Recursive:     watchRecursive || settings.Ingest.Recursive,
		IncludeHidden: settings.Ingest.IncludeHidden,
		Rescan:        rescan,
		Progress: func(p domain.IngestProgress) {
			switch p.Outcome {
			case domain.OutcomeProcessed:
				fmt.Fprintf(out, "%s: %d spans\n", p.Path, p.Spans)
			case domain.OutcomeFailed:
				fmt.Fprintf(out, "%s: %v\n", p.Path, p.Err)
			}
		},
	})
	if err != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
