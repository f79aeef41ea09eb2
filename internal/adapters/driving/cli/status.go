package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var statusFailed bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what has been ingested",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFailed, "failed", false, "list photos whose OCR failed")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, err := requireImages()
	if err != nil {
		return err
	}

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Photos:  %d\n", stats.Total)
	cmd.Printf("  done:    %d\n", stats.Done)
	cmd.Printf("  pending: %d\n", stats.Pending)
	cmd.Printf("  failed:  %d\n", stats.Failed)
	cmd.Printf("Text spans: %d\n", stats.Spans)

	if !statusFailed || stats.Failed == 0 {
		return nil
	}

	failed, err := svc.List(cmd.Context(), domain.ImageFilter{Status: domain.StatusFailed})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	cmd.Println()
	cmd.Println("Failed:")
	for i := range failed {
		cmd.Printf("  %s: %s\n", failed[i].Path, failed[i].Error)
	}
	return nil
}
