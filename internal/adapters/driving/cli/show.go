package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/connectors/filesystem"
	"github.com/custodia-labs/recall/internal/core/domain"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Show the text recognised in a photo",
	Long:  `Shows the stored OCR status and text spans for a single photo.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(showCmd)
}

type imageJSON struct {
	ID          string     `json:"id"`
	Path        string     `json:"path"`
	Status      string     `json:"status"`
	Engine      string     `json:"engine,omitempty"`
	Error       string     `json:"error,omitempty"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	ProcessedAt string     `json:"processed_at,omitempty"`
	Spans       []spanJSON `json:"spans"`
}

func runShow(cmd *cobra.Command, args []string) error {
	svc, err := requireImages()
	if err != nil {
		return err
	}

	rec, spans, err := svc.Get(cmd.Context(), filesystem.ResolvePath(args[0]))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%s has not been ingested", args[0])
		}
		return fmt.Errorf("failed to get image: %w", err)
	}

	if showJSON {
		out := imageJSON{
			ID:     rec.ID,
			Path:   rec.Path,
			Status: rec.Status.String(),
			Engine: rec.Engine,
			Error:  rec.Error,
			Width:  rec.Width,
			Height: rec.Height,
			Spans:  toSpanJSON(spans),
		}
		if !rec.ProcessedAt.IsZero() {
			out.ProcessedAt = rec.ProcessedAt.Format(time.RFC3339)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal image: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Path:   %s\n", rec.Path)
	cmd.Printf("Status: %s\n", rec.Status)
	if rec.Engine != "" {
		cmd.Printf("Engine: %s\n", rec.Engine)
	}
	if rec.Width > 0 {
		cmd.Printf("Size:   %dx%d\n", rec.Width, rec.Height)
	}
	if !rec.ProcessedAt.IsZero() {
		cmd.Printf("Processed: %s\n", rec.ProcessedAt.Format(time.RFC3339))
	}
	if rec.Error != "" {
		cmd.Printf("Error:  %s\n", rec.Error)
	}
	cmd.Println()

	if len(spans) == 0 {
		cmd.Println("No text found.")
		return nil
	}
	cmd.Printf("Text (%d spans):\n", len(spans))
	for i := range spans {
		r := spans[i].Region
		cmd.Printf("  %s  [%d,%d %dx%d] %.0f%%\n",
			oneLine(spans[i].Text), r.X, r.Y, r.Width, r.Height, spans[i].Confidence*100)
	}
	return nil
}
