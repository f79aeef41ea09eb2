package cli

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driven/ocr"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long: `Print the recall version along with the Go toolchain, platform and the
OCR engines compiled into this binary. Tesseract is only listed when recall
was built with -tags tesseract.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("recall version %s\n", version)
		if versionShort {
			return
		}
		cmd.Printf("  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  engines: %s\n", engineList())
	},
}

func engineList() string {
	engines := ocr.AvailableEngines()
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}
