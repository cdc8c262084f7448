package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theopenlane/eushield/internal/compliance"
	"github.com/theopenlane/eushield/internal/document"
	"github.com/theopenlane/eushield/internal/scoring"
)

// scanCmd analyzes one page from the command line and prints the result as JSON
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "analyze a page and print the verdict",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := scan(cmd.Context(), args[0])
		cobra.CheckErr(err)
	},
}

// scanOutput is what scan prints
type scanOutput struct {
	*compliance.Analysis
	// Reason is set when no verdict could be reached
	Reason string `json:"reason,omitempty"`
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("html", "", "file holding the rendered html of the page")
	scanCmd.Flags().Bool("text", false, "include the extracted text in the output")
}

func scan(ctx context.Context, pageURL string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	detector, err := setupDetector(cfg.Prober)
	if err != nil {
		return err
	}

	var doc compliance.Document

	if path := k.String("html"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading html: %w", err)
		}

		page, err := document.Parse(string(raw))
		if err != nil {
			return err
		}

		doc = page
	}

	if cfg.Server.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.Server.AnalyzeTimeout)
		defer cancel()
	}

	analysis, err := detector.Run(ctx, pageURL, doc)

	out, err := newScanOutput(analysis, err, k.Bool("text"))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

// newScanOutput turns a pipeline outcome into printable output. A site with no
// relevant pages gets the grey fallback; any other failure is returned. The
// extracted text is only kept when includeText is set.
func newScanOutput(analysis *compliance.Analysis, err error, includeText bool) (scanOutput, error) {
	switch {
	case compliance.IsNoPagesFound(err):
		return scanOutput{
			Analysis: &compliance.Analysis{
				Scoring: compliance.FallbackResult(scoring.Default().TotalPossibleSignals()),
			},
			Reason: compliance.ErrNoPagesFound.Error(),
		}, nil
	case err != nil:
		return scanOutput{}, err
	default:
		out := *analysis
		if !includeText {
			out.Detection.Text = ""
		}

		return scanOutput{Analysis: &out}, nil
	}
}
