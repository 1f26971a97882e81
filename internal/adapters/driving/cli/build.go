package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// maxPrintedSkips bounds the rejected records listed after a build.
const maxPrintedSkips = 10

var (
	recordsPath string
	buildJSON   bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the vector index from booking records",
	Long: `Reads the processed bookings CSV, encodes every record as text, embeds it
and replaces the stored index. Records that fail validation are skipped and
listed; queries keep using the previous index until the new one is saved.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&recordsPath, "records", "r", "", "records CSV (default from settings)")
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "output the build report as JSON")
	rootCmd.AddCommand(buildCmd)
}

// buildOutput is the JSON form of a build report.
type buildOutput struct {
	Source     string   `json:"source"`
	Indexed    int      `json:"indexed"`
	Skipped    int      `json:"skipped"`
	Rejections []string `json:"rejections,omitempty"`
	Dimension  int      `json:"dimension"`
	DurationMs int64    `json:"duration_ms"`
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if indexBuilder == nil {
		return errors.New("index builder not configured")
	}

	if !buildJSON {
		cmd.Printf("Building index from %s...\n", indexBuilder.Location())
	}
	report, err := indexBuilder.Rebuild(cmd.Context())
	if err != nil {
		if report != nil && len(report.Skipped) > 0 {
			printSkipped(cmd, report.Skipped)
		}
		return fmt.Errorf("build failed: %w", err)
	}

	if buildJSON {
		out := buildOutput{
			Source:     indexBuilder.Location(),
			Indexed:    report.Indexed,
			Skipped:    len(report.Skipped),
			Dimension:  report.Dimension,
			DurationMs: report.Duration.Milliseconds(),
		}
		for _, s := range report.Skipped {
			out.Rejections = append(out.Rejections, s.Error())
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Indexed %d records (%d skipped) in %s\n",
		report.Indexed, len(report.Skipped), report.Duration.Round(time.Millisecond))
	cmd.Printf("Embedding dimension: %d\n", report.Dimension)
	printSkipped(cmd, report.Skipped)
	return nil
}

func printSkipped(cmd *cobra.Command, skipped []*domain.RecordError) {
	if len(skipped) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Skipped records:")
	for i, s := range skipped {
		if i == maxPrintedSkips {
			cmd.Printf("  ... and %d more\n", len(skipped)-maxPrintedSkips)
			break
		}
		cmd.Printf("  %v\n", s)
	}
}
