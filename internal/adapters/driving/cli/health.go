package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report index status",
	Long: `Reports whether an index is loaded, how many records it holds and the
embedding dimension. Exits non-zero when no index is available.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	h := ragService.Health()

	if healthJSON {
		data, err := json.MarshalIndent(h, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal health: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Println("Index Status")
		cmd.Println("============")
		if h.IndexLoaded {
			cmd.Printf("  Loaded: yes\n")
			cmd.Printf("  Records: %d\n", h.EntryCount)
			cmd.Printf("  Dimension: %d\n", h.Dimension)
			if !h.BuiltAt.IsZero() {
				cmd.Printf("  Built: %s\n", h.BuiltAt.Local().Format(time.DateTime))
			}
		} else {
			cmd.Printf("  Loaded: no\n")
			cmd.Println("Run 'hotelrag build' to create the index.")
		}
	}

	if !h.IndexLoaded {
		return domain.ErrIndexNotLoaded
	}
	return nil
}
