package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

var (
	historyLimit  int
	historyOffset int
	historyJSON   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previously answered questions",
	Long:  `Lists answered questions oldest first, with the records each answer used.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries (0 for all)")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "number of oldest entries to skip")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output entries as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	entries, err := ragService.GetHistory(cmd.Context(), historyLimit, historyOffset)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if historyJSON {
		if entries == nil {
			entries = []domain.QueryHistoryEntry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No questions answered yet.")
		return nil
	}
	for i := range entries {
		e := &entries[i]
		cmd.Printf("[%s] %s (%s)\n", e.Timestamp.Local().Format(time.DateTime), e.Query, e.Validity)
		cmd.Printf("  %s\n", truncate(e.Answer, snippetLength))
		if len(e.ContextIDs) > 0 {
			cmd.Printf("  records: %v\n", e.ContextIDs)
		}
	}
	return nil
}
