package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// snippetLength bounds the record text printed per source.
const snippetLength = 120

var (
	askTopK    int
	askMinSim  float64
	askFilters []string
	askJSON    bool
	askStream  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the bookings",
	Long: `Retrieves the booking records most similar to the question and asks the
language model to answer from them. The records used are listed below the answer.

Filters restrict retrieval to records whose metadata matches exactly:
  hotelrag ask --filter country=FRA --filter hotel="City Hotel" "What was the average rate?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of records to use (default from settings)")
	askCmd.Flags().Float64Var(&askMinSim, "min-sim", 0, "minimum cosine similarity for a record to be used")
	askCmd.Flags().StringArrayVarP(&askFilters, "filter", "f", nil, "metadata filter as key=value (repeatable)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "print the answer as it is generated")
	askCmd.MarkFlagsMutuallyExclusive("json", "stream")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the JSON form of an answer.
type askOutput struct {
	Query     string          `json:"query"`
	Answer    string          `json:"answer"`
	Validity  domain.Validity `json:"validity"`
	NoContext bool            `json:"no_context"`
	Status    domain.Status   `json:"status"`
	Context   []askSource     `json:"context"`
}

type askSource struct {
	ID         int64   `json:"id"`
	Similarity float64 `json:"similarity"`
	Text       string  `json:"text"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	question := strings.Join(args, " ")
	filter, err := parseFilters(askFilters)
	if err != nil {
		return err
	}
	opts := domain.QueryOptions{
		TopK:   askTopK,
		Filter: filter,
	}
	if cmd.Flags().Changed("min-sim") {
		minSim := askMinSim
		opts.MinSimilarity = &minSim
	}

	var answer *domain.Answer
	if askStream {
		out := cmd.OutOrStdout()
		answer, err = ragService.AnswerQueryStream(cmd.Context(), question, opts, func(delta string) {
			fmt.Fprint(out, delta)
		})
		if err == nil {
			cmd.Println()
		}
	} else {
		answer, err = ragService.AnswerQuery(cmd.Context(), question, opts)
	}
	if err != nil {
		return fmt.Errorf("ask failed (%s): %w", domain.StatusOf(err, nil), err)
	}

	if askJSON {
		return outputAskJSON(cmd, answer)
	}
	if !askStream {
		cmd.Println(answer.Text)
	}
	outputSources(cmd, answer)
	return nil
}

func outputAskJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := askOutput{
		Query:     answer.Query,
		Answer:    answer.Text,
		Validity:  answer.Validity,
		NoContext: answer.NoContext,
		Status:    domain.StatusOf(nil, answer),
		Context:   make([]askSource, len(answer.Context.Entries)),
	}
	for i, e := range answer.Context.Entries {
		out.Context[i] = askSource{ID: e.Entry.DocumentID, Similarity: e.Similarity, Text: e.Entry.Text}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSources(cmd *cobra.Command, answer *domain.Answer) {
	if answer.Validity == domain.ValidityRejected {
		cmd.Println("(The model output failed validation.)")
	}
	if answer.Context.IsEmpty() {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for _, e := range answer.Context.Entries {
		cmd.Printf("  [%d] %.3f  %s\n", e.Entry.DocumentID, e.Similarity, truncate(e.Entry.Text, snippetLength))
	}
}

// parseFilters turns key=value pairs into a metadata filter. Values that
// parse as numbers or booleans are typed accordingly.
func parseFilters(pairs []string) (domain.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(domain.Metadata, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: filter %q must be key=value", domain.ErrInvalidInput, pair)
		}
		value = strings.TrimSpace(value)
		switch {
		case value == "true" || value == "false":
			filter[key] = value == "true"
		default:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				filter[key] = n
			} else if f, err := strconv.ParseFloat(value, 64); err == nil {
				filter[key] = f
			} else {
				filter[key] = value
			}
		}
	}
	return filter, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
