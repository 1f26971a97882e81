package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// defaultAnswerSystemPrompt is used when no PromptStore is configured.
const defaultAnswerSystemPrompt = `You are an assistant that analyses hotel booking data.
Answer using only the booking records provided. If the records do not contain
the answer, say so clearly. Be concise and quote figures from the records.`

// defaultAnswerPrompt is used when no PromptStore is configured.
// Placeholders: rendered records, then the question.
const defaultAnswerPrompt = `Retrieved booking records:

%s

Question: %s
Answer:`

// noRecordsPlaceholder stands in for the records section when nothing was retrieved.
const noRecordsPlaceholder = "(no records were retrieved)"

// contextFields lists the metadata shown under each record, in order.
var contextFields = []string{
	domain.MetaADR,
	domain.MetaLeadTime,
	domain.MetaArrivalDate,
	domain.MetaTotalRevenue,
	domain.MetaCountry,
	domain.MetaIsCanceled,
	domain.MetaReservationStatus,
	domain.MetaHotel,
	domain.MetaTotalNights,
}

// ComposerConfig tunes prompt construction and generation.
type ComposerConfig struct {
	// Temperature is sent to the model. Low values keep answers grounded.
	Temperature float64

	// TopP is nucleus sampling mass. Zero leaves the provider default.
	TopP float64

	// MaxTokens bounds the generated answer.
	MaxTokens int

	// MaxContextChars bounds the rendered records section.
	MaxContextChars int

	// MaxAnswerChars marks longer output as rejected.
	MaxAnswerChars int

	// GenerateWithoutContext calls the model even when nothing was retrieved.
	GenerateWithoutContext bool

	// MaxAttempts is the total number of generation tries on transient failure.
	MaxAttempts int

	// Backoff is the delay before the retry.
	Backoff time.Duration

	// CallTimeout bounds each generation request.
	CallTimeout time.Duration
}

// DefaultComposerConfig returns the defaults used by the CLI.
func DefaultComposerConfig() ComposerConfig {
	d := domain.DefaultAppSettings()
	return ComposerConfigFrom(d.Composer, d.Resilience)
}

// ComposerConfigFrom maps settings onto a composer config.
// Generation gets one retry regardless of the embedding attempt budget.
func ComposerConfigFrom(c domain.ComposerSettings, r domain.ResilienceSettings) ComposerConfig {
	timeout := time.Duration(r.CallTimeoutSeconds) * time.Second
	if timeout < 60*time.Second {
		timeout = 60 * time.Second
	}
	return ComposerConfig{
		Temperature:            c.Temperature,
		MaxTokens:              c.MaxTokens,
		MaxContextChars:        c.MaxContextChars,
		MaxAnswerChars:         c.MaxAnswerChars,
		GenerateWithoutContext: c.GenerateWithoutContext,
		MaxAttempts:            2,
		Backoff:                time.Duration(r.InitialBackoffMs) * time.Millisecond,
		CallTimeout:            timeout,
	}
}

// Composer builds the grounded prompt and validates the model's answer.
type Composer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     ComposerConfig
	policy  retryPolicy
}

// NewComposer creates an answer composer. llm may be nil, in which case
// every generation fails with domain.ErrGenerationUnavailable.
func NewComposer(llm driven.LLMService, cfg ComposerConfig) *Composer {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = 6000
	}
	if cfg.MaxAnswerChars <= 0 {
		cfg.MaxAnswerChars = 8000
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	return &Composer{
		llm: llm,
		cfg: cfg,
		policy: retryPolicy{
			name:           "generation",
			maxAttempts:    cfg.MaxAttempts,
			initialBackoff: cfg.Backoff,
			maxBackoff:     cfg.Backoff,
			multiplier:     1,
			callTimeout:    cfg.CallTimeout,
		},
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the composer uses the built-in prompts.
func (c *Composer) SetPromptStore(store driven.PromptStore) {
	c.prompts = store
}

// Compose produces an answer for query grounded in rc.
func (c *Composer) Compose(ctx context.Context, query string, rc domain.RetrievedContext) (domain.Answer, error) {
	return c.compose(ctx, query, rc, nil)
}

// ComposeStream is Compose with answer fragments delivered to onDelta as they
// arrive. Providers without streaming deliver the whole answer as one fragment.
func (c *Composer) ComposeStream(
	ctx context.Context, query string, rc domain.RetrievedContext, onDelta func(string),
) (domain.Answer, error) {
	return c.compose(ctx, query, rc, onDelta)
}

func (c *Composer) compose(
	ctx context.Context, query string, rc domain.RetrievedContext, onDelta func(string),
) (domain.Answer, error) {
	answer := domain.Answer{Query: query}

	if rc.IsEmpty() && !c.cfg.GenerateWithoutContext {
		logger.Debug("No context retrieved, skipping generation")
		answer.Text = domain.NoContextAnswerText
		answer.Validity = domain.ValidityEmpty
		answer.NoContext = true
		if onDelta != nil {
			onDelta(answer.Text)
		}
		return answer, nil
	}

	if c.llm == nil {
		return answer, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, domain.ErrNotConfigured)
	}

	records, used := c.renderContext(rc)
	answer.Context = used
	answer.NoContext = used.IsEmpty()
	prompt := fmt.Sprintf(c.answerTemplate(), records, query)
	logger.Debug("Prompt: %d chars, %d of %d records", len(prompt), used.Len(), rc.Len())

	opts := driven.GenerateOptions{
		System:      c.systemPrompt(),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
	}

	// A stream that fails after its first fragment is not retried.
	streamed := false
	sink := onDelta
	if onDelta != nil {
		sink = func(s string) {
			streamed = true
			onDelta(s)
		}
	}

	var text string
	outcome, err := c.policy.do(ctx, func(callCtx context.Context) error {
		var genErr error
		text, genErr = c.generate(callCtx, prompt, opts, sink)
		switch {
		case errors.Is(genErr, domain.ErrMalformedResponse):
			// Malformed output is an answer problem, not an availability problem.
			text = ""
			return nil
		case genErr != nil && streamed:
			return noRetry(fmt.Errorf("stream interrupted after partial output: %w", genErr))
		}
		return genErr
	})
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return answer, ctx.Err()
	default:
		logger.Warn("Generation failed after %d attempts: %v", outcome.attempts, err)
		return answer, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		logger.Warn("Model returned an empty answer")
		answer.Text = domain.RejectedAnswerText
		answer.Validity = domain.ValidityRejected
	case len(text) > c.cfg.MaxAnswerChars:
		logger.Warn("Model answer exceeds %d chars (%d)", c.cfg.MaxAnswerChars, len(text))
		answer.Text = domain.RejectedAnswerText
		answer.Validity = domain.ValidityRejected
	case answer.NoContext:
		answer.Text = text
		answer.Validity = domain.ValidityEmpty
	default:
		answer.Text = text
		answer.Validity = domain.ValidityValid
	}
	return answer, nil
}

func (c *Composer) generate(
	ctx context.Context, prompt string, opts driven.GenerateOptions, onDelta func(string),
) (string, error) {
	if onDelta != nil {
		if streamer, ok := c.llm.(driven.StreamingLLMService); ok {
			return streamer.GenerateStream(ctx, prompt, opts, onDelta)
		}
	}
	text, err := c.llm.Generate(ctx, prompt, opts)
	if err == nil && onDelta != nil {
		onDelta(text)
	}
	return text, err
}

// BuildPrompt returns the user prompt that Compose would send for rc.
func (c *Composer) BuildPrompt(query string, rc domain.RetrievedContext) string {
	records, _ := c.renderContext(rc)
	return fmt.Sprintf(c.answerTemplate(), records, query)
}

// renderContext renders entries in rank order until the character budget is
// spent. Lower-ranked entries are dropped first; a lone entry that exceeds
// the budget is truncated. It returns the text and the entries included.
func (c *Composer) renderContext(rc domain.RetrievedContext) (string, domain.RetrievedContext) {
	if rc.IsEmpty() {
		return noRecordsPlaceholder, domain.RetrievedContext{}
	}

	var b strings.Builder
	used := make([]domain.ScoredEntry, 0, rc.Len())

	for i, e := range rc.Entries {
		block := renderEntry(i+1, e)
		sep := 0
		if b.Len() > 0 {
			sep = 2
		}
		if b.Len()+sep+len(block) > c.cfg.MaxContextChars {
			if len(used) == 0 {
				b.WriteString(truncate(block, c.cfg.MaxContextChars))
				used = append(used, e)
			}
			logger.Debug("Context budget reached, dropped %d records", rc.Len()-len(used))
			break
		}
		if sep > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
		used = append(used, e)
	}

	return b.String(), domain.RetrievedContext{Entries: used}
}

func renderEntry(rank int, e domain.ScoredEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record %d (id=%d, similarity=%.3f):\n%s",
		rank, e.Entry.DocumentID, e.Similarity, e.Entry.Text)

	for _, key := range contextFields {
		v, ok := e.Entry.Metadata[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", key, formatScalar(v))
	}
	return b.String()
}

func formatScalar(v any) string {
	switch n := domain.NormaliseScalar(v).(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', 2, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	case bool:
		return strconv.FormatBool(n)
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary.
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func (c *Composer) systemPrompt() string {
	return c.loadPrompt(driven.PromptAnswerSystem, defaultAnswerSystemPrompt)
}

func (c *Composer) answerTemplate() string {
	tmpl := c.loadPrompt(driven.PromptAnswer, defaultAnswerPrompt)
	if strings.Count(tmpl, "%s") != 2 {
		logger.Warn("Prompt %q must contain exactly two %%s placeholders, using default", driven.PromptAnswer)
		return defaultAnswerPrompt
	}
	return tmpl
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (c *Composer) loadPrompt(name, fallback string) string {
	if c.prompts == nil {
		return fallback
	}
	prompt, err := c.prompts.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}
