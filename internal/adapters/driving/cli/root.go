// Package cli provides the cobra command tree for hotelrag.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	dataDir   string
	configDir string
	inMemory  bool
)

// Services injected by main, or built lazily by the bootstrap hook.
var (
	ragService       driving.RAGService
	analyticsService driving.AnalyticsService
	settingsService  driving.SettingsService
	indexBuilder     driving.IndexBuilder
)

// Services aggregates the driving ports used by the commands.
type Services struct {
	RAG       driving.RAGService
	Analytics driving.AnalyticsService
	Settings  driving.SettingsService
	Builder   driving.IndexBuilder

	// Close releases storage and provider resources. Optional.
	Close func() error
}

// Options are the global flag values passed to the bootstrap hook.
type Options struct {
	DataDir     string
	ConfigDir   string
	RecordsPath string

	// InMemory keeps the index and query history in memory and settings edits unsaved.
	InMemory bool
}

// Bootstrap builds services once flags are parsed.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap     Bootstrap
	closeServices func() error
)

var rootCmd = &cobra.Command{
	Use:   "hotelrag",
	Short: "Ask questions about hotel bookings",
	Long: `hotelrag answers natural-language questions about hotel booking records.

Records are encoded as text, embedded and stored in a vector index. A question
retrieves the most similar records and a language model answers from them.

Get started:
  hotelrag settings llm
  hotelrag settings embedding
  hotelrag build --records data/processed/hotel_bookings_processed.csv
  hotelrag ask "Which bookings came from France?"`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.hotelrag/data)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.hotelrag)")
	rootCmd.PersistentFlags().BoolVar(&inMemory, "in-memory", false, "keep the index, history and settings edits in memory only")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the hook that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects services directly, bypassing the bootstrap hook.
func SetServices(s *Services) {
	if s == nil {
		ragService, analyticsService, settingsService, indexBuilder = nil, nil, nil, nil
		closeServices = nil
		return
	}
	ragService = s.RAG
	analyticsService = s.Analytics
	settingsService = s.Settings
	indexBuilder = s.Builder
	closeServices = s.Close
}

// Execute runs the root command with ctx and releases services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
		closeServices = nil
	}
	return err
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd == versionCmd {
		return nil
	}
	services, err := bootstrap(cmd.Context(), Options{
		DataDir:     dataDir,
		ConfigDir:   configDir,
		RecordsPath: recordsPath,
		InMemory:    inMemory,
	})
	if err != nil {
		return err
	}
	SetServices(services)
	return nil
}

// Exit codes by outcome class.
const (
	ExitOK         = 0
	ExitInternal   = 1
	ExitBadRequest = 2
	ExitDegraded   = 3
)

// ExitCode maps a command error onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch domain.StatusOf(err, nil) {
	case domain.StatusBadRequest:
		return ExitBadRequest
	case domain.StatusDegraded:
		return ExitDegraded
	default:
		return ExitInternal
	}
}
