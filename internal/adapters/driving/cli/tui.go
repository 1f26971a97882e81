package cli

import (
	"errors"
	"fmt"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for hotelrag.

Type a question and press Enter. The answer appears above the booking
records it was drawn from; Tab moves focus to the records list.

Controls:
  Enter      - Ask
  Tab        - Switch between question and records
  ↑/k, ↓/j   - Move through records
  PgUp/PgDn  - Scroll the answer
  n          - New question
  ?          - Toggle help
  q, Ctrl+C  - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	app, err := tui.NewApp(&tui.Ports{RAG: ragService})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("TUI crashed: %v\n%s", r, debug.Stack())
		}
	}()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(cmd.Context())}
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
