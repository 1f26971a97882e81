package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/views/ask"
)

// App is the TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports   *Ports
	keymap  *keymap.KeyMap
	askView *ask.View
	width   int
	height  int
	ready   bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:   ports,
		keymap:  km,
		askView: ask.NewView(s, km, ports.RAG),
	}, nil
}

// WithContext sets the context used for queries.
func (a *App) WithContext(ctx context.Context) *App {
	a.askView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("hotelrag"),
		a.askView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.askView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// ctrl+c always quits; q only while not typing a question.
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.askView.InputFocused() && keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
	}

	a.askView, cmd = a.askView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	return a.askView.View()
}

// AskView returns the question view.
func (a *App) AskView() *ask.View {
	return a.askView
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}
