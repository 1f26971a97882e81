// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driving"
)

// chromeLines is the height taken by the header, input, borders and status bar.
const chromeLines = 10

// View is the single-screen question view: input on top, the answer below
// it and the supporting records underneath.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	answer    viewport.Model
	records   *list.ContextList
	statusbar *status.Bar

	rag driving.RAGService
	ctx context.Context

	width      int
	height     int
	ready      bool
	pending    bool
	focusInput bool
	last       *domain.Answer
	health     domain.Health
}

// NewView creates the ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, rag driving.RAGService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		answer:     viewport.New(76, 6),
		records:    list.NewContextList(s),
		statusbar:  status.NewBar(s, km),
		rag:        rag,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context used for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the input cursor and loads index health.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadHealth())
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.AnswerCompleted:
		v.handleAnswer(msg)
		return v, nil

	case messages.HealthLoaded:
		v.health = msg.Health
		if !msg.Health.IndexLoaded {
			v.statusbar.SetState(status.StateDegraded)
			v.statusbar.SetMessage("no index, run 'hotelrag build'")
		} else {
			v.statusbar.SetMessage(fmt.Sprintf("Index: %d records", msg.Health.EntryCount))
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	if keymap.Matches(keyStr, v.keymap.ScrollUp) || keymap.Matches(keyStr, v.keymap.ScrollDown) {
		var cmd tea.Cmd
		v.answer, cmd = v.answer.Update(msg)
		return v, cmd
	}

	if v.focusInput {
		switch {
		case keymap.Matches(keyStr, v.keymap.Ask):
			query := v.input.Value()
			if query == "" || v.pending {
				return v, nil
			}
			v.pending = true
			v.statusbar.SetState(status.StateAsking)
			return v, v.ask(query)
		case keymap.Matches(keyStr, v.keymap.SwitchFocus):
			v.setFocusInput(false)
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.NewQuestion):
		v.input.Reset()
		v.setFocusInput(true)
		return v, nil
	case keymap.Matches(keyStr, v.keymap.Back), keymap.Matches(keyStr, v.keymap.SwitchFocus):
		v.setFocusInput(true)
		return v, nil
	}
	v.records, _ = v.records.Update(msg)
	return v, nil
}

func (v *View) setFocusInput(focus bool) {
	v.focusInput = focus
	v.statusbar.SetInputFocused(focus)
	if focus {
		v.input.Focus()
	} else {
		v.input.Blur()
	}
}

func (v *View) ask(query string) tea.Cmd {
	rag, ctx := v.rag, v.ctx
	return func() tea.Msg {
		answer, err := rag.AnswerQuery(ctx, query, domain.QueryOptions{})
		return messages.AnswerCompleted{Query: query, Answer: answer, Err: err}
	}
}

func (v *View) loadHealth() tea.Cmd {
	rag := v.rag
	return func() tea.Msg {
		return messages.HealthLoaded{Health: rag.Health()}
	}
}

func (v *View) handleAnswer(msg messages.AnswerCompleted) {
	v.pending = false
	st := msg.Status()
	v.statusbar.SetState(status.StateFor(st))

	if msg.Err != nil {
		v.last = nil
		v.statusbar.SetMessage(msg.Err.Error())
		v.records.SetEntries(nil)
		v.answer.SetContent("")
		return
	}

	v.last = msg.Answer
	v.statusbar.SetMessage("")
	v.statusbar.SetRecordCount(msg.Answer.Context.Len())
	v.records.SetEntries(msg.Answer.Context.Entries)
	v.answer.SetContent(v.renderAnswer(msg.Answer))
	v.answer.GotoTop()

	// Browse the records straight away when there are any.
	v.setFocusInput(msg.Answer.Context.IsEmpty())
}

func (v *View) renderAnswer(a *domain.Answer) string {
	text := a.Text
	if a.Validity == domain.ValidityRejected {
		text = v.styles.Warning.Render(text)
	}
	return lipgloss.NewStyle().Width(v.answer.Width).Render(text)
}

// View renders the screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("Hotel Bookings Q&A"), v.input.View())

	if v.last != nil {
		sections = append(sections, v.styles.Answer.Render(v.answer.View()))
	} else {
		sections = append(sections, v.styles.Muted.Render("Ask a question to see an answer here."))
	}

	panel := v.styles.Panel
	if !v.focusInput {
		panel = v.styles.PanelFocused
	}
	sections = append(sections, panel.Render(v.records.View()), v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions splits the height between the answer and the record list.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	body := height - chromeLines
	if body < 6 {
		body = 6
	}
	v.input.SetWidth(width)
	v.answer.Width = max(20, width-4)
	v.answer.Height = body / 2
	v.records.SetDimensions(width-4, body-body/2)
	v.statusbar.SetWidth(width)

	if v.last != nil {
		v.answer.SetContent(v.renderAnswer(v.last))
	}
}

// InputFocused reports whether keystrokes go to the question input.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Pending reports whether a question is being answered.
func (v *View) Pending() bool {
	return v.pending
}

// LastAnswer returns the most recent successful answer.
func (v *View) LastAnswer() *domain.Answer {
	return v.last
}

// Health returns the index state loaded at start-up.
func (v *View) Health() domain.Health {
	return v.health
}

// Query returns the current question text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the question text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Records returns the context list.
func (v *View) Records() *list.ContextList {
	return v.records
}

// StatusBar returns the status bar.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}
