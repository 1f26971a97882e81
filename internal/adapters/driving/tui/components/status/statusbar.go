// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// State represents what the status bar reports.
type State string

const (
	StateReady    State = "ready"
	StateAsking   State = "asking"
	StateAnswered State = "answered"
	StateNoData   State = "no_data"
	StateDegraded State = "degraded"
	StateError    State = "error"
)

// StateFor maps a query outcome onto a status bar state.
func StateFor(s domain.Status) State {
	switch s {
	case domain.StatusOK:
		return StateAnswered
	case domain.StatusNoData:
		return StateNoData
	case domain.StatusDegraded:
		return StateDegraded
	case domain.StatusBadRequest, domain.StatusInternal:
		return StateError
	default:
		return StateError
	}
}

// Bar displays the query state and keybinding hints.
type Bar struct {
	styles       *styles.Styles
	keymap       *keymap.KeyMap
	state        State
	message      string
	recordCount  int
	inputFocused bool
	width        int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles:       s,
		keymap:       km,
		state:        StateReady,
		inputFocused: true,
		width:        80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateAsking:
		return s.styles.Muted.Render("Retrieving and generating...")
	case StateAnswered:
		return s.styles.Success.Render(fmt.Sprintf("Answered from %d records", s.recordCount))
	case StateNoData:
		return s.styles.Warning.Render("No matching records")
	case StateDegraded:
		return s.styles.Warning.Render("Unavailable: " + s.message)
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateReady:
		if s.message != "" {
			return s.styles.Normal.Render(s.message)
		}
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ContextHelp()
	if s.inputFocused {
		bindings = s.keymap.InputHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		hints = append(hints, hint(b))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

func hint(b key.Binding) string {
	h := b.Help()
	return fmt.Sprintf("%s: %s", h.Key, h.Desc)
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the detail message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the detail message.
func (s *Bar) Message() string {
	return s.message
}

// SetRecordCount sets how many records supported the answer.
func (s *Bar) SetRecordCount(count int) {
	s.recordCount = count
}

// SetInputFocused selects which hints are shown.
func (s *Bar) SetInputFocused(focused bool) {
	s.inputFocused = focused
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets the status bar to its initial state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.recordCount = 0
}
