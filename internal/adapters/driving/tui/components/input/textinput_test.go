package input

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/styles"
)

func TestNewQuestionInput(t *testing.T) {
	q := NewQuestionInput(styles.DefaultStyles())

	require.NotNil(t, q)
	assert.True(t, q.Focused())
	assert.Empty(t, q.Value())
	assert.Equal(t, 50, q.Width())
}

func TestNewQuestionInput_NilStyles(t *testing.T) {
	q := NewQuestionInput(nil)

	require.NotNil(t, q)
	assert.NotNil(t, q.styles)
}

func TestQuestionInput_Init(t *testing.T) {
	assert.NotNil(t, NewQuestionInput(nil).Init())
}

func TestQuestionInput_Typing(t *testing.T) {
	q := NewQuestionInput(nil)

	for _, r := range "adr?" {
		q.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	q.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	assert.Equal(t, "adr", q.Value())
}

func TestQuestionInput_ValueIsTrimmed(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetValue("  average rate in July  ")

	assert.Equal(t, "average rate in July", q.Value())
}

func TestQuestionInput_CharLimit(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetValue(strings.Repeat("x", MaxQuestionLength+50))

	assert.Len(t, q.Value(), MaxQuestionLength)
}

func TestQuestionInput_FocusAndBlur(t *testing.T) {
	q := NewQuestionInput(nil)

	q.Blur()
	assert.False(t, q.Focused())

	q.Focus()
	assert.True(t, q.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	q := NewQuestionInput(nil)

	q.SetWidth(100)
	assert.Equal(t, 100, q.Width())
	assert.Equal(t, 90, q.textinput.Width)

	q.SetWidth(10)
	assert.Equal(t, 20, q.textinput.Width)
}

func TestQuestionInput_Reset(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("some text")

	q.Reset()

	assert.Empty(t, q.Value())
}

func TestQuestionInput_View(t *testing.T) {
	q := NewQuestionInput(nil)
	q.SetValue("cancellations")

	view := q.View()

	assert.Contains(t, view, "Ask:")
	assert.Contains(t, view, "cancellations")
}
