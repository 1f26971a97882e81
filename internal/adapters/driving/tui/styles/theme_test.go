package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme_ColoursSetAndDistinct(t *testing.T) {
	theme := DefaultTheme()
	require.NotNil(t, theme)

	colours := []lipgloss.Color{
		theme.Primary,
		theme.Secondary,
		theme.Success,
		theme.Warning,
		theme.Error,
	}

	seen := make(map[string]bool)
	for _, c := range colours {
		s := string(c)
		assert.NotEmpty(t, s)
		assert.False(t, seen[s], "duplicate colour: %s", s)
		seen[s] = true
	}
	assert.NotEmpty(t, string(theme.Foreground))
	assert.NotEmpty(t, string(theme.Muted))
	assert.NotEmpty(t, string(theme.Border))
}

func TestNewStyles_WithTheme(t *testing.T) {
	theme := DefaultTheme()
	styles := NewStyles(theme)

	require.NotNil(t, styles)
	assert.Same(t, theme, styles.Theme())
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.NotNil(t, styles.Theme())
}

func TestStyles_FocusedPanelUsesPrimaryBorder(t *testing.T) {
	styles := DefaultStyles()

	assert.Equal(t, lipgloss.TerminalColor(styles.Theme().Primary), styles.PanelFocused.GetBorderTopForeground())
	assert.Equal(t, lipgloss.TerminalColor(styles.Theme().Border), styles.Panel.GetBorderTopForeground())
}

func TestStyles_Render(t *testing.T) {
	styles := DefaultStyles()

	assert.Contains(t, styles.Title.Render("Hotel RAG"), "Hotel RAG")
	assert.Contains(t, styles.Answer.Render("42"), "42")
}
