// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/hotelrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/hotelrag/internal/core/domain"
)

// ContextList displays the records retrieved for an answer in rank order.
type ContextList struct {
	entries  []domain.ScoredEntry
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewContextList creates an empty context list.
func NewContextList(s *styles.Styles) *ContextList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ContextList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation keys.
func (c *ContextList) Update(msg tea.Msg) (*ContextList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			c.MoveUp()
		case "down", "j":
			c.MoveDown()
		}
	}
	return c, nil
}

// View renders the list with the selected record expanded.
func (c *ContextList) View() string {
	if len(c.entries) == 0 {
		return c.styles.Muted.Render("No supporting records")
	}

	lines := make([]string, 0, len(c.entries)+4)
	lines = append(lines, c.styles.Subtitle.Render(fmt.Sprintf("Supporting records (%d)", len(c.entries))), "")

	// One line per record plus the expanded text of the selected one.
	visible := c.height - 6
	if visible < 1 {
		visible = 1
	}
	start := 0
	if c.selected >= visible {
		start = c.selected - visible + 1
	}
	end := start + visible
	if end > len(c.entries) {
		end = len(c.entries)
	}

	for i := start; i < end; i++ {
		lines = append(lines, c.renderRow(i))
	}

	if e := c.SelectedEntry(); e != nil {
		lines = append(lines, "", c.styles.Normal.Render(wrap(e.Entry.Text, c.width-4)))
	}
	return strings.Join(lines, "\n")
}

func (c *ContextList) renderRow(i int) string {
	e := c.entries[i]
	hotel, _ := e.Entry.Metadata.String(domain.MetaHotel)
	arrival, _ := e.Entry.Metadata.String(domain.MetaArrivalDate)
	label := fmt.Sprintf("#%d %s %s", e.Entry.DocumentID, hotel, arrival)

	maxLabel := c.width - 16
	if maxLabel < 10 {
		maxLabel = 10
	}
	if len(label) > maxLabel {
		label = label[:maxLabel-3] + "..."
	}

	score := fmt.Sprintf("%.3f", e.Similarity)
	if i == c.selected {
		return c.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", maxLabel, label, score))
	}
	return c.styles.Normal.Render(fmt.Sprintf("  %-*s  ", maxLabel, label)) + c.styles.Muted.Render(score)
}

// wrap breaks text on spaces so no line exceeds width.
func wrap(text string, width int) string {
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	lineLen := 0
	for _, word := range strings.Fields(text) {
		if lineLen > 0 && lineLen+1+len(word) > width {
			b.WriteByte('\n')
			lineLen = 0
		} else if lineLen > 0 {
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}

// SetEntries replaces the list and selects the first entry.
func (c *ContextList) SetEntries(entries []domain.ScoredEntry) {
	c.entries = entries
	c.selected = 0
}

// Entries returns the current entries.
func (c *ContextList) Entries() []domain.ScoredEntry {
	return c.entries
}

// Selected returns the index of the selected entry.
func (c *ContextList) Selected() int {
	return c.selected
}

// SelectedEntry returns the selected entry, or nil when the list is empty.
func (c *ContextList) SelectedEntry() *domain.ScoredEntry {
	if c.selected < 0 || c.selected >= len(c.entries) {
		return nil
	}
	return &c.entries[c.selected]
}

// MoveUp moves selection up.
func (c *ContextList) MoveUp() {
	if c.selected > 0 {
		c.selected--
	}
}

// MoveDown moves selection down.
func (c *ContextList) MoveDown() {
	if c.selected < len(c.entries)-1 {
		c.selected++
	}
}

// SetDimensions sets the component dimensions.
func (c *ContextList) SetDimensions(width, height int) {
	c.width = width
	c.height = height
}

// Count returns the number of entries.
func (c *ContextList) Count() int {
	return len(c.entries)
}
