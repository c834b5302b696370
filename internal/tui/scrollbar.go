package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// scrollbar renders a vertical bar for a viewport of height rows showing
// content starting at offset. It is always exactly height rows tall; when
// everything fits the thumb fills the track.
type scrollbar struct {
	content int
	height  int
	offset  int

	thumb lipgloss.Style
	track lipgloss.Style
}

func newScrollbar(content, height, offset int) scrollbar {
	return scrollbar{
		content: content,
		height:  height,
		offset:  offset,
		thumb:   lipgloss.NewStyle().Background(colorAccent),
		track:   lipgloss.NewStyle().Foreground(colorCard),
	}
}

// thumbSpan returns the first row and the length of the thumb.
func (s scrollbar) thumbSpan() (top, size int) {
	if s.content <= s.height {
		return 0, s.height
	}
	maxOffset := s.content - s.height
	offset := min(max(s.offset, 0), maxOffset)

	size = min(max(s.height*s.height/s.content, 1), s.height)
	maxTop := s.height - size
	if maxTop > 0 {
		top = offset * maxTop / maxOffset
	}
	return min(top, maxTop), size
}

func (s scrollbar) View() string {
	if s.height <= 0 {
		return ""
	}
	top, size := s.thumbSpan()
	var b strings.Builder
	for i := range s.height {
		if i >= top && i < top+size {
			// a non-breaking space keeps the background escape
			b.WriteString(s.thumb.Render("\u00a0"))
		} else {
			b.WriteString(s.track.Render("│"))
		}
		if i < s.height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
