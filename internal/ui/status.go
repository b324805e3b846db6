package ui

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
)

// Status kinds.
const (
	StatusInfo    = ""
	StatusError   = "error"
	StatusSuccess = "success"
)

var (
	statusInfoColor    = lipgloss.Color("250")
	statusErrorColor   = lipgloss.Color("203")
	statusSuccessColor = lipgloss.Color("114")
	footerColor        = lipgloss.Color("244")
)

// StatusModel is the one-line status bar: the last flash message, or the
// cursor position when there is none.
type StatusModel struct {
	Msg  string
	Type string
	// Row is the 1-based position of the selected row among all matches.
	Row, Total int
	NoColor    bool
	Width      int
}

// Flash sets the message shown until the next key press.
func (s *StatusModel) Flash(kind, msg string) {
	s.Type = kind
	s.Msg = msg
}

// Clear drops the flash message.
func (s *StatusModel) Clear() {
	s.Type = StatusInfo
	s.Msg = ""
}

// View renders the status bar.
func (s StatusModel) View() string {
	msg := s.Msg
	if msg == "" && s.Total > 0 && s.Row > 0 {
		msg = fmt.Sprintf("%d/%d", s.Row, s.Total)
	}
	if s.Width > 0 {
		msg = runewidth.Truncate(msg, s.Width, "...")
	}
	if s.NoColor {
		return msg
	}
	c := statusInfoColor
	switch s.Type {
	case StatusError:
		c = statusErrorColor
	case StatusSuccess:
		c = statusSuccessColor
	}
	return lipgloss.NewStyle().Foreground(c).Render(msg)
}
