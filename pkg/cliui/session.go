package cliui

import (
	"fmt"
	"time"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/utils"
)

// SessionLine renders a one-line session summary for listings.
func SessionLine(s *chat.Session, active bool) string {
	marker := " "
	if active {
		marker = SuccessMark
	}

	title := s.Title
	if title == "" {
		title = "(untitled)"
	}

	return fmt.Sprintf("%s %s  %s  %s",
		marker,
		IDStyle.Render(utils.ShortID(s.ID)),
		ValueStyle.Render(utils.Truncate(title, 48)),
		DimStyle.Render(fmt.Sprintf("%s · %s", s.Model, Ago(s.UpdatedAt, time.Now()))),
	)
}

// Ago formats the time elapsed between t and now coarsely ("3m ago").
func Ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
