package tuicmder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/cliui"
	"github.com/papercomputeco/chatstream/pkg/utils"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	ruleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("24"))
	headingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	focusedHeading = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	userLabel      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	assistantLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	modalStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
)

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	lines := []string{m.viewHeader(), renderRule(m.width)}
	lines = append(lines, m.viewBody()...)
	lines = append(lines, renderRule(m.width), m.input.View(), m.viewFooter())
	return strings.Join(lines, "\n")
}

func (m tuiModel) viewHeader() string {
	left := titleStyle.Render("chatstream")
	if s, ok := m.conv.Active(); ok && s.Title != "" {
		left += "  " + utils.Truncate(s.Title, max(m.width/2, 10))
	}
	right := cliui.KeyStyle.Render("model ") + cliui.NameStyle.Render(m.modelLabel(m.conv.Model()))
	return renderHeaderLine(m.width, left, right)
}

func (m tuiModel) viewBody() []string {
	height := m.bodyHeight()

	if m.focus == focusModels {
		modal := m.viewModels()
		return strings.Split(lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, modal), "\n")
	}

	main := padLines(strings.Split(m.viewport.View(), "\n"), m.mainWidth(), height)
	if !m.sidebarShown() {
		return main
	}

	sidebar := padLines(m.sidebarLines(height), sidebarWidth, height)
	divider := make([]string, height)
	for i := range divider {
		divider[i] = ruleStyle.Render("│")
	}
	return joinColumns(joinColumns(sidebar, divider, 0), main, 0)
}

func (m tuiModel) viewFooter() string {
	if m.streaming {
		return fmt.Sprintf("%s %s", m.spinner.View(), cliui.DimStyle.Render("streaming · esc to stop"))
	}
	if m.status != "" {
		return ansi.Truncate(m.status, m.width, "…")
	}
	return m.help.View(m.keys)
}

func (m tuiModel) viewModels() string {
	models := m.catalog.Models()
	current := m.conv.Model()

	lines := []string{focusedHeading.Render("Select model"), ""}
	for i, model := range models {
		marker := "  "
		if model.ID == current {
			marker = "● "
		}
		line := marker + model.Label()
		if model.Description != "" {
			line += cliui.DimStyle.Render("  " + model.Description)
		}
		if i == m.modelCursor {
			line = selectedStyle.Render(ansi.Strip(line))
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", cliui.DimStyle.Render("enter select · esc cancel"))
	return modalStyle.Render(strings.Join(lines, "\n"))
}

func (m tuiModel) sidebarLines(height int) []string {
	heading := headingStyle
	if m.focus == focusSidebar {
		heading = focusedHeading
	}
	lines := []string{heading.Render("Sessions"), ""}
	if len(m.sessions) == 0 {
		return append(lines, cliui.DimStyle.Render("no sessions yet"))
	}

	active, _ := m.conv.Active()
	start, end := visibleRange(len(m.sessions), m.sessionCursor, height-len(lines))
	for i := start; i < end; i++ {
		s := m.sessions[i]
		marker := "  "
		if s.ID == active.ID {
			marker = "● "
		}

		title := s.Title
		if title == "" {
			title = utils.ShortID(s.ID)
		}
		line := marker + utils.Truncate(title, sidebarWidth-6)
		if m.focus == focusSidebar && i == m.sessionCursor {
			line = selectedStyle.Render(padRight(line, sidebarWidth-1))
		}
		lines = append(lines, line)
	}
	return lines
}

// conversationLines renders the active session plus the exchange in flight.
func (m tuiModel) conversationLines(width int) []string {
	var msgs []chat.Message
	if s, ok := m.conv.Active(); ok {
		msgs = s.Messages
	}
	if m.streaming {
		msgs = append(msgs, chat.Message{Role: chat.RoleUser, Content: m.prompt})
		if m.reply != nil {
			msgs = append(msgs, *m.reply)
		}
	}

	if len(msgs) == 0 {
		return []string{"", cliui.DimStyle.Render("  Type below and press enter. ctrl+o picks a model, ctrl+b toggles sessions.")}
	}

	var lines []string
	for _, msg := range msgs {
		lines = append(lines, m.messageLines(msg, width)...)
		lines = append(lines, "")
	}
	return lines
}

func (m tuiModel) messageLines(msg chat.Message, width int) []string {
	inner := max(width-4, 10)

	if msg.Role == chat.RoleUser {
		lines := []string{userLabel.Render("you")}
		return append(lines, indent(wrapText(msg.Content, inner))...)
	}

	lines := []string{assistantLabel.Render(m.modelLabel(msg.Model))}
	switch {
	case msg.Streaming && msg.Content == "":
		lines = append(lines, "  "+cliui.DimStyle.Render("…"))
	case msg.Streaming:
		lines = append(lines, indent(wrapText(msg.Content, inner))...)
	default:
		lines = append(lines, m.renderReply(msg, width)...)
		lines = append(lines, "  "+cliui.ReplyStatus(&msg))
	}
	return lines
}

// renderReply renders a finished reply, as markdown when enabled.
func (m tuiModel) renderReply(msg chat.Message, width int) []string {
	if m.markdown && msg.Content != "" {
		cacheKey := fmt.Sprintf("%s/%d", msg.ID, width)
		if out, ok := m.rendered[cacheKey]; ok {
			return strings.Split(out, "\n")
		}
		if out, err := cliui.RenderMarkdown(msg.Content, width); err == nil {
			out = strings.Trim(out, "\n")
			m.rendered[cacheKey] = out
			return strings.Split(out, "\n")
		}
	}
	return indent(wrapText(msg.Content, max(width-4, 10)))
}

func (m tuiModel) modelLabel(id string) string {
	if id == "" {
		return "assistant"
	}
	if model, ok := m.catalog.Lookup(id); ok {
		return model.Label()
	}
	return id
}

func renderHeaderLine(width int, left, right string) string {
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= width {
		return strings.TrimSpace(left + " " + right)
	}
	return left + strings.Repeat(" ", width-leftWidth-rightWidth) + right
}

func renderRule(width int) string {
	return ruleStyle.Render(strings.Repeat("─", max(width, 1)))
}

// wrapText wraps text to width cells, keeping its line breaks and breaking
// words longer than a line.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return strings.Split(text, "\n")
	}
	return strings.Split(ansi.Wrap(text, width, ""), "\n")
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = "  " + line
	}
	return out
}

func padLines(lines []string, width, height int) []string {
	if height <= 0 {
		return []string{}
	}
	if width <= 0 {
		width = 1
	}
	result := make([]string, 0, height)
	for _, line := range lines {
		result = append(result, padRight(ansi.Truncate(line, width, ""), width))
		if len(result) >= height {
			return result[:height]
		}
	}
	for len(result) < height {
		result = append(result, strings.Repeat(" ", width))
	}
	return result
}

func padRight(value string, width int) string {
	lineWidth := lipgloss.Width(value)
	if lineWidth >= width {
		return value
	}
	return value + strings.Repeat(" ", width-lineWidth)
}

func joinColumns(left, right []string, gap int) []string {
	maxLines := max(len(right), len(left))
	lines := make([]string, 0, maxLines)
	gapSpace := strings.Repeat(" ", gap)
	for i := range maxLines {
		leftLine := ""
		if i < len(left) {
			leftLine = left[i]
		}
		rightLine := ""
		if i < len(right) {
			rightLine = right[i]
		}
		lines = append(lines, leftLine+gapSpace+rightLine)
	}
	return lines
}

func visibleRange(total, cursor, size int) (int, int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if total <= size {
		return 0, total
	}
	cursor = clamp(cursor, total-1)
	start := max(cursor-(size/2), 0)
	end := start + size
	if end > total {
		end = total
		start = max(end-size, 0)
	}
	return start, end
}
