package tuicmder

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/papercomputeco/chatstream/pkg/chat"
	"github.com/papercomputeco/chatstream/pkg/cliui"
	"github.com/papercomputeco/chatstream/pkg/utils"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
	focusModels
)

const (
	sidebarWidth = 32

	// chromeHeight is the header, its rule, the input rule, the input and
	// the footer.
	chromeHeight = 5

	// minMainWidth is the narrowest message pane the sidebar is shown next
	// to.
	minMainWidth = 40
)

type sessionsLoadedMsg struct {
	sessions []*chat.Session
	err      error
}

type sessionOpenedMsg struct {
	session chat.Session
	err     error
}

type sessionDeletedMsg struct {
	id  string
	err error
}

type tuiModel struct {
	ctx      context.Context
	conv     *chat.Conversation
	catalog  *chat.Catalog
	markdown bool

	width  int
	height int
	keys   tuiKeyMap
	help   help.Model

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	focus         focusArea
	sidebarOpen   bool
	sessions      []*chat.Session
	sessionCursor int
	modelCursor   int

	streaming bool
	prompt    string
	reply     *chat.Message
	updates   <-chan bubbletea.Msg
	cancel    context.CancelFunc

	status string

	// rendered caches glamour output of finished replies by ID and width.
	rendered map[string]string
}

func newTUIModel(ctx context.Context, conv *chat.Conversation, catalog *chat.Catalog, markdown bool) tuiModel {
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "Send a message"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return tuiModel{
		ctx:         ctx,
		conv:        conv,
		catalog:     catalog,
		markdown:    markdown,
		keys:        defaultKeyMap(),
		help:        help.New(),
		input:       input,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		sidebarOpen: true,
		rendered:    map[string]string{},
	}
}

func (m tuiModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(textinput.Blink, loadSessionsCmd(m.ctx, m.conv))
}

func (m tuiModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.status = "loading sessions: " + msg.err.Error()
			return m, nil
		}
		m.sessions = msg.sessions
		m.sessionCursor = clamp(m.sessionCursor, len(m.sessions)-1)
		return m, nil

	case sessionOpenedMsg:
		if msg.err != nil {
			m.status = "opening session: " + msg.err.Error()
			return m, nil
		}
		m.status = "opened " + utils.ShortID(msg.session.ID)
		cmd := m.focusInput()
		m.refresh(true)
		return m, cmd

	case sessionDeletedMsg:
		if msg.err != nil {
			m.status = "deleting session: " + msg.err.Error()
			return m, nil
		}
		m.status = "deleted " + utils.ShortID(msg.id)
		m.refresh(true)
		return m, loadSessionsCmd(m.ctx, m.conv)

	case streamUpdateMsg:
		reply := msg.reply
		m.reply = &reply
		m.refresh(false)
		return m, waitForStream(m.updates)

	case streamDoneMsg:
		m.finishStream(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		return m, bubbletea.Quit

	case key.Matches(msg, m.keys.Sidebar):
		m.sidebarOpen = !m.sidebarOpen
		var cmd bubbletea.Cmd
		if !m.sidebarOpen && m.focus == focusSidebar {
			cmd = m.focusInput()
		}
		m.resize()
		return m, cmd

	case key.Matches(msg, m.keys.Models):
		if m.focus == focusModels {
			return m, m.focusInput()
		}
		m.focus = focusModels
		m.input.Blur()
		m.modelCursor = max(m.catalog.Index(m.conv.Model()), 0)
		return m, nil

	case key.Matches(msg, m.keys.New):
		if m.streaming {
			return m, nil
		}
		m.conv.NewSession("")
		m.status = "new conversation"
		cmd := m.focusInput()
		m.refresh(true)
		return m, cmd
	}

	switch m.focus {
	case focusModels:
		return m.handleModelsKey(msg)
	case focusSidebar:
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m tuiModel) handleInputKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.Stop):
		if m.streaming && m.cancel != nil {
			m.cancel()
			m.status = "stopping"
		}
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.sidebarOpen && m.sidebarShown() {
			m.focus = focusSidebar
			m.input.Blur()
		}
		return m, nil

	case key.Matches(msg, m.keys.Scroll):
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m tuiModel) handleSidebarKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sessionCursor = clamp(m.sessionCursor-1, len(m.sessions)-1)
	case key.Matches(msg, m.keys.Down):
		m.sessionCursor = clamp(m.sessionCursor+1, len(m.sessions)-1)
	case key.Matches(msg, m.keys.Send):
		if m.streaming || len(m.sessions) == 0 {
			return m, nil
		}
		return m, openSessionCmd(m.ctx, m.conv, m.sessions[m.sessionCursor].ID)
	case key.Matches(msg, m.keys.Delete):
		if m.streaming || len(m.sessions) == 0 {
			return m, nil
		}
		return m, deleteSessionCmd(m.ctx, m.conv, m.sessions[m.sessionCursor].ID)
	case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Stop):
		return m, m.focusInput()
	}
	return m, nil
}

func (m tuiModel) handleModelsKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	models := m.catalog.Models()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.modelCursor = clamp(m.modelCursor-1, len(models)-1)
	case key.Matches(msg, m.keys.Down):
		m.modelCursor = clamp(m.modelCursor+1, len(models)-1)
	case key.Matches(msg, m.keys.Send):
		if len(models) > 0 {
			selected := models[m.modelCursor]
			m.conv.SetModel(selected.ID)
			m.status = "model: " + selected.Label()
		}
		return m, m.focusInput()
	case key.Matches(msg, m.keys.Stop):
		return m, m.focusInput()
	}
	return m, nil
}

// send starts streaming the reply to the input text.
func (m tuiModel) send() (bubbletea.Model, bubbletea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.streaming {
		return m, nil
	}
	m.input.Reset()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.streaming = true
	m.prompt = text
	m.reply = nil
	m.status = ""
	m.updates = startStream(ctx, m.conv, text)
	m.refresh(true)

	return m, bubbletea.Batch(waitForStream(m.updates), m.spinner.Tick)
}

func (m *tuiModel) finishStream(msg streamDoneMsg) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.streaming = false
	m.prompt = ""
	m.reply = nil
	m.updates = nil

	if msg.reply.ID == "" && msg.err != nil {
		m.status = cliui.FailMark + " " + msg.err.Error()
	} else {
		m.status = cliui.ReplyStatus(&msg.reply)
	}

	m.upsertActive()
	m.refresh(true)
}

// upsertActive moves the active session to the top of the sidebar, adding
// it when it was not stored yet. Recording is asynchronous, so the stored
// list can lag behind the reply that was just shown.
func (m *tuiModel) upsertActive() {
	s, ok := m.conv.Active()
	if !ok || len(s.Messages) == 0 {
		return
	}
	s.Messages = nil

	sessions := []*chat.Session{&s}
	for _, existing := range m.sessions {
		if existing.ID != s.ID {
			sessions = append(sessions, existing)
		}
	}
	m.sessions = sessions
	m.sessionCursor = 0
}

func (m *tuiModel) focusInput() bubbletea.Cmd {
	m.focus = focusInput
	return m.input.Focus()
}

func (m tuiModel) sidebarShown() bool {
	return m.sidebarOpen && m.width >= sidebarWidth+1+minMainWidth
}

func (m tuiModel) mainWidth() int {
	if m.sidebarShown() {
		return m.width - sidebarWidth - 1
	}
	return m.width
}

func (m tuiModel) bodyHeight() int {
	return max(m.height-chromeHeight, 1)
}

func (m *tuiModel) resize() {
	m.viewport.Width = m.mainWidth()
	m.viewport.Height = m.bodyHeight()
	m.input.Width = max(m.width-4, 1)
	m.help.Width = m.width
	m.refresh(false)
}

// refresh re-renders the conversation into the viewport. It follows the
// bottom when asked to or when the view was already there.
func (m *tuiModel) refresh(bottom bool) {
	follow := bottom || m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(m.conversationLines(m.viewport.Width), "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func loadSessionsCmd(ctx context.Context, conv *chat.Conversation) bubbletea.Cmd {
	return func() bubbletea.Msg {
		sessions, err := conv.Sessions(ctx)
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

func openSessionCmd(ctx context.Context, conv *chat.Conversation, id string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		s, err := conv.Open(ctx, id)
		return sessionOpenedMsg{session: s, err: err}
	}
}

func deleteSessionCmd(ctx context.Context, conv *chat.Conversation, id string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		err := conv.Delete(ctx, id)
		return sessionDeletedMsg{id: id, err: err}
	}
}

func clamp(value, upper int) int {
	if upper < 0 {
		return 0
	}
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}
