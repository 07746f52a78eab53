// Package ui implements the interactive chat shell using bubbletea.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"admitchat/internal/chat"
	"admitchat/internal/models"
)

const requestTimeout = 10 * time.Second

// eventMsg carries a controller event into the bubbletea update loop.
type eventMsg chat.Event

// Model is the bubbletea model for the chat shell.
type Model struct {
	ctrl   *chat.Controller
	input  textinput.Model
	vp     viewport.Model
	spin   spinner.Model
	styles Styles

	connected    bool
	typing       bool
	showSessions bool
	status       string
	width        int
	height       int
	ready        bool
}

// New creates the shell bound to a controller.
func New(ctrl *chat.Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask admissions anything... (/help for commands)"
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctrl:      ctrl,
		input:     ti,
		spin:      sp,
		styles:    DefaultStyles(),
		connected: ctrl.Connected(),
	}
}

// Init starts the event pump, spinner and cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.spin.Tick, textinput.Blink)
}

func (m Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.ctrl.Events()
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

// Update handles UI events and controller notifications.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chrome := 6 // header, banner/status, typing, input, margins
		if !m.ready {
			m.vp = viewport.New(msg.Width, max(msg.Height-chrome, 3))
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = max(msg.Height-chrome, 3)
		}
		m.input.Width = msg.Width - 4
		m.refreshTranscript()
		return m, nil

	case eventMsg:
		e := chat.Event(msg)
		switch e.Kind {
		case chat.EventConnection:
			m.connected = e.Connected
			if m.connected {
				m.status = ""
			}
		case chat.EventTyping:
			m.typing = m.ctrl.Messages.Typing()
		case chat.EventMessages:
			m.refreshTranscript()
		case chat.EventSessions:
			// Rendered on demand by /sessions.
		}
		return m, m.waitEvent()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		m.input.SetValue("")
		return m.runCommand(text)
	}

	// The compose control is disabled while the channel is down.
	if !m.connected {
		m.status = "offline: reconnecting, sending is disabled"
		return m, nil
	}
	if m.ctrl.Selected() == "" {
		m.status = "no conversation selected: use /new <message> or /switch <n>"
		return m, nil
	}

	m.input.SetValue("")
	m.status = ""
	ctrl := m.ctrl
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ctrl.Send(ctx, text)
		return nil
	}
}

func (m Model) runCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit":
		return m, tea.Quit

	case "/help":
		m.status = "/sessions  /switch <n>  /new <message>  /cancel  /quit"
		return m, nil

	case "/sessions":
		m.showSessions = !m.showSessions
		m.refreshTranscript()
		return m, nil

	case "/switch":
		if len(fields) < 2 {
			m.status = "usage: /switch <n>"
			return m, nil
		}
		n, err := strconv.Atoi(fields[1])
		sessions := m.ctrl.Sessions.List()
		if err != nil || n < 1 || n > len(sessions) {
			m.status = "no such conversation"
			return m, nil
		}
		m.showSessions = false
		m.status = ""
		ctrl := m.ctrl
		id := sessions[n-1].ID
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			ctrl.Select(ctx, id)
			return nil
		}

	case "/new":
		first := strings.TrimSpace(strings.TrimPrefix(text, "/new"))
		if !m.connected {
			m.status = "offline: reconnecting, sending is disabled"
			return m, nil
		}
		m.status = ""
		ctrl := m.ctrl
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			ctrl.StartConversation(ctx, first)
			return nil
		}

	case "/cancel":
		requestID := m.lastCancellable()
		if requestID == "" {
			m.status = "nothing to cancel"
			return m, nil
		}
		ctrl := m.ctrl
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			ctrl.Cancel(ctx, requestID)
			return nil
		}
	}

	m.status = "unknown command, try /help"
	return m, nil
}

// lastCancellable picks the requestId of the most recent entry still in
// flight.
func (m Model) lastCancellable() string {
	messages := m.ctrl.Messages.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		switch messages[i].Status {
		case models.StatusSending, models.StatusDelivered, models.StatusProcessing:
			if messages[i].RequestID != "" {
				return messages[i].RequestID
			}
		}
	}
	return ""
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	if m.showSessions {
		m.vp.SetContent(m.renderSessions())
	} else {
		m.vp.SetContent(m.renderMessages())
	}
	m.vp.GotoBottom()
}

func (m Model) renderSessions() string {
	sessions := m.ctrl.Sessions.List()
	if len(sessions) == 0 {
		return m.styles.System.Render("No conversations yet. Start one with /new <message>.")
	}
	var b strings.Builder
	for i, s := range sessions {
		fmt.Fprintf(&b, "%2d. %s  %s\n    %s\n",
			i+1,
			m.styles.Session.Render(s.Title),
			m.styles.Timestamp.Render(s.Timestamp),
			m.styles.Preview.Render(s.LastMessage),
		)
	}
	return b.String()
}

func (m Model) renderMessages() string {
	messages := m.ctrl.Messages.Messages()
	if len(messages) == 0 {
		return m.styles.System.Render("Welcome to admissions chat. Type a message to get started.")
	}
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg chat.MessageView) string {
	label := m.styles.Assistant.Render("Assistant")
	switch {
	case msg.IsUser:
		label = m.styles.User.Render("You")
	case msg.Role == models.RoleStaff || msg.Role == models.RoleAdmin:
		label = m.styles.Assistant.Render("Staff")
	case msg.Role == models.RoleSystem:
		label = m.styles.System.Render("System")
	}

	body := msg.Content
	suffix := ""
	switch msg.Status {
	case models.StatusSending:
		body = m.styles.Pending.Render(body)
		suffix = m.styles.Pending.Render(" (sending)")
	case models.StatusDelivered:
		body = m.styles.Pending.Render(body)
	case models.StatusError:
		body = m.styles.Error.Render(body)
		suffix = m.styles.Error.Render(" (failed)")
	case models.StatusCancelled:
		body = m.styles.System.Render(body)
		suffix = m.styles.System.Render(" (cancelled)")
	}

	return fmt.Sprintf("%s %s\n%s%s", label, m.styles.Timestamp.Render(msg.Timestamp), body, suffix)
}

// View renders the shell.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("University Admissions Chat"))
	b.WriteString("\n")
	if !m.connected {
		b.WriteString(m.styles.Banner.Render("Connection lost. Reconnecting..."))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.styles.Status.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.vp.View())
	b.WriteString("\n")
	if m.typing {
		b.WriteString(m.styles.Typing.Render(m.spin.View() + "Assistant is typing..."))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}
