package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// sampleQuestions cycle into the input with ctrl+n for quick manual runs.
var sampleQuestions = []string{
	"My VPN won't connect from home",
	"I forgot my password and I'm locked out",
	"The printer on the 3rd floor is jamming",
	"I think I clicked a phishing link, what do I do?",
	"My laptop is really slow after the last update",
}

// chatRole distinguishes rendered transcript lines.
type chatRole int

const (
	roleUser chatRole = iota
	roleBot
	roleError
)

type chatLine struct {
	role  chatRole
	text  string
	reply Reply
}

// answerMsg carries one backend reply back into the update loop.
type answerMsg struct {
	reply Reply
	err   error
}

// Model is the chat console model.
type Model struct {
	backend    Backend
	input      textinput.Model
	transcript viewport.Model
	lines      []chatLine
	waiting    bool
	sampleIdx  int
	width      int
	height     int
	ready      bool
}

// NewModel creates the initial console model.
func NewModel(backend Backend) Model {
	ti := textinput.New()
	ti.Placeholder = "Describe your IT issue..."
	ti.CharLimit = 2000
	ti.Focus()

	return Model{
		backend: backend,
		input:   ti,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// appStyle padding (1,2) plus header, input box, and help bar.
		innerWidth := m.width - 4
		transcriptHeight := m.height - 9
		if transcriptHeight < 3 {
			transcriptHeight = 3
		}
		if !m.ready {
			m.transcript = viewport.New(innerWidth, transcriptHeight)
			m.ready = true
		} else {
			m.transcript.Width = innerWidth
			m.transcript.Height = transcriptHeight
		}
		m.input.Width = innerWidth - 6
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "ctrl+n":
			m.input.SetValue(sampleQuestions[m.sampleIdx])
			m.input.CursorEnd()
			m.sampleIdx = (m.sampleIdx + 1) % len(sampleQuestions)
			return m, nil

		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.waiting {
				return m, nil
			}
			m.input.SetValue("")
			m.lines = append(m.lines, chatLine{role: roleUser, text: question})
			m.waiting = true
			m.refreshTranscript()
			return m, askCmd(m.backend, question)
		}

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.lines = append(m.lines, chatLine{role: roleError, text: msg.err.Error()})
		} else {
			m.lines = append(m.lines, chatLine{role: roleBot, text: msg.reply.Answer, reply: msg.reply})
		}
		m.refreshTranscript()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.transcript, cmd = m.transcript.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func askCmd(backend Backend, question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		reply, err := backend.Ask(ctx, question)
		return answerMsg{reply: reply, err: err}
	}
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i, line := range m.lines {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderLine(line, m.transcript.Width))
	}
	if m.waiting {
		if len(m.lines) > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(thinkingStyle.Render("thinking..."))
	}
	m.transcript.SetContent(b.String())
	m.transcript.GotoBottom()
}

func renderLine(line chatLine, width int) string {
	wrap := lipgloss.NewStyle().Width(width)

	switch line.role {
	case roleUser:
		return userStyle.Render("you ") + wrap.Render(line.text)

	case roleError:
		return statusErrorStyle.Render("error: " + line.text)

	default:
		out := botStyle.Render("bot ") + "\n" + wrap.Render(answerStyle.Render(line.text))
		if line.reply.Confidence > 0 {
			badge := confidenceStyle(line.reply.Confidence).
				Render(fmt.Sprintf("%.0f%% confident", line.reply.Confidence*100))
			meta := badge
			if line.reply.Category != "" {
				meta += metaStyle.Render("  " + line.reply.Category)
			}
			if len(line.reply.Sources) > 0 {
				meta += metaStyle.Render("  [" + strings.Join(line.reply.Sources, ", ") + "]")
			}
			out += "\n" + meta
		}
		return out
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder

	title := titleStyle.Render(" ⬡ deskbot ")
	mode := metaStyle.Render(" " + m.backend.Label())
	b.WriteString(title + mode)
	b.WriteString("\n\n")

	b.WriteString(m.transcript.View())
	b.WriteString("\n")
	b.WriteString(inputStyle.Width(m.transcript.Width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter ask  ctrl+n sample question  ↑↓ scroll  esc quit"))

	return appStyle.Render(b.String())
}

// Run starts the console against the given backend and blocks until exit.
func Run(backend Backend) error {
	defer backend.Close()
	m := NewModel(backend)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
