// Package tui renders the onboarding chat in the terminal: transcript,
// chips or autocomplete for option questions, and a toggleable answers
// panel with direct field edits.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kayz/tomo/internal/catalog"
	"github.com/kayz/tomo/internal/chat"
)

type mode int

const (
	modeChat mode = iota
	modePanel
	modeEdit
)

// turnDoneMsg signals that a round trip (init, submit or patch) finished
// and the controller snapshot changed.
type turnDoneMsg struct{}

type tickMsg time.Time

type Model struct {
	controller *chat.Controller
	resolver   *chat.Resolver

	input     textinput.Model
	editInput textinput.Model

	mode     mode
	cursor   int // panel field cursor
	width    int
	height   int
	dots     int
	quitting bool
}

func NewModel(controller *chat.Controller) Model {
	ti := textinput.New()
	ti.Placeholder = "type a message..."
	ti.CharLimit = 500
	ti.Focus()

	ei := textinput.New()
	ei.CharLimit = 500

	return Model{
		controller: controller,
		resolver:   chat.NewResolver(),
		input:      ti,
		editInput:  ei,
		width:      100,
		height:     30,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.initTurn(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) initTurn() tea.Cmd {
	return func() tea.Msg {
		m.controller.Init(context.Background())
		return turnDoneMsg{}
	}
}

func (m Model) sendTurn(answer string) tea.Cmd {
	return func() tea.Msg {
		m.controller.Submit(context.Background(), answer)
		return turnDoneMsg{}
	}
}

func (m Model) patchTurn(key string, value any) tea.Cmd {
	return func() tea.Msg {
		_ = m.controller.PatchField(context.Background(), key, value)
		return turnDoneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.controller.Sending() {
			m.dots = (m.dots + 1) % 4
		}
		return m, tick()

	case turnDoneMsg:
		m.resolver.SetDisabled(m.controller.Sending())
		m.resolver.SetQuestion(m.controller.ActiveQuestion())
		m.resolver.SetInput(m.input.Value())
		if m.resolver.Mode() == chat.ModeAutocomplete {
			m.resolver.Focus()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeChat:
			return m.updateChat(msg)
		case modePanel:
			return m.updatePanel(msg)
		case modeEdit:
			return m.updateEdit(msg)
		}
	}
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+p":
		m.mode = modePanel
		m.cursor = 0
		return m, nil
	}

	ev, handled := m.resolver.HandleKey(msg.String())
	switch ev.Kind {
	case chat.EventSubmit:
		m.input.SetValue("")
		m.resolver.SetDisabled(true)
		return m, m.sendTurn(ev.Answer)

	case chat.EventPrefill:
		m.input.SetValue(ev.Prefill)
		m.input.CursorEnd()
		return m, nil
	}
	if handled {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.resolver.SetInput(m.input.Value())
	m.resolver.Focus()
	return m, cmd
}

func (m Model) updatePanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := panelFields()

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc", "ctrl+p", "q":
		m.mode = modeChat
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(fields)-1 {
			m.cursor++
		}

	case "enter":
		field := fields[m.cursor]
		current := m.controller.State().AnswerFor(field.Key)
		m.editInput.SetValue(catalog.FormatValue(field, current))
		m.editInput.Focus()
		m.editInput.CursorEnd()
		m.mode = modeEdit
	}
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.editInput.Blur()
		m.mode = modePanel
		return m, nil

	case "enter":
		field := panelFields()[m.cursor]
		value := coerceInput(field, m.editInput.Value())
		m.editInput.Blur()
		m.mode = modePanel
		return m, m.patchTurn(field.Key, value)
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

// coerceInput turns the raw edit text into the typed value the server
// expects for the field.
func coerceInput(field *catalog.Field, text string) any {
	switch field.Type {
	case catalog.TypeEnum:
		return chat.CoerceEnum(field, strings.TrimSpace(text))
	case catalog.TypeMulti:
		var parts []string
		for _, p := range strings.Split(text, ",") {
			if t := strings.TrimSpace(p); t != "" {
				parts = append(parts, t)
			}
		}
		return chat.CoerceMulti(parts)
	case catalog.TypeList:
		return chat.CoerceList(text)
	default:
		return strings.TrimSpace(text)
	}
}

// panelFields flattens the catalog into the panel's row order.
func panelFields() []*catalog.Field {
	var out []*catalog.Field
	for si := range catalog.Steps {
		for fi := range catalog.Steps[si].Fields {
			out = append(out, &catalog.Steps[si].Fields[fi])
		}
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("tomo") + dimStyle.Render("  onboarding chat") + "\n\n")

	switch m.mode {
	case modePanel, modeEdit:
		b.WriteString(m.viewPanel())
	default:
		b.WriteString(m.viewChat())
	}
	return b.String()
}

func (m Model) viewChat() string {
	var b strings.Builder

	for _, msg := range m.visibleMessages() {
		switch {
		case msg.IsError:
			b.WriteString(errorBubbleStyle.Render(msg.Text) + "\n")
		case msg.Role == chat.RoleUser:
			b.WriteString(userBubbleStyle.Render("You") + " " + msg.Text + "\n")
		default:
			b.WriteString(assistantBubbleStyle.Render(msg.Text) + "\n")
			for _, src := range msg.Sources {
				b.WriteString(sourceStyle.Render(fmt.Sprintf("  ↳ %s (%.2f)", src.Title, src.Score)) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if m.controller.Sending() {
		b.WriteString(dimStyle.Render(strings.Repeat(".", m.dots+1)) + "\n\n")
	}

	b.WriteString(m.viewInputArea())
	b.WriteString("\n" + helpStyle.Render("  Enter: send  Tab: default/complete  Ctrl+P: answers  Ctrl+C: quit"))
	return b.String()
}

// visibleMessages trims the transcript to what fits above the input area.
func (m Model) visibleMessages() []chat.Message {
	msgs := m.controller.Messages()
	budget := m.height - 10
	if budget < 4 {
		budget = 4
	}
	// Two lines per bubble is a good enough estimate for trimming.
	maxMsgs := budget / 2
	if len(msgs) > maxMsgs {
		msgs = msgs[len(msgs)-maxMsgs:]
	}
	return msgs
}

func (m Model) viewInputArea() string {
	var b strings.Builder

	switch m.resolver.Mode() {
	case chat.ModeChips:
		var chips []string
		for i, row := range m.resolver.Choices() {
			chips = append(chips, chipNumberStyle.Render(fmt.Sprintf("%d", i+1))+" "+chipStyle.Render(row.Label))
		}
		b.WriteString(strings.Join(chips, "  ") + "\n")

	case chat.ModeAutocomplete:
		if m.resolver.DropdownOpen() {
			rows := m.resolver.Filtered()
			limit := 6
			if len(rows) < limit {
				limit = len(rows)
			}
			for i := 0; i < limit; i++ {
				line := "  " + rows[i].Label
				if i == m.resolver.Highlight() {
					line = dropdownSelStyle.Render("▸ " + rows[i].Label)
				} else {
					line = dropdownStyle.Render(line)
				}
				b.WriteString(line + "\n")
			}
		}
	}

	b.WriteString(statusBarStyle.Render(">") + " " + m.input.View())
	return b.String()
}

func (m Model) viewPanel() string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Your answers") + "\n\n")

	state := m.controller.State()
	row := 0
	for _, step := range catalog.Steps {
		status := chat.StatusFor(step.Key, state.CurrentStep)
		marker, style := "○", sectionPendingStyle
		switch status {
		case chat.SectionCompleted:
			marker, style = "✓", sectionDoneStyle
		case chat.SectionActive:
			marker, style = "▸", sectionActiveStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s %d. %s", marker, chat.Ordinal(step.Key), step.Label)) + "\n")

		for fi := range step.Fields {
			field := &step.Fields[fi]
			value := catalog.FormatValue(field, state.AnswerFor(field.Key))
			if value == "" {
				value = dimStyle.Render("—")
			}
			line := fmt.Sprintf("    %s: %s", field.Label, value)
			if row == m.cursor {
				if m.mode == modeEdit {
					line = fmt.Sprintf("    %s: %s", field.Label, m.editInput.View())
				} else {
					line = fieldSelStyle.Render(line)
				}
			}
			b.WriteString(line + "\n")
			row++
		}
		b.WriteString("\n")
	}

	if m.mode == modeEdit {
		b.WriteString(helpStyle.Render("  Enter: save  Esc: cancel"))
	} else {
		b.WriteString(helpStyle.Render("  ↑/↓: move  Enter: edit  Esc: back to chat"))
	}
	return b.String()
}
