package tui

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/mark3labs/docweaver/internal/config"
	"github.com/mark3labs/docweaver/internal/selection"
)

// Settings form rows, top to bottom.
const (
	rowLayout = iota
	rowStrategy
	rowChunk
	rowPDF
	rowEPub
	rowDocx
	rowEmail
	rowCount
)

// SettingsStep manages the output settings form. Every change is written
// through immediately so the persisted settings always mirror the form.
type SettingsStep struct {
	state *selection.State

	cursor     int
	emailInput textinput.Model
	inlineErr  string
	width      int
	height     int
}

// NewSettingsStep creates the settings step.
func NewSettingsStep() *SettingsStep {
	input := textinput.New()
	input.Placeholder = "you@example.com"
	input.Prompt = "Email: "
	input.SetStyles(searchInputStyles())
	input.SetWidth(40)

	return &SettingsStep{
		emailInput: input,
		width:      60,
		height:     10,
	}
}

// Init syncs the form with the persisted settings on entry.
func (s *SettingsStep) Init() tea.Cmd {
	s.inlineErr = ""
	if s.state != nil {
		s.emailInput.SetValue(s.state.Settings.Email)
	}
	return nil
}

func (s *SettingsStep) setState(state *selection.State) {
	s.state = state
}

// SetSize updates the dimensions for the step.
func (s *SettingsStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.emailInput.SetWidth(width - 20)
}

// Update handles messages for the settings step.
func (s *SettingsStep) Update(msg tea.Msg) tea.Cmd {
	if errMsg, ok := msg.(selectionErrorMsg); ok {
		s.inlineErr = errMsg.err.Error()
		return nil
	}

	keyMsg, isKey := msg.(tea.KeyPressMsg)
	if !isKey {
		if s.emailInput.Focused() {
			var cmd tea.Cmd
			s.emailInput, cmd = s.emailInput.Update(msg)
			return cmd
		}
		return nil
	}

	switch keyMsg.String() {
	case "up":
		if s.cursor > 0 {
			s.cursor--
		}
		return s.syncEmailFocus()
	case "down":
		if s.cursor < rowCount-1 {
			s.cursor++
		}
		return s.syncEmailFocus()
	case "enter", "space":
		if s.cursor != rowEmail {
			return s.toggleRow()
		}
	case "ctrl+r":
		s.inlineErr = ""
		return func() tea.Msg {
			return resetGroupMsg{group: selection.GroupSettings}
		}
	}

	if s.cursor == rowEmail {
		var cmd tea.Cmd
		s.emailInput, cmd = s.emailInput.Update(msg)
		return tea.Batch(cmd, s.persist(func(set *selection.SettingsSelection) {
			set.Email = s.emailInput.Value()
		}))
	}
	return nil
}

// syncEmailFocus focuses the email input only while its row is active.
func (s *SettingsStep) syncEmailFocus() tea.Cmd {
	if s.cursor == rowEmail {
		return s.emailInput.Focus()
	}
	s.emailInput.Blur()
	return nil
}

// toggleRow flips the value under the cursor and persists the whole group.
func (s *SettingsStep) toggleRow() tea.Cmd {
	if s.state == nil {
		return nil
	}
	s.inlineErr = ""

	switch s.cursor {
	case rowLayout:
		return s.persist(func(set *selection.SettingsSelection) {
			set.LayoutForPrint = !set.LayoutForPrint
			if !set.LayoutForPrint {
				// EPub and Docx only apply to the print layout.
				set.Formats.EPub = false
				set.Formats.Docx = false
			}
		})
	case rowStrategy:
		return s.persist(func(set *selection.SettingsSelection) {
			if set.AssemblyStrategy == config.AssemblyBookMajor {
				set.AssemblyStrategy = config.AssemblyLanguageMajor
			} else {
				set.AssemblyStrategy = config.AssemblyBookMajor
			}
		})
	case rowChunk:
		return s.persist(func(set *selection.SettingsSelection) {
			if set.ChunkSize == config.ChunkChapter {
				set.ChunkSize = config.ChunkVerse
			} else {
				set.ChunkSize = config.ChunkChapter
			}
		})
	case rowPDF:
		return s.persist(func(set *selection.SettingsSelection) {
			set.Formats.PDF = !set.Formats.PDF
		})
	case rowEPub:
		if !s.state.Settings.LayoutForPrint {
			s.inlineErr = "ePub output requires the print layout"
			return nil
		}
		return s.persist(func(set *selection.SettingsSelection) {
			set.Formats.EPub = !set.Formats.EPub
		})
	case rowDocx:
		if !s.state.Settings.LayoutForPrint {
			s.inlineErr = "Docx output requires the print layout"
			return nil
		}
		return s.persist(func(set *selection.SettingsSelection) {
			set.Formats.Docx = !set.Formats.Docx
		})
	}
	return nil
}

// persist applies a mutation to a copy of the current settings and emits it.
func (s *SettingsStep) persist(mutate func(*selection.SettingsSelection)) tea.Cmd {
	if s.state == nil {
		return nil
	}
	settings := s.state.Settings
	mutate(&settings)
	return func() tea.Msg {
		return settingsChangedMsg{settings: settings}
	}
}

// View renders the settings form.
func (s *SettingsStep) View() string {
	var b strings.Builder

	if s.state == nil {
		b.WriteString(styleDim.Render("Loading settings..."))
		return b.String()
	}
	set := s.state.Settings

	rows := []struct {
		label string
		value string
		dim   bool
	}{
		{label: "Layout for print", value: onOff(set.LayoutForPrint)},
		{label: "Assembly strategy", value: set.AssemblyStrategy},
		{label: "Chunk size", value: set.ChunkSize},
		{label: "PDF output", value: onOff(set.Formats.PDF)},
		{label: "ePub output", value: onOff(set.Formats.EPub), dim: !set.LayoutForPrint},
		{label: "Docx output", value: onOff(set.Formats.Docx), dim: !set.LayoutForPrint},
	}

	for i, row := range rows {
		cursor := "  "
		if i == s.cursor {
			cursor = styleCursor.Render("> ")
		}
		label := padRight(row.label, 20)
		value := row.value
		switch {
		case row.dim:
			label = styleDim.Render(label)
			value = styleDim.Render(value)
		case i == s.cursor:
			value = styleSelected.Render(value)
		default:
			label = styleDim.Render(label)
		}
		b.WriteString(cursor + label + value + "\n")
	}

	cursor := "  "
	if s.cursor == rowEmail {
		cursor = styleCursor.Render("> ")
	}
	b.WriteString(cursor + s.emailInput.View() + "\n")

	if !set.Formats.Any() {
		b.WriteString("\n")
		b.WriteString(styleWarning.Render("Select at least one output format to continue."))
	}

	if s.inlineErr != "" {
		b.WriteString("\n")
		b.WriteString(styleError.Render(s.inlineErr))
	}

	b.WriteString("\n\n")
	b.WriteString(renderHintBar(
		"↑↓", "navigate",
		"space", "toggle",
		"ctrl+r", "reset step",
		"tab", "review",
	))

	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
