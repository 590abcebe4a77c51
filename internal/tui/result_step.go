package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/glamour/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/mark3labs/docweaver/internal/config"
	"github.com/mark3labs/docweaver/internal/selection"
)

// ResultStep renders the final review screen: a markdown summary of every
// selection, the submit action, and the queued document key once the
// backend accepts the request.
type ResultStep struct {
	cfg   *config.Config
	state *selection.State

	submitting bool
	spinner    spinner.Model
	submitErr  string
	width      int
	height     int
}

// NewResultStep creates the result step.
func NewResultStep(cfg *config.Config) *ResultStep {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return &ResultStep{
		cfg:     cfg,
		spinner: s,
		width:   60,
		height:  10,
	}
}

// Init resets transient state on entry.
func (s *ResultStep) Init() tea.Cmd {
	s.submitErr = ""
	s.submitting = false
	return nil
}

func (s *ResultStep) setState(state *selection.State) {
	s.state = state
}

// SetSize updates the dimensions for the step.
func (s *ResultStep) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Update handles messages for the result step.
func (s *ResultStep) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case documentQueuedMsg:
		s.submitting = false
		return nil

	case documentErrorMsg:
		s.submitting = false
		s.submitErr = msg.err.Error()
		return nil

	case spinner.TickMsg:
		if s.submitting {
			var cmd tea.Cmd
			s.spinner, cmd = s.spinner.Update(msg)
			return cmd
		}
		return nil
	}

	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok || s.submitting {
		return nil
	}

	if keyMsg.String() == "enter" {
		if s.state != nil && s.state.Settings.DocumentKey != "" {
			// Already queued; a second enter finishes the wizard.
			return tea.Quit
		}
		s.submitting = true
		s.submitErr = ""
		return tea.Batch(
			s.spinner.Tick,
			func() tea.Msg { return submitDocumentMsg{} },
		)
	}
	return nil
}

// View renders the result step.
func (s *ResultStep) View() string {
	var b strings.Builder

	if s.state == nil {
		b.WriteString(styleDim.Render("Loading..."))
		return b.String()
	}

	b.WriteString(renderMarkdown(s.summaryMarkdown(), s.width))
	b.WriteString("\n")

	switch {
	case s.submitting:
		b.WriteString(s.spinner.View())
		b.WriteString(" Queueing document...")
	case s.state.Settings.DocumentKey != "":
		b.WriteString(styleSelected.Render("✓ Document queued: " + s.state.Settings.DocumentKey))
		b.WriteString("\n")
		if s.state.Settings.Email != "" {
			b.WriteString(styleDim.Render("You will be notified at " + s.state.Settings.Email + " when it is ready."))
			b.WriteString("\n")
		}
		if s.cfg.FileServerRoot != "" {
			location := strings.TrimRight(s.cfg.FileServerRoot, "/") + "/" + s.state.Settings.DocumentKey + ".html"
			b.WriteString(styleDim.Render("It will be served at " + location))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(renderHintBar("enter", "finish", "esc", "back"))
	default:
		if s.submitErr != "" {
			b.WriteString(styleError.Render("Error: " + s.submitErr))
			b.WriteString("\n\n")
		}
		b.WriteString(renderHintBar("enter", "generate document", "esc", "back"))
	}

	return b.String()
}

// summaryMarkdown builds the review document from the selection state.
func (s *ResultStep) summaryMarkdown() string {
	st := s.state
	var b strings.Builder

	b.WriteString("## Review\n\n")

	b.WriteString("**Languages:** ")
	b.WriteString(renderSelectedLanguages(st))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("**Books:** %d selected\n\n", st.Books.Count()))

	b.WriteString("**Resource types:**\n\n")
	for _, rt := range st.ResourceTypes.Entries {
		b.WriteString(fmt.Sprintf("- %s (%s, %s)\n", rt.TypeName, rt.LangCode, rt.TypeCode))
	}
	b.WriteString("\n")

	var formats []string
	if st.Settings.Formats.PDF {
		formats = append(formats, "PDF")
	}
	if st.Settings.Formats.EPub {
		formats = append(formats, "ePub")
	}
	if st.Settings.Formats.Docx {
		formats = append(formats, "Docx")
	}
	b.WriteString(fmt.Sprintf("**Output:** %s, %s assembly, %s chunks\n",
		strings.Join(formats, " + "), st.Settings.AssemblyStrategy, st.Settings.ChunkSize))

	return b.String()
}

// renderMarkdown renders markdown content using glamour, falling back to
// the raw text if rendering fails.
func renderMarkdown(content string, width int) string {
	if width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimSuffix(rendered, "\n")
}
