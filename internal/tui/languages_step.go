package tui

import (
	"context"
	"sort"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/mark3labs/docweaver/internal/lookup"
	"github.com/mark3labs/docweaver/internal/selection"
)

// LanguagesStep manages the language selection step: the fetched directory
// split into gateway and heart sections, with fuzzy filtering.
type LanguagesStep struct {
	client *lookup.Client
	state  *selection.State

	all      []lookup.Language
	filtered []lookup.Language

	cursor      int
	searchInput textinput.Model
	spinner     spinner.Model
	loading     bool
	fetchErr    string
	inlineErr   string
	width       int
	height      int
}

// NewLanguagesStep creates the language selection step.
func NewLanguagesStep(client *lookup.Client) *LanguagesStep {
	input := textinput.New()
	input.Placeholder = "Type to filter languages..."
	input.Prompt = "Search: "
	input.SetStyles(searchInputStyles())
	input.SetWidth(50)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return &LanguagesStep{
		client:      client,
		searchInput: input,
		spinner:     s,
		loading:     true,
		width:       60,
		height:      10,
	}
}

// searchInputStyles configures the shared textinput look.
func searchInputStyles() textinput.Styles {
	return textinput.Styles{
		Focused: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(colorText),
			Placeholder: lipgloss.NewStyle().Foreground(colorSubtext0),
			Prompt:      lipgloss.NewStyle().Foreground(colorSecondary),
		},
		Blurred: textinput.StyleState{
			Text:        lipgloss.NewStyle().Foreground(colorSubtext0),
			Placeholder: lipgloss.NewStyle().Foreground(colorSubtext0),
			Prompt:      lipgloss.NewStyle().Foreground(colorSurface2),
		},
		Cursor: textinput.CursorStyle{
			Color: colorPrimary,
			Shape: tea.CursorBar,
			Blink: true,
		},
	}
}

// Init starts fetching the language directory.
func (s *LanguagesStep) Init() tea.Cmd {
	s.inlineErr = ""
	if len(s.all) > 0 {
		// Already fetched; the directory is static for a session.
		return s.searchInput.Focus()
	}
	s.loading = true
	return tea.Batch(
		s.fetchLanguages(),
		s.spinner.Tick,
		s.searchInput.Focus(),
	)
}

func (s *LanguagesStep) fetchLanguages() tea.Cmd {
	client := s.client
	return func() tea.Msg {
		langs, err := client.LangCodesNames(context.Background())
		if err != nil {
			return fetchErrorMsg{err: err}
		}
		return languagesLoadedMsg{langs: langs}
	}
}

func (s *LanguagesStep) setState(state *selection.State) {
	s.state = state
}

// SetSize updates the dimensions for the step.
func (s *LanguagesStep) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.searchInput.SetWidth(width - 10)
}

// filterLanguages filters the directory by case-insensitive substring match
// on code and name, gateway entries first within each section.
func (s *LanguagesStep) filterLanguages() {
	query := strings.ToLower(strings.TrimSpace(s.searchInput.Value()))

	if query == "" {
		s.filtered = s.all
	} else {
		s.filtered = make([]lookup.Language, 0)
		for _, l := range s.all {
			if strings.Contains(strings.ToLower(l.Code), query) ||
				strings.Contains(strings.ToLower(l.Name), query) {
				s.filtered = append(s.filtered, l)
			}
		}
	}

	if s.cursor >= len(s.filtered) {
		s.cursor = 0
	}
}

// Update handles messages for the language step.
func (s *LanguagesStep) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case languagesLoadedMsg:
		s.loading = false
		s.fetchErr = ""
		langs := make([]lookup.Language, len(msg.langs))
		copy(langs, msg.langs)
		// Gateway section first, then alphabetical within each section.
		sort.SliceStable(langs, func(i, j int) bool {
			if langs[i].IsGateway != langs[j].IsGateway {
				return langs[i].IsGateway
			}
			return langs[i].Name < langs[j].Name
		})
		s.all = langs
		s.filterLanguages()
		return nil

	case fetchErrorMsg:
		s.loading = false
		s.fetchErr = msg.err.Error()
		return nil

	case selectionErrorMsg:
		s.inlineErr = msg.err.Error()
		return nil

	case spinner.TickMsg:
		if s.loading {
			var cmd tea.Cmd
			s.spinner, cmd = s.spinner.Update(msg)
			return cmd
		}
		return nil
	}

	if s.loading {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd
	}

	if s.fetchErr != "" {
		if keyMsg, ok := msg.(tea.KeyPressMsg); ok && keyMsg.String() == "r" {
			s.loading = true
			s.fetchErr = ""
			return tea.Batch(s.fetchLanguages(), s.spinner.Tick)
		}
		return nil
	}

	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case "up":
			if s.cursor > 0 {
				s.cursor--
			}
			return nil
		case "down":
			if s.cursor < len(s.filtered)-1 {
				s.cursor++
			}
			return nil
		case "enter", "space":
			if s.cursor >= 0 && s.cursor < len(s.filtered) {
				s.inlineErr = ""
				lang := s.filtered[s.cursor]
				return func() tea.Msg {
					return addLanguageMsg{lang: lang}
				}
			}
			return nil
		case "ctrl+r":
			s.inlineErr = ""
			return func() tea.Msg {
				return resetGroupMsg{group: selection.GroupLanguages}
			}
		}
	}

	var cmd tea.Cmd
	s.searchInput, cmd = s.searchInput.Update(msg)
	s.filterLanguages()
	return cmd
}

// View renders the language step.
func (s *LanguagesStep) View() string {
	var b strings.Builder

	if s.loading {
		b.WriteString(s.spinner.View())
		b.WriteString(" Loading languages...\n")
		return b.String()
	}

	if s.fetchErr != "" {
		b.WriteString(styleError.Render("Error: " + s.fetchErr))
		b.WriteString("\n\n")
		b.WriteString(renderHintBar("r", "retry", "esc", "quit"))
		return b.String()
	}

	if s.state != nil && s.state.Notifications.Error != "" {
		// A failed transfer records its error on the session so the
		// wizard can explain why the user landed here.
		b.WriteString(styleError.Render("⚠ " + s.state.Notifications.Error))
		b.WriteString("\n\n")
	}

	b.WriteString(s.searchInput.View())
	b.WriteString("\n\n")

	selected := 0
	if s.state != nil {
		selected = s.state.Languages.Count()
	}
	b.WriteString(styleDim.Render("Selected: "))
	b.WriteString(styleSelected.Render(renderSelectedLanguages(s.state)))
	b.WriteString(styleDim.Render(limitNote(selected)))
	b.WriteString("\n\n")

	if len(s.filtered) == 0 {
		b.WriteString(styleDim.Render("No languages match your search"))
		b.WriteString("\n\n")
		b.WriteString(renderHintBar("type", "filter", "esc", "quit"))
		return b.String()
	}

	b.WriteString(s.renderList())

	if s.inlineErr != "" {
		b.WriteString("\n")
		b.WriteString(styleError.Render(s.inlineErr))
	}

	b.WriteString("\n\n")
	b.WriteString(renderHintBar(
		"type", "filter",
		"↑↓", "navigate",
		"space", "select",
		"ctrl+r", "reset step",
		"tab", "next",
	))

	return b.String()
}

// renderList renders the filtered directory in a window around the cursor,
// with section headers where the gateway block ends.
func (s *LanguagesStep) renderList() string {
	visible := s.height - 10
	if visible < 5 {
		visible = 5
	}

	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}
	end := start + visible
	if end > len(s.filtered) {
		end = len(s.filtered)
	}

	var b strings.Builder
	lastGateway := true
	for i := start; i < end; i++ {
		l := s.filtered[i]

		if i == start || l.IsGateway != lastGateway {
			if l.IsGateway {
				b.WriteString(styleSectionHeader.Render("Gateway languages"))
			} else {
				b.WriteString(styleSectionHeader.Render("Heart languages"))
			}
			b.WriteString("\n")
		}
		lastGateway = l.IsGateway

		cursor := "  "
		if i == s.cursor {
			cursor = styleCursor.Render("> ")
		}
		mark := "[ ]"
		line := l.Name + " (" + l.Code + ")"
		if s.state != nil && s.state.Languages.Has(l.Code) {
			mark = styleSelected.Render("[x]")
			line = styleSelected.Render(line)
		} else if i != s.cursor {
			line = styleDim.Render(line)
		}
		b.WriteString(cursor + mark + " " + line + "\n")
	}
	return b.String()
}

func renderSelectedLanguages(state *selection.State) string {
	if state == nil || state.Languages.Count() == 0 {
		return "none"
	}
	names := make([]string, 0, state.Languages.Count())
	for _, l := range state.Languages.Entries {
		names = append(names, l.Name)
	}
	return strings.Join(names, ", ")
}

func limitNote(selected int) string {
	if selected >= selection.MaxLanguages {
		return "  (limit reached)"
	}
	return ""
}
