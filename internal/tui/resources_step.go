package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/mark3labs/docweaver/internal/config"
	"github.com/mark3labs/docweaver/internal/logger"
	"github.com/mark3labs/docweaver/internal/lookup"
	"github.com/mark3labs/docweaver/internal/selection"
)

// ResourceTypesStep manages the resource type selection step. The available
// types depend on the chosen languages and books, so the list is refetched
// every time the step is entered.
type ResourceTypesStep struct {
	client *lookup.Client
	cfg    *config.Config
	state  *selection.State

	available []selection.ResourceType
	counts    map[string]int // available resource codes per language

	cursor    int
	spinner   spinner.Model
	loading   bool
	fetchErr  string
	inlineErr string
	width     int
	height    int
}

// NewResourceTypesStep creates the resource type selection step.
func NewResourceTypesStep(client *lookup.Client, cfg *config.Config) *ResourceTypesStep {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return &ResourceTypesStep{
		client:  client,
		cfg:     cfg,
		spinner: s,
		counts:  map[string]int{},
		width:   60,
		height:  10,
	}
}

// Init refetches the shared resource types for the current selections.
func (s *ResourceTypesStep) Init() tea.Cmd {
	s.inlineErr = ""
	s.loading = true
	s.fetchErr = ""
	s.cursor = 0
	return tea.Batch(s.fetchTypes(), s.spinner.Tick)
}

// fetchTypes queries the shared resource types for every selected language,
// scoped to the selected books. With counts enabled it also queries how many
// resources each language carries.
func (s *ResourceTypesStep) fetchTypes() tea.Cmd {
	client := s.client
	state := s.state
	showCounts := s.cfg.ShowResourceCounts
	return func() tea.Msg {
		if state == nil {
			return resourceTypesLoadedMsg{}
		}
		ctx := context.Background()
		bookCodes := state.Books.Codes()

		var available []selection.ResourceType
		for _, lang := range state.Languages.Entries {
			pairs, err := client.SharedResourceTypes(ctx, lang.Code, bookCodes)
			if err != nil {
				return fetchErrorMsg{err: err}
			}
			for _, p := range pairs {
				available = append(available, selection.ResourceType{
					LangCode: lang.Code,
					TypeCode: p.Code,
					TypeName: p.Name,
				})
			}
		}

		counts := map[string]int{}
		if showCounts {
			for _, lang := range state.Languages.Entries {
				codes, err := client.ResourceCodesForLang(ctx, lang.Code)
				if err != nil {
					// Counts are decoration; skip them on failure.
					logger.Warn("Resource count lookup failed for %s: %v", lang.Code, err)
					continue
				}
				counts[lang.Code] = len(codes)
			}
		}

		return resourceTypesLoadedMsg{types: available, counts: counts}
	}
}

func (s *ResourceTypesStep) setState(state *selection.State) {
	s.state = state
}

// SetSize updates the dimensions for the step.
func (s *ResourceTypesStep) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Update handles messages for the resource type step.
func (s *ResourceTypesStep) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case resourceTypesLoadedMsg:
		s.loading = false
		s.fetchErr = ""
		s.available = msg.types
		s.counts = msg.counts
		if s.cursor >= len(s.available) {
			s.cursor = 0
		}
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
			return tea.Batch(s.fetchTypes(), s.spinner.Tick)
		}
		return nil
	}

	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return nil
	}

	switch keyMsg.String() {
	case "up":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down":
		if s.cursor < len(s.available)-1 {
			s.cursor++
		}
	case "enter", "space":
		if s.cursor >= 0 && s.cursor < len(s.available) {
			s.inlineErr = ""
			rt := s.available[s.cursor]
			return func() tea.Msg {
				return addResourceTypeMsg{rt: rt}
			}
		}
	case "ctrl+r":
		s.inlineErr = ""
		return func() tea.Msg {
			return resetGroupMsg{group: selection.GroupResourceTypes}
		}
	}
	return nil
}

// View renders the resource type step, grouped by language.
func (s *ResourceTypesStep) View() string {
	var b strings.Builder

	if s.loading {
		b.WriteString(s.spinner.View())
		b.WriteString(" Loading resource types...\n")
		return b.String()
	}

	if s.fetchErr != "" {
		b.WriteString(styleError.Render("Error: " + s.fetchErr))
		b.WriteString("\n\n")
		b.WriteString(renderHintBar("r", "retry", "esc", "back"))
		return b.String()
	}

	if len(s.available) == 0 {
		b.WriteString(styleDim.Render("No shared resource types cover every selected book."))
		b.WriteString("\n")
		b.WriteString(styleDim.Render("Go back and narrow your book selection."))
		b.WriteString("\n\n")
		b.WriteString(renderHintBar("esc", "back"))
		return b.String()
	}

	lastLang := ""
	for i, rt := range s.available {
		if rt.LangCode != lastLang {
			header := s.languageHeader(rt.LangCode)
			b.WriteString(styleSectionHeader.Render(header))
			b.WriteString("\n")
			lastLang = rt.LangCode
		}

		cursor := "  "
		if i == s.cursor {
			cursor = styleCursor.Render("> ")
		}
		mark := "[ ]"
		line := rt.TypeName + " (" + rt.TypeCode + ")"
		if s.state != nil && s.state.ResourceTypes.Has(rt.LangCode, rt.TypeCode) {
			mark = styleSelected.Render("[x]")
			line = styleSelected.Render(line)
		} else if i != s.cursor {
			line = styleDim.Render(line)
		}
		b.WriteString(cursor + mark + " " + line + "\n")
	}

	if s.inlineErr != "" {
		b.WriteString("\n")
		b.WriteString(styleError.Render(s.inlineErr))
	}

	b.WriteString("\n\n")
	b.WriteString(renderHintBar(
		"↑↓", "navigate",
		"space", "select",
		"ctrl+r", "reset step",
		"tab", "next",
	))

	return b.String()
}

// languageHeader labels a language section, with the available resource
// count when that display option is enabled.
func (s *ResourceTypesStep) languageHeader(langCode string) string {
	name := langCode
	if s.state != nil {
		for _, l := range s.state.Languages.Entries {
			if l.Code == langCode {
				name = l.Name
				break
			}
		}
	}
	if count, ok := s.counts[langCode]; ok {
		return fmt.Sprintf("%s (%d resources)", name, count)
	}
	return name
}
