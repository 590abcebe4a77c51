package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/mark3labs/docweaver/internal/books"
	"github.com/mark3labs/docweaver/internal/selection"
)

// BooksStep manages the book selection step: the static canon in two
// testament columns with a shared cursor.
type BooksStep struct {
	state *selection.State

	canon     []books.Book // OT then NT, cursor indexes into this
	otCount   int
	cursor    int
	inlineErr string
	width     int
	height    int
}

// NewBooksStep creates the book selection step.
func NewBooksStep() *BooksStep {
	ot := books.OldTestament()
	nt := books.NewTestament()
	canon := make([]books.Book, 0, len(ot)+len(nt))
	canon = append(canon, ot...)
	canon = append(canon, nt...)

	return &BooksStep{
		canon:   canon,
		otCount: len(ot),
		width:   60,
		height:  10,
	}
}

// Init resets transient state on entry. The canon is static so there is
// nothing to fetch.
func (s *BooksStep) Init() tea.Cmd {
	s.inlineErr = ""
	return nil
}

func (s *BooksStep) setState(state *selection.State) {
	s.state = state
}

// SetSize updates the dimensions for the step.
func (s *BooksStep) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// Update handles messages for the book step.
func (s *BooksStep) Update(msg tea.Msg) tea.Cmd {
	if errMsg, ok := msg.(selectionErrorMsg); ok {
		s.inlineErr = errMsg.err.Error()
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
		if s.cursor < len(s.canon)-1 {
			s.cursor++
		}
	case "pgup":
		s.cursor -= 10
		if s.cursor < 0 {
			s.cursor = 0
		}
	case "pgdown":
		s.cursor += 10
		if s.cursor >= len(s.canon) {
			s.cursor = len(s.canon) - 1
		}
	case "enter", "space":
		s.inlineErr = ""
		code := s.canon[s.cursor].Code
		return func() tea.Msg {
			return addBookMsg{code: code}
		}
	case "a":
		s.inlineErr = ""
		return func() tea.Msg {
			return addAllBooksMsg{}
		}
	case "ctrl+r":
		s.inlineErr = ""
		return func() tea.Msg {
			return resetGroupMsg{group: selection.GroupBooks}
		}
	}
	return nil
}

// View renders the book step.
func (s *BooksStep) View() string {
	var b strings.Builder

	count := 0
	if s.state != nil {
		count = s.state.Books.Count()
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("Selected: %d of %d books", count, books.Total())))
	b.WriteString("\n\n")

	b.WriteString(s.renderList())

	if s.inlineErr != "" {
		b.WriteString("\n")
		b.WriteString(styleError.Render(s.inlineErr))
	}

	b.WriteString("\n\n")
	b.WriteString(renderHintBar(
		"↑↓", "navigate",
		"space", "select",
		"a", "whole Bible",
		"ctrl+r", "reset step",
		"tab", "next",
	))

	return b.String()
}

// renderList renders a testament-labelled window of the canon around the
// cursor.
func (s *BooksStep) renderList() string {
	visible := s.height - 8
	if visible < 5 {
		visible = 5
	}

	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}
	end := start + visible
	if end > len(s.canon) {
		end = len(s.canon)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		if i == start || i == s.otCount {
			if i < s.otCount {
				b.WriteString(styleSectionHeader.Render("Old Testament"))
			} else {
				b.WriteString(styleSectionHeader.Render("New Testament"))
			}
			b.WriteString("\n")
		}

		book := s.canon[i]
		cursor := "  "
		if i == s.cursor {
			cursor = styleCursor.Render("> ")
		}
		mark := "[ ]"
		line := book.Name
		if s.state != nil && s.state.Books.Has(book.Code) {
			mark = styleSelected.Render("[x]")
			line = styleSelected.Render(line)
		} else if i != s.cursor {
			line = styleDim.Render(line)
		}
		b.WriteString(cursor + mark + " " + line + "\n")
	}
	return b.String()
}
