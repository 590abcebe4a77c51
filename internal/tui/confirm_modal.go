package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/mark3labs/docweaver/internal/selection"
)

// ConfirmModal asks the user to approve clearing downstream selections
// before an upstream change is applied.
type ConfirmModal struct {
	visible    bool
	advance    bool
	group      selection.Group
	downstream []selection.Group
}

// NewConfirmModal creates a hidden confirmation modal.
func NewConfirmModal() *ConfirmModal {
	return &ConfirmModal{}
}

// Show makes the modal visible for a change to the given group.
func (m *ConfirmModal) Show(group selection.Group, downstream []selection.Group) {
	m.visible = true
	m.advance = false
	m.group = group
	m.downstream = downstream
}

// ShowAdvance makes the modal visible for a forward navigation away from a
// revisited group. Declining keeps the downstream selections.
func (m *ConfirmModal) ShowAdvance(group selection.Group, downstream []selection.Group) {
	m.visible = true
	m.advance = true
	m.group = group
	m.downstream = downstream
}

// Hide hides the modal.
func (m *ConfirmModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is currently visible.
func (m *ConfirmModal) IsVisible() bool {
	return m.visible
}

var groupLabels = map[selection.Group]string{
	selection.GroupLanguages:     "languages",
	selection.GroupBooks:         "books",
	selection.GroupResourceTypes: "resource types",
	selection.GroupSettings:      "settings",
}

// Render renders the confirmation modal.
func (m *ConfirmModal) Render() string {
	labels := make([]string, 0, len(m.downstream))
	for _, g := range m.downstream {
		labels = append(labels, groupLabels[g])
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorYellow).
		MarginBottom(1)
	titleText := titleStyle.Render("⚠ Clear later steps?")

	messageStyle := lipgloss.NewStyle().
		Foreground(colorText).
		MarginBottom(1)
	message := fmt.Sprintf(
		"Changing your %s will clear your selections in: %s.",
		groupLabels[m.group], strings.Join(labels, ", "),
	)
	buttons := styleDim.Render("Press Y to confirm, N or ESC to cancel")
	if m.advance {
		message = fmt.Sprintf(
			"You revisited your %s. Clear your selections in %s before continuing?",
			groupLabels[m.group], strings.Join(labels, ", "),
		)
		buttons = styleDim.Render("Press Y to clear and continue, N or ESC to keep them")
	}
	messageText := messageStyle.Render(message)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleText,
		messageText,
		"",
		buttons,
	)

	modalStyle := lipgloss.NewStyle().
		Width(60).
		Padding(2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorYellow)

	return modalStyle.Render(content)
}
