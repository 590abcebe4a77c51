package tui

import (
	"github.com/mark3labs/docweaver/internal/lookup"
	"github.com/mark3labs/docweaver/internal/selection"
	"github.com/mark3labs/docweaver/internal/wizard"
)

// languagesLoadedMsg is sent when the language directory has been fetched.
type languagesLoadedMsg struct {
	langs []lookup.Language
}

// resourceTypesLoadedMsg is sent when shared resource types have been
// fetched for every selected language. counts carries the per-language
// available resource totals when that display option is enabled.
type resourceTypesLoadedMsg struct {
	types  []selection.ResourceType
	counts map[string]int
}

// fetchErrorMsg is sent when a lookup call fails. Steps render it inline
// with a retry hint.
type fetchErrorMsg struct {
	err error
}

// stateRefreshedMsg is sent after any store write, carrying the freshly
// replayed state.
type stateRefreshedMsg struct {
	state *selection.State
}

// selectionErrorMsg is sent when a store write is rejected, for example
// adding a third language. The message is shown inline on the current step.
type selectionErrorMsg struct {
	err error
}

// addLanguageMsg asks the wizard to record a language selection.
type addLanguageMsg struct {
	lang lookup.Language
}

// addBookMsg asks the wizard to record a single book selection.
type addBookMsg struct {
	code string
}

// addAllBooksMsg asks the wizard to record the full canon.
type addAllBooksMsg struct{}

// addResourceTypeMsg asks the wizard to record a resource type selection.
type addResourceTypeMsg struct {
	rt selection.ResourceType
}

// settingsChangedMsg asks the wizard to persist the full settings group.
type settingsChangedMsg struct {
	settings selection.SettingsSelection
}

// advanceStepMsg asks the wizard to move to the given step, refreshing
// state on the way. Sent when a guarded forward navigation resolves.
type advanceStepMsg struct {
	step wizard.Step
}

// resetGroupMsg asks the wizard to clear the current step's group.
type resetGroupMsg struct {
	group selection.Group
}

// submitDocumentMsg asks the wizard to queue the document request.
type submitDocumentMsg struct{}

// documentQueuedMsg is sent when the backend has accepted the request.
type documentQueuedMsg struct {
	key string
}

// documentErrorMsg is sent when the document request fails.
type documentErrorMsg struct {
	err error
}
