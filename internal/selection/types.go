// Package selection holds the wizard's selection state: an event-sourced
// store whose groups (languages, books, resource types, settings,
// notifications) are written by the step forms or the transfer resolver and
// reset as a unit.
package selection

import (
	"github.com/mark3labs/docweaver/internal/books"
	"github.com/mark3labs/docweaver/internal/config"
)

// Group names one independently resettable slice of wizard state.
type Group string

const (
	GroupLanguages     Group = "languages"
	GroupBooks         Group = "books"
	GroupResourceTypes Group = "resource_types"
	GroupSettings      Group = "settings"
	GroupNotifications Group = "notifications"
)

// StepOrder lists the step-backed groups in wizard order. Notifications sit
// outside the order; they are bookkeeping, not a step.
var StepOrder = []Group{GroupLanguages, GroupBooks, GroupResourceTypes, GroupSettings}

// ValidGroup reports whether s names a known group.
func ValidGroup(s string) bool {
	switch Group(s) {
	case GroupLanguages, GroupBooks, GroupResourceTypes, GroupSettings, GroupNotifications:
		return true
	default:
		return false
	}
}

// Language is one selected language.
type Language struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	IsGateway bool   `json:"is_gateway"`
}

// LanguageSelection is the ordered set of selected languages. At most two
// entries; the first is the primary language. Gateway and heart entries are
// split out for display but share this one canonical ordered list.
type LanguageSelection struct {
	Entries []Language `json:"entries"`
}

// Count returns the number of selected languages.
func (l LanguageSelection) Count() int { return len(l.Entries) }

// Has reports whether a language code is selected.
func (l LanguageSelection) Has(code string) bool {
	for _, e := range l.Entries {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Codes returns the selected language codes in selection order.
func (l LanguageSelection) Codes() []string {
	out := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		out = append(out, e.Code)
	}
	return out
}

// Gateway returns the gateway-language entries, in selection order.
func (l LanguageSelection) Gateway() []Language {
	var out []Language
	for _, e := range l.Entries {
		if e.IsGateway {
			out = append(out, e)
		}
	}
	return out
}

// Heart returns the heart-language entries, in selection order.
func (l LanguageSelection) Heart() []Language {
	var out []Language
	for _, e := range l.Entries {
		if !e.IsGateway {
			out = append(out, e)
		}
	}
	return out
}

// MaxLanguages caps how many languages one document may interleave.
const MaxLanguages = 2

// Book is one selected book.
type Book struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// BookSelection holds the selected books split by testament. A code appears
// in at most one of the two sets; membership is decided by the static canon
// tables, never by the caller.
type BookSelection struct {
	OldTestament []Book `json:"old_testament"`
	NewTestament []Book `json:"new_testament"`
}

// Count returns the total number of selected books across both testaments.
func (b BookSelection) Count() int {
	return len(b.OldTestament) + len(b.NewTestament)
}

// Has reports whether a book code is selected in either testament.
func (b BookSelection) Has(code string) bool {
	for _, e := range b.OldTestament {
		if e.Code == code {
			return true
		}
	}
	for _, e := range b.NewTestament {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Codes returns all selected book codes, OT first, each set in insertion order.
func (b BookSelection) Codes() []string {
	out := make([]string, 0, b.Count())
	for _, e := range b.OldTestament {
		out = append(out, e.Code)
	}
	for _, e := range b.NewTestament {
		out = append(out, e.Code)
	}
	return out
}

// ResourceType is one selected resource type, keyed to a language slot.
type ResourceType struct {
	LangCode string `json:"lang_code"`
	TypeCode string `json:"type_code"`
	TypeName string `json:"type_name"`
}

// ResourceTypeSelection holds the selected resource types. Every entry's
// LangCode must belong to the current LanguageSelection; entries for removed
// languages are stale and are cleared on prune.
type ResourceTypeSelection struct {
	Entries []ResourceType `json:"entries"`
}

// Count returns the number of selected resource types across all languages.
func (r ResourceTypeSelection) Count() int { return len(r.Entries) }

// Has reports whether a (language, type) pair is selected.
func (r ResourceTypeSelection) Has(langCode, typeCode string) bool {
	for _, e := range r.Entries {
		if e.LangCode == langCode && e.TypeCode == typeCode {
			return true
		}
	}
	return false
}

// ForLanguage returns the entries selected for one language slot.
func (r ResourceTypeSelection) ForLanguage(langCode string) []ResourceType {
	var out []ResourceType
	for _, e := range r.Entries {
		if e.LangCode == langCode {
			out = append(out, e)
		}
	}
	return out
}

// Formats holds the requested output formats. EPub and Docx are only
// meaningful when layout-for-print is set, but the store does not enforce
// that coupling; the settings form does.
type Formats struct {
	PDF  bool `json:"pdf"`
	EPub bool `json:"epub"`
	Docx bool `json:"docx"`
}

// Any reports whether at least one output format is requested.
func (f Formats) Any() bool { return f.PDF || f.EPub || f.Docx }

// SettingsSelection holds the output settings step's record.
type SettingsSelection struct {
	LayoutForPrint   bool    `json:"layout_for_print"`
	AssemblyStrategy string  `json:"assembly_strategy"`
	ChunkSize        string  `json:"chunk_size"`
	Formats          Formats `json:"formats"`
	Email            string  `json:"email"`
	// DocumentKey is the opaque request key assigned once generation is
	// accepted by the backend.
	DocumentKey string `json:"document_key"`
}

// DefaultSettings derives the session's default settings record from config.
func DefaultSettings(cfg *config.Config) SettingsSelection {
	return SettingsSelection{
		AssemblyStrategy: cfg.AssemblyStrategy,
		ChunkSize:        cfg.ChunkSize,
		Email:            cfg.NotifyEmail,
	}
}

// NotificationState carries cross-step bookkeeping: document readiness, the
// user-facing error message, and the reset-pending sentinel set when an
// upstream change invalidated downstream groups.
type NotificationState struct {
	DocumentReady bool   `json:"document_ready"`
	Error         string `json:"error"`
	ResetPending  bool   `json:"reset_pending"`
}

// State is the reducible value for one session. All groups start at their
// documented defaults; Apply folds events into it. It carries no locking:
// one user action or resolver step runs at a time within a session.
type State struct {
	Session       string                `json:"session"`
	Languages     LanguageSelection     `json:"languages"`
	Books         BookSelection         `json:"books"`
	ResourceTypes ResourceTypeSelection `json:"resource_types"`
	Settings      SettingsSelection     `json:"settings"`
	Notifications NotificationState     `json:"notifications"`

	settingsDefaults SettingsSelection
}

// NewState creates an empty state for a session. The settings defaults are
// captured once; resetting the settings group restores exactly these values.
func NewState(session string, defaults SettingsSelection) *State {
	return &State{
		Session:          session,
		Settings:         defaults,
		settingsDefaults: defaults,
	}
}

// SettingsAtDefault reports whether the settings group still holds its
// session defaults.
func (st *State) SettingsAtDefault() bool {
	return st.Settings == st.settingsDefaults
}

// GroupEmpty reports whether a group holds only its default value.
func (st *State) GroupEmpty(g Group) bool {
	switch g {
	case GroupLanguages:
		return st.Languages.Count() == 0
	case GroupBooks:
		return st.Books.Count() == 0
	case GroupResourceTypes:
		return st.ResourceTypes.Count() == 0
	case GroupSettings:
		return st.SettingsAtDefault()
	case GroupNotifications:
		return st.Notifications == NotificationState{}
	default:
		return true
	}
}

// addBook appends a classified book to the matching testament set.
// Unknown codes and duplicates are ignored.
func (st *State) addBook(code string) {
	if st.Books.Has(code) {
		return
	}
	book, testament, ok := books.Classify(code)
	if !ok {
		return
	}
	entry := Book{Code: book.Code, Name: book.Name}
	switch testament {
	case books.TestamentOld:
		st.Books.OldTestament = append(st.Books.OldTestament, entry)
	case books.TestamentNew:
		st.Books.NewTestament = append(st.Books.NewTestament, entry)
	}
}

// allCanonCodes returns every canonical book code, OT then NT.
func allCanonCodes() []string {
	out := make([]string, 0, books.Total())
	for _, b := range books.OldTestament() {
		out = append(out, b.Code)
	}
	for _, b := range books.NewTestament() {
		out = append(out, b.Code)
	}
	return out
}

// pruneResourceTypes drops entries whose language left the selection.
func (st *State) pruneResourceTypes() {
	kept := st.ResourceTypes.Entries[:0:0]
	for _, e := range st.ResourceTypes.Entries {
		if st.Languages.Has(e.LangCode) {
			kept = append(kept, e)
		}
	}
	st.ResourceTypes.Entries = kept
}
