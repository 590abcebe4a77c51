package selection

import (
	"encoding/json"
	"time"
)

// Event represents a selection mutation stored in the JetStream event log.
// Every write to the store (step forms, transfer resolver, resets) is an
// event; current state is the reduction of the session's event stream.
type Event struct {
	ID        string          `json:"id"`        // Unique event ID
	Timestamp time.Time       `json:"timestamp"` // When the event occurred
	Session   string          `json:"session"`   // Session name
	Group     string          `json:"group"`     // Selection group the event targets
	Action    string          `json:"action"`    // add, add_all, prune, set, document_key, reset
	Meta      json.RawMessage `json:"meta"`      // Action-specific payload
	Data      string          `json:"data"`      // Primary value for single-field actions
}

// Event actions per group. "reset" is valid for every group and restores the
// group's defaults without touching any other group.
const (
	ActionAdd         = "add"
	ActionAddAll      = "add_all"
	ActionPrune       = "prune"
	ActionSet         = "set"
	ActionDocumentKey = "document_key"
	ActionReset       = "reset"
)

// Apply folds an event into the state, implementing the reduce pattern.
// Malformed or stale events are ignored rather than failing the replay; the
// invariants (unique language codes, canon membership, language-bound
// resource types) are re-enforced here so a replayed stream can never
// produce an invalid state.
func (st *State) Apply(event Event) {
	switch Group(event.Group) {
	case GroupLanguages:
		st.applyLanguages(event)
	case GroupBooks:
		st.applyBooks(event)
	case GroupResourceTypes:
		st.applyResourceTypes(event)
	case GroupSettings:
		st.applySettings(event)
	case GroupNotifications:
		st.applyNotifications(event)
	}
}

func (st *State) applyLanguages(event Event) {
	switch event.Action {
	case ActionAdd:
		var lang Language
		if err := json.Unmarshal(event.Meta, &lang); err != nil || lang.Code == "" {
			return
		}
		if st.Languages.Has(lang.Code) || st.Languages.Count() >= MaxLanguages {
			return
		}
		st.Languages.Entries = append(st.Languages.Entries, lang)

	case ActionReset:
		st.Languages = LanguageSelection{}
	}
}

func (st *State) applyBooks(event Event) {
	switch event.Action {
	case ActionAdd:
		var meta struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(event.Meta, &meta); err != nil || meta.Code == "" {
			return
		}
		st.addBook(meta.Code)

	case ActionAddAll:
		for _, code := range allCanonCodes() {
			st.addBook(code)
		}

	case ActionReset:
		st.Books = BookSelection{}
	}
}

func (st *State) applyResourceTypes(event Event) {
	switch event.Action {
	case ActionAdd:
		var rt ResourceType
		if err := json.Unmarshal(event.Meta, &rt); err != nil || rt.LangCode == "" || rt.TypeCode == "" {
			return
		}
		// Entries must be keyed to a currently selected language.
		if !st.Languages.Has(rt.LangCode) {
			return
		}
		if st.ResourceTypes.Has(rt.LangCode, rt.TypeCode) {
			return
		}
		st.ResourceTypes.Entries = append(st.ResourceTypes.Entries, rt)

	case ActionPrune:
		st.pruneResourceTypes()

	case ActionReset:
		st.ResourceTypes = ResourceTypeSelection{}
	}
}

func (st *State) applySettings(event Event) {
	switch event.Action {
	case ActionSet:
		var settings SettingsSelection
		if err := json.Unmarshal(event.Meta, &settings); err != nil {
			return
		}
		// The document key is only ever assigned through its own action.
		settings.DocumentKey = st.Settings.DocumentKey
		st.Settings = settings

	case ActionDocumentKey:
		st.Settings.DocumentKey = event.Data

	case ActionReset:
		st.Settings = st.settingsDefaults
	}
}

func (st *State) applyNotifications(event Event) {
	switch event.Action {
	case ActionSet:
		var n NotificationState
		if err := json.Unmarshal(event.Meta, &n); err != nil {
			return
		}
		st.Notifications = n

	case ActionReset:
		st.Notifications = NotificationState{}
	}
}
