package selection

import (
	"encoding/json"
	"testing"
)

func mustMeta(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal meta: %v", err)
	}
	return data
}

func TestApplyLanguages(t *testing.T) {
	t.Run("adds in order", func(t *testing.T) {
		st := NewState("s", SettingsSelection{})
		st.Apply(Event{Group: string(GroupLanguages), Action: ActionAdd,
			Meta: mustMeta(t, Language{Code: "en", Name: "English", IsGateway: true})})
		st.Apply(Event{Group: string(GroupLanguages), Action: ActionAdd,
			Meta: mustMeta(t, Language{Code: "abz", Name: "Abui"})})

		if st.Languages.Count() != 2 {
			t.Fatalf("expected 2 languages, got %d", st.Languages.Count())
		}
		if st.Languages.Entries[0].Code != "en" || st.Languages.Entries[1].Code != "abz" {
			t.Errorf("unexpected order: %v", st.Languages.Codes())
		}
	})

	t.Run("replay ignores duplicates and overflow", func(t *testing.T) {
		st := NewState("s", SettingsSelection{})
		for _, code := range []string{"en", "en", "fr", "de"} {
			st.Apply(Event{Group: string(GroupLanguages), Action: ActionAdd,
				Meta: mustMeta(t, Language{Code: code, Name: code})})
		}
		if st.Languages.Count() != MaxLanguages {
			t.Errorf("expected %d languages after replay, got %d", MaxLanguages, st.Languages.Count())
		}
		if st.Languages.Has("de") {
			t.Error("third distinct language should have been dropped")
		}
	})

	t.Run("gateway and heart split", func(t *testing.T) {
		st := NewState("s", SettingsSelection{})
		st.Apply(Event{Group: string(GroupLanguages), Action: ActionAdd,
			Meta: mustMeta(t, Language{Code: "en", Name: "English", IsGateway: true})})
		st.Apply(Event{Group: string(GroupLanguages), Action: ActionAdd,
			Meta: mustMeta(t, Language{Code: "abz", Name: "Abui"})})

		if got := st.Languages.Gateway(); len(got) != 1 || got[0].Code != "en" {
			t.Errorf("unexpected gateway split: %v", got)
		}
		if got := st.Languages.Heart(); len(got) != 1 || got[0].Code != "abz" {
			t.Errorf("unexpected heart split: %v", got)
		}
	})
}

func TestApplyBooks(t *testing.T) {
	t.Run("classifies into testaments", func(t *testing.T) {
		st := NewState("s", SettingsSelection{})
		for _, code := range []string{"gen", "mat", "rev"} {
			st.Apply(Event{Group: string(GroupBooks), Action: ActionAdd,
				Meta: mustMeta(t, map[string]string{"code": code})})
		}
		if len(st.Books.OldTestament) != 1 || st.Books.OldTestament[0].Code != "gen" {
			t.Errorf("unexpected OT set: %v", st.Books.OldTestament)
		}
		if len(st.Books.NewTestament) != 2 {
			t.Errorf("unexpected NT set: %v", st.Books.NewTestament)
		}
		if st.Books.NewTestament[0].Name != "Matthew" {
			t.Errorf("expected display name from canon table, got %q", st.Books.NewTestament[0].Name)
		}
	})

	t.Run("unknown codes are dropped on replay", func(t *testing.T) {
		st := NewState("s", SettingsSelection{})
		st.Apply(Event{Group: string(GroupBooks), Action: ActionAdd,
			Meta: mustMeta(t, map[string]string{"code": "bogus"})})
		if st.Books.Count() != 0 {
			t.Errorf("expected unknown code to be dropped, got %v", st.Books)
		}
	})

	t.Run("add_all yields the whole canon once", func(t *testing.T) {
		st := NewState("s", SettingsSelection{})
		st.Apply(Event{Group: string(GroupBooks), Action: ActionAdd,
			Meta: mustMeta(t, map[string]string{"code": "mat"})})
		st.Apply(Event{Group: string(GroupBooks), Action: ActionAddAll})

		if st.Books.Count() != 66 {
			t.Errorf("expected 66 books, got %d", st.Books.Count())
		}
		if len(st.Books.OldTestament) != 39 || len(st.Books.NewTestament) != 27 {
			t.Errorf("unexpected testament counts: OT=%d NT=%d",
				len(st.Books.OldTestament), len(st.Books.NewTestament))
		}
	})
}

func TestApplyResourceTypes(t *testing.T) {
	addLang := func(t *testing.T, st *State, code string) {
		t.Helper()
		st.Apply(Event{Group: string(GroupLanguages), Action: ActionAdd,
			Meta: mustMeta(t, Language{Code: code, Name: code})})
	}

	t.Run("entries must be language-bound", func(t *testing.T) {
		st := NewState("s", SettingsSelection{})
		st.Apply(Event{Group: string(GroupResourceTypes), Action: ActionAdd,
			Meta: mustMeta(t, ResourceType{LangCode: "en", TypeCode: "ulb"})})
		if st.ResourceTypes.Count() != 0 {
			t.Error("entry for unselected language should have been dropped")
		}

		addLang(t, st, "en")
		st.Apply(Event{Group: string(GroupResourceTypes), Action: ActionAdd,
			Meta: mustMeta(t, ResourceType{LangCode: "en", TypeCode: "ulb", TypeName: "ULB"})})
		if !st.ResourceTypes.Has("en", "ulb") {
			t.Error("expected entry for selected language")
		}
	})

	t.Run("prune drops stale entries only", func(t *testing.T) {
		st := NewState("s", SettingsSelection{})
		addLang(t, st, "en")
		addLang(t, st, "fr")
		st.Apply(Event{Group: string(GroupResourceTypes), Action: ActionAdd,
			Meta: mustMeta(t, ResourceType{LangCode: "en", TypeCode: "ulb"})})
		st.Apply(Event{Group: string(GroupResourceTypes), Action: ActionAdd,
			Meta: mustMeta(t, ResourceType{LangCode: "fr", TypeCode: "tn"})})

		st.Apply(Event{Group: string(GroupLanguages), Action: ActionReset})
		addLang(t, st, "fr")
		st.Apply(Event{Group: string(GroupResourceTypes), Action: ActionPrune})

		if st.ResourceTypes.Has("en", "ulb") {
			t.Error("stale entry for removed language survived prune")
		}
		if !st.ResourceTypes.Has("fr", "tn") {
			t.Error("entry for still-selected language was pruned")
		}
	})
}

func TestApplySettings(t *testing.T) {
	defaults := SettingsSelection{
		AssemblyStrategy: "book-major",
		ChunkSize:        "chapter",
		Email:            "default@example.com",
	}

	t.Run("set preserves document key", func(t *testing.T) {
		st := NewState("s", defaults)
		st.Apply(Event{Group: string(GroupSettings), Action: ActionDocumentKey, Data: "key-1"})
		st.Apply(Event{Group: string(GroupSettings), Action: ActionSet,
			Meta: mustMeta(t, SettingsSelection{
				AssemblyStrategy: "language-major",
				ChunkSize:        "verse",
				Formats:          Formats{PDF: true},
			})})

		if st.Settings.DocumentKey != "key-1" {
			t.Errorf("document key lost on settings set: %q", st.Settings.DocumentKey)
		}
		if st.Settings.AssemblyStrategy != "language-major" {
			t.Errorf("settings not replaced: %+v", st.Settings)
		}
	})

	t.Run("reset restores session defaults", func(t *testing.T) {
		st := NewState("s", defaults)
		st.Apply(Event{Group: string(GroupSettings), Action: ActionSet,
			Meta: mustMeta(t, SettingsSelection{
				AssemblyStrategy: "language-major",
				ChunkSize:        "verse",
				Formats:          Formats{PDF: true, EPub: true},
				LayoutForPrint:   true,
			})})
		if st.GroupEmpty(GroupSettings) {
			t.Fatal("settings should not be at defaults after set")
		}

		st.Apply(Event{Group: string(GroupSettings), Action: ActionReset})
		if st.Settings != defaults {
			t.Errorf("reset did not restore defaults: %+v", st.Settings)
		}
		if !st.GroupEmpty(GroupSettings) {
			t.Error("GroupEmpty should report defaults after reset")
		}
	})
}

func TestApplyNotifications(t *testing.T) {
	st := NewState("s", SettingsSelection{})
	st.Apply(Event{Group: string(GroupNotifications), Action: ActionSet,
		Meta: mustMeta(t, NotificationState{Error: "boom", ResetPending: true})})

	if st.Notifications.Error != "boom" || !st.Notifications.ResetPending {
		t.Errorf("unexpected notification state: %+v", st.Notifications)
	}

	st.Apply(Event{Group: string(GroupNotifications), Action: ActionReset})
	if (st.Notifications != NotificationState{}) {
		t.Errorf("expected cleared notifications, got %+v", st.Notifications)
	}
}
