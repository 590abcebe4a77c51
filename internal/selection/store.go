package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/docweaver/internal/books"
	"github.com/mark3labs/docweaver/internal/config"
	"github.com/mark3labs/docweaver/internal/logger"
	"github.com/mark3labs/docweaver/internal/nats"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/xid"
)

// Store manages selection state through JetStream event sourcing. It provides
// typed write operations per group and reconstructs state by replaying the
// session's event stream.
type Store struct {
	js               jetstream.JetStream
	stream           jetstream.Stream
	settingsDefaults SettingsSelection
}

// NewStore creates a Store. The settings defaults are what resetStores
// restores for the settings group; they come from config at session start.
func NewStore(js jetstream.JetStream, stream jetstream.Stream, defaults SettingsSelection) *Store {
	return &Store{
		js:               js,
		stream:           stream,
		settingsDefaults: defaults,
	}
}

// PublishEvent appends an event to the JetStream event log.
// Events are published to subjects following the pattern: docweaver.{session}.{group}
func (s *Store) PublishEvent(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = xid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := nats.SubjectForGroup(event.Session, event.Group)

	logger.Debug("Publishing event: session=%s group=%s action=%s", event.Session, event.Group, event.Action)

	if _, err := s.js.Publish(ctx, subject, data); err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// LoadState reconstructs the current state of a session by reading and
// reducing all events from the JetStream event log.
func (s *Store) LoadState(ctx context.Context, session string) (*State, error) {
	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: nats.SubjectForSession(session),
		DeliverPolicy: jetstream.DeliverAllPolicy, // Start from beginning
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	state := NewState(session, s.settingsDefaults)

	// Fetch events in batches and reduce into state
	const batchSize = 1000
	malformed := 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			// No more messages or error - we've read everything
			break
		}

		msgCount := 0
		for msg := range msgs.Messages() {
			msgCount++
			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				// Log malformed event and skip (ack to prevent redelivery)
				malformed++
				msg.Ack()
				continue
			}

			state.Apply(event)
			msg.Ack()
		}

		if msgCount < batchSize {
			break
		}
	}

	if malformed > 0 {
		logger.Warn("Skipped %d malformed events while loading session %s", malformed, session)
	}

	return state, nil
}

// LanguagesAdd appends a language to the selection. At most two languages may
// be selected and codes must be unique within the selection.
func (s *Store) LanguagesAdd(ctx context.Context, session string, lang Language) error {
	if lang.Code == "" {
		return fmt.Errorf("language code is required")
	}

	state, err := s.LoadState(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if state.Languages.Has(lang.Code) {
		return fmt.Errorf("language already selected: %s", lang.Code)
	}
	if state.Languages.Count() >= MaxLanguages {
		return fmt.Errorf("at most %d languages may be selected", MaxLanguages)
	}

	meta, _ := json.Marshal(lang)
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(GroupLanguages),
		Action:  ActionAdd,
		Data:    lang.Code,
		Meta:    meta,
	})
}

// BooksAdd adds one book by code. The testament set it lands in is decided
// by the static canon tables; unknown codes are rejected.
func (s *Store) BooksAdd(ctx context.Context, session, code string) error {
	if code == "" {
		return fmt.Errorf("book code is required")
	}

	state, err := s.LoadState(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if state.Books.Has(code) {
		return fmt.Errorf("book already selected: %s", code)
	}

	if _, _, ok := books.Classify(code); !ok {
		return fmt.Errorf("unknown book code: %s", code)
	}

	meta, _ := json.Marshal(map[string]string{"code": code})
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(GroupBooks),
		Action:  ActionAdd,
		Data:    code,
		Meta:    meta,
	})
}

// BooksAddAll selects every canonical OT and NT book.
func (s *Store) BooksAddAll(ctx context.Context, session string) error {
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(GroupBooks),
		Action:  ActionAddAll,
	})
}

// ResourceTypesAdd adds a resource type entry for a selected language.
// Entries for languages outside the current selection are rejected.
func (s *Store) ResourceTypesAdd(ctx context.Context, session string, rt ResourceType) error {
	if rt.LangCode == "" || rt.TypeCode == "" {
		return fmt.Errorf("language code and type code are required")
	}

	state, err := s.LoadState(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if !state.Languages.Has(rt.LangCode) {
		return fmt.Errorf("language not selected: %s", rt.LangCode)
	}
	if state.ResourceTypes.Has(rt.LangCode, rt.TypeCode) {
		return fmt.Errorf("resource type already selected: %s/%s", rt.LangCode, rt.TypeCode)
	}

	meta, _ := json.Marshal(rt)
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(GroupResourceTypes),
		Action:  ActionAdd,
		Data:    rt.TypeCode,
		Meta:    meta,
	})
}

// ResourceTypesPrune clears entries whose language is no longer selected.
func (s *Store) ResourceTypesPrune(ctx context.Context, session string) error {
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(GroupResourceTypes),
		Action:  ActionPrune,
	})
}

// SettingsSet replaces the settings record. The document key is preserved;
// it is only assigned through SetDocumentKey.
func (s *Store) SettingsSet(ctx context.Context, session string, settings SettingsSelection) error {
	switch settings.AssemblyStrategy {
	case config.AssemblyLanguageMajor, config.AssemblyBookMajor:
	default:
		return fmt.Errorf("invalid assembly strategy: %s", settings.AssemblyStrategy)
	}
	switch settings.ChunkSize {
	case config.ChunkChapter, config.ChunkVerse:
	default:
		return fmt.Errorf("invalid chunk size: %s", settings.ChunkSize)
	}

	meta, _ := json.Marshal(settings)
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(GroupSettings),
		Action:  ActionSet,
		Meta:    meta,
	})
}

// SetDocumentKey records the opaque request key assigned by the backend once
// generation is accepted.
func (s *Store) SetDocumentKey(ctx context.Context, session, key string) error {
	if key == "" {
		return fmt.Errorf("document key is required")
	}
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(GroupSettings),
		Action:  ActionDocumentKey,
		Data:    key,
	})
}

// NotificationsSet replaces the notification state.
func (s *Store) NotificationsSet(ctx context.Context, session string, n NotificationState) error {
	meta, _ := json.Marshal(n)
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(GroupNotifications),
		Action:  ActionSet,
		Meta:    meta,
	})
}

// ResetGroup restores exactly one group to its default value. It is the only
// destructive mutation; cascading across groups is the invalidation policy's
// job, not the store's.
func (s *Store) ResetGroup(ctx context.Context, session string, group Group) error {
	if !ValidGroup(string(group)) {
		return fmt.Errorf("unknown group: %s", group)
	}
	return s.PublishEvent(ctx, Event{
		Session: session,
		Group:   string(group),
		Action:  ActionReset,
	})
}
