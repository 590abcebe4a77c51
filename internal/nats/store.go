package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream holding all selection events.
const StreamName = "docweaver_selections"

// SubjectForSession returns the wildcard subject pattern for all selection
// events in a session. Example: "docweaver.mysession.>"
func SubjectForSession(session string) string {
	return fmt.Sprintf("docweaver.%s.>", session)
}

// SubjectForGroup returns the specific subject for a selection group in a
// session. Example: "docweaver.mysession.languages"
func SubjectForGroup(session, group string) string {
	return fmt.Sprintf("docweaver.%s.%s", session, group)
}

// SetupStream creates or updates the JetStream stream for selection events.
// The stream is memory-backed: wizard state is session-scoped and is not
// meant to survive a restart.
func SetupStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"docweaver.>"},
		Storage:  jetstream.MemoryStorage,
	})
}
