package wizard

import (
	"context"
	"fmt"

	"github.com/mark3labs/docweaver/internal/logger"
	"github.com/mark3labs/docweaver/internal/selection"
)

// downstream is the dependency table: writes to a key group invalidate the
// listed groups, in order. Resetting a group never touches the group itself
// or anything upstream of it.
var downstream = map[selection.Group][]selection.Group{
	selection.GroupLanguages: {
		selection.GroupBooks,
		selection.GroupResourceTypes,
		selection.GroupSettings,
	},
	selection.GroupBooks: {
		selection.GroupResourceTypes,
		selection.GroupSettings,
	},
}

// Downstream returns the groups strictly downstream of g, in reset order.
func Downstream(g selection.Group) []selection.Group {
	return downstream[g]
}

// PendingReset reports whether a write to the changed group should flag a
// reset: true iff any strictly-downstream group currently holds non-default
// data. When everything downstream is already empty the change is a no-op
// and no flag is raised.
func PendingReset(st *selection.State, changed selection.Group) bool {
	for _, g := range downstream[changed] {
		if !st.GroupEmpty(g) {
			return true
		}
	}
	return false
}

// FlagPendingReset checks the session state and, if a downstream group holds
// data, sets the reset-pending sentinel instead of mutating anything. The UI
// presents a confirmation and calls ConfirmReset once the user agrees.
// Returns whether the flag was raised.
func FlagPendingReset(ctx context.Context, store *selection.Store, session string, changed selection.Group) (bool, error) {
	st, err := store.LoadState(ctx, session)
	if err != nil {
		return false, fmt.Errorf("failed to load state: %w", err)
	}
	if !PendingReset(st, changed) {
		return false, nil
	}

	n := st.Notifications
	n.ResetPending = true
	if err := store.NotificationsSet(ctx, session, n); err != nil {
		return false, fmt.Errorf("failed to flag pending reset: %w", err)
	}
	logger.Debug("Flagged pending reset: session=%s changed=%s", session, changed)
	return true, nil
}

// ConfirmReset resets every group downstream of the changed group, in order,
// then clears the reset-pending sentinel. The changed group itself and its
// upstream groups are never reset.
func ConfirmReset(ctx context.Context, store *selection.Store, session string, changed selection.Group) error {
	for _, g := range downstream[changed] {
		if err := store.ResetGroup(ctx, session, g); err != nil {
			return fmt.Errorf("failed to reset %s: %w", g, err)
		}
	}

	st, err := store.LoadState(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	n := st.Notifications
	n.ResetPending = false
	if err := store.NotificationsSet(ctx, session, n); err != nil {
		return fmt.Errorf("failed to clear pending reset: %w", err)
	}

	logger.Debug("Confirmed reset: session=%s changed=%s downstream=%d", session, changed, len(downstream[changed]))
	return nil
}
