// Package wizard holds the step state machine and the dependency
// invalidation policy. Everything here is a pure function of selection
// state, unit-testable without a UI.
package wizard

import (
	"fmt"

	"github.com/mark3labs/docweaver/internal/selection"
)

// Step is one position in the strictly ordered wizard flow.
type Step int

const (
	StepLanguages Step = iota
	StepBooks
	StepResourceTypes
	StepSettings
	StepResult
)

// Order lists the steps in wizard order. Languages is initial, Result is
// terminal.
var Order = []Step{StepLanguages, StepBooks, StepResourceTypes, StepSettings, StepResult}

// String returns the display name of a step.
func (s Step) String() string {
	switch s {
	case StepLanguages:
		return "Languages"
	case StepBooks:
		return "Books"
	case StepResourceTypes:
		return "Resource Types"
	case StepSettings:
		return "Settings"
	case StepResult:
		return "Result"
	default:
		return "Unknown"
	}
}

// Group returns the selection group a step edits. Result has no group of its
// own; it reads the settings group's document key.
func (s Step) Group() selection.Group {
	switch s {
	case StepLanguages:
		return selection.GroupLanguages
	case StepBooks:
		return selection.GroupBooks
	case StepResourceTypes:
		return selection.GroupResourceTypes
	case StepSettings, StepResult:
		return selection.GroupSettings
	default:
		return ""
	}
}

// Next returns the following step. ok is false at the terminal step.
func (s Step) Next() (Step, bool) {
	if s >= StepResult {
		return s, false
	}
	return s + 1, true
}

// Prev returns the preceding step. ok is false at the initial step.
func (s Step) Prev() (Step, bool) {
	if s <= StepLanguages {
		return s, false
	}
	return s - 1, true
}

// NextEnabled reports whether the step's forward control is enabled. A step
// unlocks once its own group holds at least one entry; Settings unlocks once
// at least one output format is requested. An attempted forward transition
// with a false guard is a no-op, not an error.
func NextEnabled(s Step, st *selection.State) bool {
	switch s {
	case StepLanguages:
		return st.Languages.Count() >= 1
	case StepBooks:
		return st.Books.Count() >= 1
	case StepResourceTypes:
		return st.ResourceTypes.Count() >= 1
	case StepSettings:
		return st.Settings.Formats.Any()
	default:
		return false
	}
}

// Reachable reports whether a step can be shown: every preceding step's
// guard must hold. Partial states left by an interrupted resolution are
// safe; the first unsatisfied guard keeps everything past it unreachable.
func Reachable(s Step, st *selection.State) bool {
	for _, prior := range Order {
		if prior == s {
			return true
		}
		if !NextEnabled(prior, st) {
			return false
		}
	}
	return false
}

// Crumb is one entry of the breadcrumb progress indicator.
type Crumb struct {
	Step     Step
	Label    string
	Current  bool
	Complete bool
}

// Breadcrumb derives the four-step progress indicator from the current step
// and the group counts. It has no state of its own; callers recompute it on
// every observation. Result is the terminal screen, not a crumb.
func Breadcrumb(current Step, st *selection.State) []Crumb {
	crumbs := make([]Crumb, 0, 4)
	for _, s := range Order[:len(Order)-1] {
		crumbs = append(crumbs, Crumb{
			Step:     s,
			Label:    s.String(),
			Current:  s == current,
			Complete: NextEnabled(s, st),
		})
	}
	return crumbs
}

// Title returns the "Step N of 4" heading for a step. The Result screen
// keeps the final step number.
func Title(current Step) string {
	n := int(current) + 1
	if current == StepResult {
		n = len(Order) - 1
	}
	return fmt.Sprintf("Step %d of %d: %s", n, len(Order)-1, current)
}
