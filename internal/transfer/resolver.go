// Package transfer reconstructs wizard selection state from an externally
// supplied resource-repository URL, so a deep link lands the user on the
// Settings step with the same state a manual walk would have produced.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/mark3labs/docweaver/internal/logger"
	"github.com/mark3labs/docweaver/internal/lookup"
	"github.com/mark3labs/docweaver/internal/selection"
	"github.com/mark3labs/docweaver/internal/wizard"
)

// ErrRepoURLMissing is returned when the route carries no repo_url value.
// Terminal: the transfer is unsupported and is not retried.
var ErrRepoURLMissing = errors.New("transfer link is unsupported: no repository URL")

// UnsupportedFormatError is returned when the repository token does not
// split into 2 or 4 parts. Terminal.
type UnsupportedFormatError struct {
	Token string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("transfer link is unsupported: unrecognized repository name %q", e.Token)
}

// UnknownLanguageError is returned when the language directory has no entry
// for the parsed language code. Terminal.
type UnknownLanguageError struct {
	Code string
}

func (e *UnknownLanguageError) Error() string {
	return fmt.Sprintf("language code %q is not available", e.Code)
}

// legacy resource code aliases for whole-Bible transfers.
var resourceAliases = map[string]string{
	"ulb": "ulb-wa",
}

// Target is the canonical (language, book-or-all, resource) triple parsed
// from a transfer token.
type Target struct {
	LangCode     string
	BookCode     string // empty when WholeBible
	ResourceCode string
	WholeBible   bool
	BookName     string // display-only, not used in resolution
}

// ParseRoute extracts the repo_url query value from a route segment, takes
// the final path segment of the decoded URL as an underscore-delimited
// token, and interprets it:
//
//	4 parts: (langCode, bookCode, _ignored, resourceCode) - single book
//	2 parts: (langCode, resourceCode) - whole Bible, with legacy aliases
//
// Any other split count is an unsupported-format error.
func ParseRoute(route string) (*Target, error) {
	values, err := url.ParseQuery(route)
	if err != nil {
		return nil, fmt.Errorf("transfer link is unsupported: %w", err)
	}

	repoURL := values.Get("repo_url")
	if repoURL == "" {
		return nil, ErrRepoURLMissing
	}

	parsed, err := url.Parse(repoURL)
	if err != nil {
		return nil, fmt.Errorf("transfer link is unsupported: bad repository URL: %w", err)
	}

	token := path.Base(parsed.Path)
	parts := strings.Split(token, "_")

	switch len(parts) {
	case 4:
		return &Target{
			LangCode:     parts[0],
			BookCode:     parts[1],
			ResourceCode: parts[3],
			BookName:     values.Get("book_name"),
		}, nil
	case 2:
		resource := parts[1]
		if alias, ok := resourceAliases[resource]; ok {
			resource = alias
		}
		return &Target{
			LangCode:     parts[0],
			ResourceCode: resource,
			WholeBible:   true,
			BookName:     values.Get("book_name"),
		}, nil
	default:
		return nil, &UnsupportedFormatError{Token: token}
	}
}

// Outcome reports where a successful resolution landed.
type Outcome struct {
	Step Step
	// ResourceTypeMatched is false when the shared-resource-types lookup
	// produced no match for the parsed resource code; the user still lands
	// on Settings, with an empty resource-type group.
	ResourceTypeMatched bool
}

// Step aliases the wizard step type so callers of the resolver don't need
// both packages for the common case.
type Step = wizard.Step

// Resolver drives the lookup client to validate and expand a parsed target
// into full selection-state entries.
type Resolver struct {
	Lookup *lookup.Client
	Store  *selection.Store
}

// New creates a Resolver.
func New(client *lookup.Client, store *selection.Store) *Resolver {
	return &Resolver{Lookup: client, Store: store}
}

// Resolve validates the target against the lookup backend and writes the
// resulting selections. The lookup calls are sequential: resource types
// depend on the resolved language and books. A language failure is terminal;
// a resource-type failure is logged and swallowed so the user is not blocked
// on a non-critical lookup. On success the wizard should jump to Settings.
func (r *Resolver) Resolve(ctx context.Context, session string, target *Target) (*Outcome, error) {
	// Language: fetch the full directory and filter on the parsed code.
	langs, err := r.Lookup.LangCodesNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("looking up languages: %w", err)
	}

	var match *lookup.Language
	for i := range langs {
		if langs[i].Code == target.LangCode {
			match = &langs[i]
			break
		}
	}
	if match == nil {
		return nil, &UnknownLanguageError{Code: target.LangCode}
	}

	if err := r.Store.LanguagesAdd(ctx, session, selection.Language{
		Code:      match.Code,
		Name:      match.Name,
		IsGateway: match.IsGateway,
	}); err != nil {
		return nil, fmt.Errorf("recording language: %w", err)
	}

	// Books: one classified entry, or the whole canon.
	if target.WholeBible {
		if err := r.Store.BooksAddAll(ctx, session); err != nil {
			return nil, fmt.Errorf("recording books: %w", err)
		}
	} else {
		if err := r.Store.BooksAdd(ctx, session, target.BookCode); err != nil {
			return nil, fmt.Errorf("recording book: %w", err)
		}
	}

	outcome := &Outcome{Step: wizard.StepSettings}

	// Resource types: non-fatal. A transport failure or zero matches leaves
	// the group empty; the user still lands on Settings.
	state, err := r.Store.LoadState(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	pairs, err := r.Lookup.SharedResourceTypes(ctx, target.LangCode, state.Books.Codes())
	if err != nil {
		logger.Warn("Resource type lookup failed for %s, continuing without: %v", target.LangCode, err)
		return outcome, nil
	}

	for _, p := range pairs {
		if p.Code != target.ResourceCode {
			continue
		}
		if err := r.Store.ResourceTypesAdd(ctx, session, selection.ResourceType{
			LangCode: target.LangCode,
			TypeCode: p.Code,
			TypeName: p.Name,
		}); err != nil {
			logger.Warn("Failed to record resource type %s/%s: %v", target.LangCode, p.Code, err)
			return outcome, nil
		}
		outcome.ResourceTypeMatched = true
		break
	}
	if !outcome.ResourceTypeMatched {
		logger.Warn("No resource type %q available for %s, continuing without", target.ResourceCode, target.LangCode)
	}

	return outcome, nil
}

// ResolveRoute parses a route segment and resolves it. Terminal failures
// (parse errors, unknown language, language lookup transport failures) are
// recorded as the session's user-facing error message before being returned;
// they never propagate uncaught past this boundary.
func (r *Resolver) ResolveRoute(ctx context.Context, session, route string) (*Outcome, error) {
	target, err := ParseRoute(route)
	if err != nil {
		r.recordError(ctx, session, err)
		return nil, err
	}

	outcome, err := r.Resolve(ctx, session, target)
	if err != nil {
		r.recordError(ctx, session, err)
		return nil, err
	}
	return outcome, nil
}

func (r *Resolver) recordError(ctx context.Context, session string, cause error) {
	state, err := r.Store.LoadState(ctx, session)
	if err != nil {
		logger.Error("Failed to load state while recording transfer error: %v", err)
		return
	}
	n := state.Notifications
	n.Error = cause.Error()
	if err := r.Store.NotificationsSet(ctx, session, n); err != nil {
		logger.Error("Failed to record transfer error: %v", err)
	}
}
