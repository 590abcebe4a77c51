package transfer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mark3labs/docweaver/internal/lookup"
	"github.com/mark3labs/docweaver/internal/nats"
	"github.com/mark3labs/docweaver/internal/selection"
	"github.com/mark3labs/docweaver/internal/wizard"
)

func newTestStore(t *testing.T) *selection.Store {
	t.Helper()

	ns, err := nats.StartEmbeddedNATS(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(ns.Shutdown)

	nc, err := nats.ConnectInProcess(ns)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := nats.CreateJetStream(nc)
	require.NoError(t, err)

	stream, err := nats.SetupStream(context.Background(), js)
	require.NoError(t, err)

	return selection.NewStore(js, stream, selection.SettingsSelection{
		AssemblyStrategy: "book-major",
		ChunkSize:        "chapter",
	})
}

// route builds the query segment a deep link carries.
func route(repoURL, bookName string) string {
	v := url.Values{}
	v.Set("repo_url", repoURL)
	if bookName != "" {
		v.Set("book_name", bookName)
	}
	return v.Encode()
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(lookup.DefaultLangCodesNamesPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["en","English",true],["pt-br","Brazilian Portuguese",true]]`))
	})
	mux.HandleFunc(lookup.DefaultSharedResourceTypesPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[["ulb","Unlocked Literal Bible"],["ulb-wa","Unlocked Literal Bible (WA)"],["tn","Translation Notes"]]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestParseRoute(t *testing.T) {
	t.Run("four-part token is a single-book target", func(t *testing.T) {
		target, err := ParseRoute(route("https://content.example.org/repos/u/pt-br_mat_text_ulb", "Matthew"))
		require.NoError(t, err)
		require.Equal(t, "pt-br", target.LangCode)
		require.Equal(t, "mat", target.BookCode)
		require.Equal(t, "ulb", target.ResourceCode)
		require.False(t, target.WholeBible)
		require.Equal(t, "Matthew", target.BookName)
	})

	t.Run("two-part token is whole Bible with legacy alias", func(t *testing.T) {
		target, err := ParseRoute(route("https://content.example.org/repos/u/en_ulb", ""))
		require.NoError(t, err)
		require.Equal(t, "en", target.LangCode)
		require.Equal(t, "ulb-wa", target.ResourceCode)
		require.True(t, target.WholeBible)
		require.Empty(t, target.BookCode)
	})

	t.Run("non-aliased whole-Bible resource passes through", func(t *testing.T) {
		target, err := ParseRoute(route("https://content.example.org/repos/u/en_tn", ""))
		require.NoError(t, err)
		require.Equal(t, "tn", target.ResourceCode)
	})

	t.Run("percent-encoded repo URL is decoded", func(t *testing.T) {
		raw := "repo_url=" + url.QueryEscape("https://content.example.org/repos/u/pt-br_mat_text_ulb")
		target, err := ParseRoute(raw)
		require.NoError(t, err)
		require.Equal(t, "pt-br", target.LangCode)
	})

	t.Run("missing repo_url is terminal", func(t *testing.T) {
		_, err := ParseRoute("book_name=Matthew")
		require.ErrorIs(t, err, ErrRepoURLMissing)
	})

	t.Run("unsupported split counts", func(t *testing.T) {
		for _, repo := range []string{
			"https://content.example.org/repos/u/en",
			"https://content.example.org/repos/u/en_mat_ulb",
			"https://content.example.org/repos/u/a_b_c_d_e",
		} {
			_, err := ParseRoute(route(repo, ""))
			var unsupported *UnsupportedFormatError
			require.ErrorAs(t, err, &unsupported, "repo %s", repo)
		}
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("single-book link lands on settings", func(t *testing.T) {
		server := newBackend(t)
		store := newTestStore(t)
		resolver := New(lookup.New(server.URL), store)

		outcome, err := resolver.ResolveRoute(ctx, "s1",
			route("https://content.example.org/repos/u/pt-br_mat_text_ulb", "Matthew"))
		require.NoError(t, err)
		require.Equal(t, wizard.StepSettings, outcome.Step)
		require.True(t, outcome.ResourceTypeMatched)

		st, err := store.LoadState(ctx, "s1")
		require.NoError(t, err)
		require.Equal(t, 1, st.Languages.Count())
		require.Equal(t, "pt-br", st.Languages.Entries[0].Code)
		require.Equal(t, "Brazilian Portuguese", st.Languages.Entries[0].Name)
		require.Equal(t, 1, st.Books.Count())
		require.Len(t, st.Books.NewTestament, 1)
		require.Empty(t, st.Books.OldTestament)
		require.True(t, st.ResourceTypes.Has("pt-br", "ulb"))
		require.Empty(t, st.Notifications.Error)
	})

	t.Run("whole-Bible link selects the full canon under the alias", func(t *testing.T) {
		server := newBackend(t)
		store := newTestStore(t)
		resolver := New(lookup.New(server.URL), store)

		outcome, err := resolver.ResolveRoute(ctx, "s2",
			route("https://content.example.org/repos/u/en_ulb", ""))
		require.NoError(t, err)
		require.Equal(t, wizard.StepSettings, outcome.Step)

		st, err := store.LoadState(ctx, "s2")
		require.NoError(t, err)
		require.Equal(t, 66, st.Books.Count())
		require.True(t, st.ResourceTypes.Has("en", "ulb-wa"))
		require.False(t, st.ResourceTypes.Has("en", "ulb"))
	})

	t.Run("unknown language is terminal and recorded", func(t *testing.T) {
		server := newBackend(t)
		store := newTestStore(t)
		resolver := New(lookup.New(server.URL), store)

		_, err := resolver.ResolveRoute(ctx, "s3",
			route("https://content.example.org/repos/u/xx_mat_text_ulb", ""))
		var unknown *UnknownLanguageError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, "xx", unknown.Code)
		require.Contains(t, err.Error(), "xx")

		st, loadErr := store.LoadState(ctx, "s3")
		require.NoError(t, loadErr)
		require.Equal(t, 0, st.Languages.Count())
		require.Contains(t, st.Notifications.Error, "xx")
	})

	t.Run("resource type lookup failure is swallowed", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(lookup.DefaultLangCodesNamesPath, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[["en","English",true]]`))
		})
		mux.HandleFunc(lookup.DefaultSharedResourceTypesPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		store := newTestStore(t)
		resolver := New(lookup.New(server.URL), store)

		outcome, err := resolver.ResolveRoute(ctx, "s4",
			route("https://content.example.org/repos/u/en_mat_text_ulb", ""))
		require.NoError(t, err)
		require.Equal(t, wizard.StepSettings, outcome.Step)
		require.False(t, outcome.ResourceTypeMatched)

		st, err := store.LoadState(ctx, "s4")
		require.NoError(t, err)
		require.Equal(t, 1, st.Languages.Count())
		require.Equal(t, 1, st.Books.Count())
		require.Equal(t, 0, st.ResourceTypes.Count())
	})

	t.Run("zero resource type matches still lands on settings", func(t *testing.T) {
		server := newBackend(t)
		store := newTestStore(t)
		resolver := New(lookup.New(server.URL), store)

		outcome, err := resolver.ResolveRoute(ctx, "s5",
			route("https://content.example.org/repos/u/en_mat_text_obscure", ""))
		require.NoError(t, err)
		require.False(t, outcome.ResourceTypeMatched)

		st, err := store.LoadState(ctx, "s5")
		require.NoError(t, err)
		require.Equal(t, 0, st.ResourceTypes.Count())
	})

	t.Run("language directory failure is terminal and recorded", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(lookup.DefaultLangCodesNamesPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		store := newTestStore(t)
		resolver := New(lookup.New(server.URL), store)

		_, err := resolver.ResolveRoute(ctx, "s6",
			route("https://content.example.org/repos/u/en_mat_text_ulb", ""))
		require.Error(t, err)
		var unknown *UnknownLanguageError
		require.False(t, errors.As(err, &unknown))

		st, loadErr := store.LoadState(ctx, "s6")
		require.NoError(t, loadErr)
		require.NotEmpty(t, st.Notifications.Error)
	})
}

func TestResolveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	server := newBackend(t)
	store := newTestStore(t)
	resolver := New(lookup.New(server.URL), store)

	link := route("https://content.example.org/repos/u/pt-br_mat_text_ulb", "Matthew")

	t.Run("two sessions resolving the same link end up identical", func(t *testing.T) {
		first, err := resolver.ResolveRoute(ctx, "idem-a", link)
		require.NoError(t, err)
		second, err := resolver.ResolveRoute(ctx, "idem-b", link)
		require.NoError(t, err)
		require.Equal(t, first.Step, second.Step)

		stA, err := store.LoadState(ctx, "idem-a")
		require.NoError(t, err)
		stB, err := store.LoadState(ctx, "idem-b")
		require.NoError(t, err)
		require.Equal(t, stA.Languages.Entries, stB.Languages.Entries)
		require.Equal(t, stA.Books, stB.Books)
		require.Equal(t, stA.ResourceTypes.Entries, stB.ResourceTypes.Entries)
	})

	t.Run("re-resolving a populated session never duplicates selections", func(t *testing.T) {
		_, err := resolver.ResolveRoute(ctx, "idem-c", link)
		require.NoError(t, err)

		// The second pass is rejected at the duplicate language and leaves
		// the selections exactly as the first pass wrote them.
		_, err = resolver.ResolveRoute(ctx, "idem-c", link)
		require.Error(t, err)

		st, err := store.LoadState(ctx, "idem-c")
		require.NoError(t, err)
		require.Equal(t, 1, st.Languages.Count())
		require.Equal(t, 1, st.Books.Count())
		require.Equal(t, 1, st.ResourceTypes.Count())
		require.NotEmpty(t, st.Notifications.Error)
	})
}
