package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// newAPIServer serves the login and me endpoints most tests need and
// points SG_API_URL at itself.
func newAPIServer(t *testing.T, extra http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["password"] != "abc" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"non_field_errors": []string{"Unable to log in with provided credentials."},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"token": "T1", "email": creds["email"], "slug": "a-b",
		})
	})
	mux.HandleFunc("/api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token T1" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token."})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"email": "a@b.com", "slug": "a-b"})
	})
	if extra != nil {
		mux.HandleFunc("/", extra)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Setenv("SG_API_URL", srv.URL)
	return srv
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestLoginThenWhoami(t *testing.T) {
	newAPIServer(t, nil)
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "login", "--email", "a@b.com", "--password", "abc")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged in as a@b.com")

	// The credential survives across invocations.
	stdout, _, err = executeCLI(t, home, "whoami")
	require.NoError(t, err)
	assert.Contains(t, stdout, "a@b.com (a-b)")
}

func TestLoginRejectedCredentials(t *testing.T) {
	newAPIServer(t, nil)

	_, _, err := executeCLI(t, t.TempDir(), "login", "--email", "a@b.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unable to log in")
}

func TestLoginRequiresFlags(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "login", "--email", "a@b.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "\"password\" not set")
}

func TestLogout(t *testing.T) {
	newAPIServer(t, nil)
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "login", "--email", "a@b.com", "--password", "abc")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "logout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Logged out")

	stdout, _, err = executeCLI(t, home, "whoami")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not logged in")
}

func TestEntryViewRendersSections(t *testing.T) {
	newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/entries/go-channels/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"slug":        "go-channels",
			"title":       "Go Channels",
			"description": "<h3>Buffered</h3><p>Hold values.</p><h3>Unbuffered</h3><p>Rendezvous.</p>",
		})
	})
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "login", "--email", "a@b.com", "--password", "abc")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "entry", "view", "go-channels")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Go Channels")
	assert.Contains(t, stdout, "Buffered")
	assert.Contains(t, stdout, "Hold values.")
	assert.Contains(t, stdout, "Rendezvous.")
}

func TestEntryViewCachedWorksOffline(t *testing.T) {
	srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"slug":        "go-channels",
			"title":       "Go Channels",
			"description": "<h3>Intro</h3><p>body</p>",
		})
	})
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "login", "--email", "a@b.com", "--password", "abc")
	require.NoError(t, err)

	// A successful view populates the cache.
	_, _, err = executeCLI(t, home, "entry", "view", "go-channels")
	require.NoError(t, err)

	srv.Close()

	stdout, _, err := executeCLI(t, home, "entry", "view", "--cached", "go-channels")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Go Channels")
}

func TestEntryViewMissingCacheEntry(t *testing.T) {
	newAPIServer(t, nil)
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "entry", "view", "--cached", "never-fetched")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry not found")
}

func TestEntryList(t *testing.T) {
	newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/entries/", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"slug": "go-channels", "title": "Go Channels", "description": "d"},
			{"slug": "go-maps", "title": "Go Maps", "description": "d"},
		})
	})
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "login", "--email", "a@b.com", "--password", "abc")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "entry", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "go-channels")
	assert.Contains(t, stdout, "go-maps")

	// The listing fed the offline cache.
	stdout, _, err = executeCLI(t, home, "entry", "list", "--cached")
	require.NoError(t, err)
	assert.Contains(t, stdout, "go-channels")
}

func TestBookmarksRequireLogin(t *testing.T) {
	newAPIServer(t, nil)

	_, _, err := executeCLI(t, t.TempDir(), "bookmarks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestBookmarks(t *testing.T) {
	newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/users/a-b/bookmarks/", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"entry": "Go Channels", "slug": "go-channels"},
		})
	})
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "login", "--email", "a@b.com", "--password", "abc")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "bookmarks")
	require.NoError(t, err)
	assert.Contains(t, stdout, "go-channels")
	assert.Contains(t, stdout, "Go Channels")
}

func TestNotify(t *testing.T) {
	newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/notify/a-b/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusOK)
	})
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "login", "--email", "a@b.com", "--password", "abc")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "notify", "hello", "there")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Notification sent to a-b")
}

func TestRegister(t *testing.T) {
	newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/users/register/", r.URL.Path)
		var fields map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, "ada", fields["username"])
		assert.Equal(t, fields["password"], fields["password2"])
		w.WriteHeader(http.StatusCreated)
	})

	stdout, _, err := executeCLI(t, t.TempDir(), "register",
		"--username", "ada",
		"--email", "ada@b.com",
		"--password", "pw",
		"--password-confirm", "pw",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Registered ada@b.com")
}

func TestEntryRequest(t *testing.T) {
	newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/entries/request-new/", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "go generics", payload["query"])
		w.WriteHeader(http.StatusAccepted)
	})
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "login", "--email", "a@b.com", "--password", "abc")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "entry", "request", "go", "generics")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Entry requested")
}
