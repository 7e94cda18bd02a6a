package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// meal renders one lookup record with the given ingredients.
func meal(id, name string, ingredients ...string) string {
	body := `{"idMeal":"` + id + `","strMeal":"` + name + `","strCategory":"Chicken","strArea":"Indian",` +
		`"strInstructions":"Prepare.\r\nCook.","strMealThumb":"https://img/` + id + `.jpg","strYoutube":"https://www.youtube.com/watch?v=` + id + `"`
	for i, ing := range ingredients {
		n := string(rune('1' + i))
		body += `,"strIngredient` + n + `":"` + ing + `","strMeasure` + n + `":"1 cup"`
	}
	return body + "}"
}

func summary(id, name string) string {
	return `{"idMeal":"` + id + `","strMeal":"` + name + `","strMealThumb":"https://img/` + id + `.jpg"}`
}

// fakeIndex serves a small TheMealDB-compatible catalogue.
func fakeIndex(t *testing.T) *httptest.Server {
	t.Helper()

	filters := map[string]string{
		"chicken": `{"meals":[` + summary("52795", "Chicken Handi") + `,` + summary("52940", "Brown Stew Chicken") + `]}`,
		"rice":    `{"meals":[` + summary("52795", "Chicken Handi") + `,` + summary("52772", "Teriyaki Chicken Casserole") + `]}`,
		"beef":    `{"meals":[` + summary("53000", "Beef Wellington") + `]}`,
	}
	lookups := map[string]string{
		"52795": meal("52795", "Chicken Handi", "Chicken", "Basmati Rice", "Onion"),
		"52940": meal("52940", "Brown Stew Chicken", "Chicken", "Tomato"),
		"52772": meal("52772", "Teriyaki Chicken Casserole", "soy sauce", "chicken breasts", "brown rice"),
		"53000": meal("53000", "Beef Wellington", "Beef Fillet", "Puff Pastry"),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		body := `{"meals":null}`
		switch r.URL.Path {
		case "/filter.php":
			if c := q.Get("c"); c == "Seafood" {
				body = `{"meals":[` + summary("52959", "Baked salmon with fennel") + `]}`
			} else if b, ok := filters[q.Get("i")]; ok {
				body = b
			}
		case "/lookup.php":
			if m, ok := lookups[q.Get("i")]; ok {
				body = `{"meals":[` + m + `]}`
			}
		case "/random.php":
			body = `{"meals":[` + lookups["52772"] + `]}`
		case "/search.php":
			if q.Get("s") == "handi" {
				body = `{"meals":[` + lookups["52795"] + `]}`
			}
		case "/categories.php":
			body = `{"categories":[{"idCategory":"1","strCategory":"Beef"},{"idCategory":"2","strCategory":"Seafood"}]}`
		default:
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// isolate points every pantry path at temp directories and the index at baseURL.
// It returns the project directory to pass with --dir.
func isolate(t *testing.T, baseURL string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NO_COLOR", "1")
	t.Setenv("PANTRY_BASE_URL", baseURL)
	t.Setenv("PANTRY_MAX_RETRIES", "0")
	t.Setenv("PANTRY_FAVORITES_BACKEND", "file")
	t.Setenv("PANTRY_FAVORITES_PATH", filepath.Join(home, "favorites.json"))
	t.Setenv("PANTRY_TIMEOUT", "")
	t.Setenv("PANTRY_VERIFY_PARALLELISM", "")
	t.Setenv("PANTRY_MAX_TERMS", "")
	t.Setenv("PANTRY_CACHE_SIZE", "")
	t.Setenv("PANTRY_LOG_LEVEL", "")
	t.Setenv("PANTRY_TELEMETRY", "")
	t.Setenv("PANTRY_TELEMETRY_PATH", "")
	return t.TempDir()
}

// run executes the root command with args and returns stdout and stderr.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(&bytes.Buffer{})
	root.SetArgs(append([]string{"--dir", dir}, args...))

	err := root.ExecuteContext(context.Background())
	_ = teardown(root, nil)
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, stderr, err := run(t, dir, args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return out
}
