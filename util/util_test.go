package util

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomString32(t *testing.T) {
	a, err := RandomString32()
	require.NoError(t, err)
	b, err := RandomString32()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestTrunc(t *testing.T) {
	assert.Equal(t, "abc", Trunc(" abc ", 3))
	assert.Equal(t, "ab…", Trunc("abc", 2))
	assert.Equal(t, "Čač…", Trunc("Čačak", 3))
}

func TestMarkdown_EscapesMarkup(t *testing.T) {
	out := string(Markdown(`<script>alert(1)</script> **bold** <img src=x onerror=alert(1)>`))
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestMarkdown_KeepsBlockquotesAndLinks(t *testing.T) {
	out := string(Markdown("> quoted\n\n[BalCCon](https://www.balccon.org)"))
	assert.Contains(t, out, "<blockquote>")
	assert.Contains(t, out, `<a href="https://www.balccon.org">BalCCon</a>`)
}

func TestMarkdown_LongLine(t *testing.T) {
	var long = strings.Repeat("a", 70000)
	out := string(Markdown("intro\n\n" + long + "\n\n\toutro"))
	assert.Contains(t, out, "<p>intro</p>")
	assert.Contains(t, out, long)
	assert.Contains(t, out, "<p>outro</p>")
}

func TestExcerpt(t *testing.T) {
	out := Excerpt(strings.NewReader("<h1>Call for papers</h1><p>Submit your talk &amp; workshop now.</p>"), 30)
	assert.Equal(t, "Call for papers Submit your ta…", out)
}

func TestWithPrefix(t *testing.T) {
	var handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		w.Write([]byte(r.URL.Path))
	})

	var prefixed = WithPrefix("/conf/", handler)

	rec := httptest.NewRecorder()
	prefixed.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conf/people", nil))
	assert.Equal(t, "/people", rec.Body.String())

	rec = httptest.NewRecorder()
	prefixed.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conf/login", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/conf/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	WithPrefix("", handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/people", nil))
	assert.Equal(t, "/people", rec.Body.String())
}
