package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStatic(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))
	return dir
}

func TestSPA(t *testing.T) {
	h := SPA(writeStatic(t), "index.html")

	tests := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{"root", http.MethodGet, "/", http.StatusOK, "<html>app</html>"},
		{"asset", http.MethodGet, "/assets/app.js", http.StatusOK, "console.log(1)"},
		{"client route", http.MethodGet, "/quiz/42", http.StatusOK, "<html>app</html>"},
		{"directory falls back", http.MethodGet, "/assets", http.StatusOK, "<html>app</html>"},
		{"traversal stays inside", http.MethodGet, "/../../etc/passwd", http.StatusOK, "<html>app</html>"},
		{"unknown api", http.MethodGet, "/api/nope", http.StatusNotFound, `"message":"Not found"`},
		{"post", http.MethodPost, "/anything", http.StatusMethodNotAllowed, `"success":false`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestSPAWithoutIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	SPA(t.TempDir(), "index.html").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/somewhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
