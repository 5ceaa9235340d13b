package handlers

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

// SPA serves files from staticDir and answers every other GET with the
// application's entry document so client-side routes survive a reload.
// Unknown /api/ paths get a JSON 404 instead.
func SPA(staticDir, indexFile string) http.Handler {
	fsys := os.DirFS(staticDir)
	files := http.FileServerFS(fsys)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name != "" {
			if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}

		if _, err := fs.Stat(fsys, indexFile); err != nil {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, fsys, indexFile)
	})
}
