package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"toolcheck/internal/config"
)

// ViewResultHandler serves a persisted annotated artifact by its path
// relative to the output root. Any resolution escaping the root is
// rejected.
func ViewResultHandler(cfg *config.Config) http.HandlerFunc {
	root, rootErr := filepath.Abs(cfg.OutputDirectory)

	return func(w http.ResponseWriter, r *http.Request) {
		if rootErr != nil {
			respondError(w, "Output root unavailable", http.StatusInternalServerError)
			return
		}

		rel := r.URL.Query().Get("path")
		if rel == "" {
			respondError(w, "Missing path parameter", http.StatusBadRequest)
			return
		}

		target, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			respondError(w, "Invalid path", http.StatusBadRequest)
			return
		}
		inside, err := filepath.Rel(root, target)
		if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
			respondError(w, "Path escapes output root", http.StatusBadRequest)
			return
		}

		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, target)
	}
}
