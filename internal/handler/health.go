package handler

import "net/http"

// RootHandler returns the service banner.
func RootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		respondJSON(w, map[string]string{
			"message": "Tool Recognition Service",
			"version": "1.0.0",
			"status":  "active",
		}, http.StatusOK)
	}
}

// HealthHandler reports liveness.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, map[string]string{"status": "healthy"}, http.StatusOK)
	}
}
