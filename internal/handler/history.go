package handler

import (
	"net/http"
	"strconv"

	"toolcheck/internal/logger"
	"toolcheck/internal/model"
	"toolcheck/internal/repository"
)

const defaultHistoryLimit = 20

// SessionHistory is one stored session with its item results.
type SessionHistory struct {
	model.SessionRecord
	Items []model.ItemRecord `json:"items"`
}

// HistoryHandler returns the most recent stored session reports.
func HistoryHandler(reports repository.ReportRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}

		sessions, err := reports.Recent(limit)
		if err != nil {
			log.Error("Failed to load session history: %v", err)
			respondError(w, "Failed to load history", http.StatusInternalServerError)
			return
		}

		history := make([]SessionHistory, 0, len(sessions))
		for _, s := range sessions {
			items, err := reports.ItemsBySessionID(s.ID)
			if err != nil {
				log.Error("Failed to load items for session %d: %v", s.ID, err)
				respondError(w, "Failed to load history", http.StatusInternalServerError)
				return
			}
			history = append(history, SessionHistory{SessionRecord: s, Items: items})
		}

		respondJSON(w, history, http.StatusOK)
	}
}
