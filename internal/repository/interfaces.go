package repository

import "toolcheck/internal/model"

// ReportRepository defines the interface for session report persistence.
type ReportRepository interface {
	// Create operations
	Insert(session *model.SessionRecord, items []model.ItemRecord) (int64, error)

	// Read operations
	Recent(limit int) ([]model.SessionRecord, error)
	ItemsBySessionID(sessionID int64) ([]model.ItemRecord, error)
}
