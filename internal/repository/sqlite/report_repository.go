package sqlite

import (
	"fmt"

	"toolcheck/internal/model"
)

// ReportRepository implements repository.ReportRepository for SQLite.
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new SQLite report repository.
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Insert stores a session record and its items in a single transaction.
func (r *ReportRepository) Insert(session *model.SessionRecord, items []model.ItemRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO sessions (kind, session_dir, status, total_images, processed_images, processing_time, confidence, iou, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, session.Kind, session.SessionDir, session.Status, session.TotalImages,
		session.ProcessedImages, session.ProcessingTime, session.Confidence, session.IoU, session.Message)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO session_items (session_id, filename, status, total_detections, message, annotated_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(sessionID, item.Filename, item.Status, item.TotalDetections, item.Message, item.AnnotatedPath); err != nil {
			return 0, fmt.Errorf("failed to insert session item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return sessionID, nil
}

// Recent retrieves the most recent sessions, newest first.
func (r *ReportRepository) Recent(limit int) ([]model.SessionRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, kind, session_dir, status, total_images, processed_images, processing_time, confidence, iou, message, created_at
		FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.SessionRecord
	for rows.Next() {
		var s model.SessionRecord
		if err := rows.Scan(&s.ID, &s.Kind, &s.SessionDir, &s.Status, &s.TotalImages,
			&s.ProcessedImages, &s.ProcessingTime, &s.Confidence, &s.IoU, &s.Message, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// ItemsBySessionID retrieves all item results for one session.
func (r *ReportRepository) ItemsBySessionID(sessionID int64) ([]model.ItemRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, session_id, filename, status, total_detections, message, annotated_path
		FROM session_items WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session items: %w", err)
	}
	defer rows.Close()

	var items []model.ItemRecord
	for rows.Next() {
		var item model.ItemRecord
		if err := rows.Scan(&item.ID, &item.SessionID, &item.Filename, &item.Status,
			&item.TotalDetections, &item.Message, &item.AnnotatedPath); err != nil {
			return nil, fmt.Errorf("failed to scan session item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
