package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"toolcheck/internal/model"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "report_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to create test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func sampleSession() *model.SessionRecord {
	return &model.SessionRecord{
		Kind:            "batch_session",
		SessionDir:      "batch_session_20250101_120000_123",
		Status:          "completed",
		TotalImages:     3,
		ProcessedImages: 3,
		ProcessingTime:  1.25,
		Confidence:      0.25,
		IoU:             0.45,
		Message:         "Processed 3 of 3 images",
	}
}

// ========================================
// Report Repository Tests
// ========================================

func TestReportRepository_Insert(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewReportRepository(db)

	items := []model.ItemRecord{
		{Filename: "a.jpg", Status: "complete", TotalDetections: 11},
		{Filename: "b.jpg", Status: "missing", TotalDetections: 9, Message: "2 tool(s) missing"},
		{Filename: "c.jpg", Status: "error", Message: "processing failed: cannot decode image"},
	}

	id, err := repo.Insert(sampleSession(), items)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected a non-zero session id")
	}

	stored, err := repo.ItemsBySessionID(id)
	if err != nil {
		t.Fatalf("ItemsBySessionID failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(stored))
	}
	if stored[0].Filename != "a.jpg" || stored[2].Status != "error" {
		t.Errorf("Items stored out of order: %+v", stored)
	}
}

func TestReportRepository_Recent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewReportRepository(db)

	for i := 0; i < 5; i++ {
		if _, err := repo.Insert(sampleSession(), nil); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	sessions, err := repo.Recent(3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i].ID > sessions[i-1].ID {
			t.Errorf("Sessions not newest-first: %+v", sessions)
		}
	}
}

func TestReportRepository_RecentEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewReportRepository(db)

	sessions, err := repo.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Expected no sessions, got %d", len(sessions))
	}
}
