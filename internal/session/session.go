// Package session allocates uniquely named output directories that
// group the artifacts of one analysis run.
package session

import (
	"fmt"
	"os"
	"time"
)

// Prefixes for the two analysis kinds.
const (
	PrefixSingle = "session"
	PrefixBatch  = "batch_session"
)

// Manager creates session directories under a fixed output root.
type Manager struct {
	root string
}

// NewManager ensures the output root exists and returns a manager for it.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create output root %s: %w", root, err)
	}
	return &Manager{root: root}, nil
}

// Root returns the output root directory.
func (m *Manager) Root() string {
	return m.root
}

// Create allocates a new session directory named
// <prefix>_<timestamp>_<random>. The random suffix plus the atomic
// create removes the collision window of a bare one-second timestamp;
// concurrent callers never observe the same handle.
func (m *Manager) Create(prefix string) (string, error) {
	stamp := time.Now().Format("20060102_150405")
	dir, err := os.MkdirTemp(m.root, prefix+"_"+stamp+"_")
	if err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}
	return dir, nil
}
