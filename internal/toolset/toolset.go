package toolset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultClassCount is the size of the canonical class space when no
// label file is configured.
const DefaultClassCount = 11

var defaultNames = []string{
	"screwdriver_flat",
	"screwdriver_cross",
	"wrench_adjustable",
	"pliers",
	"pliers_needle_nose",
	"side_cutters",
	"hammer",
	"utility_knife",
	"tape_measure",
	"hex_key",
	"socket_wrench",
}

// ToolSet is the expected-class configuration: a canonical class space
// {0..K-1} with one label per identifier. Read-only after construction.
type ToolSet struct {
	names []string
}

// New builds a ToolSet from an ordered label list. The class space size
// equals len(names).
func New(names []string) *ToolSet {
	copied := make([]string, len(names))
	copy(copied, names)
	return &ToolSet{names: copied}
}

// Default returns the built-in tool kit configuration.
func Default() *ToolSet {
	return New(defaultNames)
}

type labelFile struct {
	Names []string `yaml:"names"`
}

// LoadFile reads the label table from a YAML file with a `names:` list.
func LoadFile(path string) (*ToolSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label file: %w", err)
	}

	var lf labelFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse label file %s: %w", path, err)
	}
	if len(lf.Names) == 0 {
		return nil, fmt.Errorf("label file %s contains no names", path)
	}

	return New(lf.Names), nil
}

// Size returns K, the number of expected tool categories.
func (t *ToolSet) Size() int {
	return len(t.names)
}

// Contains reports whether id belongs to the canonical class space.
func (t *ToolSet) Contains(id int) bool {
	return id >= 0 && id < len(t.names)
}

// Label resolves a class id to its configured label, or synthesizes
// "class_<id>" when the id has no entry.
func (t *ToolSet) Label(id int) string {
	if id >= 0 && id < len(t.names) && t.names[id] != "" {
		return t.names[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// Labels returns a copy of the full label list in class-id order.
func (t *ToolSet) Labels() []string {
	copied := make([]string, len(t.names))
	copy(copied, t.names)
	return copied
}
