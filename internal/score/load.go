package score

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Parse decodes and validates a dance document payload.
func Parse(data []byte) (Dance, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Dance{}, fmt.Errorf("score: dance payload is empty")
	}
	var d Dance
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Dance{}, fmt.Errorf("score: decode dance: %w", err)
	}
	d = d.Normalized()
	if err := d.Validate(); err != nil {
		return Dance{}, err
	}
	return d, nil
}

// Load reads a YAML dance document from disk.
func Load(path string) (Dance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dance{}, fmt.Errorf("score: read %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return Dance{}, fmt.Errorf("score: %s: %w", filepath.Clean(path), err)
	}
	return d, nil
}

// Save writes a dance document back to disk as YAML.
func Save(path string, d Dance) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("score: encode dance: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("score: write %s: %w", path, err)
	}
	return nil
}

// AssignMissingIDs fills blank instruction ids with fresh UUIDs so
// hand-written documents gain stable identifiers. Existing ids are left
// alone; the count of assignments is returned.
func AssignMissingIDs(d *Dance) int {
	return assignIDs(d.Instructions)
}

func assignIDs(list []Instruction) int {
	n := 0
	for i := range list {
		if strings.TrimSpace(list[i].ID) == "" {
			list[i].ID = uuid.NewString()
			n++
		}
		n += assignIDs(list[i].Children)
		n += assignIDs(list[i].First)
		n += assignIDs(list[i].Second)
	}
	return n
}
