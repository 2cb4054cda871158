package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// File represents the persisted history data
type File struct {
	Entries []*Entry `json:"entries"`
}

// Store handles JSON persistence of the history
type Store struct {
	filePath string
}

// NewStore creates a new store for the given file path
func NewStore(filePath string) *Store {
	return &Store{filePath: filePath}
}

// Save persists entries to the JSON file
func (s *Store) Save(entries []*Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(File{Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Replace atomically.
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}

// Load reads entries from the JSON file. A missing file is an empty history.
func (s *Store) Load() ([]*Entry, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if f.Entries == nil {
		f.Entries = []*Entry{}
	}

	return f.Entries, nil
}
