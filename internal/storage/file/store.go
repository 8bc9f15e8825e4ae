package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stakeVault/internal/storage/memory"
)

// Store is a memory store whose committed state is written to a JSON
// snapshot file before each commit is published.
type Store struct {
	*memory.Store
	path string
}

type snapshot struct {
	State     *memory.State `json:"state"`
	UpdatedAt string        `json:"updated_at"`
}

// Open loads the snapshot at path, or starts empty when the file does not exist.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}

	state, err := load(path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path}
	s.Store = memory.NewStoreFromState(state, s.save)
	return s, nil
}

func load(path string) (*memory.State, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return memory.NewState(), nil
		}
		return nil, fmt.Errorf("stat state: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("state path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if snap.State == nil {
		return memory.NewState(), nil
	}
	return snap.State, nil
}

func (s *Store) save(next *memory.State) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(snapshot{
		State:     next,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
