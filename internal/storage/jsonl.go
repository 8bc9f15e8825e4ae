package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"stakeVault/internal/model"
)

// JsonlJournal appends committed event records to a JSONL file. Records whose
// seq is not above the last one already in the file are skipped, so replaying
// a batch after a crash does not duplicate lines.
type JsonlJournal struct {
	path    string
	mu      sync.Mutex
	loaded  bool
	lastSeq uint64
}

func NewJsonlJournal(path string) *JsonlJournal {
	return &JsonlJournal{path: path}
}

// LastSeq reports the highest seq present in the journal.
func (j *JsonlJournal) LastSeq() (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.load(); err != nil {
		return 0, err
	}
	return j.lastSeq, nil
}

// PutEvents appends the records not yet journaled as JSON lines.
func (j *JsonlJournal) PutEvents(records []model.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.load(); err != nil {
		return err
	}

	pending := make([]model.EventRecord, 0, len(records))
	next := j.lastSeq
	for _, record := range records {
		if record.Seq <= next {
			continue
		}
		pending = append(pending, record)
		next = record.Seq
	}
	if len(pending) == 0 {
		return nil
	}

	dir := filepath.Dir(j.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range pending {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal event record %d: %w", record.Seq, err)
		}
		line = append(line, '\n')
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event record %d: %w", record.Seq, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}

	j.lastSeq = next
	return nil
}

// load scans an existing journal once for its highest seq.
func (j *JsonlJournal) load() error {
	if j.loaded {
		return nil
	}

	file, err := os.Open(j.path)
	if errors.Is(err, os.ErrNotExist) {
		j.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			var rec struct {
				Seq uint64 `json:"seq"`
			}
			if jsonErr := json.Unmarshal(line, &rec); jsonErr != nil {
				return fmt.Errorf("decode journal line: %w", jsonErr)
			}
			if rec.Seq > j.lastSeq {
				j.lastSeq = rec.Seq
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read journal: %w", err)
		}
	}

	j.loaded = true
	return nil
}
