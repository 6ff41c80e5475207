// Package ledger persists the set of chapters whose last download attempt
// failed. The ledger file is the only durable cross-run state: its absence
// means "no known failures".
package ledger

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/PratikshaDPai/bato-downloader/pkg/data"
)

// DefaultFileName is the ledger file created under the output root.
const DefaultFileName = "failed_chapters.json"

// Ledger is a mutex-guarded failure journal. Series workers append records
// concurrently; every mutation is checkpointed to disk immediately so a
// crash mid-batch loses no failure information.
type Ledger struct {
	path string

	mu      sync.Mutex
	records []data.FailureRecord
}

// Open returns a ledger backed by path, seeded with whatever state is
// already on disk. A missing or unparseable file is treated as empty, never
// as an error.
func Open(path string) *Ledger {
	return &Ledger{path: path, records: Load(path)}
}

func (l *Ledger) Path() string { return l.path }

// Records returns a copy of the in-memory failure set.
func (l *Ledger) Records() []data.FailureRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]data.FailureRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Append adds records and checkpoints the full set to disk.
func (l *Ledger) Append(records ...data.FailureRecord) error {
	if len(records) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, records...)
	return Save(l.path, l.records)
}

// Replace swaps the failure set wholesale and persists it. Replacing with an
// empty set removes the ledger file.
func (l *Ledger) Replace(records []data.FailureRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append([]data.FailureRecord(nil), records...)
	return Save(l.path, l.records)
}

// Load reads the persisted failure set. Corruption is treated as "no known
// failures" rather than a fatal condition.
func Load(path string) []data.FailureRecord {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var records []data.FailureRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil
	}
	return records
}

// Save atomically overwrites the ledger file, or removes it when the record
// set is empty so absence stays the steady-state "no failures" signal.
func Save(path string, records []data.FailureRecord) error {
	if len(records) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
