package sink

import (
	"sync"

	"github.com/Rollnz/window-man-truth-engine-sub000/internal/tracking/envelope"
)

// Journal keeps the most recent records in memory for the debug registry
// and for tests. Oldest records are evicted first.
type Journal struct {
	mu      sync.Mutex
	records []envelope.Envelope
	max     int
}

// NewJournal creates a journal bounded to max records.
func NewJournal(max int) *Journal {
	if max <= 0 {
		max = 256
	}
	return &Journal{max: max}
}

// Append adds a record, evicting the oldest when full.
func (j *Journal) Append(env envelope.Envelope) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, env)
	if len(j.records) > j.max {
		j.records = j.records[len(j.records)-j.max:]
	}
}

// Recent returns a copy of the journal, oldest first.
func (j *Journal) Recent() []envelope.Envelope {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]envelope.Envelope, len(j.records))
	copy(out, j.records)
	return out
}

// Reset clears the journal. Used in tests.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = nil
}
