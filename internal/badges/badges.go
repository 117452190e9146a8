// Package badges awards participation badges from per-user activity counters.
// State is append-only: counters only grow and an earned badge is never
// revoked.
package badges

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Key identifies a badge.
type Key string

const (
	FirstReport Key = "first_report"
	Reporter10  Key = "reporter_10"
	Reporter50  Key = "reporter_50"
	FirstClaim  Key = "first_claim"
	Claimer5    Key = "claimer_5"
	Matchmaker  Key = "matchmaker"
)

// Event is a lifecycle occurrence attributed to a user.
type Event int

const (
	Reported Event = iota
	Claimed
	Matched
)

// Info is display metadata for a badge. The evaluator never renders it; the
// UI looks labels up through this table.
type Info struct {
	Key   Key    `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Catalog maps every badge key to its display metadata.
var Catalog = map[Key]Info{
	FirstReport: {FirstReport, "First Report", "flag"},
	Reporter10:  {Reporter10, "Frequent Reporter", "star"},
	Reporter50:  {Reporter50, "Campus Hero", "trophy"},
	FirstClaim:  {FirstClaim, "First Claim", "check"},
	Claimer5:    {Claimer5, "Reunited x5", "heart"},
	Matchmaker:  {Matchmaker, "Matchmaker", "link"},
}

// rule awards key once its predicate over the counters becomes true.
type rule struct {
	key  Key
	pred func(r *Record) bool
}

var rules = []rule{
	{FirstReport, func(r *Record) bool { return r.ReportedCount >= 1 }},
	{Reporter10, func(r *Record) bool { return r.ReportedCount >= 10 }},
	{Reporter50, func(r *Record) bool { return r.ReportedCount >= 50 }},
	{FirstClaim, func(r *Record) bool { return r.ClaimedCount >= 1 }},
	{Claimer5, func(r *Record) bool { return r.ClaimedCount >= 5 }},
	{Matchmaker, func(r *Record) bool { return r.MatchCount >= 1 }},
}

// Record holds one user's counters and earned badges.
type Record struct {
	ReportedCount int   `json:"reportedCount"`
	ClaimedCount  int   `json:"claimedCount"`
	MatchCount    int   `json:"matchCount"`
	Badges        []Key `json:"badges"`
}

func (r *Record) has(key Key) bool {
	for _, k := range r.Badges {
		if k == key {
			return true
		}
	}
	return false
}

// Evaluator tracks badge records keyed by contact email. When constructed
// with a file path it persists records as JSON after every mutation.
type Evaluator struct {
	mu      sync.Mutex
	records map[string]*Record
	path    string // empty means in-memory only
}

// NewEvaluator creates an in-memory evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{records: make(map[string]*Record)}
}

// NewFileEvaluator creates an evaluator backed by a JSON file, loading any
// existing records from it.
func NewFileEvaluator(path string) (*Evaluator, error) {
	e := &Evaluator{records: make(map[string]*Record), path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return e, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read badges file: %w", err)
	}
	if err := json.Unmarshal(data, &e.records); err != nil {
		return nil, fmt.Errorf("failed to parse badges file: %w", err)
	}

	log.Info().Int("users", len(e.records)).Str("path", path).Msg("Badge records loaded")
	return e, nil
}

// RecordEvent increments the counter for kind on email's record, then awards
// every badge whose predicate newly holds. It returns the keys earned by this
// event, in rule order. Awarding is idempotent: crossing a threshold awards
// its badge exactly once no matter how far the counter runs past it.
func (e *Evaluator) RecordEvent(email string, kind Event) ([]Key, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.records[email]
	if !ok {
		rec = &Record{}
		e.records[email] = rec
	}

	switch kind {
	case Reported:
		rec.ReportedCount++
	case Claimed:
		rec.ClaimedCount++
	case Matched:
		rec.MatchCount++
	}

	var earned []Key
	for _, r := range rules {
		if r.pred(rec) && !rec.has(r.key) {
			rec.Badges = append(rec.Badges, r.key)
			earned = append(earned, r.key)
		}
	}

	if len(earned) > 0 {
		log.Info().Str("email", email).Interface("badges", earned).Msg("Badges awarded")
	}

	if err := e.save(); err != nil {
		return nil, err
	}
	return earned, nil
}

// Snapshot returns a copy of email's record. Unknown emails get an all-zero
// record, never an error.
func (e *Evaluator) Snapshot(email string) Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.records[email]
	if !ok {
		return Record{Badges: []Key{}}
	}

	out := Record{
		ReportedCount: rec.ReportedCount,
		ClaimedCount:  rec.ClaimedCount,
		MatchCount:    rec.MatchCount,
		Badges:        make([]Key, len(rec.Badges)),
	}
	copy(out.Badges, rec.Badges)
	return out
}

// save writes all records to the backing file. Caller holds the lock.
func (e *Evaluator) save() error {
	if e.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(e.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal badge records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("failed to create badges directory: %w", err)
	}
	if err := os.WriteFile(e.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write badges file: %w", err)
	}
	return nil
}
