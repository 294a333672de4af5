package cooldown

import (
	"encoding/json"
	"maps"
	"time"
)

const DefaultWindow = 15 * time.Minute

// Tracker remembers when each team was last picked for a match. Entries are never evicted,
// they just stop mattering once the window has passed.
type Tracker struct {
	window time.Duration
	last   map[string]time.Time
}

func New(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{window: window, last: make(map[string]time.Time)}
}

func (t *Tracker) Window() time.Duration {
	return t.window
}

func (t *Tracker) IsEligible(teamID string, now time.Time) bool {
	return t.Remaining(teamID, now) == 0
}

// Remaining is how long teamID still has to wait, zero when it can be picked
func (t *Tracker) Remaining(teamID string, now time.Time) time.Duration {
	last, ok := t.last[teamID]
	if !ok {
		return 0
	}
	elapsed := now.Sub(last)
	if elapsed >= t.window {
		return 0
	}
	return t.window - elapsed
}

func (t *Tracker) RecordSelection(teamID string, now time.Time) {
	t.last[teamID] = now
}

func (t *Tracker) LastSelected(teamID string) (time.Time, bool) {
	last, ok := t.last[teamID]
	return last, ok
}

func (t *Tracker) Len() int {
	return len(t.last)
}

func (t *Tracker) Clone() *Tracker {
	return &Tracker{window: t.window, last: maps.Clone(t.last)}
}

// MarshalJSON writes the log as team id -> epoch milliseconds
func (t *Tracker) MarshalJSON() ([]byte, error) {
	out := make(map[string]int64, len(t.last))
	for id, at := range t.last {
		out[id] = at.UnixMilli()
	}
	return json.Marshal(out)
}

func (t *Tracker) UnmarshalJSON(data []byte) error {
	var in map[string]int64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	last := make(map[string]time.Time, len(in))
	for id, ms := range in {
		last[id] = time.UnixMilli(ms)
	}
	t.last = last
	if t.window <= 0 {
		t.window = DefaultWindow
	}
	return nil
}
