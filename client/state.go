// Package client contains the consumers that reconcile server state into
// locally displayed state: a citizen portal feed and an admin dashboard
// board. Both feed a keyed merge from two producers, a fixed-interval poll
// and an optional push listener; the merge itself is timer-free.
package client

import (
	"sort"
	"sync"
	"time"

	"briddhi-be/models"
)

// State is the reconciled local view of a set of issues, keyed by issue id.
// The most recently observed full record wins; a record whose status differs
// from what was previously displayed is flagged for a fixed highlight window.
type State struct {
	mu           sync.Mutex
	highlightFor time.Duration
	records      map[string]models.Issue
	changedAt    map[string]time.Time

	now func() time.Time
}

func NewState(highlightFor time.Duration) *State {
	return &State{
		highlightFor: highlightFor,
		records:      make(map[string]models.Issue),
		changedAt:    make(map[string]time.Time),
		now:          time.Now,
	}
}

// Observe merges freshly fetched or pushed records and returns the ids whose
// status changed relative to what was previously displayed.
func (st *State) Observe(issues ...models.Issue) []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	var changed []string
	for _, issue := range issues {
		id := issue.ID.Hex()
		prev, seen := st.records[id]
		st.records[id] = issue
		if seen && prev.Status != issue.Status {
			st.changedAt[id] = st.now()
			changed = append(changed, id)
		}
	}
	return changed
}

// Highlighted returns the ids still inside their highlight window.
func (st *State) Highlighted() []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	var ids []string
	for id, at := range st.changedAt {
		if now.Sub(at) >= st.highlightFor {
			delete(st.changedAt, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the displayed record for an id.
func (st *State) Get(id string) (models.Issue, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	issue, ok := st.records[id]
	return issue, ok
}

// Snapshot returns every displayed record, newest first.
func (st *State) Snapshot() []models.Issue {
	st.mu.Lock()
	defer st.mu.Unlock()

	issues := make([]models.Issue, 0, len(st.records))
	for _, issue := range st.records {
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].CreatedAt.After(issues[j].CreatedAt)
	})
	return issues
}
