// Package realtime is the push channel: a registry of scopes (one private
// scope per citizen, one shared admin scope) and best-effort event fan-out
// to the sessions currently joined to a scope.
package realtime

import (
	"sync"

	"briddhi-be/models"
)

// AdminScope is the shared scope every admin dashboard session joins.
const AdminScope = "admins"

// Event names on the wire. Ready is sent once per connection, after its
// scope membership is in place.
const (
	EventReady             = "ready"
	EventNewIssue          = "newIssue"
	EventIssueStatusUpdate = "issueStatusUpdate"
)

// Event is a single push frame.
type Event struct {
	Name  string       `json:"event"`
	Issue models.Issue `json:"issue"`
}

// Session is one connected client. Events are buffered; a session that cannot
// keep up has frames dropped rather than blocking the emitter.
type Session struct {
	events chan Event
}

func NewSession(buffer int) *Session {
	return &Session{events: make(chan Event, buffer)}
}

// Events is the session's delivery channel. Closed when the session leaves
// the hub.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Hub maps scope names to their joined sessions. Join/Leave are atomic with
// respect to Broadcast so no event is delivered to a session mid-teardown.
// The hub is injected wherever events are emitted; there is no package-level
// instance.
type Hub struct {
	mu     sync.RWMutex
	scopes map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{scopes: make(map[string]map[*Session]struct{})}
}

// Join adds the session to a scope.
func (h *Hub) Join(scope string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.scopes[scope]
	if !ok {
		members = make(map[*Session]struct{})
		h.scopes[scope] = members
	}
	members[s] = struct{}{}
}

// Leave removes the session from every scope and closes its event channel.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := false
	for scope, members := range h.scopes {
		if _, ok := members[s]; ok {
			delete(members, s)
			removed = true
		}
		if len(members) == 0 {
			delete(h.scopes, scope)
		}
	}
	if removed {
		close(s.events)
	}
}

// Broadcast delivers the event to every current member of the scope. Delivery
// is at-most-once per session: a full buffer drops the frame and the client's
// next poll picks up the change.
func (h *Hub) Broadcast(scope string, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.scopes[scope] {
		select {
		case s.events <- evt:
		default:
		}
	}
}

// NotifyNewIssue fans a freshly created issue out to the admin scope.
func (h *Hub) NotifyNewIssue(issue models.Issue) {
	h.Broadcast(AdminScope, Event{Name: EventNewIssue, Issue: issue})
}

// NotifyStatusUpdate fans an updated issue out to its reporter's private
// scope.
func (h *Hub) NotifyStatusUpdate(issue models.Issue) {
	h.Broadcast(issue.ReportedBy.Hex(), Event{Name: EventIssueStatusUpdate, Issue: issue})
}
