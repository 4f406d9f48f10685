package session

import "time"

// EventType names a session state change.
type EventType string

const (
	EventAnonymized      EventType = "anonymized"
	EventDeanonymized    EventType = "deanonymized"
	EventNamesUpdated    EventType = "names_updated"
	EventDefaultsUpdated EventType = "defaults_updated"
	EventSuggestions     EventType = "suggestions"
)

// Event describes a completed action. Data carries counts and placeholders,
// never real names.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Observer receives events after an action succeeds. It is called with the
// session lock held and must not call back into the session.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
