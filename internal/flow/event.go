package flow

import "strings"

// EventKind classifies the inbound message shape after channel parsing.
type EventKind string

const (
	EventText   EventKind = "text"
	EventButton EventKind = "button"
	EventList   EventKind = "list"
	EventMedia  EventKind = "media"
)

// Event is the normalized representation of one citizen message. It is
// built once per webhook delivery and never mutated.
type Event struct {
	SessionKey string
	MessageID  string
	Kind       EventKind
	Text       string
	SelectedID string
	MediaRef   string
}

// selection returns the button/list id when present, else the typed text.
func (e Event) selection() string {
	if e.SelectedID != "" {
		return e.SelectedID
	}
	return normalize(e.Text)
}

// isPlainText reports whether the event is free text (not a tap).
func (e Event) isPlainText() bool {
	return e.Kind == EventText
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
