package sse

import "github.com/starford/procforge/internal/session"

// PreviewUpdated tells editors to refresh the rendered document. It is
// throttled, so a burst of edits costs one re-render.
const PreviewUpdated = "preview.updated"

// ChangeEvent is the payload of a procedure.<kind> event.
type ChangeEvent struct {
	Version string `json:"version"`
	Detail  string `json:"detail,omitempty"`
}

// ChangeType returns the event type of a session change kind.
func ChangeType(kind string) string {
	return "procedure." + kind
}

// PublishChange sends procedure.<kind> followed by a throttled
// preview.updated.
func (b *Broker) PublishChange(c session.Change) {
	b.Publish(Event{Type: ChangeType(c.Kind), Data: ChangeEvent{Version: c.Version, Detail: c.Detail}})
	b.Publish(Event{Type: PreviewUpdated, Data: struct{}{}, Throttled: true})
}
