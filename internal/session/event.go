package session

import "github.com/go-tangra/go-tangra-remote-admin/internal/fanout"

// Kind names the collection an event refers to.
type Kind string

const (
	KindSoftware Kind = "software"
	KindInfo     Kind = "info"
)

// EventType says what happened.
type EventType string

const (
	// EventRefresh means the collection gained records.
	EventRefresh EventType = "refresh"
	// EventComplete means the round finished; Summary is set.
	EventComplete EventType = "complete"
	// EventDiagnostic carries a per-host fault message.
	EventDiagnostic EventType = "diagnostic"
)

// Event is delivered to session subscribers, always from the session's
// dispatch loop.
type Event struct {
	Type    EventType       `json:"type"`
	Kind    Kind            `json:"kind"`
	Host    string          `json:"host,omitempty"`
	Message string          `json:"message,omitempty"`
	Records int             `json:"records"`
	Summary *fanout.Summary `json:"summary,omitempty"`
}

// CompleteMessage is the operator text shown when a round of kind k ends.
func CompleteMessage(k Kind) string {
	if k == KindSoftware {
		return "Computer Software Query Complete"
	}
	return "Computer Info Query Complete"
}
