package capability

import "github.com/zjrosen/capwire/internal/pubsub"

// Event types published on a registry broker.
const (
	EventBuilt       pubsub.EventType = "capability.built"
	EventMemoized    pubsub.EventType = "capability.memoized"
	EventParent      pubsub.EventType = "capability.parent"
	EventSubstituted pubsub.EventType = "capability.substituted"
	EventAbsent      pubsub.EventType = "candidate.absent"
	EventFailed      pubsub.EventType = "capability.failed"
)

// Event is the payload published for each resolution step.
type Event struct {
	SessionID  string `json:"session_id"`
	Capability string `json:"capability"`
	Candidate  string `json:"candidate,omitempty"`
	Error      string `json:"error,omitempty"`
}

func outcomeEvent(o Outcome) pubsub.EventType {
	switch o {
	case OutcomeBuilt:
		return EventBuilt
	case OutcomeMemoized:
		return EventMemoized
	case OutcomeParent:
		return EventParent
	case OutcomeSubstituted:
		return EventSubstituted
	case OutcomeAbsent:
		return EventAbsent
	default:
		return EventFailed
	}
}
