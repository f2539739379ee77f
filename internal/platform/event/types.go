// Package event defines the events the timing engine emits so history,
// logging and UIs can react to phase changes without depending on the
// controller.
package event

import "time"

const (
	TypeTimerStarted    = "timer.started"
	TypeTimerPaused     = "timer.paused"
	TypeTimerResumed    = "timer.resumed"
	TypeTimerReset      = "timer.reset"
	TypePhaseExpired    = "phase.expired"
	TypeSessionFinished = "session.finished"
)

// Event is implemented by everything published on the Bus.
type Event interface {
	EventType() string
	Timestamp() time.Time
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// TimerActionEvent reports a user action on a timer.
type TimerActionEvent struct {
	baseEvent
	Key       string
	SessionID string
	Widget    string
	PhaseKind string
	ElapsedMs int64
}

func NewTimerActionEvent(eventType, key, sessionID, widget, phaseKind string, elapsedMs int64, at time.Time) TimerActionEvent {
	return TimerActionEvent{
		baseEvent: baseEvent{eventType: eventType, timestamp: at},
		Key:       key,
		SessionID: sessionID,
		Widget:    widget,
		PhaseKind: phaseKind,
		ElapsedMs: elapsedMs,
	}
}

// PhaseExpiredEvent is emitted once per phase boundary, natural or skipped.
// Its timestamp is the boundary instant, which can be in the past when
// expiries are replayed after the process was away.
type PhaseExpiredEvent struct {
	baseEvent
	Key       string
	SessionID string
	Widget    string
	FromIndex int
	FromKind  string
	ToIndex   int
	ToKind    string
	Policy    string
	ElapsedMs int64
	Skipped   bool
	Finished  bool
}

func NewPhaseExpiredEvent(key, sessionID, widget string, fromIndex int, fromKind string, toIndex int, toKind, policy string, elapsedMs int64, skipped, finished bool, at time.Time) PhaseExpiredEvent {
	return PhaseExpiredEvent{
		baseEvent: baseEvent{eventType: TypePhaseExpired, timestamp: at},
		Key:       key,
		SessionID: sessionID,
		Widget:    widget,
		FromIndex: fromIndex,
		FromKind:  fromKind,
		ToIndex:   toIndex,
		ToKind:    toKind,
		Policy:    policy,
		ElapsedMs: elapsedMs,
		Skipped:   skipped,
		Finished:  finished,
	}
}

// SessionFinishedEvent is emitted when a session reaches FINISHED.
type SessionFinishedEvent struct {
	baseEvent
	Key           string
	SessionID     string
	Widget        string
	StartedAt     time.Time
	SessionCycles int
	// ActiveMs sums the elapsed time of every phase of the session, leaving
	// out time spent paused.
	ActiveMs int64
}

func NewSessionFinishedEvent(key, sessionID, widget string, startedAt time.Time, cycles int, activeMs int64, at time.Time) SessionFinishedEvent {
	return SessionFinishedEvent{
		baseEvent:     baseEvent{eventType: TypeSessionFinished, timestamp: at},
		Key:           key,
		SessionID:     sessionID,
		Widget:        widget,
		StartedAt:     startedAt,
		SessionCycles: cycles,
		ActiveMs:      activeMs,
	}
}
