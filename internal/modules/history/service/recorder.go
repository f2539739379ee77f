package service

import (
	"context"
	"io"
	"log/slog"

	"timekit/internal/modules/history/domain"
	historyout "timekit/internal/modules/history/port/out"
	"timekit/internal/platform/event"
	"timekit/internal/platform/id"
)

// Recorder turns engine events into history entries. It is subscribed to
// the event bus and never fails the publisher.
type Recorder struct {
	store historyout.EntryStore
	idGen id.Generator
	log   *slog.Logger
}

func NewRecorder(store historyout.EntryStore, idGen id.Generator, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{store: store, idGen: idGen, log: log}
}

func (r *Recorder) Subscribe(bus *event.Bus) {
	bus.Subscribe(event.TypePhaseExpired, r.Handle)
	bus.Subscribe(event.TypeSessionFinished, r.Handle)
}

func (r *Recorder) Handle(e event.Event) {
	var entry domain.Entry
	switch ev := e.(type) {
	case event.PhaseExpiredEvent:
		entry = domain.Entry{
			Type:      domain.EntryPhase,
			Key:       ev.Key,
			SessionID: ev.SessionID,
			Widget:    ev.Widget,
			PhaseKind: ev.FromKind,
			ElapsedMs: ev.ElapsedMs,
			Skipped:   ev.Skipped,
			At:        ev.Timestamp(),
		}
	case event.SessionFinishedEvent:
		entry = domain.Entry{
			Type:      domain.EntrySession,
			Key:       ev.Key,
			SessionID: ev.SessionID,
			Widget:    ev.Widget,
			ElapsedMs: ev.ActiveMs,
			At:        ev.Timestamp(),
		}
	default:
		return
	}
	entry.ID = r.idGen.New()
	if err := r.store.Append(context.Background(), entry); err != nil {
		r.log.Warn("record history entry", "key", entry.Key, "type", entry.Type, "error", err)
	}
}
