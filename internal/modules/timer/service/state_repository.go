package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"timekit/internal/modules/timer/domain"
	timerout "timekit/internal/modules/timer/port/out"
	apperrors "timekit/internal/platform/errors"
)

// StateRepository reads and writes the record of a single timer key. It
// remembers the last payload it read or wrote so that rewrites by other
// processes can be told apart from its own.
type StateRepository struct {
	store timerout.KeyValueStore
	key   string
	log   *slog.Logger
	last  string
}

func NewStateRepository(store timerout.KeyValueStore, key string, log *slog.Logger) *StateRepository {
	return &StateRepository{store: store, key: key, log: log}
}

func (r *StateRepository) Save(ctx context.Context, state domain.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := r.store.Set(ctx, r.key, string(payload)); err != nil {
		return fmt.Errorf("write session state %q: %w", r.key, err)
	}
	r.last = string(payload)
	return nil
}

// Load returns nil when no usable record exists. Unreadable, malformed or
// foreign-version records are logged and treated as absent.
func (r *StateRepository) Load(ctx context.Context) *domain.SessionState {
	raw, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		r.log.Warn("session state unreadable", "key", r.key, "error", err)
		return nil
	}
	if !ok {
		r.last = ""
		return nil
	}
	r.last = raw
	state, err := DecodeState(raw)
	if err != nil {
		r.log.Warn("discarding session state", "key", r.key, "error", err)
		return nil
	}
	return &state
}

// Changed returns the stored record when it differs from the payload last
// seen through r, and nil when it does not or cannot be used. gone reports
// that a record seen earlier has been removed.
func (r *StateRepository) Changed(ctx context.Context) (state *domain.SessionState, gone bool) {
	raw, ok, err := r.store.Get(ctx, r.key)
	if err != nil {
		r.log.Warn("session state unreadable", "key", r.key, "error", err)
		return nil, false
	}
	if !ok {
		gone = r.last != ""
		r.last = ""
		return nil, gone
	}
	if raw == r.last {
		return nil, false
	}
	r.last = raw
	decoded, err := DecodeState(raw)
	if err != nil {
		r.log.Warn("ignoring rewritten session state", "key", r.key, "error", err)
		return nil, false
	}
	return &decoded, false
}

func (r *StateRepository) Clear(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.key); err != nil {
		return fmt.Errorf("clear session state %q: %w", r.key, err)
	}
	return nil
}

// DecodeState parses and validates a stored record. Every failure wraps
// ErrPersistenceCorrupt.
func DecodeState(raw string) (domain.SessionState, error) {
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return domain.SessionState{}, fmt.Errorf("decode session state: %v: %w", err, apperrors.ErrPersistenceCorrupt)
	}
	if probe.Version == nil {
		return domain.SessionState{}, fmt.Errorf("session state has no version: %w", apperrors.ErrPersistenceCorrupt)
	}
	state := domain.SessionState{}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("decode session state: %v: %w", err, apperrors.ErrPersistenceCorrupt)
	}
	if err := state.Validate(); err != nil {
		return domain.SessionState{}, err
	}
	return state, nil
}
