package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"timekit/internal/modules/timer/domain"
	"timekit/internal/modules/timer/service"
	apperrors "timekit/internal/platform/errors"
	"timekit/internal/platform/event"
	"timekit/internal/platform/logging"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) at(ms int64) { f.now = t0.Add(time.Duration(ms) * time.Millisecond) }

type fakeID struct{}

func (fakeID) New() string { return "sess-1" }

type memStore struct {
	mu       sync.Mutex
	values   map[string]string
	writes   int
	failSets int
}

func newMemStore() *memStore { return &memStore{values: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSets > 0 {
		m.failSets--
		return errors.New("disk full")
	}
	m.values[key] = value
	m.writes++
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memStore) Keys(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) record(t *testing.T, key string) domain.SessionState {
	t.Helper()
	raw, ok, _ := m.Get(context.Background(), key)
	if !ok {
		t.Fatalf("expected record for %s", key)
	}
	st := domain.SessionState{}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return st
}

type recorder struct {
	events []event.Event
}

func (r *recorder) Publish(e event.Event) { r.events = append(r.events, e) }

func (r *recorder) types() []string {
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

func countdown(d int64) domain.Configuration {
	return domain.Configuration{Widget: "countdown", Phases: []domain.Phase{domain.BoundedPhase("countdown", d, domain.PolicyStop)}}
}

func newService(clk *fakeClock, store *memStore, rec *recorder) *service.TimerService {
	return service.NewTimerService(clk, fakeID{}, store, rec, logging.Discard())
}

func TestControllerCountdownScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	svc := newService(clk, store, &recorder{})

	c, err := svc.Open(ctx, "tea", countdown(600_000))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c.Snapshot().Status != domain.StatusIdle {
		t.Fatalf("expected idle controller, got %s", c.Snapshot().Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap, _ := c.Tick(ctx, t0.Add(2*time.Second))
	if snap.RemainingMs != 598_000 {
		t.Fatalf("expected 598000, got %d", snap.RemainingMs)
	}
	clk.at(2_000)
	if err := c.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	snap, _ = c.Tick(ctx, t0.Add(5*time.Second))
	if snap.RemainingMs != 598_000 {
		t.Fatalf("expected no drift while paused, got %d", snap.RemainingMs)
	}
	clk.at(5_000)
	if err := c.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	snap, _ = c.Tick(ctx, t0.Add(6*time.Second))
	if snap.RemainingMs != 597_000 {
		t.Fatalf("expected 597000, got %d", snap.RemainingMs)
	}
}

func TestEveryActionIsPersistedBeforeReturning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	svc := newService(clk, store, &recorder{})
	c, err := svc.Open(ctx, "tea", countdown(60_000))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if st := store.record(t, "tea"); st.Status != domain.StatusRunning || st.StartedAt == nil || *st.StartedAt != t0.UnixMilli() {
		t.Fatalf("start not persisted: %+v", st)
	}
	clk.at(1_500)
	if err := c.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	st := store.record(t, "tea")
	if st.Status != domain.StatusPaused || st.AccumulatedMs != 1_500 || st.RemainingAtPauseMs == nil || *st.RemainingAtPauseMs != 58_500 {
		t.Fatalf("pause not persisted: %+v", st)
	}
	if err := c.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if st := store.record(t, "tea"); st.Status != domain.StatusIdle || st.AccumulatedMs != 0 {
		t.Fatalf("reset not persisted: %+v", st)
	}
}

func TestReloadHonorsElapsedSinceAnchor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()

	first, err := newService(clk, store, &recorder{}).Open(ctx, "tea", countdown(600_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Start(ctx); err != nil {
		t.Fatal(err)
	}

	clk.at(5_000)
	second, err := newService(clk, store, &recorder{}).Open(ctx, "tea", countdown(1_000))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	snap := second.Snapshot()
	if snap.Status != domain.StatusRunning || snap.ElapsedMs != 5_000 || snap.RemainingMs != 595_000 {
		t.Fatalf("expected restored session with 5000 elapsed, got %+v", snap)
	}
	if second.Configuration().Phases[0].DurationMs == nil || *second.Configuration().Phases[0].DurationMs != 600_000 {
		t.Fatalf("stored configuration must win over the new one")
	}
}

func TestReopenReplaysMissedExpiries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	cfg := domain.Configuration{Widget: "pomodoro", Phases: []domain.Phase{
		domain.BoundedPhase("work", 1_500_000, domain.PolicyAdvance),
		domain.BoundedPhase("break", 300_000, domain.PolicyRepeatCycle),
	}}
	c, err := newService(clk, store, &recorder{}).Open(ctx, "focus", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	clk.at(1_800_000)
	rec := &recorder{}
	reopened, err := newService(clk, store, rec).Open(ctx, "focus", domain.Configuration{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	snap := reopened.Snapshot()
	if snap.CompletedCycles != 1 || snap.PhaseKind != "work" || snap.ElapsedMs != 0 {
		t.Fatalf("expected one completed cycle back at work, got %+v", snap)
	}
	if got := rec.types(); len(got) != 2 || got[0] != event.TypePhaseExpired || got[1] != event.TypePhaseExpired {
		t.Fatalf("expected two replayed expiries, got %v", got)
	}
	if st := store.record(t, "focus"); st.CompletedCycles != 1 || st.PhaseIndex != 0 {
		t.Fatalf("replayed expiries not persisted: %+v", st)
	}
}

func TestCorruptRecordStartsIdle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	_ = store.Set(ctx, "tea", "{not json")

	repo := service.NewStateRepository(store, "tea", logging.Discard())
	if repo.Load(ctx) != nil {
		t.Fatalf("expected corrupt record to load as nil")
	}
	c, err := newService(clk, store, &recorder{}).Open(ctx, "tea", countdown(1_000))
	if err != nil {
		t.Fatalf("open over corrupt record: %v", err)
	}
	if c.Snapshot().Status != domain.StatusIdle {
		t.Fatalf("expected idle, got %s", c.Snapshot().Status)
	}
}

func TestDecodeStateRejectsForeignRecords(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"invalid json":   `{"version":`,
		"no version":     `{"phase":"IDLE","phaseIndex":0,"configuration":{"phases":[{"kind":"a","durationMs":5,"onExpire":"stop"}]}}`,
		"future version": `{"version":2,"phase":"IDLE","phaseIndex":0,"configuration":{"phases":[{"kind":"a","durationMs":5,"onExpire":"stop"}]}}`,
		"running no anchor": `{"version":1,"phase":"RUNNING","phaseIndex":0,"startedAt":null,
			"configuration":{"phases":[{"kind":"a","durationMs":5,"onExpire":"stop"}]}}`,
		"bad status": `{"version":1,"phase":"SLEEPING","phaseIndex":0,"configuration":{"phases":[{"kind":"a","durationMs":5,"onExpire":"stop"}]}}`,
		"index range": `{"version":1,"phase":"PAUSED","phaseIndex":3,"configuration":{"phases":[{"kind":"a","durationMs":5,"onExpire":"stop"}]}}`,
		"bad config":  `{"version":1,"phase":"IDLE","phaseIndex":0,"configuration":{"phases":[{"kind":"a","durationMs":0,"onExpire":"stop"}]}}`,
	}
	for name, raw := range cases {
		if _, err := service.DecodeState(raw); !errors.Is(err, apperrors.ErrPersistenceCorrupt) {
			t.Fatalf("%s: expected corrupt record error, got %v", name, err)
		}
	}
	ok := `{"version":1,"phase":"RUNNING","phaseIndex":0,"startedAt":1000,"accumulatedMs":0,
		"configuration":{"phases":[{"kind":"a","durationMs":5000,"onExpire":"stop"}]},"completedCycles":2}`
	st, err := service.DecodeState(ok)
	if err != nil || st.CompletedCycles != 2 {
		t.Fatalf("expected valid record to decode, got %+v, %v", st, err)
	}
}

func TestFinishedRecordReopensIdleWithCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	rec := &recorder{}
	c, err := newService(clk, store, rec).Open(ctx, "egg", countdown(1_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	snap, err := c.Tick(ctx, t0.Add(time.Second))
	if err != nil || snap.Status != domain.StatusFinished {
		t.Fatalf("expected finished at boundary, got %+v, %v", snap, err)
	}
	got := rec.types()
	want := []string{event.TypeTimerStarted, event.TypePhaseExpired, event.TypeSessionFinished}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	finished := rec.events[2].(event.SessionFinishedEvent)
	if !finished.StartedAt.Equal(t0) || !finished.Timestamp().Equal(t0.Add(time.Second)) {
		t.Fatalf("unexpected finished event %+v", finished)
	}

	clk.at(60_000)
	reopened, err := newService(clk, store, &recorder{}).Open(ctx, "egg", domain.Configuration{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s := reopened.Snapshot(); s.Status != domain.StatusIdle || s.CompletedSessions != 1 {
		t.Fatalf("expected idle with one completed session, got %+v", s)
	}
}

func TestOpenUnknownKeyWithoutConfiguration(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{}
	clk.at(0)
	_, err := newService(clk, newMemStore(), &recorder{}).Open(context.Background(), "ghost", domain.Configuration{})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTickOnlyWritesOnTransitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	c, err := newService(clk, store, &recorder{}).Open(ctx, "tea", countdown(10_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	writes := store.writes
	for ms := int64(100); ms < 10_000; ms += 250 {
		if _, err := c.Tick(ctx, t0.Add(time.Duration(ms)*time.Millisecond)); err != nil {
			t.Fatal(err)
		}
	}
	if store.writes != writes {
		t.Fatalf("ticks without transitions wrote %d records", store.writes-writes)
	}
	if _, err := c.Tick(ctx, t0.Add(10*time.Second)); err != nil {
		t.Fatal(err)
	}
	if store.writes != writes+1 {
		t.Fatalf("expected one write for the expiry, got %d", store.writes-writes)
	}
}

func TestSkipFromPausedKeepsPaused(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	cfg := domain.Configuration{Widget: "couples", Phases: []domain.Phase{
		domain.BoundedPhase("prep", 120_000, domain.PolicyAdvance),
		domain.BoundedPhase("slot", 600_000, domain.PolicyStop),
	}}
	c, err := newService(clk, store, &recorder{}).Open(ctx, "date", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	clk.at(30_000)
	if err := c.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Skip(ctx); err != nil {
		t.Fatal(err)
	}
	st := store.record(t, "date")
	if st.Status != domain.StatusPaused || st.PhaseIndex != 1 || *st.RemainingAtPauseMs != 600_000 {
		t.Fatalf("expected paused slot, got %+v", st)
	}
}

func TestClockRegressionIsNotFatal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(100_000)
	store := newMemStore()
	c, err := newService(clk, store, &recorder{}).Open(ctx, "tea", countdown(60_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	snap, err := c.Tick(ctx, t0)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if snap.ElapsedMs != 0 || snap.RemainingMs != 60_000 {
		t.Fatalf("expected clamped projection, got %+v", snap)
	}
}

func TestPausedTimerSurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	c, err := newService(clk, store, &recorder{}).Open(ctx, "tea", countdown(10_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	clk.at(2_000)
	if err := c.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := service.DecodeState(mustRaw(t, store, "tea")); err != nil {
		t.Fatalf("paused record must decode: %v", err)
	}

	clk.at(60_000)
	reopened, err := newService(clk, store, &recorder{}).Open(ctx, "tea", domain.Configuration{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	snap := reopened.Snapshot()
	if snap.Status != domain.StatusPaused || snap.RemainingMs != 8_000 {
		t.Fatalf("expected paused with 8000 remaining, got %+v", snap)
	}
	if err := reopened.Resume(ctx); err != nil {
		t.Fatalf("resume after reopen: %v", err)
	}
}

func mustRaw(t *testing.T, store *memStore, key string) string {
	t.Helper()
	raw, ok, _ := store.Get(context.Background(), key)
	if !ok {
		t.Fatalf("expected record for %s", key)
	}
	return raw
}

func TestFailedSaveLeavesControllerUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	c, err := newService(clk, store, &recorder{}).Open(ctx, "tea", countdown(10_000))
	if err != nil {
		t.Fatal(err)
	}

	store.failSets = 1
	if err := c.Start(ctx); err == nil {
		t.Fatalf("expected start to fail when the write fails")
	}
	if got := c.Snapshot().Status; got != domain.StatusIdle {
		t.Fatalf("expected IDLE after failed start, got %s", got)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("retry start: %v", err)
	}

	clk.at(3_000)
	store.failSets = 1
	if err := c.Pause(ctx); err == nil {
		t.Fatalf("expected pause to fail when the write fails")
	}
	if st := store.record(t, "tea"); st.Status != domain.StatusRunning {
		t.Fatalf("expected stored record to stay RUNNING, got %s", st.Status)
	}
	if err := c.Pause(ctx); err != nil {
		t.Fatalf("retry pause: %v", err)
	}
	if snap := c.Snapshot(); snap.Status != domain.StatusPaused || snap.RemainingMs != 7_000 {
		t.Fatalf("expected paused with 7000 remaining, got %+v", snap)
	}
}

func TestFailedExpiryWriteIsRetriedOnNextTick(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	rec := &recorder{}
	c, err := newService(clk, store, rec).Open(ctx, "tea", countdown(5_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	store.failSets = 1
	if _, err := c.Tick(ctx, t0.Add(6*time.Second)); err == nil {
		t.Fatalf("expected tick to report the failed write")
	}
	if len(rec.types()) != 1 {
		t.Fatalf("expected no expiry event before the write succeeds, got %v", rec.types())
	}
	snap, err := c.Tick(ctx, t0.Add(7*time.Second))
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if snap.Status != domain.StatusFinished || store.record(t, "tea").Status != domain.StatusFinished {
		t.Fatalf("expected finished after retry, got %+v", snap)
	}
}

func TestSyncPicksUpExternalChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	rec := &recorder{}
	stale, err := newService(clk, store, rec).Open(ctx, "tea", countdown(10_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := stale.Start(ctx); err != nil {
		t.Fatal(err)
	}

	clk.at(2_000)
	other, err := newService(clk, store, &recorder{}).Open(ctx, "tea", domain.Configuration{})
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Pause(ctx); err != nil {
		t.Fatal(err)
	}

	clk.at(60_000)
	if err := stale.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	snap, err := stale.Tick(ctx, clk.now)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != domain.StatusPaused || snap.RemainingMs != 8_000 {
		t.Fatalf("expected synced pause with 8000 remaining, got %+v", snap)
	}
	if got := rec.types(); len(got) != 1 || got[0] != event.TypeTimerStarted {
		t.Fatalf("expected no expiry from stale state, got %v", got)
	}

	if err := store.Delete(ctx, "tea"); err != nil {
		t.Fatal(err)
	}
	if err := stale.Sync(ctx); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after removal, got %v", err)
	}
}

func TestReloadReplaysUnderOneLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	store := newMemStore()
	c, err := newService(clk, store, &recorder{}).Open(ctx, "tea", countdown(5_000))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	clk.at(9_000)
	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Reload(ctx); err != nil {
				t.Errorf("reload: %v", err)
			}
		}()
	}
	wg.Wait()
	st := store.record(t, "tea")
	if st.Status != domain.StatusFinished || st.CompletedSessions != 1 {
		t.Fatalf("expected one finished session, got %+v", st)
	}
}

func TestSessionFinishedReportsActiveTimeOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := &fakeClock{}
	clk.at(0)
	rec := &recorder{}
	cfg := domain.Configuration{Widget: "pomodoro", Phases: []domain.Phase{
		domain.BoundedPhase("work", 4_000, domain.PolicyAdvance),
		domain.BoundedPhase("break", 1_000, domain.PolicyStop),
	}}
	c, err := newService(clk, newMemStore(), rec).Open(ctx, "focus", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	clk.at(1_000)
	if err := c.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	clk.at(31_000)
	if err := c.Resume(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Tick(ctx, t0.Add(40*time.Second)); err != nil {
		t.Fatal(err)
	}

	finished, ok := rec.events[len(rec.events)-1].(event.SessionFinishedEvent)
	if !ok {
		t.Fatalf("expected session finished last, got %v", rec.types())
	}
	if finished.ActiveMs != 5_000 {
		t.Fatalf("expected 5000 active, got %d", finished.ActiveMs)
	}
	if !finished.Timestamp().Equal(t0.Add(35 * time.Second)) {
		t.Fatalf("expected finish at boundary 35s, got %v", finished.Timestamp())
	}
}
