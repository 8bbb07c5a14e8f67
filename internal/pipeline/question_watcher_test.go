package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/notify"
)

type fakeLister struct {
	chains []domain.Chain
	lists  map[string][]domain.Question
	err    map[string]error
}

func (f *fakeLister) Chains() []domain.Chain { return f.chains }

func (f *fakeLister) List(_ context.Context, id string) ([]domain.Question, error) {
	if err := f.err[id]; err != nil {
		return nil, err
	}
	return f.lists[id], nil
}

type fakeBus struct {
	mu        sync.Mutex
	published map[string][][]byte
	streams   map[string][]domain.StreamMessage
	readErr   error
}

func newFakeBus() *fakeBus {
	return &fakeBus{published: make(map[string][][]byte), streams: make(map[string][]domain.StreamMessage)}
}

func (b *fakeBus) Publish(_ context.Context, ch string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[ch] = append(b.published[ch], payload)
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }

func (b *fakeBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := fmt.Sprintf("%d-0", len(b.streams[stream])+1)
	b.streams[stream] = append(b.streams[stream], domain.StreamMessage{ID: id, Payload: payload})
	return nil
}

// StreamRead mimics XREAD: entries strictly after lastID, at most count.
func (b *fakeBus) StreamRead(_ context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readErr != nil {
		return nil, b.readErr
	}
	var after int
	fmt.Sscanf(lastID, "%d-", &after)
	var out []domain.StreamMessage
	for i, m := range b.streams[stream] {
		if i+1 > after && len(out) < count {
			out = append(out, m)
		}
	}
	return out, nil
}

type alert struct{ event, title, message string }

type fakeAlerter struct{ alerts []alert }

func (a *fakeAlerter) Notify(_ context.Context, event, title, message string) error {
	a.alerts = append(a.alerts, alert{event, title, message})
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestWatcherAlertsOnNewArbitration(t *testing.T) {
	lister := &fakeLister{
		chains: []domain.Chain{{ID: "gnosis", Name: "Gnosis", Currency: "xDAI"}},
		lists: map[string][]domain.Question{"gnosis": {
			{ID: "0x1", Title: "Q1", Phase: domain.PhaseOpen},
			{ID: "0x2", Title: "Q2", Phase: domain.PhasePendingArbitration},
		}},
	}
	bus := newFakeBus()
	alerts := &fakeAlerter{}
	w := NewQuestionWatcher(lister, bus, alerts, discard())

	if err := w.Poll(context.Background()); err != nil {
		t.Fatalf("first poll: %v", err)
	}
	if len(alerts.alerts) != 0 {
		t.Fatalf("baseline poll alerted: %+v", alerts.alerts)
	}

	lister.lists["gnosis"] = []domain.Question{
		{ID: "0x1", Title: "Q1", Phase: domain.PhasePendingArbitration, CurrentBond: "2000000000000000000", ArbitrationRequestedBy: "0x742d35cc6634c0532925a3b844bc454e4438f44e"},
		{ID: "0x2", Title: "Q2", Phase: domain.PhasePendingArbitration},
	}
	if err := w.Poll(context.Background()); err != nil {
		t.Fatalf("second poll: %v", err)
	}

	if len(alerts.alerts) != 1 {
		t.Fatalf("alerts = %+v, want exactly one", alerts.alerts)
	}
	a := alerts.alerts[0]
	if a.event != notify.EventArbitrationRequested || !strings.Contains(a.message, "Q1") || !strings.Contains(a.message, "2.000 xDAI") {
		t.Errorf("alert = %+v", a)
	}
	if !strings.Contains(a.message, "0x742d...f44e") {
		t.Errorf("requester missing from %q", a.message)
	}

	snaps := bus.published[SnapshotChannel("gnosis")]
	if len(snaps) != 2 {
		t.Fatalf("published %d snapshots, want 2", len(snaps))
	}
	var snap Snapshot
	if err := json.Unmarshal(snaps[1], &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Total != 2 || snap.Active != 2 || len(snap.Transitions) != 1 || snap.Transitions[0].From != domain.PhaseOpen {
		t.Errorf("snapshot = %+v", snap)
	}
	if n := len(bus.streams[TransitionStream("gnosis")]); n != 1 {
		t.Errorf("stream entries = %d, want 1", n)
	}
}

func TestWatcherContinuesAfterChainFailure(t *testing.T) {
	lister := &fakeLister{
		chains: []domain.Chain{{ID: "broken"}, {ID: "gnosis"}},
		lists:  map[string][]domain.Question{"gnosis": {{ID: "0x1", Phase: domain.PhaseOpen}}},
		err:    map[string]error{"broken": errors.New("HTTP 502")},
	}
	bus := newFakeBus()
	alerts := &fakeAlerter{}

	err := NewQuestionWatcher(lister, bus, alerts, discard()).Poll(context.Background())
	if err == nil {
		t.Fatal("expected error for failed chain")
	}
	if len(bus.published[SnapshotChannel("gnosis")]) != 1 {
		t.Error("healthy chain should still publish")
	}
	if len(alerts.alerts) != 1 || alerts.alerts[0].event != notify.EventError {
		t.Errorf("alerts = %+v", alerts.alerts)
	}
}

type fakeLocks struct {
	held     bool
	released int
}

func (l *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if l.held {
		return nil, domain.ErrLockHeld
	}
	return func() { l.released++ }, nil
}

func TestWatcherSkipsWhileLockHeld(t *testing.T) {
	lister := &fakeLister{
		chains: []domain.Chain{{ID: "gnosis"}},
		lists:  map[string][]domain.Question{"gnosis": {{ID: "0x1", Phase: domain.PhaseOpen}}},
	}
	bus := newFakeBus()
	locks := &fakeLocks{held: true}
	w := NewQuestionWatcher(lister, bus, nil, discard()).WithLock(locks, time.Minute)

	if err := w.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(bus.published) != 0 {
		t.Error("poll should be skipped while the lock is held")
	}

	locks.held = false
	if err := w.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(bus.published[SnapshotChannel("gnosis")]) != 1 || locks.released != 1 {
		t.Errorf("published=%d released=%d", len(bus.published[SnapshotChannel("gnosis")]), locks.released)
	}
}
