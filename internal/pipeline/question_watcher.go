package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/oracleview/internal/domain"
	"github.com/alanyoungcy/oracleview/internal/format"
	"github.com/alanyoungcy/oracleview/internal/notify"
)

// TransitionStream returns the durable stream phase changes on chainID are
// appended to.
func TransitionStream(chainID string) string {
	return "questions:transitions:" + chainID
}

// SnapshotChannel returns the pub/sub channel snapshots of chainID go to.
func SnapshotChannel(chainID string) string {
	return "questions:" + chainID
}

// QuestionLister lists the questions of a configured chain.
type QuestionLister interface {
	Chains() []domain.Chain
	List(ctx context.Context, chainID string) ([]domain.Question, error)
}

// Alerter forwards alerts by event type.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Transition is a phase change observed between two polls.
type Transition struct {
	ChainID    string       `json:"chain_id"`
	QuestionID string       `json:"question_id"`
	Title      string       `json:"title"`
	From       domain.Phase `json:"from,omitempty"`
	To         domain.Phase `json:"to"`
	At         time.Time    `json:"at"`
}

// Snapshot is what the watcher publishes for a chain after each poll.
type Snapshot struct {
	Event       string               `json:"event"`
	ChainID     string               `json:"chain_id"`
	Total       int                  `json:"total"`
	Active      int                  `json:"active"`
	Counts      map[domain.Phase]int `json:"counts"`
	Transitions []Transition         `json:"transitions"`
	At          time.Time            `json:"at"`
}

// QuestionWatcher polls every chain, publishes snapshots and alerts when a
// question enters arbitration. Previous phases are kept in memory only, so
// the first poll after start sets the baseline and alerts nothing.
type QuestionWatcher struct {
	questions QuestionLister
	bus       domain.SignalBus
	alerts    Alerter
	locks     domain.LockManager
	lockTTL   time.Duration
	phases    map[string]map[string]domain.Phase
	now       func() time.Time
	logger    *slog.Logger
}

// NewQuestionWatcher creates a QuestionWatcher.
func NewQuestionWatcher(questions QuestionLister, bus domain.SignalBus, alerts Alerter, logger *slog.Logger) *QuestionWatcher {
	return &QuestionWatcher{
		questions: questions,
		bus:       bus,
		alerts:    alerts,
		phases:    make(map[string]map[string]domain.Phase),
		now:       time.Now,
		logger:    logger.With(slog.String("component", "question_watcher")),
	}
}

// WithLock makes Poll skip its pass while another replica holds the
// watcher lock, so only one replica alerts per interval.
func (w *QuestionWatcher) WithLock(locks domain.LockManager, ttl time.Duration) *QuestionWatcher {
	w.locks = locks
	w.lockTTL = ttl
	return w
}

// Poll runs one pass over every chain. A failing chain is logged and
// alerted; the others are still polled.
func (w *QuestionWatcher) Poll(ctx context.Context) error {
	if w.locks != nil {
		release, err := w.locks.Acquire(ctx, "question-watcher", w.lockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			w.logger.DebugContext(ctx, "another watcher holds the lock, skipping poll")
			return nil
		case err != nil:
			w.logger.WarnContext(ctx, "watcher lock unavailable, polling anyway",
				slog.String("error", err.Error()),
			)
		default:
			defer release()
		}
	}

	failed := 0
	for _, c := range w.questions.Chains() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.pollChain(ctx, c); err != nil {
			failed++
			w.logger.ErrorContext(ctx, "chain poll failed",
				slog.String("chain", c.ID),
				slog.String("error", err.Error()),
			)
			w.alert(ctx, notify.EventError, "Question watcher error",
				fmt.Sprintf("chain: %s\nerror: %v", c.ID, err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("question watcher: %d chain(s) failed", failed)
	}
	return nil
}

func (w *QuestionWatcher) pollChain(ctx context.Context, c domain.Chain) error {
	qs, err := w.questions.List(ctx, c.ID)
	if err != nil {
		return err
	}
	now := w.now().UTC()

	prev, baseline := w.phases[c.ID]
	next := make(map[string]domain.Phase, len(qs))
	snap := Snapshot{
		Event:       "questions_snapshot",
		ChainID:     c.ID,
		Total:       len(qs),
		Counts:      make(map[domain.Phase]int, len(domain.Phases)),
		Transitions: []Transition{},
		At:          now,
	}

	for _, q := range qs {
		next[q.ID] = q.Phase
		snap.Counts[q.Phase]++
		if q.Phase != domain.PhaseFinalized {
			snap.Active++
		}
		if !baseline {
			continue
		}
		if old, ok := prev[q.ID]; ok && old == q.Phase {
			continue
		}
		t := Transition{
			ChainID:    c.ID,
			QuestionID: q.ID,
			Title:      q.Title,
			From:       prev[q.ID],
			To:         q.Phase,
			At:         now,
		}
		snap.Transitions = append(snap.Transitions, t)
		w.handleTransition(ctx, c, q, t)
	}
	w.phases[c.ID] = next

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := w.bus.Publish(ctx, SnapshotChannel(c.ID), payload); err != nil {
		w.logger.WarnContext(ctx, "publish snapshot failed",
			slog.String("chain", c.ID),
			slog.String("error", err.Error()),
		)
	}

	w.logger.InfoContext(ctx, "chain polled",
		slog.String("chain", c.ID),
		slog.Int("questions", snap.Total),
		slog.Int("active", snap.Active),
		slog.Int("transitions", len(snap.Transitions)),
	)
	return nil
}

func (w *QuestionWatcher) handleTransition(ctx context.Context, c domain.Chain, q domain.Question, t Transition) {
	if payload, err := json.Marshal(t); err == nil {
		if err := w.bus.StreamAppend(ctx, TransitionStream(c.ID), payload); err != nil {
			w.logger.WarnContext(ctx, "append transition failed",
				slog.String("question_id", q.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	switch t.To {
	case domain.PhasePendingArbitration:
		msg := fmt.Sprintf("%s\nchain: %s\nquestion: %s\nbond: %s %s",
			q.Title, c.Name, q.ID, format.Ether(q.CurrentBond), c.Currency)
		if q.ArbitrationRequestedBy != "" {
			msg += "\nrequested by: " + format.ShortAddress(q.ArbitrationRequestedBy)
		}
		w.alert(ctx, notify.EventArbitrationRequested, "Arbitration requested", msg)
	case domain.PhaseFinalized:
		w.alert(ctx, notify.EventQuestionFinalized, "Question finalized",
			fmt.Sprintf("%s\nchain: %s\nanswer: %s", q.Title, c.Name, q.FinalAnswer))
	}
}

func (w *QuestionWatcher) alert(ctx context.Context, event, title, message string) {
	if w.alerts == nil {
		return
	}
	if err := w.alerts.Notify(ctx, event, title, message); err != nil {
		w.logger.WarnContext(ctx, "alert failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// Run polls immediately and then every interval until ctx is cancelled.
func (w *QuestionWatcher) Run(ctx context.Context, interval time.Duration) error {
	if err := w.Poll(ctx); err != nil {
		w.logger.Error("question poll failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("question watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				w.logger.Error("question poll failed", slog.String("error", err.Error()))
			}
		}
	}
}
