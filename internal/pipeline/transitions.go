package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

const (
	DefaultTransitionLimit = 50
	MaxTransitionLimit     = 500
)

// streamIDPattern matches Redis stream IDs ("0", "1700000000000-0").
var streamIDPattern = regexp.MustCompile(`^\d+(-\d+)?$`)

// TransitionPage is one slice of a chain's transition stream. Next is the
// cursor to pass as after for the following page; it equals the request's
// cursor when nothing newer exists.
type TransitionPage struct {
	ChainID     string       `json:"chain_id"`
	Transitions []Transition `json:"transitions"`
	Next        string       `json:"next"`
}

// TransitionLog reads the phase changes the watcher appended to the bus.
type TransitionLog struct {
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewTransitionLog creates a TransitionLog over bus.
func NewTransitionLog(bus domain.SignalBus, logger *slog.Logger) *TransitionLog {
	return &TransitionLog{bus: bus, logger: logger.With(slog.String("component", "transition_log"))}
}

// Read returns up to limit transitions of chainID recorded after the stream
// ID after, oldest first. An empty after reads from the start.
func (l *TransitionLog) Read(ctx context.Context, chainID, after string, limit int) (TransitionPage, error) {
	if after == "" {
		after = "0"
	}
	if !streamIDPattern.MatchString(after) {
		return TransitionPage{}, fmt.Errorf("%w: invalid cursor %q", domain.ErrInvalidInput, after)
	}
	if limit <= 0 {
		limit = DefaultTransitionLimit
	}
	if limit > MaxTransitionLimit {
		limit = MaxTransitionLimit
	}

	msgs, err := l.bus.StreamRead(ctx, TransitionStream(chainID), after, limit)
	if err != nil {
		return TransitionPage{}, fmt.Errorf("pipeline: read transitions: %w", err)
	}

	page := TransitionPage{ChainID: chainID, Transitions: []Transition{}, Next: after}
	for _, m := range msgs {
		page.Next = m.ID
		var t Transition
		if err := json.Unmarshal(m.Payload, &t); err != nil {
			l.logger.WarnContext(ctx, "skipping malformed transition",
				slog.String("id", m.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		page.Transitions = append(page.Transitions, t)
	}
	return page, nil
}
