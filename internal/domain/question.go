package domain

import (
	"strings"
	"time"
)

// Phase is the display lifecycle of an oracle question. It is derived from
// indexer fields on every fetch and never stored.
type Phase string

const (
	PhaseNotCreated         Phase = "NOT_CREATED"
	PhaseOpen               Phase = "OPEN"
	PhaseUpcoming           Phase = "UPCOMING"
	PhasePendingArbitration Phase = "PENDING_ARBITRATION"
	PhaseFinalized          Phase = "FINALIZED"
	PhaseSettledTooSoon     Phase = "SETTLED_TOO_SOON"
)

// Phases lists every phase in display order.
var Phases = []Phase{
	PhaseOpen,
	PhaseUpcoming,
	PhasePendingArbitration,
	PhaseFinalized,
	PhaseSettledTooSoon,
	PhaseNotCreated,
}

// ParsePhase maps a case-insensitive name onto a Phase. "ALL" and the empty
// string map to the empty Phase, which matches every question.
func ParsePhase(s string) (Phase, bool) {
	switch Phase(strings.ToUpper(strings.TrimSpace(s))) {
	case "", "ALL":
		return "", true
	case PhaseNotCreated:
		return PhaseNotCreated, true
	case PhaseOpen:
		return PhaseOpen, true
	case PhaseUpcoming:
		return PhaseUpcoming, true
	case PhasePendingArbitration:
		return PhasePendingArbitration, true
	case PhaseFinalized:
		return PhaseFinalized, true
	case PhaseSettledTooSoon:
		return PhaseSettledTooSoon, true
	default:
		return "", false
	}
}

// Question is a read-only projection of an oracle question.
type Question struct {
	ID                     string        `json:"id"`
	ChainID                string        `json:"chain_id"`
	Title                  string        `json:"title"`
	Description            string        `json:"description"`
	Category               string        `json:"category,omitempty"`
	Language               string        `json:"language,omitempty"`
	Type                   QuestionType  `json:"type,omitempty"`
	Options                []string      `json:"options,omitempty"`
	Arbitrator             string        `json:"arbitrator"`
	Phase                  Phase         `json:"phase"`
	CurrentBond            string        `json:"current_bond"`
	MinimumBond            string        `json:"minimum_bond"`
	Bounty                 string        `json:"bounty"`
	TimeRemaining          time.Duration `json:"-"`
	TimeRemainingMs        int64         `json:"time_remaining_ms"`
	OpeningTime            time.Time     `json:"opening_time,omitzero"`
	CreatedAt              time.Time     `json:"created_at"`
	FinalizedAt            time.Time     `json:"finalized_at,omitzero"`
	Answers                []Answer      `json:"answers"`
	FinalAnswer            string        `json:"final_answer,omitempty"`
	ArbitrationRequestedBy string        `json:"arbitration_requested_by,omitempty"`
}

// Answer is one entry of a question's answer history.
type Answer struct {
	Value     string    `json:"value"`
	Raw       string    `json:"raw"`
	Bond      string    `json:"bond"`
	Timestamp time.Time `json:"timestamp"`
}

// PhaseInput carries the indexer fields the phase decision depends on.
// Timestamps are unix seconds; zero means unset.
type PhaseInput struct {
	Timeout              int64
	IsPendingArbitration bool
	FinalizedAt          int64
	OpeningAt            int64
	CurrentAnswer        string
}

// DeterminePhase evaluates the phase decision table in priority order:
// not created, pending arbitration, finalized (or settled too soon),
// upcoming, open.
func DeterminePhase(in PhaseInput, now time.Time) Phase {
	ts := now.Unix()

	if in.Timeout == 0 {
		return PhaseNotCreated
	}
	if in.IsPendingArbitration {
		return PhasePendingArbitration
	}
	if in.FinalizedAt != 0 && in.FinalizedAt <= ts {
		if IsTooSoonAnswer(in.CurrentAnswer) {
			return PhaseSettledTooSoon
		}
		return PhaseFinalized
	}
	if in.OpeningAt != 0 && in.OpeningAt > ts {
		return PhaseUpcoming
	}
	return PhaseOpen
}

// TimeRemaining returns the time left until finalizedAt, or zero once it has
// passed or is unset.
func TimeRemaining(finalizedAt int64, now time.Time) time.Duration {
	if finalizedAt == 0 {
		return 0
	}
	d := time.Unix(finalizedAt, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}

// QuestionFilter narrows a fetched question list.
type QuestionFilter struct {
	Phase  Phase
	Search string
	Page   int
	Limit  int
}

// QuestionPage is one page of a filtered question list plus per-phase counts
// over the unfiltered list.
type QuestionPage struct {
	Questions []Question    `json:"questions"`
	Total     int           `json:"total"`
	Page      int           `json:"page"`
	Limit     int           `json:"limit"`
	Pages     int           `json:"pages"`
	Counts    map[Phase]int `json:"counts"`
	Active    int           `json:"active"`
}
