package domain

import (
	"testing"
	"time"
)

func TestDeterminePhase(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	past := now.Unix() - 60
	future := now.Unix() + 60
	answerYes := "0x0000000000000000000000000000000000000000000000000000000000000001"

	tests := []struct {
		name string
		in   PhaseInput
		want Phase
	}{
		{
			name: "zero timeout is not created",
			in:   PhaseInput{Timeout: 0, IsPendingArbitration: true, FinalizedAt: past},
			want: PhaseNotCreated,
		},
		{
			name: "pending arbitration beats finalized",
			in:   PhaseInput{Timeout: 86400, IsPendingArbitration: true, FinalizedAt: past, CurrentAnswer: answerYes},
			want: PhasePendingArbitration,
		},
		{
			name: "finalized in the past",
			in:   PhaseInput{Timeout: 86400, FinalizedAt: past, CurrentAnswer: answerYes},
			want: PhaseFinalized,
		},
		{
			name: "finalized exactly now",
			in:   PhaseInput{Timeout: 86400, FinalizedAt: now.Unix(), CurrentAnswer: answerYes},
			want: PhaseFinalized,
		},
		{
			name: "finalized with answered too soon",
			in:   PhaseInput{Timeout: 86400, FinalizedAt: past, CurrentAnswer: AnswerAnsweredTooSoon},
			want: PhaseSettledTooSoon,
		},
		{
			name: "finalized with unresolved answer",
			in:   PhaseInput{Timeout: 86400, FinalizedAt: past, CurrentAnswer: AnswerUnresolved},
			want: PhaseSettledTooSoon,
		},
		{
			name: "finalized with invalid answer",
			in:   PhaseInput{Timeout: 86400, FinalizedAt: past, CurrentAnswer: AnswerInvalid},
			want: PhaseFinalized,
		},
		{
			name: "finalization pending is open",
			in:   PhaseInput{Timeout: 86400, FinalizedAt: future, CurrentAnswer: answerYes},
			want: PhaseOpen,
		},
		{
			name: "opening in the future is upcoming",
			in:   PhaseInput{Timeout: 86400, OpeningAt: future},
			want: PhaseUpcoming,
		},
		{
			name: "finalized beats upcoming",
			in:   PhaseInput{Timeout: 86400, FinalizedAt: past, OpeningAt: future, CurrentAnswer: answerYes},
			want: PhaseFinalized,
		},
		{
			name: "no answer yet is open",
			in:   PhaseInput{Timeout: 86400},
			want: PhaseOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeterminePhase(tt.in, now); got != tt.want {
				t.Errorf("DeterminePhase() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	if got := TimeRemaining(0, now); got != 0 {
		t.Errorf("unset finalization: got %v, want 0", got)
	}
	if got := TimeRemaining(now.Unix()-1, now); got != 0 {
		t.Errorf("past finalization: got %v, want 0", got)
	}
	if got := TimeRemaining(now.Unix()+90, now); got != 90*time.Second {
		t.Errorf("future finalization: got %v, want 1m30s", got)
	}
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in     string
		want   Phase
		wantOK bool
	}{
		{"", "", true},
		{"all", "", true},
		{"open", PhaseOpen, true},
		{"Pending_Arbitration", PhasePendingArbitration, true},
		{" SETTLED_TOO_SOON ", PhaseSettledTooSoon, true},
		{"closed", "", false},
	}

	for _, tt := range tests {
		got, ok := ParsePhase(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParsePhase(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
