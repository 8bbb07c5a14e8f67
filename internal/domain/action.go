package domain

import "time"

// ActionKind names a user action the dashboard accepts but does not submit.
type ActionKind string

const (
	ActionAnswer   ActionKind = "answer"
	ActionVote     ActionKind = "vote"
	ActionEvidence ActionKind = "evidence"
)

// AnswerRequest is a proposed answer with its bond, in wei.
type AnswerRequest struct {
	Answer string `json:"answer"`
	Bond   string `json:"bond"`
}

// VoteRequest is a juror vote for one ruling option.
type VoteRequest struct {
	Choice        string `json:"choice"`
	Justification string `json:"justification"`
}

// EvidenceRequest is a piece of evidence to attach to a dispute.
type EvidenceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FileURI     string `json:"file_uri,omitempty"`
}

// ActionReceipt acknowledges an action. Submitted is always false: nothing
// is sent on-chain.
type ActionReceipt struct {
	ID         string     `json:"id"`
	Kind       ActionKind `json:"kind"`
	ChainID    string     `json:"chain_id"`
	QuestionID string     `json:"question_id"`
	From       string     `json:"from"`
	Submitted  bool       `json:"submitted"`
	Message    string     `json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Wallet is the identity the dashboard acts as.
type Wallet struct {
	Address   string `json:"address,omitempty"`
	Connected bool   `json:"connected"`
}
