package domain

import (
	"math/big"
	"time"
)

// ArbitrationStatus summarises where a dispute stands for display.
type ArbitrationStatus string

const (
	ArbitrationWaiting    ArbitrationStatus = "WAITING"
	ArbitrationAppealable ArbitrationStatus = "APPEALABLE"
	ArbitrationSolved     ArbitrationStatus = "SOLVED"
)

// Court periods as numbered by the arbitrator contract.
const (
	PeriodEvidence = iota
	PeriodCommit
	PeriodVote
	PeriodAppeal
	PeriodExecution
)

var periodNames = [...]string{"evidence", "commit", "vote", "appeal", "execution"}

// PeriodName returns the lower-case name of a court period.
func PeriodName(period int) string {
	if period < 0 || period >= len(periodNames) {
		return "unknown"
	}
	return periodNames[period]
}

// Dispute is an arbitration case as returned by the court indexer.
type Dispute struct {
	ID                string              `json:"id"`
	Period            int                 `json:"period"`
	PeriodDeadline    int64               `json:"period_deadline"`
	NbRounds          string              `json:"nb_rounds"`
	NbChoices         string              `json:"nb_choices"`
	Rounds            []Round             `json:"rounds"`
	LastPeriodChange  int64               `json:"last_period_change"`
	ArbitrableHistory []ArbitrableHistory `json:"arbitrable_history"`
	Arbitrated        string              `json:"arbitrated"`
	Ruled             bool                `json:"ruled"`
	Ruling            string              `json:"ruling"`
	EvidenceGroup     EvidenceGroup       `json:"evidence_group"`
}

// Round is one appeal round of a dispute.
type Round struct {
	Jurors         string `json:"jurors"`
	IsCurrentRound bool   `json:"is_current_round"`
}

// ArbitrableHistory links a dispute to the meta-evidence it was created with.
type ArbitrableHistory struct {
	ID           string `json:"id"`
	MetaEvidence string `json:"meta_evidence"`
}

// EvidenceGroup holds every evidence item submitted for a dispute.
type EvidenceGroup struct {
	ID       string     `json:"id"`
	Length   string     `json:"length"`
	Evidence []Evidence `json:"evidence"`
}

// Evidence points at off-chain evidence content. Contents is filled lazily.
type Evidence struct {
	ID           string            `json:"id"`
	URI          string            `json:"uri"`
	Contents     *EvidenceContents `json:"contents,omitempty"`
	CreationTime time.Time         `json:"creation_time"`
	Sender       string            `json:"sender"`
}

// EvidenceContents is the JSON document an evidence URI resolves to.
type EvidenceContents struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FileURI     string `json:"fileURI,omitempty"`
}

// MetaEvidence describes the question under arbitration and how to display it.
type MetaEvidence struct {
	Title                       string         `json:"title"`
	Description                 string         `json:"description"`
	Question                    string         `json:"question"`
	FileURI                     string         `json:"fileURI,omitempty"`
	EvidenceDisplayInterfaceURI string         `json:"evidenceDisplayInterfaceURI,omitempty"`
	ArbitrableChainID           string         `json:"arbitrableChainID,omitempty"`
	RulingOptions               *RulingOptions `json:"rulingOptions,omitempty"`
}

// RulingOptions lists the human-readable choices jurors vote on.
type RulingOptions struct {
	Type         string   `json:"type"`
	Titles       []string `json:"titles"`
	Descriptions []string `json:"descriptions"`
}

// CurrentRoundJurors returns the juror count of the active round, or "0".
func (d Dispute) CurrentRoundJurors() string {
	for _, r := range d.Rounds {
		if r.IsCurrentRound {
			return r.Jurors
		}
	}
	return "0"
}

// Status maps the dispute period onto an ArbitrationStatus.
func (d Dispute) Status() ArbitrationStatus {
	switch {
	case d.Ruled || d.Period >= PeriodExecution:
		return ArbitrationSolved
	case d.Period == PeriodAppeal:
		return ArbitrationAppealable
	default:
		return ArbitrationWaiting
	}
}

// maxUint256 is the ruling the arbitrator records for answered-too-soon.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// RulingText renders a ruling for display. When ruling option titles are
// known, ruling n > 0 maps to titles[n-1].
func RulingText(ruling string, opts *RulingOptions) string {
	n, ok := new(big.Int).SetString(ruling, 10)
	if !ok {
		return ruling
	}
	if n.Cmp(maxUint256) == 0 {
		return "Answered too soon"
	}
	if n.Sign() == 0 {
		return "Refuse to Arbitrate"
	}
	if opts != nil && n.IsInt64() {
		if i := n.Int64() - 1; i < int64(len(opts.Titles)) {
			return opts.Titles[i]
		}
	}
	return ruling
}

// DisputeRow is one label/value line of the dispute summary table.
type DisputeRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DisputeView bundles everything the detail page shows about a dispute.
type DisputeView struct {
	DisputeID                 string            `json:"dispute_id"`
	Dispute                   *Dispute          `json:"dispute,omitempty"`
	Status                    ArbitrationStatus `json:"status,omitempty"`
	Rows                      []DisputeRow      `json:"rows,omitempty"`
	MetaEvidence              *MetaEvidence     `json:"meta_evidence,omitempty"`
	EvidenceDisplayURL        string            `json:"evidence_display_url,omitempty"`
	PolicyURL                 string            `json:"policy_url,omitempty"`
	ArbitrableContractAddress string            `json:"arbitrable_contract_address,omitempty"`
}
