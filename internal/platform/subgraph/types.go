package subgraph

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// BigInt is a GraphQL BigInt that fits in an int64. It unmarshals from a
// JSON string as well as from plain numbers and null.
type BigInt int64

func (f *BigInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = BigInt(n)
	return nil
}

// flexPeriod accepts a court period as its enum name or its number.
type flexPeriod int

func (p *flexPeriod) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*p = flexPeriod(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if n, err := strconv.Atoi(s); err == nil {
		*p = flexPeriod(n)
		return nil
	}
	for i := domain.PeriodEvidence; i <= domain.PeriodExecution; i++ {
		if strings.EqualFold(s, domain.PeriodName(i)) {
			*p = flexPeriod(i)
			return nil
		}
	}
	*p = -1
	return nil
}

// --------------------------------------------------------------------------
// Oracle subgraph DTOs
// --------------------------------------------------------------------------

// APIQuestion is a question entity as returned by the oracle subgraph.
type APIQuestion struct {
	ID                       string      `json:"id"`
	QuestionID               string      `json:"questionId"`
	Arbitrator               string      `json:"arbitrator"`
	Data                     string      `json:"data"`
	QType                    string      `json:"qType"`
	MinBond                  string      `json:"minBond"`
	CreatedTimestamp         BigInt      `json:"createdTimestamp"`
	OpeningTimestamp         BigInt      `json:"openingTimestamp"`
	Timeout                  BigInt      `json:"timeout"`
	Bounty                   string      `json:"bounty"`
	CurrentAnswer            string      `json:"currentAnswer"`
	CurrentAnswerBond        string      `json:"currentAnswerBond"`
	AnswerFinalizedTimestamp BigInt      `json:"answerFinalizedTimestamp"`
	IsPendingArbitration     bool        `json:"isPendingArbitration"`
	ArbitrationRequestedBy   string      `json:"arbitrationRequestedBy"`
	Answers                  []APIAnswer `json:"answers"`
}

// APIAnswer is one entry of a question's answer history.
type APIAnswer struct {
	ID        string `json:"id"`
	Answer    string `json:"answer"`
	LastBond  string `json:"lastBond"`
	Timestamp BigInt `json:"timestamp"`
}

// ToDomainQuestion converts the subgraph entity into a domain.Question as
// seen at now.
func (q *APIQuestion) ToDomainQuestion(chainID string, now time.Time) domain.Question {
	text := domain.ParseQuestionData(q.Data)
	phase := domain.DeterminePhase(domain.PhaseInput{
		Timeout:              int64(q.Timeout),
		IsPendingArbitration: q.IsPendingArbitration,
		FinalizedAt:          int64(q.AnswerFinalizedTimestamp),
		OpeningAt:            int64(q.OpeningTimestamp),
		CurrentAnswer:        q.CurrentAnswer,
	}, now)

	bond := q.CurrentAnswerBond
	if bond == "" {
		bond = q.Bounty
	}

	typ := domain.QuestionType(q.QType)
	if typ == "" {
		typ = text.Type
	}

	remaining := domain.TimeRemaining(int64(q.AnswerFinalizedTimestamp), now)

	out := domain.Question{
		ID:                     q.QuestionID,
		ChainID:                chainID,
		Title:                  text.Title,
		Description:            text.Description,
		Category:               text.Category,
		Language:               text.Language,
		Type:                   typ,
		Options:                text.Options,
		Arbitrator:             q.Arbitrator,
		Phase:                  phase,
		CurrentBond:            bond,
		MinimumBond:            q.MinBond,
		Bounty:                 q.Bounty,
		TimeRemaining:          remaining,
		TimeRemainingMs:        remaining.Milliseconds(),
		OpeningTime:            unixTime(q.OpeningTimestamp),
		CreatedAt:              unixTime(q.CreatedTimestamp),
		FinalizedAt:            unixTime(q.AnswerFinalizedTimestamp),
		ArbitrationRequestedBy: q.ArbitrationRequestedBy,
		Answers:                make([]domain.Answer, 0, len(q.Answers)),
	}
	if out.ID == "" {
		out.ID = q.ID
	}

	for _, a := range q.Answers {
		out.Answers = append(out.Answers, domain.Answer{
			Value:     domain.DecodeAnswer(a.Answer, typ, text.Options),
			Raw:       a.Answer,
			Bond:      a.LastBond,
			Timestamp: unixTime(a.Timestamp),
		})
	}

	if phase == domain.PhaseFinalized {
		out.FinalAnswer = domain.DecodeAnswer(q.CurrentAnswer, typ, text.Options)
	}

	return out
}

// --------------------------------------------------------------------------
// Court subgraph DTOs
// --------------------------------------------------------------------------

// APIDispute is a dispute entity as returned by the court subgraph.
type APIDispute struct {
	ID                 string     `json:"id"`
	Period             flexPeriod `json:"period"`
	PeriodDeadline     BigInt     `json:"periodDeadline"`
	NbRounds           string     `json:"nbRounds"`
	NbChoices          string     `json:"nbChoices"`
	LastPeriodChangeTs BigInt     `json:"lastPeriodChangeTs"`
	Arbitrated         string     `json:"arbitrated"`
	Ruled              bool       `json:"ruled"`
	Ruling             string     `json:"ruling"`
	Rounds             []struct {
		Jurors         string `json:"jurors"`
		IsCurrentRound bool   `json:"isCurrentRound"`
	} `json:"rounds"`
	ArbitrableHistory []struct {
		ID           string `json:"id"`
		MetaEvidence string `json:"metaEvidence"`
	} `json:"arbitrableHistory"`
	EvidenceGroup *struct {
		ID       string        `json:"id"`
		Length   string        `json:"length"`
		Evidence []APIEvidence `json:"evidence"`
	} `json:"evidenceGroup"`
}

// APIEvidence is one evidence entity of a dispute's evidence group.
type APIEvidence struct {
	ID           string `json:"id"`
	URI          string `json:"URI"`
	Sender       string `json:"sender"`
	CreationTime BigInt `json:"creationTime"`
}

// ToDomainDispute converts the subgraph entity into a domain.Dispute.
func (d *APIDispute) ToDomainDispute() domain.Dispute {
	out := domain.Dispute{
		ID:               d.ID,
		Period:           int(d.Period),
		PeriodDeadline:   int64(d.PeriodDeadline),
		NbRounds:         d.NbRounds,
		NbChoices:        d.NbChoices,
		LastPeriodChange: int64(d.LastPeriodChangeTs),
		Arbitrated:       d.Arbitrated,
		Ruled:            d.Ruled,
		Ruling:           d.Ruling,
	}
	for _, r := range d.Rounds {
		out.Rounds = append(out.Rounds, domain.Round{Jurors: r.Jurors, IsCurrentRound: r.IsCurrentRound})
	}
	for _, h := range d.ArbitrableHistory {
		out.ArbitrableHistory = append(out.ArbitrableHistory, domain.ArbitrableHistory{ID: h.ID, MetaEvidence: h.MetaEvidence})
	}
	if d.EvidenceGroup != nil {
		out.EvidenceGroup.ID = d.EvidenceGroup.ID
		out.EvidenceGroup.Length = d.EvidenceGroup.Length
		for _, e := range d.EvidenceGroup.Evidence {
			out.EvidenceGroup.Evidence = append(out.EvidenceGroup.Evidence, domain.Evidence{
				ID:           e.ID,
				URI:          e.URI,
				Sender:       e.Sender,
				CreationTime: unixTime(e.CreationTime),
			})
		}
	}
	return out
}

func unixTime(sec BigInt) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}
