package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// PageSize is the largest page the oracle subgraph returns.
const PageSize = 1000

const questionFields = `
	id
	questionId
	arbitrator
	data
	qType
	minBond
	createdTimestamp
	openingTimestamp
	timeout
	bounty
	currentAnswer
	currentAnswerBond
	answerFinalizedTimestamp
	isPendingArbitration
	arbitrationRequestedBy
	answers(orderBy: timestamp) {
		id
		answer
		lastBond
		timestamp
	}
`

// FetchQuestions returns up to first questions arbitrated by one of
// arbitrators and created strictly before createdBefore (unix seconds),
// newest first.
func (c *Client) FetchQuestions(ctx context.Context, arbitrators []string, createdBefore int64, first int) ([]APIQuestion, error) {
	if first <= 0 || first > PageSize {
		first = PageSize
	}

	query := `
		query GetQuestions($arbitrators: [Bytes!]!, $before: BigInt!, $first: Int!) {
			questions(
				first: $first
				orderBy: createdTimestamp
				orderDirection: desc
				where: { arbitrator_in: $arbitrators, createdTimestamp_lt: $before }
			) {` + questionFields + `}
		}
	`

	normalized := make([]string, 0, len(arbitrators))
	for _, a := range arbitrators {
		normalized = append(normalized, strings.ToLower(a))
	}

	variables := map[string]any{
		"arbitrators": normalized,
		"before":      strconv.FormatInt(createdBefore, 10),
		"first":       first,
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return nil, fmt.Errorf("subgraph: fetch questions: %w", err)
	}

	var result struct {
		Questions []APIQuestion `json:"questions"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("subgraph: decode questions: %w", err)
	}

	return result.Questions, nil
}

// FetchQuestion returns the question with the given on-chain question ID.
// It returns domain.ErrNotFound when the subgraph has no such question.
func (c *Client) FetchQuestion(ctx context.Context, questionID string) (APIQuestion, error) {
	query := `
		query GetQuestion($questionId: Bytes!) {
			questions(first: 1, where: { questionId: $questionId }) {` + questionFields + `}
		}
	`

	variables := map[string]any{
		"questionId": strings.ToLower(questionID),
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return APIQuestion{}, fmt.Errorf("subgraph: fetch question %s: %w", questionID, err)
	}

	var result struct {
		Questions []APIQuestion `json:"questions"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return APIQuestion{}, fmt.Errorf("subgraph: decode question: %w", err)
	}
	if len(result.Questions) == 0 {
		return APIQuestion{}, fmt.Errorf("subgraph: question %s: %w", questionID, domain.ErrNotFound)
	}

	return result.Questions[0], nil
}
