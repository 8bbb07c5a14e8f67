package subgraph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alanyoungcy/oracleview/internal/domain"
)

// FetchDispute returns the court dispute with the given ID. It returns
// domain.ErrNotFound when the subgraph has no such dispute.
func (c *Client) FetchDispute(ctx context.Context, disputeID string) (domain.Dispute, error) {
	query := `
		query GetDispute($id: ID!) {
			dispute(id: $id) {
				id
				period
				periodDeadline
				nbRounds
				nbChoices
				rounds {
					jurors
					isCurrentRound
				}
				lastPeriodChangeTs
				arbitrableHistory {
					id
					metaEvidence
				}
				arbitrated
				ruled
				ruling
				evidenceGroup {
					id
					length
					evidence {
						id
						URI
						sender
						creationTime
					}
				}
			}
		}
	`

	respData, err := c.doQuery(ctx, query, map[string]any{"id": disputeID})
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("subgraph: fetch dispute %s: %w", disputeID, err)
	}

	var result struct {
		Dispute *APIDispute `json:"dispute"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return domain.Dispute{}, fmt.Errorf("subgraph: decode dispute: %w", err)
	}
	if result.Dispute == nil {
		return domain.Dispute{}, fmt.Errorf("subgraph: dispute %s: %w", disputeID, domain.ErrNotFound)
	}

	return result.Dispute.ToDomainDispute(), nil
}
