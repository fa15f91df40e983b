package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"truthgraph/backend/internal/models"
	"truthgraph/backend/pkg/errors"
)

// CreateGap upserts a knowledge gap and writes a BLOCKS relationship to
// every claim it blocks. BLOCKS edges are additive: rewriting a gap with a
// smaller blocked set does not remove the stale relationships.
func (kg *KnowledgeGraph) CreateGap(ctx context.Context, gap *models.Gap) (string, error) {
	if err := requireEntity(gap, "Gap"); err != nil {
		return "", err
	}
	if err := gap.Validate(); err != nil {
		return "", err
	}

	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return "", err
	}
	defer sess.Close(ctx)

	query := `
		MERGE (g:Gap {id: $gap.id})
		ON CREATE SET
			g.question = $gap.question,
			g.blocked_claim_ids = $gap.blocked_claim_ids,
			g.current_research = $gap.current_research,
			g.importance = $gap.importance,
			g.created_at = $gap.created_at,
			g.metadata = $gap.metadata
		ON MATCH SET
			g.question = $gap.question,
			g.blocked_claim_ids = $gap.blocked_claim_ids,
			g.current_research = $gap.current_research,
			g.importance = $gap.importance,
			g.metadata = $gap.metadata
		RETURN g.id as gap_id
	`

	result, err := sess.Run(ctx, query, map[string]any{"gap": gapParams(gap)})
	if err != nil {
		return "", errors.NewQueryFailed("create gap", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return "", errors.NewQueryFailed("create gap", err)
	}
	gapID := getStringFromRecord(record, "gap_id")

	for _, claimID := range gap.BlockedClaimIDs {
		relQuery := `
			MATCH (g:Gap {id: $gap_id})
			MATCH (c:Claim {id: $claim_id})
			MERGE (g)-[:BLOCKS]->(c)
		`
		if _, err := sess.Run(ctx, relQuery, map[string]any{
			"gap_id":   gapID,
			"claim_id": claimID,
		}); err != nil {
			return "", errors.NewQueryFailed("link gap to claim", err)
		}
	}

	kg.logger.Info("Created/updated gap",
		zap.String("gap_id", gapID),
		zap.Int("blocked_claims", len(gap.BlockedClaimIDs)),
	)
	return gapID, nil
}

// GetGap retrieves a gap by id. Returns nil without error when not found.
func (kg *KnowledgeGraph) GetGap(ctx context.Context, gapID string) (*models.Gap, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (g:Gap {id: $gap_id}) RETURN g`,
		map[string]any{"gap_id": gapID})
	if err != nil {
		return nil, errors.NewQueryFailed("get gap", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, errors.NewQueryFailed("get gap", err)
		}
		return nil, nil
	}

	props, ok := nodeFromRecord(result.Record(), "g")
	if !ok {
		return nil, errors.NewQueryFailed("get gap", nil)
	}
	return gapFromProps(props), nil
}

// QueryGaps returns gaps above an importance floor, ordered by importance
// then recency, capped at limit.
func (kg *KnowledgeGraph) QueryGaps(ctx context.Context, minImportance float64, limit int) ([]*models.Gap, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (g:Gap)
		WHERE g.importance >= $min_importance
		RETURN g
		ORDER BY g.importance DESC, g.created_at DESC
		LIMIT $limit
	`

	result, err := sess.Run(ctx, query, map[string]any{
		"min_importance": minImportance,
		"limit":          limit,
	})
	if err != nil {
		return nil, errors.NewQueryFailed("query gaps", err)
	}

	return collectGaps(ctx, result)
}

// GetGapsForClaim traverses inbound BLOCKS edges into a claim, ordered by
// importance descending.
func (kg *KnowledgeGraph) GetGapsForClaim(ctx context.Context, claimID string) ([]*models.Gap, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (c:Claim {id: $claim_id})
		MATCH (g:Gap)-[:BLOCKS]->(c)
		RETURN g
		ORDER BY g.importance DESC
	`

	result, err := sess.Run(ctx, query, map[string]any{"claim_id": claimID})
	if err != nil {
		return nil, errors.NewQueryFailed("get gaps for claim", err)
	}

	gaps, err := collectGaps(ctx, result)
	if err != nil {
		return nil, err
	}

	kg.logger.Debug("Fetched gaps for claim",
		zap.String("claim_id", claimID),
		zap.Int("gaps", len(gaps)),
	)
	return gaps, nil
}

func collectGaps(ctx context.Context, result neo4j.ResultWithContext) ([]*models.Gap, error) {
	var gaps []*models.Gap
	for result.Next(ctx) {
		props, ok := nodeFromRecord(result.Record(), "g")
		if !ok {
			continue
		}
		gaps = append(gaps, gapFromProps(props))
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewQueryFailed("collect gaps", err)
	}
	return gaps, nil
}
