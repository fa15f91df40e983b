package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"truthgraph/backend/internal/models"
	"truthgraph/backend/pkg/errors"
)

// CreateEdge upserts a reasoning edge between two claims. Both endpoints
// must already exist; a missing endpoint raises a referential-integrity
// error naming the absent claim id.
func (kg *KnowledgeGraph) CreateEdge(ctx context.Context, edge *models.Edge) (string, error) {
	if err := requireEntity(edge, "Edge"); err != nil {
		return "", err
	}
	if err := edge.Validate(); err != nil {
		return "", err
	}

	// Existence checks are explicit; the storage engine has no foreign keys
	fromClaim, err := kg.GetClaim(ctx, edge.FromClaimID)
	if err != nil {
		return "", err
	}
	if fromClaim == nil {
		return "", errors.NewClaimNotFound(edge.FromClaimID)
	}
	toClaim, err := kg.GetClaim(ctx, edge.ToClaimID)
	if err != nil {
		return "", err
	}
	if toClaim == nil {
		return "", errors.NewClaimNotFound(edge.ToClaimID)
	}

	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return "", err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (from:Claim {id: $edge.from_claim_id})
		MATCH (to:Claim {id: $edge.to_claim_id})
		MERGE (from)-[e:Edge {id: $edge.id}]->(to)
		ON CREATE SET
			e.reasoning_type = $edge.reasoning_type,
			e.explanation = $edge.explanation,
			e.strength = $edge.strength,
			e.created_at = $edge.created_at,
			e.metadata = $edge.metadata
		ON MATCH SET
			e.reasoning_type = $edge.reasoning_type,
			e.explanation = $edge.explanation,
			e.strength = $edge.strength,
			e.metadata = $edge.metadata
		RETURN e.id as edge_id
	`

	result, err := sess.Run(ctx, query, map[string]any{"edge": edgeParams(edge)})
	if err != nil {
		return "", errors.NewQueryFailed("create edge", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return "", errors.NewQueryFailed("create edge", err)
	}
	edgeID := getStringFromRecord(record, "edge_id")

	kg.logger.Info("Created/updated edge",
		zap.String("edge_id", edgeID),
		zap.String("from", edge.FromClaimID),
		zap.String("to", edge.ToClaimID),
		zap.String("reasoning", string(edge.ReasoningType)),
	)
	return edgeID, nil
}

// GetEdge is not implemented; edges are reached only through claim
// traversal. The unsupported-operation error distinguishes "not built"
// from "not found".
func (kg *KnowledgeGraph) GetEdge(ctx context.Context, edgeID string) (*models.Edge, error) {
	return nil, errors.ErrEdgeLookupUnsupported
}
