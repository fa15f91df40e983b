package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"truthgraph/backend/internal/models"
	"truthgraph/backend/pkg/errors"
)

// claimWithSources is the shape every claim query returns: the claim node
// plus its sources collected in rank order.
const claimSourcesFragment = `
	OPTIONAL MATCH (c)-[r:SUPPORTED_BY]->(s:Source)
	WITH c, r, s
	ORDER BY r.rank
	WITH c, collect({
		type: s.type,
		reference: s.reference,
		credibility: s.credibility,
		last_checked: s.last_checked
	}) as sources
`

// CreateClaim upserts a claim by id. On first insert all fields are set; on
// a repeat call mutable fields are overwritten while created_at is preserved.
// Sources are upserted by (type, reference) and relinked, so a rewrite can
// leave previously shared Source nodes orphaned (see PruneOrphanedSources).
func (kg *KnowledgeGraph) CreateClaim(ctx context.Context, claim *models.Claim) (string, error) {
	if err := requireEntity(claim, "Claim"); err != nil {
		return "", err
	}
	if err := claim.Validate(); err != nil {
		return "", err
	}

	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return "", err
	}
	defer sess.Close(ctx)

	query := `
		MERGE (c:Claim {id: $claim.id})
		ON CREATE SET
			c.statement = $claim.statement,
			c.type = $claim.type,
			c.domain = $claim.domain,
			c.confidence = $claim.confidence,
			c.created_at = $claim.created_at,
			c.math_expression = $claim.math_expression,
			c.metadata = $claim.metadata
		ON MATCH SET
			c.statement = $claim.statement,
			c.domain = $claim.domain,
			c.confidence = $claim.confidence,
			c.math_expression = $claim.math_expression,
			c.metadata = $claim.metadata
		RETURN c.id as claim_id
	`

	result, err := sess.Run(ctx, query, map[string]any{"claim": claimParams(claim)})
	if err != nil {
		return "", errors.NewQueryFailed("create claim", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return "", errors.NewQueryFailed("create claim", err)
	}
	claimID := getStringFromRecord(record, "claim_id")

	if err := kg.updateClaimSources(ctx, sess, claimID, claim.Sources); err != nil {
		return "", err
	}

	kg.logger.Info("Created/updated claim",
		zap.String("claim_id", claimID),
		zap.String("domain", claim.Domain),
	)
	return claimID, nil
}

// updateClaimSources relinks a claim to its current source set. Old
// SUPPORTED_BY relationships are dropped but Source nodes stay, since the
// same (type, reference) citation may back other claims.
func (kg *KnowledgeGraph) updateClaimSources(ctx context.Context, sess neo4j.SessionWithContext, claimID string, sources []models.Source) error {
	_, err := sess.Run(ctx,
		`MATCH (c:Claim {id: $id})-[r:SUPPORTED_BY]->(:Source) DELETE r`,
		map[string]any{"id": claimID})
	if err != nil {
		return errors.NewQueryFailed("unlink claim sources", err)
	}

	for i, source := range sources {
		query := `
			MATCH (c:Claim {id: $claim_id})
			MERGE (s:Source {type: $source.type, reference: $source.reference})
			ON CREATE SET
				s.credibility = $source.credibility,
				s.last_checked = $source.last_checked
			MERGE (c)-[r:SUPPORTED_BY]->(s)
			SET r.rank = $rank
		`
		_, err := sess.Run(ctx, query, map[string]any{
			"claim_id": claimID,
			"source":   sourceParams(source),
			"rank":     i,
		})
		if err != nil {
			return errors.NewQueryFailed("link claim source", err)
		}
	}
	return nil
}

// GetClaim retrieves a claim by id, with its sources in original order.
// Returns nil without error when the claim does not exist.
func (kg *KnowledgeGraph) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (c:Claim {id: $claim_id})
	` + claimSourcesFragment + `
		RETURN c, sources
	`

	result, err := sess.Run(ctx, query, map[string]any{"claim_id": claimID})
	if err != nil {
		return nil, errors.NewQueryFailed("get claim", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, errors.NewQueryFailed("get claim", err)
		}
		return nil, nil
	}

	return claimFromClaimRecord(result.Record())
}

// QueryClaims searches claim statements for a case-insensitive substring,
// ordered by confidence then recency, capped at limit.
func (kg *KnowledgeGraph) QueryClaims(ctx context.Context, pattern string, limit int) ([]*models.Claim, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (c:Claim)
		WHERE toLower(c.statement) CONTAINS toLower($pattern)
	` + claimSourcesFragment + `
		RETURN c, sources
		ORDER BY c.confidence DESC, c.created_at DESC
		LIMIT $limit
	`

	result, err := sess.Run(ctx, query, map[string]any{"pattern": pattern, "limit": limit})
	if err != nil {
		return nil, errors.NewQueryFailed("query claims", err)
	}

	claims, err := collectClaims(ctx, result)
	if err != nil {
		return nil, err
	}

	kg.logger.Info("Claim query finished",
		zap.String("pattern", pattern),
		zap.Int("matches", len(claims)),
	)
	return claims, nil
}

// GetClaimsByDomain returns claims with an exact domain match above a
// confidence floor, ordered by confidence then recency.
func (kg *KnowledgeGraph) GetClaimsByDomain(ctx context.Context, domain string, minConfidence float64) ([]*models.Claim, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (c:Claim {domain: $domain})
		WHERE c.confidence >= $min_confidence
	` + claimSourcesFragment + `
		RETURN c, sources
		ORDER BY c.confidence DESC, c.created_at DESC
	`

	result, err := sess.Run(ctx, query, map[string]any{
		"domain":         domain,
		"min_confidence": minConfidence,
	})
	if err != nil {
		return nil, errors.NewQueryFailed("get claims by domain", err)
	}

	return collectClaims(ctx, result)
}

// SupportingClaim is a claim reached through an inbound supporting edge,
// carrying that edge's reasoning metadata.
type SupportingClaim struct {
	Claim         *models.Claim        `json:"claim"`
	Strength      float64              `json:"strength"`
	ReasoningType models.ReasoningType `json:"reasoning_type"`
	Explanation   string               `json:"explanation"`
}

// GetSupportingClaims traverses inbound supporting edges (mathematical
// derivation, experimental support, logical inference) into the given claim,
// ordered by edge strength descending.
func (kg *KnowledgeGraph) GetSupportingClaims(ctx context.Context, claimID string) ([]SupportingClaim, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	reasoningCodes := make([]string, 0, len(models.SupportingReasoningTypes))
	for _, rt := range models.SupportingReasoningTypes {
		reasoningCodes = append(reasoningCodes, string(rt))
	}

	query := `
		MATCH (supported:Claim {id: $claim_id})
		MATCH (c:Claim)-[e:Edge]->(supported)
		WHERE e.reasoning_type IN $reasoning_types
		OPTIONAL MATCH (c)-[r:SUPPORTED_BY]->(s:Source)
		WITH c, e, r, s
		ORDER BY r.rank
		WITH c, e, collect({
			type: s.type,
			reference: s.reference,
			credibility: s.credibility,
			last_checked: s.last_checked
		}) as sources
		RETURN c, sources,
		       e.strength as edge_strength,
		       e.reasoning_type as reasoning_type,
		       e.explanation as explanation
		ORDER BY e.strength DESC
	`

	result, err := sess.Run(ctx, query, map[string]any{
		"claim_id":        claimID,
		"reasoning_types": reasoningCodes,
	})
	if err != nil {
		return nil, errors.NewQueryFailed("get supporting claims", err)
	}

	var supporting []SupportingClaim
	for result.Next(ctx) {
		record := result.Record()
		claim, err := claimFromClaimRecord(record)
		if err != nil {
			return nil, err
		}
		reasoningType, err := models.ParseReasoningType(getStringFromRecord(record, "reasoning_type"))
		if err != nil {
			return nil, err
		}
		supporting = append(supporting, SupportingClaim{
			Claim:         claim,
			Strength:      getFloat64FromRecord(record, "edge_strength"),
			ReasoningType: reasoningType,
			Explanation:   getStringFromRecord(record, "explanation"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewQueryFailed("get supporting claims", err)
	}
	return supporting, nil
}

func claimFromClaimRecord(record *neo4j.Record) (*models.Claim, error) {
	props, ok := nodeFromRecord(record, "c")
	if !ok {
		return nil, errors.NewQueryFailed("get claim", nil)
	}
	rawSources, _ := record.Get("sources")
	sources, _ := rawSources.([]any)
	return claimFromProps(props, sources)
}

func collectClaims(ctx context.Context, result neo4j.ResultWithContext) ([]*models.Claim, error) {
	var claims []*models.Claim
	for result.Next(ctx) {
		claim, err := claimFromClaimRecord(result.Record())
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewQueryFailed("collect claims", err)
	}
	return claims, nil
}
