package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"truthgraph/backend/pkg/errors"
)

// CategoryCount is one row of a grouped count breakdown
type CategoryCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Statistics is a snapshot of graph contents
type Statistics struct {
	TotalClaims          int64           `json:"total_claims"`
	TotalEdges           int64           `json:"total_edges"`
	TotalGaps            int64           `json:"total_gaps"`
	TotalProfiles        int64           `json:"total_profiles"`
	TotalContexts        int64           `json:"total_contexts"`
	TotalSessions        int64           `json:"total_sessions"`
	Domains              []CategoryCount `json:"domains"`
	ClaimTypes           []CategoryCount `json:"claim_types"`
	HighConfidenceClaims int64           `json:"high_confidence_claims"`
}

// GetStatistics aggregates entity counts and claim breakdowns. Each
// sub-query is independent; a failing aggregate yields its zero value
// instead of failing the whole snapshot.
func (kg *KnowledgeGraph) GetStatistics(ctx context.Context) (*Statistics, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	stats := &Statistics{
		Domains:    []CategoryCount{},
		ClaimTypes: []CategoryCount{},
	}

	stats.TotalClaims = kg.countQuery(ctx, sess, "total_claims",
		"MATCH (c:Claim) RETURN count(c) as count")
	stats.TotalEdges = kg.countQuery(ctx, sess, "total_edges",
		"MATCH ()-[e:Edge]->() RETURN count(e) as count")
	stats.TotalGaps = kg.countQuery(ctx, sess, "total_gaps",
		"MATCH (g:Gap) RETURN count(g) as count")
	stats.TotalProfiles = kg.countQuery(ctx, sess, "total_profiles",
		"MATCH (p:ResearchProfile) RETURN count(p) as count")
	stats.TotalContexts = kg.countQuery(ctx, sess, "total_contexts",
		"MATCH (rc:ResearchContext) RETURN count(rc) as count")
	stats.TotalSessions = kg.countQuery(ctx, sess, "total_sessions",
		"MATCH (s:ResearchSession) RETURN count(s) as count")
	stats.HighConfidenceClaims = kg.countQuery(ctx, sess, "high_confidence_claims",
		"MATCH (c:Claim) WHERE c.confidence >= 0.8 RETURN count(c) as count")

	stats.Domains = kg.breakdownQuery(ctx, sess, "domains",
		"MATCH (c:Claim) RETURN c.domain as key, count(c) as count ORDER BY count DESC")
	stats.ClaimTypes = kg.breakdownQuery(ctx, sess, "claim_types",
		"MATCH (c:Claim) RETURN c.type as key, count(c) as count ORDER BY count DESC")

	return stats, nil
}

func (kg *KnowledgeGraph) countQuery(ctx context.Context, sess neo4j.SessionWithContext, name, query string) int64 {
	result, err := sess.Run(ctx, query, nil)
	if err != nil {
		kg.logger.Warn("Statistics sub-query failed", zap.String("stat", name), zap.Error(err))
		return 0
	}
	record, err := result.Single(ctx)
	if err != nil {
		kg.logger.Warn("Statistics sub-query empty", zap.String("stat", name), zap.Error(err))
		return 0
	}
	return getInt64FromRecord(record, "count")
}

func (kg *KnowledgeGraph) breakdownQuery(ctx context.Context, sess neo4j.SessionWithContext, name, query string) []CategoryCount {
	result, err := sess.Run(ctx, query, nil)
	if err != nil {
		kg.logger.Warn("Statistics sub-query failed", zap.String("stat", name), zap.Error(err))
		return []CategoryCount{}
	}
	counts := []CategoryCount{}
	for result.Next(ctx) {
		record := result.Record()
		counts = append(counts, CategoryCount{
			Key:   getStringFromRecord(record, "key"),
			Count: getInt64FromRecord(record, "count"),
		})
	}
	if err := result.Err(); err != nil {
		kg.logger.Warn("Statistics sub-query failed", zap.String("stat", name), zap.Error(err))
		return []CategoryCount{}
	}
	return counts
}

// PruneOrphanedSources deletes every Source node with no incoming
// SUPPORTED_BY relationship and returns the count removed. Claim rewrites
// can strand sources because sources are shared by (type, reference).
func (kg *KnowledgeGraph) PruneOrphanedSources(ctx context.Context) (int64, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return 0, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (s:Source)
		WHERE NOT ()-[:SUPPORTED_BY]->(s)
		DETACH DELETE s
		RETURN count(s) as removed
	`

	result, err := sess.Run(ctx, query, nil)
	if err != nil {
		return 0, errors.NewQueryFailed("prune orphaned sources", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, errors.NewQueryFailed("prune orphaned sources", err)
	}

	removed := getInt64FromRecord(record, "removed")
	kg.logger.Info("Pruned orphaned sources", zap.Int64("removed", removed))
	return removed, nil
}

// DeleteAllKnowledge wipes every node and relationship in the database.
// Intended for seed resets and test teardowns only.
func (kg *KnowledgeGraph) DeleteAllKnowledge(ctx context.Context) error {
	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	if _, err := sess.Run(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return errors.NewQueryFailed("delete all knowledge", err)
	}

	kg.logger.Warn("Deleted all knowledge graph data")
	return nil
}
