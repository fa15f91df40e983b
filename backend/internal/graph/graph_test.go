package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"truthgraph/backend/internal/models"
	"truthgraph/backend/pkg/config"
	"truthgraph/backend/pkg/errors"
)

// These tests require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.

func testGraph(t *testing.T) (*KnowledgeGraph, context.Context) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	kg, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to open knowledge graph: %v", err)
	}
	t.Cleanup(func() { _ = kg.Close(ctx) })
	return kg, ctx
}

func testClaim(t *testing.T, statement string, confidence float64) *models.Claim {
	t.Helper()
	source, err := models.NewSource("textbook", "Test Reference "+time.Now().Format("150405.000"), 0.9, time.Now().UTC())
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	claim, err := models.NewClaim(statement, models.ClaimTypeDerived, "physics.test", confidence, []models.Source{source})
	if err != nil {
		t.Fatalf("NewClaim failed: %v", err)
	}
	return claim
}

func cleanupClaim(t *testing.T, kg *KnowledgeGraph, ctx context.Context, claimID string) {
	t.Helper()
	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return
	}
	defer sess.Close(ctx)
	_, _ = sess.Run(ctx,
		"MATCH (c:Claim {id: $id}) OPTIONAL MATCH (c)-[:SUPPORTED_BY]->(s:Source) DETACH DELETE c, s",
		map[string]any{"id": claimID})
}

func TestKnowledgeGraph_CreateClaim_Idempotent(t *testing.T) {
	kg, ctx := testGraph(t)

	claim := testClaim(t, "Objects in free fall accelerate at 9.8 m/s²", 0.95)
	defer cleanupClaim(t, kg, ctx, claim.ID)

	id, err := kg.CreateClaim(ctx, claim)
	if err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}
	if id != claim.ID {
		t.Errorf("Expected id %s, got %s", claim.ID, id)
	}

	first, err := kg.GetClaim(ctx, id)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}

	// Re-issue with a changed statement; created_at must not move
	claim.Statement = "Objects in free fall accelerate at g"
	if _, err := kg.CreateClaim(ctx, claim); err != nil {
		t.Fatalf("Second CreateClaim failed: %v", err)
	}

	second, err := kg.GetClaim(ctx, id)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if second.Statement != "Objects in free fall accelerate at g" {
		t.Errorf("Statement not updated, got %q", second.Statement)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed across upsert: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
}

func TestKnowledgeGraph_GetClaim_RoundTrip(t *testing.T) {
	kg, ctx := testGraph(t)

	s1, _ := models.NewSource("textbook", "Principia", 0.95, time.Now().UTC())
	s2, _ := models.NewSource("experiment", "Cavendish 1798", 0.85, time.Now().UTC())
	claim, err := models.NewClaim("Masses attract with force proportional to their product",
		models.ClaimTypeLaw, "physics.classical_mechanics", 0.99, []models.Source{s1, s2})
	if err != nil {
		t.Fatalf("NewClaim failed: %v", err)
	}
	defer cleanupClaim(t, kg, ctx, claim.ID)

	if _, err := kg.CreateClaim(ctx, claim); err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}

	got, err := kg.GetClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetClaim returned nil for existing claim")
	}
	if got.Statement != claim.Statement || got.Type != claim.Type || got.Domain != claim.Domain {
		t.Errorf("Round-trip mismatch: %+v", got)
	}
	if len(got.Sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(got.Sources))
	}
	// Source order must survive the round trip
	if got.Sources[0].Reference != "Principia" || got.Sources[1].Reference != "Cavendish 1798" {
		t.Errorf("Source order lost: %q, %q", got.Sources[0].Reference, got.Sources[1].Reference)
	}
}

func TestKnowledgeGraph_GetClaim_NotFound(t *testing.T) {
	kg, ctx := testGraph(t)

	got, err := kg.GetClaim(ctx, "non-existent-claim")
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing claim, got %+v", got)
	}
}

func TestKnowledgeGraph_GetClaimsByDomain_Ordering(t *testing.T) {
	kg, ctx := testGraph(t)

	domain := fmt.Sprintf("physics.test_%d", time.Now().UnixNano())
	confidences := []float64{0.4, 0.9, 0.6}
	for _, conf := range confidences {
		claim := testClaim(t, fmt.Sprintf("Test claim at %v", conf), conf)
		claim.Domain = domain
		defer cleanupClaim(t, kg, ctx, claim.ID)
		if _, err := kg.CreateClaim(ctx, claim); err != nil {
			t.Fatalf("CreateClaim failed: %v", err)
		}
	}

	claims, err := kg.GetClaimsByDomain(ctx, domain, 0.5)
	if err != nil {
		t.Fatalf("GetClaimsByDomain failed: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims above 0.5, got %d", len(claims))
	}
	if claims[0].Confidence != 0.9 || claims[1].Confidence != 0.6 {
		t.Errorf("Wrong ordering: [%v, %v]", claims[0].Confidence, claims[1].Confidence)
	}
}

func TestKnowledgeGraph_CreateEdge_MissingEndpoint(t *testing.T) {
	kg, ctx := testGraph(t)

	claim := testClaim(t, "An existing endpoint", 0.8)
	defer cleanupClaim(t, kg, ctx, claim.ID)
	if _, err := kg.CreateClaim(ctx, claim); err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}

	edge, err := models.NewEdge("missing-claim-id", claim.ID, models.ReasoningLogicalInference, "from nowhere", 0.7)
	if err != nil {
		t.Fatalf("NewEdge failed: %v", err)
	}

	_, err = kg.CreateEdge(ctx, edge)
	if err == nil {
		t.Fatal("Expected referential-integrity error")
	}
	notFound, ok := err.(*errors.ErrClaimNotFound)
	if !ok {
		t.Fatalf("Expected ErrClaimNotFound, got %T", err)
	}
	if notFound.ClaimID != "missing-claim-id" {
		t.Errorf("Error names wrong claim: %s", notFound.ClaimID)
	}
}

func TestKnowledgeGraph_SupportingClaims(t *testing.T) {
	kg, ctx := testGraph(t)

	supported := testClaim(t, "Kinetic energy equals half m v squared", 0.9)
	supporting := testClaim(t, "Work equals force times distance", 0.9)
	defer cleanupClaim(t, kg, ctx, supported.ID)
	defer cleanupClaim(t, kg, ctx, supporting.ID)

	for _, c := range []*models.Claim{supported, supporting} {
		if _, err := kg.CreateClaim(ctx, c); err != nil {
			t.Fatalf("CreateClaim failed: %v", err)
		}
	}

	edge, err := models.NewEdge(supporting.ID, supported.ID, models.ReasoningMathematicalDerivation, "integrate F over distance", 0.95)
	if err != nil {
		t.Fatalf("NewEdge failed: %v", err)
	}
	if _, err := kg.CreateEdge(ctx, edge); err != nil {
		t.Fatalf("CreateEdge failed: %v", err)
	}

	supporters, err := kg.GetSupportingClaims(ctx, supported.ID)
	if err != nil {
		t.Fatalf("GetSupportingClaims failed: %v", err)
	}
	if len(supporters) != 1 {
		t.Fatalf("Expected 1 supporter, got %d", len(supporters))
	}
	if supporters[0].Claim.ID != supporting.ID {
		t.Errorf("Wrong supporter: %s", supporters[0].Claim.ID)
	}
	if supporters[0].Strength != 0.95 || supporters[0].ReasoningType != models.ReasoningMathematicalDerivation {
		t.Errorf("Edge metadata lost: %+v", supporters[0])
	}
}

func TestKnowledgeGraph_GapBlocking(t *testing.T) {
	kg, ctx := testGraph(t)

	c1 := testClaim(t, "Blocked claim one", 0.7)
	c2 := testClaim(t, "Blocked claim two", 0.7)
	defer cleanupClaim(t, kg, ctx, c1.ID)
	defer cleanupClaim(t, kg, ctx, c2.ID)
	for _, c := range []*models.Claim{c1, c2} {
		if _, err := kg.CreateClaim(ctx, c); err != nil {
			t.Fatalf("CreateClaim failed: %v", err)
		}
	}

	gap, err := models.NewGap("What mediates this interaction?", []string{c1.ID, c2.ID}, nil, 0.9)
	if err != nil {
		t.Fatalf("NewGap failed: %v", err)
	}
	defer func() {
		sess, err := kg.session(ctx, neo4j.AccessModeWrite)
		if err != nil {
			return
		}
		defer sess.Close(ctx)
		_, _ = sess.Run(ctx, "MATCH (g:Gap {id: $id}) DETACH DELETE g", map[string]any{"id": gap.ID})
	}()

	if _, err := kg.CreateGap(ctx, gap); err != nil {
		t.Fatalf("CreateGap failed: %v", err)
	}

	for _, claimID := range []string{c1.ID, c2.ID} {
		gaps, err := kg.GetGapsForClaim(ctx, claimID)
		if err != nil {
			t.Fatalf("GetGapsForClaim failed: %v", err)
		}
		found := false
		for _, g := range gaps {
			if g.ID == gap.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("Gap not blocking claim %s", claimID)
		}
	}
}

func TestKnowledgeGraph_PruneOrphanedSources(t *testing.T) {
	kg, ctx := testGraph(t)

	shared, _ := models.NewSource("paper", fmt.Sprintf("Shared Ref %d", time.Now().UnixNano()), 0.8, time.Now().UTC())
	own1, _ := models.NewSource("paper", fmt.Sprintf("Own Ref A %d", time.Now().UnixNano()), 0.8, time.Now().UTC())
	own2, _ := models.NewSource("paper", fmt.Sprintf("Own Ref B %d", time.Now().UnixNano()), 0.8, time.Now().UTC())

	c1, _ := models.NewClaim("Prune test claim one", models.ClaimTypeEmpirical, "physics.test", 0.6, []models.Source{shared, own1})
	c2, _ := models.NewClaim("Prune test claim two", models.ClaimTypeEmpirical, "physics.test", 0.6, []models.Source{shared, own2})
	defer cleanupClaim(t, kg, ctx, c1.ID)
	defer cleanupClaim(t, kg, ctx, c2.ID)

	for _, c := range []*models.Claim{c1, c2} {
		if _, err := kg.CreateClaim(ctx, c); err != nil {
			t.Fatalf("CreateClaim failed: %v", err)
		}
	}

	// Rewrite both claims without the shared source; it becomes orphaned
	c1.Sources = []models.Source{own1}
	c2.Sources = []models.Source{own2}
	for _, c := range []*models.Claim{c1, c2} {
		if _, err := kg.CreateClaim(ctx, c); err != nil {
			t.Fatalf("CreateClaim rewrite failed: %v", err)
		}
	}

	removed, err := kg.PruneOrphanedSources(ctx)
	if err != nil {
		t.Fatalf("PruneOrphanedSources failed: %v", err)
	}
	if removed < 1 {
		t.Errorf("Expected at least the shared source removed, got %d", removed)
	}

	got, err := kg.GetClaim(ctx, c1.ID)
	if err != nil {
		t.Fatalf("GetClaim failed: %v", err)
	}
	if len(got.Sources) != 1 || got.Sources[0].Reference != own1.Reference {
		t.Errorf("Surviving source set wrong: %+v", got.Sources)
	}
}

func TestKnowledgeGraph_Statistics(t *testing.T) {
	kg, ctx := testGraph(t)

	claim := testClaim(t, "Statistics test claim", 0.85)
	defer cleanupClaim(t, kg, ctx, claim.ID)

	before, err := kg.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}

	if _, err := kg.CreateClaim(ctx, claim); err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}
	// Upsert again; totals must not double-count
	if _, err := kg.CreateClaim(ctx, claim); err != nil {
		t.Fatalf("CreateClaim failed: %v", err)
	}

	after, err := kg.GetStatistics(ctx)
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if after.TotalClaims != before.TotalClaims+1 {
		t.Errorf("Expected %d claims, got %d", before.TotalClaims+1, after.TotalClaims)
	}
	if after.HighConfidenceClaims != before.HighConfidenceClaims+1 {
		t.Errorf("High-confidence count wrong: %d vs %d", after.HighConfidenceClaims, before.HighConfidenceClaims)
	}
}

func TestKnowledgeGraph_SessionAfterFailedOperation(t *testing.T) {
	kg, ctx := testGraph(t)

	// Neo4j rejects a negative LIMIT while the query executes, so this fails
	// inside an acquired session and must still release it
	_, err := kg.QueryClaims(ctx, "anything", -1)
	if err == nil {
		t.Fatal("Expected storage error for negative limit")
	}
	if !errors.IsErrorType(err, errors.ErrorTypeGraph) {
		t.Fatalf("Expected a graph storage error, got %v", err)
	}

	// Subsequent operations acquire fresh sessions without issue
	if _, err := kg.GetClaim(ctx, "still-works"); err != nil {
		t.Fatalf("Session acquisition after failure broken: %v", err)
	}

	claim := testClaim(t, "Writes still work after a failed query", 0.7)
	defer cleanupClaim(t, kg, ctx, claim.ID)
	if _, err := kg.CreateClaim(ctx, claim); err != nil {
		t.Fatalf("Write after failed query broken: %v", err)
	}
}

func TestKnowledgeGraph_NotConnected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	kg := New(cfg)
	if kg.IsConnected() {
		t.Error("Fresh graph reports connected")
	}

	_, err = kg.GetClaim(context.Background(), "any")
	if err != errors.ErrNotConnected {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}

	// Close before connect is a no-op
	if err := kg.Close(context.Background()); err != nil {
		t.Errorf("Close on disconnected graph failed: %v", err)
	}
}
