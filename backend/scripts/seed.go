// Seeds the knowledge graph with foundational physics claims, reasoning
// edges, and open knowledge gaps. Run against an empty or existing database;
// all writes are idempotent upserts keyed by the fixed ids below.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"truthgraph/backend/internal/graph"
	"truthgraph/backend/internal/models"
	"truthgraph/backend/pkg/config"
	"truthgraph/backend/pkg/logger"
)

func main() {
	reset := flag.Bool("reset", false, "Delete all existing knowledge graph data before seeding")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting knowledge graph seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	kg, err := graph.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	defer kg.Close(context.Background())

	if *reset {
		log.Warn("Resetting knowledge graph data...")
		if err := kg.DeleteAllKnowledge(ctx); err != nil {
			log.Fatal("Failed to reset database", zap.Error(err))
		}
	}

	axioms := physicsAxioms()
	derived := derivedClaims()

	for _, claim := range axioms {
		if _, err := kg.CreateClaim(ctx, claim); err != nil {
			log.Fatal("Failed to create axiom", zap.String("statement", claim.Statement), zap.Error(err))
		}
		log.Info("Created axiom", zap.String("id", claim.ID), zap.String("statement", claim.Statement))
	}

	for _, claim := range derived {
		if _, err := kg.CreateClaim(ctx, claim); err != nil {
			log.Fatal("Failed to create derived claim", zap.String("statement", claim.Statement), zap.Error(err))
		}
		log.Info("Created derived claim", zap.String("id", claim.ID), zap.String("statement", claim.Statement))
	}

	for _, edge := range reasoningEdges() {
		if _, err := kg.CreateEdge(ctx, edge); err != nil {
			log.Fatal("Failed to create edge", zap.String("explanation", edge.Explanation), zap.Error(err))
		}
		log.Info("Created reasoning edge",
			zap.String("from", edge.FromClaimID),
			zap.String("to", edge.ToClaimID),
			zap.String("reasoning_type", string(edge.ReasoningType)),
		)
	}

	for _, gap := range knowledgeGaps() {
		if _, err := kg.CreateGap(ctx, gap); err != nil {
			log.Fatal("Failed to create gap", zap.String("question", gap.Question), zap.Error(err))
		}
		log.Info("Created knowledge gap", zap.String("question", gap.Question))
	}

	stats, err := kg.GetStatistics(ctx)
	if err != nil {
		log.Fatal("Failed to fetch statistics", zap.Error(err))
	}

	log.Info("Seed completed",
		zap.Int64("total_claims", stats.TotalClaims),
		zap.Int64("total_edges", stats.TotalEdges),
		zap.Int64("total_gaps", stats.TotalGaps),
		zap.Int64("high_confidence_claims", stats.HighConfidenceClaims),
	)
}

// mustClaim builds a claim with a fixed id so reruns upsert instead of
// duplicating
func mustClaim(id, statement string, claimType models.ClaimType, domain string, confidence float64, mathExpr string, sources ...models.Source) *models.Claim {
	claim, err := models.NewClaim(statement, claimType, domain, confidence, sources)
	if err != nil {
		panic(fmt.Sprintf("invalid seed claim %q: %v", id, err))
	}
	claim.ID = id
	claim.MathExpression = mathExpr
	return claim
}

func mustSource(sourceType, reference string, credibility float64) models.Source {
	s, err := models.NewSource(sourceType, reference, credibility, time.Now().UTC())
	if err != nil {
		panic(fmt.Sprintf("invalid seed source %q: %v", reference, err))
	}
	return s
}

func mustEdge(fromID, toID string, reasoningType models.ReasoningType, explanation string, strength float64) *models.Edge {
	edge, err := models.NewEdge(fromID, toID, reasoningType, explanation, strength)
	if err != nil {
		panic(fmt.Sprintf("invalid seed edge %s -> %s: %v", fromID, toID, err))
	}
	edge.ID = fmt.Sprintf("seed-edge-%s-%s", fromID, toID)
	return edge
}

func mustGap(id, question string, blockedClaimIDs, currentResearch []string, importance float64) *models.Gap {
	gap, err := models.NewGap(question, blockedClaimIDs, currentResearch, importance)
	if err != nil {
		panic(fmt.Sprintf("invalid seed gap %q: %v", id, err))
	}
	gap.ID = id
	return gap
}

func physicsAxioms() []*models.Claim {
	return []*models.Claim{
		mustClaim("seed-axiom-newton-2", "Force equals mass times acceleration (F = ma)",
			models.ClaimTypeAxiom, "physics.classical_mechanics", 1.0, `F = ma`,
			mustSource("textbook", "Newton's Principia Mathematica (1687)", 1.0)),

		mustClaim("seed-axiom-energy-conservation", "Energy is conserved in closed systems",
			models.ClaimTypeAxiom, "physics.thermodynamics", 1.0, "",
			mustSource("law", "First Law of Thermodynamics", 1.0)),

		mustClaim("seed-axiom-light-speed", "Light travels at constant speed c = 299,792,458 m/s in vacuum",
			models.ClaimTypeAxiom, "physics.relativity", 1.0, `c = 299792458\ \mathrm{m/s}`,
			mustSource("experiment", "Michelson-Morley experiment (1887)", 0.95)),

		mustClaim("seed-axiom-spacetime-curvature", "Gravity is the curvature of spacetime",
			models.ClaimTypeAxiom, "physics.relativity", 1.0, "",
			mustSource("theory", "General Theory of Relativity (1915)", 0.95)),

		mustClaim("seed-axiom-planck-constant", "Planck's constant h = 6.626 x 10^-34 J*s",
			models.ClaimTypeAxiom, "physics.quantum_mechanics", 1.0, `h = 6.626 \times 10^{-34}\ \mathrm{J\cdot s}`,
			mustSource("experiment", "Blackbody radiation experiments", 0.95)),
	}
}

func derivedClaims() []*models.Claim {
	return []*models.Claim{
		mustClaim("seed-derived-free-fall", "Objects in free fall accelerate at constant rate g = 9.81 m/s^2",
			models.ClaimTypeDerived, "physics.classical_mechanics", 0.95, `a = g \approx 9.81\ \mathrm{m/s^2}`,
			mustSource("experiment", "Galileo's Leaning Tower of Pisa experiment", 0.9)),

		mustClaim("seed-derived-kinetic-energy", "Kinetic energy equals (1/2)mv^2",
			models.ClaimTypeDerived, "physics.classical_mechanics", 0.9, `KE = \frac{1}{2}mv^2`,
			mustSource("derivation", "Integration of F=ma over distance", 0.95)),

		mustClaim("seed-derived-mass-energy", "E = mc^2 relates energy and mass",
			models.ClaimTypeDerived, "physics.relativity", 0.95, `E = mc^2`,
			mustSource("theory", "Special Theory of Relativity", 0.9)),

		mustClaim("seed-derived-time-dilation", "Gravitational time dilation occurs near massive objects",
			models.ClaimTypeDerived, "physics.relativity", 0.9, "",
			mustSource("experiment", "Pound-Rebka experiment (1959)", 0.85)),

		mustClaim("seed-derived-photoelectric", "Photoelectric effect demonstrates particle nature of light",
			models.ClaimTypeDerived, "physics.quantum_mechanics", 0.9, "",
			mustSource("experiment", "Einstein's explanation (1905)", 0.9)),
	}
}

func reasoningEdges() []*models.Edge {
	return []*models.Edge{
		mustEdge("seed-axiom-newton-2", "seed-derived-free-fall",
			models.ReasoningMathematicalDerivation,
			"In free fall, net force is mg, so a = g by Newton's second law", 0.95),

		mustEdge("seed-axiom-newton-2", "seed-derived-kinetic-energy",
			models.ReasoningMathematicalDerivation,
			"Work-energy theorem: W = dKE, and W = integral of F over distance = (1/2)mv^2", 0.9),

		mustEdge("seed-axiom-light-speed", "seed-derived-mass-energy",
			models.ReasoningMathematicalDerivation,
			"Energy-momentum relation derived from the constancy of the speed of light", 0.95),

		mustEdge("seed-axiom-spacetime-curvature", "seed-derived-time-dilation",
			models.ReasoningMathematicalDerivation,
			"Schwarzschild metric predicts time dilation in gravitational fields", 0.9),

		mustEdge("seed-axiom-planck-constant", "seed-derived-photoelectric",
			models.ReasoningExperimentalSupport,
			"Einstein used Planck's constant to explain the photoelectric effect", 0.9),
	}
}

func knowledgeGaps() []*models.Gap {
	return []*models.Gap{
		mustGap("seed-gap-quantum-gravity", "How does gravity work at the quantum level?",
			[]string{"seed-axiom-spacetime-curvature"},
			[]string{"Quantum gravity", "String theory", "Loop quantum gravity", "Causal dynamical triangulation"},
			0.95),

		mustGap("seed-gap-black-hole-information", "What happens to information in black holes?",
			nil,
			[]string{"Black hole information paradox", "Holographic principle", "Firewall paradox"},
			0.9),

		mustGap("seed-gap-dark-energy", "Why is the expansion of the universe accelerating?",
			nil,
			[]string{"Dark energy", "Cosmological constant", "Quintessence", "Modified gravity theories"},
			0.85),

		mustGap("seed-gap-entanglement", "What is the fundamental nature of quantum entanglement?",
			nil,
			[]string{"Bell's theorem", "Quantum information theory", "Many-worlds interpretation"},
			0.8),

		mustGap("seed-gap-unification", "How do we reconcile quantum mechanics and general relativity?",
			[]string{"seed-axiom-spacetime-curvature", "seed-axiom-planck-constant"},
			[]string{"Theory of everything", "Grand unified theory", "Supersymmetry", "Extra dimensions"},
			0.9),
	}
}
