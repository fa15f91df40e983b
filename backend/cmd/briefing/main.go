// Prints a research briefing from the knowledge graph: entity counts,
// the highest-priority open gaps, and recent high-confidence claims in a
// chosen domain.
package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"truthgraph/backend/internal/graph"
	"truthgraph/backend/pkg/config"
	"truthgraph/backend/pkg/logger"
)

func main() {
	domain := flag.String("domain", "", "Restrict the claim digest to one domain (e.g. physics.relativity)")
	minImportance := flag.Float64("min-importance", 0.8, "Importance floor for reported gaps")
	limit := flag.Int("limit", 5, "Maximum gaps and claims to report")
	flag.Parse()

	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()

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

	stats, err := kg.GetStatistics(ctx)
	if err != nil {
		log.Fatal("Failed to fetch statistics", zap.Error(err))
	}

	fmt.Println("=== Knowledge Graph Briefing ===")
	fmt.Printf("Claims: %d (%d high-confidence)\n", stats.TotalClaims, stats.HighConfidenceClaims)
	fmt.Printf("Edges: %d  Gaps: %d\n", stats.TotalEdges, stats.TotalGaps)
	fmt.Printf("Profiles: %d  Contexts: %d  Sessions: %d\n",
		stats.TotalProfiles, stats.TotalContexts, stats.TotalSessions)

	if len(stats.Domains) > 0 {
		fmt.Println("\nTop domains:")
		for i, d := range stats.Domains {
			if i >= 3 {
				break
			}
			fmt.Printf("  %s: %d claims\n", d.Key, d.Count)
		}
	}

	gaps, err := kg.QueryGaps(ctx, *minImportance, *limit)
	if err != nil {
		log.Fatal("Failed to fetch gaps", zap.Error(err))
	}
	if len(gaps) > 0 {
		fmt.Printf("\nOpen gaps (importance >= %.2f):\n", *minImportance)
		for _, gap := range gaps {
			fmt.Printf("  [%.2f] %s\n", gap.Importance, gap.Question)
			for _, research := range gap.CurrentResearch {
				fmt.Printf("         research: %s\n", research)
			}
		}
	}

	if *domain != "" {
		claims, err := kg.GetClaimsByDomain(ctx, *domain, 0.8)
		if err != nil {
			log.Fatal("Failed to fetch domain claims", zap.String("domain", *domain), zap.Error(err))
		}
		fmt.Printf("\nHigh-confidence claims in %s:\n", *domain)
		for i, claim := range claims {
			if i >= *limit {
				break
			}
			fmt.Printf("  [%.2f] %s\n", claim.Confidence, claim.Statement)
		}
	}
}
