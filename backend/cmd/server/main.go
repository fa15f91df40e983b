package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"truthgraph/backend/internal/graph"
	"truthgraph/backend/internal/ingest"
	"truthgraph/backend/internal/models"
	"truthgraph/backend/internal/review"
	"truthgraph/backend/pkg/config"
	tgerrors "truthgraph/backend/pkg/errors"
	"truthgraph/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting knowledge graph API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Connect to Neo4j and initialize schema
	ctx := context.Background()
	kg, err := graph.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	defer kg.Close(context.Background())

	reviewer := review.NewService(cfg.ReviewAPIBaseURL, cfg.ReviewAPIKey, cfg.ReviewModelID)
	fetcher := ingest.NewWebFetcher()

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(log, kg, reviewer, fetcher)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func setupRouter(log *zap.Logger, kg *graph.KnowledgeGraph, reviewer *review.Service, fetcher *ingest.WebFetcher) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connected": kg.IsConnected()})
	})

	api := router.Group("/api")
	{
		// Claims
		api.POST("/claims", func(c *gin.Context) {
			var req struct {
				ID             string          `json:"id"`
				Statement      string          `json:"statement" binding:"required"`
				Type           string          `json:"type" binding:"required"`
				Domain         string          `json:"domain" binding:"required"`
				Confidence     *float64        `json:"confidence" binding:"required"`
				Sources        []models.Source `json:"sources"`
				MathExpression string          `json:"math_expression"`
				Metadata       map[string]any  `json:"metadata"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			claim, err := models.NewClaim(req.Statement, models.ClaimType(req.Type), req.Domain, *req.Confidence, req.Sources)
			if err != nil {
				writeError(c, log, err)
				return
			}
			if req.ID != "" {
				claim.ID = req.ID
			}
			claim.MathExpression = req.MathExpression
			if req.Metadata != nil {
				claim.Metadata = req.Metadata
			}

			id, err := kg.CreateClaim(c.Request.Context(), claim)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"id": id})
		})

		api.GET("/claims/:id", func(c *gin.Context) {
			claim, err := kg.GetClaim(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			if claim == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Claim not found"})
				return
			}
			c.JSON(http.StatusOK, claim)
		})

		// Query by statement pattern (?q=) or by domain (?domain=&min_confidence=)
		api.GET("/claims", func(c *gin.Context) {
			ctx := c.Request.Context()
			if domain := c.Query("domain"); domain != "" {
				minConfidence := parseFloatParam(c, "min_confidence", 0.5)
				claims, err := kg.GetClaimsByDomain(ctx, domain, minConfidence)
				if err != nil {
					writeError(c, log, err)
					return
				}
				c.JSON(http.StatusOK, gin.H{"claims": claims, "count": len(claims)})
				return
			}

			limit := parseIntParam(c, "limit", 10)
			claims, err := kg.QueryClaims(ctx, c.Query("q"), limit)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"claims": claims, "count": len(claims)})
		})

		api.GET("/claims/:id/supporting", func(c *gin.Context) {
			supporting, err := kg.GetSupportingClaims(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"supporting": supporting, "count": len(supporting)})
		})

		api.GET("/claims/:id/gaps", func(c *gin.Context) {
			gaps, err := kg.GetGapsForClaim(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"gaps": gaps, "count": len(gaps)})
		})

		// Edges
		api.POST("/edges", func(c *gin.Context) {
			var req struct {
				ID            string         `json:"id"`
				FromClaimID   string         `json:"from_claim_id" binding:"required"`
				ToClaimID     string         `json:"to_claim_id" binding:"required"`
				ReasoningType string         `json:"reasoning_type" binding:"required"`
				Explanation   string         `json:"explanation"`
				Strength      *float64       `json:"strength" binding:"required"`
				Metadata      map[string]any `json:"metadata"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			edge, err := models.NewEdge(req.FromClaimID, req.ToClaimID, models.ReasoningType(req.ReasoningType), req.Explanation, *req.Strength)
			if err != nil {
				writeError(c, log, err)
				return
			}
			if req.ID != "" {
				edge.ID = req.ID
			}
			if req.Metadata != nil {
				edge.Metadata = req.Metadata
			}

			id, err := kg.CreateEdge(c.Request.Context(), edge)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"id": id})
		})

		api.GET("/edges/:id", func(c *gin.Context) {
			_, err := kg.GetEdge(c.Request.Context(), c.Param("id"))
			writeError(c, log, err)
		})

		// Gaps
		api.POST("/gaps", func(c *gin.Context) {
			var req struct {
				ID              string         `json:"id"`
				Question        string         `json:"question" binding:"required"`
				BlockedClaimIDs []string       `json:"blocked_claim_ids"`
				CurrentResearch []string       `json:"current_research"`
				Importance      *float64       `json:"importance" binding:"required"`
				Metadata        map[string]any `json:"metadata"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			gap, err := models.NewGap(req.Question, req.BlockedClaimIDs, req.CurrentResearch, *req.Importance)
			if err != nil {
				writeError(c, log, err)
				return
			}
			if req.ID != "" {
				gap.ID = req.ID
			}
			if req.Metadata != nil {
				gap.Metadata = req.Metadata
			}

			id, err := kg.CreateGap(c.Request.Context(), gap)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"id": id})
		})

		api.GET("/gaps/:id", func(c *gin.Context) {
			gap, err := kg.GetGap(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			if gap == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Gap not found"})
				return
			}
			c.JSON(http.StatusOK, gap)
		})

		api.GET("/gaps", func(c *gin.Context) {
			minImportance := parseFloatParam(c, "min_importance", 0.0)
			limit := parseIntParam(c, "limit", 10)
			gaps, err := kg.QueryGaps(c.Request.Context(), minImportance, limit)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"gaps": gaps, "count": len(gaps)})
		})

		// Research profiles
		api.POST("/profiles", func(c *gin.Context) {
			var req struct {
				UserID      string   `json:"user_id" binding:"required"`
				Name        string   `json:"name" binding:"required"`
				Description string   `json:"description"`
				Domains     []string `json:"domains"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			profile, err := models.NewResearchProfile(req.UserID, req.Name, req.Description, req.Domains)
			if err != nil {
				writeError(c, log, err)
				return
			}

			id, err := kg.CreateProfile(c.Request.Context(), profile)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"id": id})
		})

		api.GET("/profiles/:id", func(c *gin.Context) {
			profile, err := kg.GetProfile(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			if profile == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
				return
			}
			c.JSON(http.StatusOK, profile)
		})

		api.GET("/users/:id/profiles", func(c *gin.Context) {
			profiles, err := kg.GetUserProfiles(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"profiles": profiles, "count": len(profiles)})
		})

		api.GET("/profiles/:id/contexts", func(c *gin.Context) {
			contexts, err := kg.GetProfileContexts(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"contexts": contexts, "count": len(contexts)})
		})

		api.GET("/profiles/:id/sessions", func(c *gin.Context) {
			sessions, err := kg.GetProfileSessions(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
		})

		// Research contexts
		api.POST("/contexts", func(c *gin.Context) {
			var req struct {
				Title      string         `json:"title" binding:"required"`
				Type       string         `json:"type" binding:"required"`
				Content    string         `json:"content" binding:"required"`
				UploadedBy string         `json:"uploaded_by" binding:"required"`
				FilePath   string         `json:"file_path"`
				Metadata   map[string]any `json:"metadata"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			rc, err := models.NewResearchContext(req.Title, models.ContextType(req.Type), req.Content, req.UploadedBy)
			if err != nil {
				writeError(c, log, err)
				return
			}
			rc.FilePath = req.FilePath
			if req.Metadata != nil {
				rc.Metadata = req.Metadata
			}

			id, err := kg.CreateContext(c.Request.Context(), rc)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"id": id})
		})

		// Fetch a web page and store it as a context
		api.POST("/contexts/fetch", func(c *gin.Context) {
			var req struct {
				URL        string `json:"url" binding:"required"`
				UploadedBy string `json:"uploaded_by" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			rc, err := fetcher.FetchContext(c.Request.Context(), req.URL, req.UploadedBy)
			if err != nil {
				log.Error("Failed to fetch web resource", zap.String("url", req.URL), zap.Error(err))
				c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch web resource"})
				return
			}

			id, err := kg.CreateContext(c.Request.Context(), rc)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"id": id, "title": rc.Title})
		})

		api.GET("/contexts/:id", func(c *gin.Context) {
			rc, err := kg.GetContext(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			if rc == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Context not found"})
				return
			}
			c.JSON(http.StatusOK, rc)
		})

		api.GET("/contexts", func(c *gin.Context) {
			limit := parseIntParam(c, "limit", 10)
			contexts, err := kg.SearchContexts(c.Request.Context(), c.Query("q"), models.ContextType(c.Query("type")), limit)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"contexts": contexts, "count": len(contexts)})
		})

		// Research sessions
		api.POST("/sessions", func(c *gin.Context) {
			var req struct {
				ProfileID string `json:"profile_id" binding:"required"`
				UserID    string `json:"user_id" binding:"required"`
				Title     string `json:"title" binding:"required"`
				Query     string `json:"query" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			rs, err := models.NewResearchSession(req.ProfileID, req.UserID, req.Title, req.Query)
			if err != nil {
				writeError(c, log, err)
				return
			}

			id, err := kg.CreateSession(c.Request.Context(), rs)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusCreated, gin.H{"id": id})
		})

		api.GET("/sessions/:id", func(c *gin.Context) {
			rs, err := kg.GetSession(c.Request.Context(), c.Param("id"))
			if err != nil {
				writeError(c, log, err)
				return
			}
			if rs == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
				return
			}
			c.JSON(http.StatusOK, rs)
		})

		// Canonical claim domains
		api.GET("/domains", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"domains": config.PhysicsDomains})
		})

		// Statistics and maintenance
		api.GET("/statistics", func(c *gin.Context) {
			stats, err := kg.GetStatistics(c.Request.Context())
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, stats)
		})

		api.POST("/maintenance/prune-sources", func(c *gin.Context) {
			removed, err := kg.PruneOrphanedSources(c.Request.Context())
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"removed": removed})
		})

		// AI review
		api.POST("/review", func(c *gin.Context) {
			var req review.Request
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if req.Title == "" || req.Content == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "article_title and article_content are required"})
				return
			}

			result, err := reviewer.ReviewArticle(c.Request.Context(), req)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, result)
		})

		api.POST("/review/sources", func(c *gin.Context) {
			var req struct {
				Sources []review.SourceRecord `json:"sources" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			report, err := reviewer.VerifySources(c.Request.Context(), req.Sources)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, report)
		})
	}

	return router
}

// writeError maps the error taxonomy to HTTP statuses
func writeError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case tgerrors.IsErrorType(err, tgerrors.ErrorTypeValidation),
		tgerrors.IsErrorType(err, tgerrors.ErrorTypeContract):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case tgerrors.IsErrorType(err, tgerrors.ErrorTypeIntegrity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case tgerrors.IsErrorType(err, tgerrors.ErrorTypeUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
	case errors.Is(err, tgerrors.ErrNotConnected),
		tgerrors.IsErrorType(err, tgerrors.ErrorTypeConnectivity):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
	default:
		log.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

func parseFloatParam(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseIntParam(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
