package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"truthgraph/backend/pkg/config"
	"truthgraph/backend/pkg/errors"
	"truthgraph/backend/pkg/logger"
)

// KnowledgeGraph is the Neo4j access layer for claims, edges, gaps and
// research entities. It owns the driver handle and its lifecycle; repository
// operations acquire a session per call and release it on every exit path.
type KnowledgeGraph struct {
	uri      string
	user     string
	password string

	maxPoolSize    int
	connectTimeout time.Duration

	driver    neo4j.DriverWithContext
	connected bool
	logger    *zap.Logger
}

// New creates a KnowledgeGraph from configuration. No connection is made
// until Connect is called.
func New(cfg *config.Config) *KnowledgeGraph {
	return &KnowledgeGraph{
		uri:            cfg.Neo4jURI,
		user:           cfg.Neo4jUser,
		password:       cfg.Neo4jPassword,
		maxPoolSize:    cfg.Neo4jMaxPoolSize,
		connectTimeout: time.Duration(cfg.Neo4jConnectTimeout) * time.Second,
		logger:         logger.Named("graph"),
	}
}

// Open connects a new KnowledgeGraph and bootstraps the schema. Callers are
// expected to defer Close.
func Open(ctx context.Context, cfg *config.Config) (*KnowledgeGraph, error) {
	kg := New(cfg)
	if err := kg.Connect(ctx); err != nil {
		return nil, err
	}
	return kg, nil
}

// Connect establishes the pooled driver connection, runs a liveness query and
// initializes the schema. On any failure the graph reverts to disconnected.
func (kg *KnowledgeGraph) Connect(ctx context.Context) error {
	kg.logger.Info("Connecting to Neo4j", zap.String("uri", kg.uri))

	driver, err := neo4j.NewDriverWithContext(
		kg.uri,
		neo4j.BasicAuth(kg.user, kg.password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionPoolSize = kg.maxPoolSize
			c.SocketConnectTimeout = kg.connectTimeout
		},
	)
	if err != nil {
		kg.connected = false
		return errors.NewConnectionFailed(kg.uri, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		kg.connected = false
		if neo4j.IsConnectivityError(err) {
			kg.logger.Error("Neo4j service unavailable", zap.String("uri", kg.uri), zap.Error(err))
			return errors.NewConnectionFailed(kg.uri, err)
		}
		kg.logger.Error("Unexpected error connecting to Neo4j", zap.Error(err))
		return errors.NewQueryFailed("connect", err)
	}

	kg.driver = driver
	kg.connected = true

	// Trivial liveness query through a real session before declaring victory
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		kg.disconnect(ctx)
		return err
	}
	_, err = sess.Run(ctx, "RETURN 1 as test", nil)
	sess.Close(ctx)
	if err != nil {
		kg.disconnect(ctx)
		return errors.NewConnectionFailed(kg.uri, err)
	}

	kg.logger.Info("Successfully connected to Neo4j")

	kg.initializeSchema(ctx)
	return nil
}

// Close releases the pooled connection. Safe to call when already closed.
func (kg *KnowledgeGraph) Close(ctx context.Context) error {
	if kg.driver == nil {
		return nil
	}
	kg.logger.Info("Disconnecting from Neo4j")
	kg.disconnect(ctx)
	return nil
}

func (kg *KnowledgeGraph) disconnect(ctx context.Context) {
	if kg.driver != nil {
		_ = kg.driver.Close(ctx)
		kg.driver = nil
	}
	kg.connected = false
}

// IsConnected reports whether the graph holds a live driver handle
func (kg *KnowledgeGraph) IsConnected() bool {
	return kg.connected && kg.driver != nil
}

// session acquires a unit-of-work handle, failing fast when not connected.
// The caller must Close the session on every exit path.
func (kg *KnowledgeGraph) session(ctx context.Context, mode neo4j.AccessMode) (neo4j.SessionWithContext, error) {
	if !kg.IsConnected() {
		return nil, errors.ErrNotConnected
	}
	return kg.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode}), nil
}

// initializeSchema issues the idempotent constraint and index statements.
// "Already exists" failures are swallowed; anything else is logged as a
// warning without aborting startup.
func (kg *KnowledgeGraph) initializeSchema(ctx context.Context) {
	schemaQueries := []string{
		// Constraints for data integrity
		"CREATE CONSTRAINT claim_id_unique IF NOT EXISTS FOR (c:Claim) REQUIRE c.id IS UNIQUE",
		"CREATE CONSTRAINT gap_id_unique IF NOT EXISTS FOR (g:Gap) REQUIRE g.id IS UNIQUE",
		"CREATE CONSTRAINT profile_id_unique IF NOT EXISTS FOR (p:ResearchProfile) REQUIRE p.id IS UNIQUE",
		"CREATE CONSTRAINT context_id_unique IF NOT EXISTS FOR (rc:ResearchContext) REQUIRE rc.id IS UNIQUE",
		"CREATE CONSTRAINT session_id_unique IF NOT EXISTS FOR (s:ResearchSession) REQUIRE s.id IS UNIQUE",

		// Indexes for the filtering and ordering queries
		"CREATE INDEX claim_domain IF NOT EXISTS FOR (c:Claim) ON (c.domain)",
		"CREATE INDEX claim_confidence IF NOT EXISTS FOR (c:Claim) ON (c.confidence)",
		"CREATE INDEX claim_type IF NOT EXISTS FOR (c:Claim) ON (c.type)",
		"CREATE INDEX edge_reasoning_type IF NOT EXISTS FOR ()-[e:Edge]-() ON (e.reasoning_type)",
		"CREATE INDEX gap_importance IF NOT EXISTS FOR (g:Gap) ON (g.importance)",
		"CREATE INDEX context_uploaded_by IF NOT EXISTS FOR (rc:ResearchContext) ON (rc.uploaded_by)",
		"CREATE INDEX profile_status IF NOT EXISTS FOR (p:ResearchProfile) ON (p.status)",
	}

	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		kg.logger.Warn("Schema initialization skipped", zap.Error(err))
		return
	}
	defer sess.Close(ctx)

	for _, query := range schemaQueries {
		if _, err := sess.Run(ctx, query, nil); err != nil {
			if containsAlreadyExists(err) {
				kg.logger.Debug("Schema element already exists", zap.String("query", query))
				continue
			}
			kg.logger.Warn("Schema query failed", zap.String("query", query), zap.Error(err))
		}
	}

	kg.logger.Info("Database schema initialized")
}

func containsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	return containsFold(err.Error(), "already exists")
}
