package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"truthgraph/backend/internal/models"
	"truthgraph/backend/pkg/errors"
)

// ============================================================================
// Research Profile Operations
// ============================================================================

// CreateProfile upserts a research profile by id
func (kg *KnowledgeGraph) CreateProfile(ctx context.Context, profile *models.ResearchProfile) (string, error) {
	if err := requireEntity(profile, "ResearchProfile"); err != nil {
		return "", err
	}
	if err := profile.Validate(); err != nil {
		return "", err
	}

	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return "", err
	}
	defer sess.Close(ctx)

	query := `
		MERGE (p:ResearchProfile {id: $profile.id})
		ON CREATE SET
			p.user_id = $profile.user_id,
			p.name = $profile.name,
			p.description = $profile.description,
			p.domains = $profile.domains,
			p.contexts = $profile.contexts,
			p.status = $profile.status,
			p.created_at = $profile.created_at,
			p.updated_at = $profile.updated_at,
			p.metadata = $profile.metadata
		ON MATCH SET
			p.name = $profile.name,
			p.description = $profile.description,
			p.domains = $profile.domains,
			p.contexts = $profile.contexts,
			p.status = $profile.status,
			p.updated_at = $profile.updated_at,
			p.metadata = $profile.metadata
		RETURN p.id as profile_id
	`

	result, err := sess.Run(ctx, query, map[string]any{"profile": profileParams(profile)})
	if err != nil {
		return "", errors.NewQueryFailed("create profile", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return "", errors.NewQueryFailed("create profile", err)
	}
	profileID := getStringFromRecord(record, "profile_id")

	kg.logger.Info("Created/updated research profile",
		zap.String("profile_id", profileID),
		zap.String("user_id", profile.UserID),
	)
	return profileID, nil
}

// GetProfile retrieves a profile by id. Returns nil without error when not found.
func (kg *KnowledgeGraph) GetProfile(ctx context.Context, profileID string) (*models.ResearchProfile, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (p:ResearchProfile {id: $id}) RETURN p`,
		map[string]any{"id": profileID})
	if err != nil {
		return nil, errors.NewQueryFailed("get profile", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, errors.NewQueryFailed("get profile", err)
		}
		return nil, nil
	}

	props, ok := nodeFromRecord(result.Record(), "p")
	if !ok {
		return nil, errors.NewQueryFailed("get profile", nil)
	}
	return profileFromProps(props)
}

// GetUserProfiles returns all profiles owned by a user, most recently
// updated first.
func (kg *KnowledgeGraph) GetUserProfiles(ctx context.Context, userID string) ([]*models.ResearchProfile, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (p:ResearchProfile {user_id: $user_id})
		RETURN p
		ORDER BY p.updated_at DESC
	`

	result, err := sess.Run(ctx, query, map[string]any{"user_id": userID})
	if err != nil {
		return nil, errors.NewQueryFailed("get user profiles", err)
	}

	var profiles []*models.ResearchProfile
	for result.Next(ctx) {
		props, ok := nodeFromRecord(result.Record(), "p")
		if !ok {
			continue
		}
		profile, err := profileFromProps(props)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewQueryFailed("get user profiles", err)
	}
	return profiles, nil
}

// ============================================================================
// Research Context Operations
// ============================================================================

// CreateContext upserts a research context by id
func (kg *KnowledgeGraph) CreateContext(ctx context.Context, rc *models.ResearchContext) (string, error) {
	if err := requireEntity(rc, "ResearchContext"); err != nil {
		return "", err
	}
	if err := rc.Validate(); err != nil {
		return "", err
	}

	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return "", err
	}
	defer sess.Close(ctx)

	query := `
		MERGE (rc:ResearchContext {id: $context.id})
		ON CREATE SET
			rc.title = $context.title,
			rc.type = $context.type,
			rc.content = $context.content,
			rc.file_path = $context.file_path,
			rc.uploaded_by = $context.uploaded_by,
			rc.uploaded_at = $context.uploaded_at,
			rc.is_verified = $context.is_verified,
			rc.verification_notes = $context.verification_notes,
			rc.metadata = $context.metadata
		ON MATCH SET
			rc.title = $context.title,
			rc.type = $context.type,
			rc.content = $context.content,
			rc.file_path = $context.file_path,
			rc.is_verified = $context.is_verified,
			rc.verification_notes = $context.verification_notes,
			rc.metadata = $context.metadata
		RETURN rc.id as context_id
	`

	result, err := sess.Run(ctx, query, map[string]any{"context": contextParams(rc)})
	if err != nil {
		return "", errors.NewQueryFailed("create context", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return "", errors.NewQueryFailed("create context", err)
	}
	contextID := getStringFromRecord(record, "context_id")

	kg.logger.Info("Created/updated research context",
		zap.String("context_id", contextID),
		zap.String("type", string(rc.Type)),
	)
	return contextID, nil
}

// GetContext retrieves a research context by id. Returns nil without error
// when not found.
func (kg *KnowledgeGraph) GetContext(ctx context.Context, contextID string) (*models.ResearchContext, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (rc:ResearchContext {id: $id}) RETURN rc`,
		map[string]any{"id": contextID})
	if err != nil {
		return nil, errors.NewQueryFailed("get context", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, errors.NewQueryFailed("get context", err)
		}
		return nil, nil
	}

	props, ok := nodeFromRecord(result.Record(), "rc")
	if !ok {
		return nil, errors.NewQueryFailed("get context", nil)
	}
	return contextFromProps(props)
}

// GetProfileContexts returns the contexts a profile references, newest
// upload first. The profile groups contexts by id reference.
func (kg *KnowledgeGraph) GetProfileContexts(ctx context.Context, profileID string) ([]*models.ResearchContext, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (p:ResearchProfile {id: $profile_id})
		MATCH (rc:ResearchContext)
		WHERE rc.id IN p.contexts
		RETURN rc
		ORDER BY rc.uploaded_at DESC
	`

	result, err := sess.Run(ctx, query, map[string]any{"profile_id": profileID})
	if err != nil {
		return nil, errors.NewQueryFailed("get profile contexts", err)
	}

	return collectContexts(ctx, result)
}

// SearchContexts does a case-insensitive substring match over context title
// or content, with an optional type filter. Pass an empty contextType to
// search all types.
func (kg *KnowledgeGraph) SearchContexts(ctx context.Context, text string, contextType models.ContextType, limit int) ([]*models.ResearchContext, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (rc:ResearchContext)
		WHERE (toLower(rc.title) CONTAINS toLower($text)
		       OR toLower(rc.content) CONTAINS toLower($text))
		  AND ($type = '' OR rc.type = $type)
		RETURN rc
		ORDER BY rc.uploaded_at DESC
		LIMIT $limit
	`

	result, err := sess.Run(ctx, query, map[string]any{
		"text":  text,
		"type":  string(contextType),
		"limit": limit,
	})
	if err != nil {
		return nil, errors.NewQueryFailed("search contexts", err)
	}

	return collectContexts(ctx, result)
}

func collectContexts(ctx context.Context, result neo4j.ResultWithContext) ([]*models.ResearchContext, error) {
	var contexts []*models.ResearchContext
	for result.Next(ctx) {
		props, ok := nodeFromRecord(result.Record(), "rc")
		if !ok {
			continue
		}
		rc, err := contextFromProps(props)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, rc)
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewQueryFailed("collect contexts", err)
	}
	return contexts, nil
}

// ============================================================================
// Research Session Operations
// ============================================================================

// CreateSession upserts a research session by id and links it to its
// owning profile.
func (kg *KnowledgeGraph) CreateSession(ctx context.Context, rs *models.ResearchSession) (string, error) {
	if err := requireEntity(rs, "ResearchSession"); err != nil {
		return "", err
	}
	if err := rs.Validate(); err != nil {
		return "", err
	}

	sess, err := kg.session(ctx, neo4j.AccessModeWrite)
	if err != nil {
		return "", err
	}
	defer sess.Close(ctx)

	query := `
		MERGE (s:ResearchSession {id: $session.id})
		ON CREATE SET
			s.profile_id = $session.profile_id,
			s.user_id = $session.user_id,
			s.title = $session.title,
			s.query = $session.query,
			s.relevant_contexts = $session.relevant_contexts,
			s.findings = $session.findings,
			s.confidence = $session.confidence,
			s.status = $session.status,
			s.created_at = $session.created_at,
			s.completed_at = $session.completed_at
		ON MATCH SET
			s.title = $session.title,
			s.query = $session.query,
			s.relevant_contexts = $session.relevant_contexts,
			s.findings = $session.findings,
			s.confidence = $session.confidence,
			s.status = $session.status,
			s.completed_at = $session.completed_at
		RETURN s.id as session_id
	`

	result, err := sess.Run(ctx, query, map[string]any{"session": sessionParams(rs)})
	if err != nil {
		return "", errors.NewQueryFailed("create session", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return "", errors.NewQueryFailed("create session", err)
	}
	sessionID := getStringFromRecord(record, "session_id")

	relQuery := `
		MATCH (p:ResearchProfile {id: $profile_id})
		MATCH (s:ResearchSession {id: $session_id})
		MERGE (p)-[:HAS_SESSION]->(s)
	`
	if _, err := sess.Run(ctx, relQuery, map[string]any{
		"profile_id": rs.ProfileID,
		"session_id": sessionID,
	}); err != nil {
		return "", errors.NewQueryFailed("link session to profile", err)
	}

	kg.logger.Info("Created/updated research session",
		zap.String("session_id", sessionID),
		zap.String("profile_id", rs.ProfileID),
	)
	return sessionID, nil
}

// GetSession retrieves a research session by id. Returns nil without error
// when not found.
func (kg *KnowledgeGraph) GetSession(ctx context.Context, sessionID string) (*models.ResearchSession, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	result, err := sess.Run(ctx,
		`MATCH (s:ResearchSession {id: $id}) RETURN s`,
		map[string]any{"id": sessionID})
	if err != nil {
		return nil, errors.NewQueryFailed("get session", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, errors.NewQueryFailed("get session", err)
		}
		return nil, nil
	}

	props, ok := nodeFromRecord(result.Record(), "s")
	if !ok {
		return nil, errors.NewQueryFailed("get session", nil)
	}
	return sessionFromProps(props)
}

// GetProfileSessions returns a profile's sessions, newest first
func (kg *KnowledgeGraph) GetProfileSessions(ctx context.Context, profileID string) ([]*models.ResearchSession, error) {
	sess, err := kg.session(ctx, neo4j.AccessModeRead)
	if err != nil {
		return nil, err
	}
	defer sess.Close(ctx)

	query := `
		MATCH (:ResearchProfile {id: $profile_id})-[:HAS_SESSION]->(s:ResearchSession)
		RETURN s
		ORDER BY s.created_at DESC
	`

	result, err := sess.Run(ctx, query, map[string]any{"profile_id": profileID})
	if err != nil {
		return nil, errors.NewQueryFailed("get profile sessions", err)
	}

	var sessions []*models.ResearchSession
	for result.Next(ctx) {
		props, ok := nodeFromRecord(result.Record(), "s")
		if !ok {
			continue
		}
		rs, err := sessionFromProps(props)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rs)
	}
	if err := result.Err(); err != nil {
		return nil, errors.NewQueryFailed("get profile sessions", err)
	}
	return sessions, nil
}
