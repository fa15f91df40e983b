package graph

import (
	"time"

	"truthgraph/backend/internal/models"
	"truthgraph/backend/pkg/errors"
)

// ============================================================================
// Entity <-> Flat Record Mapping
//
// Every entity crosses the storage boundary as a flat map of primitive-typed
// properties: enums as their string codes, timestamps as RFC3339 text,
// metadata bags as JSON strings. Unknown enum codes are rejected on read.
// ============================================================================

func claimParams(c *models.Claim) map[string]any {
	return map[string]any{
		"id":              c.ID,
		"statement":       c.Statement,
		"type":            string(c.Type),
		"domain":          c.Domain,
		"confidence":      c.Confidence,
		"created_at":      c.CreatedAt.UTC().Format(time.RFC3339),
		"math_expression": c.MathExpression,
		"metadata":        encodeMetadata(c.Metadata),
	}
}

func sourceParams(s models.Source) map[string]any {
	return map[string]any{
		"type":         s.Type,
		"reference":    s.Reference,
		"credibility":  s.Credibility,
		"last_checked": s.LastChecked.UTC().Format(time.RFC3339),
	}
}

func claimFromProps(props map[string]any, rawSources []any) (*models.Claim, error) {
	claimType, err := models.ParseClaimType(getStringFromMap(props, "type", ""))
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, 0, len(rawSources))
	for _, raw := range rawSources {
		sm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		// collect() emits a null-filled map when the claim has no sources
		if getStringFromMap(sm, "reference", "") == "" {
			continue
		}
		sources = append(sources, models.Source{
			Type:        getStringFromMap(sm, "type", ""),
			Reference:   getStringFromMap(sm, "reference", ""),
			Credibility: getFloat64FromMap(sm, "credibility", 0),
			LastChecked: getTimeFromMap(sm, "last_checked", time.Time{}),
		})
	}

	return &models.Claim{
		ID:             getStringFromMap(props, "id", ""),
		Statement:      getStringFromMap(props, "statement", ""),
		Type:           claimType,
		Domain:         getStringFromMap(props, "domain", ""),
		Confidence:     getFloat64FromMap(props, "confidence", 0),
		Sources:        sources,
		MathExpression: getStringFromMap(props, "math_expression", ""),
		CreatedAt:      getTimeFromMap(props, "created_at", time.Time{}),
		Metadata:       decodeMetadata(props, "metadata"),
	}, nil
}

func edgeParams(e *models.Edge) map[string]any {
	return map[string]any{
		"id":             e.ID,
		"from_claim_id":  e.FromClaimID,
		"to_claim_id":    e.ToClaimID,
		"reasoning_type": string(e.ReasoningType),
		"explanation":    e.Explanation,
		"strength":       e.Strength,
		"created_at":     e.CreatedAt.UTC().Format(time.RFC3339),
		"metadata":       encodeMetadata(e.Metadata),
	}
}

func gapParams(g *models.Gap) map[string]any {
	return map[string]any{
		"id":                g.ID,
		"question":          g.Question,
		"blocked_claim_ids": g.BlockedClaimIDs,
		"current_research":  g.CurrentResearch,
		"importance":        g.Importance,
		"created_at":        g.CreatedAt.UTC().Format(time.RFC3339),
		"metadata":          encodeMetadata(g.Metadata),
	}
}

func gapFromProps(props map[string]any) *models.Gap {
	return &models.Gap{
		ID:              getStringFromMap(props, "id", ""),
		Question:        getStringFromMap(props, "question", ""),
		BlockedClaimIDs: getStringSliceFromMap(props, "blocked_claim_ids"),
		CurrentResearch: getStringSliceFromMap(props, "current_research"),
		Importance:      getFloat64FromMap(props, "importance", 0),
		CreatedAt:       getTimeFromMap(props, "created_at", time.Time{}),
		Metadata:        decodeMetadata(props, "metadata"),
	}
}

func profileParams(p *models.ResearchProfile) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"user_id":     p.UserID,
		"name":        p.Name,
		"description": p.Description,
		"domains":     p.Domains,
		"contexts":    p.ContextIDs,
		"status":      string(p.Status),
		"created_at":  p.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":  p.UpdatedAt.UTC().Format(time.RFC3339),
		"metadata":    encodeMetadata(p.Metadata),
	}
}

func profileFromProps(props map[string]any) (*models.ResearchProfile, error) {
	status, err := models.ParseResearchStatus(getStringFromMap(props, "status", ""))
	if err != nil {
		return nil, err
	}
	return &models.ResearchProfile{
		ID:          getStringFromMap(props, "id", ""),
		UserID:      getStringFromMap(props, "user_id", ""),
		Name:        getStringFromMap(props, "name", ""),
		Description: getStringFromMap(props, "description", ""),
		Domains:     getStringSliceFromMap(props, "domains"),
		ContextIDs:  getStringSliceFromMap(props, "contexts"),
		Status:      status,
		CreatedAt:   getTimeFromMap(props, "created_at", time.Time{}),
		UpdatedAt:   getTimeFromMap(props, "updated_at", time.Time{}),
		Metadata:    decodeMetadata(props, "metadata"),
	}, nil
}

func contextParams(rc *models.ResearchContext) map[string]any {
	return map[string]any{
		"id":                 rc.ID,
		"title":              rc.Title,
		"type":               string(rc.Type),
		"content":            rc.Content,
		"file_path":          rc.FilePath,
		"uploaded_by":        rc.UploadedBy,
		"uploaded_at":        rc.UploadedAt.UTC().Format(time.RFC3339),
		"is_verified":        rc.IsVerified,
		"verification_notes": rc.VerificationNotes,
		"metadata":           encodeMetadata(rc.Metadata),
	}
}

func contextFromProps(props map[string]any) (*models.ResearchContext, error) {
	contextType, err := models.ParseContextType(getStringFromMap(props, "type", ""))
	if err != nil {
		return nil, err
	}
	return &models.ResearchContext{
		ID:                getStringFromMap(props, "id", ""),
		Title:             getStringFromMap(props, "title", ""),
		Type:              contextType,
		Content:           getStringFromMap(props, "content", ""),
		FilePath:          getStringFromMap(props, "file_path", ""),
		UploadedBy:        getStringFromMap(props, "uploaded_by", ""),
		UploadedAt:        getTimeFromMap(props, "uploaded_at", time.Time{}),
		IsVerified:        getBoolFromMap(props, "is_verified", false),
		VerificationNotes: getStringFromMap(props, "verification_notes", ""),
		Metadata:          decodeMetadata(props, "metadata"),
	}, nil
}

func sessionParams(s *models.ResearchSession) map[string]any {
	params := map[string]any{
		"id":                s.ID,
		"profile_id":        s.ProfileID,
		"user_id":           s.UserID,
		"title":             s.Title,
		"query":             s.Query,
		"relevant_contexts": s.RelevantContexts,
		"findings":          s.Findings,
		"confidence":        s.Confidence,
		"status":            string(s.Status),
		"created_at":        s.CreatedAt.UTC().Format(time.RFC3339),
		"completed_at":      "",
	}
	if s.CompletedAt != nil {
		params["completed_at"] = s.CompletedAt.UTC().Format(time.RFC3339)
	}
	return params
}

func sessionFromProps(props map[string]any) (*models.ResearchSession, error) {
	status, err := models.ParseResearchStatus(getStringFromMap(props, "status", ""))
	if err != nil {
		return nil, err
	}
	s := &models.ResearchSession{
		ID:               getStringFromMap(props, "id", ""),
		ProfileID:        getStringFromMap(props, "profile_id", ""),
		UserID:           getStringFromMap(props, "user_id", ""),
		Title:            getStringFromMap(props, "title", ""),
		Query:            getStringFromMap(props, "query", ""),
		RelevantContexts: getStringSliceFromMap(props, "relevant_contexts"),
		Findings:         getStringFromMap(props, "findings", ""),
		Confidence:       getFloat64FromMap(props, "confidence", 0),
		Status:           status,
		CreatedAt:        getTimeFromMap(props, "created_at", time.Time{}),
	}
	if raw := getStringFromMap(props, "completed_at", ""); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			s.CompletedAt = &t
		}
	}
	return s, nil
}

// requireEntity guards repository create operations against nil entities
func requireEntity[E any](e *E, name string) error {
	if e == nil {
		return errors.NewInvalidEntity(name)
	}
	return nil
}
