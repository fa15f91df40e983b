package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"truthgraph/backend/pkg/errors"
)

// ContextType categorizes research contexts
type ContextType string

const (
	ContextResearchPaper    ContextType = "research_paper"
	ContextBookExcerpt      ContextType = "book_excerpt"
	ContextExperimentalData ContextType = "experimental_data"
	ContextFieldNotes       ContextType = "field_notes"
	ContextPersonalInsight  ContextType = "personal_insight"
	ContextWebResource      ContextType = "web_resource"
	ContextDatabaseRecord   ContextType = "database_record"
)

// ParseContextType converts a stored code back to a ContextType, rejecting unknown codes
func ParseContextType(code string) (ContextType, error) {
	switch ContextType(code) {
	case ContextResearchPaper, ContextBookExcerpt, ContextExperimentalData,
		ContextFieldNotes, ContextPersonalInsight, ContextWebResource, ContextDatabaseRecord:
		return ContextType(code), nil
	}
	return "", errors.NewValidation("context type", fmt.Sprintf("unknown code: %q", code))
}

// ResearchStatus tracks the state of research activities
type ResearchStatus string

const (
	StatusActive    ResearchStatus = "active"
	StatusPaused    ResearchStatus = "paused"
	StatusCompleted ResearchStatus = "completed"
	StatusAbandoned ResearchStatus = "abandoned"
)

// ParseResearchStatus converts a stored code back to a ResearchStatus, rejecting unknown codes
func ParseResearchStatus(code string) (ResearchStatus, error) {
	switch ResearchStatus(code) {
	case StatusActive, StatusPaused, StatusCompleted, StatusAbandoned:
		return ResearchStatus(code), nil
	}
	return "", errors.NewValidation("research status", fmt.Sprintf("unknown code: %q", code))
}

// ResearchContext is material uploaded by a user for truth-seeking
type ResearchContext struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Type              ContextType    `json:"type"`
	Content           string         `json:"content"`
	FilePath          string         `json:"file_path,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	UploadedBy        string         `json:"uploaded_by"`
	UploadedAt        time.Time      `json:"uploaded_at"`
	IsVerified        bool           `json:"is_verified"`
	VerificationNotes string         `json:"verification_notes,omitempty"`
}

// NewResearchContext creates a validated ResearchContext with a generated id
func NewResearchContext(title string, contextType ContextType, content, uploadedBy string) (*ResearchContext, error) {
	rc := &ResearchContext{
		ID:         uuid.NewString(),
		Title:      title,
		Type:       contextType,
		Content:    content,
		UploadedBy: uploadedBy,
		UploadedAt: time.Now().UTC(),
		Metadata:   map[string]any{},
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return rc, nil
}

// Validate checks context invariants
func (rc *ResearchContext) Validate() error {
	if strings.TrimSpace(rc.Title) == "" {
		return errors.NewValidation("title", "cannot be empty")
	}
	if _, err := ParseContextType(string(rc.Type)); err != nil {
		return err
	}
	if strings.TrimSpace(rc.Content) == "" {
		return errors.NewValidation("content", "cannot be empty")
	}
	return nil
}

// ResearchProfile groups a user's research contexts and sessions
type ResearchProfile struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"` // e.g. "Quantum Physics Research"
	Description string         `json:"description"`
	Domains     []string       `json:"domains"`
	ContextIDs  []string       `json:"contexts"`
	Status      ResearchStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewResearchProfile creates a validated ResearchProfile with a generated id
func NewResearchProfile(userID, name, description string, domains []string) (*ResearchProfile, error) {
	now := time.Now().UTC()
	p := &ResearchProfile{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Domains:     domains,
		ContextIDs:  []string{},
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata:    map[string]any{},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks profile invariants
func (p *ResearchProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.NewValidation("name", "cannot be empty")
	}
	if strings.TrimSpace(p.Description) == "" {
		return errors.NewValidation("description", "cannot be empty")
	}
	if _, err := ParseResearchStatus(string(p.Status)); err != nil {
		return err
	}
	return nil
}

// ResearchSession records one truth-seeking exploration against a profile
type ResearchSession struct {
	ID               string         `json:"id"`
	ProfileID        string         `json:"profile_id"`
	UserID           string         `json:"user_id"`
	Title            string         `json:"title"`
	Query            string         `json:"query"`
	RelevantContexts []string       `json:"relevant_contexts"`
	Findings         string         `json:"findings"`
	Confidence       float64        `json:"confidence"`
	Status           ResearchStatus `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
}

// NewResearchSession creates a validated ResearchSession with a generated id
func NewResearchSession(profileID, userID, title, query string) (*ResearchSession, error) {
	s := &ResearchSession{
		ID:               uuid.NewString(),
		ProfileID:        profileID,
		UserID:           userID,
		Title:            title,
		Query:            query,
		RelevantContexts: []string{},
		Status:           StatusActive,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks session invariants
func (s *ResearchSession) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.NewValidation("title", "cannot be empty")
	}
	if strings.TrimSpace(s.Query) == "" {
		return errors.NewValidation("query", "cannot be empty")
	}
	if !inUnitInterval(s.Confidence) {
		return errors.NewValidation("confidence", fmt.Sprintf("must be 0-1, got %v", s.Confidence))
	}
	if _, err := ParseResearchStatus(string(s.Status)); err != nil {
		return err
	}
	return nil
}
