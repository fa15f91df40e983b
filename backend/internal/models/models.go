package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"truthgraph/backend/pkg/errors"
)

// ClaimType categorizes claims in the knowledge graph
type ClaimType string

const (
	ClaimTypeAxiom     ClaimType = "axiom"     // Fundamental truth (e.g., F=ma)
	ClaimTypeLaw       ClaimType = "law"       // Well-established physical law
	ClaimTypeDerived   ClaimType = "derived"   // Logically derived from other claims
	ClaimTypeEmpirical ClaimType = "empirical" // Based on experimental data
	ClaimTypeGap       ClaimType = "gap"       // Known unknown
)

// ParseClaimType converts a stored code back to a ClaimType, rejecting unknown codes
func ParseClaimType(code string) (ClaimType, error) {
	switch ClaimType(code) {
	case ClaimTypeAxiom, ClaimTypeLaw, ClaimTypeDerived, ClaimTypeEmpirical, ClaimTypeGap:
		return ClaimType(code), nil
	}
	return "", errors.NewValidation("claim type", fmt.Sprintf("unknown code: %q", code))
}

// ReasoningType categorizes the reasoning connecting two claims
type ReasoningType string

const (
	ReasoningMathematicalDerivation ReasoningType = "mathematical_derivation" // Proven via math
	ReasoningExperimentalSupport    ReasoningType = "experimental_support"    // Supported by data
	ReasoningLogicalInference       ReasoningType = "logical_inference"       // Follows logically
	ReasoningDefinition             ReasoningType = "definition"              // By definition
	ReasoningContradiction          ReasoningType = "contradiction"           // Conflicts with
)

// ParseReasoningType converts a stored code back to a ReasoningType, rejecting unknown codes
func ParseReasoningType(code string) (ReasoningType, error) {
	switch ReasoningType(code) {
	case ReasoningMathematicalDerivation, ReasoningExperimentalSupport,
		ReasoningLogicalInference, ReasoningDefinition, ReasoningContradiction:
		return ReasoningType(code), nil
	}
	return "", errors.NewValidation("reasoning type", fmt.Sprintf("unknown code: %q", code))
}

// SupportingReasoningTypes are the edge types that count as support for a claim
var SupportingReasoningTypes = []ReasoningType{
	ReasoningMathematicalDerivation,
	ReasoningExperimentalSupport,
	ReasoningLogicalInference,
}

// Source is a reference supporting a claim
type Source struct {
	Type        string    `json:"type"`       // textbook, paper, experiment, database
	Reference   string    `json:"reference"`  // Citation or identifier
	Credibility float64   `json:"credibility"`
	LastChecked time.Time `json:"last_checked"`
}

// NewSource creates a validated Source
func NewSource(sourceType, reference string, credibility float64, lastChecked time.Time) (Source, error) {
	s := Source{
		Type:        sourceType,
		Reference:   reference,
		Credibility: credibility,
		LastChecked: lastChecked,
	}
	if err := s.Validate(); err != nil {
		return Source{}, err
	}
	return s, nil
}

// Validate checks source invariants
func (s Source) Validate() error {
	if !inUnitInterval(s.Credibility) {
		return errors.NewValidation("credibility", fmt.Sprintf("must be 0-1, got %v", s.Credibility))
	}
	return nil
}

// Claim is a statement in the knowledge graph
type Claim struct {
	ID             string         `json:"id"`
	Statement      string         `json:"statement"`
	Type           ClaimType      `json:"type"`
	Domain         string         `json:"domain"` // e.g. "physics.classical_mechanics"
	Confidence     float64        `json:"confidence"`
	Sources        []Source       `json:"sources"`
	MathExpression string         `json:"math_expression,omitempty"` // LaTeX formulation
	CreatedAt      time.Time      `json:"created_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewClaim creates a validated Claim with a generated id
func NewClaim(statement string, claimType ClaimType, domain string, confidence float64, sources []Source) (*Claim, error) {
	c := &Claim{
		ID:         uuid.NewString(),
		Statement:  statement,
		Type:       claimType,
		Domain:     domain,
		Confidence: confidence,
		Sources:    sources,
		CreatedAt:  time.Now().UTC(),
		Metadata:   map[string]any{},
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks claim invariants
func (c *Claim) Validate() error {
	if strings.TrimSpace(c.Statement) == "" {
		return errors.NewValidation("statement", "cannot be empty")
	}
	if _, err := ParseClaimType(string(c.Type)); err != nil {
		return err
	}
	if !inUnitInterval(c.Confidence) {
		return errors.NewValidation("confidence", fmt.Sprintf("must be 0-1, got %v", c.Confidence))
	}
	// Axioms are foundational truths, always at full confidence
	if c.Type == ClaimTypeAxiom && c.Confidence != 1.0 {
		return errors.NewValidation("confidence", "axioms must have confidence 1.0")
	}
	for _, s := range c.Sources {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Edge is a directed reasoning relationship between two claims.
// It holds its endpoints by id only; it does not own the claims.
type Edge struct {
	ID            string         `json:"id"`
	FromClaimID   string         `json:"from_claim_id"`
	ToClaimID     string         `json:"to_claim_id"`
	ReasoningType ReasoningType  `json:"reasoning_type"`
	Explanation   string         `json:"explanation"`
	Strength      float64        `json:"strength"`
	CreatedAt     time.Time      `json:"created_at"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// NewEdge creates a validated Edge with a generated id
func NewEdge(fromClaimID, toClaimID string, reasoningType ReasoningType, explanation string, strength float64) (*Edge, error) {
	e := &Edge{
		ID:            uuid.NewString(),
		FromClaimID:   fromClaimID,
		ToClaimID:     toClaimID,
		ReasoningType: reasoningType,
		Explanation:   explanation,
		Strength:      strength,
		CreatedAt:     time.Now().UTC(),
		Metadata:      map[string]any{},
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Validate checks edge invariants
func (e *Edge) Validate() error {
	if e.FromClaimID == "" {
		return errors.NewValidation("from_claim_id", "cannot be empty")
	}
	if e.ToClaimID == "" {
		return errors.NewValidation("to_claim_id", "cannot be empty")
	}
	if _, err := ParseReasoningType(string(e.ReasoningType)); err != nil {
		return err
	}
	if !inUnitInterval(e.Strength) {
		return errors.NewValidation("strength", fmt.Sprintf("must be 0-1, got %v", e.Strength))
	}
	return nil
}

// Gap is an identified knowledge gap blocking further reasoning
type Gap struct {
	ID              string         `json:"id"`
	Question        string         `json:"question"`
	BlockedClaimIDs []string       `json:"blocked_claim_ids"`
	CurrentResearch []string       `json:"current_research"`
	Importance      float64        `json:"importance"`
	CreatedAt       time.Time      `json:"created_at"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// NewGap creates a validated Gap with a generated id
func NewGap(question string, blockedClaimIDs, currentResearch []string, importance float64) (*Gap, error) {
	g := &Gap{
		ID:              uuid.NewString(),
		Question:        question,
		BlockedClaimIDs: blockedClaimIDs,
		CurrentResearch: currentResearch,
		Importance:      importance,
		CreatedAt:       time.Now().UTC(),
		Metadata:        map[string]any{},
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks gap invariants
func (g *Gap) Validate() error {
	if strings.TrimSpace(g.Question) == "" {
		return errors.NewValidation("question", "cannot be empty")
	}
	if !inUnitInterval(g.Importance) {
		return errors.NewValidation("importance", fmt.Sprintf("must be 0-1, got %v", g.Importance))
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
