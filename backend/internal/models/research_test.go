package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResearchContext_Validation(t *testing.T) {
	rc, err := NewResearchContext("Entanglement survey", ContextResearchPaper, "Bell inequalities...", "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, rc.ID)
	assert.False(t, rc.IsVerified)

	_, err = NewResearchContext("Entanglement survey", ContextResearchPaper, "   ", "user-1")
	assert.Error(t, err, "empty content must be rejected")

	_, err = NewResearchContext("", ContextResearchPaper, "content", "user-1")
	assert.Error(t, err, "empty title must be rejected")

	_, err = NewResearchContext("title", ContextType("mixtape"), "content", "user-1")
	assert.Error(t, err, "unknown context type must be rejected")
}

func TestNewResearchProfile_Validation(t *testing.T) {
	p, err := NewResearchProfile("user-1", "Quantum Research", "Exploring entanglement", []string{"physics.quantum_mechanics"})
	require.NoError(t, err)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	_, err = NewResearchProfile("user-1", "  ", "desc", nil)
	assert.Error(t, err)
	_, err = NewResearchProfile("user-1", "name", "", nil)
	assert.Error(t, err)
}

func TestNewResearchSession_Validation(t *testing.T) {
	s, err := NewResearchSession("p1", "u1", "Entanglement dig", "What carries the correlation?")
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Confidence)
	assert.Nil(t, s.CompletedAt)

	_, err = NewResearchSession("p1", "u1", "", "query")
	assert.Error(t, err)
	_, err = NewResearchSession("p1", "u1", "title", "")
	assert.Error(t, err)
}

func TestResearchSession_ConfidenceBounds(t *testing.T) {
	s, err := NewResearchSession("p1", "u1", "title", "query")
	require.NoError(t, err)

	s.Confidence = 1.0
	assert.NoError(t, s.Validate())
	s.Confidence = 1.01
	assert.Error(t, s.Validate())
}

func TestParseResearchStatus(t *testing.T) {
	for _, code := range []string{"active", "paused", "completed", "abandoned"} {
		parsed, err := ParseResearchStatus(code)
		require.NoError(t, err)
		assert.Equal(t, code, string(parsed))
	}
	_, err := ParseResearchStatus("done")
	assert.Error(t, err)
}

func TestParseContextType(t *testing.T) {
	parsed, err := ParseContextType("web_resource")
	require.NoError(t, err)
	assert.Equal(t, ContextWebResource, parsed)

	_, err = ParseContextType("")
	assert.Error(t, err)
}
