package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"truthgraph/backend/internal/graph"
	"truthgraph/backend/internal/ingest"
	"truthgraph/backend/internal/review"
	"truthgraph/backend/pkg/config"
)

// testRouter builds the real router over an unconnected graph so handlers
// can be exercised without Neo4j.
func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	kg := graph.New(&config.Config{Neo4jURI: "bolt://localhost:7687"})
	reviewer := review.NewService("", "", "test-model")
	return setupRouter(zap.NewNop(), kg, reviewer, ingest.NewWebFetcher())
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	w := doJSON(testRouter(), "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, false, response["connected"])
}

func TestCreateClaim_InvalidRequest(t *testing.T) {
	router := testRouter()

	// missing required fields
	w := doJSON(router, "POST", "/api/claims", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// confidence out of range
	w = doJSON(router, "POST", "/api/claims",
		`{"statement":"F=ma","type":"law","domain":"physics.classical_mechanics","confidence":1.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// axiom below full confidence
	w = doJSON(router, "POST", "/api/claims",
		`{"statement":"identity","type":"axiom","domain":"physics.mathematical_physics","confidence":0.9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown claim type
	w = doJSON(router, "POST", "/api/claims",
		`{"statement":"x","type":"hunch","domain":"physics.optics","confidence":0.5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateClaim_DatabaseUnavailable(t *testing.T) {
	w := doJSON(testRouter(), "POST", "/api/claims",
		`{"statement":"F=ma","type":"law","domain":"physics.classical_mechanics","confidence":0.99}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetEdge_NotImplemented(t *testing.T) {
	w := doJSON(testRouter(), "GET", "/api/edges/any-id", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestCreateGap_InvalidImportance(t *testing.T) {
	w := doJSON(testRouter(), "POST", "/api/gaps",
		`{"question":"What is dark matter?","importance":2.0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewEndpoint_Simulated(t *testing.T) {
	w := doJSON(testRouter(), "POST", "/api/review",
		`{"article_title":"Special Relativity","article_content":"Time dilation follows from the constancy of the speed of light."}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var result review.Result
	json.Unmarshal(w.Body.Bytes(), &result)
	assert.Greater(t, result.OverallScore, 0.0)
	assert.NotEmpty(t, result.ConfidenceLevel)
}

func TestReviewEndpoint_MissingFields(t *testing.T) {
	w := doJSON(testRouter(), "POST", "/api/review", `{"article_title":"only a title"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifySourcesEndpoint(t *testing.T) {
	w := doJSON(testRouter(), "POST", "/api/review/sources",
		`{"sources":[{"title":"Principia","verification_status":"verified"},{"title":"blog"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var report review.VerificationReport
	json.Unmarshal(w.Body.Bytes(), &report)
	assert.Equal(t, 2, report.TotalSources)
	assert.Equal(t, 1, report.VerifiedSources)
}

func TestCORSPreflight(t *testing.T) {
	w := doJSON(testRouter(), "OPTIONS", "/api/claims", "")
	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
