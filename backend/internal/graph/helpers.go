package graph

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// ============================================================================
// Record Extraction Helpers
//
// The driver hands back loosely-typed values; everything is converted to the
// typed entity model at this boundary and nothing dynamic leaks past it.
// ============================================================================

func nodeFromRecord(record *neo4j.Record, key string) (map[string]any, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil, false
	}
	if node, ok := val.(dbtype.Node); ok {
		return node.Props, true
	}
	return nil, false
}

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getStringFromMap(m map[string]any, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

func getFloat64FromMap(m map[string]any, key string, defaultValue float64) float64 {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return defaultValue
}

func getBoolFromMap(m map[string]any, key string, defaultValue bool) bool {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return defaultValue
}

func getStringSliceFromMap(m map[string]any, key string) []string {
	val, ok := m[key]
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]any); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	if slice, ok := val.([]string); ok {
		return slice
	}
	return []string{}
}

// getTimeFromMap parses RFC3339 text; Neo4j datetime values also arrive as
// time.Time when written with datetime().
func getTimeFromMap(m map[string]any, key string, defaultValue time.Time) time.Time {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if t, ok := val.(time.Time); ok {
		return t
	}
	if str, ok := val.(string); ok {
		if t, err := time.Parse(time.RFC3339, str); err == nil {
			return t
		}
	}
	return defaultValue
}

// ============================================================================
// Metadata Codec
//
// Open key-value bags cannot be stored as Neo4j properties directly, so they
// travel as a JSON string property.
// ============================================================================

func encodeMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return "{}"
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeMetadata(m map[string]any, key string) map[string]any {
	raw := getStringFromMap(m, key, "")
	if raw == "" {
		return map[string]any{}
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return map[string]any{}
	}
	return metadata
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
