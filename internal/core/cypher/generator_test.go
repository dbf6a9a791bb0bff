package cypher

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/infragraph/infragraph/internal/llm"
)

type mockLLM struct {
	response string
	err      error
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	return m.response, m.err
}

func TestFallbackCountQuery(t *testing.T) {
	g := NewGenerator(nil, zap.NewNop())

	q := g.Generate(context.Background(), "count databases")

	assert.Contains(t, strings.ToLower(q.Query), "count")
	assert.Contains(t, q.Query, ":Database")
	assert.InDelta(t, 0.9, q.Confidence, 0.01)
}

func TestFallbackFindAll(t *testing.T) {
	g := NewGenerator(nil, zap.NewNop())

	q := g.Generate(context.Background(), "show all servers")

	assert.Contains(t, q.Query, ":Server")
	assert.Contains(t, q.Query, "RETURN")
	assert.InDelta(t, 0.9, q.Confidence, 0.01)
}

func TestFallbackConnectedTo(t *testing.T) {
	g := NewGenerator(nil, zap.NewNop())

	q := g.Generate(context.Background(), "what is connected to web01?")

	assert.Contains(t, q.Query, "RELATES_TO")
	assert.Equal(t, "web01", q.Parameters["name"])
	assert.InDelta(t, 0.8, q.Confidence, 0.01)
}

func TestFallbackDependenciesOf(t *testing.T) {
	g := NewGenerator(nil, zap.NewNop())

	q := g.Generate(context.Background(), "dependencies of billing-app")

	assert.Contains(t, q.Query, "depends_on")
	assert.Equal(t, "billing-app", q.Parameters["name"])
	assert.InDelta(t, 0.85, q.Confidence, 0.01)
}

func TestFallbackDependedOnBy(t *testing.T) {
	g := NewGenerator(nil, zap.NewNop())

	q := g.Generate(context.Background(), "what depends on db01")

	assert.Contains(t, q.Query, "depends_on")
	assert.Equal(t, "db01", q.Parameters["name"])
}

func TestFallbackDefaultScan(t *testing.T) {
	g := NewGenerator(nil, zap.NewNop())

	q := g.Generate(context.Background(), "tell me something interesting")

	assert.Equal(t, "MATCH (n) RETURN n LIMIT 25", q.Query)
	assert.InDelta(t, 0.3, q.Confidence, 0.01)
}

func TestOracleQueryAccepted(t *testing.T) {
	mock := &mockLLM{response: `{"query": "MATCH (n:Server) WHERE n.type = 'server' RETURN n", "explanation": "All servers"}`}
	g := NewGenerator(mock, zap.NewNop())

	q := g.Generate(context.Background(), "which servers exist?")

	assert.Equal(t, "MATCH (n:Server) WHERE n.type = 'server' RETURN n", q.Query)
	assert.Equal(t, "All servers", q.Explanation)
	assert.InDelta(t, oracleConfidence, q.Confidence, 0.01)
}

func TestOracleInvalidQueryFallsBack(t *testing.T) {
	// Unbalanced parentheses fail validation and trigger the pattern path.
	mock := &mockLLM{response: `{"query": "MATCH (n:Database RETURN n", "explanation": "broken"}`}
	g := NewGenerator(mock, zap.NewNop())

	q := g.Generate(context.Background(), "count databases")

	assert.Contains(t, q.Query, ":Database")
	assert.InDelta(t, 0.9, q.Confidence, 0.01)
}

func TestOracleErrorFallsBack(t *testing.T) {
	mock := &mockLLM{err: fmt.Errorf("model offline")}
	g := NewGenerator(mock, zap.NewNop())

	q := g.Generate(context.Background(), "count databases")

	assert.Contains(t, strings.ToLower(q.Query), "count")
	assert.InDelta(t, 0.9, q.Confidence, 0.01)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"valid read", "MATCH (n:Server) RETURN n", false},
		{"valid write", "MERGE (n:Server {name: 'x'}) SET n.seen = true", false},
		{"empty", "", true},
		{"no keyword", "hello world", true},
		{"read without return", "MATCH (n:Server)", true},
		{"unbalanced parens", "MATCH (n:Server RETURN n", true},
		{"unbalanced braces", "MATCH (n:Server {name: 'x') RETURN n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "Database", NormalizeLabel("databases"))
	assert.Equal(t, "Database", NormalizeLabel("db"))
	assert.Equal(t, "Server", NormalizeLabel("Servers"))
	assert.Equal(t, "Application", NormalizeLabel("apps"))
	assert.Equal(t, "Firewall", NormalizeLabel("firewalls"))
	assert.Equal(t, "Entity", NormalizeLabel(""))
}
