// Package cypher translates natural-language questions about the
// infrastructure graph into Cypher queries. An oracle-backed path is tried
// first when a model client is available; a fixed cascade of pattern
// templates serves as the fallback, so query generation never fails outright.
package cypher

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/infragraph/infragraph/internal/core/common"
	"github.com/infragraph/infragraph/internal/core/model"
	"github.com/infragraph/infragraph/internal/llm"
)

const generationPrompt = `You translate questions about IT infrastructure into Cypher queries.
The graph contains :Server, :Database, :Application, :Network, :Storage, :Service
nodes with "name", "type" and "description" properties, connected by
[:RELATES_TO {type: string}] relationships.

Return a JSON object with exactly two keys:
  "query"       : a single Cypher statement
  "explanation" : one sentence describing what the query returns

Question: %s`

// oracleConfidence is assigned to validated model-generated queries.
const oracleConfidence = 0.8

type oracleQuery struct {
	Query       string `json:"query"`
	Explanation string `json:"explanation"`
}

// pattern maps a question shape to a canned query template with a fixed
// confidence. Templates receive the normalized label and/or captured names.
type pattern struct {
	re         *regexp.Regexp
	confidence float64
	build      func(m []string) (query string, params map[string]interface{}, explanation string)
}

var patterns = []pattern{
	{
		re:         regexp.MustCompile(`(?i)(?:find|show|list|get)\s+(?:all|every)\s+([a-z]+)`),
		confidence: 0.9,
		build: func(m []string) (string, map[string]interface{}, string) {
			label := NormalizeLabel(m[1])
			return fmt.Sprintf("MATCH (n:%s) RETURN n LIMIT 100", label),
				map[string]interface{}{},
				fmt.Sprintf("Lists all %s nodes", label)
		},
	},
	{
		re:         regexp.MustCompile(`(?i)(?:connected|related)\s+to\s+['"]?([\w.-]+)`),
		confidence: 0.8,
		build: func(m []string) (string, map[string]interface{}, string) {
			return "MATCH (a {name: $name})-[r:RELATES_TO]-(b) RETURN b, r LIMIT 100",
				map[string]interface{}{"name": strings.ToLower(m[1])},
				fmt.Sprintf("Finds nodes connected to %s", m[1])
		},
	},
	{
		re:         regexp.MustCompile(`(?i)([a-z]+)\s+with\s+([a-z_]+)\s*(?:=|is|of)\s*['"]?([\w.-]+)`),
		confidence: 0.7,
		build: func(m []string) (string, map[string]interface{}, string) {
			label := NormalizeLabel(m[1])
			prop := strings.ToLower(m[2])
			return fmt.Sprintf("MATCH (n:%s) WHERE n.%s = $value RETURN n LIMIT 100", label, prop),
				map[string]interface{}{"value": m[3]},
				fmt.Sprintf("Finds %s nodes with %s = %s", label, prop, m[3])
		},
	},
	{
		re:         regexp.MustCompile(`(?i)dependenc\w*\s+of\s+['"]?([\w.-]+)`),
		confidence: 0.85,
		build: func(m []string) (string, map[string]interface{}, string) {
			return "MATCH (a {name: $name})-[r:RELATES_TO {type: 'depends_on'}]->(b) RETURN b LIMIT 100",
				map[string]interface{}{"name": strings.ToLower(m[1])},
				fmt.Sprintf("Finds what %s depends on", m[1])
		},
	},
	{
		re:         regexp.MustCompile(`(?i)(?:what\s+)?depends\s+on\s+['"]?([\w.-]+)`),
		confidence: 0.85,
		build: func(m []string) (string, map[string]interface{}, string) {
			return "MATCH (a)-[r:RELATES_TO {type: 'depends_on'}]->(b {name: $name}) RETURN a LIMIT 100",
				map[string]interface{}{"name": strings.ToLower(m[1])},
				fmt.Sprintf("Finds what depends on %s", m[1])
		},
	},
	{
		re:         regexp.MustCompile(`(?i)(?:count|how many)\s+([a-z]+)`),
		confidence: 0.9,
		build: func(m []string) (string, map[string]interface{}, string) {
			label := NormalizeLabel(m[1])
			return fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", label),
				map[string]interface{}{},
				fmt.Sprintf("Counts %s nodes", label)
		},
	},
}

// labelAliases maps entity-type words to canonical graph labels.
var labelAliases = map[string]string{
	"server":       "Server",
	"host":         "Server",
	"machine":      "Server",
	"database":     "Database",
	"db":           "Database",
	"application":  "Application",
	"app":          "Application",
	"network":      "Network",
	"storage":      "Storage",
	"service":      "Service",
	"middleware":   "Middleware",
	"loadbalancer": "LoadBalancer",
}

// NormalizeLabel maps an entity-type word (possibly plural) to its canonical
// graph label. Unknown words are capitalized as-is.
func NormalizeLabel(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if label, ok := labelAliases[w]; ok {
		return label
	}
	if singular := strings.TrimSuffix(w, "s"); singular != w {
		if label, ok := labelAliases[singular]; ok {
			return label
		}
		w = singular
	}
	if w == "" {
		return "Entity"
	}
	return strings.ToUpper(w[:1]) + w[1:]
}

// Generator produces CypherQuery values from natural language. The model
// client is optional; without it only the pattern fallback runs.
type Generator struct {
	llm    llm.LLMClient
	logger *zap.Logger
}

func NewGenerator(client llm.LLMClient, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{llm: client, logger: logger}
}

// Generate translates the question into a query. Oracle failures and invalid
// generated queries degrade to the pattern fallback, never to an error.
func (g *Generator) Generate(ctx context.Context, question string) model.CypherQuery {
	if g.llm != nil {
		if q, ok := g.fromOracle(ctx, question); ok {
			return q
		}
	}
	return g.fromPatterns(question)
}

func (g *Generator) fromOracle(ctx context.Context, question string) (model.CypherQuery, bool) {
	response, err := g.llm.Generate(ctx, fmt.Sprintf(generationPrompt, question), llm.GenerateOptions{
		Temperature: 0.0,
		MaxTokens:   500,
	})
	if err != nil {
		g.logger.Warn("cypher generation call failed, using pattern fallback", zap.Error(err))
		return model.CypherQuery{}, false
	}

	decoded, err := common.DecodeJSON[oracleQuery](response)
	if err != nil {
		g.logger.Warn("cypher generation response unparseable, using pattern fallback", zap.Error(err))
		return model.CypherQuery{}, false
	}

	query := strings.TrimSpace(decoded.Query)
	if err := Validate(query); err != nil {
		g.logger.Warn("generated query failed validation, using pattern fallback",
			zap.String("query", query), zap.Error(err))
		return model.CypherQuery{}, false
	}

	return model.CypherQuery{
		Query:       query,
		Parameters:  map[string]interface{}{},
		Confidence:  oracleConfidence,
		Explanation: decoded.Explanation,
	}, true
}

func (g *Generator) fromPatterns(question string) model.CypherQuery {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(question); m != nil {
			query, params, explanation := p.build(m)
			return model.CypherQuery{
				Query:       query,
				Parameters:  params,
				Confidence:  p.confidence,
				Explanation: explanation,
			}
		}
	}

	// Unfiltered bounded scan when nothing matches.
	return model.CypherQuery{
		Query:       "MATCH (n) RETURN n LIMIT 25",
		Parameters:  map[string]interface{}{},
		Confidence:  0.3,
		Explanation: "No pattern matched; returning a bounded scan of the graph",
	}
}

var cypherKeywords = []string{"MATCH", "CREATE", "MERGE", "RETURN", "DELETE", "SET", "WITH", "CALL"}

// Validate rejects queries that are structurally unusable before they reach
// the graph store: no recognizable Cypher keyword, a read query without a
// result-producing clause, or unbalanced delimiters.
func Validate(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("empty query")
	}

	upper := strings.ToUpper(query)
	hasKeyword := false
	for _, kw := range cypherKeywords {
		if strings.Contains(upper, kw) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return fmt.Errorf("no cypher keyword found")
	}

	isWrite := strings.Contains(upper, "CREATE") || strings.Contains(upper, "MERGE") ||
		strings.Contains(upper, "DELETE") || strings.Contains(upper, "SET")
	if !isWrite && !strings.Contains(upper, "RETURN") {
		return fmt.Errorf("read query has no RETURN clause")
	}

	if !balanced(query) {
		return fmt.Errorf("unbalanced delimiters")
	}
	return nil
}

func balanced(s string) bool {
	var stack []rune
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[r] {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0
}
