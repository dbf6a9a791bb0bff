package extraction

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/infragraph/infragraph/internal/core/model"
)

// ResponseParser converts free-form oracle output into an entity/relationship
// pair via a cascade of increasingly lenient strategies. Parse never fails;
// the terminal outcome for unusable output is an empty result.
type ResponseParser struct {
	logger *zap.Logger
}

func NewResponseParser(logger *zap.Logger) *ResponseParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseParser{logger: logger}
}

// parseFunc is one cascade stage: a pure function from raw text to a parsed
// graph, reporting whether it succeeded.
type parseFunc struct {
	name string
	fn   func(raw string) (*model.ExtractedGraph, bool)
}

// Parse runs the cascade and returns the first structurally valid result.
// On total failure it logs and returns empty slices.
func (p *ResponseParser) Parse(raw string, chunkID int) ([]model.Entity, []model.Relationship) {
	stages := []parseFunc{
		{"strict", parseStrict},
		{"embedded", parseEmbedded},
		{"repaired", parseRepaired},
		{"labeled", parseLabeled},
	}

	for _, stage := range stages {
		if graph, ok := stage.fn(raw); ok {
			if stage.name != "strict" {
				p.logger.Debug("response recovered by lenient parse",
					zap.Int("chunk_id", chunkID), zap.String("stage", stage.name))
			}
			return graph.Entities, graph.Relationships
		}
	}

	p.logger.Warn("all parse strategies failed, returning empty result",
		zap.Int("chunk_id", chunkID), zap.Int("response_len", len(raw)))
	return nil, nil
}

// parseStrict parses raw as the expected JSON shape and validates that both
// entities and relationships are JSON arrays, not merely present.
func parseStrict(raw string) (*model.ExtractedGraph, bool) {
	var probe struct {
		Entities      json.RawMessage `json:"entities"`
		Relationships json.RawMessage `json:"relationships"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, false
	}
	if !isJSONArray(probe.Entities) || !isJSONArray(probe.Relationships) {
		return nil, false
	}

	var graph model.ExtractedGraph
	if err := json.Unmarshal([]byte(raw), &graph); err != nil {
		return nil, false
	}
	return &graph, true
}

// parseEmbedded extracts the outermost {...} span from surrounding prose
// (and markdown code fences) and strict-parses it.
func parseEmbedded(raw string) (*model.ExtractedGraph, bool) {
	candidate, ok := extractObject(raw)
	if !ok {
		return nil, false
	}
	return parseStrict(candidate)
}

// parseRepaired applies heuristic JSON repairs to the embedded span (or the
// raw text when no span is found) and strict-parses the result. The repairs
// are lossy for content containing literal apostrophes; this stage is a
// best-effort recovery, not a guarantee, and only runs after strict and
// embedded parsing have both failed.
func parseRepaired(raw string) (*model.ExtractedGraph, bool) {
	candidate, ok := extractObject(raw)
	if !ok {
		candidate = raw
	}
	return parseStrict(repairJSON(candidate))
}

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// extractObject finds the first '{' through the last '}' in the text,
// stripping markdown code fences first.
func extractObject(raw string) (string, bool) {
	if m := codeFenceRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

func repairJSON(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "'", `"`)
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = bareKeyRe.ReplaceAllString(s, `$1"$2":`)
	return s
}

var labeledEntityRe = regexp.MustCompile(`(?im)^\s*(?:entity|system|component)\s*[:\-]\s*(.+)$`)

// parseLabeled is the last-resort stage: lines labeled Entity:/System:/
// Component: become synthetic entities. Relationships are never recovered
// here.
func parseLabeled(raw string) (*model.ExtractedGraph, bool) {
	matches := labeledEntityRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, false
	}

	graph := &model.ExtractedGraph{}
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		graph.Entities = append(graph.Entities, model.Entity{
			Name: name,
			Type: "extracted_entity",
		})
	}
	if len(graph.Entities) == 0 {
		return nil, false
	}
	return graph, true
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
