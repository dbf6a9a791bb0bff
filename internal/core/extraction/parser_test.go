package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func TestParseStrictJSON(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	entities, relationships := p.Parse(`{"entities": [{"name": "DB1", "type": "database"}], "relationships": []}`, 0)

	require.Len(t, entities, 1)
	assert.Equal(t, "DB1", entities[0].Name)
	assert.Equal(t, "database", entities[0].Type)
	assert.Empty(t, relationships)
}

func TestParseEmbeddedInProse(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	raw := `Here is the extraction result:
{"entities": [{"name": "web01", "type": "server", "description": "frontend"}], "relationships": []}
Let me know if you need anything else.`

	entities, _ := p.Parse(raw, 0)
	require.Len(t, entities, 1)
	assert.Equal(t, "web01", entities[0].Name)
}

func TestParseCodeFencedJSON(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	raw := "```json\n{\"entities\": [{\"name\": \"app-lb\", \"type\": \"network\"}], \"relationships\": []}\n```"

	entities, _ := p.Parse(raw, 0)
	require.Len(t, entities, 1)
	assert.Equal(t, "app-lb", entities[0].Name)
}

func TestParseRepairsSingleQuotesAndTrailingCommas(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	raw := `Sure! Here is the JSON: {'entities': [{'name': 'Server1', 'type': 'server',}], 'relationships': []} Hope that helps!`

	entities, relationships := p.Parse(raw, 0)
	require.Len(t, entities, 1)
	assert.Equal(t, "Server1", entities[0].Name)
	assert.Equal(t, "server", entities[0].Type)
	assert.Empty(t, relationships)
}

func TestParseRepairsBareKeys(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	raw := `{entities: [{name: "core-switch", type: "network"}], relationships: []}`

	entities, _ := p.Parse(raw, 0)
	require.Len(t, entities, 1)
	assert.Equal(t, "core-switch", entities[0].Name)
}

func TestParseLabeledLinesLastResort(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	raw := `I could not produce JSON, but I found these:
Entity: Oracle RAC Cluster
System: SAP ERP
Component: F5 Load Balancer`

	entities, relationships := p.Parse(raw, 0)
	require.Len(t, entities, 3)
	assert.Equal(t, "Oracle RAC Cluster", entities[0].Name)
	assert.Equal(t, "extracted_entity", entities[0].Type)
	assert.Empty(t, relationships, "relationships are never recovered at this stage")
}

func TestParseMisshapenEntitiesFallsThrough(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	// Valid JSON, but entities is a mapping rather than a sequence; the
	// strict stage must reject it and the cascade continues.
	raw := `{"entities": {"name": "DB1"}, "relationships": []}`

	entities, relationships := p.Parse(raw, 0)
	assert.Empty(t, entities)
	assert.Empty(t, relationships)
}

func TestParseTotalFailureReturnsEmpty(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	entities, relationships := p.Parse("I'm sorry, I cannot help with that request.", 7)
	assert.Empty(t, entities)
	assert.Empty(t, relationships)
}

func TestParseMissingRelationshipsKeyRejected(t *testing.T) {
	p := NewResponseParser(zap.NewNop())

	entities, _ := p.Parse(`{"entities": []}`, 0)
	assert.Empty(t, entities)
}
