package model

import "time"

// Entity is a raw extracted infrastructure entity as emitted by the oracle.
// Multiple chunks may independently emit the same logical entity; identity is
// decided by the deduplicator, not here.
type Entity struct {
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
}

// Relationship is a raw directed edge between two entities, referenced by name.
type Relationship struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ExtractedGraph is the JSON shape the oracle is instructed to return.
type ExtractedGraph struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
}

// BatchFailureChunkID marks a failure that cannot be attributed to a single
// chunk.
const BatchFailureChunkID = -1

// ExtractionResult is the outcome of attempting extraction on one chunk.
// If Success is false, Entities and Relationships are empty.
type ExtractionResult struct {
	ChunkID        int            `json:"chunk_id"`
	Entities       []Entity       `json:"entities"`
	Relationships  []Relationship `json:"relationships"`
	Success        bool           `json:"success"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	ProcessingTime time.Duration  `json:"processing_time"`
}
