package model

// ChunkType tags the granularity a chunk was produced at.
type ChunkType string

const (
	ChunkTypeSection         ChunkType = "section"
	ChunkTypeParagraphGroup  ChunkType = "paragraph_group"
	ChunkTypeSentenceGroup   ChunkType = "sentence_group"
	ChunkTypeFullDocument    ChunkType = "full_document"
	ChunkTypeCombinedSection ChunkType = "combined_section"
)

// DocumentChunk is a contiguous span of source text selected for independent
// extraction. ChunkIDs are dense and ordered 0..N-1 in emission order.
// StartPos/EndPos always refer to the original document; overlap injection
// rewrites Content only.
type DocumentChunk struct {
	Content   string            `json:"content"`
	ChunkID   int               `json:"chunk_id"`
	StartPos  int               `json:"start_pos"`
	EndPos    int               `json:"end_pos"`
	ChunkType ChunkType         `json:"chunk_type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
