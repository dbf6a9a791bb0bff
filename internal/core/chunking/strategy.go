package chunking

import (
	"strings"

	"github.com/infragraph/infragraph/internal/config"
	"github.com/infragraph/infragraph/internal/core/model"
)

// Strategy names the document-level processing mode.
type Strategy string

const (
	StrategySinglePass   Strategy = "single_pass"
	StrategySemantic     Strategy = "semantic_chunks"
	StrategyHierarchical Strategy = "hierarchical_extraction"
)

// Size thresholds (MB) for strategy selection, and the hierarchical
// recombination limits: documents that chunk into more than
// hierarchicalChunkCeiling pieces get adjacent chunks recombined into
// combined_section chunks of at most combinedSectionMaxChars. This bounds the
// number of oracle calls for very large documents at the cost of per-call
// context size.
const (
	singlePassMaxMB          = 0.5
	semanticMaxMB            = 2.0
	hierarchicalChunkCeiling = 20
	combinedSectionMaxChars  = 15000
)

// Throughput-tuned chunker parameters for the semantic_chunks strategy.
const (
	semanticMaxChunkSize = 8000
	semanticOverlapSize  = 300
)

// Selector chooses a processing strategy from document size and produces the
// chunk sequence for it.
type Selector struct {
	base config.ChunkingConfig
}

func NewSelector(cfg config.ChunkingConfig) *Selector {
	return &Selector{base: cfg}
}

// SelectStrategy picks a strategy by fixed size thresholds.
func (s *Selector) SelectStrategy(sizeMB float64) Strategy {
	switch {
	case sizeMB < singlePassMaxMB:
		return StrategySinglePass
	case sizeMB < semanticMaxMB:
		return StrategySemantic
	default:
		return StrategyHierarchical
	}
}

// Process chunks content according to the selected strategy and returns the
// chunks together with the strategy name.
func (s *Selector) Process(content string, sizeMB float64) ([]model.DocumentChunk, Strategy) {
	strategy := s.SelectStrategy(sizeMB)

	switch strategy {
	case StrategySinglePass:
		return []model.DocumentChunk{{
			Content:   strings.TrimSpace(content),
			ChunkID:   0,
			StartPos:  0,
			EndPos:    len(content),
			ChunkType: model.ChunkTypeFullDocument,
		}}, strategy

	case StrategySemantic:
		chunker := NewChunker(config.ChunkingConfig{
			MaxChunkSize: semanticMaxChunkSize,
			OverlapSize:  semanticOverlapSize,
		})
		return chunker.Chunk(content), strategy

	default:
		// Hierarchical recombination works on pre-overlap content, so the
		// chunker runs without overlap; combined sections carry their own
		// continuity.
		chunker := NewChunker(config.ChunkingConfig{
			MaxChunkSize: s.base.MaxChunkSize,
			OverlapSize:  0,
		})
		chunks := chunker.Chunk(content)
		if len(chunks) > hierarchicalChunkCeiling {
			chunks = recombine(chunks, combinedSectionMaxChars)
		}
		return chunks, strategy
	}
}

// recombine greedily merges adjacent chunks into combined_section chunks of
// at most maxChars, preserving original order and reassigning dense IDs.
func recombine(chunks []model.DocumentChunk, maxChars int) []model.DocumentChunk {
	var combined []model.DocumentChunk
	var buf strings.Builder
	startPos := 0
	endPos := 0
	open := false

	flush := func() {
		if !open {
			return
		}
		combined = append(combined, model.DocumentChunk{
			Content:   buf.String(),
			ChunkID:   len(combined),
			StartPos:  startPos,
			EndPos:    endPos,
			ChunkType: model.ChunkTypeCombinedSection,
		})
		buf.Reset()
		open = false
	}

	for _, ch := range chunks {
		if open && buf.Len()+len(ch.Content)+2 > maxChars {
			flush()
		}
		if !open {
			startPos = ch.StartPos
			open = true
		} else {
			buf.WriteString("\n\n")
		}
		buf.WriteString(ch.Content)
		endPos = ch.EndPos
	}
	flush()

	return combined
}
