package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infragraph/infragraph/internal/config"
	"github.com/infragraph/infragraph/internal/core/model"
)

func sectionedDoc() string {
	var b strings.Builder
	for i := 1; i <= 4; i++ {
		b.WriteString(fmt.Sprintf("## Section %d\n\n", i))
		b.WriteString(strings.Repeat(fmt.Sprintf("Details about subsystem %d and its configuration. ", i), 5))
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestChunkEmptyDocument(t *testing.T) {
	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 1000, OverlapSize: 100})
	chunks := c.Chunk("")

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, "", chunks[0].Content)
	assert.Equal(t, model.ChunkTypeFullDocument, chunks[0].ChunkType)
}

func TestChunkTinyDocumentBypassesSectionSplit(t *testing.T) {
	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 1000, OverlapSize: 100})
	chunks := c.Chunk("A short note about one server.")

	require.Len(t, chunks, 1)
	assert.Equal(t, model.ChunkTypeFullDocument, chunks[0].ChunkType)
}

func TestChunkSectionSplit(t *testing.T) {
	doc := sectionedDoc()
	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 2000, OverlapSize: 0})
	chunks := c.Chunk(doc)

	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkID)
		assert.Equal(t, model.ChunkTypeSection, ch.ChunkType)
		assert.NotEmpty(t, strings.TrimSpace(ch.Content))
		assert.Contains(t, doc, ch.Content)
	}
}

func TestChunkPositionsMonotonic(t *testing.T) {
	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 2000, OverlapSize: 0})
	chunks := c.Chunk(sectionedDoc())

	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartPos, chunks[i-1].StartPos)
		assert.GreaterOrEqual(t, chunks[i].StartPos, chunks[i-1].EndPos,
			"chunk spans must not overlap")
	}
}

func TestChunkCoverage(t *testing.T) {
	doc := sectionedDoc()
	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 2000, OverlapSize: 0})
	chunks := c.Chunk(doc)

	// The concatenation of spans covers the document; the only material
	// allowed to fall outside a span is a discarded sub-100-char fragment.
	covered := 0
	prevEnd := 0
	for _, ch := range chunks {
		gap := strings.TrimSpace(doc[prevEnd:ch.StartPos])
		assert.LessOrEqual(t, len(gap), minSectionChars)
		covered += ch.EndPos - ch.StartPos
		prevEnd = ch.EndPos
	}
	assert.LessOrEqual(t, len(strings.TrimSpace(doc[prevEnd:])), minSectionChars)
	assert.Greater(t, covered, len(doc)/2)
}

func TestChunkParagraphFallback(t *testing.T) {
	// No headers, so section splitting yields one oversized full-document
	// chunk and the cascade falls back to paragraph grouping.
	var paras []string
	for i := 0; i < 10; i++ {
		paras = append(paras, strings.Repeat(fmt.Sprintf("Paragraph %d text. ", i), 8))
	}
	doc := strings.Join(paras, "\n\n")

	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 400, OverlapSize: 0})
	chunks := c.Chunk(doc)

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.Equal(t, model.ChunkTypeParagraphGroup, ch.ChunkType)
		assert.LessOrEqual(t, len(ch.Content), 400)
	}
}

func TestChunkSentenceFallback(t *testing.T) {
	// A single paragraph larger than the bound cannot be split at paragraph
	// granularity, forcing sentence grouping.
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(fmt.Sprintf("Sentence number %d describes the topology. ", i))
	}
	doc := b.String()

	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 300, OverlapSize: 0})
	chunks := c.Chunk(doc)

	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.Equal(t, model.ChunkTypeSentenceGroup, ch.ChunkType)
		assert.LessOrEqual(t, len(ch.Content), 300,
			"sentence-level chunks satisfy the bound for non-pathological input")
	}
}

func TestChunkIrreducibleSentenceMayExceedBound(t *testing.T) {
	long := "word " + strings.Repeat("verylongtoken ", 60) + "end."
	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 200, OverlapSize: 0})
	chunks := c.Chunk(long)

	require.NotEmpty(t, chunks)
	// A single sentence longer than the bound survives as one chunk rather
	// than being split mid-sentence.
	assert.Len(t, chunks, 1)
}

func TestOverlapInjection(t *testing.T) {
	doc := sectionedDoc()

	plain := NewChunker(config.ChunkingConfig{MaxChunkSize: 2000, OverlapSize: 0}).Chunk(doc)
	overlapped := NewChunker(config.ChunkingConfig{MaxChunkSize: 2000, OverlapSize: 50}).Chunk(doc)

	// Chunk count is invariant under overlap injection.
	require.Equal(t, len(plain), len(overlapped))
	require.Greater(t, len(overlapped), 1)

	for i, ch := range overlapped {
		if i > 0 {
			assert.True(t, strings.HasPrefix(ch.Content, "[Previous context: "))
		} else {
			assert.False(t, strings.Contains(ch.Content, "[Previous context: "))
		}
		if i < len(overlapped)-1 {
			assert.True(t, strings.HasSuffix(ch.Content, "]"))
			assert.Contains(t, ch.Content, "[Next context: ")
		}

		// Overlap is purely additive to content; positions are untouched.
		assert.GreaterOrEqual(t, len(ch.Content), len(plain[i].Content))
		assert.Equal(t, plain[i].StartPos, ch.StartPos)
		assert.Equal(t, plain[i].EndPos, ch.EndPos)
	}
}

func TestOverlapSkippedForSingleChunk(t *testing.T) {
	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 10000, OverlapSize: 100})
	chunks := c.Chunk("One small document that stays in a single chunk.")

	require.Len(t, chunks, 1)
	assert.NotContains(t, chunks[0].Content, "[Previous context:")
	assert.NotContains(t, chunks[0].Content, "[Next context:")
}

func TestChunkIDsDense(t *testing.T) {
	c := NewChunker(config.ChunkingConfig{MaxChunkSize: 400, OverlapSize: 20})
	chunks := c.Chunk(sectionedDoc())

	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkID)
	}
}
