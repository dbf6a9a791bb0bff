package chunking

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/infragraph/infragraph/internal/config"
	"github.com/infragraph/infragraph/internal/core/model"
)

// minSectionChars is the threshold below which a section fragment is
// discarded as noise (stray headers, page numbers, TOC lines).
const minSectionChars = 100

// sectionPatterns locate header-like boundaries in technical documents:
// numbered headings, chaptered headings, ALL-CAPS title lines, and markdown
// headers. Split positions are the union of all match starts.
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*\d+(?:\.\d+)*[.)]?\s+\S`),
	regexp.MustCompile(`(?mi)^\s*(?:chapter|section|part|appendix)\s+[0-9IVX]+`),
	regexp.MustCompile(`(?m)^[A-Z][A-Z0-9 \-_:]{11,}$`),
	regexp.MustCompile(`(?m)^#{1,6}\s+\S`),
}

var sentenceEndRe = regexp.MustCompile(`[.!?]+[\s]`)

// span is a half-open [start, end) byte range into the original document.
type span struct {
	start int
	end   int
}

// Chunker splits raw document text into an ordered sequence of bounded-size
// chunks. It tries section boundaries first, then falls back to paragraph
// grouping and finally sentence grouping; each fallback is document-wide and
// applies only when the previous strategy produced at least one chunk over
// the size bound.
type Chunker struct {
	maxChunkSize int
	overlapSize  int
}

func NewChunker(cfg config.ChunkingConfig) *Chunker {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = 4000
	}
	if cfg.OverlapSize < 0 {
		cfg.OverlapSize = 0
	}
	return &Chunker{
		maxChunkSize: cfg.MaxChunkSize,
		overlapSize:  cfg.OverlapSize,
	}
}

// Chunk splits content and returns chunks with dense IDs 0..N-1 in document
// order. An empty document yields a single chunk with empty content.
func (c *Chunker) Chunk(content string) []model.DocumentChunk {
	if strings.TrimSpace(content) == "" {
		return []model.DocumentChunk{{
			Content:   content,
			ChunkID:   0,
			StartPos:  0,
			EndPos:    len(content),
			ChunkType: model.ChunkTypeFullDocument,
		}}
	}

	chunks := c.splitBySections(content)
	if anyOversized(chunks, c.maxChunkSize) {
		chunks = c.groupSpans(content, paragraphSpans(content), model.ChunkTypeParagraphGroup)
	}
	if anyOversized(chunks, c.maxChunkSize) {
		chunks = c.groupSpans(content, sentenceSpans(content), model.ChunkTypeSentenceGroup)
	}

	for i := range chunks {
		chunks[i].ChunkID = i
	}

	c.injectOverlap(chunks)
	return chunks
}

// splitBySections splits on header-like boundaries. Degenerate documents
// (shorter than minSectionChars) and documents without any boundary become a
// single full_document chunk.
func (c *Chunker) splitBySections(content string) []model.DocumentChunk {
	fullDoc := []model.DocumentChunk{{
		Content:   strings.TrimSpace(content),
		StartPos:  0,
		EndPos:    len(content),
		ChunkType: model.ChunkTypeFullDocument,
	}}

	if len(strings.TrimSpace(content)) < minSectionChars {
		return fullDoc
	}

	boundarySet := map[int]bool{0: true, len(content): true}
	for _, re := range sectionPatterns {
		for _, loc := range re.FindAllStringIndex(content, -1) {
			boundarySet[loc[0]] = true
		}
	}
	if len(boundarySet) == 2 {
		return fullDoc
	}

	boundaries := make([]int, 0, len(boundarySet))
	for b := range boundarySet {
		boundaries = append(boundaries, b)
	}
	sort.Ints(boundaries)

	var chunks []model.DocumentChunk
	for i := 0; i < len(boundaries)-1; i++ {
		sp := span{boundaries[i], boundaries[i+1]}
		text := strings.TrimSpace(content[sp.start:sp.end])
		if len(text) <= minSectionChars {
			continue
		}
		chunks = append(chunks, model.DocumentChunk{
			Content:   text,
			StartPos:  sp.start,
			EndPos:    sp.end,
			ChunkType: model.ChunkTypeSection,
		})
	}

	if len(chunks) == 0 {
		return fullDoc
	}
	return chunks
}

// groupSpans greedily accumulates consecutive spans into chunks, flushing
// whenever adding the next span would exceed the size bound. A span is never
// split, so a single irreducible span longer than the bound becomes its own
// oversized chunk.
func (c *Chunker) groupSpans(content string, spans []span, chunkType model.ChunkType) []model.DocumentChunk {
	var chunks []model.DocumentChunk
	flush := func(sp span) {
		text := strings.TrimSpace(content[sp.start:sp.end])
		if text == "" {
			return
		}
		chunks = append(chunks, model.DocumentChunk{
			Content:   text,
			StartPos:  sp.start,
			EndPos:    sp.end,
			ChunkType: chunkType,
		})
	}

	var current span
	open := false
	for _, sp := range spans {
		if !open {
			current = sp
			open = true
			continue
		}
		if (sp.end - current.start) > c.maxChunkSize {
			flush(current)
			current = sp
			continue
		}
		current.end = sp.end
	}
	if open {
		flush(current)
	}

	if len(chunks) == 0 {
		chunks = append(chunks, model.DocumentChunk{
			Content:   strings.TrimSpace(content),
			StartPos:  0,
			EndPos:    len(content),
			ChunkType: chunkType,
		})
	}
	return chunks
}

// injectOverlap prefixes each chunk (except the first) with the tail of its
// predecessor and suffixes each chunk (except the last) with the head of its
// successor. Purely additive to Content; positions and IDs are untouched.
// Single-chunk documents are returned as-is.
func (c *Chunker) injectOverlap(chunks []model.DocumentChunk) {
	if len(chunks) <= 1 || c.overlapSize <= 0 {
		return
	}

	originals := make([]string, len(chunks))
	for i := range chunks {
		originals[i] = chunks[i].Content
	}

	for i := range chunks {
		var b strings.Builder
		if i > 0 {
			b.WriteString(fmt.Sprintf("[Previous context: %s]\n\n", tailChars(originals[i-1], c.overlapSize)))
		}
		b.WriteString(originals[i])
		if i < len(chunks)-1 {
			b.WriteString(fmt.Sprintf("\n\n[Next context: %s]", headChars(originals[i+1], c.overlapSize)))
		}
		chunks[i].Content = b.String()
	}
}

func anyOversized(chunks []model.DocumentChunk, max int) bool {
	for _, ch := range chunks {
		if len(ch.Content) > max {
			return true
		}
	}
	return false
}

// paragraphSpans returns the byte ranges of blank-line separated paragraphs.
func paragraphSpans(content string) []span {
	var spans []span
	offset := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			spans = append(spans, span{offset, offset + len(block)})
		}
		offset += len(block) + 2
	}
	return spans
}

// sentenceSpans returns byte ranges split after sentence-ending punctuation
// followed by whitespace.
func sentenceSpans(content string) []span {
	var spans []span
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(content, -1) {
		spans = append(spans, span{start, loc[1]})
		start = loc[1]
	}
	if start < len(content) && strings.TrimSpace(content[start:]) != "" {
		spans = append(spans, span{start, len(content)})
	}
	return spans
}

func tailChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func headChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
