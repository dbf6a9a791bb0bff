package extraction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/infragraph/infragraph/internal/config"
	"github.com/infragraph/infragraph/internal/core/model"
	"github.com/infragraph/infragraph/internal/llm"
)

// extractionPrompt instructs the oracle to emit the expected JSON shape and
// explicitly allows an empty result, which keeps blank-looking chunks from
// producing hallucinated entities.
const extractionPrompt = `You are an entity extraction engine for IT infrastructure documentation.
Extract all infrastructure entities and the relationships between them from the text below.

ENTITY TYPES (use exactly these values):
- server / database / application / network / storage / service / middleware / security

RELATIONSHIP TYPES (use exactly these values):
- depends_on / connects_to / hosts / uses / replicates_to / load_balances / monitors

Return a JSON object with exactly two keys:
  "entities"      : array of {"name": string, "type": string, "description": string, "properties": object}
  "relationships" : array of {"source": string, "target": string, "type": string, "description": string}

Rules:
- Only include entities and relationships clearly supported by the text.
- If there are none, return {"entities": [], "relationships": []}.
- Do NOT include any text outside the JSON object.

TEXT:
%s`

// interBatchPause is the fixed delay between batches, honoring upstream rate
// limits.
const interBatchPause = 1 * time.Second

// ParallelExtractor fans chunks out to the oracle in sequential batches of at
// most maxConcurrency concurrent calls. One chunk's failure never prevents
// other chunks from completing; failures become failed ExtractionResults.
type ParallelExtractor struct {
	llm             llm.LLMClient
	parser          *ResponseParser
	logger          *zap.Logger
	retry           RetryPolicy
	maxConcurrency  int
	timeout         time.Duration
	maxContentChars int
	temperature     float32
	maxTokens       int
	batchPause      time.Duration
}

func NewParallelExtractor(client llm.LLMClient, cfg config.ExtractionConfig, logger *zap.Logger) *ParallelExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 60
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 6000
	}
	return &ParallelExtractor{
		llm:             client,
		parser:          NewResponseParser(logger),
		logger:          logger,
		retry:           RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: ExponentialBackoff(2)},
		maxConcurrency:  cfg.MaxConcurrency,
		timeout:         time.Duration(cfg.TimeoutSeconds) * time.Second,
		maxContentChars: cfg.MaxContentChars,
		temperature:     cfg.Temperature,
		maxTokens:       cfg.MaxTokens,
		batchPause:      interBatchPause,
	}
}

// Extract processes all chunks and returns one result per chunk, re-sorted by
// ChunkID so callers can treat the slice as document order regardless of
// intra-batch completion order.
func (e *ParallelExtractor) Extract(ctx context.Context, chunks []model.DocumentChunk) []model.ExtractionResult {
	results := make([]model.ExtractionResult, 0, len(chunks))

	for start := 0; start < len(chunks); start += e.maxConcurrency {
		end := start + e.maxConcurrency
		if end > len(chunks) {
			end = len(chunks)
		}
		results = append(results, e.extractBatch(ctx, chunks[start:end])...)

		if end < len(chunks) {
			select {
			case <-time.After(e.batchPause):
			case <-ctx.Done():
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].ChunkID < results[j].ChunkID })
	return results
}

// extractBatch runs one cohort concurrently. A panic that escapes per-chunk
// handling is converted into a single synthetic batch-level failure rather
// than aborting the run.
func (e *ParallelExtractor) extractBatch(ctx context.Context, batch []model.DocumentChunk) (results []model.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("batch-level failure", zap.Any("panic", r))
			results = append(results, model.ExtractionResult{
				ChunkID:      model.BatchFailureChunkID,
				Success:      false,
				ErrorMessage: fmt.Sprintf("batch failure: %v", r),
			})
		}
	}()

	batchResults := make([]model.ExtractionResult, len(batch))
	var g errgroup.Group
	for i, chunk := range batch {
		g.Go(func() error {
			batchResults[i] = e.extractChunk(ctx, chunk)
			return nil
		})
	}
	g.Wait()

	return batchResults
}

// extractChunk performs the bounded-prompt oracle call for one chunk under
// the per-call timeout and retry policy.
func (e *ParallelExtractor) extractChunk(ctx context.Context, chunk model.DocumentChunk) (res model.ExtractionResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = model.ExtractionResult{
				ChunkID:        chunk.ChunkID,
				Success:        false,
				ErrorMessage:   fmt.Sprintf("panic: %v", r),
				ProcessingTime: time.Since(start),
			}
		}
	}()

	prompt := e.buildPrompt(chunk.Content)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	response, err := e.retry.Do(callCtx, func(ctx context.Context) (string, error) {
		return e.llm.Generate(ctx, prompt, llm.GenerateOptions{
			Temperature: e.temperature,
			MaxTokens:   e.maxTokens,
		})
	})
	if err != nil {
		message := err.Error()
		elapsed := time.Since(start)
		if errors.Is(err, context.DeadlineExceeded) {
			message = "Timeout"
			elapsed = e.timeout
		}
		e.logger.Warn("chunk extraction failed",
			zap.Int("chunk_id", chunk.ChunkID),
			zap.String("error", message),
			zap.Duration("elapsed", time.Since(start)))
		return model.ExtractionResult{
			ChunkID:        chunk.ChunkID,
			Success:        false,
			ErrorMessage:   message,
			ProcessingTime: elapsed,
		}
	}

	entities, relationships := e.parser.Parse(response, chunk.ChunkID)
	e.logger.Debug("chunk extracted",
		zap.Int("chunk_id", chunk.ChunkID),
		zap.Int("entities", len(entities)),
		zap.Int("relationships", len(relationships)),
		zap.Duration("elapsed", time.Since(start)))

	return model.ExtractionResult{
		ChunkID:        chunk.ChunkID,
		Entities:       entities,
		Relationships:  relationships,
		Success:        true,
		ProcessingTime: time.Since(start),
	}
}

// buildPrompt truncates chunk content to the configured ceiling before
// embedding it into the extraction instruction template.
func (e *ParallelExtractor) buildPrompt(content string) string {
	if len(content) > e.maxContentChars {
		content = content[:e.maxContentChars]
	}
	return fmt.Sprintf(extractionPrompt, content)
}
