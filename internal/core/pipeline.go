// Package core wires the extraction pipeline together: raw text is chunked
// by the selected strategy, fanned out to the model in parallel, parsed,
// deduplicated, and optionally persisted to the graph store.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/infragraph/infragraph/internal/config"
	"github.com/infragraph/infragraph/internal/core/chunking"
	"github.com/infragraph/infragraph/internal/core/cypher"
	"github.com/infragraph/infragraph/internal/core/dedupe"
	"github.com/infragraph/infragraph/internal/core/extraction"
	"github.com/infragraph/infragraph/internal/core/model"
	"github.com/infragraph/infragraph/internal/driver"
	"github.com/infragraph/infragraph/internal/llm"
)

// RunReport summarizes one document ingestion run.
type RunReport struct {
	RunID         string               `json:"run_id"`
	Document      string               `json:"document"`
	Strategy      string               `json:"strategy"`
	ChunkCount    int                  `json:"chunk_count"`
	Succeeded     int                  `json:"succeeded"`
	Failed        int                  `json:"failed"`
	Entities      []model.Entity       `json:"entities"`
	Relationships []model.Relationship `json:"relationships"`
	Elapsed       time.Duration        `json:"elapsed"`
}

// Pipeline is the document-to-graph extraction pipeline. Driver may be nil,
// in which case results are returned but not persisted.
type Pipeline struct {
	Driver    driver.GraphDriver
	Selector  *chunking.Selector
	Extractor *extraction.ParallelExtractor
	Cypher    *cypher.Generator
	logger    *zap.Logger
}

func NewPipeline(cfg *config.Config, d driver.GraphDriver, client llm.LLMClient, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Driver:    d,
		Selector:  chunking.NewSelector(cfg.Chunking),
		Extractor: extraction.NewParallelExtractor(client, cfg.Extraction, logger),
		Cypher:    cypher.NewGenerator(client, logger),
		logger:    logger,
	}
}

// ProcessDocument runs the full pipeline over one document and returns the
// deduplicated graph. Per-chunk failures degrade to empty contributions; the
// only errors returned are persistence failures.
func (p *Pipeline) ProcessDocument(ctx context.Context, projectID, docName, content string) (*RunReport, error) {
	start := time.Now()
	sizeMB := float64(len(content)) / (1024 * 1024)

	chunks, strategy := p.Selector.Process(content, sizeMB)
	p.logger.Info("document chunked",
		zap.String("document", docName),
		zap.String("strategy", string(strategy)),
		zap.Int("chunks", len(chunks)),
		zap.Float64("size_mb", sizeMB))

	results := p.Extractor.Extract(ctx, chunks)

	succeeded, failed := 0, 0
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}

	entities, relationships := dedupe.Merge(results)

	report := &RunReport{
		RunID:         uuid.New().String(),
		Document:      docName,
		Strategy:      string(strategy),
		ChunkCount:    len(chunks),
		Succeeded:     succeeded,
		Failed:        failed,
		Entities:      entities,
		Relationships: relationships,
		Elapsed:       time.Since(start),
	}

	if p.Driver != nil {
		if err := p.persist(ctx, projectID, entities, relationships); err != nil {
			return report, err
		}
	}

	p.logger.Info("document processed",
		zap.String("run_id", report.RunID),
		zap.String("document", docName),
		zap.Int("entities", len(entities)),
		zap.Int("relationships", len(relationships)),
		zap.Int("failed_chunks", failed),
		zap.Duration("elapsed", report.Elapsed))

	return report, nil
}

// persist MERGEs the deduplicated graph into the store, keyed by normalized
// name so re-ingestion is idempotent. Relationships whose endpoints were
// discarded (empty names) are skipped.
func (p *Pipeline) persist(ctx context.Context, projectID string, entities []model.Entity, relationships []model.Relationship) error {
	now := time.Now().UTC().Format(time.RFC3339)

	for _, ent := range entities {
		props := "{}"
		if len(ent.Properties) > 0 {
			if b, err := json.Marshal(ent.Properties); err == nil {
				props = string(b)
			}
		}

		params := map[string]interface{}{
			"project_id":  projectID,
			"key":         dedupe.EntityKey(ent.Name),
			"uuid":        uuid.New().String(),
			"name":        ent.Name,
			"type":        ent.Type,
			"description": ent.Description,
			"properties":  props,
			"created_at":  now,
		}
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveEntityQuery, params); err != nil {
			return err
		}
	}

	for _, rel := range relationships {
		sourceKey := dedupe.EntityKey(rel.Source)
		targetKey := dedupe.EntityKey(rel.Target)
		if sourceKey == "" || targetKey == "" {
			continue
		}

		params := map[string]interface{}{
			"project_id":  projectID,
			"source_key":  sourceKey,
			"target_key":  targetKey,
			"uuid":        uuid.New().String(),
			"type":        rel.Type,
			"description": rel.Description,
			"created_at":  now,
		}
		if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveRelationshipQuery, params); err != nil {
			p.logger.Warn("relationship persist failed, skipping",
				zap.String("source", rel.Source),
				zap.String("target", rel.Target),
				zap.Error(err))
		}
	}

	return nil
}

// Query translates a natural-language question into Cypher and, when a
// driver is attached and execute is set, runs it and returns the records.
func (p *Pipeline) Query(ctx context.Context, question string, execute bool) (model.CypherQuery, []map[string]interface{}, error) {
	q := p.Cypher.Generate(ctx, question)

	if !execute || p.Driver == nil {
		return q, nil, nil
	}

	result, err := p.Driver.ExecuteQuery(ctx, q.Query, q.Parameters)
	if err != nil {
		return q, nil, err
	}

	var rows []map[string]interface{}
	for _, record := range result.Records {
		row := make(map[string]interface{}, len(record.Keys))
		for _, key := range record.Keys {
			if v, ok := record.Get(key); ok {
				row[key] = v
			}
		}
		rows = append(rows, row)
	}
	return q, rows, nil
}
