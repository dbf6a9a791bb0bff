// Package dedupe merges per-chunk extraction results into a single consistent
// graph. It is deterministic and runs single-threaded over the full result
// set after extraction completes, so no locking is needed.
package dedupe

import (
	"fmt"
	"strings"

	"github.com/infragraph/infragraph/internal/core/model"
)

// EntityKey is the normalized identity used to decide that two raw records
// refer to the same real-world entity.
func EntityKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RelationshipKey normalizes the (source, target, type) triple.
func RelationshipKey(r model.Relationship) string {
	return fmt.Sprintf("%s|%s|%s",
		strings.ToLower(strings.TrimSpace(r.Source)),
		strings.ToLower(strings.TrimSpace(r.Target)),
		strings.ToLower(strings.TrimSpace(r.Type)))
}

// Merge collapses entities and relationships across all successful results.
//
// The first occurrence of an entity key wins as the canonical record; later
// duplicates contribute only their properties (shallow union, later values
// overwrite on collision). Entities with an empty normalized name are
// discarded. Relationships deduplicate by exact normalized key, keeping the
// first occurrence and dropping later duplicates without any merge. Failed
// results contribute nothing. Output preserves first-seen order.
func Merge(results []model.ExtractionResult) ([]model.Entity, []model.Relationship) {
	entityByKey := make(map[string]int)
	var entities []model.Entity

	seenRel := make(map[string]bool)
	var relationships []model.Relationship

	for _, res := range results {
		if !res.Success {
			continue
		}

		for _, ent := range res.Entities {
			key := EntityKey(ent.Name)
			if key == "" {
				continue
			}

			idx, seen := entityByKey[key]
			if !seen {
				entityByKey[key] = len(entities)
				entities = append(entities, ent)
				continue
			}

			if len(ent.Properties) == 0 {
				continue
			}
			canonical := &entities[idx]
			if canonical.Properties == nil {
				canonical.Properties = make(map[string]interface{}, len(ent.Properties))
			}
			for k, v := range ent.Properties {
				canonical.Properties[k] = v
			}
		}

		for _, rel := range res.Relationships {
			key := RelationshipKey(rel)
			if seenRel[key] {
				continue
			}
			seenRel[key] = true
			relationships = append(relationships, rel)
		}
	}

	return entities, relationships
}
