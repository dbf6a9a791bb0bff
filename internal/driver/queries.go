package driver

// Canned persistence queries for the infrastructure graph. Entities are keyed
// by (project_id, key) where key is the normalized entity name, so repeated
// ingestion of the same document is idempotent.

const SaveEntityQuery = `
MERGE (n:Entity {project_id: $project_id, key: $key})
ON CREATE SET n.uuid = $uuid, n.created_at = $created_at
SET n.name = $name,
    n.type = $type,
    n.description = $description,
    n.properties = $properties
RETURN n.uuid AS uuid
`

const SaveRelationshipQuery = `
MATCH (a:Entity {project_id: $project_id, key: $source_key})
MATCH (b:Entity {project_id: $project_id, key: $target_key})
MERGE (a)-[r:RELATES_TO {type: $type}]->(b)
ON CREATE SET r.uuid = $uuid, r.created_at = $created_at
SET r.description = $description
RETURN r.uuid AS uuid
`

const DeleteProjectQuery = `
MATCH (n:Entity {project_id: $project_id})
DETACH DELETE n
`

const CountProjectEntitiesQuery = `
MATCH (n:Entity {project_id: $project_id})
RETURN count(n) AS count
`
