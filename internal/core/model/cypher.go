package model

// CypherQuery is a graph query produced from natural language, either by the
// oracle or by the pattern fallback. Confidence is in [0,1].
type CypherQuery struct {
	Query       string                 `json:"query"`
	Parameters  map[string]interface{} `json:"parameters"`
	Confidence  float64                `json:"confidence"`
	Explanation string                 `json:"explanation"`
}
