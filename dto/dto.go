package dto

// SearchHit is one semantic search result.
type SearchHit struct {
	RID              string  `json:"rid"`
	Text             string  `json:"text"`
	OriginalFilename string  `json:"original_filename,omitempty"`
	Score            float32 `json:"score"`
}

// SearchResponse wraps the results of GET /search.
type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// RebuildResponse reports index rebuild counts.
type RebuildResponse struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}
