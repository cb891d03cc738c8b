package models

// Usage reports the tokens consumed by a call.
type Usage struct {
	InputTokens int `json:"input_tokens"`
}

// Embedding is the vector for one input text.
type Embedding struct {
	Index  int       `json:"index"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// EmbeddingResult is the response for an embed request.
type EmbeddingResult struct {
	Model      string      `json:"model"`
	Dimension  int         `json:"dimension"`
	Embeddings []Embedding `json:"embeddings"`
	// Usage is omitted when the backend does not count tokens.
	Usage  *Usage `json:"usage,omitempty"`
	TookMs int64  `json:"took_ms"`
}

// SimilarityResult is the cosine similarity of two texts.
type SimilarityResult struct {
	Model string  `json:"model"`
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

// ModelInfo describes a configured model.
type ModelInfo struct {
	Name          string `json:"name"`
	ModelFile     string `json:"model_file"`
	TokenizerFile string `json:"tokenizer_file"`
	Pooling       string `json:"pooling"`
	Dimension     int    `json:"dimension,omitempty"`
}

// RankedText is one candidate in a ranking, best first.
type RankedText struct {
	Rank  int     `json:"rank"`
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// RankResult orders candidate texts by similarity to a query.
type RankResult struct {
	Model   string       `json:"model"`
	Query   string       `json:"query"`
	Results []RankedText `json:"results"`
	TookMs  int64        `json:"took_ms"`
}
