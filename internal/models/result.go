package models

import "time"

// Neighbor is one row returned by similarity ranking.
type Neighbor struct {
	Rank   int            `json:"rank"`
	Index  int            `json:"index"`
	Score  float64        `json:"score"`
	Fields map[string]any `json:"fields,omitempty"`
}

// TermWeight is one vocabulary term with its TF-IDF weight in a document.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Run describes one persisted pipeline run.
type Run struct {
	ID         string    `json:"id"`
	Input      string    `json:"input"`
	TextColumn string    `json:"text_column"`
	Rows       int       `json:"rows"`
	CreatedAt  time.Time `json:"created_at"`
}
