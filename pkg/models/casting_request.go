package models

import "time"

// CastingRequest is a previously seen request text kept for duplicate detection
type CastingRequest struct {
	ID        int64     `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	AuthorID  string    `json:"author_id" db:"author_id"`
	Source    string    `json:"source" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DuplicateVerdict is the outcome of checking a text against request history
type DuplicateVerdict struct {
	IsDuplicate      bool    `json:"is_duplicate"`
	Comparable       bool    `json:"comparable"`
	Similarity       float64 `json:"similarity"`
	MatchedRequestID *int64  `json:"matched_request_id,omitempty"`
}

type CheckDuplicateRequest struct {
	Text     string `json:"text"`
	AuthorID string `json:"author_id"`
}

type SimilarityRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type SimilarityResponse struct {
	Method     string  `json:"method"`
	Similarity float64 `json:"similarity"`
}
