package models

import "encoding/json"

// MatchCandidate is a ranked catalog record returned by a search. It is never persisted.
type MatchCandidate struct {
	ID            int64              `json:"id"`
	Category      Category           `json:"category"`
	Fields        map[string]string  `json:"-"`
	Attributes    map[string]string  `json:"-"`
	FieldScores   map[string]float64 `json:"field_scores"`
	Score         float64            `json:"score"`
	Confidence    Confidence         `json:"confidence"`
	MatchedFields []string           `json:"matched_fields"`
}

// MarshalJSON flattens echoed fields and attributes next to the scoring keys:
// {"id":1,"name":"Мосфильм","company_type":"production","score":0.97,...}
func (c MatchCandidate) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Fields)+len(c.Attributes)+6)
	for k, v := range c.Fields {
		out[k] = v
	}
	for k, v := range c.Attributes {
		out[k] = v
	}
	out["id"] = c.ID
	out["category"] = c.Category
	out["score"] = c.Score
	out["confidence"] = c.Confidence
	matched := c.MatchedFields
	if matched == nil {
		matched = []string{}
	}
	out["matched_fields"] = matched
	scores := c.FieldScores
	if scores == nil {
		scores = map[string]float64{}
	}
	out["field_scores"] = scores
	return json.Marshal(out)
}

// SearchMatchesRequest is the body of a multi-field search
type SearchMatchesRequest struct {
	Fields  map[string]string `json:"fields" validate:"required"`
	Limit   int               `json:"limit" validate:"gte=0,lte=100"`
	Subtype string            `json:"subtype"`
}

type SearchMatchesResponse struct {
	Category   Category         `json:"category"`
	Candidates []MatchCandidate `json:"candidates"`
}
