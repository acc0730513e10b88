package kafka

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Ramsey-B/iris/pkg/models"
)

// Event types published on the output topic
const (
	EventRequestDuplicate = "request.duplicate"
	EventRequestMatched   = "request.matched"
	EventContactProposed  = "contact.proposed"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	Request *AnalyzedRequest
}

// AnalyzedRequest is a casting request the upstream pipeline has already run through
// the LLM. Analysis is passed through untouched for extraction.
type AnalyzedRequest struct {
	RequestID string          `json:"request_id"`
	Text      string          `json:"text"`
	AuthorID  string          `json:"author_id"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
	Analysis  json.RawMessage `json:"analysis"`
}

var ErrEmptyText = errors.New("analyzed request has no text")

// ParseAnalyzedRequest parses the message value. The request id falls back to the
// message key.
func (m *IncomingMessage) ParseAnalyzedRequest() error {
	var req AnalyzedRequest
	if err := json.Unmarshal(m.Value, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	if req.RequestID == "" {
		req.RequestID = m.Key
	}
	if req.AuthorID == "" {
		req.AuthorID = m.Headers["author_id"]
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = m.Timestamp
	}
	m.Request = &req
	return nil
}

// Event is published for every processed request
type Event struct {
	EventType    string                                      `json:"event_type"`
	RequestID    string                                      `json:"request_id"`
	AuthorID     string                                      `json:"author_id,omitempty"`
	Duplicate    *models.DuplicateVerdict                    `json:"duplicate,omitempty"`
	Matches      map[models.Category][]models.MatchCandidate `json:"matches,omitempty"`
	Notification *models.ContactNotification                 `json:"notification,omitempty"`
	Timestamp    time.Time                                   `json:"timestamp"`
}
