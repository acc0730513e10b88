// Package processor runs an analyzed casting request through duplicate detection,
// catalog matching and contact consolidation, then publishes the outcome.
package processor

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/iris/pkg/contacts"
	"github.com/Ramsey-B/iris/pkg/extractor"
	"github.com/Ramsey-B/iris/pkg/kafka"
	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

type DuplicateChecker interface {
	IsDuplicate(ctx context.Context, text, authorID string) (models.DuplicateVerdict, error)
}

type RequestRecorder interface {
	Create(ctx context.Context, req *models.CastingRequest) (*models.CastingRequest, error)
}

type Matcher interface {
	SearchMatches(ctx context.Context, category models.Category, query map[string]string, opts matching.SearchOptions) ([]models.MatchCandidate, error)
}

type Consolidator interface {
	CheckAndAddContacts(ctx context.Context, req models.ConsolidateContactsRequest) (*contacts.Result, error)
}

type Publisher interface {
	Publish(ctx context.Context, event *kafka.Event) error
}

// matchedCategories are searched for every request; persons are resolved through
// contact consolidation instead.
var matchedCategories = []models.Category{models.CategoryCompany, models.CategoryProject}

// Processor handles analyzed requests from the consumer
type Processor struct {
	logger     ectologger.Logger
	duplicates DuplicateChecker
	requests   RequestRecorder
	matcher    Matcher
	contacts   Consolidator
	extractor  *extractor.Extractor
	publisher  Publisher
	uow        contacts.UnitOfWork
}

func NewProcessor(
	logger ectologger.Logger,
	duplicates DuplicateChecker,
	requests RequestRecorder,
	matcher Matcher,
	consolidator Consolidator,
	ext *extractor.Extractor,
	publisher Publisher,
	uow contacts.UnitOfWork,
) *Processor {
	return &Processor{
		logger:     logger,
		duplicates: duplicates,
		requests:   requests,
		matcher:    matcher,
		contacts:   consolidator,
		extractor:  ext,
		publisher:  publisher,
		uow:        uow,
	}
}

// Handle adapts Process to kafka.MessageHandler
func (p *Processor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	return p.Process(ctx, msg.Request)
}

// Process handles one request. Duplicates are reported and go no further. The history
// insert and contact updates share a transaction; events are published after it commits.
func (p *Processor) Process(ctx context.Context, req *kafka.AnalyzedRequest) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.Process")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"request_id": req.RequestID,
		"author_id":  req.AuthorID,
	})

	verdict, err := p.duplicates.IsDuplicate(ctx, req.Text, req.AuthorID)
	if err != nil {
		return err
	}
	if verdict.IsDuplicate {
		log.WithField("similarity", verdict.Similarity).Info("Duplicate request")
		return p.publisher.Publish(ctx, &kafka.Event{
			EventType: kafka.EventRequestDuplicate,
			RequestID: req.RequestID,
			AuthorID:  req.AuthorID,
			Duplicate: &verdict,
		})
	}

	doc, err := extractor.FromJSON(req.Analysis)
	if err != nil {
		log.WithError(err).Warn("Analysis is not valid JSON, matching without it")
		doc = map[string]any{}
	}

	var notifications []models.ContactNotification
	err = p.uow.Do(ctx, func(ctx context.Context) error {
		if _, err := p.requests.Create(ctx, &models.CastingRequest{
			Text:      req.Text,
			AuthorID:  req.AuthorID,
			Source:    req.Source,
			CreatedAt: req.CreatedAt,
		}); err != nil {
			return err
		}

		for _, person := range p.extractor.Persons(doc) {
			result, err := p.contacts.CheckAndAddContacts(ctx, person)
			if err != nil {
				if httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusBadRequest {
					log.WithError(err).WithField("person_name", person.PersonName).Warn("Skipping contact person")
					continue
				}
				return err
			}
			notifications = append(notifications, result.Notifications...)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to record request")
		return err
	}

	matches := make(map[models.Category][]models.MatchCandidate, len(matchedCategories))
	for _, category := range matchedCategories {
		fields := p.extractor.Fields(category, doc)
		candidates, err := p.matcher.SearchMatches(ctx, category, fields, matching.SearchOptions{})
		if err != nil {
			return err
		}
		matches[category] = candidates
	}

	for i := range notifications {
		if err := p.publisher.Publish(ctx, &kafka.Event{
			EventType:    kafka.EventContactProposed,
			RequestID:    req.RequestID,
			AuthorID:     req.AuthorID,
			Notification: &notifications[i],
		}); err != nil {
			return err
		}
	}

	log.WithFields(map[string]any{
		"companies": len(matches[models.CategoryCompany]),
		"projects":  len(matches[models.CategoryProject]),
		"proposals": len(notifications),
	}).Info("Request processed")

	return p.publisher.Publish(ctx, &kafka.Event{
		EventType: kafka.EventRequestMatched,
		RequestID: req.RequestID,
		AuthorID:  req.AuthorID,
		Duplicate: &verdict,
		Matches:   matches,
	})
}
