// Package contacts consolidates contact details extracted from casting requests into the
// catalog persons they belong to.
package contacts

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/metrics"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

// PersonStore reads and updates catalog persons
type PersonStore interface {
	// ListActive returns active persons ordered by id; an empty personType means all.
	ListActive(ctx context.Context, personType string) ([]models.Person, error)
	// GetForUpdate loads a person and locks the row for the current transaction.
	GetForUpdate(ctx context.Context, id int64) (*models.Person, error)
	UpdateContacts(ctx context.Context, id int64, contacts models.ContactSet) error
}

// ProposalStore persists contact addition proposals
type ProposalStore interface {
	Create(ctx context.Context, proposal *models.ContactAdditionProposal) error
	Get(ctx context.Context, id uuid.UUID) (*models.ContactAdditionProposal, error)
	Resolve(ctx context.Context, id uuid.UUID, status models.ProposalStatus, reviewer string, at time.Time) (*models.ContactAdditionProposal, error)
	List(ctx context.Context, status models.ProposalStatus, limit int) ([]models.ContactAdditionProposal, error)
}

// Matcher finds persons by fuzzy name
type Matcher interface {
	SearchMatches(ctx context.Context, category models.Category, query map[string]string, opts matching.SearchOptions) ([]models.MatchCandidate, error)
}

// UnitOfWork runs fn in a single transaction
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Result reports what a consolidation call changed
type Result struct {
	PersonID      *int64                       `json:"person_id"`
	Added         bool                         `json:"added"`
	Notifications []models.ContactNotification `json:"notifications"`
}

type Service struct {
	logger    ectologger.Logger
	persons   PersonStore
	proposals ProposalStore
	matcher   Matcher
	uow       UnitOfWork
	capacity  int
	now       func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(logger ectologger.Logger, persons PersonStore, proposals ProposalStore, matcher Matcher, uow UnitOfWork, capacity int, opts ...Option) *Service {
	if capacity <= 0 {
		capacity = models.DefaultContactCapacity
	}
	s := &Service{
		logger:    logger,
		persons:   persons,
		proposals: proposals,
		matcher:   matcher,
		uow:       uow,
		capacity:  capacity,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindPersonByContact returns the active person with the lowest id holding the value,
// compared in normalized form, or nil.
func (s *Service) FindPersonByContact(ctx context.Context, contactType models.ContactType, value string) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.FindPersonByContact")
	defer span.End()

	if models.NormalizeContact(contactType, value) == "" {
		return nil, nil
	}

	persons, err := s.persons.ListActive(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })

	found := ectolinq.Filter(persons, func(p models.Person) bool {
		return p.Contacts.Contains(contactType, value)
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

type contactValue struct {
	contactType models.ContactType
	value       string
}

// CheckAndAddContacts resolves the named person and appends each supplied contact that
// is new and fits. Every appended contact gets a pending proposal and a notification.
// Contacts already present and contacts beyond capacity are dropped silently.
func (s *Service) CheckAndAddContacts(ctx context.Context, req models.ConsolidateContactsRequest) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.CheckAndAddContacts")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"person_name": req.PersonName,
		"person_type": req.PersonType,
	})

	result := &Result{Notifications: []models.ContactNotification{}}

	supplied := ectolinq.Filter([]contactValue{
		{models.ContactTypePhone, req.Phone},
		{models.ContactTypeEmail, req.Email},
		{models.ContactTypeTelegram, req.Telegram},
	}, func(c contactValue) bool {
		return models.NormalizeContact(c.contactType, c.value) != ""
	})
	if len(supplied) == 0 {
		log.Debug("No contacts supplied")
		return result, nil
	}

	personID, err := s.resolvePerson(ctx, req, supplied)
	if err != nil {
		return nil, err
	}
	if personID == 0 {
		log.Info("No catalog person matches the request")
		return result, nil
	}
	result.PersonID = &personID

	err = s.uow.Do(ctx, func(ctx context.Context) error {
		person, err := s.persons.GetForUpdate(ctx, personID)
		if err != nil {
			return err
		}

		var added []contactValue
		for _, c := range supplied {
			switch person.Contacts.Add(c.contactType, c.value, s.capacity) {
			case models.AddOutcomeAdded:
				added = append(added, contactValue{c.contactType, strings.TrimSpace(c.value)})
			case models.AddOutcomeFull:
				metrics.RecordContactDropped(string(c.contactType))
				log.WithField("contact_type", c.contactType).Info("Contact list full, dropping value")
			}
		}
		if len(added) == 0 {
			return nil
		}

		if err := s.persons.UpdateContacts(ctx, personID, person.Contacts); err != nil {
			return err
		}

		now := s.now()
		notifications := make([]models.ContactNotification, 0, len(added))
		for _, c := range added {
			proposal := &models.ContactAdditionProposal{
				ID:           uuid.New(),
				PersonID:     personID,
				ContactType:  c.contactType,
				ContactValue: c.value,
				Status:       models.ProposalStatusPending,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := s.proposals.Create(ctx, proposal); err != nil {
				return err
			}
			notifications = append(notifications, models.ContactNotification{
				ProposalID:   proposal.ID,
				ContactType:  c.contactType,
				ContactValue: c.value,
				PersonID:     personID,
			})
		}
		result.Notifications = notifications
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to consolidate contacts")
		return nil, err
	}

	for _, n := range result.Notifications {
		metrics.RecordContactAdded(string(n.ContactType))
	}
	result.Added = len(result.Notifications) > 0
	log.WithFields(map[string]any{
		"person_id": personID,
		"added":     len(result.Notifications),
	}).Info("Contacts consolidated")
	return result, nil
}

// resolvePerson tries the best fuzzy name match first, then an exact contact lookup.
// It returns 0 when nobody matches.
func (s *Service) resolvePerson(ctx context.Context, req models.ConsolidateContactsRequest, supplied []contactValue) (int64, error) {
	if name := strings.TrimSpace(req.PersonName); name != "" {
		candidates, err := s.matcher.SearchMatches(ctx, models.CategoryPerson,
			map[string]string{"name": name},
			matching.SearchOptions{Limit: 1, Subtype: string(req.PersonType)})
		if err != nil {
			return 0, err
		}
		if len(candidates) > 0 {
			return candidates[0].ID, nil
		}
	}

	for _, c := range supplied {
		person, err := s.FindPersonByContact(ctx, c.contactType, c.value)
		if err != nil {
			return 0, err
		}
		if person != nil {
			return person.ID, nil
		}
	}
	return 0, nil
}

// ListProposals returns proposals with the given status, newest first.
func (s *Service) ListProposals(ctx context.Context, status models.ProposalStatus, limit int) ([]models.ContactAdditionProposal, error) {
	return s.proposals.List(ctx, status, limit)
}

// ConfirmProposal accepts a pending proposal. The contact is already on the person.
func (s *Service) ConfirmProposal(ctx context.Context, id uuid.UUID, reviewer string) (*models.ContactAdditionProposal, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.ConfirmProposal")
	defer span.End()

	return s.resolve(ctx, id, reviewer, models.ProposalStatusConfirmed, nil)
}

// RejectProposal refuses a pending proposal and removes the contact from the person.
func (s *Service) RejectProposal(ctx context.Context, id uuid.UUID, reviewer string) (*models.ContactAdditionProposal, error) {
	ctx, span := tracing.StartSpan(ctx, "contacts.Service.RejectProposal")
	defer span.End()

	return s.resolve(ctx, id, reviewer, models.ProposalStatusRejected, func(ctx context.Context, p *models.ContactAdditionProposal) error {
		person, err := s.persons.GetForUpdate(ctx, p.PersonID)
		if err != nil {
			return err
		}
		if !person.Contacts.Remove(p.ContactType, p.ContactValue) {
			return nil
		}
		return s.persons.UpdateContacts(ctx, p.PersonID, person.Contacts)
	})
}

func (s *Service) resolve(ctx context.Context, id uuid.UUID, reviewer string, status models.ProposalStatus, apply func(ctx context.Context, p *models.ContactAdditionProposal) error) (*models.ContactAdditionProposal, error) {
	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"proposal_id": id,
		"status":      status,
		"reviewer":    reviewer,
	})

	var resolved *models.ContactAdditionProposal
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		proposal, err := s.proposals.Get(ctx, id)
		if err != nil {
			return err
		}
		if proposal.Status != models.ProposalStatusPending {
			return httperror.NewHTTPErrorf(http.StatusConflict, "proposal %s is already %s", id, proposal.Status)
		}
		if apply != nil {
			if err := apply(ctx, proposal); err != nil {
				return err
			}
		}
		resolved, err = s.proposals.Resolve(ctx, id, status, reviewer, s.now())
		return err
	})
	if err != nil {
		log.WithError(err).Warn("Failed to resolve proposal")
		return nil, err
	}

	metrics.RecordProposalResolved(string(status))
	log.Info("Proposal resolved")
	return resolved, nil
}
