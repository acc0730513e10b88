package contactproposal

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/iris/pkg/database"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

const table = "contact_addition_proposals"

var columns = []string{"id", "person_id", "contact_type", "contact_value", "status", "created_at", "updated_at", "resolved_at", "resolved_by"}

// Repository handles contact addition proposal persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a proposal. When a pending proposal for the same person and value
// already exists it is touched instead, and its id and created_at are copied into proposal.
func (r *Repository) Create(ctx context.Context, proposal *models.ContactAdditionProposal) error {
	ctx, span := tracing.StartSpan(ctx, "contactproposal.Repository.Create")
	defer span.End()

	if proposal.ID == uuid.Nil {
		proposal.ID = uuid.New()
	}
	if proposal.Status == "" {
		proposal.Status = models.ProposalStatusPending
	}
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = time.Now().UTC()
		proposal.UpdatedAt = proposal.CreatedAt
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("id", "person_id", "contact_type", "contact_value", "status", "created_at", "updated_at")
	ib.Values(proposal.ID, proposal.PersonID, proposal.ContactType, proposal.ContactValue, proposal.Status, proposal.CreatedAt, proposal.UpdatedAt)

	query, args := ib.Build()
	query += " ON CONFLICT (person_id, contact_type, contact_value) WHERE status = 'pending'" +
		" DO UPDATE SET updated_at = EXCLUDED.updated_at RETURNING id, created_at"

	row := database.Conn(ctx, r.db).QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&proposal.ID, &proposal.CreatedAt); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("person_id", proposal.PersonID).Error("Failed to create contact proposal")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create contact proposal")
	}
	return nil
}

// Get retrieves a proposal by ID
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.ContactAdditionProposal, error) {
	ctx, span := tracing.StartSpan(ctx, "contactproposal.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("id", id))
	sb.ForUpdate()

	query, args := sb.Build()
	var proposal models.ContactAdditionProposal
	if err := database.Conn(ctx, r.db).GetContext(ctx, &proposal, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "contact proposal %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("proposal_id", id).Error("Failed to get contact proposal")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get contact proposal")
	}

	return &proposal, nil
}

// Resolve moves a pending proposal to status
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, status models.ProposalStatus, reviewer string, at time.Time) (*models.ContactAdditionProposal, error) {
	ctx, span := tracing.StartSpan(ctx, "contactproposal.Repository.Resolve")
	defer span.End()

	var resolvedBy *string
	if reviewer != "" {
		resolvedBy = &reviewer
	}

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("resolved_at", at),
		ub.Assign("resolved_by", resolvedBy),
		ub.Assign("updated_at", at),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("status", models.ProposalStatusPending),
	)

	query, args := ub.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("proposal_id", id).Error("Failed to resolve contact proposal")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve contact proposal")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "contact proposal %s is not pending", id)
	}

	return r.Get(ctx, id)
}

// List returns proposals with status, newest first. An empty status lists all.
func (r *Repository) List(ctx context.Context, status models.ProposalStatus, limit int) ([]models.ContactAdditionProposal, error) {
	ctx, span := tracing.StartSpan(ctx, "contactproposal.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	if status != "" {
		sb.Where(sb.Equal("status", status))
	}
	sb.OrderBy("created_at DESC", "id ASC")
	sb.Limit(limit)

	query, args := sb.Build()
	proposals := []models.ContactAdditionProposal{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &proposals, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("status", status).Error("Failed to list contact proposals")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list contact proposals")
	}

	return proposals, nil
}
