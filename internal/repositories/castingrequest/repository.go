package castingrequest

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/iris/pkg/database"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

const table = "casting_requests"

// Repository handles casting request history
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

// Create records a request in the history
func (r *Repository) Create(ctx context.Context, req *models.CastingRequest) (*models.CastingRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "castingrequest.Repository.Create")
	defer span.End()

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Source == "" {
		req.Source = "telegram"
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("text", "author_id", "source", "created_at")
	ib.Values(req.Text, req.AuthorID, req.Source, req.CreatedAt)

	query, args := ib.Build()
	query += " RETURNING id"
	if err := database.Conn(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&req.ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("author_id", req.AuthorID).Error("Failed to record casting request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record casting request")
	}

	return req, nil
}

// ListSince returns requests created at or after since, oldest first. An empty authorID
// lists every author.
func (r *Repository) ListSince(ctx context.Context, since time.Time, authorID string) ([]models.CastingRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "castingrequest.Repository.ListSince")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("id", "text", "author_id", "source", "created_at")
	sb.From(table)
	sb.Where(sb.GreaterEqualThan("created_at", since))
	if authorID != "" {
		sb.Where(sb.Equal("author_id", authorID))
	}
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	requests := []models.CastingRequest{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &requests, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("author_id", authorID).Error("Failed to list casting requests")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list casting requests")
	}

	return requests, nil
}
