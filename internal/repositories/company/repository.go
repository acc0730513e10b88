package company

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

const table = "companies"

var columns = []string{"id", "name", "email", "phone", "website", "description", "company_type", "is_active", "created_at", "updated_at", "deleted_at"}

// Repository handles company persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new company repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an active company
func (r *Repository) Create(ctx context.Context, req models.CreateCompanyRequest) (*models.Company, error) {
	ctx, span := tracing.StartSpan(ctx, "company.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	company := &models.Company{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Description: req.Description,
		CompanyType: req.CompanyType,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("name", "email", "phone", "website", "description", "company_type", "is_active", "created_at", "updated_at")
	ib.Values(company.Name, company.Email, company.Phone, company.Website, company.Description, company.CompanyType, company.IsActive, company.CreatedAt, company.UpdatedAt)

	query, args := ib.Build()
	query += " RETURNING id"
	if err := database.Conn(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&company.ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("name", req.Name).Error("Failed to create company")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create company")
	}

	return company, nil
}

// Get retrieves an active company by ID
func (r *Repository) Get(ctx context.Context, id int64) (*models.Company, error) {
	ctx, span := tracing.StartSpan(ctx, "company.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	database.WhereActive(sb)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var company models.Company
	if err := database.Conn(ctx, r.db).GetContext(ctx, &company, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "company %d not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("company_id", id).Error("Failed to get company")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get company")
	}

	return &company, nil
}

// ListActiveByType returns active companies ordered by id. An empty companyType lists
// every type.
func (r *Repository) ListActiveByType(ctx context.Context, companyType string) ([]models.Company, error) {
	ctx, span := tracing.StartSpan(ctx, "company.Repository.ListActiveByType")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	database.WhereActive(sb)
	if companyType != "" {
		sb.Where(sb.Equal("company_type", companyType))
	}
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	companies := []models.Company{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &companies, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("company_type", companyType).Error("Failed to list companies")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list companies")
	}

	return companies, nil
}

// Delete soft-deletes a company
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "company.Repository.Delete")
	defer span.End()

	now := time.Now().UTC()
	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("deleted_at", now),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", id), ub.IsNull("deleted_at"))

	query, args := ub.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("company_id", id).Error("Failed to delete company")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete company")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "company %d not found", id)
	}
	return nil
}
