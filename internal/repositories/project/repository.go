package project

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

const table = "projects"

var columns = []string{"id", "title", "description", "project_type", "status", "company_id", "is_active", "created_at", "updated_at", "deleted_at"}

// Repository handles project persistence
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

// Create inserts an active project
func (r *Repository) Create(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	project := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		ProjectType: req.ProjectType,
		Status:      req.Status,
		CompanyID:   req.CompanyID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("title", "description", "project_type", "status", "company_id", "is_active", "created_at", "updated_at")
	ib.Values(project.Title, project.Description, project.ProjectType, project.Status, project.CompanyID, project.IsActive, project.CreatedAt, project.UpdatedAt)

	query, args := ib.Build()
	query += " RETURNING id"
	if err := database.Conn(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&project.ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("title", req.Title).Error("Failed to create project")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create project")
	}

	return project, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	database.WhereActive(sb)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var project models.Project
	if err := database.Conn(ctx, r.db).GetContext(ctx, &project, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "project %d not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("project_id", id).Error("Failed to get project")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get project")
	}

	return &project, nil
}

// ListActiveByStatus returns active projects ordered by id. An empty status lists all.
func (r *Repository) ListActiveByStatus(ctx context.Context, status string) ([]models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.ListActiveByStatus")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	database.WhereActive(sb)
	if status != "" {
		sb.Where(sb.Equal("status", status))
	}
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	projects := []models.Project{}
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &projects, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("status", status).Error("Failed to list projects")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list projects")
	}

	return projects, nil
}

// Delete soft-deletes a project
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "project.Repository.Delete")
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
		r.logger.WithContext(ctx).WithError(err).WithField("project_id", id).Error("Failed to delete project")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete project")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "project %d not found", id)
	}
	return nil
}
