package person

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

const table = "persons"

var columns = []string{"id", "name", "person_type", "phones", "emails", "telegram_usernames", "is_active", "created_at", "updated_at", "deleted_at"}

// row is the persons table layout; the three contact lists are jsonb arrays
type row struct {
	ID         int64                    `db:"id"`
	Name       string                   `db:"name"`
	PersonType models.PersonType        `db:"person_type"`
	Phones     database.JSONB[[]string] `db:"phones"`
	Emails     database.JSONB[[]string] `db:"emails"`
	Telegrams  database.JSONB[[]string] `db:"telegram_usernames"`
	IsActive   bool                     `db:"is_active"`
	CreatedAt  time.Time                `db:"created_at"`
	UpdatedAt  time.Time                `db:"updated_at"`
	DeletedAt  *time.Time               `db:"deleted_at"`
}

func (r row) toModel() models.Person {
	return models.Person{
		ID:         r.ID,
		Name:       r.Name,
		PersonType: r.PersonType,
		Contacts: models.ContactSet{
			Phones:    nonNil(r.Phones.Data),
			Emails:    nonNil(r.Emails.Data),
			Telegrams: nonNil(r.Telegrams.Data),
		},
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DeletedAt: r.DeletedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Repository handles person persistence
type Repository struct {
	db       database.DB
	logger   ectologger.Logger
	capacity int
}

// NewRepository creates a person repository enforcing capacity values per contact list
func NewRepository(db database.DB, logger ectologger.Logger, capacity int) *Repository {
	if capacity <= 0 {
		capacity = models.DefaultContactCapacity
	}
	return &Repository{
		db:       db,
		logger:   logger,
		capacity: capacity,
	}
}

// prepareContacts cleans the lists and enforces capacity before any write.
func (r *Repository) prepareContacts(contacts models.ContactSet) (models.ContactSet, error) {
	contacts.Clean()
	if err := contacts.Validate(r.capacity); err != nil {
		return contacts, httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return contacts, nil
}

// Create inserts an active person
func (r *Repository) Create(ctx context.Context, req models.CreatePersonRequest) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Create")
	defer span.End()

	contacts, err := r.prepareContacts(req.Contacts)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	person := &models.Person{
		Name:       req.Name,
		PersonType: req.PersonType,
		Contacts:   contacts,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols("name", "person_type", "phones", "emails", "telegram_usernames", "is_active", "created_at", "updated_at")
	ib.Values(
		person.Name,
		person.PersonType,
		database.NewJSONB(contacts.Phones),
		database.NewJSONB(contacts.Emails),
		database.NewJSONB(contacts.Telegrams),
		person.IsActive,
		person.CreatedAt,
		person.UpdatedAt,
	)

	query, args := ib.Build()
	query += " RETURNING id"
	if err := database.Conn(ctx, r.db).QueryRowxContext(ctx, query, args...).Scan(&person.ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("name", req.Name).Error("Failed to create person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create person")
	}

	return person, nil
}

// Get retrieves an active person by ID
func (r *Repository) Get(ctx context.Context, id int64) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Get")
	defer span.End()

	return r.get(ctx, id, false)
}

// GetForUpdate retrieves an active person and locks the row until the surrounding
// transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.GetForUpdate")
	defer span.End()

	return r.get(ctx, id, true)
}

func (r *Repository) get(ctx context.Context, id int64, forUpdate bool) (*models.Person, error) {
	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	database.WhereActive(sb)
	sb.Where(sb.Equal("id", id))
	if forUpdate {
		sb.ForUpdate()
	}

	query, args := sb.Build()
	var rec row
	if err := database.Conn(ctx, r.db).GetContext(ctx, &rec, query, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "person %d not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithField("person_id", id).Error("Failed to get person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get person")
	}

	person := rec.toModel()
	return &person, nil
}

// ListActive returns active persons ordered by id. An empty personType lists all.
func (r *Repository) ListActive(ctx context.Context, personType string) ([]models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.ListActive")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	database.WhereActive(sb)
	if personType != "" {
		sb.Where(sb.Equal("person_type", personType))
	}
	sb.OrderBy("id ASC")

	query, args := sb.Build()
	var rows []row
	if err := database.Conn(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("person_type", personType).Error("Failed to list persons")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list persons")
	}

	persons := make([]models.Person, 0, len(rows))
	for _, rec := range rows {
		persons = append(persons, rec.toModel())
	}
	return persons, nil
}

// UpdateContacts replaces the three contact lists of a person
func (r *Repository) UpdateContacts(ctx context.Context, id int64, contacts models.ContactSet) error {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.UpdateContacts")
	defer span.End()

	contacts, err := r.prepareContacts(contacts)
	if err != nil {
		return err
	}

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("phones", database.NewJSONB(contacts.Phones)),
		ub.Assign("emails", database.NewJSONB(contacts.Emails)),
		ub.Assign("telegram_usernames", database.NewJSONB(contacts.Telegrams)),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id), ub.IsNull("deleted_at"))

	query, args := ub.Build()
	result, err := database.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("person_id", id).Error("Failed to update person contacts")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update person contacts")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "person %d not found", id)
	}
	return nil
}

// Delete soft-deletes a person
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Delete")
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
		r.logger.WithContext(ctx).WithError(err).WithField("person_id", id).Error("Failed to delete person")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete person")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "person %d not found", id)
	}
	return nil
}
