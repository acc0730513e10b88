// Package catalog exposes the catalog repositories to the matching engine.
package catalog

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

type CompanyLister interface {
	ListActiveByType(ctx context.Context, companyType string) ([]models.Company, error)
}

type ProjectLister interface {
	ListActiveByStatus(ctx context.Context, status string) ([]models.Project, error)
}

type PersonLister interface {
	ListActive(ctx context.Context, personType string) ([]models.Person, error)
}

// Store reads the active catalog on every call. Nothing is cached so a search always
// sees the rows committed before it started.
type Store struct {
	companies CompanyLister
	projects  ProjectLister
	persons   PersonLister
}

func NewStore(companies CompanyLister, projects ProjectLister, persons PersonLister) *Store {
	return &Store{
		companies: companies,
		projects:  projects,
		persons:   persons,
	}
}

var _ matching.Catalog = (*Store)(nil)

// ActiveRecords implements matching.Catalog
func (s *Store) ActiveRecords(ctx context.Context, category models.Category, subtype string) ([]matching.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Store.ActiveRecords")
	defer span.End()

	switch category {
	case models.CategoryCompany:
		companies, err := s.companies.ListActiveByType(ctx, subtype)
		if err != nil {
			return nil, err
		}
		records := make([]matching.Record, 0, len(companies))
		for i := range companies {
			records = append(records, &companies[i])
		}
		return records, nil
	case models.CategoryProject:
		projects, err := s.projects.ListActiveByStatus(ctx, subtype)
		if err != nil {
			return nil, err
		}
		records := make([]matching.Record, 0, len(projects))
		for i := range projects {
			records = append(records, &projects[i])
		}
		return records, nil
	case models.CategoryPerson:
		persons, err := s.persons.ListActive(ctx, subtype)
		if err != nil {
			return nil, err
		}
		records := make([]matching.Record, 0, len(persons))
		for i := range persons {
			records = append(records, &persons[i])
		}
		return records, nil
	}
	return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown category %q", category)
}
