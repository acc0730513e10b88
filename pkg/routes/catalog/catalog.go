package catalog

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/routes"
)

type CompanyStore interface {
	Create(ctx context.Context, req models.CreateCompanyRequest) (*models.Company, error)
	Get(ctx context.Context, id int64) (*models.Company, error)
	ListActiveByType(ctx context.Context, companyType string) ([]models.Company, error)
	Delete(ctx context.Context, id int64) error
}

type ProjectStore interface {
	Create(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	ListActiveByStatus(ctx context.Context, status string) ([]models.Project, error)
	Delete(ctx context.Context, id int64) error
}

type PersonStore interface {
	Create(ctx context.Context, req models.CreatePersonRequest) (*models.Person, error)
	Get(ctx context.Context, id int64) (*models.Person, error)
	ListActive(ctx context.Context, personType string) ([]models.Person, error)
	Delete(ctx context.Context, id int64) error
}

// Handler serves the catalog tables
type Handler struct {
	companies CompanyStore
	projects  ProjectStore
	persons   PersonStore
}

func NewHandler(companies CompanyStore, projects ProjectStore, persons PersonStore) *Handler {
	return &Handler{
		companies: companies,
		projects:  projects,
		persons:   persons,
	}
}

// Register registers catalog routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/companies", h.ListCompanies)
	g.POST("/companies", h.CreateCompany)
	g.GET("/companies/:id", h.GetCompany)
	g.DELETE("/companies/:id", h.DeleteCompany)

	g.GET("/projects", h.ListProjects)
	g.POST("/projects", h.CreateProject)
	g.GET("/projects/:id", h.GetProject)
	g.DELETE("/projects/:id", h.DeleteProject)

	g.GET("/persons", h.ListPersons)
	g.POST("/persons", h.CreatePerson)
	g.GET("/persons/:id", h.GetPerson)
	g.DELETE("/persons/:id", h.DeletePerson)
}

// subtypeFilter reads an optional subtype query parameter and rejects unknown values
func subtypeFilter(c echo.Context, param string, category models.Category) (string, error) {
	value := c.QueryParam(param)
	if value == "" {
		return "", nil
	}
	if !ectolinq.Contains(models.Subtypes(category), value) {
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown %s %q", param, value)
	}
	return value, nil
}

// ListCompanies handles GET /companies?type=
func (h *Handler) ListCompanies(c echo.Context) error {
	companyType, err := subtypeFilter(c, "type", models.CategoryCompany)
	if err != nil {
		return err
	}
	companies, err := h.companies.ListActiveByType(c.Request().Context(), companyType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, companies)
}

func (h *Handler) CreateCompany(c echo.Context) error {
	req, err := routes.BindRequest[models.CreateCompanyRequest](c)
	if err != nil {
		return err
	}
	company, err := h.companies.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, company)
}

func (h *Handler) GetCompany(c echo.Context) error {
	id, err := routes.ParseID(c, "id")
	if err != nil {
		return err
	}
	company, err := h.companies.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, company)
}

func (h *Handler) DeleteCompany(c echo.Context) error {
	id, err := routes.ParseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.companies.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListProjects handles GET /projects?status=
func (h *Handler) ListProjects(c echo.Context) error {
	status, err := subtypeFilter(c, "status", models.CategoryProject)
	if err != nil {
		return err
	}
	projects, err := h.projects.ListActiveByStatus(c.Request().Context(), status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *Handler) CreateProject(c echo.Context) error {
	req, err := routes.BindRequest[models.CreateProjectRequest](c)
	if err != nil {
		return err
	}
	project, err := h.projects.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, project)
}

func (h *Handler) GetProject(c echo.Context) error {
	id, err := routes.ParseID(c, "id")
	if err != nil {
		return err
	}
	project, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

func (h *Handler) DeleteProject(c echo.Context) error {
	id, err := routes.ParseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPersons handles GET /persons?type=
func (h *Handler) ListPersons(c echo.Context) error {
	personType, err := subtypeFilter(c, "type", models.CategoryPerson)
	if err != nil {
		return err
	}
	persons, err := h.persons.ListActive(c.Request().Context(), personType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, persons)
}

func (h *Handler) CreatePerson(c echo.Context) error {
	req, err := routes.BindRequest[models.CreatePersonRequest](c)
	if err != nil {
		return err
	}
	person, err := h.persons.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, person)
}

func (h *Handler) GetPerson(c echo.Context) error {
	id, err := routes.ParseID(c, "id")
	if err != nil {
		return err
	}
	person, err := h.persons.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, person)
}

func (h *Handler) DeletePerson(c echo.Context) error {
	id, err := routes.ParseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.persons.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
