package matches

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/iris/pkg/matching"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/routes"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

// Searcher is satisfied by *matching.Engine
type Searcher interface {
	SearchMatches(ctx context.Context, category models.Category, query map[string]string, opts matching.SearchOptions) ([]models.MatchCandidate, error)
	SearchByName(ctx context.Context, category models.Category, name string, limit int) ([]models.MatchCandidate, error)
}

type Handler struct {
	engine Searcher
}

func NewHandler(engine Searcher) *Handler {
	return &Handler{engine: engine}
}

// Register registers match search routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/:category/search", h.Search)
	g.GET("/:category/by-name", h.ByName)
}

func parseCategory(c echo.Context) (models.Category, error) {
	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown category %q", c.Param("category"))
	}
	return category, nil
}

// Search handles POST /matches/:category/search
func (h *Handler) Search(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "matches.Handler.Search")
	defer span.End()

	category, err := parseCategory(c)
	if err != nil {
		return err
	}

	req, err := routes.BindRequest[models.SearchMatchesRequest](c)
	if err != nil {
		return err
	}

	candidates, err := h.engine.SearchMatches(ctx, category, req.Fields, matching.SearchOptions{
		Limit:   req.Limit,
		Subtype: req.Subtype,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.SearchMatchesResponse{
		Category:   category,
		Candidates: candidates,
	})
}

// ByName handles GET /matches/:category/by-name?name=&limit=
func (h *Handler) ByName(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "matches.Handler.ByName")
	defer span.End()

	category, err := parseCategory(c)
	if err != nil {
		return err
	}

	limit, err := routes.QueryInt(c, "limit", 0, 0, 100)
	if err != nil {
		return err
	}

	candidates, err := h.engine.SearchByName(ctx, category, c.QueryParam("name"), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.SearchMatchesResponse{
		Category:   category,
		Candidates: candidates,
	})
}
