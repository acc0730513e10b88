package duplicates

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/iris/config"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/routes"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

// Checker is satisfied by *duplicates.Detector
type Checker interface {
	IsDuplicate(ctx context.Context, text, authorID string) (models.DuplicateVerdict, error)
	CalculateSimilarity(a, b string) float64
	Config() config.DuplicateDetectionConfig
}

type History interface {
	Create(ctx context.Context, req *models.CastingRequest) (*models.CastingRequest, error)
}

type Handler struct {
	detector Checker
	history  History
}

func NewHandler(detector Checker, history History) *Handler {
	return &Handler{detector: detector, history: history}
}

// Register registers duplicate detection routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/check", h.Check)
	g.POST("/similarity", h.Similarity)
	g.POST("/requests", h.Record)
	g.GET("/settings", h.Settings)
	g.GET("/presets", h.Presets)
}

// Check handles POST /duplicates/check
func (h *Handler) Check(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicates.Handler.Check")
	defer span.End()

	req, err := routes.BindRequest[models.CheckDuplicateRequest](c)
	if err != nil {
		return err
	}

	verdict, err := h.detector.IsDuplicate(ctx, req.Text, req.AuthorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verdict)
}

// Similarity handles POST /duplicates/similarity
func (h *Handler) Similarity(c echo.Context) error {
	req, err := routes.BindRequest[models.SimilarityRequest](c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.SimilarityResponse{
		Method:     string(h.detector.Config().ComparisonMethod),
		Similarity: h.detector.CalculateSimilarity(req.A, req.B),
	})
}

// Record handles POST /duplicates/requests, adding a request to the history
func (h *Handler) Record(c echo.Context) error {
	req, err := routes.BindRequest[models.CheckDuplicateRequest](c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Text) == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	created, err := h.history.Create(c.Request().Context(), &models.CastingRequest{
		Text:     req.Text,
		AuthorID: req.AuthorID,
		Source:   "api",
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// Settings handles GET /duplicates/settings
func (h *Handler) Settings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.detector.Config())
}

// Presets handles GET /duplicates/presets
func (h *Handler) Presets(c echo.Context) error {
	presets, err := config.Presets()
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, presets)
}
