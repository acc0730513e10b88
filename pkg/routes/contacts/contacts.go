package contacts

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/iris/pkg/contacts"
	appctx "github.com/Ramsey-B/iris/pkg/context"
	"github.com/Ramsey-B/iris/pkg/models"
	"github.com/Ramsey-B/iris/pkg/routes"
	"github.com/Ramsey-B/iris/pkg/tracing"
)

// Service is satisfied by *contacts.Service
type Service interface {
	FindPersonByContact(ctx context.Context, contactType models.ContactType, value string) (*models.Person, error)
	CheckAndAddContacts(ctx context.Context, req models.ConsolidateContactsRequest) (*contacts.Result, error)
	ListProposals(ctx context.Context, status models.ProposalStatus, limit int) ([]models.ContactAdditionProposal, error)
	ConfirmProposal(ctx context.Context, id uuid.UUID, reviewer string) (*models.ContactAdditionProposal, error)
	RejectProposal(ctx context.Context, id uuid.UUID, reviewer string) (*models.ContactAdditionProposal, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts /contacts and /contact-proposals under g
func (h *Handler) Register(g *echo.Group) {
	g.GET("/contacts/lookup", h.Lookup)
	g.POST("/contacts/consolidate", h.Consolidate)

	g.GET("/contact-proposals", h.ListProposals)
	g.POST("/contact-proposals/:id/confirm", h.Confirm)
	g.POST("/contact-proposals/:id/reject", h.Reject)
}

// Lookup handles GET /contacts/lookup?type=&value=
func (h *Handler) Lookup(c echo.Context) error {
	contactType, ok := models.ParseContactType(c.QueryParam("type"))
	if !ok {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown contact type %q", c.QueryParam("type"))
	}

	person, err := h.service.FindPersonByContact(c.Request().Context(), contactType, c.QueryParam("value"))
	if err != nil {
		return err
	}
	if person == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "no person holds this contact")
	}
	return c.JSON(http.StatusOK, person)
}

// Consolidate handles POST /contacts/consolidate
func (h *Handler) Consolidate(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "contacts.Handler.Consolidate")
	defer span.End()

	req, err := routes.BindRequest[models.ConsolidateContactsRequest](c)
	if err != nil {
		return err
	}

	result, err := h.service.CheckAndAddContacts(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// ListProposals handles GET /contact-proposals?status=&limit=
func (h *Handler) ListProposals(c echo.Context) error {
	status := models.ProposalStatus(c.QueryParam("status"))
	switch status {
	case "", models.ProposalStatusPending, models.ProposalStatusConfirmed, models.ProposalStatusRejected:
	default:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown proposal status %q", status)
	}

	limit, err := routes.QueryInt(c, "limit", 100, 1, 500)
	if err != nil {
		return err
	}

	proposals, err := h.service.ListProposals(c.Request().Context(), status, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, proposals)
}

// Confirm handles POST /contact-proposals/:id/confirm
func (h *Handler) Confirm(c echo.Context) error {
	return h.resolve(c, h.service.ConfirmProposal)
}

// Reject handles POST /contact-proposals/:id/reject
func (h *Handler) Reject(c echo.Context) error {
	return h.resolve(c, h.service.RejectProposal)
}

func (h *Handler) resolve(c echo.Context, fn func(ctx context.Context, id uuid.UUID, reviewer string) (*models.ContactAdditionProposal, error)) error {
	id, err := routes.ParseUUID(c, "id")
	if err != nil {
		return err
	}

	var body models.ResolveProposalRequest
	if c.Request().ContentLength > 0 {
		if body, err = routes.BindRequest[models.ResolveProposalRequest](c); err != nil {
			return err
		}
	}
	reviewer := body.Reviewer
	if reviewer == "" {
		reviewer = appctx.GetUserID(c.Request().Context())
	}

	proposal, err := fn(c.Request().Context(), id, reviewer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, proposal)
}
