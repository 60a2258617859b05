package draft

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	econtext "github.com/Ramsey-B/dahlia/pkg/context"
	"github.com/Ramsey-B/dahlia/pkg/drafts"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

// Handler serves the draft endpoints. Drafts are scoped to the acting user,
// so the user header is required on every route.
type Handler struct {
	store *drafts.Store
}

// NewHandler creates a new draft handler
func NewHandler(store *drafts.Store) *Handler {
	return &Handler{store: store}
}

// Register registers draft routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/:kind", h.Get)
	g.PUT("/:kind", h.Save)
	g.DELETE("/:kind", h.Delete)
}

func identity(c echo.Context) (string, string, error) {
	ctx := c.Request().Context()
	tenantID := econtext.GetTenantID(ctx)
	if tenantID == "" {
		return "", "", httperror.NewHTTPError(http.StatusBadRequest, "tenant id is required")
	}
	userID := econtext.GetUserID(ctx)
	if userID == "" {
		return "", "", httperror.NewHTTPError(http.StatusBadRequest, "user id is required")
	}
	return tenantID, userID, nil
}

// Get retrieves the caller's draft of the given kind
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "draft_handler.Get")
	defer span.End()

	tenantID, userID, err := identity(c)
	if err != nil {
		return err
	}

	draft, err := h.store.Get(ctx, tenantID, userID, c.Param("kind"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, draft)
}

// Save stores the caller's draft, replacing any previous one of the same kind
func (h *Handler) Save(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "draft_handler.Save")
	defer span.End()

	tenantID, userID, err := identity(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !json.Valid(body) {
		return httperror.NewHTTPError(http.StatusBadRequest, "draft payload must be valid JSON")
	}

	draft, err := h.store.Save(ctx, tenantID, userID, c.Param("kind"), body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, draft)
}

// Delete discards the caller's draft
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "draft_handler.Delete")
	defer span.End()

	tenantID, userID, err := identity(c)
	if err != nil {
		return err
	}

	if err := h.store.Delete(ctx, tenantID, userID, c.Param("kind")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
