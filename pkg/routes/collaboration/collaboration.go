package collaboration

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/dahlia/pkg/models"
	"github.com/Ramsey-B/dahlia/pkg/pipeline"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
)

var validate = validator.New()

// Handler serves the collaboration pipeline endpoints
type Handler struct {
	engine   *pipeline.Engine
	activity *pipeline.Activity
	batch    *pipeline.BatchExecutor
	board    *pipeline.Board
}

// NewHandler creates a new collaboration handler
func NewHandler(engine *pipeline.Engine, activity *pipeline.Activity, batch *pipeline.BatchExecutor, board *pipeline.Board) *Handler {
	return &Handler{
		engine:   engine,
		activity: activity,
		batch:    batch,
		board:    board,
	}
}

// Register registers collaboration routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/pipeline", h.Board)
	g.GET("/stats", h.Stats)
	g.POST("/batch-update", h.BatchUpdate)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.PUT("/:id/stage", h.Transition)
	g.GET("/:id/history", h.History)
	g.PUT("/:id/deadline", h.SetDeadline)
	g.PUT("/:id/block-reason", h.SetBlockReason)
	g.POST("/:id/follow-ups", h.AddFollowUp)
	g.GET("/:id/follow-ups", h.ListFollowUps)
	g.POST("/:id/dispatches", h.AddDispatch)
	g.GET("/:id/dispatches", h.ListDispatches)
}

// RegisterDispatchRoutes registers the dispatch receipt route, which is keyed
// by dispatch id rather than collaboration id
func (h *Handler) RegisterDispatchRoutes(g *echo.Group) {
	g.PUT("/:id/receipt", h.UpdateReceipt)
}

// List returns collaborations with filtering and pagination
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.List")
	defer span.End()

	filter := models.CollaborationFilter{
		Keyword: c.QueryParam("keyword"),
	}
	if stage := c.QueryParam("stage"); stage != "" {
		s := models.Stage(stage)
		if !s.IsValid() {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid stage: %s", stage)
		}
		filter.Stage = &s
	}
	if ownerID := c.QueryParam("owner_id"); ownerID != "" {
		filter.OwnerID = &ownerID
	}
	if overdue := c.QueryParam("overdue"); overdue != "" {
		value, err := strconv.ParseBool(overdue)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "overdue must be a boolean")
		}
		filter.Overdue = &value
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.engine.List(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Create creates a new collaboration
func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.Create")
	defer span.End()

	var req models.CreateCollaborationRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.engine.Create(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// Get returns a single collaboration
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.Get")
	defer span.End()

	result, err := h.engine.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Update changes display fields and the deadline. Payloads carrying a stage
// key are rejected outright: stage only moves through the transition endpoint,
// which is what keeps the audit trail complete.
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.Update")
	defer span.End()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, ok := raw["stage"]; ok {
		return httperror.NewHTTPError(http.StatusBadRequest, "stage cannot be updated directly; use the stage transition endpoint")
	}

	var req models.UpdateCollaborationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.engine.Update(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Delete removes a collaboration and its audit trail. Records with dispatched
// samples are protected; force=true overrides.
func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.Delete")
	defer span.End()

	force, _ := strconv.ParseBool(c.QueryParam("force"))
	if err := h.engine.Delete(ctx, c.Param("id"), force); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Transition moves a collaboration to another stage
func (h *Handler) Transition(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.Transition")
	defer span.End()

	var req models.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.engine.Transition(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// History returns the collaboration's full stage audit trail
func (h *Handler) History(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.History")
	defer span.End()

	result, err := h.engine.History(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// SetDeadline sets or clears the deadline
func (h *Handler) SetDeadline(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.SetDeadline")
	defer span.End()

	var req models.SetDeadlineRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.engine.SetDeadline(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// SetBlockReason sets or clears the blocking annotation
func (h *Handler) SetBlockReason(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.SetBlockReason")
	defer span.End()

	var req models.SetBlockReasonRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.engine.SetBlockReason(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Board returns the pipeline board view
func (h *Handler) Board(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.Board")
	defer span.End()

	filter := models.BoardFilter{
		Keyword: c.QueryParam("keyword"),
	}
	if ownerID := c.QueryParam("owner_id"); ownerID != "" {
		filter.OwnerID = &ownerID
	}

	result, err := h.board.View(ctx, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Stats returns aggregate pipeline counts
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.Stats")
	defer span.End()

	result, err := h.board.Stats(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// BatchUpdate applies one operation across many collaborations. The response
// is 200 even when some items fail; per-item failures are in the errors array.
func (h *Handler) BatchUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.BatchUpdate")
	defer span.End()

	var req models.BatchUpdateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.batch.Execute(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// AddFollowUp records a follow-up note
func (h *Handler) AddFollowUp(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.AddFollowUp")
	defer span.End()

	var req models.CreateFollowUpRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.activity.AddFollowUp(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// ListFollowUps returns follow-ups for a collaboration
func (h *Handler) ListFollowUps(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.ListFollowUps")
	defer span.End()

	result, err := h.activity.ListFollowUps(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// AddDispatch records a sample dispatch
func (h *Handler) AddDispatch(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.AddDispatch")
	defer span.End()

	var req models.CreateDispatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.activity.AddDispatch(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// ListDispatches returns dispatches for a collaboration
func (h *Handler) ListDispatches(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.ListDispatches")
	defer span.End()

	result, err := h.activity.ListDispatches(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

type updateReceiptRequest struct {
	Status models.ReceiptStatus `json:"status" validate:"required"`
}

// UpdateReceipt marks a dispatched sample as received or returned
func (h *Handler) UpdateReceipt(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "collaboration_handler.UpdateReceipt")
	defer span.End()

	var req updateReceiptRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.activity.UpdateReceipt(ctx, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
