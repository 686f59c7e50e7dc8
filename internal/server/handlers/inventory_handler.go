package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/auth"
	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// InventoryService is the inflow record API used by InventoryHandler.
type InventoryService interface {
	CreateInflow(ctx context.Context, user models.User, input models.InflowInput) (models.InflowRecord, error)
	UpdateInflow(ctx context.Context, id string, input models.InflowInput) (models.InflowRecord, error)
	GetInflow(ctx context.Context, id string) (models.InflowRecord, error)
	DeleteInflow(ctx context.Context, id string) error
	SearchInflow(ctx context.Context, field models.SearchField, query string) ([]models.InflowRecord, error)
	ListInflow(ctx context.Context, offset, limit int) ([]models.InflowRecord, error)
	ListOutflow(ctx context.Context, offset, limit int) ([]models.OutflowRecord, error)
}

// InventoryHandler exposes inflow records and the outflow history over HTTP.
type InventoryHandler struct {
	svc    InventoryService
	logger *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(svc InventoryService, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

// Me returns the authenticated user.
func (h *InventoryHandler) Me(c *gin.Context) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create records a new inflow.
func (h *InventoryHandler) Create(c *gin.Context) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var input models.InflowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid inflow payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := h.svc.CreateInflow(c.Request.Context(), user, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Get returns one inflow record.
func (h *InventoryHandler) Get(c *gin.Context) {
	record, err := h.svc.GetInflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Update edits an inflow record.
func (h *InventoryHandler) Update(c *gin.Context) {
	var input models.InflowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid inflow payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	record, err := h.svc.UpdateInflow(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Delete removes an inflow record.
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteInflow(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search matches inflow records by name or mobile number.
func (h *InventoryHandler) Search(c *gin.Context) {
	field := models.SearchField(c.DefaultQuery("field", string(models.SearchByName)))
	records, err := h.svc.SearchInflow(c.Request.Context(), field, c.Query("q"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

// ListInflow returns a range of inflow records, newest first.
func (h *InventoryHandler) ListInflow(c *gin.Context) {
	offset, limit, err := rangeParams(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	records, err := h.svc.ListInflow(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

// ListOutflow returns a range of outflow records, newest first.
func (h *InventoryHandler) ListOutflow(c *gin.Context) {
	offset, limit, err := rangeParams(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	records, err := h.svc.ListOutflow(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

func rangeParams(c *gin.Context) (int, int, error) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}
