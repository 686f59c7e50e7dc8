package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// SettingsService manages storage areas and item types.
type SettingsService interface {
	StorageAreas(ctx context.Context) ([]models.StorageArea, error)
	AddStorageArea(ctx context.Context, code string) (models.StorageArea, error)
	DeleteStorageArea(ctx context.Context, id string) error
	ItemTypes(ctx context.Context) ([]models.ItemType, error)
	AddItemType(ctx context.Context, name string) (models.ItemType, error)
	DeleteItemType(ctx context.Context, id string) error
}

// SettingsHandler exposes storage area and item type configuration.
type SettingsHandler struct {
	svc    SettingsService
	logger *zap.Logger
}

// NewSettingsHandler constructs the HTTP handler adapter.
func NewSettingsHandler(svc SettingsService, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{svc: svc, logger: logger}
}

type storageAreaRequest struct {
	Code string `json:"area_code"`
}

type itemTypeRequest struct {
	Name string `json:"name"`
}

func (h *SettingsHandler) ListStorageAreas(c *gin.Context) {
	areas, err := h.svc.StorageAreas(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": areas})
}

func (h *SettingsHandler) AddStorageArea(c *gin.Context) {
	var req storageAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	area, err := h.svc.AddStorageArea(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, area)
}

func (h *SettingsHandler) DeleteStorageArea(c *gin.Context) {
	if err := h.svc.DeleteStorageArea(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SettingsHandler) ListItemTypes(c *gin.Context) {
	types, err := h.svc.ItemTypes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": types})
}

func (h *SettingsHandler) AddItemType(c *gin.Context) {
	var req itemTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	itemType, err := h.svc.AddItemType(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, itemType)
}

func (h *SettingsHandler) DeleteItemType(c *gin.Context) {
	if err := h.svc.DeleteItemType(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
