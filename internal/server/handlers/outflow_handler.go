package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/auth"
	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/service/outflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// OutflowService is the outflow workflow API used by OutflowHandler.
type OutflowService interface {
	Quote(ctx context.Context, inflowID, outflowDate string, quantity int) (outflow.Quotation, error)
	Start(ctx context.Context, user models.User, input models.OutflowInput) (models.OutflowWorkflow, error)
	GetWorkflow(ctx context.Context, id string) (models.OutflowWorkflow, error)
}

// LedgerExporter renders the outflow ledger as a workbook.
type LedgerExporter interface {
	ExportXLSX(ctx context.Context, from, to time.Time) ([]byte, error)
}

// OutflowHandler exposes price quotes, outflow workflows and the ledger export.
type OutflowHandler struct {
	svc      OutflowService
	ledger   LedgerExporter
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewOutflowHandler constructs the HTTP handler adapter. location decides the
// default export range.
func NewOutflowHandler(svc OutflowService, ledger LedgerExporter, location *time.Location, logger *zap.Logger) *OutflowHandler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutflowHandler{svc: svc, ledger: ledger, location: location, logger: logger, now: time.Now}
}

// Quote previews the storage fee for an inflow record.
func (h *OutflowHandler) Quote(c *gin.Context) {
	quantity, err := queryInt(c, "quantity", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	quote, err := h.svc.Quote(c.Request.Context(), c.Param("id"), c.Query("outflow_date"), quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// Start moves an inflow record out of storage. When the records were moved but
// the notification failed with a blocking reason, the workflow is returned with 502.
func (h *OutflowHandler) Start(c *gin.Context) {
	user, err := auth.CurrentUser(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var input models.OutflowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid outflow payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	wf, err := h.svc.Start(c.Request.Context(), user, input)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, wf)
	case errors.Is(err, outflow.ErrNotificationFailed):
		h.logger.Warn("outflow recorded but notification failed",
			zap.String("workflow_id", wf.ID),
			zap.String("reason", string(wf.NotifyReason)))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "workflow": wf})
	case errors.Is(err, outflow.ErrWorkflowBusy), errors.Is(err, outflow.ErrAlreadyMovedOut):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "workflow": wf})
	case wf.ID != "":
		// The workflow was persisted and will be resumed by the scheduler.
		h.logger.Warn("outflow workflow stalled", zap.String("workflow_id", wf.ID), zap.Error(err))
		c.JSON(http.StatusAccepted, gin.H{"error": err.Error(), "workflow": wf})
	default:
		respondError(c, h.logger, err)
	}
}

// Workflow returns the persisted state of one outflow workflow.
func (h *OutflowHandler) Workflow(c *gin.Context) {
	wf, err := h.svc.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

// Export streams the outflow ledger between from and to (inclusive) as xlsx.
// Both default to the current month.
func (h *OutflowHandler) Export(c *gin.Context) {
	today := h.now().In(h.location)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	from, err := models.ParseDate("from", c.Query("from"), monthStart)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := models.ParseDate("to", c.Query("to"), today)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data, err := h.ledger.ExportXLSX(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	name := fmt.Sprintf("outflow_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
