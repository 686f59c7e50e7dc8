package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/warehouse/internal/auth"
	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/listing"
	"github.com/mamadbah2/warehouse/internal/repository"
	"github.com/mamadbah2/warehouse/internal/service/outflow"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.Invalid("name is required"), http.StatusBadRequest},
		{fmt.Errorf("open: %w", listing.ErrUnknownCollection), http.StatusBadRequest},
		{auth.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("find inflow x: %w", repository.ErrNotFound), http.StatusNotFound},
		{listing.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("insert: %w", repository.ErrDuplicate), http.StatusConflict},
		{outflow.ErrWorkflowBusy, http.StatusConflict},
		{fmt.Errorf("%w: 21211", outflow.ErrNotificationFailed), http.StatusBadGateway},
		{errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

type stubOutflow struct {
	wf  models.OutflowWorkflow
	err error
}

func (s stubOutflow) Quote(context.Context, string, string, int) (outflow.Quotation, error) {
	return outflow.Quotation{}, s.err
}

func (s stubOutflow) Start(context.Context, models.User, models.OutflowInput) (models.OutflowWorkflow, error) {
	return s.wf, s.err
}

func (s stubOutflow) GetWorkflow(context.Context, string) (models.OutflowWorkflow, error) {
	return s.wf, s.err
}

type stubLedger struct{ from, to time.Time }

func (s *stubLedger) ExportXLSX(_ context.Context, from, to time.Time) ([]byte, error) {
	s.from, s.to = from, to
	return []byte("xlsx"), nil
}

func serveOutflow(h *OutflowHandler, method, path string, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	withUser := func(c *gin.Context) {
		auth.SetUser(c, models.User{ID: "u-1"})
		c.Next()
	}
	r.POST("/outflow", withUser, h.Start)
	r.GET("/outflow/export.xlsx", withUser, h.Export)

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStartResponses(t *testing.T) {
	tests := []struct {
		name       string
		stub       stubOutflow
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "completed",
			stub:       stubOutflow{wf: models.OutflowWorkflow{ID: "wf-1", State: models.WorkflowNotified}},
			body:       `{"inflow_id":"in-1"}`,
			wantStatus: http.StatusCreated,
			wantBody:   `"state":"notified"`,
		},
		{
			name: "blocking notification failure keeps the workflow",
			stub: stubOutflow{
				wf:  models.OutflowWorkflow{ID: "wf-1", State: models.WorkflowNotifyFailed, NotifyReason: models.NotifyInvalidRecipient},
				err: fmt.Errorf("%w: invalid recipient", outflow.ErrNotificationFailed),
			},
			body:       `{"inflow_id":"in-1"}`,
			wantStatus: http.StatusBadGateway,
			wantBody:   `"notify_reason":"invalid_recipient"`,
		},
		{
			name: "stalled workflow is accepted",
			stub: stubOutflow{
				wf:  models.OutflowWorkflow{ID: "wf-1", State: models.WorkflowOutflowRecorded},
				err: errors.New("clear inflow: connection reset"),
			},
			body:       `{"inflow_id":"in-1"}`,
			wantStatus: http.StatusAccepted,
			wantBody:   `"state":"outflow_recorded"`,
		},
		{
			name: "workflow already running",
			stub: stubOutflow{
				wf:  models.OutflowWorkflow{ID: "in-1", State: models.WorkflowPending},
				err: outflow.ErrWorkflowBusy,
			},
			body:       `{"inflow_id":"in-1"}`,
			wantStatus: http.StatusConflict,
			wantBody:   `"state":"pending"`,
		},
		{
			name: "inflow already moved out",
			stub: stubOutflow{
				wf:  models.OutflowWorkflow{ID: "in-1", State: models.WorkflowNotified},
				err: outflow.ErrAlreadyMovedOut,
			},
			body:       `{"inflow_id":"in-1"}`,
			wantStatus: http.StatusConflict,
			wantBody:   "already moved out",
		},
		{
			name:       "validation",
			stub:       stubOutflow{err: models.Invalid("inflow_id is required")},
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "inflow_id is required",
		},
		{
			name:       "malformed body",
			body:       `{"quantity":"three"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOutflowHandler(tt.stub, &stubLedger{}, time.UTC, nil)
			rec := serveOutflow(h, http.MethodPost, "/outflow", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestExportDefaultsToCurrentMonth(t *testing.T) {
	ledger := &stubLedger{}
	h := NewOutflowHandler(stubOutflow{}, ledger, time.UTC, nil)
	h.now = func() time.Time { return time.Date(2024, 2, 17, 9, 0, 0, 0, time.UTC) }

	rec := serveOutflow(h, http.MethodGet, "/outflow/export.xlsx", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ledger.from)
	assert.Equal(t, time.Date(2024, 2, 17, 0, 0, 0, 0, time.UTC), ledger.to)

	rec = serveOutflow(h, http.MethodGet, "/outflow/export.xlsx?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
