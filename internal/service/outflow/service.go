// Package outflow moves inflow records out of storage.
//
// Every transition is persisted as an OutflowWorkflow that advances through
// pending, outflow_recorded, inflow_cleared and finally notified or
// notify_failed. A workflow is keyed by the inflow record it moves and the
// outflow record shares that ID, so an inflow moves out at most once and each
// step can be replayed after a crash without duplicating data.
package outflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/metrics"
	"github.com/mamadbah2/warehouse/internal/pricing"
	"github.com/mamadbah2/warehouse/internal/repository"
	"github.com/mamadbah2/warehouse/internal/service/notify"
)

const resumeBatchSize = 50

var (
	// ErrNotificationFailed is returned when the records were moved but the
	// depositor could not be told. The workflow is still returned to the caller.
	ErrNotificationFailed = errors.New("retrieval notification failed")
	// ErrWorkflowBusy is returned when the workflow is already being advanced.
	ErrWorkflowBusy = errors.New("workflow already running")
	// ErrAlreadyMovedOut is returned when the inflow record's workflow has finished.
	ErrAlreadyMovedOut = fmt.Errorf("inflow already moved out: %w", repository.ErrDuplicate)
)

// Store is the persistence required by the workflow.
type Store interface {
	GetInflow(ctx context.Context, id string) (models.InflowRecord, error)
	DeleteInflow(ctx context.Context, id string) error
	InsertOutflow(ctx context.Context, record models.OutflowRecord) error

	InsertWorkflow(ctx context.Context, wf models.OutflowWorkflow) error
	SaveWorkflow(ctx context.Context, wf models.OutflowWorkflow) error
	GetWorkflow(ctx context.Context, id string) (models.OutflowWorkflow, error)
	StaleWorkflows(ctx context.Context, cutoff time.Time, limit int) ([]models.OutflowWorkflow, error)
}

// Catalog resolves overrides of the storage area and item type.
type Catalog interface {
	HasStorageArea(ctx context.Context, code string) (bool, error)
	ItemType(ctx context.Context, id string) (models.ItemType, error)
}

// Quotation is a price preview for moving one inflow record out.
type Quotation struct {
	InflowID    string    `json:"inflow_id"`
	InflowDate  time.Time `json:"inflow_date"`
	OutflowDate time.Time `json:"outflow_date"`
	Quantity    int       `json:"quantity"`
	pricing.Quote
}

// Service runs outflow workflows.
type Service struct {
	store          Store
	catalog        Catalog
	notifier       notify.Notifier
	metrics        *metrics.Recorder
	location       *time.Location
	allowBackdated bool
	logger         *zap.Logger

	now     func() time.Time
	backoff func() retry.Backoff

	mu      sync.Mutex
	running map[string]struct{}
}

// NewService wires a new outflow service.
func NewService(
	store Store,
	catalog Catalog,
	notifier notify.Notifier,
	cfg config.OutflowConfig,
	location *time.Location,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *Service {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:          store,
		catalog:        catalog,
		notifier:       notifier,
		metrics:        recorder,
		location:       location,
		allowBackdated: cfg.AllowBackdated,
		logger:         logger,
		now:            time.Now,
		backoff:        defaultBackoff,
		running:        map[string]struct{}{},
	}
}

func defaultBackoff() retry.Backoff {
	b := retry.NewExponential(200 * time.Millisecond)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxRetries(3, b)
}

// Quote previews the fee for moving inflowID out on outflowDate.
// An empty date means today and a zero quantity means the stored quantity.
func (s *Service) Quote(ctx context.Context, inflowID, outflowDate string, quantity int) (Quotation, error) {
	inflow, err := s.store.GetInflow(ctx, strings.TrimSpace(inflowID))
	if err != nil {
		return Quotation{}, err
	}

	date, err := models.ParseDate("outflow_date", outflowDate, s.now().In(s.location))
	if err != nil {
		return Quotation{}, err
	}
	if quantity == 0 {
		quantity = inflow.Quantity
	}
	if quantity < 0 {
		return Quotation{}, models.Invalid("quantity must be a positive integer")
	}

	quote, err := pricing.ComputeStorageFee(inflow.InflowDate, date, quantity)
	if err != nil {
		return Quotation{}, models.Invalid("%v", err)
	}
	return Quotation{
		InflowID:    inflow.ID,
		InflowDate:  inflow.InflowDate,
		OutflowDate: date,
		Quantity:    quantity,
		Quote:       quote,
	}, nil
}

// Start validates input, freezes the price and runs a new workflow to completion.
// The run continues even if ctx is cancelled once the workflow is persisted.
// When the inflow record already has an unfinished workflow, that workflow is
// resumed with its frozen outflow record and input is ignored.
func (s *Service) Start(ctx context.Context, user models.User, input models.OutflowInput) (models.OutflowWorkflow, error) {
	inflowID := strings.TrimSpace(input.InflowID)
	if inflowID == "" {
		return models.OutflowWorkflow{}, models.Invalid("inflow_id is required")
	}
	inflow, err := s.store.GetInflow(ctx, inflowID)
	if err != nil {
		return models.OutflowWorkflow{}, err
	}

	record, err := s.buildOutflow(ctx, inflow, input)
	if err != nil {
		return models.OutflowWorkflow{}, err
	}

	now := s.now().UTC()
	id := inflow.ID
	record.ID = id
	record.UserID = user.ID
	record.CreatedAt = now

	wf := models.OutflowWorkflow{
		ID:        id,
		UserID:    user.ID,
		InflowID:  inflow.ID,
		Outflow:   record,
		State:     models.WorkflowPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertWorkflow(ctx, wf); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return models.OutflowWorkflow{}, fmt.Errorf("persist workflow: %w", err)
		}
		existing, err := s.store.GetWorkflow(ctx, id)
		if err != nil {
			return models.OutflowWorkflow{}, fmt.Errorf("load workflow: %w", err)
		}
		if existing.State.Terminal() {
			return existing, ErrAlreadyMovedOut
		}
		s.logger.Info("resuming outflow workflow", zap.String("workflow_id", id), zap.String("state", string(existing.State)))
		return s.Run(context.WithoutCancel(ctx), existing)
	}

	s.logger.Info("outflow workflow started",
		zap.String("workflow_id", id),
		zap.String("inflow_id", inflow.ID),
		zap.Float64("total_price", record.TotalPrice),
	)
	return s.Run(context.WithoutCancel(ctx), wf)
}

// buildOutflow merges input over the inflow record and prices the result.
func (s *Service) buildOutflow(ctx context.Context, inflow models.InflowRecord, input models.OutflowInput) (models.OutflowRecord, error) {
	record := models.OutflowRecord{
		InflowID:     inflow.ID,
		Name:         firstNonEmpty(input.Name, inflow.Name),
		MobileNumber: firstNonEmpty(input.MobileNumber, inflow.MobileNumber),
		Quantity:     inflow.Quantity,
		AreaStored:   inflow.AreaStored,
		ItemTypeID:   inflow.ItemTypeID,
		ItemTypeName: inflow.ItemTypeName,
		InflowDate:   inflow.InflowDate,
	}

	switch {
	case input.Quantity < 0:
		return models.OutflowRecord{}, models.Invalid("quantity must be a positive integer")
	case input.Quantity > inflow.Quantity:
		return models.OutflowRecord{}, models.Invalid("quantity %d exceeds the %d units stored", input.Quantity, inflow.Quantity)
	case input.Quantity > 0:
		record.Quantity = input.Quantity
	}

	if area := strings.ToLower(strings.TrimSpace(input.AreaStored)); area != "" && area != record.AreaStored {
		ok, err := s.catalog.HasStorageArea(ctx, area)
		if err != nil {
			return models.OutflowRecord{}, fmt.Errorf("check storage area: %w", err)
		}
		if !ok {
			return models.OutflowRecord{}, models.Invalid("area_stored %q is not a configured storage area", area)
		}
		record.AreaStored = area
	}

	if typeID := strings.TrimSpace(input.ItemTypeID); typeID != "" && typeID != record.ItemTypeID {
		itemType, err := s.catalog.ItemType(ctx, typeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return models.OutflowRecord{}, models.Invalid("item_type_id %q does not exist", typeID)
			}
			return models.OutflowRecord{}, fmt.Errorf("load item type: %w", err)
		}
		record.ItemTypeID = itemType.ID
		record.ItemTypeName = itemType.Name
	}

	outflowDate, err := models.ParseDate("outflow_date", input.OutflowDate, s.now().In(s.location))
	if err != nil {
		return models.OutflowRecord{}, err
	}
	if outflowDate.Before(record.InflowDate) && !s.allowBackdated {
		return models.OutflowRecord{}, models.Invalid("outflow_date %s is before inflow_date %s",
			outflowDate.Format(models.DateLayout), record.InflowDate.Format(models.DateLayout))
	}
	record.OutflowDate = outflowDate

	quote, err := pricing.ComputeStorageFee(record.InflowDate, record.OutflowDate, record.Quantity)
	if err != nil {
		return models.OutflowRecord{}, models.Invalid("%v", err)
	}
	record.Price = quote.UnitPrice
	record.TotalPrice = quote.TotalPrice
	return record, nil
}

// Run advances wf from its persisted state until it is terminal or a step fails.
// The stored copy of wf is reloaded once the run is claimed, so a stale wf
// never repeats a step another run already completed.
// A blocking notification failure is reported as ErrNotificationFailed.
func (s *Service) Run(ctx context.Context, wf models.OutflowWorkflow) (models.OutflowWorkflow, error) {
	if !s.claim(wf.ID) {
		return wf, ErrWorkflowBusy
	}
	defer s.release(wf.ID)

	current, err := s.store.GetWorkflow(ctx, wf.ID)
	if err != nil {
		return wf, fmt.Errorf("reload workflow: %w", err)
	}
	wf = current
	if wf.State.Terminal() {
		return wf, outcome(wf)
	}

	logger := s.logger.With(zap.String("workflow_id", wf.ID))
	wf.Attempts++

	for !wf.State.Terminal() {
		var err error
		switch wf.State {
		case models.WorkflowPending:
			err = s.recordOutflow(ctx, &wf)
		case models.WorkflowOutflowRecorded:
			err = s.clearInflow(ctx, &wf)
		case models.WorkflowInflowCleared:
			err = s.notify(ctx, &wf)
		default:
			err = fmt.Errorf("unknown workflow state %q", wf.State)
		}
		if err != nil {
			wf.LastError = err.Error()
			wf.UpdatedAt = s.now().UTC()
			if saveErr := s.save(ctx, wf); saveErr != nil {
				logger.Error("failed to persist workflow error", zap.Error(saveErr))
			}
			logger.Error("outflow workflow stalled", zap.String("state", string(wf.State)), zap.Error(err))
			s.metrics.Workflow(string(wf.State))
			return wf, err
		}
	}

	s.metrics.Workflow(string(wf.State))
	logger.Info("outflow workflow finished", zap.String("state", string(wf.State)))
	return wf, outcome(wf)
}

// outcome reports the error a terminal workflow surfaces to its caller.
func outcome(wf models.OutflowWorkflow) error {
	if wf.State == models.WorkflowNotifyFailed && wf.NotifyReason.Blocking() {
		return fmt.Errorf("%w: %s", ErrNotificationFailed, wf.LastError)
	}
	return nil
}

func (s *Service) recordOutflow(ctx context.Context, wf *models.OutflowWorkflow) error {
	err := s.retry(ctx, func(ctx context.Context) error {
		err := s.store.InsertOutflow(ctx, wf.Outflow)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("record outflow: %w", err)
	}
	return s.advance(ctx, wf, models.WorkflowOutflowRecorded)
}

func (s *Service) clearInflow(ctx context.Context, wf *models.OutflowWorkflow) error {
	err := s.retry(ctx, func(ctx context.Context) error {
		err := s.store.DeleteInflow(ctx, wf.InflowID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("clear inflow: %w", err)
	}
	return s.advance(ctx, wf, models.WorkflowInflowCleared)
}

func (s *Service) notify(ctx context.Context, wf *models.OutflowWorkflow) error {
	var result notify.Result
	// Only failures where the gateway never accepted the message are retried.
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		var err error
		result, err = s.notifier.NotifyRetrieval(ctx, wf.Outflow)
		if errors.Is(err, notify.ErrGatewayUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})

	if err == nil && result.Success {
		wf.MessageSID = result.MessageSID
		wf.NotifyReason = ""
		return s.advance(ctx, wf, models.WorkflowNotified)
	}

	wf.NotifyReason = result.Reason
	if wf.NotifyReason == "" {
		wf.NotifyReason = models.NotifyGatewayError
	}
	if err != nil {
		wf.LastError = err.Error()
	} else {
		wf.LastError = "notification was not accepted"
	}
	wf.State = models.WorkflowNotifyFailed
	wf.UpdatedAt = s.now().UTC()
	return s.save(ctx, *wf)
}

// advance persists wf in state next.
func (s *Service) advance(ctx context.Context, wf *models.OutflowWorkflow, next models.WorkflowState) error {
	wf.State = next
	wf.LastError = ""
	wf.UpdatedAt = s.now().UTC()
	return s.save(ctx, *wf)
}

func (s *Service) save(ctx context.Context, wf models.OutflowWorkflow) error {
	err := s.retry(ctx, func(ctx context.Context) error {
		return s.store.SaveWorkflow(ctx, wf)
	})
	if err != nil {
		return fmt.Errorf("persist workflow state %s: %w", wf.State, err)
	}
	return nil
}

// retry runs fn with bounded backoff until it succeeds or fails permanently.
func (s *Service) retry(ctx context.Context, fn retry.RetryFunc) error {
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || isPermanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// isPermanent reports errors that a retry cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, models.ErrValidation)
}

func (s *Service) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[id]; ok {
		return false
	}
	s.running[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

// Resume reruns workflows left unfinished for longer than olderThan and returns
// how many reached a terminal state.
func (s *Service) Resume(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-olderThan)
	stale, err := s.store.StaleWorkflows(ctx, cutoff, resumeBatchSize)
	if err != nil {
		return 0, fmt.Errorf("load stale workflows: %w", err)
	}

	finished := 0
	for _, wf := range stale {
		result, err := s.Run(ctx, wf)
		if result.State.Terminal() {
			finished++
		}
		if err != nil && !errors.Is(err, ErrNotificationFailed) {
			s.logger.Warn("workflow resume failed", zap.String("workflow_id", wf.ID), zap.Error(err))
		}
	}

	if len(stale) > 0 {
		s.logger.Info("stale workflows resumed", zap.Int("found", len(stale)), zap.Int("finished", finished))
	}
	return finished, nil
}

// GetWorkflow loads one workflow for inspection.
func (s *Service) GetWorkflow(ctx context.Context, id string) (models.OutflowWorkflow, error) {
	return s.store.GetWorkflow(ctx, id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
