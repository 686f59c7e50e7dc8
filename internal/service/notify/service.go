package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/metrics"
	client "github.com/mamadbah2/warehouse/pkg/clients/twilio"
)

var (
	// ErrInvalidRecipient indicates the number was rejected as malformed.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrUnverifiedRecipient indicates a trial account may not message the number.
	ErrUnverifiedRecipient = errors.New("recipient not verified for trial account")
	// ErrGateway covers every other delivery failure.
	ErrGateway = errors.New("sms gateway failure")
	// ErrGatewayUnavailable is an ErrGateway where the message was certainly not
	// accepted, so sending again cannot duplicate it.
	ErrGatewayUnavailable = fmt.Errorf("%w: message not accepted", ErrGateway)
)

const retrievalTemplate = "Dear %s, your items have been retrieved successfully from %s. Thank you for using our service."

// Result summarises one notification attempt.
type Result struct {
	Success    bool                `json:"success"`
	MessageSID string              `json:"message_sid,omitempty"`
	Reason     models.NotifyReason `json:"reason,omitempty"`
}

// Notifier is the messaging gateway as seen by the outflow workflow.
type Notifier interface {
	NotifyRetrieval(ctx context.Context, record models.OutflowRecord) (Result, error)
}

// SMSService sends notifications through the Twilio Messages API.
type SMSService struct {
	client      client.Client
	countryCode string
	metrics     *metrics.Recorder
	logger      *zap.Logger
}

// NewSMSService wires a new service instance.
func NewSMSService(cfg config.TwilioConfig, client client.Client, recorder *metrics.Recorder, logger *zap.Logger) *SMSService {
	svc := &SMSService{
		client:      client,
		countryCode: cfg.CountryCode,
		metrics:     recorder,
		logger:      logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// NotifyRetrieval tells the depositor that their items left storage.
func (s *SMSService) NotifyRetrieval(ctx context.Context, record models.OutflowRecord) (Result, error) {
	if strings.TrimSpace(record.Name) == "" || strings.TrimSpace(record.AreaStored) == "" {
		return s.fail(models.NotifyInvalidRecipient, fmt.Errorf("%w: name and area are required", ErrInvalidRecipient))
	}

	to, err := FormatRecipient(record.MobileNumber, s.countryCode)
	if err != nil {
		return s.fail(models.NotifyInvalidRecipient, err)
	}

	return s.Send(ctx, to, fmt.Sprintf(retrievalTemplate, record.Name, record.AreaStored))
}

// Send delivers body to an already formatted recipient and classifies failures.
func (s *SMSService) Send(ctx context.Context, to, body string) (Result, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := s.client.SendSMS(ctxWithTimeout, client.SendSMSRequest{To: to, Body: body})
	if err != nil {
		switch client.ErrorCode(err) {
		case client.CodeInvalidToNumber:
			return s.fail(models.NotifyInvalidRecipient, fmt.Errorf("%w: %v", ErrInvalidRecipient, err))
		case client.CodeUnverifiedToNumber:
			return s.fail(models.NotifyUnverifiedRecipient, fmt.Errorf("%w: %v", ErrUnverifiedRecipient, err))
		default:
			if client.Retryable(err) {
				return s.fail(models.NotifyGatewayError, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err))
			}
			return s.fail(models.NotifyGatewayError, fmt.Errorf("%w: %v", ErrGateway, err))
		}
	}

	s.metrics.SMS("sent")
	s.logger.Info("sms sent", zap.String("to", to), zap.String("message_sid", resp.SID), zap.String("status", resp.Status))
	return Result{Success: true, MessageSID: resp.SID}, nil
}

func (s *SMSService) fail(reason models.NotifyReason, err error) (Result, error) {
	s.metrics.SMS(string(reason))
	if reason == models.NotifyUnverifiedRecipient {
		s.logger.Warn("sms not sent due to trial account limitation", zap.Error(err))
	} else {
		s.logger.Error("sms sending failed", zap.String("reason", string(reason)), zap.Error(err))
	}
	return Result{Reason: reason}, err
}

// FormatRecipient strips everything but digits from raw and prefixes
// countryCode unless raw already carries its own leading "+".
func FormatRecipient(raw, countryCode string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return "", fmt.Errorf("%w: %q has no digits", ErrInvalidRecipient, raw)
	}

	if strings.HasPrefix(trimmed, "+") {
		return "+" + digits.String(), nil
	}
	return countryCode + digits.String(), nil
}
