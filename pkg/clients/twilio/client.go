package twilio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/warehouse/internal/config"
)

// Error codes returned by the Messages API that callers act on.
const (
	CodeInvalidToNumber    = 21211
	CodeUnverifiedToNumber = 21608
)

// Client exposes Twilio Messages API operations used by the application.
type Client interface {
	SendSMS(ctx context.Context, req SendSMSRequest) (*SendSMSResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	accountSID string
	from       string
}

// NewClient builds a Twilio API client using the provided configuration values.
func NewClient(cfg config.TwilioConfig) *APIClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(fmt.Sprintf("%s/2010-04-01", base)).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{
		httpClient: restyClient,
		accountSID: cfg.AccountSID,
		from:       cfg.PhoneNumber,
	}
}

// SendSMSRequest represents a plain text message.
type SendSMSRequest struct {
	To   string
	Body string
}

// SendSMSResponse mirrors the fields of a created message resource we keep.
type SendSMSResponse struct {
	SID         string `json:"sid"`
	Status      string `json:"status"`
	DateCreated string `json:"date_created"`
}

// APIError is a Twilio REST error payload.
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twilio api error: code=%d, status=%d, message=%s", e.Code, e.Status, e.Message)
}

// ErrorCode extracts the Twilio error code from err, or 0.
func ErrorCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// Retryable reports whether err proves the message was not accepted: the
// connection was never established, or the API answered 429 or 5xx.
// Timeouts are not retryable since the message may already be queued.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// SendSMS creates an outbound message from the configured sender number.
func (c *APIClient) SendSMS(ctx context.Context, req SendSMSRequest) (*SendSMSResponse, error) {
	result := new(SendSMSResponse)
	apiErr := new(APIError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   req.To,
			"From": c.from,
			"Body": req.Body,
		}).
		SetResult(result).
		SetError(apiErr).
		Post(fmt.Sprintf("Accounts/%s/Messages.json", c.accountSID))
	if err != nil {
		return nil, fmt.Errorf("send sms: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		if apiErr.Status == 0 {
			apiErr.Status = resp.StatusCode()
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return nil, apiErr
	}

	return result, nil
}
