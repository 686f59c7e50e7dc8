package notify

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/warehouse/internal/config"
	"github.com/mamadbah2/warehouse/internal/domain/models"
	client "github.com/mamadbah2/warehouse/pkg/clients/twilio"
)

type stubClient struct {
	requests []client.SendSMSRequest
	err      error
}

func (s *stubClient) SendSMS(_ context.Context, req client.SendSMSRequest) (*client.SendSMSResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &client.SendSMSResponse{SID: "SM42", Status: "queued"}, nil
}

func newService(c client.Client) *SMSService {
	return NewSMSService(config.TwilioConfig{CountryCode: "+91"}, c, nil, nil)
}

func TestFormatRecipient(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "98765 43210", want: "+919876543210"},
		{raw: "(987) 654-3210", want: "+919876543210"},
		{raw: "+1 415 555 0100", want: "+14155550100"},
		{raw: "  +44-20-7946-0958 ", want: "+442079460958"},
		{raw: "n/a", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := FormatRecipient(tt.raw, "+91")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRecipient)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotifyRetrievalSendsMessage(t *testing.T) {
	stub := &stubClient{}
	svc := newService(stub)

	res, err := svc.NotifyRetrieval(context.Background(), models.OutflowRecord{
		Name:         "Asha",
		MobileNumber: "9876543210",
		AreaStored:   "a1",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "SM42", res.MessageSID)

	require.Len(t, stub.requests, 1)
	assert.Equal(t, "+919876543210", stub.requests[0].To)
	assert.Equal(t, "Dear Asha, your items have been retrieved successfully from a1. Thank you for using our service.", stub.requests[0].Body)
}

func TestNotifyRetrievalClassifiesFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		reason   models.NotifyReason
		sentinel error
		blocking bool
	}{
		{
			name:     "invalid number",
			err:      &client.APIError{Code: client.CodeInvalidToNumber, Status: 400},
			reason:   models.NotifyInvalidRecipient,
			sentinel: ErrInvalidRecipient,
			blocking: true,
		},
		{
			name:     "unverified trial recipient",
			err:      &client.APIError{Code: client.CodeUnverifiedToNumber, Status: 400},
			reason:   models.NotifyUnverifiedRecipient,
			sentinel: ErrUnverifiedRecipient,
			blocking: false,
		},
		{
			name:     "connection refused",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			reason:   models.NotifyGatewayError,
			sentinel: ErrGatewayUnavailable,
			blocking: true,
		},
		{
			name:     "server error",
			err:      &client.APIError{Status: 503},
			reason:   models.NotifyGatewayError,
			sentinel: ErrGatewayUnavailable,
			blocking: true,
		},
		{
			name:     "timeout after sending",
			err:      context.DeadlineExceeded,
			reason:   models.NotifyGatewayError,
			sentinel: ErrGateway,
			blocking: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&stubClient{err: tt.err})

			res, err := svc.NotifyRetrieval(context.Background(), models.OutflowRecord{
				Name: "Ravi", MobileNumber: "9000000000", AreaStored: "b2",
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			if tt.sentinel == ErrGateway {
				assert.NotErrorIs(t, err, ErrGatewayUnavailable)
			}
			assert.False(t, res.Success)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.blocking, res.Reason.Blocking())
		})
	}
}

func TestNotifyRetrievalRejectsMissingFields(t *testing.T) {
	stub := &stubClient{}
	svc := newService(stub)

	res, err := svc.NotifyRetrieval(context.Background(), models.OutflowRecord{MobileNumber: "9000000000"})
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Equal(t, models.NotifyInvalidRecipient, res.Reason)
	assert.Empty(t, stub.requests)
}
