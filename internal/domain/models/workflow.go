package models

import "time"

// WorkflowState tracks how far an outflow transition has progressed.
type WorkflowState string

const (
	WorkflowPending         WorkflowState = "pending"
	WorkflowOutflowRecorded WorkflowState = "outflow_recorded"
	WorkflowInflowCleared   WorkflowState = "inflow_cleared"
	WorkflowNotified        WorkflowState = "notified"
	WorkflowNotifyFailed    WorkflowState = "notify_failed"
)

// Terminal reports whether no further step remains for the workflow.
func (s WorkflowState) Terminal() bool {
	return s == WorkflowNotified || s == WorkflowNotifyFailed
}

// NotifyReason classifies a failed notification.
type NotifyReason string

const (
	NotifyInvalidRecipient    NotifyReason = "invalid_recipient"
	NotifyUnverifiedRecipient NotifyReason = "unverified_recipient"
	NotifyGatewayError        NotifyReason = "gateway_error"
)

// Blocking reports whether the failure must be surfaced to the operator.
// Trial-account limitations are tolerated.
func (r NotifyReason) Blocking() bool {
	return r != "" && r != NotifyUnverifiedRecipient
}

// OutflowWorkflow is the persisted record of one inflow-to-outflow transition.
// Outflow holds the frozen outflow record; its ID equals the workflow ID.
type OutflowWorkflow struct {
	ID           string        `bson:"_id" json:"id"`
	UserID       string        `bson:"user_id" json:"user_id"`
	InflowID     string        `bson:"inflow_id" json:"inflow_id"`
	Outflow      OutflowRecord `bson:"outflow" json:"outflow"`
	State        WorkflowState `bson:"state" json:"state"`
	NotifyReason NotifyReason  `bson:"notify_reason,omitempty" json:"notify_reason,omitempty"`
	MessageSID   string        `bson:"message_sid,omitempty" json:"message_sid,omitempty"`
	LastError    string        `bson:"last_error,omitempty" json:"last_error,omitempty"`
	Attempts     int           `bson:"attempts" json:"attempts"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
}
