package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType discriminates the members of the event union.
type EventType string

const (
	EventActivationRequested    EventType = "TRANSACTION_ACTIVATION_REQUESTED"
	EventActivated              EventType = "TRANSACTION_ACTIVATED"
	EventAuthorizationRequested EventType = "TRANSACTION_AUTHORIZATION_REQUESTED"
	EventAuthorizationCompleted EventType = "TRANSACTION_AUTHORIZATION_COMPLETED"
	EventClosureSent            EventType = "TRANSACTION_CLOSURE_SENT"
	EventRefundRequested        EventType = "TRANSACTION_REFUND_REQUESTED"
	EventUserReceiptRequested   EventType = "TRANSACTION_USER_RECEIPT_REQUESTED"
	EventUserCanceled           EventType = "TRANSACTION_USER_CANCELED"
	EventExpired                EventType = "TRANSACTION_EXPIRED"
)

// Event is one member of the append-only stream for a transaction id.
// Events are immutable once appended; the aggregate holds no reference back
// to storage.
type Event interface {
	EventType() EventType
	EventID() string
	TransactionID() TransactionID
	OccurredAt() time.Time
}

// BaseEvent carries the metadata common to every event type.
type BaseEvent struct {
	ID        string        `json:"id"`
	TxID      TransactionID `json:"transaction_id"`
	CreatedAt time.Time     `json:"created_at"`
}

func (e BaseEvent) EventID() string              { return e.ID }
func (e BaseEvent) TransactionID() TransactionID { return e.TxID }
func (e BaseEvent) OccurredAt() time.Time        { return e.CreatedAt }

// NewBaseEvent stamps a fresh event id and creation time.
func NewBaseEvent(txID TransactionID) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		TxID:      txID,
		CreatedAt: time.Now(),
	}
}

// ActivationRequestedEvent marks a transaction waiting for an asynchronous
// activation confirmation from the node.
type ActivationRequestedEvent struct {
	BaseEvent
	Email    string          `json:"email"`
	ClientID string          `json:"client_id"`
	Notices  []PaymentNotice `json:"notices"`
}

func (ActivationRequestedEvent) EventType() EventType { return EventActivationRequested }

// ActivatedEvent marks a transaction registered with the node; every notice
// carries the payment token returned by the activation call.
type ActivatedEvent struct {
	BaseEvent
	Email    string          `json:"email"`
	ClientID string          `json:"client_id"`
	Notices  []PaymentNotice `json:"notices"`
}

func (ActivatedEvent) EventType() EventType { return EventActivated }

// AuthorizationRequestedEvent records which gateway was invoked and the
// identifiers needed later by the outcome validator and the closure saga.
type AuthorizationRequestedEvent struct {
	BaseEvent
	Gateway         GatewayID `json:"gateway"`
	Amount          int64     `json:"amount"`
	Fee             int64     `json:"fee"`
	RequestID       string    `json:"request_id"`
	PspID           string    `json:"psp_id"`
	BrokerID        string    `json:"broker_id"`
	ChannelID       string    `json:"channel_id"`
	PaymentMethod   string    `json:"payment_method"`
	PaymentTypeCode string    `json:"payment_type_code"`

	// OutcomeTimeout freezes the acceptance window for the outcome callback
	// at request time, so a later config change never widens or narrows the
	// window of an in-flight authorization.
	OutcomeTimeout time.Duration `json:"outcome_timeout,omitempty"`
}

func (AuthorizationRequestedEvent) EventType() EventType { return EventAuthorizationRequested }

// AuthorizationCompletedEvent records the canonical gateway outcome.
type AuthorizationCompletedEvent struct {
	BaseEvent
	Outcome           AuthorizationOutcome `json:"outcome"`
	ErrorCode         string               `json:"error_code,omitempty"`
	RRN               string               `json:"rrn,omitempty"`
	AuthorizationCode string               `json:"authorization_code,omitempty"`
	OperationAt       time.Time            `json:"operation_at"`
}

func (AuthorizationCompletedEvent) EventType() EventType { return EventAuthorizationCompleted }

// ClosureSentEvent records the result of the close-payment call. NewStatus is
// CLOSED when the node acknowledged the closure and CLOSURE_FAILED otherwise,
// including when the node could not be reached at all.
type ClosureSentEvent struct {
	BaseEvent
	NodeOutcome string            `json:"node_outcome"`
	NewStatus   TransactionStatus `json:"new_status"`
}

func (ClosureSentEvent) EventType() EventType { return EventClosureSent }

// RefundRequestedEvent is the compensation marker appended when a successful
// gateway authorization could not be reconciled with the node.
type RefundRequestedEvent struct {
	BaseEvent
	Reason string `json:"reason"`
}

func (RefundRequestedEvent) EventType() EventType { return EventRefundRequested }

// UserReceiptRequestedEvent records the outcome of the user notification.
type UserReceiptRequestedEvent struct {
	BaseEvent
	Outcome AuthorizationOutcome `json:"outcome"`
}

func (UserReceiptRequestedEvent) EventType() EventType { return EventUserReceiptRequested }

// UserCanceledEvent records an explicit cancellation by the user.
type UserCanceledEvent struct {
	BaseEvent
}

func (UserCanceledEvent) EventType() EventType { return EventUserCanceled }

// ExpiredEvent records a timeout-driven expiry.
type ExpiredEvent struct {
	BaseEvent
	PriorStatus TransactionStatus `json:"prior_status"`
}

func (ExpiredEvent) EventType() EventType { return EventExpired }
