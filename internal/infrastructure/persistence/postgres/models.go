package postgres

import "time"

// EventModel is the storage shape of one appended event.
type EventModel struct {
	Sequence      int64
	ID            string
	TransactionID string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// ViewModel is the flat read-model row for one transaction.
type ViewModel struct {
	TransactionID     string
	Status            string
	Email             *string
	ClientID          *string
	AmountCents       int64
	FeeCents          *int64
	Gateway           *string
	RptIDs            []string
	PaymentTokens     []string
	RRN               *string
	AuthorizationCode *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
