package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/pagopay/transactions-service/internal/domain"
)

func marshalEvent(ev domain.Event) (EventModel, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventModel{}, fmt.Errorf("marshal %s event: %w", ev.EventType(), err)
	}

	return EventModel{
		ID:            ev.EventID(),
		TransactionID: string(ev.TransactionID()),
		EventType:     string(ev.EventType()),
		Payload:       payload,
		CreatedAt:     ev.OccurredAt(),
	}, nil
}

// unmarshalEvent decodes a stored row back into its concrete event type.
// Rows with an event type this build does not know yield (nil, nil) so that
// streams written by newer schemas stay readable.
func unmarshalEvent(m EventModel) (domain.Event, error) {
	switch domain.EventType(m.EventType) {
	case domain.EventActivationRequested:
		return decodeEvent[domain.ActivationRequestedEvent](m)
	case domain.EventActivated:
		return decodeEvent[domain.ActivatedEvent](m)
	case domain.EventAuthorizationRequested:
		return decodeEvent[domain.AuthorizationRequestedEvent](m)
	case domain.EventAuthorizationCompleted:
		return decodeEvent[domain.AuthorizationCompletedEvent](m)
	case domain.EventClosureSent:
		return decodeEvent[domain.ClosureSentEvent](m)
	case domain.EventRefundRequested:
		return decodeEvent[domain.RefundRequestedEvent](m)
	case domain.EventUserReceiptRequested:
		return decodeEvent[domain.UserReceiptRequestedEvent](m)
	case domain.EventUserCanceled:
		return decodeEvent[domain.UserCanceledEvent](m)
	case domain.EventExpired:
		return decodeEvent[domain.ExpiredEvent](m)
	default:
		return nil, nil
	}
}

func decodeEvent[T domain.Event](m EventModel) (domain.Event, error) {
	var ev T
	if err := json.Unmarshal(m.Payload, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal %s event %s: %w", m.EventType, m.ID, err)
	}
	return ev, nil
}
