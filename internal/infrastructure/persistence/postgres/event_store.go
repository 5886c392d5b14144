package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pagopay/transactions-service/internal/domain"
)

var ErrEventNotFound = errors.New("event not found")

// EventStore is the append-only event log. Appends for a single transaction
// id are linearized by the serial sequence column: any subsequent ordered
// read observes them in append order.
type EventStore struct {
	db *DB
}

func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Append(ctx context.Context, ev domain.Event) error {
	m, err := marshalEvent(ev)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transaction_events (id, transaction_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = s.db.Pool.Exec(ctx, query,
		m.ID,
		m.TransactionID,
		m.EventType,
		m.Payload,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append %s event for transaction %s: %w", m.EventType, m.TransactionID, err)
	}

	return nil
}

// ReadOrdered returns the full event stream for a transaction in append
// order. Rows of unknown event types are skipped.
func (s *EventStore) ReadOrdered(ctx context.Context, txID domain.TransactionID) ([]domain.Event, error) {
	query := `
		SELECT sequence, id, transaction_id, event_type, payload, created_at
		FROM transaction_events
		WHERE transaction_id = $1
		ORDER BY sequence ASC
	`

	rows, err := s.db.Pool.Query(ctx, query, string(txID))
	if err != nil {
		return nil, fmt.Errorf("query events for transaction %s: %w", txID, err)
	}

	models, err := pgx.CollectRows(rows, scanEventModel)
	if err != nil {
		return nil, fmt.Errorf("scan events for transaction %s: %w", txID, err)
	}

	events := make([]domain.Event, 0, len(models))
	for _, m := range models {
		ev, err := unmarshalEvent(m)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// FindByTransactionIDAndType returns the first event of the given type in the
// stream, or ErrEventNotFound.
func (s *EventStore) FindByTransactionIDAndType(ctx context.Context, txID domain.TransactionID, eventType domain.EventType) (domain.Event, error) {
	query := `
		SELECT sequence, id, transaction_id, event_type, payload, created_at
		FROM transaction_events
		WHERE transaction_id = $1 AND event_type = $2
		ORDER BY sequence ASC
		LIMIT 1
	`

	row := s.db.Pool.QueryRow(ctx, query, string(txID), string(eventType))

	var m EventModel
	err := row.Scan(&m.Sequence, &m.ID, &m.TransactionID, &m.EventType, &m.Payload, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("find %s event for transaction %s: %w", eventType, txID, err)
	}

	ev, err := unmarshalEvent(m)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

func scanEventModel(row pgx.CollectableRow) (EventModel, error) {
	var m EventModel
	err := row.Scan(&m.Sequence, &m.ID, &m.TransactionID, &m.EventType, &m.Payload, &m.CreatedAt)
	return m, err
}
