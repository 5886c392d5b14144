package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/persistence/postgres"
)

type memEventStore struct {
	streams map[domain.TransactionID][]domain.Event
}

func (s *memEventStore) Append(ctx context.Context, ev domain.Event) error {
	s.streams[ev.TransactionID()] = append(s.streams[ev.TransactionID()], ev)
	return nil
}

func (s *memEventStore) ReadOrdered(ctx context.Context, txID domain.TransactionID) ([]domain.Event, error) {
	return s.streams[txID], nil
}

func (s *memEventStore) FindByTransactionIDAndType(ctx context.Context, txID domain.TransactionID, eventType domain.EventType) (domain.Event, error) {
	for _, ev := range s.streams[txID] {
		if ev.EventType() == eventType {
			return ev, nil
		}
	}
	return nil, postgres.ErrEventNotFound
}

type memViewStore struct {
	candidates []*postgres.ViewModel
	applied    []domain.Event
}

func (s *memViewStore) Apply(ctx context.Context, ev domain.Event) error {
	s.applied = append(s.applied, ev)
	return nil
}

func (s *memViewStore) FindByID(ctx context.Context, txID domain.TransactionID) (*postgres.ViewModel, error) {
	return nil, postgres.ErrTransactionViewNotFound
}

func (s *memViewStore) FindExpiredCandidates(ctx context.Context, cutoff time.Time, limit int) ([]*postgres.ViewModel, error) {
	return s.candidates, nil
}

type memEventPublisher struct {
	published []domain.Event
}

func (p *memEventPublisher) PublishTransactionEvent(ctx context.Context, ev domain.Event, status domain.TransactionStatus) error {
	p.published = append(p.published, ev)
	return nil
}

func seedStream(events *memEventStore, txID domain.TransactionID, extra ...domain.Event) {
	stream := []domain.Event{domain.ActivatedEvent{
		BaseEvent: domain.NewBaseEvent(txID),
		Notices:   []domain.PaymentNotice{{RptID: "77777777777302016723749670035", Amount: 1000, PaymentToken: "tok-1"}},
	}}
	events.streams[txID] = append(stream, extra...)
}

func newWorkerFixture() (*ExpirationWorker, *memEventStore, *memViewStore, *memEventPublisher) {
	events := &memEventStore{streams: make(map[domain.TransactionID][]domain.Event)}
	views := &memViewStore{}
	publisher := &memEventPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewExpirationWorker(events, views, publisher, config.WorkerConfig{
		Interval:            time.Minute,
		BatchSize:           100,
		TransactionLifetime: 15 * time.Minute,
	}, logger)
	return w, events, views, publisher
}

func TestProcessExpirations_ExpiresStaleActivatedTransaction(t *testing.T) {
	w, events, views, publisher := newWorkerFixture()
	txID := domain.TransactionID("tx-1")
	seedStream(events, txID)
	views.candidates = []*postgres.ViewModel{{TransactionID: string(txID)}}

	require.NoError(t, w.ProcessExpirations(context.Background()))

	tx := domain.Reduce(events.streams[txID])
	assert.Equal(t, domain.StatusExpired, tx.Status)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, txID, publisher.published[0].TransactionID())
}

func TestProcessExpirations_SkipsTransactionThatProgressed(t *testing.T) {
	w, events, views, publisher := newWorkerFixture()
	txID := domain.TransactionID("tx-1")

	// The view scan raced a closure: by the time the worker re-reads the
	// stream the transaction is already CLOSED.
	seedStream(events, txID,
		domain.AuthorizationRequestedEvent{BaseEvent: domain.NewBaseEvent(txID), Gateway: domain.GatewayXPay},
		domain.AuthorizationCompletedEvent{BaseEvent: domain.NewBaseEvent(txID), Outcome: domain.OutcomeOK},
		domain.ClosureSentEvent{BaseEvent: domain.NewBaseEvent(txID), NodeOutcome: "OK", NewStatus: domain.StatusClosed},
	)
	views.candidates = []*postgres.ViewModel{{TransactionID: string(txID)}}

	require.NoError(t, w.ProcessExpirations(context.Background()))

	tx := domain.Reduce(events.streams[txID])
	assert.Equal(t, domain.StatusClosed, tx.Status)
	assert.Empty(t, publisher.published)
}

func TestProcessExpirations_UnknownCandidateIsIgnored(t *testing.T) {
	w, _, views, _ := newWorkerFixture()
	views.candidates = []*postgres.ViewModel{{TransactionID: "ghost"}}

	require.NoError(t, w.ProcessExpirations(context.Background()))
}

func TestProcessExpirations_NoCandidatesIsANoOp(t *testing.T) {
	w, _, views, _ := newWorkerFixture()

	require.NoError(t, w.ProcessExpirations(context.Background()))
	assert.Empty(t, views.applied)
}
