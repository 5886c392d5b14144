package services

import (
	"context"

	"github.com/pagopay/transactions-service/internal/application"
	"github.com/pagopay/transactions-service/internal/domain"
)

// QueryService answers reads by folding the event stream. The projection view
// exists for listing and worker scans; single-transaction reads go through the
// stream so they are never stale.
type QueryService struct {
	events application.EventStore
}

func NewQueryService(events application.EventStore) *QueryService {
	return &QueryService{events: events}
}

func (s *QueryService) GetTransaction(ctx context.Context, txID domain.TransactionID) (*domain.Transaction, error) {
	tx, _, err := loadTransaction(ctx, s.events, txID)
	return tx, err
}
