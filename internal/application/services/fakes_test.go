package services

import (
	"context"
	"time"

	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
	"github.com/pagopay/transactions-service/internal/infrastructure/nodo"
	"github.com/pagopay/transactions-service/internal/infrastructure/persistence/postgres"
	"github.com/pagopay/transactions-service/internal/infrastructure/queue"
)

type fakeEventStore struct {
	streams  map[domain.TransactionID][]domain.Event
	AppendFn func(ctx context.Context, ev domain.Event) error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{streams: make(map[domain.TransactionID][]domain.Event)}
}

func (s *fakeEventStore) Append(ctx context.Context, ev domain.Event) error {
	if s.AppendFn != nil {
		if err := s.AppendFn(ctx, ev); err != nil {
			return err
		}
	}
	s.streams[ev.TransactionID()] = append(s.streams[ev.TransactionID()], ev)
	return nil
}

func (s *fakeEventStore) ReadOrdered(ctx context.Context, txID domain.TransactionID) ([]domain.Event, error) {
	stream := s.streams[txID]
	out := make([]domain.Event, len(stream))
	copy(out, stream)
	return out, nil
}

func (s *fakeEventStore) FindByTransactionIDAndType(ctx context.Context, txID domain.TransactionID, eventType domain.EventType) (domain.Event, error) {
	for _, ev := range s.streams[txID] {
		if ev.EventType() == eventType {
			return ev, nil
		}
	}
	return nil, postgres.ErrEventNotFound
}

func (s *fakeEventStore) eventTypes(txID domain.TransactionID) []domain.EventType {
	var types []domain.EventType
	for _, ev := range s.streams[txID] {
		types = append(types, ev.EventType())
	}
	return types
}

type fakeViewStore struct {
	applied    []domain.Event
	candidates []*postgres.ViewModel
}

func (s *fakeViewStore) Apply(ctx context.Context, ev domain.Event) error {
	s.applied = append(s.applied, ev)
	return nil
}

func (s *fakeViewStore) FindByID(ctx context.Context, txID domain.TransactionID) (*postgres.ViewModel, error) {
	return nil, postgres.ErrTransactionViewNotFound
}

func (s *fakeViewStore) FindExpiredCandidates(ctx context.Context, cutoff time.Time, limit int) ([]*postgres.ViewModel, error) {
	return s.candidates, nil
}

type fakeCache struct {
	entries map[string]*domain.PaymentRequestInfo
	GetFn   func(ctx context.Context, rptID string) (*domain.PaymentRequestInfo, error)
	PutFn   func(ctx context.Context, rptID string, info *domain.PaymentRequestInfo) error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.PaymentRequestInfo)}
}

func (c *fakeCache) Get(ctx context.Context, rptID string) (*domain.PaymentRequestInfo, error) {
	if c.GetFn != nil {
		return c.GetFn(ctx, rptID)
	}
	return c.entries[rptID], nil
}

func (c *fakeCache) Put(ctx context.Context, rptID string, info *domain.PaymentRequestInfo) error {
	if c.PutFn != nil {
		return c.PutFn(ctx, rptID, info)
	}
	c.entries[rptID] = info
	return nil
}

type fakeSessions struct {
	links  map[string]domain.TransactionID
	LinkFn func(ctx context.Context, orderID string, txID domain.TransactionID) error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{links: make(map[string]domain.TransactionID)}
}

func (s *fakeSessions) Link(ctx context.Context, orderID string, txID domain.TransactionID) error {
	if s.LinkFn != nil {
		return s.LinkFn(ctx, orderID, txID)
	}
	s.links[orderID] = txID
	return nil
}

func (s *fakeSessions) Resolve(ctx context.Context, orderID string) (domain.TransactionID, error) {
	return s.links[orderID], nil
}

type fakePublisher struct {
	refunds   []queue.RefundTriggerMessage
	PublishFn func(ctx context.Context, msg queue.RefundTriggerMessage) error
}

func (p *fakePublisher) PublishRefundTrigger(ctx context.Context, msg queue.RefundTriggerMessage) error {
	if p.PublishFn != nil {
		if err := p.PublishFn(ctx, msg); err != nil {
			return err
		}
	}
	p.refunds = append(p.refunds, msg)
	return nil
}

type fakeNodoClient struct {
	activateCalls    int
	activateNM3Calls int
	closeCalls       int

	ActivateFn    func(ctx context.Context, req nodo.ActivateRequest) (*nodo.ActivateResponse, error)
	ActivateNM3Fn func(ctx context.Context, req nodo.ActivateNM3Request) (*nodo.ActivateResponse, error)
	CloseFn       func(ctx context.Context, req nodo.ClosePaymentRequest) (*nodo.ClosePaymentResponse, error)
}

func (c *fakeNodoClient) ActivatePaymentNotice(ctx context.Context, req nodo.ActivateRequest) (*nodo.ActivateResponse, error) {
	c.activateCalls++
	return c.ActivateFn(ctx, req)
}

func (c *fakeNodoClient) ActivatePaymentNoticeNM3(ctx context.Context, req nodo.ActivateNM3Request) (*nodo.ActivateResponse, error) {
	c.activateNM3Calls++
	return c.ActivateNM3Fn(ctx, req)
}

func (c *fakeNodoClient) ClosePayment(ctx context.Context, req nodo.ClosePaymentRequest) (*nodo.ClosePaymentResponse, error) {
	c.closeCalls++
	return c.CloseFn(ctx, req)
}

type fakeGateway struct {
	id          domain.GatewayID
	eligibleFn  func(req gateway.AuthRequest) bool
	authorizeFn func(ctx context.Context, req gateway.AuthRequest) (*gateway.AuthResponse, error)
	calls       int
}

func (g *fakeGateway) ID() domain.GatewayID { return g.id }

func (g *fakeGateway) Eligible(req gateway.AuthRequest) bool {
	return g.eligibleFn(req)
}

func (g *fakeGateway) RequestAuthorization(ctx context.Context, req gateway.AuthRequest) (*gateway.AuthResponse, error) {
	g.calls++
	if g.authorizeFn != nil {
		return g.authorizeFn(ctx, req)
	}
	return &gateway.AuthResponse{RequestID: "req-1"}, nil
}
