package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/nodo"
)

func newClosureFixture(client *fakeNodoClient) (*ClosureService, *fakeEventStore, *fakePublisher) {
	events := newFakeEventStore()
	publisher := &fakePublisher{}
	svc := NewClosureService(events, &fakeViewStore{}, client, publisher, testLogger())
	return svc, events, publisher
}

// seedAuthorized builds a stream ending in AUTHORIZED (outcome OK) or
// AUTHORIZATION_FAILED (outcome KO).
func seedAuthorized(t *testing.T, events *fakeEventStore, txID domain.TransactionID, outcome domain.AuthorizationOutcome) {
	t.Helper()
	seedAuthorizationRequested(t, events, txID, domain.GatewayXPay, time.Now())
	require.NoError(t, events.Append(context.Background(), domain.AuthorizationCompletedEvent{
		BaseEvent:         domain.NewBaseEvent(txID),
		Outcome:           outcome,
		AuthorizationCode: "auth-1",
		RRN:               "rrn-1",
		OperationAt:       time.Now(),
	}))
}

func TestClose_NodeAcknowledgesClosure(t *testing.T) {
	var sent nodo.ClosePaymentRequest
	client := &fakeNodoClient{
		CloseFn: func(ctx context.Context, req nodo.ClosePaymentRequest) (*nodo.ClosePaymentResponse, error) {
			sent = req
			return &nodo.ClosePaymentResponse{Outcome: nodo.OutcomeOK}, nil
		},
	}
	svc, events, publisher := newClosureFixture(client)
	txID := domain.TransactionID("tx-1")
	seedAuthorized(t, events, txID, domain.OutcomeOK)

	tx, err := svc.Close(context.Background(), CloseCommand{TransactionID: txID})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, tx.Status)
	assert.Empty(t, publisher.refunds)

	assert.Equal(t, nodo.OutcomeOK, sent.Outcome)
	assert.Equal(t, []string{"token-1"}, sent.PaymentTokens)
	// Total is fee inclusive.
	assert.Equal(t, int64(1100), sent.TotalAmount)
	assert.Equal(t, int64(100), sent.Fee)
	assert.Equal(t, "BCITITMM", sent.PspID)
	assert.Equal(t, "auth-1", sent.AuthorizationCode)
}

func TestClose_NodeRefusalTriggersRefundForOKAuthorization(t *testing.T) {
	client := &fakeNodoClient{
		CloseFn: func(ctx context.Context, req nodo.ClosePaymentRequest) (*nodo.ClosePaymentResponse, error) {
			return &nodo.ClosePaymentResponse{Outcome: nodo.OutcomeKO}, nil
		},
	}
	svc, events, publisher := newClosureFixture(client)
	txID := domain.TransactionID("tx-1")
	seedAuthorized(t, events, txID, domain.OutcomeOK)

	tx, err := svc.Close(context.Background(), CloseCommand{TransactionID: txID})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosureFailed, tx.Status)
	assert.True(t, tx.RefundRequested)

	require.Len(t, publisher.refunds, 1)
	msg := publisher.refunds[0]
	assert.Equal(t, string(txID), msg.TransactionID)
	assert.Equal(t, []string{"token-1"}, msg.PaymentTokens)
	assert.Equal(t, "XPAY", msg.Gateway)
	assert.Equal(t, "rrn-1", msg.RRN)
}

func TestClose_TransportFailureTriggersRefundForOKAuthorization(t *testing.T) {
	client := &fakeNodoClient{
		CloseFn: func(ctx context.Context, req nodo.ClosePaymentRequest) (*nodo.ClosePaymentResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc, events, publisher := newClosureFixture(client)
	txID := domain.TransactionID("tx-1")
	seedAuthorized(t, events, txID, domain.OutcomeOK)

	tx, err := svc.Close(context.Background(), CloseCommand{TransactionID: txID})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosureFailed, tx.Status)
	assert.Len(t, publisher.refunds, 1)
}

func TestClose_FailedAuthorizationNeverTriggersRefund(t *testing.T) {
	client := &fakeNodoClient{
		CloseFn: func(ctx context.Context, req nodo.ClosePaymentRequest) (*nodo.ClosePaymentResponse, error) {
			assert.Equal(t, nodo.OutcomeKO, req.Outcome)
			return nil, errors.New("connection refused")
		},
	}
	svc, events, publisher := newClosureFixture(client)
	txID := domain.TransactionID("tx-1")
	seedAuthorized(t, events, txID, domain.OutcomeKO)

	tx, err := svc.Close(context.Background(), CloseCommand{TransactionID: txID})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosureFailed, tx.Status)
	assert.Empty(t, publisher.refunds)
	assert.False(t, tx.RefundRequested)
}

func TestClose_DuplicateClosureIsRejectedAndRefundFiresOnce(t *testing.T) {
	client := &fakeNodoClient{
		CloseFn: func(ctx context.Context, req nodo.ClosePaymentRequest) (*nodo.ClosePaymentResponse, error) {
			return &nodo.ClosePaymentResponse{Outcome: nodo.OutcomeKO}, nil
		},
	}
	svc, events, publisher := newClosureFixture(client)
	txID := domain.TransactionID("tx-1")
	seedAuthorized(t, events, txID, domain.OutcomeOK)

	_, err := svc.Close(context.Background(), CloseCommand{TransactionID: txID})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), CloseCommand{TransactionID: txID})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeAlreadyProcessed))
	assert.Equal(t, 1, client.closeCalls)
	assert.Len(t, publisher.refunds, 1)
}

func TestClose_BeforeAuthorizationOutcomeIsRejected(t *testing.T) {
	client := &fakeNodoClient{}
	svc, events, _ := newClosureFixture(client)
	txID := domain.TransactionID("tx-1")
	seedAuthorizationRequested(t, events, txID, domain.GatewayXPay, time.Now())

	_, err := svc.Close(context.Background(), CloseCommand{TransactionID: txID})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeAlreadyProcessed))
	assert.Equal(t, 0, client.closeCalls)
}
