package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
)

func activatedStream(txID domain.TransactionID) domain.ActivatedEvent {
	return domain.ActivatedEvent{
		BaseEvent: domain.NewBaseEvent(txID),
		Email:     "user@example.com",
		ClientID:  "CHECKOUT",
		Notices: []domain.PaymentNotice{
			{RptID: testRptID, Amount: 1000, PaymentToken: "token-1"},
		},
	}
}

func cardEligible(req gateway.AuthRequest) bool {
	_, ok := req.Details.(gateway.CardDetails)
	return ok
}

func newAuthorizationFixture(gateways ...gateway.Client) (*AuthorizationService, *fakeEventStore, *fakeSessions) {
	events := newFakeEventStore()
	sessions := newFakeSessions()
	svc := NewAuthorizationService(events, &fakeViewStore{}, sessions, gateways,
		config.NodoConfig{BrokerID: "broker-1", ChannelID: "channel-1"},
		15*time.Minute, testLogger())
	return svc, events, sessions
}

func cardCommand(txID domain.TransactionID) AuthorizeCommand {
	return AuthorizeCommand{
		TransactionID:   txID,
		Fee:             100,
		PspID:           "BCITITMM",
		PaymentMethod:   "CARDS",
		PaymentTypeCode: "CP",
		Details:         gateway.CardDetails{Pan: "4111111111111111", CVV: "123", ExpiryDate: "12/30"},
	}
}

func TestRequestAuthorization_DispatchesToFirstEligibleGateway(t *testing.T) {
	first := &fakeGateway{id: domain.GatewayXPay, eligibleFn: cardEligible}
	second := &fakeGateway{id: domain.GatewayVPos, eligibleFn: cardEligible}
	svc, events, _ := newAuthorizationFixture(first, second)

	txID := domain.TransactionID("tx-1")
	require.NoError(t, events.Append(context.Background(), activatedStream(txID)))

	result, err := svc.RequestAuthorization(context.Background(), cardCommand(txID))

	require.NoError(t, err)
	assert.Equal(t, domain.GatewayXPay, result.Gateway)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)

	tx := domain.Reduce(events.streams[txID])
	require.Equal(t, domain.StatusAuthorizationRequested, tx.Status)
	assert.Equal(t, "broker-1", tx.Authorization.BrokerID)
	assert.Equal(t, "channel-1", tx.Authorization.ChannelID)
	assert.Equal(t, int64(100), tx.Authorization.Fee)
	assert.Equal(t, int64(1000), tx.Authorization.Amount)
	assert.Equal(t, 15*time.Minute, tx.Authorization.OutcomeTimeout)
}

func TestRequestAuthorization_WrongStateCallsNoGateway(t *testing.T) {
	gw := &fakeGateway{id: domain.GatewayXPay, eligibleFn: cardEligible}
	svc, events, _ := newAuthorizationFixture(gw)

	txID := domain.TransactionID("tx-1")
	require.NoError(t, events.Append(context.Background(), activatedStream(txID)))
	_, err := svc.RequestAuthorization(context.Background(), cardCommand(txID))
	require.NoError(t, err)

	// A second request finds the transaction already past ACTIVATED.
	_, err = svc.RequestAuthorization(context.Background(), cardCommand(txID))

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeAlreadyProcessed))
	assert.Contains(t, err.Error(), testRptID)
	assert.Equal(t, 1, gw.calls)
}

func TestRequestAuthorization_NoEligibleGateway(t *testing.T) {
	gw := &fakeGateway{id: domain.GatewayXPay, eligibleFn: func(gateway.AuthRequest) bool { return false }}
	svc, events, _ := newAuthorizationFixture(gw)

	txID := domain.TransactionID("tx-1")
	require.NoError(t, events.Append(context.Background(), activatedStream(txID)))

	_, err := svc.RequestAuthorization(context.Background(), cardCommand(txID))

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeNoGatewayMatched))
	assert.Equal(t, 0, gw.calls)
}

func TestRequestAuthorization_UnknownTransaction(t *testing.T) {
	svc, _, _ := newAuthorizationFixture(&fakeGateway{id: domain.GatewayXPay, eligibleFn: cardEligible})

	_, err := svc.RequestAuthorization(context.Background(), cardCommand("missing"))

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeTransactionNotFound))
}

func TestRequestAuthorization_WalletLinksSessionBeforeDispatch(t *testing.T) {
	gw := &fakeGateway{
		id: domain.GatewayNPG,
		eligibleFn: func(req gateway.AuthRequest) bool {
			_, ok := req.Details.(gateway.WalletDetails)
			return ok
		},
	}
	svc, events, sessions := newAuthorizationFixture(gw)

	txID := domain.TransactionID("tx-1")
	require.NoError(t, events.Append(context.Background(), activatedStream(txID)))

	cmd := cardCommand(txID)
	cmd.Details = gateway.WalletDetails{OrderID: "order-42"}
	cmd.PaymentTypeCode = "PPAL"

	_, err := svc.RequestAuthorization(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, txID, sessions.links["order-42"])
}

func TestRequestAuthorization_SessionLinkFailureAbortsDispatch(t *testing.T) {
	gw := &fakeGateway{
		id: domain.GatewayNPG,
		eligibleFn: func(req gateway.AuthRequest) bool {
			_, ok := req.Details.(gateway.WalletDetails)
			return ok
		},
	}
	svc, events, sessions := newAuthorizationFixture(gw)
	sessions.LinkFn = func(ctx context.Context, orderID string, txID domain.TransactionID) error {
		return errors.New("redis down")
	}

	txID := domain.TransactionID("tx-1")
	require.NoError(t, events.Append(context.Background(), activatedStream(txID)))

	cmd := cardCommand(txID)
	cmd.Details = gateway.WalletDetails{OrderID: "order-42"}

	_, err := svc.RequestAuthorization(context.Background(), cmd)

	require.Error(t, err)
	assert.Equal(t, 0, gw.calls)
	tx := domain.Reduce(events.streams[txID])
	assert.Equal(t, domain.StatusActivated, tx.Status)
}

func TestRequestAuthorization_GatewayFailureAppendsNothing(t *testing.T) {
	gw := &fakeGateway{
		id:         domain.GatewayXPay,
		eligibleFn: cardEligible,
		authorizeFn: func(ctx context.Context, req gateway.AuthRequest) (*gateway.AuthResponse, error) {
			return nil, errors.New("upstream 502")
		},
	}
	svc, events, _ := newAuthorizationFixture(gw)

	txID := domain.TransactionID("tx-1")
	require.NoError(t, events.Append(context.Background(), activatedStream(txID)))

	_, err := svc.RequestAuthorization(context.Background(), cardCommand(txID))

	require.Error(t, err)
	tx := domain.Reduce(events.streams[txID])
	assert.Equal(t, domain.StatusActivated, tx.Status)
}
