package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagopay/transactions-service/internal/domain"
	"github.com/pagopay/transactions-service/internal/infrastructure/gateway"
)

const authTimeout = 10 * time.Minute

func newUpdateFixture() (*UpdateAuthorizationService, *fakeEventStore) {
	events := newFakeEventStore()
	svc := NewUpdateAuthorizationService(events, &fakeViewStore{}, authTimeout, testLogger())
	return svc, events
}

// seedAuthorizationRequested builds a transaction stream that stopped at
// AUTHORIZATION_REQUESTED on the given gateway, with the request stamped at
// requestedAt.
func seedAuthorizationRequested(t *testing.T, events *fakeEventStore, txID domain.TransactionID, gw domain.GatewayID, requestedAt time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, events.Append(ctx, activatedStream(txID)))

	authEv := domain.AuthorizationRequestedEvent{
		BaseEvent:       domain.NewBaseEvent(txID),
		Gateway:         gw,
		Amount:          1000,
		Fee:             100,
		RequestID:       "psp-tx-9",
		PspID:           "BCITITMM",
		BrokerID:        "broker-1",
		ChannelID:       "channel-1",
		PaymentMethod:   "CARDS",
		PaymentTypeCode: "CP",
	}
	authEv.CreatedAt = requestedAt
	require.NoError(t, events.Append(ctx, authEv))
}

func TestUpdateAuthorization_NPGExecutedAuthorizes(t *testing.T) {
	svc, events := newUpdateFixture()
	txID := domain.TransactionID("tx-1")
	seedAuthorizationRequested(t, events, txID, domain.GatewayNPG, time.Now())

	operationAt := time.Now()
	tx, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
		TransactionID: txID,
		Outcome: gateway.NPGOutcome{
			OperationResult:   "EXECUTED",
			AuthorizationCode: "auth-77",
			PaymentEndToEndID: "e2e-123",
			OperationAt:       operationAt,
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusAuthorized, tx.Status)
	require.NotNil(t, tx.AuthResult)
	assert.Equal(t, domain.OutcomeOK, tx.AuthResult.Outcome)
	assert.Equal(t, "auth-77", tx.AuthResult.AuthorizationCode)
	assert.Equal(t, "e2e-123", tx.AuthResult.RRN)
}

func TestUpdateAuthorization_NPGDeclinedFails(t *testing.T) {
	svc, events := newUpdateFixture()
	txID := domain.TransactionID("tx-1")
	seedAuthorizationRequested(t, events, txID, domain.GatewayNPG, time.Now())

	tx, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
		TransactionID: txID,
		Outcome:       gateway.NPGOutcome{OperationResult: "DECLINED", OperationAt: time.Now()},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusAuthorizationFailed, tx.Status)
	assert.Equal(t, domain.OutcomeKO, tx.AuthResult.Outcome)
	assert.Equal(t, "DECLINED", tx.AuthResult.ErrorCode)
}

func TestUpdateAuthorization_UnknownVocabularyFailsClosed(t *testing.T) {
	svc, events := newUpdateFixture()
	txID := domain.TransactionID("tx-1")
	seedAuthorizationRequested(t, events, txID, domain.GatewayNPG, time.Now())

	_, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
		TransactionID: txID,
		Outcome:       gateway.NPGOutcome{OperationResult: "HALF_EXECUTED", OperationAt: time.Now()},
	})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidRequest))
	tx := domain.Reduce(events.streams[txID])
	assert.Equal(t, domain.StatusAuthorizationRequested, tx.Status)
}

func TestUpdateAuthorization_WrongStateIsRejected(t *testing.T) {
	svc, events := newUpdateFixture()
	txID := domain.TransactionID("tx-1")
	require.NoError(t, events.Append(context.Background(), activatedStream(txID)))

	_, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
		TransactionID: txID,
		Outcome:       gateway.NPGOutcome{OperationResult: "EXECUTED", OperationAt: time.Now()},
	})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeAlreadyProcessed))
}

func TestUpdateAuthorization_FamilyMismatchIsRejected(t *testing.T) {
	svc, events := newUpdateFixture()
	txID := domain.TransactionID("tx-1")
	seedAuthorizationRequested(t, events, txID, domain.GatewayXPay, time.Now())

	_, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
		TransactionID: txID,
		Outcome:       gateway.NPGOutcome{OperationResult: "EXECUTED", OperationAt: time.Now()},
	})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidRequest))
}

func redirectOutcome() gateway.RedirectOutcome {
	return gateway.RedirectOutcome{
		Outcome:           "OK",
		PspID:             "BCITITMM",
		PspTransactionID:  "psp-tx-9",
		AuthorizationCode: "auth-1",
		RRN:               "rrn-1",
		OperationAt:       time.Now(),
	}
}

func TestUpdateAuthorization_RedirectPspMismatchIsRejected(t *testing.T) {
	svc, events := newUpdateFixture()
	txID := domain.TransactionID("tx-1")
	seedAuthorizationRequested(t, events, txID, domain.GatewayRedirect, time.Now())

	outcome := redirectOutcome()
	outcome.PspID = "OTHERPSP"

	_, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
		TransactionID: txID, Outcome: outcome,
	})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidRequest))
}

func TestUpdateAuthorization_RedirectTransactionIDMismatchIsRejected(t *testing.T) {
	svc, events := newUpdateFixture()
	txID := domain.TransactionID("tx-1")
	seedAuthorizationRequested(t, events, txID, domain.GatewayRedirect, time.Now())

	outcome := redirectOutcome()
	outcome.PspTransactionID = "psp-tx-10"

	_, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
		TransactionID: txID, Outcome: outcome,
	})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidRequest))
}

func TestUpdateAuthorization_RedirectTimingBoundary(t *testing.T) {
	requestedAt := time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		now      time.Time
		accepted bool
	}{
		{"just inside the timeout", requestedAt.Add(authTimeout - time.Millisecond), true},
		{"just past the timeout", requestedAt.Add(authTimeout + time.Millisecond), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, events := newUpdateFixture()
			svc.now = func() time.Time { return tc.now }
			txID := domain.TransactionID("tx-1")
			seedAuthorizationRequested(t, events, txID, domain.GatewayRedirect, requestedAt)

			_, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
				TransactionID: txID, Outcome: redirectOutcome(),
			})

			if tc.accepted {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidRequest))
			}
		})
	}
}

// The window recorded on the authorization request governs the callback, not
// whatever the service is configured with by the time it arrives.
func TestUpdateAuthorization_RecordedWindowBeatsCurrentConfig(t *testing.T) {
	requestedAt := time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)
	recordedWindow := 5 * time.Minute // tighter than the fixture's authTimeout

	svc, events := newUpdateFixture()
	svc.now = func() time.Time { return requestedAt.Add(7 * time.Minute) }
	txID := domain.TransactionID("tx-1")

	ctx := context.Background()
	require.NoError(t, events.Append(ctx, activatedStream(txID)))
	authEv := domain.AuthorizationRequestedEvent{
		BaseEvent:      domain.NewBaseEvent(txID),
		Gateway:        domain.GatewayRedirect,
		RequestID:      "psp-tx-9",
		PspID:          "BCITITMM",
		OutcomeTimeout: recordedWindow,
	}
	authEv.CreatedAt = requestedAt
	require.NoError(t, events.Append(ctx, authEv))

	_, err := svc.UpdateAuthorization(ctx, UpdateAuthorizationCommand{
		TransactionID: txID, Outcome: redirectOutcome(),
	})

	require.Error(t, err)
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidRequest))

	tx := domain.Reduce(events.streams[txID])
	assert.Equal(t, domain.StatusAuthorizationRequested, tx.Status)
}

func TestUpdateAuthorization_XPayOutcomes(t *testing.T) {
	svc, events := newUpdateFixture()
	txID := domain.TransactionID("tx-1")
	seedAuthorizationRequested(t, events, txID, domain.GatewayXPay, time.Now())

	tx, err := svc.UpdateAuthorization(context.Background(), UpdateAuthorizationCommand{
		TransactionID: txID,
		Outcome: gateway.XPayOutcome{
			Outcome:           "OK",
			AuthorizationCode: "xp-1",
			RRN:               "rrn-xp",
			OperationAt:       time.Now(),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusAuthorized, tx.Status)
	assert.Equal(t, "rrn-xp", tx.AuthResult.RRN)
}
