package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pagopay/transactions-service/internal/domain"
)

var ErrTransactionViewNotFound = errors.New("transaction view not found")

// ViewRepository maintains the flat read model used for fast lookups. It is a
// projection of the event log: Apply is called after each append and its
// failure never rolls the append back.
type ViewRepository struct {
	db *DB
}

func NewViewRepository(db *DB) *ViewRepository {
	return &ViewRepository{db: db}
}

func (r *ViewRepository) Apply(ctx context.Context, ev domain.Event) error {
	switch e := ev.(type) {
	case domain.ActivationRequestedEvent:
		return r.insertView(ctx, e.TxID, domain.StatusActivationRequested, e.Email, e.ClientID, e.Notices, e.CreatedAt)
	case domain.ActivatedEvent:
		return r.upsertActivated(ctx, e)
	case domain.AuthorizationRequestedEvent:
		query := `
			UPDATE transactions_view
			SET status = $1, gateway = $2, fee_cents = $3, updated_at = $4
			WHERE transaction_id = $5
		`
		return r.exec(ctx, query, string(domain.StatusAuthorizationRequested), string(e.Gateway), e.Fee, time.Now(), string(e.TxID))
	case domain.AuthorizationCompletedEvent:
		status := domain.StatusAuthorized
		if e.Outcome != domain.OutcomeOK {
			status = domain.StatusAuthorizationFailed
		}
		query := `
			UPDATE transactions_view
			SET status = $1, rrn = NULLIF($2, ''), authorization_code = NULLIF($3, ''), updated_at = $4
			WHERE transaction_id = $5
		`
		return r.exec(ctx, query, string(status), e.RRN, e.AuthorizationCode, time.Now(), string(e.TxID))
	case domain.ClosureSentEvent:
		return r.updateStatus(ctx, e.TxID, e.NewStatus)
	case domain.RefundRequestedEvent:
		// Compensation marker, no view column to change.
		return nil
	case domain.UserReceiptRequestedEvent:
		status := domain.StatusNotifiedOK
		if e.Outcome != domain.OutcomeOK {
			status = domain.StatusNotifiedKO
		}
		return r.updateStatus(ctx, e.TxID, status)
	case domain.UserCanceledEvent:
		return r.updateStatus(ctx, e.TxID, domain.StatusCanceled)
	case domain.ExpiredEvent:
		return r.updateStatus(ctx, e.TxID, domain.StatusExpired)
	default:
		return nil
	}
}

func (r *ViewRepository) insertView(ctx context.Context, txID domain.TransactionID, status domain.TransactionStatus, email, clientID string, notices []domain.PaymentNotice, createdAt time.Time) error {
	var amount int64
	rptIDs := make([]string, 0, len(notices))
	tokens := make([]string, 0, len(notices))
	for _, n := range notices {
		amount += n.Amount
		rptIDs = append(rptIDs, n.RptID)
		if n.PaymentToken != "" {
			tokens = append(tokens, n.PaymentToken)
		}
	}

	query := `
		INSERT INTO transactions_view (
			transaction_id, status, email, client_id, amount_cents,
			rpt_ids, payment_tokens, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (transaction_id) DO UPDATE
		SET status = EXCLUDED.status,
		    payment_tokens = EXCLUDED.payment_tokens,
		    updated_at = EXCLUDED.updated_at
	`
	return r.exec(ctx, query, string(txID), string(status), email, clientID, amount, rptIDs, tokens, createdAt)
}

func (r *ViewRepository) upsertActivated(ctx context.Context, e domain.ActivatedEvent) error {
	return r.insertView(ctx, e.TxID, domain.StatusActivated, e.Email, e.ClientID, e.Notices, e.CreatedAt)
}

func (r *ViewRepository) updateStatus(ctx context.Context, txID domain.TransactionID, status domain.TransactionStatus) error {
	query := `UPDATE transactions_view SET status = $1, updated_at = $2 WHERE transaction_id = $3`
	return r.exec(ctx, query, string(status), time.Now(), string(txID))
}

func (r *ViewRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("apply event to view: %w", err)
	}
	return nil
}

// FindByID looks up the flat view row for a transaction.
func (r *ViewRepository) FindByID(ctx context.Context, txID domain.TransactionID) (*ViewModel, error) {
	query := `
		SELECT transaction_id, status, email, client_id, amount_cents, fee_cents,
		       gateway, rpt_ids, payment_tokens, rrn, authorization_code,
		       created_at, updated_at
		FROM transactions_view
		WHERE transaction_id = $1
	`

	row := r.db.Pool.QueryRow(ctx, query, string(txID))
	return scanView(row)
}

// FindExpiredCandidates returns non-terminal transactions created before the
// cutoff, oldest first. The expiration worker re-derives each aggregate from
// its stream before appending anything.
func (r *ViewRepository) FindExpiredCandidates(ctx context.Context, cutoff time.Time, limit int) ([]*ViewModel, error) {
	query := `
		SELECT transaction_id, status, email, client_id, amount_cents, fee_cents,
		       gateway, rpt_ids, payment_tokens, rrn, authorization_code,
		       created_at, updated_at
		FROM transactions_view
		WHERE created_at < $1
		  AND status NOT IN ('CLOSED', 'CLOSURE_FAILED', 'NOTIFIED_OK', 'NOTIFIED_KO', 'CANCELED', 'EXPIRED')
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query expiration candidates: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*ViewModel, error) {
		return scanView(row)
	})
}

func scanView(row pgx.Row) (*ViewModel, error) {
	var m ViewModel
	err := row.Scan(
		&m.TransactionID, &m.Status, &m.Email, &m.ClientID, &m.AmountCents, &m.FeeCents,
		&m.Gateway, &m.RptIDs, &m.PaymentTokens, &m.RRN, &m.AuthorizationCode,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionViewNotFound
		}
		return nil, fmt.Errorf("scan transaction view: %w", err)
	}
	return &m, nil
}
