package domain

// Reduce folds an ordered event stream into the transaction state. The fold is
// pure and deterministic: the same sequence always yields the same state, so
// handlers can replay a stream after a restart and observe identical results.
//
// Two lenience rules keep the reducer forward compatible and race tolerant:
// unknown event types are skipped, and an event that is not legal for the
// current state leaves the state unchanged. Legality of commands is enforced
// by the handlers before appending, not here.
func Reduce(events []Event) *Transaction {
	var tx *Transaction
	for _, ev := range events {
		tx = apply(tx, ev)
	}
	return tx
}

func apply(tx *Transaction, ev Event) *Transaction {
	switch e := ev.(type) {
	case ActivationRequestedEvent:
		if tx != nil {
			return tx
		}
		return &Transaction{
			ID:        e.TxID,
			Status:    StatusActivationRequested,
			Notices:   e.Notices,
			Email:     e.Email,
			ClientID:  e.ClientID,
			CreatedAt: e.CreatedAt,
		}

	case ActivatedEvent:
		if tx == nil {
			return &Transaction{
				ID:        e.TxID,
				Status:    StatusActivated,
				Notices:   e.Notices,
				Email:     e.Email,
				ClientID:  e.ClientID,
				CreatedAt: e.CreatedAt,
			}
		}
		if tx.Status != StatusActivationRequested {
			return tx
		}
		tx.Status = StatusActivated
		tx.Notices = e.Notices
		return tx

	case AuthorizationRequestedEvent:
		if tx == nil || tx.Status != StatusActivated {
			return tx
		}
		tx.Status = StatusAuthorizationRequested
		tx.Authorization = &AuthorizationInfo{
			Gateway:         e.Gateway,
			Amount:          e.Amount,
			Fee:             e.Fee,
			RequestID:       e.RequestID,
			PspID:           e.PspID,
			BrokerID:        e.BrokerID,
			ChannelID:       e.ChannelID,
			PaymentMethod:   e.PaymentMethod,
			PaymentTypeCode: e.PaymentTypeCode,
			RequestedAt:     e.CreatedAt,
			OutcomeTimeout:  e.OutcomeTimeout,
		}
		return tx

	case AuthorizationCompletedEvent:
		if tx == nil || tx.Status != StatusAuthorizationRequested {
			return tx
		}
		if e.Outcome == OutcomeOK {
			tx.Status = StatusAuthorized
		} else {
			tx.Status = StatusAuthorizationFailed
		}
		tx.AuthResult = &AuthorizationResult{
			Outcome:           e.Outcome,
			ErrorCode:         e.ErrorCode,
			RRN:               e.RRN,
			AuthorizationCode: e.AuthorizationCode,
			OperationAt:       e.OperationAt,
		}
		return tx

	case ClosureSentEvent:
		if tx == nil {
			return tx
		}
		if tx.Status != StatusAuthorized && tx.Status != StatusAuthorizationFailed {
			return tx
		}
		tx.Status = e.NewStatus
		tx.Closure = &ClosureInfo{
			NodeOutcome: e.NodeOutcome,
			SentAt:      e.CreatedAt,
		}
		return tx

	case RefundRequestedEvent:
		if tx == nil || tx.Closure == nil {
			return tx
		}
		tx.RefundRequested = true
		return tx

	case UserReceiptRequestedEvent:
		if tx == nil || tx.Status != StatusClosed {
			return tx
		}
		if e.Outcome == OutcomeOK {
			tx.Status = StatusNotifiedOK
		} else {
			tx.Status = StatusNotifiedKO
		}
		return tx

	case UserCanceledEvent:
		if tx == nil {
			return tx
		}
		if tx.Status != StatusActivated && tx.Status != StatusAuthorizationRequested {
			return tx
		}
		tx.Status = StatusCanceled
		return tx

	case ExpiredEvent:
		if tx == nil || !tx.Status.IsPreClosure() {
			return tx
		}
		tx.Status = StatusExpired
		return tx

	default:
		// Unknown event type, likely appended by a newer schema.
		return tx
	}
}
