package handlers

import (
	"time"

	"github.com/pagopay/transactions-service/internal/domain"
)

type NewTransactionRequest struct {
	Email          string      `json:"email" validate:"required,email"`
	ClientID       string      `json:"client_id" validate:"required"`
	PaymentNotices []NoticeDTO `json:"payment_notices" validate:"required,min=1,dive"`
}

type NoticeDTO struct {
	RptID       string        `json:"rpt_id" validate:"required,len=29,numeric"`
	Amount      int64         `json:"amount" validate:"required,gt=0"`
	Description string        `json:"description"`
	Transfers   []TransferDTO `json:"transfers" validate:"omitempty,dive"`
}

type TransferDTO struct {
	PaFiscalCode string `json:"pa_fiscal_code" validate:"required,len=11,numeric"`
	Amount       int64  `json:"amount" validate:"required,gt=0"`
	Category     string `json:"category"`
	IBAN         string `json:"iban"`
	DigitalStamp bool   `json:"digital_stamp"`
}

type AuthorizationRequest struct {
	Fee             int64              `json:"fee" validate:"gte=0"`
	PspID           string             `json:"psp_id" validate:"required"`
	PaymentMethod   string             `json:"payment_method" validate:"required"`
	PaymentTypeCode string             `json:"payment_type_code" validate:"required"`
	Language        string             `json:"language"`
	Gateway         string             `json:"gateway" validate:"omitempty,oneof=XPAY VPOS REDIRECT NPG"`
	Details         *AuthorizationData `json:"details" validate:"required"`
}

// AuthorizationData is a tagged union over the gateway families' instrument
// details. Type selects the variant; only that variant's fields are read.
type AuthorizationData struct {
	Type string `json:"type" validate:"required,oneof=card wallet redirect apm"`

	Pan        string `json:"pan,omitempty"`
	CVV        string `json:"cvv,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	HolderName string `json:"holder_name,omitempty"`

	OrderID string `json:"order_id,omitempty"`

	PspTransactionID string `json:"psp_transaction_id,omitempty"`
}

// UpdateAuthorizationRequest is the outcome callback payload. Gateway selects
// the family vocabulary the remaining fields are interpreted in.
type UpdateAuthorizationRequest struct {
	Gateway string `json:"gateway" validate:"required,oneof=XPAY VPOS REDIRECT NPG"`

	Outcome           string    `json:"outcome,omitempty"`
	Status            string    `json:"status,omitempty"`
	OperationResult   string    `json:"operation_result,omitempty"`
	OperationID       string    `json:"operation_id,omitempty"`
	ErrorCode         string    `json:"error_code,omitempty"`
	AuthorizationCode string    `json:"authorization_code,omitempty"`
	RRN               string    `json:"rrn,omitempty"`
	PaymentEndToEndID string    `json:"payment_end_to_end_id,omitempty"`
	PspID             string    `json:"psp_id,omitempty"`
	PspTransactionID  string    `json:"psp_transaction_id,omitempty"`
	OperationAt       time.Time `json:"operation_at" validate:"required"`
}

// NPGSessionOutcomeRequest is the hosted-gateway webhook payload. It carries
// no transaction id; the order id in the path is resolved through the wallet
// session registry.
type NPGSessionOutcomeRequest struct {
	OperationResult   string    `json:"operation_result" validate:"required"`
	OperationID       string    `json:"operation_id,omitempty"`
	AuthorizationCode string    `json:"authorization_code,omitempty"`
	PaymentEndToEndID string    `json:"payment_end_to_end_id,omitempty"`
	OperationAt       time.Time `json:"operation_at" validate:"required"`
}

type UserReceiptRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=OK KO"`
}

// TransactionResponse is the read model returned by every lifecycle endpoint.
type TransactionResponse struct {
	TransactionID string                     `json:"transaction_id"`
	Status        string                     `json:"status"`
	Email         string                     `json:"email,omitempty"`
	ClientID      string                     `json:"client_id,omitempty"`
	TotalAmount   int64                      `json:"total_amount"`
	CreatedAt     time.Time                  `json:"created_at"`
	Notices       []NoticeResponse           `json:"payment_notices"`
	Authorization *AuthorizationViewResponse `json:"authorization,omitempty"`
}

type NoticeResponse struct {
	RptID        string `json:"rpt_id"`
	PaymentToken string `json:"payment_token"`
	Amount       int64  `json:"amount"`
	Description  string `json:"description,omitempty"`
}

type AuthorizationViewResponse struct {
	Gateway           string `json:"gateway"`
	RequestID         string `json:"request_id"`
	Fee               int64  `json:"fee"`
	Outcome           string `json:"outcome,omitempty"`
	ErrorCode         string `json:"error_code,omitempty"`
	RRN               string `json:"rrn,omitempty"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
}

func toTransactionResponse(tx *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: string(tx.ID),
		Status:        string(tx.Status),
		Email:         tx.Email,
		ClientID:      tx.ClientID,
		TotalAmount:   tx.TotalAmount(),
		CreatedAt:     tx.CreatedAt,
	}
	for _, n := range tx.Notices {
		resp.Notices = append(resp.Notices, NoticeResponse{
			RptID:        n.RptID,
			PaymentToken: n.PaymentToken,
			Amount:       n.Amount,
			Description:  n.Description,
		})
	}
	if tx.Authorization != nil {
		auth := &AuthorizationViewResponse{
			Gateway:   string(tx.Authorization.Gateway),
			RequestID: tx.Authorization.RequestID,
			Fee:       tx.Authorization.Fee,
		}
		if tx.AuthResult != nil {
			auth.Outcome = string(tx.AuthResult.Outcome)
			auth.ErrorCode = tx.AuthResult.ErrorCode
			auth.RRN = tx.AuthResult.RRN
			auth.AuthorizationCode = tx.AuthResult.AuthorizationCode
		}
		resp.Authorization = auth
	}
	return resp
}

func toTransfers(dtos []TransferDTO) []domain.Transfer {
	if len(dtos) == 0 {
		return nil
	}
	out := make([]domain.Transfer, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, domain.Transfer{
			PaFiscalCode: dto.PaFiscalCode,
			Amount:       dto.Amount,
			Category:     dto.Category,
			IBAN:         dto.IBAN,
			DigitalStamp: dto.DigitalStamp,
		})
	}
	return out
}
