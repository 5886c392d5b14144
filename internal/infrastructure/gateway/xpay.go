package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
)

// XPayClient is the first-priority card gateway.
type XPayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewXPayClient(cfg config.GatewayConfig) *XPayClient {
	return &XPayClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *XPayClient) ID() domain.GatewayID { return domain.GatewayXPay }

func (c *XPayClient) Eligible(req AuthRequest) bool {
	if req.PaymentTypeCode != "CP" {
		return false
	}
	if req.GatewayHint != "" && req.GatewayHint != domain.GatewayXPay {
		return false
	}
	_, ok := req.Details.(CardDetails)
	return ok
}

type xpayAuthRequest struct {
	TransactionID string `json:"idTransazione"`
	Amount        int64  `json:"importo"`
	Pan           string `json:"pan"`
	CVV           string `json:"cvv"`
	ExpiryDate    string `json:"scadenza"`
}

type xpayAuthResponse struct {
	RequestID string `json:"requestId"`
	HTMLURL   string `json:"urlRedirect"`
}

func (c *XPayClient) RequestAuthorization(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	card, ok := req.Details.(CardDetails)
	if !ok {
		return nil, fmt.Errorf("xpay: unsupported detail type %s", req.Details.DetailType())
	}

	gwReq := xpayAuthRequest{
		TransactionID: string(req.TransactionID),
		Amount:        req.Amount + req.Fee,
		Pan:           card.Pan,
		CVV:           card.CVV,
		ExpiryDate:    card.ExpiryDate,
	}

	url := fmt.Sprintf("%s/api/requests", c.baseURL)
	gwResp, err := postJSON[xpayAuthRequest, xpayAuthResponse](ctx, c.httpClient, "xpay", url, c.apiKey, &gwReq)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		RequestID:   gwResp.RequestID,
		RedirectURL: gwResp.HTMLURL,
	}, nil
}
