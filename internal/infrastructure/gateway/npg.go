package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
)

// NPGClient is the hosted-payment gateway. It serves wallet authorizations
// (pre-negotiated order ids) and generic APM payment types that no earlier
// candidate claimed.
type NPGClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewNPGClient(cfg config.GatewayConfig) *NPGClient {
	return &NPGClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *NPGClient) ID() domain.GatewayID { return domain.GatewayNPG }

func (c *NPGClient) Eligible(req AuthRequest) bool {
	if req.GatewayHint != "" && req.GatewayHint != domain.GatewayNPG {
		return false
	}
	switch req.Details.(type) {
	case WalletDetails, ApmDetails:
		return true
	default:
		return false
	}
}

type npgOrderRequest struct {
	OrderID  string `json:"orderId,omitempty"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Language string `json:"language"`
}

type npgOrderResponse struct {
	OperationID string `json:"operationId"`
	HostedURL   string `json:"hostedPage"`
}

func (c *NPGClient) RequestAuthorization(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	gwReq := npgOrderRequest{
		Amount:   req.Amount + req.Fee,
		Currency: "EUR",
		Language: req.Language,
	}
	if wallet, ok := req.Details.(WalletDetails); ok {
		gwReq.OrderID = wallet.OrderID
	}

	url := fmt.Sprintf("%s/orders/build", c.baseURL)
	gwResp, err := postJSON[npgOrderRequest, npgOrderResponse](ctx, c.httpClient, "npg", url, c.apiKey, &gwReq)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		RequestID:    gwResp.OperationID,
		RedirectURL:  gwResp.HostedURL,
		OperationRef: gwResp.OperationID,
	}, nil
}
