package gateway

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
)

// RedirectClient serves the out-of-band redirect family: the user is sent to
// the PSP's own pages and the outcome comes back on a separate channel, so the
// callback is not cryptographically bound to the request. The outcome
// validator compensates with identity and timing checks.
type RedirectClient struct {
	baseURL      string
	apiKey       string
	paymentTypes []string
	httpClient   *http.Client
}

func NewRedirectClient(cfg config.GatewayConfig, paymentTypes []string) *RedirectClient {
	return &RedirectClient{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		paymentTypes: paymentTypes,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *RedirectClient) ID() domain.GatewayID { return domain.GatewayRedirect }

func (c *RedirectClient) Eligible(req AuthRequest) bool {
	if req.GatewayHint != "" && req.GatewayHint != domain.GatewayRedirect {
		return false
	}
	if _, ok := req.Details.(RedirectDetails); !ok {
		return false
	}
	return slices.Contains(c.paymentTypes, req.PaymentTypeCode)
}

type redirectAuthRequest struct {
	TransactionID   string `json:"idTransaction"`
	Amount          int64  `json:"amount"`
	Description     string `json:"description"`
	PspID           string `json:"idPsp"`
	PaymentTypeCode string `json:"paymentTypeCode"`
	Language        string `json:"touchpoint"`
}

type redirectAuthResponse struct {
	RequestID        string `json:"idTransaction"`
	PspTransactionID string `json:"idPSPTransaction"`
	RedirectURL      string `json:"url"`
}

func (c *RedirectClient) RequestAuthorization(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	gwReq := redirectAuthRequest{
		TransactionID:   string(req.TransactionID),
		Amount:          req.Amount + req.Fee,
		Description:     req.Description,
		PspID:           req.PspID,
		PaymentTypeCode: req.PaymentTypeCode,
		Language:        req.Language,
	}

	url := fmt.Sprintf("%s/redirections", c.baseURL)
	gwResp, err := postJSON[redirectAuthRequest, redirectAuthResponse](ctx, c.httpClient, "redirect", url, c.apiKey, &gwReq)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		RequestID:   gwResp.PspTransactionID,
		RedirectURL: gwResp.RedirectURL,
	}, nil
}
