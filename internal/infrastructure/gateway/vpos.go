package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pagopay/transactions-service/internal/config"
	"github.com/pagopay/transactions-service/internal/domain"
)

// VPosClient is the second-priority card gateway. It only matches when the
// caller names it explicitly; otherwise card traffic goes to XPay.
type VPosClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewVPosClient(cfg config.GatewayConfig) *VPosClient {
	return &VPosClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *VPosClient) ID() domain.GatewayID { return domain.GatewayVPos }

func (c *VPosClient) Eligible(req AuthRequest) bool {
	if req.PaymentTypeCode != "CP" {
		return false
	}
	if req.GatewayHint != domain.GatewayVPos {
		return false
	}
	_, ok := req.Details.(CardDetails)
	return ok
}

type vposAuthRequest struct {
	TransactionID string `json:"idTransaction"`
	Amount        int64  `json:"amount"`
	Pan           string `json:"pan"`
	CVV           string `json:"securityCode"`
	ExpiryDate    string `json:"expireDate"`
	HolderName    string `json:"holder"`
}

type vposAuthResponse struct {
	RequestID   string `json:"requestId"`
	RedirectURL string `json:"urlRedirect"`
}

func (c *VPosClient) RequestAuthorization(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	card, ok := req.Details.(CardDetails)
	if !ok {
		return nil, fmt.Errorf("vpos: unsupported detail type %s", req.Details.DetailType())
	}

	gwReq := vposAuthRequest{
		TransactionID: string(req.TransactionID),
		Amount:        req.Amount + req.Fee,
		Pan:           card.Pan,
		CVV:           card.CVV,
		ExpiryDate:    card.ExpiryDate,
		HolderName:    card.HolderName,
	}

	url := fmt.Sprintf("%s/vpos/requests", c.baseURL)
	gwResp, err := postJSON[vposAuthRequest, vposAuthResponse](ctx, c.httpClient, "vpos", url, c.apiKey, &gwReq)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		RequestID:   gwResp.RequestID,
		RedirectURL: gwResp.RedirectURL,
	}, nil
}
