package nodo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pagopay/transactions-service/internal/config"
)

// Client is the port for the central payment node.
type Client interface {
	ActivatePaymentNotice(ctx context.Context, req ActivateRequest) (*ActivateResponse, error)
	ActivatePaymentNoticeNM3(ctx context.Context, req ActivateNM3Request) (*ActivateResponse, error)
	ClosePayment(ctx context.Context, req ClosePaymentRequest) (*ClosePaymentResponse, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.NodoConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *HTTPClient) ActivatePaymentNotice(ctx context.Context, req ActivateRequest) (*ActivateResponse, error) {
	url := fmt.Sprintf("%s/nodo/v1/activate-payment-notice", c.baseURL)
	return sendRequest[ActivateRequest, ActivateResponse](c, ctx, url, &req)
}

func (c *HTTPClient) ActivatePaymentNoticeNM3(ctx context.Context, req ActivateNM3Request) (*ActivateResponse, error) {
	url := fmt.Sprintf("%s/nodo/v2/activate-payment-notice", c.baseURL)
	return sendRequest[ActivateNM3Request, ActivateResponse](c, ctx, url, &req)
}

func (c *HTTPClient) ClosePayment(ctx context.Context, req ClosePaymentRequest) (*ClosePaymentResponse, error) {
	url := fmt.Sprintf("%s/nodo/v2/close-payment", c.baseURL)
	return sendRequest[ClosePaymentRequest, ClosePaymentResponse](c, ctx, url, &req)
}

func sendRequest[Req any, Resp any](c *HTTPClient, ctx context.Context, url string, reqBody *Req) (*Resp, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var fault faultResponse
		if err := json.Unmarshal(body, &fault); err != nil || fault.FaultCode == "" {
			return nil, fmt.Errorf("nodo returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &FaultError{
			FaultCode:   fault.FaultCode,
			Description: fault.Description,
		}
	}

	var nodoResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&nodoResp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &nodoResp, nil
}

// AllCCP reports whether every transfer IBAN starts with one of the configured
// postal prefixes. The prefix scan is a business rule owned by the node side;
// its matching semantics must not be changed here.
func AllCCP(transfers []TransferInfo, postalPrefixes []string) bool {
	if len(transfers) == 0 || len(postalPrefixes) == 0 {
		return false
	}
	for _, tr := range transfers {
		if !hasPostalPrefix(tr.IBAN, postalPrefixes) {
			return false
		}
	}
	return true
}

func hasPostalPrefix(iban string, prefixes []string) bool {
	for _, p := range prefixes {
		if len(iban) >= len(p) && iban[:len(p)] == p {
			return true
		}
	}
	return false
}
