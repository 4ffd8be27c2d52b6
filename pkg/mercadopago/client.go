// Package mercadopago is a minimal client for the Mercado Pago payments API.
// The reconciler never trusts webhook payload contents; it always re-fetches
// the authoritative payment object here using the tenant's access token.
package mercadopago

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.mercadopago.com"

// Payment statuses returned by the payments API.
const (
	StatusApproved  = "approved"
	StatusPending   = "pending"
	StatusInProcess = "in_process"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// Payment is the subset of the Mercado Pago payment object the reconciler
// needs.
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	PaymentMethodID   string  `json:"payment_method_id"`
	PaymentTypeID     string  `json:"payment_type_id"`
	DateApproved      string  `json:"date_approved"`
}

func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake API.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// GetPayment fetches a payment by id using the given tenant access token.
// A 404 or 401 means this credential does not own the payment.
func (c *Client) GetPayment(accessToken, paymentID string) (*Payment, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching payment %s: %v", paymentID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mercadopago API error (%d): %s", resp.StatusCode, string(body))
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("error decoding payment: %v", err)
	}

	return &payment, nil
}
