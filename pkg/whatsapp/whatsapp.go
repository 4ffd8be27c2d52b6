// Package whatsapp sends templated WhatsApp messages through a generic
// message-API endpoint. Sends are best effort; billing never blocks on them.
package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	apiURL string
	token  string
	http   *http.Client
}

type message struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func NewClient(apiURL, token string) *Client {
	return &Client{
		apiURL: apiURL,
		token:  token,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an API endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiURL != ""
}

func (c *Client) SendMessage(to, body string) error {
	if !c.Enabled() {
		return fmt.Errorf("whatsapp API is not configured")
	}
	if to == "" {
		return fmt.Errorf("recipient number is empty")
	}

	jsonData, err := json.Marshal(message{To: to, Body: body})
	if err != nil {
		return fmt.Errorf("error marshaling message: %v", err)
	}

	req, err := http.NewRequest("POST", c.apiURL+"/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp API error: %s", string(respBody))
	}

	return nil
}

func (c *Client) SendChargeCreated(to, clientName string, amount float64, dueDate time.Time) error {
	body := fmt.Sprintf("Olá %s! Você tem uma nova cobrança de R$ %.2f com vencimento em %s.",
		clientName, amount, dueDate.Format("02/01/2006"))
	return c.SendMessage(to, body)
}

func (c *Client) SendPaymentConfirmation(to, clientName string, amount float64) error {
	body := fmt.Sprintf("Olá %s! Confirmamos o recebimento do seu pagamento de R$ %.2f. Obrigado!",
		clientName, amount)
	return c.SendMessage(to, body)
}
