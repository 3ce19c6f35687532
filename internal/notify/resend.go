package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendNotifier delivers through the Resend HTTP API.
type ResendNotifier struct {
	APIKey   string
	From     string
	Endpoint string
	Client   *http.Client
}

// NewResendNotifier returns a notifier for the public Resend endpoint.
func NewResendNotifier(apiKey, from string) *ResendNotifier {
	return &ResendNotifier{
		APIKey:   apiKey,
		From:     from,
		Endpoint: resendEndpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (n *ResendNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(resendRequest{From: n.From, To: []string{msg.To}, Subject: msg.Subject, HTML: msg.HTML})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send email: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
