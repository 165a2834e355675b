package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nextprop/wabridge/internal/config"
)

// ErrNotConfigured is returned when WhatsApp credentials are absent. It is a
// local failure and consumes a retry attempt like any other send failure.
var ErrNotConfigured = errors.New("whatsapp client not configured")

// WhatsAppClient talks to the WhatsApp Cloud API. It performs exactly one
// HTTP call per send; retries belong to the queue processor, one layer up.
type WhatsAppClient struct {
	cfg    config.WhatsAppConfig
	client *http.Client
}

func NewWhatsAppClient(cfg config.WhatsAppConfig) *WhatsAppClient {
	return &WhatsAppClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *WhatsAppClient) Configured() bool {
	return c.cfg.Configured()
}

type textBody struct {
	Body string `json:"body"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateBody struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type sendRequest struct {
	MessagingProduct string        `json:"messaging_product"`
	RecipientType    string        `json:"recipient_type"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textBody     `json:"text,omitempty"`
	Template         *templateBody `json:"template,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SendText delivers a free-text message and returns the provider message id.
func (c *WhatsAppClient) SendText(ctx context.Context, to, body string) (string, error) {
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: body},
	})
}

// SendTemplate delivers a pre-approved template message. When params is
// empty the components block is omitted entirely; the provider rejects an
// empty component array.
func (c *WhatsAppClient) SendTemplate(ctx context.Context, to, templateName string, params []string) (string, error) {
	tpl := &templateBody{
		Name:     templateName,
		Language: templateLanguage{Code: "en"},
	}

	if len(params) > 0 {
		comp := templateComponent{Type: "body"}
		for _, p := range params {
			comp.Parameters = append(comp.Parameters, templateParameter{Type: "text", Text: p})
		}
		tpl.Components = []templateComponent{comp}
	}

	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "template",
		Template:         tpl,
	})
}

func (c *WhatsAppClient) send(ctx context.Context, payload sendRequest) (string, error) {
	if !c.cfg.Configured() {
		return "", ErrNotConfigured
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.BaseURL, c.cfg.PhoneNumberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var sr sendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("failed to decode json: %w body=%q", err, string(body))
	}

	if sr.Error != nil {
		return "", fmt.Errorf("provider error: %s", sr.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}
	if len(sr.Messages) == 0 || sr.Messages[0].ID == "" {
		return "", fmt.Errorf("missing message id in response body=%q", string(body))
	}

	return sr.Messages[0].ID, nil
}
