package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WhatsAppClient posts template messages to the WhatsApp Business API.
type WhatsAppClient struct {
	APIURL string
	Token  string
	Client *http.Client
}

// NewWhatsAppClient returns a client for the given messages endpoint URL.
// An empty URL yields a client whose sends fail fast; callers treat that as
// a logged, non-fatal notification failure.
func NewWhatsAppClient(apiURL, token string) *WhatsAppClient {
	return &WhatsAppClient{
		APIURL: apiURL,
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type whatsAppTemplate struct {
	Name     string            `json:"name"`
	Language map[string]string `json:"language"`
}

type whatsAppMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Template         whatsAppTemplate `json:"template"`
}

// SendTemplate sends a named message template to the recipient. The contact
// must be in full international format, e.g. 233XXXXXXXXX.
func (w *WhatsAppClient) SendTemplate(to, templateName string) error {
	if w.APIURL == "" {
		return fmt.Errorf("whatsapp api not configured")
	}

	payload := whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: whatsAppTemplate{
			Name:     templateName,
			Language: map[string]string{"code": "en_US"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, w.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+w.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp api returned status %d", resp.StatusCode)
	}
	return nil
}
