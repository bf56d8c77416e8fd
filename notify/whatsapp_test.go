package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhatsAppSendTemplate(t *testing.T) {
	var got whatsAppMessage
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewWhatsAppClient(server.URL, "test-token")
	err := client.SendTemplate("233551234567", "welcome_patient")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "233551234567", got.To)
	assert.Equal(t, "welcome_patient", got.Template.Name)
}

func TestWhatsAppSendTemplateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewWhatsAppClient(server.URL, "bad-token")
	if err := client.SendTemplate("233551234567", "welcome_patient"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestWhatsAppUnconfigured(t *testing.T) {
	client := NewWhatsAppClient("", "")
	if err := client.SendTemplate("233551234567", "welcome_patient"); err == nil {
		t.Fatal("expected error when API URL is not configured")
	}
}
