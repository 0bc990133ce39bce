package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inmuebles-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyNewLead_NoKeyIsNoop(t *testing.T) {
	c := &BrevoClient{NotifyTo: "oficina@example.com", Endpoint: "http://127.0.0.1:1"}
	assert.NoError(t, c.NotifyNewLead(context.Background(), domain.Lead{Name: "Ana"}))
}

func TestNotifyNewLead_SendsEscapedBody(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", NotifyTo: "oficina@example.com", SiteURL: "https://isahouse.co", Endpoint: srv.URL}
	err := c.NotifyNewLead(context.Background(), domain.Lead{
		Name:         "Ana <b>",
		Phone:        "3001234567",
		Email:        "ana@example.com",
		Message:      "Quiero visitar",
		Origin:       domain.OriginDetailForm,
		PropertySlug: "casa-centro",
		PropertyCode: "CAS-001",
	})
	require.NoError(t, err)

	assert.Equal(t, "k", apiKey)
	assert.Equal(t, "Nuevo lead: Ana <b> (CAS-001)", got.Subject)
	require.Len(t, got.To, 1)
	assert.Equal(t, "oficina@example.com", got.To[0].Email)
	require.NotNil(t, got.ReplyTo)
	assert.Equal(t, "ana@example.com", got.ReplyTo.Email)
	assert.Contains(t, got.HTMLContent, "Ana &lt;b&gt;")
	assert.Contains(t, got.HTMLContent, "https://isahouse.co/propiedades/casa-centro")
}

func TestNotifyNewLead_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k", NotifyTo: "oficina@example.com", Endpoint: srv.URL}
	assert.Error(t, c.NotifyNewLead(context.Background(), domain.Lead{Name: "Ana"}))
}
