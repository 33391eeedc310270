package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/mesaflow/mesaflow-backend/pkg/errors"
	"github.com/mesaflow/mesaflow-backend/pkg/types"
)

func TestSendTextMessage(t *testing.T) {
	var captured sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/104555/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "wamid.out.1"}},
		})
	}))
	defer server.Close()

	client, err := NewClient("token-123", WithBaseURL(server.URL))
	require.NoError(t, err)

	id, err := client.Send(context.Background(), "104555", "254700111222", "", types.TextReply("hello"))
	require.NoError(t, err)
	assert.Equal(t, "wamid.out.1", id)
	assert.Equal(t, "whatsapp", captured.MessagingProduct)
	assert.Equal(t, "text", captured.Type)
	require.NotNil(t, captured.Text)
	assert.Equal(t, "hello", captured.Text.Body)
}

func TestSendUsesTenantCredentialWhenRefResolves(t *testing.T) {
	t.Setenv("MAMA_OLIVE_WA_TOKEN", "tenant-token")

	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "wamid.out.2"}},
		})
	}))
	defer server.Close()

	client, err := NewClient("platform-token", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Send(context.Background(), "104555", "254700111222", "MAMA_OLIVE_WA_TOKEN", types.TextReply("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tenant-token", auth)

	// An unset ref falls back to the platform token.
	_, err = client.Send(context.Background(), "104555", "254700111222", "NO_SUCH_REF", types.TextReply("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer platform-token", auth)
}

func TestSendMapsProviderErrorToDependency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream sad"}}`))
	}))
	defer server.Close()

	client, err := NewClient("token-123", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Send(context.Background(), "104555", "254700111222", "", types.TextReply("hello"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.True(t, pkgerrors.Retryable(err))
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient("   ")
	require.Error(t, err)
}

func TestSendValidatesRecipient(t *testing.T) {
	client, err := NewClient("token-123")
	require.NoError(t, err)

	_, err = client.Send(context.Background(), "", "to", "", types.TextReply("x"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = client.Send(context.Background(), "104555", "", "", types.TextReply("x"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
