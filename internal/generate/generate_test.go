package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dayflow/internal/config"
)

func testClient(url string) *Client {
	return NewClient(config.GenerationConfig{
		Endpoint:       url,
		Model:          "test-model",
		APIKey:         "secret",
		TimeoutSeconds: 5,
	})
}

func TestGenerate(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "busy tuesday", req.Messages[1].Content)

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: "**7:00 AM - 8:00 AM: Morning**\n* coffee"}})
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	out, err := testClient(srv.URL).Generate(context.Background(), "busy tuesday")
	require.NoError(t, err)
	assert.Contains(t, out, "Morning")
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestGenerateNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestGenerateEndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid api key"},
		})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestGenerateNetworkError(t *testing.T) {
	// Nothing listens here.
	_, err := testClient("http://127.0.0.1:1/v1/chat/completions").Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrGeneration)
}
