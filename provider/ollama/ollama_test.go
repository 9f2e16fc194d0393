package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mhpenta/guardrail"
	"github.com/mhpenta/guardrail/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var gotReq generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := generateResponse{
			Model:           gotReq.Model,
			Response:        `{"detected_sensitive_data": [], "redacted_text": "hello"}`,
			Done:            true,
			PromptEvalCount: 42,
			EvalCount:       17,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	gen := New(&guardrail.ProviderConfig{BaseURL: server.URL})
	defer gen.Close()

	temp := 0.1
	result, err := gen.Generate(context.Background(), "detect this", &guardrail.GenerateConfig{
		Model:           "llama3.2:latest",
		Temperature:     &temp,
		MaxOutputTokens: 512,
		JSONMode:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, "llama3.2:latest", gotReq.Model)
	assert.Equal(t, "detect this", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, "json", gotReq.Format)
	assert.Equal(t, 0.1, gotReq.Options["temperature"])

	assert.Contains(t, result.Text, "redacted_text")
	assert.Equal(t, "llama3.2:latest", result.Model)
	require.NotNil(t, result.UsageMetadata)
	assert.Equal(t, 42, result.UsageMetadata.PromptTokens)
	assert.Equal(t, 17, result.UsageMetadata.CompletionTokens)
	assert.Equal(t, 59, result.UsageMetadata.TotalTokens)
}

func TestGenerate_DefaultModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, APIModelLlama32, req.Model)

		require.NoError(t, json.NewEncoder(w).Encode(generateResponse{Model: req.Model, Response: "ok", Done: true}))
	}))
	defer server.Close()

	gen := New(&guardrail.ProviderConfig{BaseURL: server.URL})
	_, err := gen.Generate(context.Background(), "hi", nil)
	require.NoError(t, err)
}

func TestGenerate_ErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "server error is transient", status: http.StatusInternalServerError, wantTransient: true},
		{name: "overload is transient", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "missing model is permanent", status: http.StatusNotFound, wantTransient: false},
		{name: "bad request is permanent", status: http.StatusBadRequest, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model error", tt.status)
			}))
			defer server.Close()

			gen := New(&guardrail.ProviderConfig{BaseURL: server.URL})
			_, err := gen.Generate(context.Background(), "hi", nil)
			require.Error(t, err)

			assert.Equal(t, tt.wantTransient, retry.IsTransient(err))
			assert.Equal(t, !tt.wantTransient, retry.IsPermanent(err))
			assert.True(t, guardrail.IsAPIError(err))
		})
	}
}

func TestGenerate_ConnectionRefusedIsTransient(t *testing.T) {
	// Grab a port that nothing is listening on.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	gen := New(&guardrail.ProviderConfig{BaseURL: url})
	_, err := gen.Generate(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.True(t, retry.IsTransient(err))
}

func TestGenerate_EmptyPromptIsPermanent(t *testing.T) {
	gen := New(nil)
	_, err := gen.Generate(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, retry.IsPermanent(err))
}
