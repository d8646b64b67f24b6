package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
)

func TestOllamaGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-test", req.Model)
		assert.Equal(t, "What failed?", req.Prompt)
		assert.False(t, req.Stream)
		require.NotNil(t, req.Options)
		assert.Equal(t, 256, req.Options.NumPredict)
		assert.Equal(t, 0.2, req.Options.Temperature)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "  **Summary** sensor failure \n", Done: true})
	}))
	defer srv.Close()

	g := NewOllamaGenerator(config.LLMConfig{BaseURL: srv.URL, Model: "llama-test", Temperature: 0.2, MaxTokens: 256}, nil)

	answer, err := g.Generate(context.Background(), "What failed?")
	require.NoError(t, err)
	assert.Equal(t, "**Summary** sensor failure", answer)
	assert.Equal(t, "llama-test", g.ModelName())
}

func TestOllamaGenerator_OmitsEmptyOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.NotContains(t, raw, "options")
		_, _ = w.Write([]byte(`{"response":"ok","done":true}`))
	}))
	defer srv.Close()

	g := NewOllamaGenerator(config.LLMConfig{BaseURL: srv.URL}, nil)
	answer, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, DefaultModel, g.ModelName())
}

func TestOllamaGenerator_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model llama3.2 not found", http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewOllamaGenerator(config.LLMConfig{BaseURL: srv.URL}, nil)
	_, err := g.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama error (status 404)")
}
