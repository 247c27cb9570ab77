package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oshikake/internal/config"
	"oshikake/internal/extract"
	claude "oshikake/internal/extract/claude"
	"oshikake/internal/port"
)

func newTestExtractor(serverURL string) *claude.Extractor {
	cfg := &config.ExtractorProviderConfig{
		Provider:     "claude",
		APIKey:       "test-api-key",
		DefaultModel: "claude-sonnet-4-20250514",
		TimeoutSecs:  30,
	}
	return claude.NewExtractorWithEndpoint(cfg, serverURL)
}

func TestClaudeExtractor_Success(t *testing.T) {
	responseBody := map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": `{"orderHeader":{"orderId":"#A1"},"orderDetails":[]}`,
			},
		},
		"stop_reason": "end_turn",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(4096), reqBody["max_tokens"])
		assert.Equal(t, float64(0), reqBody["temperature"])
		assert.NotEmpty(t, reqBody["system"])

		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		content := msg["content"].([]interface{})
		assert.Len(t, content, 2)

		textBlock := content[0].(map[string]interface{})
		assert.Equal(t, "text", textBlock["type"])

		imageBlock := content[1].(map[string]interface{})
		assert.Equal(t, "image", imageBlock["type"])
		source := imageBlock["source"].(map[string]interface{})
		assert.Equal(t, "base64", source["type"])
		assert.Equal(t, "image/png", source["media_type"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)
	out, err := e.Extract(context.Background(), port.ExtractInput{
		ImageBytes:  []byte("fake png bytes"),
		ContentType: "image/png",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"orderHeader":{"orderId":"#A1"},"orderDetails":[]}`, out.RawText)
	assert.Equal(t, "claude-sonnet-4-20250514", out.ModelUsed)
}

func TestClaudeExtractor_RejectsUnsupportedContentType(t *testing.T) {
	e := newTestExtractor("http://unused")
	_, err := e.Extract(context.Background(), port.ExtractInput{
		ImageBytes:  []byte("%PDF-1.4"),
		ContentType: "application/pdf",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestClaudeExtractor_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{
		ImageBytes:  []byte("x"),
		ContentType: "image/jpeg",
	})

	var rlErr *extract.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "claude", rlErr.Provider)
	assert.Equal(t, float64(30), rlErr.RetryAfter.Seconds())
}

func TestClaudeExtractor_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{
		ImageBytes:  []byte("x"),
		ContentType: "image/jpeg",
	})

	var svcErr *extract.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "claude", svcErr.Provider)
}

func TestClaudeExtractor_TruncatedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"orderHea`}},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{
		ImageBytes:  []byte("x"),
		ContentType: "image/jpeg",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens")
}
