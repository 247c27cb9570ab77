package gemini_test

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
	gemini "oshikake/internal/extract/gemini"
	"oshikake/internal/port"
)

func newTestExtractor(serverURL string) *gemini.Extractor {
	cfg := &config.ExtractorProviderConfig{
		Provider:    "gemini",
		APIKey:      "test-api-key",
		TimeoutSecs: 30,
	}
	return gemini.NewExtractorWithEndpoint(cfg, serverURL)
}

func TestGeminiExtractor_Success(t *testing.T) {
	responseBody := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{
						{"text": `{"orderHeader":{"orderId":"SN1"}}`},
					},
				},
				"finishReason": "STOP",
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-goog-api-key"))

		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)

		genCfg := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genCfg["responseMimeType"])
		assert.Equal(t, float64(4096), genCfg["maxOutputTokens"])

		contents := reqBody["contents"].([]interface{})
		assert.Len(t, contents, 1)
		parts := contents[0].(map[string]interface{})["parts"].([]interface{})
		assert.Len(t, parts, 2)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)
	out, err := e.Extract(context.Background(), port.ExtractInput{
		ImageBytes:  []byte("image"),
		ContentType: "image/jpeg",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"orderHeader":{"orderId":"SN1"}}`, out.RawText)
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)
}

func TestGeminiExtractor_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "45")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{
		ImageBytes:  []byte("image"),
		ContentType: "image/png",
	})

	var rlErr *extract.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "gemini", rlErr.Provider)
	assert.Equal(t, float64(45), rlErr.RetryAfter.Seconds())
}

func TestGeminiExtractor_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	e := newTestExtractor(server.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{
		ImageBytes:  []byte("image"),
		ContentType: "image/png",
	})

	var svcErr *extract.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, err.Error(), "no candidates")
}
