package fallback

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMExtractor_RequestShape(t *testing.T) {
	var captured struct {
		path string
		body map[string]any
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.String()
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &captured.body))
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"eol_date\":\"2027-01-01\",\"confidence\":0.9}"}}]}`))
	}))
	defer server.Close()

	llm := NewLLMExtractor(server.URL, "gpt-4o", "2024-02-01", "secret", nil)
	extraction, err := llm.Extract(context.Background(), "Thing", "1.0", "some page text")
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions?api-version=2024-02-01", captured.path)
	messages := captured.body["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	assert.Contains(t, user["content"], "Thing 1.0")
	assert.Contains(t, user["content"], "some page text")

	assert.Equal(t, "2027-01-01", extraction.EOLDate)
	assert.InDelta(t, 0.9, extraction.Confidence, 1e-9)
}

func TestLLMExtractor_TruncatesLongText(t *testing.T) {
	var userContent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(raw, &body))
		messages := body["messages"].([]any)
		userContent = messages[1].(map[string]any)["content"].(string)
		w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	llm := NewLLMExtractor(server.URL, "", "", "", nil)
	long := strings.Repeat("x", 3*llmTextLimit)
	_, err := llm.Extract(context.Background(), "Thing", "", long)
	require.NoError(t, err)
	assert.Less(t, len(userContent), llmTextLimit+256, "text must be truncated to ~6KB")
}

func TestLLMExtractor_NullFieldsStayEmpty(t *testing.T) {
	extraction := parseLLMContent(`{"eol_date":null,"support_end_date":"2026-06-30","release_date":null,"confidence":0.7}`)
	assert.Empty(t, extraction.EOLDate)
	assert.Equal(t, "2026-06-30", extraction.SupportEndDate)
	assert.Empty(t, extraction.ReleaseDate)
	assert.InDelta(t, 0.7, extraction.Confidence, 1e-9)
}

func TestLLMExtractor_ConfidenceClamped(t *testing.T) {
	extraction := parseLLMContent(`{"eol_date":"2030-01-01","confidence":1.0}`)
	assert.InDelta(t, MaxConfidence, extraction.Confidence, 1e-9)
}

func TestNewLLMExtractorFromEnv_DisabledByDefault(t *testing.T) {
	t.Setenv("LLM_EXTRACTION", "")
	t.Setenv("LLM_ENDPOINT", "https://example.test")
	assert.Nil(t, NewLLMExtractorFromEnv(nil))
}

func TestNewLLMExtractorFromEnv_RequiresEndpoint(t *testing.T) {
	t.Setenv("LLM_EXTRACTION", "true")
	t.Setenv("LLM_ENDPOINT", "")
	assert.Nil(t, NewLLMExtractorFromEnv(nil))
}

func TestNewLLMExtractorFromEnv_Enabled(t *testing.T) {
	t.Setenv("LLM_EXTRACTION", "true")
	t.Setenv("LLM_ENDPOINT", "https://example.test")
	assert.NotNil(t, NewLLMExtractorFromEnv(nil))
}
