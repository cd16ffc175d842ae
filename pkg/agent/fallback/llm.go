package fallback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// llmTextLimit caps how much extracted page text is sent for LLM-assisted
// extraction.
const llmTextLimit = 6 * 1024

const llmSystemPrompt = `You extract software lifecycle dates from text.
Respond with a JSON object containing only these keys, each either an
ISO-8601 date string or null: eol_date, support_end_date, release_date.
Include a "confidence" float between 0 and 1.`

// LLMExtractor performs the optional second-pass date extraction through a
// chat-completions endpoint. It is only consulted when the regex pass
// found no EOL or support date.
type LLMExtractor struct {
	endpoint   string
	deployment string
	apiVersion string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLLMExtractorFromEnv builds the extractor from LLM_* environment
// variables. Returns nil when the LLM_EXTRACTION flag is off or no
// endpoint is configured; callers treat nil as "feature disabled".
func NewLLMExtractorFromEnv(logger *slog.Logger) *LLMExtractor {
	if !strings.EqualFold(os.Getenv("LLM_EXTRACTION"), "true") {
		return nil
	}
	endpoint := os.Getenv("LLM_ENDPOINT")
	if endpoint == "" {
		if logger != nil {
			logger.Warn("LLM_EXTRACTION enabled but LLM_ENDPOINT unset, disabling LLM-assisted extraction")
		}
		return nil
	}
	return NewLLMExtractor(endpoint, os.Getenv("LLM_DEPLOYMENT"), os.Getenv("LLM_API_VERSION"), os.Getenv("LLM_API_KEY"), logger)
}

// NewLLMExtractor builds an extractor against an explicit endpoint.
func NewLLMExtractor(endpoint, deployment, apiVersion, apiKey string, logger *slog.Logger) *LLMExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMExtractor{
		endpoint:   strings.TrimRight(endpoint, "/"),
		deployment: deployment,
		apiVersion: apiVersion,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Extract submits the first ~6 KB of text and parses the JSON reply into
// an Extraction. Only populated fields are returned; the caller merges
// them over the regex result.
func (l *LLMExtractor) Extract(ctx context.Context, software, version, text string) (*Extraction, error) {
	if len(text) > llmTextLimit {
		text = text[:llmTextLimit]
	}

	payload := map[string]any{
		"messages": []map[string]string{
			{"role": "system", "content": llmSystemPrompt},
			{"role": "user", "content": fmt.Sprintf("Software: %s %s\n\nText:\n%s", software, version, text)},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal LLM request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.requestURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create LLM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		req.Header.Set("api-key", l.apiKey)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call LLM endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM endpoint returned %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read LLM response: %w", err)
	}

	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if content == "" {
		return nil, fmt.Errorf("LLM response carried no content")
	}
	return parseLLMContent(content), nil
}

func (l *LLMExtractor) requestURL() string {
	if l.deployment == "" {
		return l.endpoint + "/chat/completions"
	}
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions", l.endpoint, l.deployment)
	if l.apiVersion != "" {
		url += "?api-version=" + l.apiVersion
	}
	return url
}

// parseLLMContent maps the model's JSON object onto an Extraction. Dates
// the model left null stay empty. Confidence is clamped to the fallback
// agent's ceiling.
func parseLLMContent(content string) *Extraction {
	parsed := gjson.Parse(content)
	extraction := &Extraction{
		EOLDate:        dateField(parsed, "eol_date"),
		SupportEndDate: dateField(parsed, "support_end_date"),
		ReleaseDate:    dateField(parsed, "release_date"),
		Confidence:     parsed.Get("confidence").Float(),
	}
	if extraction.Confidence > MaxConfidence {
		extraction.Confidence = MaxConfidence
	}
	return extraction
}

func dateField(parsed gjson.Result, key string) string {
	value := parsed.Get(key)
	if value.Type != gjson.String {
		return ""
	}
	return value.String()
}
