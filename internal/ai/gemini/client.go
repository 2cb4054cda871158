package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/ai"
)

const (
	defaultAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used for planning when no model is configured.
	DefaultModel = "gemini-pro"

	// DefaultChatModel is used by the chat responder.
	DefaultChatModel = "gemini-1.5-flash"
)

// Client implements ai.Provider for the Gemini generateContent API
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Gemini client
func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Complete sends prompt as one user turn and returns the first text part.
// An answer without text yields an empty string and no error.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ai.ErrNoCredential
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The query string carries the key, never surface the URL.
		return "", fmt.Errorf("request failed: %w", redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(data))
	}

	var respData generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if respData.PromptFeedback != nil && respData.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt was blocked: %s", respData.PromptFeedback.BlockReason)
	}
	if len(respData.Candidates) == 0 {
		return "", nil
	}

	candidate := respData.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", fmt.Errorf("content was filtered by safety check")
	}
	if len(candidate.Content.Parts) == 0 {
		return "", nil
	}
	return candidate.Content.Parts[0].Text, nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), url.QueryEscape(secret), "REDACTED")
	msg = strings.ReplaceAll(msg, secret, "REDACTED")
	return &redactedError{msg: msg, err: err}
}
