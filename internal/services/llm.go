package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/migralog/migralog/internal/config"
	"github.com/migralog/migralog/internal/types"
)

const llmTemperature = 0.7

// LLMClient talks to an OpenAI-compatible chat completions endpoint.
type LLMClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmRequest struct {
	Messages    []llmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Content string `json:"content"`
}

// NewLLMClient builds a client from the service configuration.
func NewLLMClient(cfg *config.Config) *LLMClient {
	return &LLMClient{
		url:    cfg.LLMURL,
		apiKey: cfg.LLMAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.LLMTimeout,
		},
	}
}

// Complete sends one user prompt and returns the assistant text.
// Upstream failures map onto the service error taxonomy so handlers can
// return 502/504 without inspecting transport errors.
func (c *LLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(llmRequest{
		Messages:    []llmMessage{{Role: "user", Content: prompt}},
		Temperature: llmTemperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", types.NewUpstreamUnavailable(fmt.Sprintf("reading model response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.NewUpstreamUnavailable(fmt.Sprintf("model endpoint returned %d", resp.StatusCode))
	}

	var decoded llmResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", types.NewUpstreamUnavailable("model endpoint returned malformed JSON")
	}

	if len(decoded.Choices) > 0 && decoded.Choices[0].Message.Content != "" {
		return decoded.Choices[0].Message.Content, nil
	}
	if decoded.Content != "" {
		return decoded.Content, nil
	}
	return "", types.NewUpstreamUnavailable("model endpoint returned no content")
}

func (c *LLMClient) classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return types.NewRequestCancelled("risk analysis cancelled by client")
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) ||
		strings.Contains(err.Error(), "Client.Timeout") {
		return types.NewUpstreamTimeout(fmt.Sprintf("model endpoint timed out after %s", c.httpClient.Timeout))
	}
	return types.NewUpstreamUnavailable(fmt.Sprintf("model endpoint unreachable: %v", err))
}
