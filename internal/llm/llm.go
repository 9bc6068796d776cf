// Package llm implements the generative service client against an
// OpenAI-compatible chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/briefops/briefer/config"
	"github.com/briefops/briefer/internal/brief"
)

// ErrMissingAPIKey is a configuration error: the client refuses to
// construct without a credential so the failure surfaces before any
// pipeline stage runs.
var ErrMissingAPIKey = errors.New("llm api key not configured (set BRIEFER_LLM_API_KEY)")

// Message is one chat message sent to the completions endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Client routes task categories to configured models and performs
// synchronous prompt to completion calls. It performs no retries; a
// failed call is reported to the stage that made it.
type Client struct {
	apiKey     string
	baseURL    string
	models     map[string]config.LLMModel
	routing    config.RoutingConfig
	httpClient *http.Client
	logger     *log.Logger
}

// New validates the credential and builds a client.
func New(cfg config.LLMConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		models:     cfg.Models,
		routing:    cfg.Routing,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.New(log.Writer(), "[LLM] ", log.LstdFlags),
	}, nil
}

// Generate completes prompt with the model routed for task.
func (c *Client) Generate(ctx context.Context, task, prompt string) (string, error) {
	model := c.modelFor(task)
	reqBody := chatRequest{
		Model:       model.APIName,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: model.Temperature,
		MaxTokens:   model.MaxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &brief.ServiceError{Service: "llm", Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &brief.ServiceError{Service: "llm", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &brief.ServiceError{Service: "llm", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &brief.ServiceError{Service: "llm", Err: fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &brief.ServiceError{Service: "llm", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &brief.ServiceError{Service: "llm", Err: errors.New("no choices in response")}
	}
	return parsed.Choices[0].Message.Content, nil
}

// modelFor resolves the task category through the routing table,
// falling back to the fallback entry and finally to a bare model name.
func (c *Client) modelFor(task string) config.LLMModel {
	name := ""
	switch task {
	case brief.TaskPlanning:
		name = c.routing.Planning
	case brief.TaskSummarization:
		name = c.routing.Summarization
	case brief.TaskSynthesis:
		name = c.routing.Synthesis
	}
	if name == "" {
		name = c.routing.Fallback
	}
	if m, ok := c.models[name]; ok && m.APIName != "" {
		return m
	}
	c.logger.Printf("no model configured for task %q, using %q as api name", task, name)
	return config.LLMModel{APIName: name}
}
