// Groq chat completion implementation of [CompletionService]
//
// API shape follows the OpenAI-compatible endpoint documented at
// https://console.groq.com/docs/api-reference
package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noelfm/sleighlist/internal/shared"
)

const (
	groqCompletionsURL = "https://api.groq.com/openai/v1/chat/completions"

	// groqDefaultModel is used when the config leaves the model unset.
	groqDefaultModel = "llama3-8b-8192"

	groqMaxRetries = 3
)

// groqMessage is one entry in the chat transcript sent to the model.
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream,omitempty"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type groqStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// httpStatusError records a non-2xx completion response for retry
// classification.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("completion request failed (status %d): %s", e.status, e.body)
}

// retryable reports whether the failure is worth another attempt. Bad
// requests and rejected credentials never recover on retry.
func (e *httpStatusError) retryable() bool {
	return e.status != http.StatusBadRequest && e.status != http.StatusUnauthorized
}

// GroqService implements [CompletionService] against the Groq chat API.
type GroqService struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client

	completionsURL string
	maxRetries     int
	retryDelay     time.Duration // base for exponential backoff
}

// NewGroqService creates a Groq completion service from config.
func NewGroqService(cfg shared.GroqConfig) (*GroqService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: groq api_key", shared.ErrMissingCredentials)
	}

	model := cfg.Model
	if model == "" {
		model = groqDefaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.8
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return &GroqService{
		apiKey:         cfg.APIKey,
		model:          model,
		temperature:    temperature,
		maxTokens:      maxTokens,
		httpClient:     http.DefaultClient,
		completionsURL: groqCompletionsURL,
		maxRetries:     groqMaxRetries,
		retryDelay:     time.Second,
	}, nil
}

// SetHTTPClient replaces the HTTP client used for completion requests.
func (g *GroqService) SetHTTPClient(client *http.Client) {
	if client != nil {
		g.httpClient = client
	}
}

// buildRequest assembles the chat payload for a system/user prompt pair.
func (g *GroqService) buildRequest(systemPrompt, userPrompt string, stream bool) groqRequest {
	return groqRequest{
		Model: g.model,
		Messages: []groqMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		TopP:        1,
		Stream:      stream,
	}
}

// send issues one completion request and returns the raw response.
func (g *GroqService) send(ctx context.Context, payload groqRequest) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.completionsURL, strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	return resp, nil
}

// Complete sends the prompt pair and returns the model's full text,
// retrying transient failures with exponential backoff.
func (g *GroqService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := g.buildRequest(systemPrompt, userPrompt, false)

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			delay := g.retryDelay * time.Duration(1<<attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", shared.ErrTimeout, ctx.Err())
			}
		}

		content, err := g.complete(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err

		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return "", fmt.Errorf("completion rejected: %w", statusErr)
		}
	}

	return "", fmt.Errorf("failed to generate completion after %d attempts: %w", g.maxRetries, lastErr)
}

// complete performs a single non-streaming attempt.
func (g *GroqService) complete(ctx context.Context, payload groqRequest) (string, error) {
	resp, err := g.send(ctx, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed groqResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: completion response has no choices", shared.ErrValidation)
	}

	return parsed.Choices[0].Message.Content, nil
}

// CompleteStream streams the completion as server-sent events, forwarding
// each content fragment to onChunk. Streaming attempts are not retried; a
// partially delivered stream cannot be resumed.
func (g *GroqService) CompleteStream(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string)) (string, error) {
	payload := g.buildRequest(systemPrompt, userPrompt, true)

	resp, err := g.send(ctx, payload)
	if err != nil {
		if se, ok := err.(*httpStatusError); ok {
			return "", fmt.Errorf("completion rejected: %w", se)
		}
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}

		var chunk groqStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // malformed keepalive or partial frame
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		full.WriteString(content)
		if onChunk != nil {
			onChunk(content)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: stream interrupted: %v", shared.ErrTransport, err)
	}

	return full.String(), nil
}
