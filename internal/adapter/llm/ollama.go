package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// OllamaClient talks to an Ollama chat server. Transport failures
// (timeouts, refused connections) are retried with exponential backoff;
// HTTP error responses are terminal and reported immediately.
type OllamaClient struct {
	baseURL string
	model   string
	retries int
	backoff time.Duration
	client  *http.Client
}

// NewOllamaClient creates a chat client. model is the default used when
// a request does not name one.
func NewOllamaClient(baseURL, model string, timeout time.Duration, retries int, backoff time.Duration) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		retries: retries,
		backoff: backoff,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat sends the prompt and returns the model's text.
func (c *OllamaClient) Chat(prompt, model string) (string, error) {
	if model == "" {
		model = c.model
	}
	payload, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		resp, err := c.client.Post(c.baseURL+"/api/chat", "application/json", bytes.NewReader(payload))
		if err != nil {
			// Timeout or connection failure: back off and retry.
			lastErr = err
			slog.Warn("ollama chat request failed",
				"attempt", attempt, "retries", c.retries, "error", err)
			if attempt < c.retries {
				time.Sleep(c.backoff * (1 << (attempt - 1)))
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			return "", fmt.Errorf("read chat response: %w", readErr)
		}

		if resp.StatusCode != http.StatusOK {
			// HTTP errors are not transient; do not retry.
			return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, truncate(body, 512))
		}

		return extractChatText(body), nil
	}

	return "", fmt.Errorf("ollama unreachable after %d attempts: %w", c.retries, lastErr)
}

// ListModels queries the server's model tags. Unavailable backends yield
// an empty list and the error for the caller to report.
func (c *OllamaClient) ListModels() ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		resp, err := c.client.Get(c.baseURL + "/api/tags")
		if err != nil {
			lastErr = err
			if attempt < c.retries {
				time.Sleep(c.backoff * (1 << (attempt - 1)))
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read models response: %w", readErr)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, truncate(body, 512))
		}

		return extractModelNames(body), nil
	}

	return nil, fmt.Errorf("ollama unreachable after %d attempts: %w", c.retries, lastErr)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
