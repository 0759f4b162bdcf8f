// Package chat is the client for the remote document-chat service.
// Each call is stateless: the full conversation history is resent.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrService marks an unreachable chat service or an unusable reply.
var ErrService = errors.New("chat service failure")

// Message is one turn of the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// Send posts the query with its history and returns the reply text.
func (c *Client) Send(ctx context.Context, query string, history []Message) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"query":   query,
		"history": history,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrService, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrService, resp.StatusCode)
	}

	var reply struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrService, err)
	}
	return reply.Response, nil
}
