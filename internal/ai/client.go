// Package ai is the client for the external study-chat completion
// server. Requests are awaited without retry; a failure surfaces to
// the caller, which stores a fallback message instead.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ChatRequest is the study-chat request wire format.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	Subject        string `json:"subject,omitempty"`
	Difficulty     string `json:"difficulty"`
	Language       string `json:"language"`
}

// ChatResponse is the study-chat response wire format.
type ChatResponse struct {
	Response          string   `json:"response"`
	Confidence        float64  `json:"confidence"`
	SubjectDetected   string   `json:"subject_detected"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	RelatedTopics     []string `json:"related_topics"`
	ProcessingTime    float64  `json:"processing_time"`
}

// Client talks to the AI chat server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a chat client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StudyChat sends one chat turn and returns the completion.
func (c *Client) StudyChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Difficulty == "" {
		req.Difficulty = "intermediate"
	}
	if req.Language == "" {
		req.Language = "vi"
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/study-chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ai server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai server: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &chatResp, nil
}
