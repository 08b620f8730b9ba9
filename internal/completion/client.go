// Package completion forwards chat transcripts to the configured upstream
// completion endpoint and normalizes its two response shapes into one reply
// string.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finboard/finboard/internal/config"
)

// Message is one transcript entry forwarded verbatim.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UpstreamError is a failure reported by (or about) the upstream endpoint.
// Code carries the upstream HTTP status so callers can surface it.
type UpstreamError struct {
	Code    int
	Message string
	Detail  string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upstream %d: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("upstream %d: %s", e.Code, e.Message)
}

// Client calls the completion endpoint in the configured wire format.
type Client struct {
	cfg  config.AIConfig
	http *http.Client
}

// NewClient constructs a Client. The outbound call has no explicit deadline
// beyond the transport timeout.
func NewClient(cfg config.AIConfig) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: 60 * time.Second}}
}

// upstreamReply covers both known response shapes plus the embedded error
// object. Unknown fields are ignored.
type upstreamReply struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete forwards the transcript and extracts the reply text. An empty
// reply is returned as "" without error.
func (c *Client) Complete(ctx context.Context, transcript []Message) (string, error) {
	endpoint, body := c.buildRequest(transcript)

	payload, errMarshal := json.Marshal(body)
	if errMarshal != nil {
		return "", fmt.Errorf("marshal upstream request: %w", errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if errReq != nil {
		return "", fmt.Errorf("build upstream request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, errDo := c.http.Do(req)
	if errDo != nil {
		return "", fmt.Errorf("call completion endpoint: %w", errDo)
	}
	defer resp.Body.Close()

	// A non-JSON body (HTML error page, WAF block) must never reach the
	// JSON decoder; keep a snippet for diagnostics instead.
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &UpstreamError{
			Code:    resp.StatusCode,
			Message: "接口返回格式错误",
			Detail:  truncate(string(raw), 200),
		}
	}

	var reply upstreamReply
	if errDecode := json.NewDecoder(resp.Body).Decode(&reply); errDecode != nil {
		return "", &UpstreamError{Code: resp.StatusCode, Message: "接口响应解析失败", Detail: errDecode.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := "AI 接口报错"
		if reply.Error != nil && strings.TrimSpace(reply.Error.Message) != "" {
			message = reply.Error.Message
		}
		return "", &UpstreamError{Code: resp.StatusCode, Message: message}
	}

	return extractText(&reply), nil
}

// buildRequest selects the wire shape by the configured provider mode.
func (c *Client) buildRequest(transcript []Message) (string, map[string]any) {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if c.cfg.Provider == config.ProviderChat {
		return base + "/chat/completions", map[string]any{
			"model":    c.cfg.Model,
			"messages": transcript,
			"stream":   false,
		}
	}
	return base + "/responses", map[string]any{
		"model":  c.cfg.Model,
		"input":  transcript,
		"stream": false,
	}
}

// extractText tries the responses output shape first, then falls back to the
// chat-completions shape.
func extractText(reply *upstreamReply) string {
	var b strings.Builder
	for _, item := range reply.Output {
		if item.Type != "message" || item.Content == nil {
			continue
		}
		for _, block := range item.Content {
			b.WriteString(block.Text)
		}
	}
	if text := strings.TrimSpace(b.String()); text != "" {
		return text
	}

	if len(reply.Choices) > 0 {
		return reply.Choices[0].Message.Content
	}
	return ""
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
