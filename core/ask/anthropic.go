package ask

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

type ClientConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// Client streams completions from a Messages API endpoint.
type Client struct {
	http *http.Client
	cfg  ClientConfig
}

// NewClient builds the client. The http client must not carry a total
// timeout shorter than the longest answer.
func NewClient(client *http.Client, cfg ClientConfig) *Client {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{http: client, cfg: cfg}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	Stream    bool      `json:"stream"`
}

func (c *Client) endpoint() string { return c.cfg.BaseURL + "/v1/messages" }

func (c *Client) Complete(ctx context.Context, system, question string) (Stream, error) {
	body := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: question}},
		Stream:    true,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Endpoint: c.endpoint(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &UpstreamError{Endpoint: c.endpoint(), Status: resp.StatusCode}
	}

	return &messageStream{
		endpoint: c.endpoint(),
		body:     resp.Body,
		sse:      newSSEReader(resp.Body),
	}, nil
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type messageStream struct {
	endpoint string
	body     io.ReadCloser
	sse      *sseReader
	stopped  bool
}

// Recv maps one SSE event onto an Event. A body that ends before
// message_stop is an error, not a clean end.
func (s *messageStream) Recv() (Event, error) {
	if s.stopped {
		return Event{}, io.EOF
	}

	name, data, err := s.sse.next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Event{}, &UpstreamError{Endpoint: s.endpoint, Err: io.ErrUnexpectedEOF}
		}
		return Event{}, &UpstreamError{Endpoint: s.endpoint, Err: err}
	}

	var ev streamEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return Event{}, &UpstreamError{Endpoint: s.endpoint, Err: fmt.Errorf("decoding %s event: %w", name, err)}
	}
	if ev.Type == "" {
		ev.Type = name
	}

	switch ev.Type {
	case "content_block_delta":
		if ev.Delta.Type == KindTextDelta {
			return Event{Kind: KindTextDelta, Text: ev.Delta.Text}, nil
		}
		return Event{Kind: ev.Delta.Type}, nil
	case KindStop:
		s.stopped = true
		return Event{Kind: KindStop}, nil
	case "error":
		return Event{}, &UpstreamError{Endpoint: s.endpoint, Type: ev.Error.Type}
	default:
		return Event{Kind: ev.Type}, nil
	}
}

func (s *messageStream) Close() error {
	return s.body.Close()
}
