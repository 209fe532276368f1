package tagging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	jsonResponseType   = "json_object"
	defaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4.1-mini"
	defaultHTTPTimeout = 60 * time.Second
	maxResponseBytes   = 4 << 20
)

var (
	// ErrRequestFailed covers transport errors and non-2xx responses.
	ErrRequestFailed = errors.New("tagging request failed")
	// ErrMalformedResponse covers bodies that do not decode to tags.
	ErrMalformedResponse = errors.New("malformed tagging response")
)

// Config captures the runtime settings required to reach the tagging service.
type Config struct {
	Endpoint       string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// Result is the decoded tagging reply.
type Result struct {
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// Client wraps a chat completion endpoint that accepts image input.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a tagging client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Endpoint:       strings.TrimSpace(cfg.Endpoint),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.Endpoint == "" {
		client.cfg.Endpoint = defaultEndpoint
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	return client
}

// TagImage requests tags and a description for the image at imageURL.
func (c *Client) TagImage(ctx context.Context, imageURL string) (Result, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return Result{}, fmt.Errorf("%w: image url required", ErrRequestFailed)
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userInstruction},
				{Type: "image_url", ImageURL: &imageRef{URL: imageURL}},
			}},
		},
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}

	completion, body, err := c.send(ctx, payload)
	if err != nil {
		return Result{}, err
	}
	content := extractContent(completion)
	if content == "" {
		return Result{}, fmt.Errorf("%w: no message content (response snippet: %s)", ErrMalformedResponse, summarizePayloadSnippet(string(body)))
	}

	var parsed struct {
		Tags        *[]string `json:"tags"`
		Description string    `json:"description"`
	}
	if err := decodeModelJSON(content, &parsed); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if parsed.Tags == nil {
		return Result{}, fmt.Errorf("%w: missing tags (payload snippet: %s)", ErrMalformedResponse, summarizePayloadSnippet(content))
	}

	result := Result{Description: strings.TrimSpace(parsed.Description)}
	for _, tag := range *parsed.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			result.Tags = append(result.Tags, trimmed)
		}
	}
	return result, nil
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

// chatMessage content is either a plain string or a list of parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func extractContent(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content
		}
	}
	return ""
}

func (c *Client) send(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("%w: encode body: %w", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("%w: new request: %w", ErrRequestFailed, err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return completion, nil, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return completion, body, fmt.Errorf("%w: http %d: %s", ErrRequestFailed, resp.StatusCode, summarizePayloadSnippet(string(body)))
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, fmt.Errorf("%w: decode envelope: %w (response snippet: %s)", ErrMalformedResponse, err, summarizePayloadSnippet(string(body)))
	}
	if completion.Error != nil {
		return completion, body, fmt.Errorf("%w: api error: %s", ErrRequestFailed, strings.TrimSpace(completion.Error.Message))
	}
	return completion, body, nil
}
