// Package anthropic provides a captioning adapter using the Anthropic
// Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tessera-search/tessera/internal/adapters/driven/apierr"
	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// Ensure Captioner implements the interface.
var _ driven.Captioner = (*Captioner)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 300

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// captionPrompt asks for a retrieval-oriented description.
const captionPrompt = "Describe this image for a search index. " +
	"State what it shows: the type of figure, the entities or values it depicts, " +
	"and any legible text. Be factual and concise."

// Config holds configuration for the Anthropic captioner.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the vision model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens caps the caption length (default: 300).
	MaxTokens int
}

// Captioner describes images via the Anthropic Messages API. The image
// travels as a base64 content block. Failures carry the pipeline's
// error taxonomy.
type Captioner struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// messagesRequest is the /v1/messages request format with content
// blocks for vision input.
type messagesRequest struct {
	Model     string           `json:"model"`
	Messages  []messageContent `json:"messages"`
	MaxTokens int              `json:"max_tokens"`
}

type messageContent struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// messagesResponse is the /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewCaptioner creates a new Anthropic captioner.
func NewCaptioner(cfg Config) (*Captioner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	return &Captioner{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Caption returns a textual summary of the image bytes. docContext
// optionally grounds the caption in surrounding document text.
func (c *Captioner) Caption(ctx context.Context, image []byte, docContext string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("anthropic: empty image payload: %w", domain.ErrCallPermanent)
	}

	prompt := captionPrompt
	if docContext != "" {
		prompt += "\n\nThe image appears in a document that begins:\n" + docContext
	}

	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []messageContent{{
			Role: "user",
			Content: []contentBlock{
				{Type: "image", Source: &imageSource{
					Type:      "base64",
					MediaType: sniffImageMIME(image),
					Data:      base64.StdEncoding.EncodeToString(image),
				}},
				{Type: "text", Text: prompt},
			},
		}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apierr.Transport("anthropic", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic: read response: %w", domain.ErrCallTransient)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apierr.Status("anthropic", resp.StatusCode, body)
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %v: %w", err, domain.ErrCallPermanent)
	}
	if msgResp.Error != nil {
		return "", apierr.Permanent("anthropic", msgResp.Error.Message)
	}

	for _, block := range msgResp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic: empty caption: %w", domain.ErrCallPermanent)
}

// ModelName returns the name of the vision model being used.
func (c *Captioner) ModelName() string {
	return c.model
}

// Ping validates the API key with a minimal messages request.
func (c *Captioner) Ping(ctx context.Context) error {
	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: 1,
		Messages: []messageContent{{
			Role:    "user",
			Content: []contentBlock{{Type: "text", Text: "ping"}},
		}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("anthropic: marshal ping request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("anthropic: failed to create ping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("anthropic: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (c *Captioner) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// sniffImageMIME detects the payload's image type from magic bytes,
// defaulting to PNG, the page raster format.
func sniffImageMIME(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 6 && string(data[:6]) == "GIF87a",
		len(data) >= 6 && string(data[:6]) == "GIF89a":
		return "image/gif"
	default:
		return "image/png"
	}
}
