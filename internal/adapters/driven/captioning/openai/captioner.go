// Package openai provides a captioning adapter using a vision-capable
// model behind an OpenAI-compatible chat completions API.
package openai

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
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 300
)

// captionPrompt asks for a retrieval-oriented description rather than
// a narrative one.
const captionPrompt = "Describe this image for a search index. " +
	"State what it shows: the type of figure, the entities or values it depicts, " +
	"and any legible text. Be factual and concise."

// Config holds configuration for the OpenAI captioner.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the vision model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens caps the caption length (default: 300).
	MaxTokens int
}

// Captioner describes images using an OpenAI-compatible vision model.
// The image travels as a base64 data URI in a chat message; the reply
// text is the caption. Failures carry the pipeline's error taxonomy.
type Captioner struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
}

// chatRequest is the /chat/completions request format with multi-part
// message content for vision input.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse is the /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewCaptioner creates a new OpenAI captioner.
func NewCaptioner(cfg Config) (*Captioner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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
		return "", fmt.Errorf("openai: empty image payload: %w", domain.ErrCallPermanent)
	}

	prompt := captionPrompt
	if docContext != "" {
		prompt += "\n\nThe image appears in a document that begins:\n" + docContext
	}

	dataURI := "data:" + sniffImageMIME(image) + ";base64," +
		base64.StdEncoding.EncodeToString(image)

	reqBody := chatRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
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
		c.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apierr.Transport("openai", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read response: %w", domain.ErrCallTransient)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apierr.Status("openai", resp.StatusCode, body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("openai: decode response: %v: %w", err, domain.ErrCallPermanent)
	}
	if chatResp.Error != nil {
		return "", apierr.Permanent("openai", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: empty caption: %w", domain.ErrCallPermanent)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the vision model being used.
func (c *Captioner) ModelName() string {
	return c.model
}

// Ping validates the service is reachable by checking the /models endpoint.
func (c *Captioner) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
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
