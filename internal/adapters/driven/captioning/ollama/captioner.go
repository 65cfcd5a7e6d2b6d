// Package ollama provides a captioning adapter using a local vision
// model served by Ollama.
package ollama

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
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llava"
	DefaultTimeout = 180 * time.Second
)

// captionPrompt asks for a retrieval-oriented description.
const captionPrompt = "Describe this image for a search index. " +
	"State what it shows: the type of figure, the entities or values it depicts, " +
	"and any legible text. Be factual and concise."

// Config holds configuration for the Ollama captioner.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the vision model to use (default: llava).
	Model string

	// Timeout is the request timeout (default: 180s; local inference
	// is slow on CPU).
	Timeout time.Duration
}

// Captioner describes images using Ollama's generate API with image
// attachments.
type Captioner struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format with
// images attached.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewCaptioner creates a new Ollama captioner.
func NewCaptioner(cfg Config) *Captioner {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Captioner{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Caption returns a textual summary of the image bytes.
func (c *Captioner) Caption(ctx context.Context, image []byte, docContext string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("ollama: empty image payload: %w", domain.ErrCallPermanent)
	}

	prompt := captionPrompt
	if docContext != "" {
		prompt += "\n\nThe image appears in a document that begins:\n" + docContext
	}

	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apierr.Transport("ollama", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			body = []byte("failed to read response")
		}
		return "", apierr.Status("ollama", resp.StatusCode, body)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("ollama: decode response: %v: %w", err, domain.ErrCallPermanent)
	}
	if genResp.Response == "" {
		return "", fmt.Errorf("ollama: empty caption: %w", domain.ErrCallPermanent)
	}

	return genResp.Response, nil
}

// ModelName returns the name of the vision model being used.
func (c *Captioner) ModelName() string {
	return c.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (c *Captioner) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (c *Captioner) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
