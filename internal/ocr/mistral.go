package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/RickCarlino/mistral-ocr-frontend/internal/config"
)

const ocrPath = "/v1/ocr"

// mistralClient calls the Mistral OCR REST API.
type mistralClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// NewMistral creates a Client for the Mistral OCR API. The underlying HTTP
// client carries a traced transport and a bounded overall timeout so a slow
// provider cannot hold an upload request open indefinitely.
func NewMistral(cfg config.OCRConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mistral api key is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("mistral endpoint is required")
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &mistralClient{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
	}, nil
}

type ocrRequest struct {
	Model    string      `json:"model"`
	Document ocrDocument `json:"document"`
}

type ocrDocument struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

// Process posts the image URL to the provider and decodes the paged result.
func (c *mistralClient) Process(ctx context.Context, imageURL string) (*Response, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("image url is required")
	}

	payload, err := json.Marshal(ocrRequest{
		Model: c.model,
		Document: ocrDocument{
			Type:     "image_url",
			ImageURL: imageURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+ocrPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ocr provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ocr response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(body),
		}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	out.Raw = json.RawMessage(body)
	return &out, nil
}

// providerMessage extracts the provider's error message if the body is the
// usual {"message": ...} shape, falling back to the raw body.
func providerMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	const maxLen = 512
	s := string(body)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
