// Package embed defines the embedding-service contract. The model that turns
// an image or a text string into a fixed-length real vector runs outside this
// process; it is consumed through the Embedder interface and an HTTP client.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrDimensionMismatch is returned when the service responds with a vector of
// unexpected length. Image and text embeddings must share one dimensionality.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder produces feature vectors for images and text.
// Both methods return vectors of the same fixed dimension.
type Embedder interface {
	EmbedImage(ctx context.Context, image []byte) ([]float64, error)
	EmbedText(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// HTTPEmbedder talks to a CLIP-style inference service over HTTP JSON.
type HTTPEmbedder struct {
	baseURL   string
	dimension int
	client    *http.Client
}

// NewHTTPEmbedder creates an embedder client for the given inference endpoint.
func NewHTTPEmbedder(baseURL string, dimension int) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL:   baseURL,
		dimension: dimension,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Dimension returns the fixed embedding dimensionality.
func (e *HTTPEmbedder) Dimension() int {
	return e.dimension
}

type embedImageRequest struct {
	Image []byte `json:"image"`
}

type embedTextRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vector []float64 `json:"vector"`
	Error  string    `json:"error,omitempty"`
}

// EmbedImage embeds raw image bytes.
func (e *HTTPEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float64, error) {
	return e.post(ctx, "/embed/image", embedImageRequest{Image: image})
}

// EmbedText embeds a free-text query.
func (e *HTTPEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	return e.post(ctx, "/embed/text", embedTextRequest{Text: text})
}

func (e *HTTPEmbedder) post(ctx context.Context, path string, payload any) ([]float64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer resp.Body.Close()

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, out.Error)
	}
	if len(out.Vector) != e.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(out.Vector), e.dimension)
	}
	return out.Vector, nil
}
