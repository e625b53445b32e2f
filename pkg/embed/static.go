package embed

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// Static is a deterministic Embedder backed by registered fixtures. It stands
// in for the inference service in tests and demos: register the vectors you
// want, and unknown inputs fail loudly instead of returning noise.
type Static struct {
	dimension int
	texts     map[string][]float64
	images    map[[sha256.Size]byte][]float64
}

// NewStatic creates an empty fixture embedder of the given dimension.
func NewStatic(dimension int) *Static {
	return &Static{
		dimension: dimension,
		texts:     make(map[string][]float64),
		images:    make(map[[sha256.Size]byte][]float64),
	}
}

// AddText registers the embedding for an exact text string.
func (s *Static) AddText(text string, vector []float64) *Static {
	s.texts[text] = vector
	return s
}

// AddImage registers the embedding for exact image bytes.
func (s *Static) AddImage(image []byte, vector []float64) *Static {
	s.images[sha256.Sum256(image)] = vector
	return s
}

// EmbedImage returns the registered vector for image, or an error.
func (s *Static) EmbedImage(_ context.Context, image []byte) ([]float64, error) {
	vector, ok := s.images[sha256.Sum256(image)]
	if !ok {
		return nil, fmt.Errorf("no embedding registered for image (%d bytes)", len(image))
	}
	return vector, nil
}

// EmbedText returns the registered vector for text, or an error.
func (s *Static) EmbedText(_ context.Context, text string) ([]float64, error) {
	vector, ok := s.texts[text]
	if !ok {
		return nil, fmt.Errorf("no embedding registered for %q", text)
	}
	return vector, nil
}

// Dimension returns the fixed embedding dimensionality.
func (s *Static) Dimension() int {
	return s.dimension
}
