// Package client is the user-side SDK for secure photo search. It owns the
// whole client half of the protocol: key generation and envelope wrapping at
// registration, the unwrap chain at login, encrypted upload, and the search
// orchestration that turns a free-text query into ranked decrypted images
// without the server ever seeing plaintext.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/GomathyDhanya/SecureSearch/pkg/embed"
	"github.com/GomathyDhanya/SecureSearch/pkg/hecrypt"
	"github.com/GomathyDhanya/SecureSearch/pkg/keyring"
	"github.com/GomathyDhanya/SecureSearch/pkg/session"
	"github.com/GomathyDhanya/SecureSearch/pkg/vector"
)

const (
	// scoreThreshold rejects low-confidence matches. Candidates scoring at
	// or below it are dropped even when fewer than K remain; an empty
	// result is a successful search.
	scoreThreshold = 0.18

	// fetchConcurrency bounds the parallel winner fetches.
	fetchConcurrency = 4
)

// Match is one search hit: the record id, its reconstructed cosine similarity,
// and the decrypted image bytes.
type Match struct {
	ID    string
	Score float64
	Image []byte
}

// Client orchestrates the secure search protocol against one server.
// Safe for concurrent use; key material is read through the session passed to
// each call, never held on the client itself.
type Client struct {
	api      *API
	engine   *hecrypt.Engine
	embedder embed.Embedder
	logger   *slog.Logger
}

// New creates a client over its collaborators.
func New(api *API, engine *hecrypt.Engine, embedder embed.Embedder, logger *slog.Logger) *Client {
	return &Client{
		api:      api,
		engine:   engine,
		embedder: embedder,
		logger:   logger,
	}
}

// Register creates an account. All key material is generated locally, wrapped,
// and deposited with the server in one request; nothing is retained locally,
// so a network failure leaves no half-registered state on either side.
func (c *Client) Register(ctx context.Context, email, password string) error {
	masterKey, err := keyring.GenerateMasterKey()
	if err != nil {
		return err
	}
	defer keyring.Zero(masterKey)

	salt, err := keyring.GenerateSalt()
	if err != nil {
		return err
	}

	pwKey := keyring.DeriveKey(password, salt)
	defer keyring.Zero(pwKey)

	wrappedMasterKey, err := keyring.Wrap(masterKey, pwKey)
	if err != nil {
		return fmt.Errorf("failed to wrap master key: %w", err)
	}

	keys, err := c.engine.GenerateKeys()
	if err != nil {
		return fmt.Errorf("failed to generate homomorphic keys: %w", err)
	}
	defer keys.Zero()

	keypairBytes, err := keys.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize keypair: %w", err)
	}
	wrappedKeypair, err := keyring.Wrap(keypairBytes, masterKey)
	if err != nil {
		return fmt.Errorf("failed to wrap keypair: %w", err)
	}

	return c.api.Register(ctx, email, password, salt, wrappedMasterKey, wrappedKeypair)
}

// Login authenticates and reconstructs the session keys from the wrapped
// artifacts. A failed master-key unwrap means a wrong password; a failed
// keypair unwrap after the master key opened means corrupted key material,
// reported distinctly.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	res, err := c.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	pwKey := keyring.DeriveKey(password, res.Salt)
	defer keyring.Zero(pwKey)

	masterKey, err := keyring.Unwrap(res.WrappedMasterKey, pwKey)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	keypairBytes, err := keyring.Unwrap(res.WrappedKeypair, masterKey)
	if err != nil {
		keyring.Zero(masterKey)
		return nil, fmt.Errorf("%w: %v", ErrKeypairCorrupted, err)
	}

	keys, err := hecrypt.UnmarshalKeyPair(keypairBytes)
	if err != nil {
		keyring.Zero(masterKey)
		return nil, fmt.Errorf("%w: %v", ErrKeypairCorrupted, err)
	}

	return &session.Session{
		Email:     email,
		Token:     res.Token,
		MasterKey: masterKey,
		Keys:      keys,
	}, nil
}

// Upload embeds an image, encrypts the normalized embedding under the session
// public key, wraps the raw image under the master key, and submits both.
// Returns the server-assigned record id.
func (c *Client) Upload(ctx context.Context, sess *session.Session, image []byte) (string, error) {
	raw, err := c.embedder.EmbedImage(ctx, image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	encVector, err := c.engine.Encrypt(vector.Normalize(raw), sess.Keys.Public)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt vector: %w", err)
	}

	encImage, err := keyring.Wrap(image, sess.MasterKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt image: %w", err)
	}

	return c.api.Upload(ctx, sess.Token, encImage, encVector)
}

// SearchText runs the full secure search protocol for a free-text query.
func (c *Client) SearchText(ctx context.Context, sess *session.Session, query string, k int) ([]Match, error) {
	raw, err := c.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	return c.search(ctx, sess, raw, k)
}

// SearchImage runs the same protocol with an example image as the query.
func (c *Client) SearchImage(ctx context.Context, sess *session.Session, image []byte, k int) ([]Match, error) {
	raw, err := c.embedder.EmbedImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	return c.search(ctx, sess, raw, k)
}

type candidate struct {
	id    string
	score float64
}

func (c *Client) search(ctx context.Context, sess *session.Session, raw []float64, k int) ([]Match, error) {
	// Encrypt the normalized query. Normalization must mirror the upload
	// path exactly, or the reconstructed score stops being a cosine.
	normalized := vector.Normalize(raw)
	queryCt, err := c.engine.Encrypt(normalized, sess.Keys.Public)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt query: %w", err)
	}

	// The relinearization key travels with every query. Provisioning it
	// once per session would shrink the request, but it is part of the
	// wire contract and it cannot decrypt anything.
	results, err := c.api.Search(ctx, sess.Token, queryCt, sess.Keys.Relin)
	if err != nil {
		return nil, err
	}

	// Reconstruct plaintext scores. The blind dot product leaves the
	// partial products spread across ciphertext slots; the scalar is the
	// sum of the first dim slots. This rule is exact.
	dim := len(normalized)
	candidates := make([]candidate, 0, len(results))
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slots, err := c.engine.Decrypt(res.ScoreCiphertext, sess.Keys.Secret, dim)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt score for %s: %w", res.ID, err)
		}
		var score float64
		for _, s := range slots {
			score += s
		}
		candidates = append(candidates, candidate{id: res.ID, score: score})
	}

	winners := rank(candidates, k)
	if len(winners) == 0 {
		return []Match{}, nil
	}

	return c.fetchWinners(ctx, sess, winners)
}

// rank sorts candidates by descending score, keeps the first k, and drops
// everything at or below the acceptance threshold. An empty result is valid.
func rank(candidates []candidate, k int) []candidate {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].score > sorted[j].score
	})

	if k < len(sorted) {
		sorted = sorted[:k]
	}

	kept := make([]candidate, 0, len(sorted))
	for _, cand := range sorted {
		if cand.score > scoreThreshold {
			kept = append(kept, cand)
		}
	}
	return kept
}

// fetchWinners retrieves and decrypts the winning payloads concurrently.
// Results are gathered by rank index, so the ordering decided by rank survives
// whatever order the fetches complete in. A single failed fetch or unwrap
// drops that winner and keeps the rest; one corrupt image must not hide the
// other matches.
func (c *Client) fetchWinners(ctx context.Context, sess *session.Session, winners []candidate) ([]Match, error) {
	slots := make([]*Match, len(winners))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, win := range winners {
		g.Go(func() error {
			encImage, err := c.api.FetchImage(gctx, sess.Token, win.id)
			if err != nil {
				c.logger.Warn("dropping match: fetch failed", "record", win.id, "error", err)
				return nil
			}

			image, err := keyring.Unwrap(encImage, sess.MasterKey)
			if err != nil {
				c.logger.Warn("dropping match: payload unwrap failed", "record", win.id, "error", err)
				return nil
			}

			slots[i] = &Match{ID: win.id, Score: win.score, Image: image}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(winners))
	for _, m := range slots {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}
