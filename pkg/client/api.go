package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// API is the HTTP transport to the remote compute boundary. It performs no
// cryptography; everything it sends or receives is already ciphertext or
// public metadata.
type API struct {
	baseURL string
	client  *http.Client
}

// NewAPI creates a transport for the given server base URL.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// ErrNotFound is returned when the server has no record for an id.
var ErrNotFound = errors.New("record not found")

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Salt             []byte `json:"salt"`
	WrappedMasterKey []byte `json:"wrapped_master_key"`
	WrappedKeypair   []byte `json:"wrapped_keypair"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token            string `json:"token"`
	Salt             []byte `json:"salt"`
	WrappedMasterKey []byte `json:"wrapped_master_key"`
	WrappedKeypair   []byte `json:"wrapped_keypair"`
}

type uploadRequest struct {
	EncryptedImage  []byte `json:"encrypted_image"`
	EncryptedVector []byte `json:"encrypted_vector"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

type searchRequest struct {
	QueryCiphertext []byte `json:"query_ciphertext"`
	RelinKey        []byte `json:"relin_key"`
}

type searchResult struct {
	ID              string `json:"id"`
	ScoreCiphertext []byte `json:"score_ciphertext"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type fetchImageResponse struct {
	EncryptedImage []byte `json:"encrypted_image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register deposits the registration artifacts with the account service.
func (a *API) Register(ctx context.Context, email, password string, salt, wrappedMasterKey, wrappedKeypair []byte) error {
	req := registerRequest{
		Email:            email,
		Password:         password,
		Salt:             salt,
		WrappedMasterKey: wrappedMasterKey,
		WrappedKeypair:   wrappedKeypair,
	}

	status, body, err := a.post(ctx, "/api/v1/register", "", req)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusCreated:
		return nil
	case http.StatusConflict:
		return ErrAccountExists
	default:
		return apiError(status, body)
	}
}

// Login exchanges credentials for a bearer token and the wrapped key material.
func (a *API) Login(ctx context.Context, email, password string) (*loginResponse, error) {
	status, body, err := a.post(ctx, "/api/v1/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}

	var res loginResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &res, nil
}

// Upload submits one encrypted image payload plus its encrypted vector and
// returns the server-assigned record id.
func (a *API) Upload(ctx context.Context, token string, encryptedImage, encryptedVector []byte) (string, error) {
	req := uploadRequest{EncryptedImage: encryptedImage, EncryptedVector: encryptedVector}

	status, body, err := a.post(ctx, "/api/v1/images", token, req)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", apiError(status, body)
	}

	var res uploadResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return res.ID, nil
}

// Search submits the encrypted query and relinearization key and returns the
// per-record encrypted scores.
func (a *API) Search(ctx context.Context, token string, queryCiphertext, relinKey []byte) ([]searchResult, error) {
	req := searchRequest{QueryCiphertext: queryCiphertext, RelinKey: relinKey}

	status, body, err := a.post(ctx, "/api/v1/search", token, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, body)
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return res.Results, nil
}

// FetchImage retrieves one encrypted image payload by record id.
func (a *API) FetchImage(ctx context.Context, token, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/v1/images/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var res fetchImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode image response: %w", err)
	}
	return res.EncryptedImage, nil
}

func (a *API) post(ctx context.Context, path, token string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody := new(bytes.Buffer)
	if _, err := respBody.ReadFrom(resp.Body); err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody.Bytes(), nil
}

func apiError(status int, body []byte) error {
	var res errorResponse
	if json.Unmarshal(body, &res) == nil && res.Error != "" {
		return fmt.Errorf("server returned %d: %s", status, res.Error)
	}
	return fmt.Errorf("server returned %d", status)
}
