package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/GomathyDhanya/SecureSearch/internal/auth"
	"github.com/GomathyDhanya/SecureSearch/internal/store"
	"github.com/GomathyDhanya/SecureSearch/pkg/blob"
)

// RegisterRequest carries the artifacts generated client-side at registration.
// The wrapped fields are ciphertext the server stores but cannot open.
type RegisterRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Salt             []byte `json:"salt"`
	WrappedMasterKey []byte `json:"wrapped_master_key"`
	WrappedKeypair   []byte `json:"wrapped_keypair"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || len(req.Salt) == 0 ||
		len(req.WrappedMasterKey) == 0 || len(req.WrappedKeypair) == 0 {
		writeError(w, http.StatusBadRequest, "missing registration fields")
		return
	}

	err := s.auth.Register(r.Context(), auth.Registration{
		Email:            req.Email,
		Password:         req.Password,
		Salt:             req.Salt,
		WrappedMasterKey: req.WrappedMasterKey,
		WrappedKeypair:   req.WrappedKeypair,
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			writeError(w, http.StatusConflict, "account already exists")
			return
		}
		s.logger.Error("registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token            string `json:"token"`
	Salt             []byte `json:"salt"`
	WrappedMasterKey []byte `json:"wrapped_master_key"`
	WrappedKeypair   []byte `json:"wrapped_keypair"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:            res.Token,
		Salt:             res.Salt,
		WrappedMasterKey: res.WrappedMasterKey,
		WrappedKeypair:   res.WrappedKeypair,
	})
}

type UploadRequest struct {
	EncryptedImage  []byte `json:"encrypted_image"`
	EncryptedVector []byte `json:"encrypted_vector"`
}

type UploadResponse struct {
	ID string `json:"id"`
}

// handleUpload persists one encrypted image: the payload goes to blob storage
// under a server-generated key, the vector ciphertext becomes a queryable
// record. The blob is written first and deleted again if the record insert
// fails, so a searchable record always has a payload behind it. An orphaned
// blob is recoverable garbage; an orphaned record would surface in search
// results with nothing to decrypt.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	owner := callerID(r.Context())

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.EncryptedImage) == 0 || len(req.EncryptedVector) == 0 {
		writeError(w, http.StatusBadRequest, "missing image or vector")
		return
	}

	recordID := uuid.New()
	blobKey := fmt.Sprintf("%s/%s.enc", owner, recordID)

	if err := s.blobs.Put(r.Context(), blobKey, req.EncryptedImage); err != nil {
		s.logger.Error("blob store failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	rec := store.ImageRecord{
		ID:              recordID,
		OwnerID:         owner,
		EncryptedVector: req.EncryptedVector,
		BlobKey:         blobKey,
		CreatedAt:       time.Now(),
	}
	if err := s.records.CreateRecord(r.Context(), rec); err != nil {
		if delErr := s.blobs.Delete(r.Context(), blobKey); delErr != nil {
			s.logger.Warn("failed to clean up blob after record failure", "key", blobKey, "error", delErr)
		}
		s.logger.Error("record create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	s.logger.Info("image stored", "record", recordID, "owner", owner)
	writeJSON(w, http.StatusCreated, UploadResponse{ID: recordID.String()})
}

type SearchRequest struct {
	QueryCiphertext []byte `json:"query_ciphertext"`
	RelinKey        []byte `json:"relin_key"`
}

type SearchResult struct {
	ID              string `json:"id"`
	ScoreCiphertext []byte `json:"score_ciphertext"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// handleSearch runs the blind dot product of the query ciphertext against
// every vector the caller owns. The relinearization key arrives with each
// query; it permits the multiplication but not decryption, so holding it
// transiently leaks nothing. The response scores are ciphertexts only the
// caller can open.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	owner := callerID(r.Context())

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.QueryCiphertext) == 0 || len(req.RelinKey) == 0 {
		writeError(w, http.StatusBadRequest, "missing query ciphertext or relinearization key")
		return
	}

	records, err := s.records.ListRecords(r.Context(), owner)
	if err != nil {
		s.logger.Error("record list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	if len(records) == 0 {
		writeJSON(w, http.StatusOK, SearchResponse{Results: []SearchResult{}})
		return
	}

	scorer, err := s.engine.NewScorer(req.QueryCiphertext, req.RelinKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed query ciphertext or relinearization key")
		return
	}

	results := make([]SearchResult, 0, len(records))
	for _, rec := range records {
		if err := r.Context().Err(); err != nil {
			return
		}

		key := rec.ID.String()
		vec := s.vectors.Get(key)
		if vec == nil {
			vec, err = s.engine.ParseVector(rec.EncryptedVector)
			if err != nil {
				s.logger.Error("stored vector unreadable", "record", rec.ID, "error", err)
				writeError(w, http.StatusInternalServerError, "search failed")
				return
			}
			s.vectors.Put(key, vec)
		}

		scoreCt, err := scorer.Score(vec)
		if err != nil {
			s.logger.Error("blind dot product failed", "record", rec.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "search failed")
			return
		}
		results = append(results, SearchResult{
			ID:              key,
			ScoreCiphertext: scoreCt,
		})
	}

	s.logger.Info("search scored", "owner", owner, "records", len(results))
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

type FetchImageResponse struct {
	EncryptedImage []byte `json:"encrypted_image"`
}

func (s *Server) handleFetchImage(w http.ResponseWriter, r *http.Request) {
	owner := callerID(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	rec, err := s.records.GetRecord(r.Context(), id, owner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.logger.Error("record fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "fetch failed")
		return
	}

	payload, err := s.blobs.Get(r.Context(), rec.BlobKey)
	if err != nil {
		if errors.Is(err, blob.ErrBlobNotFound) {
			s.logger.Error("record has no blob", "record", rec.ID, "key", rec.BlobKey)
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.logger.Error("blob fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	writeJSON(w, http.StatusOK, FetchImageResponse{EncryptedImage: payload})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
