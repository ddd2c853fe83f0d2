package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// decodeBody reads a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// writeServiceError maps service errors to status codes. Anything unknown is
// logged and reported as a bare 500.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "user already exists")
	case errors.Is(err, common.ErrorUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "OK"})
}

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var salt []byte
	if req.KDFSalt != "" {
		var err error
		if salt, err = base64.StdEncoding.DecodeString(req.KDFSalt); err != nil {
			s.writeServiceError(w, r, common.NewValidationError("kdfSalt", "must be base64"))
			return
		}
	}

	user, err := s.users.Register(r.Context(), req.Email, req.Password, salt)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, registerResponse{User: toUserResponse(user, false)})
}

func (s *HTTPServer) handleSalt(w http.ResponseWriter, r *http.Request) {
	var req saltRequest
	if !decodeBody(w, r, &req) {
		return
	}

	salt, err := s.users.Salt(r.Context(), req.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saltResponse{KDFSalt: base64.StdEncoding.EncodeToString(salt)})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserResponse(res.User, true),
	})
}

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	records, err := s.records.List(r.Context(), claims.UserID())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	items := make([]ItemResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toItemResponse(rec))
	}
	writeJSON(w, http.StatusOK, itemsEnvelope{Items: items})
}

func (s *HTTPServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req recordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := s.records.Create(r.Context(), claims.UserID(), req.EncryptedData)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemEnvelope{Item: toItemResponse(rec)})
}

func (s *HTTPServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	var req recordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := s.records.Update(r.Context(), claims.UserID(), mux.Vars(r)["id"], req.EncryptedData)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemEnvelope{Item: toItemResponse(rec)})
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	if err := s.records.Delete(r.Context(), claims.UserID(), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "item deleted"})
}

func (s *HTTPServer) handleBackup(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	key, url, err := s.backups.Backup(r.Context(), claims.UserID())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Backup written", "user_id", claims.UserID(), "key", key)
	writeJSON(w, http.StatusOK, backupResponse{Key: key, URL: url})
}
