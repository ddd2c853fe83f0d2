package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/passvault/internal/server/models"
)

// writeJSON marshals v to JSON and writes it with the given status code.
// If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

type errorResponse struct {
	Error string `json:"error"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRequest carries the client's KDF salt next to the login secret.
// An absent salt lets the server pick one.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	KDFSalt  string `json:"kdfSalt,omitempty"`
}

type saltRequest struct {
	Email string `json:"email"`
}

type saltResponse struct {
	KDFSalt string `json:"kdfSalt"`
}

type recordRequest struct {
	EncryptedData string `json:"encryptedData"`
}

type userResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	KDFSalt string `json:"kdfSalt,omitempty"`
}

type registerResponse struct {
	User userResponse `json:"user"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      userResponse `json:"user"`
}

// ItemResponse is the wire form of a vault record.
type ItemResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	EncryptedData string `json:"encryptedData"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

type itemEnvelope struct {
	Item ItemResponse `json:"item"`
}

type itemsEnvelope struct {
	Items []ItemResponse `json:"items"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type backupResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func toItemResponse(r *models.Record) ItemResponse {
	return ItemResponse{
		ID:            r.ID,
		UserID:        r.OwnerID,
		EncryptedData: r.Ciphertext,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     r.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toUserResponse(u *models.User, withSalt bool) userResponse {
	resp := userResponse{ID: u.ID, Email: u.Email}
	if withSalt {
		resp.KDFSalt = base64.StdEncoding.EncodeToString(u.KDFSalt)
	}
	return resp
}
