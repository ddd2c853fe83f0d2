// Package api is the CLI's client for the passvault HTTP API. It only ever
// sends and receives ciphertext for vault records.
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token sent with vault requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	KDFSalt []byte `json:"-"`
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// Item is a vault record as the server sees it.
type Item struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	EncryptedData string    `json:"encryptedData"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	KDFSalt  string `json:"kdfSalt"`
}

type recordBody struct {
	EncryptedData string `json:"encryptedData"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// Register creates an account. password is the login secret derived on this
// machine; salt is the KDF salt it was derived with.
func (c *Client) Register(ctx context.Context, email, password string, salt []byte) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	in := registration{email, password, base64.StdEncoding.EncodeToString(salt)}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return nil, err
	}
	out.User.KDFSalt = salt
	return &out.User, nil
}

// Salt fetches the KDF salt for email. Unknown addresses still get a salt.
func (c *Client) Salt(ctx context.Context, email string) ([]byte, error) {
	var out struct {
		KDFSalt string `json:"kdfSalt"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/salt", struct {
		Email string `json:"email"`
	}{email}, &out); err != nil {
		return nil, err
	}
	salt, err := base64.StdEncoding.DecodeString(out.KDFSalt)
	if err != nil || len(salt) == 0 {
		return nil, fmt.Errorf("salt response carries no usable kdf salt")
	}
	return salt, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		User      struct {
			ID      string `json:"id"`
			Email   string `json:"email"`
			KDFSalt string `json:"kdfSalt"`
		} `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{email, password}, &out); err != nil {
		return nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(out.User.KDFSalt)
	if err != nil || len(salt) == 0 {
		return nil, fmt.Errorf("login response carries no usable kdf salt")
	}

	return &LoginResult{
		Token:     out.Token,
		ExpiresAt: out.ExpiresAt,
		User:      User{ID: out.User.ID, Email: out.User.Email, KDFSalt: salt},
	}, nil
}

func (c *Client) List(ctx context.Context) ([]Item, error) {
	var out struct {
		Items []Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/vault", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Create(ctx context.Context, encryptedData string) (*Item, error) {
	var out struct {
		Item Item `json:"item"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/vault", recordBody{encryptedData}, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

func (c *Client) Update(ctx context.Context, id, encryptedData string) (*Item, error) {
	var out struct {
		Item Item `json:"item"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/vault/"+url.PathEscape(id), recordBody{encryptedData}, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/vault/"+url.PathEscape(id), nil, nil)
}

// Backup asks the server to export the vault and returns the object key and
// a short-lived download URL.
func (c *Client) Backup(ctx context.Context) (string, string, error) {
	var out struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/vault/backup", nil, &out); err != nil {
		return "", "", err
	}
	return out.Key, out.URL, nil
}
