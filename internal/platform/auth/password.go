package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultSignInEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"
	defaultSignInTimeout  = 10 * time.Second
)

// ErrInvalidCredentials is returned for every sign-in rejection. The cause is
// deliberately not distinguished so callers cannot leak whether an account
// exists.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// SignInResult carries the tokens minted by a successful password sign-in.
type SignInResult struct {
	IDToken      string
	RefreshToken string
	LocalID      string
	Email        string
}

// PasswordClient exchanges email/password credentials for a Firebase ID token
// via the Identity Toolkit REST API. The Admin SDK cannot verify passwords, so
// this is the server-side counterpart to the browser sign-in flow.
type PasswordClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// PasswordOption customises PasswordClient instances.
type PasswordOption func(*PasswordClient)

// WithSignInEndpoint overrides the Identity Toolkit endpoint, used for tests
// and the auth emulator.
func WithSignInEndpoint(endpoint string) PasswordOption {
	return func(c *PasswordClient) {
		if strings.TrimSpace(endpoint) != "" {
			c.endpoint = endpoint
		}
	}
}

// WithSignInHTTPClient overrides the HTTP client used for sign-in calls.
func WithSignInHTTPClient(client *http.Client) PasswordOption {
	return func(c *PasswordClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewPasswordClient constructs a PasswordClient for the given web API key.
func NewPasswordClient(apiKey string, opts ...PasswordOption) (*PasswordClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("auth: web api key is required")
	}

	client := &PasswordClient{
		apiKey:     apiKey,
		endpoint:   defaultSignInEndpoint,
		httpClient: &http.Client{Timeout: defaultSignInTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

// SignIn validates the supplied credentials. Any rejection, whether the
// account is missing, disabled, or the password wrong, maps to
// ErrInvalidCredentials; transport failures are returned as-is.
func (c *PasswordClient) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	if c == nil {
		return SignInResult{}, errors.New("auth: password client not initialised")
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return SignInResult{}, ErrInvalidCredentials
	}

	payload, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return SignInResult{}, fmt.Errorf("auth: encode sign-in request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(payload))
	if err != nil {
		return SignInResult{}, fmt.Errorf("auth: build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SignInResult{}, fmt.Errorf("auth: sign-in request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return SignInResult{}, ErrInvalidCredentials
		}
		return SignInResult{}, fmt.Errorf("auth: sign-in endpoint returned status %d", resp.StatusCode)
	}

	var decoded signInResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return SignInResult{}, fmt.Errorf("auth: decode sign-in response: %w", err)
	}
	if decoded.IDToken == "" {
		return SignInResult{}, ErrInvalidCredentials
	}

	return SignInResult{
		IDToken:      decoded.IDToken,
		RefreshToken: decoded.RefreshToken,
		LocalID:      decoded.LocalID,
		Email:        decoded.Email,
	}, nil
}
