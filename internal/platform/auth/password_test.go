package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPasswordClientSignIn(t *testing.T) {
	var gotKey string
	var gotBody signInRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(signInResponse{
			IDToken:      "id-token",
			RefreshToken: "refresh-token",
			LocalID:      "uid-1",
			Email:        "admin@example.com",
		})
	}))
	defer server.Close()

	client, err := NewPasswordClient("api-key", WithSignInEndpoint(server.URL), WithSignInHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewPasswordClient returned error: %v", err)
	}

	result, err := client.SignIn(context.Background(), "admin@example.com", "pa55word")
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}

	if gotKey != "api-key" {
		t.Errorf("expected api key query parameter, got %q", gotKey)
	}
	if gotBody.Email != "admin@example.com" || gotBody.Password != "pa55word" {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
	if !gotBody.ReturnSecureToken {
		t.Errorf("expected returnSecureToken to be set")
	}
	if result.IDToken != "id-token" || result.LocalID != "uid-1" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestPasswordClientSignInRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "EMAIL_NOT_FOUND"},
		})
	}))
	defer server.Close()

	client, err := NewPasswordClient("api-key", WithSignInEndpoint(server.URL), WithSignInHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewPasswordClient returned error: %v", err)
	}

	// Every 4xx rejection collapses to the same sentinel.
	if _, err := client.SignIn(context.Background(), "ghost@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordClientSignInServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewPasswordClient("api-key", WithSignInEndpoint(server.URL), WithSignInHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewPasswordClient returned error: %v", err)
	}

	_, err = client.SignIn(context.Background(), "admin@example.com", "pa55word")
	if err == nil {
		t.Fatalf("expected error for 5xx response")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("server errors must not masquerade as credential failures: %v", err)
	}
}

func TestPasswordClientSignInEmptyInput(t *testing.T) {
	client, err := NewPasswordClient("api-key")
	if err != nil {
		t.Fatalf("NewPasswordClient returned error: %v", err)
	}

	if _, err := client.SignIn(context.Background(), "", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty email, got %v", err)
	}
	if _, err := client.SignIn(context.Background(), "admin@example.com", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestNewPasswordClientRequiresKey(t *testing.T) {
	if _, err := NewPasswordClient(" "); err == nil {
		t.Fatalf("expected error for blank api key")
	}
}
