package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSignIn(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "svc-key" {
			t.Errorf("missing apikey header")
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ada@example.com" {
			t.Errorf("unexpected email: %s", body["email"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "upstream-token",
			"user": map[string]any{
				"id":    "user-1",
				"email": "ada@example.com",
				"user_metadata": map[string]any{
					"name": "Ada Quill",
				},
			},
		})
	}))
	defer upstream.Close()

	c := New(upstream.URL, "svc-key")
	user, err := c.SignIn(context.Background(), "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if user.ID != "user-1" || user.Email != "ada@example.com" || user.Name != "Ada Quill" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestSignInDisplayNameFallback(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{
				"id":            "user-2",
				"email":         "b@example.com",
				"user_metadata": map[string]any{"display_name": "Basil"},
			},
		})
	}))
	defer upstream.Close()

	c := New(upstream.URL, "k")
	user, err := c.SignIn(context.Background(), "b@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if user.Name != "Basil" {
		t.Fatalf("expected display_name fallback, got %q", user.Name)
	}
}

func TestSignInRejected(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "invalid_grant"}`, status)
		}))
		c := New(upstream.URL, "k")
		_, err := c.SignIn(context.Background(), "a@example.com", "wrong")
		upstream.Close()
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("status %d: expected ErrInvalidCredentials, got %v", status, err)
		}
	}
}

func TestSignInUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	c := New(upstream.URL, "k")
	if _, err := c.SignIn(context.Background(), "a@example.com", "pw"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestSignUp(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body struct {
			Email string            `json:"email"`
			Data  map[string]string `json:"data"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Data["name"] != "Ada" || body.Data["display_name"] != "Ada" {
			t.Errorf("name not stored under both keys: %+v", body.Data)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "user-1",
			"email":         body.Email,
			"user_metadata": map[string]any{"name": "Ada"},
		})
	}))
	defer upstream.Close()

	c := New(upstream.URL, "k")
	user, err := c.SignUp(context.Background(), "ada@example.com", "secret", "Ada")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID != "user-1" || user.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestUpdatePasswordSendsBearer(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/auth/v1/user" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	c := New(upstream.URL, "k")
	if err := c.UpdatePassword(context.Background(), "reset-token", "newpw"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if gotAuth != "Bearer reset-token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
}
