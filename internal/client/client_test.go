package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("email") != "ada@example.com" {
			t.Errorf("email missing from query")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "user-1",
			"email":       "ada@example.com",
			"accessToken": "session-token",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Login("ada@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if c.Token != "session-token" {
		t.Fatalf("token not stored: %q", c.Token)
	}
}

func TestCreatePostSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if r.FormValue("title") != "T" || r.FormValue("content") != "C" {
			t.Errorf("fields lost: %v", r.MultipartForm.Value)
		}
		if got := r.MultipartForm.Value["tags"]; len(got) != 2 {
			t.Errorf("expected 2 tag fields, got %v", got)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			t.Errorf("image missing: %v", err)
		} else {
			file.Close()
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"post": map[string]any{"id": "p1", "title": "T"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Token = "tok"
	post, err := c.CreatePost("T", "C", []byte{0x01}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID != "p1" {
		t.Fatalf("unexpected post: %+v", post)
	}
}

func TestAPIErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"message": "you can only modify your own posts"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.DeletePost("p1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "your own posts") {
		t.Fatalf("message not surfaced: %v", err)
	}
}
