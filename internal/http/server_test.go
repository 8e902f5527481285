package httpapp

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/inkwellhq/inkwell/internal/model"
)

func TestSplitPath(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"/", nil},
		{"/blog/all", []string{"blog", "all"}},
		{"blog/like/abc/", []string{"blog", "like", "abc"}},
	}
	for _, tc := range cases {
		if got := splitPath(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitPath(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSplitTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"go", []string{"go"}},
		{"go, http , ", []string{"go", "http"}},
		{",,a,,b,", []string{"a", "b"}},
	}
	for _, tc := range cases {
		if got := splitTags(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("splitTags(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := bearerToken(req); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}

	req.Header.Set("Authorization", "Bearer abc123")
	if got := bearerToken(req); got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}

	req.Header.Set("Authorization", "Basic abc123")
	if got := bearerToken(req); got != "" {
		t.Fatalf("expected empty token for non-bearer scheme, got %q", got)
	}
}

func TestPostPayloadImage(t *testing.T) {
	withImage := model.Post{ID: "p1", ImageBytes: []byte{0x01, 0x02}}
	payload := postPayload(withImage)
	if enc, ok := payload["imageBase64"].(*string); !ok || enc == nil || *enc != "AQI=" {
		t.Fatalf("unexpected encoding: %v", payload["imageBase64"])
	}

	without := postPayload(model.Post{ID: "p2"})
	if enc, ok := without["imageBase64"].(*string); !ok || enc != nil {
		t.Fatalf("expected nil imageBase64, got %v", without["imageBase64"])
	}
}

func TestClientIP(t *testing.T) {
	s := &Server{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if got := s.clientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected 10.0.0.1, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := s.clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}
}
