package rate

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewMemory()

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow("k", 3, time.Minute); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, retry := l.Allow("k", 3, time.Minute)
	if ok {
		t.Fatal("expected fourth request to be blocked")
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("unexpected retry: %v", retry)
	}
}

func TestKeysIndependent(t *testing.T) {
	l := NewMemory()

	if ok, _ := l.Allow("a", 1, time.Minute); !ok {
		t.Fatal("first key should be allowed")
	}
	if ok, _ := l.Allow("a", 1, time.Minute); ok {
		t.Fatal("first key should be exhausted")
	}
	if ok, _ := l.Allow("b", 1, time.Minute); !ok {
		t.Fatal("second key should be unaffected")
	}
}

func TestWindowResets(t *testing.T) {
	l := NewMemory()

	if ok, _ := l.Allow("k", 1, 10*time.Millisecond); !ok {
		t.Fatal("first request should be allowed")
	}
	if ok, _ := l.Allow("k", 1, 10*time.Millisecond); ok {
		t.Fatal("second request should be blocked")
	}
	time.Sleep(15 * time.Millisecond)
	if ok, _ := l.Allow("k", 1, 10*time.Millisecond); !ok {
		t.Fatal("request after window reset should be allowed")
	}
}
