package speech

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/inkwellhq/inkwell/internal/blog"
	"github.com/inkwellhq/inkwell/internal/store/sqlite"
)

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Hello world", "Hello world"},
		{"simple tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"nested blocks", "<div><h1>Title</h1><p>Body text.</p></div>", "Title Body text."},
		{"attributes", `<a href="https://example.com">link</a> text`, "link text"},
		{"entities", "Fish &amp; chips &lt;3 &quot;quoted&quot; it&#39;s&nbsp;fine", `Fish & chips <3 "quoted" it's fine`},
		{"whitespace collapsed", "<p>  a  </p>\n\n<p>  b  </p>", "a b"},
		{"only tags", "<p></p><br/><img src='x'/>", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripHTML(tc.in); got != tc.want {
				t.Fatalf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

type fakeSynth struct {
	lastText string
	err      error
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("RIFF"), make([]byte, 40)...), nil
}

func newTestReader(t *testing.T, synth Synthesizer) (*Reader, *blog.Service) {
	t.Helper()
	path := fmt.Sprintf("file:speech_%s?mode=memory&cache=shared", t.Name())
	st, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	svc := blog.NewService(st)
	return NewReader(svc, synth), svc
}

func TestReadPost(t *testing.T) {
	synth := &fakeSynth{}
	reader, svc := newTestReader(t, synth)
	ctx := context.Background()

	post, err := svc.Create(ctx, "u1", "Ada", "Title", "<p>Read <b>this</b> aloud.</p>", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	wav, err := reader.ReadPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("read post: %v", err)
	}
	if len(wav) == 0 {
		t.Fatal("expected audio bytes")
	}
	if synth.lastText != "Read this aloud." {
		t.Fatalf("synthesizer got %q", synth.lastText)
	}
}

func TestReadPostMissing(t *testing.T) {
	reader, _ := newTestReader(t, &fakeSynth{})

	if _, err := reader.ReadPost(context.Background(), "nope"); !errors.Is(err, blog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadPostNothingSpeakable(t *testing.T) {
	synth := &fakeSynth{}
	reader, svc := newTestReader(t, synth)
	ctx := context.Background()

	post, err := svc.Create(ctx, "u1", "Ada", "Title", "<p></p><br/>", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := reader.ReadPost(ctx, post.ID); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if synth.lastText != "" {
		t.Fatalf("synthesizer should not run for empty content, got %q", synth.lastText)
	}
}

func TestReadPostSynthesisFailure(t *testing.T) {
	synth := &fakeSynth{err: ErrSynthesis}
	reader, svc := newTestReader(t, synth)
	ctx := context.Background()

	post, err := svc.Create(ctx, "u1", "Ada", "Title", "<p>content</p>", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := reader.ReadPost(ctx, post.ID); !errors.Is(err, ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestEspeakEmptyText(t *testing.T) {
	e := NewEspeak("espeak-ng", "en+f3", 100, 175)
	if _, err := e.Synthesize(context.Background(), "   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}
