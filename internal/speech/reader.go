package speech

import (
	"context"

	"github.com/inkwellhq/inkwell/internal/blog"
)

// Reader loads a post and speaks its content.
type Reader struct {
	blog  *blog.Service
	synth Synthesizer
}

func NewReader(blogSvc *blog.Service, synth Synthesizer) *Reader {
	return &Reader{blog: blogSvc, synth: synth}
}

// ReadPost returns WAV audio for the post's content. Fails when the
// post is absent or its content reduces to nothing speakable.
func (r *Reader) ReadPost(ctx context.Context, postID string) ([]byte, error) {
	post, err := r.blog.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	text := StripHTML(post.Content)
	if text == "" {
		return nil, ErrEmptyContent
	}
	return r.synth.Synthesize(ctx, text)
}
