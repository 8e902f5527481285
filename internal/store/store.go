package store

import (
	"context"
	"errors"

	"github.com/inkwellhq/inkwell/internal/model"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrAlreadyLiked = errors.New("user has already liked this post")
	ErrNotLiked     = errors.New("user hasn't liked this post")
)

// PostFields is the mutable subset of a post document. Likes, comments,
// and the creation timestamp are never written through this path.
type PostFields struct {
	Title      string
	Content    string
	ImageBytes []byte
	Tags       []string
}

// Store is the gateway to the single posts collection. Every operation
// touches exactly one document; there are no cross-document transactions.
type Store interface {
	InsertPost(ctx context.Context, post model.Post) error
	ListPosts(ctx context.Context) ([]model.Post, error)
	ListPostsByUser(ctx context.Context, userID string) ([]model.Post, error)
	GetPost(ctx context.Context, id string) (model.Post, error)

	// UpdatePostFields replaces title/content/image/tags in place.
	UpdatePostFields(ctx context.Context, id string, fields PostFields) error

	// AppendLike adds the like and bumps the counter in one conditional
	// update. It fails with ErrAlreadyLiked when the user is already in
	// the likers list, so two racing likes from the same user cannot
	// both land.
	AppendLike(ctx context.Context, id string, like model.Like) error

	// RemoveLike removes the user's like and decrements the counter.
	// ErrNotLiked when the guarded update matches nothing, which covers
	// both a missing post and a user who never liked it.
	RemoveLike(ctx context.Context, id, userID string) error

	AppendComment(ctx context.Context, id string, comment model.Comment) error
	RemoveComment(ctx context.Context, id, commentID string) error

	DeletePost(ctx context.Context, id string) error
	Close() error
}
