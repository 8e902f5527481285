// Package blog enforces the business rules for posts: field validation,
// ownership, and like idempotence, on top of the posts collection.
package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwellhq/inkwell/internal/model"
	"github.com/inkwellhq/inkwell/internal/store"
)

var (
	ErrNotFound        = store.ErrNotFound
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotOwner        = errors.New("you can only modify your own posts")
	ErrNotAuthor       = errors.New("you can only delete your own comments")
	ErrAlreadyLiked    = store.ErrAlreadyLiked
	ErrNotLiked        = store.ErrNotLiked
)

// ValidationError marks a rejected input, as opposed to a store or
// authorization failure.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Create(ctx context.Context, userID, userName, title, content string, image []byte, tags []string) (model.Post, error) {
	if err := requireFields(map[string]string{
		"user id": userID, "user name": userName, "title": title, "content": content,
	}); err != nil {
		return model.Post{}, err
	}

	post := model.Post{
		ID:         uuid.NewString(),
		UserID:     userID,
		UserName:   userName,
		Title:      title,
		Content:    content,
		ImageBytes: image,
		Tags:       tags,
		Likes:      0,
		LikedBy:    []model.Like{},
		Comments:   []model.Comment{},
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.InsertPost(ctx, post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *Service) ListAll(ctx context.Context) ([]model.Post, error) {
	return s.store.ListPosts(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.Post, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "user id"}
	}
	return s.store.ListPostsByUser(ctx, userID)
}

func (s *Service) GetByID(ctx context.Context, postID string) (model.Post, error) {
	if strings.TrimSpace(postID) == "" {
		return model.Post{}, &ValidationError{Field: "post id"}
	}
	return s.store.GetPost(ctx, postID)
}

// Like appends a like for the user. The membership check and the append
// are a single conditional update in the store, so a duplicate like is
// rejected even when two requests from the same user race.
func (s *Service) Like(ctx context.Context, postID, userID, userName string) error {
	if err := requireFields(map[string]string{
		"post id": postID, "user id": userID, "user name": userName,
	}); err != nil {
		return err
	}
	like := model.Like{
		UserID:   userID,
		UserName: userName,
		LikedAt:  time.Now().UTC(),
	}
	return s.store.AppendLike(ctx, postID, like)
}

func (s *Service) Unlike(ctx context.Context, postID, userID string) error {
	if err := requireFields(map[string]string{
		"post id": postID, "user id": userID,
	}); err != nil {
		return err
	}
	return s.store.RemoveLike(ctx, postID, userID)
}

func (s *Service) AddComment(ctx context.Context, postID, userID, userName, text string) (model.Comment, error) {
	if err := requireFields(map[string]string{
		"post id": postID, "user id": userID, "user name": userName, "comment text": text,
	}); err != nil {
		return model.Comment{}, err
	}
	comment := model.Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserName:  userName,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendComment(ctx, postID, comment); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

func (s *Service) DeleteComment(ctx context.Context, postID, commentID, userID string) error {
	if err := requireFields(map[string]string{
		"post id": postID, "comment id": commentID, "user id": userID,
	}); err != nil {
		return err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	comment, ok := post.FindComment(commentID)
	if !ok {
		return ErrCommentNotFound
	}
	if comment.UserID != userID {
		return ErrNotAuthor
	}
	return s.store.RemoveComment(ctx, postID, commentID)
}

func (s *Service) Delete(ctx context.Context, postID, userID string) error {
	if err := requireFields(map[string]string{
		"post id": postID, "user id": userID,
	}); err != nil {
		return err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return ErrNotOwner
	}
	return s.store.DeletePost(ctx, postID)
}

// Update replaces title/content/image/tags in place. Likes, comments,
// the creation timestamp, and the id are untouched.
func (s *Service) Update(ctx context.Context, postID, userID, userName, title, content string, image []byte, tags []string) (model.Post, error) {
	if err := requireFields(map[string]string{
		"post id": postID, "user id": userID, "user name": userName, "title": title, "content": content,
	}); err != nil {
		return model.Post{}, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return model.Post{}, err
	}
	if post.UserID != userID {
		return model.Post{}, ErrNotOwner
	}
	fields := store.PostFields{
		Title:      title,
		Content:    content,
		ImageBytes: image,
		Tags:       tags,
	}
	if err := s.store.UpdatePostFields(ctx, postID, fields); err != nil {
		return model.Post{}, err
	}
	return s.store.GetPost(ctx, postID)
}

func requireFields(fields map[string]string) error {
	// Check in a fixed order so the reported field is deterministic.
	for _, name := range []string{"post id", "comment id", "user id", "user name", "title", "content", "comment text"} {
		if value, ok := fields[name]; ok && strings.TrimSpace(value) == "" {
			return &ValidationError{Field: name}
		}
	}
	return nil
}
