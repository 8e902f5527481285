package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/inkwellhq/inkwell/internal/model"
	"github.com/inkwellhq/inkwell/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func testPost(id, userID string) model.Post {
	return model.Post{
		ID:        id,
		UserID:    userID,
		UserName:  "Ada Quill",
		Title:     "Test Post",
		Content:   "<p>Hello</p>",
		Tags:      []string{"test"},
		LikedBy:   []model.Like{},
		Comments:  []model.Comment{},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestPostLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	post := testPost("p1", "u1")
	if err := st.InsertPost(ctx, post); err != nil {
		t.Fatalf("insert post: %v", err)
	}

	got, err := st.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Title != post.Title {
		t.Fatalf("unexpected title: %s", got.Title)
	}
	if got.Likes != 0 || len(got.LikedBy) != 0 || len(got.Comments) != 0 {
		t.Fatalf("new post not empty: %+v", got)
	}

	if err := st.DeletePost(ctx, "p1"); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := st.GetPost(ctx, "p1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeletePost(ctx, "p1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListPostsOrderedNewestFirst(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	old := testPost("old", "u1")
	old.CreatedAt = time.Now().UTC().Add(-time.Hour)
	recent := testPost("recent", "u2")
	if err := st.InsertPost(ctx, old); err != nil {
		t.Fatalf("insert old: %v", err)
	}
	if err := st.InsertPost(ctx, recent); err != nil {
		t.Fatalf("insert recent: %v", err)
	}

	posts, err := st.ListPosts(ctx)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != "recent" {
		t.Fatalf("expected newest first, got %s", posts[0].ID)
	}

	byUser, err := st.ListPostsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 1 || byUser[0].ID != "old" {
		t.Fatalf("unexpected user posts: %+v", byUser)
	}
}

func TestDuplicateLikeRejected(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	if err := st.InsertPost(ctx, testPost("p1", "author")); err != nil {
		t.Fatalf("insert post: %v", err)
	}

	like := model.Like{UserID: "fan", UserName: "Fan", LikedAt: time.Now().UTC()}
	if err := st.AppendLike(ctx, "p1", like); err != nil {
		t.Fatalf("first like: %v", err)
	}
	if err := st.AppendLike(ctx, "p1", like); !errors.Is(err, store.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}

	got, err := st.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Likes != 1 || len(got.LikedBy) != 1 {
		t.Fatalf("expected exactly one like, got likes=%d likedBy=%d", got.Likes, len(got.LikedBy))
	}
}

func TestLikeMissingPost(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	like := model.Like{UserID: "fan", UserName: "Fan", LikedAt: time.Now().UTC()}
	if err := st.AppendLike(context.Background(), "nope", like); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveLike(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	if err := st.InsertPost(ctx, testPost("p1", "author")); err != nil {
		t.Fatalf("insert post: %v", err)
	}

	// Removing a like the user never placed fails without touching the counter.
	if err := st.RemoveLike(ctx, "p1", "fan"); !errors.Is(err, store.ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked, got %v", err)
	}

	for _, u := range []string{"fan1", "fan2"} {
		like := model.Like{UserID: u, UserName: u, LikedAt: time.Now().UTC()}
		if err := st.AppendLike(ctx, "p1", like); err != nil {
			t.Fatalf("like %s: %v", u, err)
		}
	}
	if err := st.RemoveLike(ctx, "p1", "fan1"); err != nil {
		t.Fatalf("remove like: %v", err)
	}

	got, err := st.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Likes != 1 {
		t.Fatalf("expected 1 like, got %d", got.Likes)
	}
	if len(got.LikedBy) != 1 || got.LikedBy[0].UserID != "fan2" {
		t.Fatalf("wrong liker left: %+v", got.LikedBy)
	}

	if err := st.RemoveLike(ctx, "missing", "fan2"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing post, got %v", err)
	}
}

func TestComments(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	if err := st.InsertPost(ctx, testPost("p1", "author")); err != nil {
		t.Fatalf("insert post: %v", err)
	}

	c1 := model.Comment{ID: "c1", UserID: "u1", UserName: "One", Text: "first", CreatedAt: time.Now().UTC()}
	c2 := model.Comment{ID: "c2", UserID: "u2", UserName: "Two", Text: "second", CreatedAt: time.Now().UTC()}
	if err := st.AppendComment(ctx, "p1", c1); err != nil {
		t.Fatalf("append c1: %v", err)
	}
	if err := st.AppendComment(ctx, "p1", c2); err != nil {
		t.Fatalf("append c2: %v", err)
	}

	got, err := st.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(got.Comments) != 2 || got.Comments[0].ID != "c1" {
		t.Fatalf("unexpected comments: %+v", got.Comments)
	}

	if err := st.RemoveComment(ctx, "p1", "c1"); err != nil {
		t.Fatalf("remove comment: %v", err)
	}
	got, _ = st.GetPost(ctx, "p1")
	if len(got.Comments) != 1 || got.Comments[0].ID != "c2" {
		t.Fatalf("expected only c2 left, got %+v", got.Comments)
	}

	if err := st.AppendComment(ctx, "missing", c1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePostFields(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	post := testPost("p1", "author")
	post.ImageBytes = []byte{0x01, 0x02}
	if err := st.InsertPost(ctx, post); err != nil {
		t.Fatalf("insert post: %v", err)
	}
	like := model.Like{UserID: "fan", UserName: "Fan", LikedAt: time.Now().UTC()}
	if err := st.AppendLike(ctx, "p1", like); err != nil {
		t.Fatalf("like: %v", err)
	}

	fields := store.PostFields{
		Title:      "Edited",
		Content:    "<p>Edited</p>",
		ImageBytes: []byte{0xCA, 0xFE},
		Tags:       []string{"edited"},
	}
	if err := st.UpdatePostFields(ctx, "p1", fields); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := st.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Title != "Edited" || got.Content != "<p>Edited</p>" {
		t.Fatalf("fields not updated: %+v", got)
	}
	if len(got.ImageBytes) != 2 || got.ImageBytes[0] != 0xCA {
		t.Fatalf("image not updated: %v", got.ImageBytes)
	}
	if got.Tags[0] != "edited" {
		t.Fatalf("tags not updated: %v", got.Tags)
	}
	// Likes and creation time survive an update.
	if got.Likes != 1 || len(got.LikedBy) != 1 {
		t.Fatalf("update clobbered likes: %+v", got)
	}
	if !got.CreatedAt.Equal(post.CreatedAt) {
		t.Fatalf("update clobbered createdAt: %v != %v", got.CreatedAt, post.CreatedAt)
	}

	// Updating with no image drops the stored one.
	fields.ImageBytes = nil
	if err := st.UpdatePostFields(ctx, "p1", fields); err != nil {
		t.Fatalf("update without image: %v", err)
	}
	got, _ = st.GetPost(ctx, "p1")
	if len(got.ImageBytes) != 0 {
		t.Fatalf("expected image removed, got %v", got.ImageBytes)
	}

	if err := st.UpdatePostFields(ctx, "missing", fields); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNilSlicesNormalizedOnInsert(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	post := testPost("p1", "author")
	post.Tags = nil
	post.LikedBy = nil
	post.Comments = nil
	if err := st.InsertPost(ctx, post); err != nil {
		t.Fatalf("insert post: %v", err)
	}

	// The array ops must still work against a post inserted with nil slices.
	like := model.Like{UserID: "fan", UserName: "Fan", LikedAt: time.Now().UTC()}
	if err := st.AppendLike(ctx, "p1", like); err != nil {
		t.Fatalf("like after nil insert: %v", err)
	}
	comment := model.Comment{ID: "c1", UserID: "u1", UserName: "One", Text: "hi", CreatedAt: time.Now().UTC()}
	if err := st.AppendComment(ctx, "p1", comment); err != nil {
		t.Fatalf("comment after nil insert: %v", err)
	}

	got, err := st.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Likes != 1 || len(got.Comments) != 1 {
		t.Fatalf("unexpected post state: %+v", got)
	}
}
