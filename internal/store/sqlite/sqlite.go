// Package sqlite backs the posts collection with a single SQLite table
// holding one JSON document per post. Array pushes and pulls go through
// the JSON1 functions so that every mutation is a single UPDATE
// statement, which is what gives like/unlike their single-document
// atomicity.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/inkwellhq/inkwell/internal/model"
	"github.com/inkwellhq/inkwell/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: the posts collection. user_id and created_at are
	// denormalized out of the document for the two list queries.
	`
CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	doc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
`,
	// Future migrations go here.
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) InsertPost(ctx context.Context, post model.Post) error {
	// The JSON1 array operations need likedBy/comments/tags present as
	// arrays, never null.
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.LikedBy == nil {
		post.LikedBy = []model.Like{}
	}
	if post.Comments == nil {
		post.Comments = []model.Comment{}
	}
	doc, err := json.Marshal(post)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO posts (id, user_id, created_at, doc)
VALUES (?, ?, ?, ?)
`, post.ID, post.UserID, post.CreatedAt.Unix(), string(doc))
	return err
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM posts WHERE id = ? LIMIT 1`, id)
	return scanPost(row)
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT doc FROM posts ORDER BY created_at DESC, id
`)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (s *Store) ListPostsByUser(ctx context.Context, userID string) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT doc FROM posts WHERE user_id = ? ORDER BY created_at DESC, id
`, userID)
	if err != nil {
		return nil, err
	}
	return collectPosts(rows)
}

func (s *Store) UpdatePostFields(ctx context.Context, id string, fields store.PostFields) error {
	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}

	var res sql.Result
	if len(fields.ImageBytes) > 0 {
		// Image is carried inside the document the way encoding/json
		// carries []byte: a base64 string.
		res, err = s.db.ExecContext(ctx, `
UPDATE posts
SET doc = json_set(doc,
	'$.title', ?,
	'$.content', ?,
	'$.tags', json(?),
	'$.imageBytes', ?)
WHERE id = ?
`, fields.Title, fields.Content, string(tagsJSON), base64.StdEncoding.EncodeToString(fields.ImageBytes), id)
	} else {
		res, err = s.db.ExecContext(ctx, `
UPDATE posts
SET doc = json_remove(json_set(doc,
	'$.title', ?,
	'$.content', ?,
	'$.tags', json(?)), '$.imageBytes')
WHERE id = ?
`, fields.Title, fields.Content, string(tagsJSON), id)
	}
	if err != nil {
		return err
	}
	return requireMatch(res, store.ErrNotFound)
}

func (s *Store) AppendLike(ctx context.Context, id string, like model.Like) error {
	likeJSON, err := json.Marshal(like)
	if err != nil {
		return err
	}
	// Compare-and-swap on likers membership: the append and the counter
	// bump only happen when the user is not already in the array, so a
	// second like racing the first loses here rather than duplicating.
	res, err := s.db.ExecContext(ctx, `
UPDATE posts
SET doc = json_set(doc,
	'$.likes', json_extract(doc, '$.likes') + 1,
	'$.likedBy[#]', json(?))
WHERE id = ?
  AND NOT EXISTS (
	SELECT 1 FROM json_each(posts.doc, '$.likedBy')
	WHERE json_extract(value, '$.userId') = ?)
`, string(likeJSON), id, like.UserID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if exists, err := s.postExists(ctx, id); err != nil {
			return err
		} else if !exists {
			return store.ErrNotFound
		}
		return store.ErrAlreadyLiked
	}
	return nil
}

func (s *Store) RemoveLike(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE posts
SET doc = json_set(doc,
	'$.likes', json_extract(doc, '$.likes') - 1,
	'$.likedBy', (SELECT json_group_array(json(value))
		FROM json_each(posts.doc, '$.likedBy')
		WHERE json_extract(value, '$.userId') <> ?))
WHERE id = ?
  AND EXISTS (
	SELECT 1 FROM json_each(posts.doc, '$.likedBy')
	WHERE json_extract(value, '$.userId') = ?)
`, userID, id, userID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if exists, err := s.postExists(ctx, id); err != nil {
			return err
		} else if !exists {
			return store.ErrNotFound
		}
		return store.ErrNotLiked
	}
	return nil
}

func (s *Store) AppendComment(ctx context.Context, id string, comment model.Comment) error {
	commentJSON, err := json.Marshal(comment)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE posts SET doc = json_set(doc, '$.comments[#]', json(?)) WHERE id = ?
`, string(commentJSON), id)
	if err != nil {
		return err
	}
	return requireMatch(res, store.ErrNotFound)
}

func (s *Store) RemoveComment(ctx context.Context, id, commentID string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE posts
SET doc = json_set(doc,
	'$.comments', (SELECT json_group_array(json(value))
		FROM json_each(posts.doc, '$.comments')
		WHERE json_extract(value, '$.id') <> ?))
WHERE id = ?
  AND EXISTS (
	SELECT 1 FROM json_each(posts.doc, '$.comments')
	WHERE json_extract(value, '$.id') = ?)
`, commentID, id, commentID)
	if err != nil {
		return err
	}
	return requireMatch(res, store.ErrNotFound)
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireMatch(res, store.ErrNotFound)
}

func (s *Store) postExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM posts WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

func requireMatch(res sql.Result, missing error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return missing
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (model.Post, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	var post model.Post
	if err := json.Unmarshal([]byte(doc), &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	defer rows.Close()
	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
