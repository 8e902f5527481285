package model

import "time"

// Post is a blog article with its likes and comments embedded in the
// same document. Likes must always equal len(LikedBy).
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	ImageBytes []byte    `json:"imageBytes,omitempty"`
	Tags       []string  `json:"tags"`
	Likes      int       `json:"likes"`
	LikedBy    []Like    `json:"likedBy"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Like struct {
	UserID   string    `json:"userId"`
	UserName string    `json:"userName"`
	LikedAt  time.Time `json:"likedAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikerOf reports whether userID appears in the post's likers list.
func (p Post) LikerOf(userID string) bool {
	for _, l := range p.LikedBy {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// FindComment returns the comment with the given id, if present.
func (p Post) FindComment(commentID string) (Comment, bool) {
	for _, c := range p.Comments {
		if c.ID == commentID {
			return c, true
		}
	}
	return Comment{}, false
}

// User is the identity returned by the external identity provider.
type User struct {
	ID       string
	Email    string
	Name     string
	Metadata map[string]any
}
