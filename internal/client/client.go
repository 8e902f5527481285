// Package client provides a Go client for the Inkwell blog API. The
// CLI commands and the integration tests both drive the server with it.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Post mirrors the server's post record.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Likes     int       `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// postEnvelope is how the API wraps every post it returns.
type postEnvelope struct {
	Post        Post    `json:"post"`
	ImageBase64 *string `json:"imageBase64"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new user at the identity provider via the API.
func (c *Client) Register(email, password, name string) error {
	q := url.Values{"email": {email}, "password": {password}, "name": {name}}
	resp, err := c.HTTPClient.Post(c.BaseURL+"/api/auth/register?"+q.Encode(), "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("register", resp)
	}
	return nil
}

// Login verifies credentials and stores the session token on the client.
func (c *Client) Login(email, password string) error {
	q := url.Values{"email": {email}, "password": {password}}
	resp, err := c.HTTPClient.Post(c.BaseURL+"/api/auth/login?"+q.Encode(), "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("login", resp)
	}
	var result struct {
		ID          string `json:"id"`
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	if result.AccessToken == "" {
		return errors.New("login returned no token")
	}
	c.Token = result.AccessToken
	return nil
}

// CreatePost submits a multipart create request. image may be nil.
func (c *Client) CreatePost(title, content string, image []byte, tags []string) (*Post, error) {
	return c.submitPost(http.MethodPost, "/api/blog/create", title, content, image, tags)
}

// UpdatePost replaces a post's title/content/image/tags.
func (c *Client) UpdatePost(postID, title, content string, image []byte, tags []string) (*Post, error) {
	return c.submitPost(http.MethodPut, "/api/blog/"+postID, title, content, image, tags)
}

func (c *Client) submitPost(method, path, title, content string, image []byte, tags []string) (*Post, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", title)
	_ = mw.WriteField("content", content)
	for _, tag := range tags {
		_ = mw.WriteField("tags", tag)
	}
	if len(image) > 0 {
		part, err := mw.CreateFormFile("image", "image.bin")
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(image); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(method, c.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apiError("submit post", resp)
	}

	var envelope postEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	return &envelope.Post, nil
}

// ListPosts fetches every post.
func (c *Client) ListPosts() ([]Post, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/blog/all", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list posts", resp)
	}
	var envelopes []postEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelopes); err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(envelopes))
	for _, e := range envelopes {
		posts = append(posts, e.Post)
	}
	return posts, nil
}

// GetPost fetches one post by id.
func (c *Client) GetPost(id string) (*Post, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/blog/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get post", resp)
	}
	var envelope postEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	return &envelope.Post, nil
}

// LikePost likes a post and returns the new like total.
func (c *Client) LikePost(id string) (int, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/blog/like/"+id, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, apiError("like post", resp)
	}
	var result struct {
		TotalLikes int `json:"totalLikes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	return result.TotalLikes, nil
}

// UnlikePost removes the caller's like and returns the new total.
func (c *Client) UnlikePost(id string) (int, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/blog/unlike/"+id, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, apiError("unlike post", resp)
	}
	var result struct {
		TotalLikes int `json:"totalLikes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}
	return result.TotalLikes, nil
}

// CommentPost adds a comment to a post.
func (c *Client) CommentPost(id, text string) error {
	resp, err := c.doRequest(http.MethodPost, "/api/blog/comment/"+id, map[string]string{"text": text})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("comment", resp)
	}
	return nil
}

// DeletePost deletes a post you own.
func (c *Client) DeletePost(id string) error {
	resp, err := c.doRequest(http.MethodDelete, "/api/blog/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("delete post", resp)
	}
	return nil
}

// Generate asks the server to draft post content for a title.
func (c *Client) Generate(title string) (string, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/ai-content/generate", map[string]string{"title": title})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apiError("generate", resp)
	}
	var result struct {
		GeneratedContent string `json:"generatedContent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.GeneratedContent, nil
}

// ReadPost fetches the WAV rendering of a post's content.
func (c *Client) ReadPost(id string) ([]byte, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/TextReader/read/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("read post", resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)
	return c.HTTPClient.Do(req)
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func apiError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var msg messageResponse
	if err := json.Unmarshal(body, &msg); err == nil && msg.Message != "" {
		return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, msg.Message)
	}
	return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, string(body))
}
