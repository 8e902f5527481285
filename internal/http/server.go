package httpapp

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/inkwellhq/inkwell/internal/aicontent"
	"github.com/inkwellhq/inkwell/internal/blog"
	"github.com/inkwellhq/inkwell/internal/config"
	"github.com/inkwellhq/inkwell/internal/identity"
	"github.com/inkwellhq/inkwell/internal/model"
	"github.com/inkwellhq/inkwell/internal/rate"
	"github.com/inkwellhq/inkwell/internal/speech"
	"github.com/inkwellhq/inkwell/internal/token"

	_ "github.com/inkwellhq/inkwell/docs" // swagger docs

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// maxImageBytes bounds the multipart form, image included.
const maxImageBytes = 16 << 20

type Server struct {
	blog    *blog.Service
	tokens  *token.Service
	idp     *identity.Client
	ai      *aicontent.Client
	reader  *speech.Reader
	limiter rate.Limiter
	cfg     config.Config
}

func NewServer(blogSvc *blog.Service, tokens *token.Service, idp *identity.Client, ai *aicontent.Client, reader *speech.Reader, limiter rate.Limiter, cfg config.Config) *Server {
	return &Server{
		blog:    blogSvc,
		tokens:  tokens,
		idp:     idp,
		ai:      ai,
		reader:  reader,
		limiter: limiter,
		cfg:     cfg,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	allowCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/swagger/") {
		httpSwagger.WrapHandler.ServeHTTP(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.handleAPI(w, r)
		return
	}
	notFound(w)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	segments := splitPath(path)

	switch {
	case len(segments) == 2 && segments[0] == "auth":
		s.handleAuth(w, r, segments[1])
		return
	case len(segments) == 2 && segments[0] == "ai-content" && segments[1] == "generate":
		if r.Method == http.MethodPost {
			s.handleGenerateContent(w, r)
			return
		}
	case len(segments) == 3 && segments[0] == "TextReader" && segments[1] == "read":
		if r.Method == http.MethodGet {
			s.handleReadPost(w, r, segments[2])
			return
		}
	case len(segments) >= 2 && segments[0] == "blog":
		s.handleBlog(w, r, segments[1:])
		return
	case len(segments) == 1 && segments[0] == "openapi.json":
		if r.Method == http.MethodGet {
			s.serveOpenAPIJSON(w, r)
			return
		}
	}

	notFound(w)
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request, action string) {
	switch action {
	case "login":
		if r.Method == http.MethodPost {
			s.handleLogin(w, r)
			return
		}
	case "register":
		if r.Method == http.MethodPost {
			s.handleRegister(w, r)
			return
		}
	case "logout":
		if r.Method == http.MethodPost {
			s.handleLogout(w, r)
			return
		}
	case "check":
		if r.Method == http.MethodGet {
			s.handleCheckAuth(w, r)
			return
		}
	case "forgot-password":
		if r.Method == http.MethodPost {
			s.handleForgotPassword(w, r)
			return
		}
	case "reset-password":
		if r.Method == http.MethodPost {
			s.handleResetPassword(w, r)
			return
		}
	default:
		notFound(w)
		return
	}
	methodNotAllowed(w)
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request, segments []string) {
	switch {
	case len(segments) == 1 && segments[0] == "create":
		if r.Method == http.MethodPost {
			s.handleCreatePost(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "all":
		if r.Method == http.MethodGet {
			s.handleListPosts(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "user":
		if r.Method == http.MethodGet {
			s.handleListUserPosts(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "like":
		if r.Method == http.MethodPost {
			s.handleLikePost(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "unlike":
		if r.Method == http.MethodPost {
			s.handleUnlikePost(w, r, segments[1])
			return
		}
	case len(segments) == 2 && segments[0] == "comment":
		if r.Method == http.MethodPost {
			s.handleAddComment(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[1] == "comment":
		if r.Method == http.MethodDelete {
			s.handleDeleteComment(w, r, segments[0], segments[2])
			return
		}
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			s.handleGetPost(w, r, segments[0])
			return
		case http.MethodPut:
			s.handleUpdatePost(w, r, segments[0])
			return
		case http.MethodDelete:
			s.handleDeletePost(w, r, segments[0])
			return
		}
	default:
		notFound(w)
		return
	}
	methodNotAllowed(w)
}

// ============================================================================
// AUTH
// ============================================================================

// handleLogin godoc
//
//	@Summary		Log in
//	@Description	Delegates credential verification to the identity provider and returns a signed session token.
//	@Tags			Auth
//	@Produce		json
//	@Param			email		query		string	true	"Email"
//	@Param			password	query		string	true	"Password"
//	@Success		200			{object}	map[string]interface{}	"id, email, accessToken, metadata"
//	@Failure		400			{object}	map[string]string
//	@Failure		401			{object}	map[string]string
//	@Router			/api/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	password := r.URL.Query().Get("password")
	if email == "" || password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := s.idp.SignIn(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Login failed: %v", err))
		return
	}

	accessToken, err := s.tokens.Issue(user.ID, user.Email, user.Name, user.Metadata)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Login failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          user.ID,
		"email":       user.Email,
		"accessToken": accessToken,
		"metadata":    user.Metadata,
	})
}

// handleRegister godoc
//
//	@Summary	Register a new user
//	@Tags		Auth
//	@Produce	json
//	@Param		email		query		string	true	"Email"
//	@Param		password	query		string	true	"Password"
//	@Param		name		query		string	false	"Display name"
//	@Success	200			{object}	map[string]string
//	@Failure	400			{object}	map[string]string
//	@Router		/api/auth/register [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	password := r.URL.Query().Get("password")
	name := r.URL.Query().Get("name")
	if email == "" || password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if _, err := s.idp.SignUp(r.Context(), email, password, name); err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Registration failed: %v", err))
		return
	}
	writeMessage(w, http.StatusOK, "User registered successfully. Please log in.")
}

// handleLogout godoc
//
//	@Summary	Log out
//	@Tags		Auth
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/api/auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.idp.SignOut(r.Context(), bearerToken(r)); err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Logout failed: %v", err))
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// handleCheckAuth godoc
//
//	@Summary		Check a session token
//	@Description	Validates the token passed as a query parameter and returns its identity claims.
//	@Tags			Auth
//	@Produce		json
//	@Param			accessToken	query		string	true	"Session token"
//	@Success		200			{object}	map[string]string	"id, email"
//	@Failure		401			{object}	map[string]string
//	@Router			/api/auth/check [get]
func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	accessToken := r.URL.Query().Get("accessToken")
	if accessToken == "" {
		writeMessage(w, http.StatusUnauthorized, "No access token provided")
		return
	}
	claims, err := s.tokens.Validate(accessToken)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    claims.UserID,
		"email": claims.Email,
	})
}

// handleForgotPassword godoc
//
//	@Summary	Request a password-reset email
//	@Tags		Auth
//	@Produce	json
//	@Param		email	query		string	true	"Email"
//	@Success	200		{object}	map[string]string
//	@Failure	400		{object}	map[string]string
//	@Router		/api/auth/forgot-password [post]
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeMessage(w, http.StatusBadRequest, "Email is required")
		return
	}
	if err := s.idp.Recover(r.Context(), email); err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Password reset request failed: %v", err))
		return
	}
	writeMessage(w, http.StatusOK, "Password reset email sent. Please check your inbox.")
}

// handleResetPassword godoc
//
//	@Summary	Set a new password with a reset token
//	@Tags		Auth
//	@Produce	json
//	@Param		accessToken		query		string	true	"Reset token from the email link"
//	@Param		newPassword		query		string	true	"New password"
//	@Param		confirmPassword	query		string	true	"Confirmation"
//	@Success	200				{object}	map[string]string
//	@Failure	400				{object}	map[string]string
//	@Router		/api/auth/reset-password [post]
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accessToken := q.Get("accessToken")
	newPassword := q.Get("newPassword")
	confirmPassword := q.Get("confirmPassword")

	if accessToken == "" {
		writeMessage(w, http.StatusBadRequest, "Reset token is required")
		return
	}
	if newPassword == "" || confirmPassword == "" {
		writeMessage(w, http.StatusBadRequest, "New password and confirmation are required")
		return
	}
	if newPassword != confirmPassword {
		writeMessage(w, http.StatusBadRequest, "Passwords do not match")
		return
	}

	if err := s.idp.UpdatePassword(r.Context(), accessToken, newPassword); err != nil {
		writeMessage(w, http.StatusBadRequest, "Failed to reset password.")
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successfully. Please log in with your new password.")
}

// ============================================================================
// AI CONTENT
// ============================================================================

// handleGenerateContent godoc
//
//	@Summary		Generate post content from a title
//	@Description	Proxies a single request to the generative-text API. Requires authentication.
//	@Tags			AI
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		object{title=string}	true	"Title to write about"
//	@Success		200		{object}	map[string]string		"title, generatedContent"
//	@Failure		400		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/api/ai-content/generate [post]
func (s *Server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAuth(w, r); !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeMessage(w, http.StatusBadRequest, "Title is required.")
		return
	}

	generated, err := s.ai.Generate(r.Context(), req.Title)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("Error generating content: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":            req.Title,
		"generatedContent": generated,
	})
}

// ============================================================================
// BLOG
// ============================================================================

// handleCreatePost godoc
//
//	@Summary	Create a post
//	@Tags		Blog
//	@Accept		mpfd
//	@Produce	json
//	@Security	BearerAuth
//	@Param		title	formData	string	true	"Title"
//	@Param		content	formData	string	true	"HTML content"
//	@Param		image	formData	file	false	"Cover image"
//	@Param		tags	formData	string	false	"Comma-separated tags (repeatable)"
//	@Success	201		{object}	map[string]interface{}	"post, imageBase64"
//	@Failure	400		{object}	map[string]string
//	@Router		/api/blog/create [post]
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.requireAuthWithName(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, "post", claims.UserID, s.cfg.RateLimits.PostPerMinute) {
		return
	}

	form, err := parsePostForm(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := s.blog.Create(r.Context(), claims.UserID, claims.Name, form.title, form.content, form.image, form.tags)
	if err != nil {
		s.writeBlogError(w, err, "Error creating post")
		return
	}
	writeJSON(w, http.StatusCreated, postPayload(post))
}

// handleUpdatePost godoc
//
//	@Summary		Update a post
//	@Description	Replaces title, content, image, and tags. Owner only; likes, comments, and createdAt are untouched.
//	@Tags			Blog
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			postId	path		string	true	"Post ID"
//	@Param			title	formData	string	true	"Title"
//	@Param			content	formData	string	true	"HTML content"
//	@Param			image	formData	file	false	"Cover image"
//	@Param			tags	formData	string	false	"Comma-separated tags (repeatable)"
//	@Success		200		{object}	map[string]interface{}	"post, imageBase64"
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/api/blog/{postId} [put]
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request, postID string) {
	claims, ok := s.requireAuthWithName(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, "post", claims.UserID, s.cfg.RateLimits.PostPerMinute) {
		return
	}

	form, err := parsePostForm(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := s.blog.Update(r.Context(), postID, claims.UserID, claims.Name, form.title, form.content, form.image, form.tags)
	if err != nil {
		s.writeBlogError(w, err, "Error updating post")
		return
	}
	writeJSON(w, http.StatusOK, postPayload(post))
}

// handleListPosts godoc
//
//	@Summary	List all posts
//	@Tags		Blog
//	@Produce	json
//	@Success	200	{array}	map[string]interface{}	"post, imageBase64 per item"
//	@Router		/api/blog/all [get]
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.ListAll(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, postListPayload(posts))
}

// handleGetPost godoc
//
//	@Summary	Get a post
//	@Tags		Blog
//	@Produce	json
//	@Param		postId	path		string	true	"Post ID"
//	@Success	200		{object}	map[string]interface{}	"post, imageBase64"
//	@Failure	404		{object}	map[string]string
//	@Router		/api/blog/{postId} [get]
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request, postID string) {
	post, err := s.blog.GetByID(r.Context(), postID)
	if err != nil {
		s.writeBlogError(w, err, "Error loading post")
		return
	}
	writeJSON(w, http.StatusOK, postPayload(post))
}

// handleListUserPosts godoc
//
//	@Summary	List a user's posts
//	@Tags		Blog
//	@Produce	json
//	@Param		userId	path	string	true	"User ID"
//	@Success	200		{array}	map[string]interface{}	"post, imageBase64 per item"
//	@Router		/api/blog/user/{userId} [get]
func (s *Server) handleListUserPosts(w http.ResponseWriter, r *http.Request, userID string) {
	posts, err := s.blog.ListByUser(r.Context(), userID)
	if err != nil {
		s.writeBlogError(w, err, "Error loading posts")
		return
	}
	writeJSON(w, http.StatusOK, postListPayload(posts))
}

// handleLikePost godoc
//
//	@Summary		Like a post
//	@Description	At most one like per user per post; a second like is rejected.
//	@Tags			Blog
//	@Produce		json
//	@Security		BearerAuth
//	@Param			postId	path		string	true	"Post ID"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	map[string]string	"Already liked"
//	@Failure		404		{object}	map[string]string
//	@Router			/api/blog/like/{postId} [post]
func (s *Server) handleLikePost(w http.ResponseWriter, r *http.Request, postID string) {
	claims, ok := s.requireAuthWithName(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, "like", claims.UserID, s.cfg.RateLimits.LikePerMinute) {
		return
	}

	if err := s.blog.Like(r.Context(), postID, claims.UserID, claims.Name); err != nil {
		s.writeBlogError(w, err, "Error liking post")
		return
	}

	post, err := s.blog.GetByID(r.Context(), postID)
	if err != nil {
		s.writeBlogError(w, err, "Error loading post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Post liked successfully",
		"likedBy":    claims.Name,
		"totalLikes": post.Likes,
		"likers":     post.LikedBy,
	})
}

// handleUnlikePost godoc
//
//	@Summary	Remove a like
//	@Tags		Blog
//	@Produce	json
//	@Security	BearerAuth
//	@Param		postId	path		string	true	"Post ID"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400		{object}	map[string]string	"Not liked"
//	@Failure	404		{object}	map[string]string
//	@Router		/api/blog/unlike/{postId} [post]
func (s *Server) handleUnlikePost(w http.ResponseWriter, r *http.Request, postID string) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, "like", claims.UserID, s.cfg.RateLimits.LikePerMinute) {
		return
	}

	if err := s.blog.Unlike(r.Context(), postID, claims.UserID); err != nil {
		s.writeBlogError(w, err, "Error unliking post")
		return
	}

	post, err := s.blog.GetByID(r.Context(), postID)
	if err != nil {
		s.writeBlogError(w, err, "Error loading post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Post unliked successfully",
		"totalLikes": post.Likes,
	})
}

// handleAddComment godoc
//
//	@Summary	Comment on a post
//	@Tags		Blog
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		postId	path		string				true	"Post ID"
//	@Param		body	body		object{text=string}	true	"Comment text"
//	@Success	200		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/blog/comment/{postId} [post]
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request, postID string) {
	claims, ok := s.requireAuthWithName(w, r)
	if !ok {
		return
	}
	if !s.allowRateLimit(w, r, "comment", claims.UserID, s.cfg.RateLimits.CommentPerMinute) {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeMessage(w, http.StatusBadRequest, "Comment text is required.")
		return
	}

	comment, err := s.blog.AddComment(r.Context(), postID, claims.UserID, claims.Name, req.Text)
	if err != nil {
		s.writeBlogError(w, err, "Error adding comment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Comment added successfully",
		"commenter":   comment.UserName,
		"commentText": comment.Text,
	})
}

// handleDeleteComment godoc
//
//	@Summary		Delete a comment
//	@Description	Author only.
//	@Tags			Blog
//	@Produce		json
//	@Security		BearerAuth
//	@Param			postId		path		string	true	"Post ID"
//	@Param			commentId	path		string	true	"Comment ID"
//	@Success		200			{object}	map[string]string
//	@Failure		403			{object}	map[string]string
//	@Failure		404			{object}	map[string]string
//	@Router			/api/blog/{postId}/comment/{commentId} [delete]
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, postID, commentID string) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if err := s.blog.DeleteComment(r.Context(), postID, commentID, claims.UserID); err != nil {
		s.writeBlogError(w, err, "Error deleting comment")
		return
	}
	writeMessage(w, http.StatusOK, "Comment deleted successfully")
}

// handleDeletePost godoc
//
//	@Summary		Delete a post
//	@Description	Owner only.
//	@Tags			Blog
//	@Produce		json
//	@Security		BearerAuth
//	@Param			postId	path		string	true	"Post ID"
//	@Success		200		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Router			/api/blog/{postId} [delete]
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, postID string) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if err := s.blog.Delete(r.Context(), postID, claims.UserID); err != nil {
		s.writeBlogError(w, err, "Error deleting post")
		return
	}
	writeMessage(w, http.StatusOK, "Post deleted successfully")
}

// ============================================================================
// TEXT READER
// ============================================================================

// handleReadPost godoc
//
//	@Summary		Read a post aloud
//	@Description	Synthesizes the post's content to speech and streams it back as WAV audio.
//	@Tags			TextReader
//	@Produce		audio/wav
//	@Param			postId	path		string	true	"Post ID"
//	@Success		200		{file}		binary
//	@Failure		404		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/api/TextReader/read/{postId} [get]
func (s *Server) handleReadPost(w http.ResponseWriter, r *http.Request, postID string) {
	audio, err := s.reader.ReadPost(r.Context(), postID)
	if err != nil {
		switch {
		case errors.Is(err, blog.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, speech.ErrEmptyContent):
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("An error occurred: %v", err))
		}
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=post-%s-audio.wav", postID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// ============================================================================
// HELPERS
// ============================================================================

// writeBlogError maps service errors onto the three response classes:
// 400/404 for client errors, 403 for authorization, 500 otherwise.
func (s *Server) writeBlogError(w http.ResponseWriter, err error, context string) {
	var vErr *blog.ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, blog.ErrAlreadyLiked), errors.Is(err, blog.ErrNotLiked):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, blog.ErrNotFound), errors.Is(err, blog.ErrCommentNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, blog.ErrNotOwner), errors.Is(err, blog.ErrNotAuthor):
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", context, err))
	}
}

func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (token.Claims, bool) {
	bearer := bearerToken(r)
	if bearer == "" {
		writeMessage(w, http.StatusUnauthorized, "Missing bearer token")
		return token.Claims{}, false
	}
	claims, err := s.tokens.Validate(bearer)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
		return token.Claims{}, false
	}
	return claims, true
}

// requireAuthWithName additionally insists on a display name claim,
// which create/like/comment need for attribution.
func (s *Server) requireAuthWithName(w http.ResponseWriter, r *http.Request) (token.Claims, bool) {
	claims, ok := s.requireAuth(w, r)
	if !ok {
		return token.Claims{}, false
	}
	if claims.UserID == "" || claims.Name == "" {
		writeMessage(w, http.StatusUnauthorized, "User ID or username is missing from token claims.")
		return token.Claims{}, false
	}
	return claims, true
}

func (s *Server) allowRateLimit(w http.ResponseWriter, r *http.Request, action, userID string, limit int) bool {
	if limit <= 0 {
		return true
	}
	ipKey := fmt.Sprintf("%s:ip:%s", action, s.clientIP(r))
	if ok, retry := s.limiter.Allow(ipKey, limit, time.Minute); !ok {
		writeRateLimit(w, retry)
		return false
	}
	if userID != "" {
		userKey := fmt.Sprintf("%s:user:%s", action, userID)
		if ok, retry := s.limiter.Allow(userKey, limit, time.Minute); !ok {
			writeRateLimit(w, retry)
			return false
		}
	}
	return true
}

func (s *Server) clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type postForm struct {
	title   string
	content string
	image   []byte
	tags    []string
}

func parsePostForm(r *http.Request) (postForm, error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return postForm{}, fmt.Errorf("invalid multipart form: %w", err)
	}
	form := postForm{
		title:   r.FormValue("title"),
		content: r.FormValue("content"),
	}
	for _, raw := range r.MultipartForm.Value["tags"] {
		form.tags = append(form.tags, splitTags(raw)...)
	}

	file, _, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		image, err := io.ReadAll(file)
		if err != nil {
			return postForm{}, fmt.Errorf("reading image: %w", err)
		}
		if len(image) > 0 {
			form.image = image
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		return postForm{}, err
	}
	return form, nil
}

func postPayload(post model.Post) map[string]any {
	var imageBase64 *string
	if len(post.ImageBytes) > 0 {
		encoded := base64.StdEncoding.EncodeToString(post.ImageBytes)
		imageBase64 = &encoded
	}
	return map[string]any{
		"post":        post,
		"imageBase64": imageBase64,
	}
}

func postListPayload(posts []model.Post) []map[string]any {
	payload := make([]map[string]any, 0, len(posts))
	for _, post := range posts {
		payload = append(payload, postPayload(post))
	}
	return payload
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitTags(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	var tags []string
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg})
}

func writeRateLimit(w http.ResponseWriter, retry time.Duration) {
	w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"message":     "rate limit exceeded",
		"retry_after": int(retry.Seconds()),
	})
}

func allowCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
}

func notFound(w http.ResponseWriter) {
	writeMessage(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter) {
	writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
