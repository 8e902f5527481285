// Package identity is a thin client for the external auth service that
// owns sign-in, sign-up, and password-reset state. The service speaks a
// GoTrue-compatible REST API and is treated as an opaque remote; none
// of its state machine lives here.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/inkwellhq/inkwell/internal/model"
)

var (
	// ErrInvalidCredentials is a rejected login, as opposed to the
	// provider being unreachable or broken.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUpstream           = errors.New("identity provider error")
)

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
	}
}

type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u userPayload) toUser() model.User {
	name := ""
	if v, ok := u.UserMetadata["name"].(string); ok && v != "" {
		name = v
	} else if v, ok := u.UserMetadata["display_name"].(string); ok {
		name = v
	}
	return model.User{
		ID:       u.ID,
		Email:    u.Email,
		Name:     name,
		Metadata: u.UserMetadata,
	}
}

// SignIn exchanges email/password for the provider's user record.
func (c *Client) SignIn(ctx context.Context, email, password string) (model.User, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		return model.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return model.User{}, ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return model.User{}, upstreamError(resp)
	}

	var result struct {
		User userPayload `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if result.User.ID == "" {
		return model.User{}, ErrInvalidCredentials
	}
	return result.User.toUser(), nil
}

// SignUp registers a new user, storing the display name in the
// provider's user metadata under both keys it is read back from.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (model.User, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"name":         name,
			"display_name": name,
		},
	}
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body)
	if err != nil {
		return model.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.User{}, upstreamError(resp)
	}

	var user userPayload
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if user.ID == "" {
		return model.User{}, fmt.Errorf("%w: signup returned no user", ErrUpstream)
	}
	return user.toUser(), nil
}

// SignOut invalidates the provider-side session, if any.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return upstreamError(resp)
	}
	return nil
}

// Recover asks the provider to send a password-reset email.
func (c *Client) Recover(ctx context.Context, email string) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/recover", "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return upstreamError(resp)
	}
	return nil
}

// UpdatePassword sets a new password using the reset token the provider
// mailed to the user.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	resp, err := c.do(ctx, http.MethodPut, "/auth/v1/user", accessToken, map[string]string{"password": newPassword})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return upstreamError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return resp, nil
}

func upstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("%w: %s", ErrUpstream, msg)
}
