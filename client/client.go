// Package client talks to the blog API and keeps a local view of its users
// and posts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type User struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Image    string `json:"image,omitempty"`
}

type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Post struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
	Body   string `json:"body,omitempty"`
	Image  string `json:"image,omitempty"`
	UserID string `json:"userId,omitempty"`
	Author string `json:"author,omitempty"`
}

type LoginResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    PublicUser `json:"user"`
}

type DeleteUserResponse struct {
	Message     string `json:"message"`
	DeletedUser User   `json:"deletedUser"`
	Users       []User `json:"users"`
}

type DeletePostResponse struct {
	Message     string `json:"message"`
	DeletedPost Post   `json:"deletedPost"`
	Posts       []Post `json:"posts"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Login exchanges credentials for a bearer token, which the client keeps for
// later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return nil, err
	}

	c.SetToken(resp.Token)

	return &resp, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.do(ctx, http.MethodGet, "/api/users", nil, &users)

	return users, err
}

func (c *Client) FindUsersByEmail(ctx context.Context, email string) ([]User, error) {
	var users []User
	err := c.do(ctx, http.MethodGet, "/api/users?email="+url.QueryEscape(email), nil, &users)

	return users, err
}

func (c *Client) CreateUser(ctx context.Context, u User) (User, error) {
	var created User
	err := c.do(ctx, http.MethodPost, "/api/users", u, &created)

	return created, err
}

// UpdateUser sends patch as-is; fields it leaves out stay unchanged on the server.
func (c *Client) UpdateUser(ctx context.Context, id string, patch any) (User, error) {
	var updated User
	err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(id), patch, &updated)

	return updated, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) (*DeleteUserResponse, error) {
	var resp DeleteUserResponse
	if err := c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := c.do(ctx, http.MethodGet, "/api/posts", nil, &posts)

	return posts, err
}

func (c *Client) CreatePost(ctx context.Context, p Post) (Post, error) {
	var created Post
	err := c.do(ctx, http.MethodPost, "/api/posts", p, &created)

	return created, err
}

func (c *Client) UpdatePost(ctx context.Context, id string, patch any) (Post, error) {
	var updated Post
	err := c.do(ctx, http.MethodPut, "/api/posts/"+url.PathEscape(id), patch, &updated)

	return updated, err
}

func (c *Client) DeletePost(ctx context.Context, id string) (*DeletePostResponse, error) {
	var resp DeletePostResponse
	if err := c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &msg) != nil || msg.Message == "" {
			msg.Message = strings.TrimSpace(string(b))
		}
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
