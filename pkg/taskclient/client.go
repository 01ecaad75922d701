// Package taskclient is the programmatic consumer of the task API: a thin
// HTTP client plus a Store that mirrors the server's task list and manages
// the optimistic completion flow.
package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
)

type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the bearer credential used on every authenticated call.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// CreateTaskRequest is the create payload; zero-valued enums take the server
// defaults (pending / medium).
type CreateTaskRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Status      models.TaskStatus   `json:"status,omitempty"`
	Priority    models.TaskPriority `json:"priority,omitempty"`
}

type authEnvelope struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type userEnvelope struct {
	User models.User `json:"user"`
}

type taskEnvelope struct {
	Task models.Task `json:"task"`
}

type tasksEnvelope struct {
	Tasks []models.Task `json:"tasks"`
}

type apiError struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// Login authenticates and remembers the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out authEnvelope
	err := c.do(ctx, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out.User, nil
}

// Register creates an account and remembers the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	var out authEnvelope
	err := c.do(ctx, http.MethodPost, "/auth/register",
		map[string]string{"name": name, "email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out.User, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name, email string) (*models.User, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPut, "/user/profile",
		map[string]string{"name": name, "email": email}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Status != nil {
		q.Set("status", string(*filter.Status))
	}
	if filter.Priority != nil {
		q.Set("priority", string(*filter.Priority))
	}
	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out tasksEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	var out taskEnvelope
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, upd models.TaskUpdate) (*models.Task, error) {
	var out taskEnvelope
	if err := c.do(ctx, http.MethodPut, "/tasks/"+strconv.FormatInt(id, 10), upd, &out); err != nil {
		return nil, err
	}
	return &out.Task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError maps the wire error back onto the shared taxonomy.
func decodeError(resp *http.Response) error {
	var body apiError
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, apperrors.ErrUnauthenticated)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, apperrors.ErrNotFound)
	case http.StatusBadRequest:
		return apperrors.Validation(body.Field, msg)
	default:
		return fmt.Errorf("server error: %s", msg)
	}
}
