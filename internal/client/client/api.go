package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/taskdesk/internal/client/models"
)

// LoginResult is the response to a successful login.
type LoginResult struct {
	Token string           `json:"token"`
	User  models.Principal `json:"user"`
}

// TaskListResult is one server page of the caller's tasks.
type TaskListResult struct {
	Tasks      []models.Task
	Page       int
	TotalPages int
}

// AuthAPI covers the authentication endpoints.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Register(ctx context.Context, name, email, password string) (models.Principal, error)
	Me(ctx context.Context) (models.Principal, error)
}

// TaskAPI covers the caller's own tasks.
type TaskAPI interface {
	ListTasks(ctx context.Context, page, limit int, search string) (TaskListResult, error)
	CreateTask(ctx context.Context, draft models.TaskDraft) (models.Task, error)
	UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// AdminAPI covers the admin-only endpoints.
type AdminAPI interface {
	ListUsers(ctx context.Context) ([]models.Principal, error)
	PromoteUser(ctx context.Context, id string) error
	DemoteUser(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
	UserTasks(ctx context.Context, userID string) ([]models.Task, error)
	AllTasks(ctx context.Context) ([]models.Task, error)
	AdminUpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)
}

// Client is the full API contract used by the session and services layers.
type Client interface {
	AuthAPI
	TaskAPI
	AdminAPI
}

// HTTPClient implements Client over a Gateway.
type HTTPClient struct {
	gw *Gateway
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(gw *Gateway) *HTTPClient {
	return &HTTPClient{gw: gw}
}

// Gateway returns the underlying gateway.
func (c *HTTPClient) Gateway() *Gateway {
	return c.gw
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var res LoginResult
	data, err := c.gw.Do(withoutCredential(ctx), http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return res, asCredentialsError(err, "Invalid credentials")
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("%w: decode login: %v", ErrUnavailable, err)
	}
	if res.Token == "" {
		return res, fmt.Errorf("%w: login response has no token", ErrUnavailable)
	}
	return res, nil
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (models.Principal, error) {
	var p models.Principal
	data, err := c.gw.Do(withoutCredential(ctx), http.MethodPost, "/auth/register", nil, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return p, asCredentialsError(err, "Registration failed")
	}
	if err := decodeEnveloped(data, "user", &p); err != nil {
		return p, fmt.Errorf("%w: decode register: %v", ErrUnavailable, err)
	}
	return p, nil
}

func (c *HTTPClient) Me(ctx context.Context) (models.Principal, error) {
	var p models.Principal
	data, err := c.gw.Do(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return p, err
	}
	if err := decodeEnveloped(data, "user", &p); err != nil {
		return p, fmt.Errorf("%w: decode me: %v", ErrUnavailable, err)
	}
	return p, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, page, limit int, search string) (TaskListResult, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if search != "" {
		q.Set("search", search)
	}

	data, err := c.gw.Do(ctx, http.MethodGet, "/tasks", q, nil)
	if err != nil {
		return TaskListResult{}, err
	}

	var raw struct {
		Tasks       []models.Task `json:"tasks"`
		Page        int           `json:"page"`
		CurrentPage int           `json:"currentPage"`
		TotalPages  int           `json:"totalPages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return TaskListResult{}, fmt.Errorf("%w: decode tasks: %v", ErrUnavailable, err)
	}

	for i := range raw.Tasks {
		raw.Tasks[i].Normalize()
	}
	res := TaskListResult{Tasks: raw.Tasks, Page: raw.Page, TotalPages: raw.TotalPages}
	if res.Page == 0 {
		res.Page = raw.CurrentPage
	}
	if res.Page == 0 {
		res.Page = page
	}
	return res, nil
}

func (c *HTTPClient) CreateTask(ctx context.Context, draft models.TaskDraft) (models.Task, error) {
	data, err := c.gw.Do(ctx, http.MethodPost, "/tasks", nil, draft)
	if err != nil {
		return models.Task{}, err
	}
	return decodeTask(data, "create task")
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	data, err := c.gw.Do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return models.Task{}, err
	}
	return decodeTask(data, "update task")
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id string) error {
	_, err := c.gw.Do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.Principal, error) {
	data, err := c.gw.Do(ctx, http.MethodGet, "/admin/users", nil, nil)
	if err != nil {
		return nil, err
	}
	var users []models.Principal
	if err := decodeEnveloped(data, "users", &users); err != nil {
		return nil, fmt.Errorf("%w: decode users: %v", ErrUnavailable, err)
	}
	return users, nil
}

func (c *HTTPClient) PromoteUser(ctx context.Context, id string) error {
	_, err := c.gw.Do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id)+"/promote", nil, nil)
	return err
}

func (c *HTTPClient) DemoteUser(ctx context.Context, id string) error {
	_, err := c.gw.Do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id)+"/demote", nil, nil)
	return err
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id string) error {
	_, err := c.gw.Do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *HTTPClient) UserTasks(ctx context.Context, userID string) ([]models.Task, error) {
	data, err := c.gw.Do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(userID)+"/tasks", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeTasks(data, "user tasks")
}

func (c *HTTPClient) AllTasks(ctx context.Context) ([]models.Task, error) {
	data, err := c.gw.Do(ctx, http.MethodGet, "/admin/tasks", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeTasks(data, "all tasks")
}

func (c *HTTPClient) AdminUpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	data, err := c.gw.Do(ctx, http.MethodPut, "/admin/tasks/"+url.PathEscape(id), nil, patch)
	if err != nil {
		return models.Task{}, err
	}
	return decodeTask(data, "admin update task")
}

func decodeTask(data []byte, what string) (models.Task, error) {
	var t models.Task
	if err := decodeEnveloped(data, "task", &t); err != nil {
		return t, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, what, err)
	}
	t.Normalize()
	return t, nil
}

func decodeTasks(data []byte, what string) ([]models.Task, error) {
	var tasks []models.Task
	if err := decodeEnveloped(data, "tasks", &tasks); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, what, err)
	}
	for i := range tasks {
		tasks[i].Normalize()
	}
	return tasks, nil
}

// decodeEnveloped decodes data into out, unwrapping {"<key>": ...} when the
// body is an object carrying that key. The API is inconsistent about
// wrapping collection and record responses.
func decodeEnveloped(data []byte, key string, out any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty body")
	}
	if trimmed[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		if inner, ok := obj[key]; ok && !bytes.Equal(bytes.TrimSpace(inner), []byte("null")) {
			return json.Unmarshal(inner, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}
