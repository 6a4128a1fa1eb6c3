// Package httpapi is a domain.BoardAPI client for the board REST API.
package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/runoshun/board/internal/domain"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to a board server.
type Client struct {
	client  *http.Client
	baseURL string
}

// New creates a Client for baseURL (for example http://localhost:8000/api).
// A zero timeout leaves requests bounded only by their context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient creates a Client using hc.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

// FetchBoard returns all columns and tasks.
func (c *Client) FetchBoard(ctx context.Context) (*domain.Snapshot, error) {
	var out domain.Snapshot
	if err := c.do(ctx, http.MethodGet, "/board", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListColumns returns all columns.
func (c *Client) ListColumns(ctx context.Context) ([]domain.Column, error) {
	var out []domain.Column
	if err := c.do(ctx, http.MethodGet, "/columns", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateColumn creates a column.
func (c *Client) CreateColumn(ctx context.Context, id, title string) (*domain.Column, error) {
	var out domain.Column
	body := domain.CreateColumnRequest{ID: id, Title: title}
	if err := c.do(ctx, http.MethodPost, "/columns", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenameColumn changes a column title.
func (c *Client) RenameColumn(ctx context.Context, id, title string) (*domain.Column, error) {
	var out domain.Column
	body := domain.RenameColumnRequest{Title: title}
	if err := c.do(ctx, http.MethodPut, "/columns/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteColumn removes a column and its tasks.
func (c *Client) DeleteColumn(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/columns/"+url.PathEscape(id), nil, nil)
}

// ReorderColumns stores the column order.
func (c *Client) ReorderColumns(ctx context.Context, columns []domain.Column) error {
	return c.do(ctx, http.MethodPut, "/columns/reorder", domain.ReorderColumnsRequest{Columns: columns}, nil)
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, in domain.CreateTaskRequest) (*domain.Task, error) {
	var out domain.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTask changes a task title and description.
func (c *Client) UpdateTask(ctx context.Context, id, title, description string) (*domain.Task, error) {
	var out domain.Task
	body := domain.UpdateTaskRequest{Title: title, Description: description}
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveTask moves a task to another column.
func (c *Client) MoveTask(ctx context.Context, taskID, newColumnID string) error {
	body := domain.MoveTaskRequest{TaskID: taskID, NewColumnID: newColumnID}
	return c.do(ctx, http.MethodPut, "/tasks/move", body, nil)
}

// ReorderTasks stores the order of the given tasks.
func (c *Client) ReorderTasks(ctx context.Context, tasks []domain.Task) error {
	return c.do(ctx, http.MethodPut, "/tasks/reorder", domain.ReorderTasksRequest{Tasks: tasks}, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// do sends a JSON request and decodes a 2xx response into out.
// Network failures and 5xx responses wrap domain.ErrTransport; 4xx responses
// carrying a known error code wrap the matching domain sentinel.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return responseError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", domain.ErrTransport, method, path, err)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func responseError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e domain.ErrorResponse
	if err := sonic.Unmarshal(data, &e); err != nil || e.Error == "" {
		e.Error = strings.TrimSpace(string(data))
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s %s: %d %s", domain.ErrTransport, method, path, resp.StatusCode, e.Error)
	}
	if sentinel := domain.ErrorForCode(e.Code); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, e.Error)
	}
	return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, e.Error)
}

var _ domain.BoardAPI = (*Client)(nil)
