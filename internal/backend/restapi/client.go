// Package restapi implements the service.Service interface against the calendar REST backend.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"todocal/internal/config"
	"todocal/internal/service"
	"todocal/internal/session"
)

const (
	// RequestIDHeader carries a per-request id for backend log correlation.
	RequestIDHeader = "X-Request-ID"

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Client implements service.Service over HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	loc     *time.Location
	log     *slog.Logger
}

// New creates a client for the configured backend.
// If sess carries a token, every request is sent with it as a bearer token.
func New(ctx context.Context, cfg *config.Config, sess *session.Session) (*Client, error) {
	httpClient := &http.Client{}
	if ts := sess.TokenSource(); ts != nil {
		httpClient = oauth2.NewClient(ctx, ts)
	}
	c, err := NewWithHTTPClient(cfg.Backend(), httpClient)
	if err != nil {
		return nil, err
	}
	c.timeout = cfg.RequestTimeout()
	c.loc = cfg.Loc()
	c.log = cfg.Logger()
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url: %s", baseURL)
	}
	return &Client{
		base:    base,
		http:    httpClient,
		timeout: config.DefaultTimeout,
		loc:     time.Local,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Login checks credentials and returns the user id and bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (service.LoginResult, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, loginRequest{Username: username, Password: password}, &resp); err != nil {
		return service.LoginResult{}, err
	}

	userID := resp.UserID
	if userID == 0 && resp.Token != "" {
		userID, _ = session.UserIDFromToken(resp.Token)
	}
	if userID == 0 {
		return service.LoginResult{}, fmt.Errorf("%w: login response without user id", service.ErrMalformedResponse)
	}
	return service.LoginResult{UserID: userID, Token: resp.Token, Message: resp.Message}, nil
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, username, password, confirmPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/signup", nil, signupRequest{
		Username:        username,
		Password:        password,
		ConfirmPassword: confirmPassword,
	}, nil)
}

// FetchShares returns the pending and accepted shares addressed to userID.
func (c *Client) FetchShares(ctx context.Context, userID int64) ([]service.ShareRecord, error) {
	var raw []shareJSON
	if err := c.do(ctx, http.MethodPost, "/api/shareTodo/list", nil, userRequest{UserID: userID}, &raw); err != nil {
		return nil, err
	}
	result := make([]service.ShareRecord, 0, len(raw))
	for _, s := range raw {
		rec, err := s.toShare(c.loc)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}

// FetchTasksByIDs resolves many task ids in a single request.
// An empty id list never reaches the backend.
func (c *Client) FetchTasksByIDs(ctx context.Context, ids []int64) ([]service.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var raw []taskJSON
	if err := c.do(ctx, http.MethodPost, "/api/todos/batch", nil, batchRequest{IDs: ids}, &raw); err != nil {
		return nil, err
	}
	return c.toTasks(raw)
}

// FetchOwnTasks returns every task owned by userID.
func (c *Client) FetchOwnTasks(ctx context.Context, userID int64) ([]service.Task, error) {
	var raw []taskJSON
	if err := c.do(ctx, http.MethodPost, "/api/todos", nil, userRequest{UserID: userID}, &raw); err != nil {
		return nil, err
	}
	return c.toTasks(raw)
}

// FetchTask returns a single task by id.
func (c *Client) FetchTask(ctx context.Context, id int64) (service.Task, error) {
	var raw taskJSON
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &raw); err != nil {
		return service.Task{}, err
	}
	return raw.toTask(c.loc)
}

// CreateTask creates a task owned by ownerID.
func (c *Client) CreateTask(ctx context.Context, ownerID int64, draft service.TaskDraft) (service.Task, error) {
	var raw taskJSON
	err := c.do(ctx, http.MethodPost, "/api/create", nil, createTaskRequest{
		UserID:      ownerID,
		Title:       draft.Title,
		Description: draft.Description,
		StartDate:   formatTimestamp(draft.Start),
		EndDate:     formatTimestamp(draft.End),
		ImagePath:   draft.ImagePath,
	}, &raw)
	if err != nil {
		return service.Task{}, err
	}
	return raw.toTask(c.loc)
}

// UpdateTask replaces the mutable fields of an existing task.
func (c *Client) UpdateTask(ctx context.Context, task service.Task) error {
	return c.do(ctx, http.MethodPut, taskPath(task.ID), nil, fromTask(task), nil)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

// RespondToShare moves a pending share to Accepted or Rejected.
func (c *Client) RespondToShare(ctx context.Context, shareID int64, decision service.ShareStatus) error {
	var path string
	switch decision {
	case service.StatusAccepted:
		path = "/api/shareTodo/accept"
	case service.StatusRejected:
		path = "/api/shareTodo/reject"
	default:
		return fmt.Errorf("%w: %s", service.ErrInvalidDecision, decision)
	}
	return c.do(ctx, http.MethodPost, path, nil, respondRequest{ShareTodoID: shareID}, nil)
}

// CreateShare invites sharedWithID to taskID.
func (c *Client) CreateShare(ctx context.Context, taskID, sharedWithID int64) error {
	return c.do(ctx, http.MethodPost, "/api/shareTodo/create", nil, createShareRequest{
		TaskID:    taskID,
		ShareWith: sharedWithID,
	}, nil)
}

// FetchUser returns a user profile.
func (c *Client) FetchUser(ctx context.Context, id int64) (service.User, error) {
	var raw userJSON
	if err := c.do(ctx, http.MethodGet, "/api/users/"+strconv.FormatInt(id, 10), nil, nil, &raw); err != nil {
		return service.User{}, err
	}
	return service.User{ID: raw.ID, Username: raw.Username}, nil
}

// SearchUsers returns users whose name contains query.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]service.User, error) {
	var raw []userJSON
	q := url.Values{}
	q.Set("search", query)
	if err := c.do(ctx, http.MethodGet, "/api/users", q, nil, &raw); err != nil {
		return nil, err
	}
	users := make([]service.User, 0, len(raw))
	for _, u := range raw {
		users = append(users, service.User{ID: u.ID, Username: u.Username})
	}
	return users, nil
}

func (c *Client) toTasks(raw []taskJSON) ([]service.Task, error) {
	tasks := make([]service.Task, 0, len(raw))
	for _, r := range raw {
		t, err := r.toTask(c.loc)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func taskPath(id int64) string {
	return "/api/todos/" + strconv.FormatInt(id, 10)
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("backend request", "method", method, "path", u.Path, "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return wrapError(err)
	}

	c.log.Debug("backend response", "status", resp.StatusCode, "request_id", requestID, "bytes", len(data))

	if resp.StatusCode >= 300 {
		return rejection(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", service.ErrMalformedResponse, method, path, err)
	}
	return nil
}

// rejection builds a RejectionError from a non-success response.
func rejection(status int, body []byte) error {
	var payload errorResponse
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Error
		if msg == "" {
			msg = payload.Message
		}
	}
	return &service.RejectionError{StatusCode: status, Message: msg}
}

// wrapError classifies transport errors as network failures with user-friendly messages.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", service.ErrNetwork)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: request cancelled", service.ErrNetwork)
	}
	return fmt.Errorf("%w: %v", service.ErrNetwork, err)
}
