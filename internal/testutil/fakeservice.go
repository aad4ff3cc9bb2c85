// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"todocal/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It enforces the same share rules as the real backend.
type FakeService struct {
	mu        sync.RWMutex
	users     map[int64]service.User
	passwords map[string]string
	tasks     map[int64]service.Task
	shares    []service.ShareRecord
	nextTask  int64
	nextShare int64
	calls     map[string]int

	// Error injection for testing
	LoginErr           error
	FetchSharesErr     error
	FetchTasksByIDsErr error
	FetchOwnTasksErr   error
	FetchTaskErr       error
	CreateTaskErr      error
	UpdateTaskErr      error
	DeleteTaskErr      error
	RespondErr         error
	CreateShareErr     error

	// RespondHook runs inside RespondToShare before the share is updated.
	RespondHook func()
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users:     make(map[int64]service.User),
		passwords: make(map[string]string),
		tasks:     make(map[int64]service.Task),
		nextTask:  100,
		nextShare: 500,
		calls:     make(map[string]int),
	}
}

// AddUser registers a user with a password.
func (f *FakeService) AddUser(id int64, username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = service.User{ID: id, Username: username}
	f.passwords[username] = password
}

// AddTask stores a task as-is (its ID must be set).
func (f *FakeService) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
}

// AddShare stores a share record as-is and returns it.
func (f *FakeService) AddShare(taskID, sharedWithID int64, status service.ShareStatus) service.ShareRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextShare++
	rec := service.ShareRecord{ID: f.nextShare, TaskID: taskID, SharedWithID: sharedWithID, Status: status}
	f.shares = append(f.shares, rec)
	return rec
}

// Share returns a share record by id.
func (f *FakeService) Share(id int64) (service.ShareRecord, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.shares {
		if s.ID == id {
			return s, true
		}
	}
	return service.ShareRecord{}, false
}

// Task returns a stored task by id.
func (f *FakeService) Task(id int64) (service.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	return t, ok
}

// Calls returns how many times the named method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, username, password string) (service.LoginResult, error) {
	f.record("Login")
	if f.LoginErr != nil {
		return service.LoginResult{}, f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if pw, ok := f.passwords[username]; !ok || pw != password {
		return service.LoginResult{}, &service.RejectionError{StatusCode: http.StatusUnauthorized, Message: "Incorrect username or password"}
	}
	for _, u := range f.users {
		if u.Username == username {
			return service.LoginResult{UserID: u.ID, Token: TokenFor(u.ID), Message: "login successful"}, nil
		}
	}
	return service.LoginResult{}, service.ErrNotFound
}

// Signup implements service.Service.
func (f *FakeService) Signup(ctx context.Context, username, password, confirmPassword string) error {
	f.record("Signup")
	f.mu.Lock()
	defer f.mu.Unlock()
	if password != confirmPassword {
		return &service.RejectionError{StatusCode: http.StatusBadRequest, Message: "Passwords do not match"}
	}
	if _, ok := f.passwords[username]; ok {
		return &service.RejectionError{StatusCode: http.StatusConflict, Message: "Username already exists."}
	}
	var id int64 = 1
	for uid := range f.users {
		if uid >= id {
			id = uid + 1
		}
	}
	f.users[id] = service.User{ID: id, Username: username}
	f.passwords[username] = password
	return nil
}

// FetchShares implements service.Service.
// Rejected shares are not returned.
func (f *FakeService) FetchShares(ctx context.Context, userID int64) ([]service.ShareRecord, error) {
	f.record("FetchShares")
	if f.FetchSharesErr != nil {
		return nil, f.FetchSharesErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []service.ShareRecord
	for _, s := range f.shares {
		if s.SharedWithID == userID && s.Status != service.StatusRejected {
			out = append(out, s)
		}
	}
	return out, nil
}

// FetchTasksByIDs implements service.Service.
func (f *FakeService) FetchTasksByIDs(ctx context.Context, ids []int64) ([]service.Task, error) {
	f.record("FetchTasksByIDs")
	if f.FetchTasksByIDsErr != nil {
		return nil, f.FetchTasksByIDsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []service.Task
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// FetchOwnTasks implements service.Service.
// Tasks are returned in id order.
func (f *FakeService) FetchOwnTasks(ctx context.Context, userID int64) ([]service.Task, error) {
	f.record("FetchOwnTasks")
	if f.FetchOwnTasksErr != nil {
		return nil, f.FetchOwnTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []service.Task
	for _, t := range f.tasks {
		if t.OwnerID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FetchTask implements service.Service.
func (f *FakeService) FetchTask(ctx context.Context, id int64) (service.Task, error) {
	f.record("FetchTask")
	if f.FetchTaskErr != nil {
		return service.Task{}, f.FetchTaskErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	if !ok {
		return service.Task{}, notFound("task not found")
	}
	return t, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, ownerID int64, draft service.TaskDraft) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTask++
	t := service.Task{
		ID:          f.nextTask,
		OwnerID:     ownerID,
		Title:       draft.Title,
		Description: draft.Description,
		Start:       draft.Start,
		End:         draft.End,
		ImagePath:   draft.ImagePath,
	}
	f.tasks[t.ID] = t
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, task service.Task) error {
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.tasks[task.ID]
	if !ok {
		return notFound("task not found")
	}
	task.OwnerID = old.OwnerID
	f.tasks[task.ID] = task
	return nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return notFound("task not found")
	}
	delete(f.tasks, id)
	return nil
}

// RespondToShare implements service.Service.
func (f *FakeService) RespondToShare(ctx context.Context, shareID int64, decision service.ShareStatus) error {
	f.record("RespondToShare")
	if f.RespondHook != nil {
		f.RespondHook()
	}
	if f.RespondErr != nil {
		return f.RespondErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.shares {
		if s.ID != shareID {
			continue
		}
		if !service.CanTransition(s.Status, decision) {
			return &service.RejectionError{StatusCode: http.StatusConflict, Message: "share already answered"}
		}
		f.shares[i].Status = decision
		return nil
	}
	return notFound("share not found")
}

// CreateShare implements service.Service.
func (f *FakeService) CreateShare(ctx context.Context, taskID, sharedWithID int64) error {
	f.record("CreateShare")
	if f.CreateShareErr != nil {
		return f.CreateShareErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return notFound("task not found")
	}
	if _, ok := f.users[sharedWithID]; !ok {
		return notFound("user not found")
	}
	if t.OwnerID == sharedWithID {
		return &service.RejectionError{StatusCode: http.StatusBadRequest, Message: "cannot share with owner"}
	}
	for _, s := range f.shares {
		if s.TaskID == taskID && s.SharedWithID == sharedWithID {
			return &service.RejectionError{StatusCode: http.StatusConflict, Message: "already shared"}
		}
	}
	f.nextShare++
	f.shares = append(f.shares, service.ShareRecord{
		ID:           f.nextShare,
		TaskID:       taskID,
		SharedWithID: sharedWithID,
		Status:       service.StatusPending,
	})
	return nil
}

// FetchUser implements service.Service.
func (f *FakeService) FetchUser(ctx context.Context, id int64) (service.User, error) {
	f.record("FetchUser")
	f.mu.RLock()
	defer f.mu.RUnlock()
	u, ok := f.users[id]
	if !ok {
		return service.User{}, notFound("user not found")
	}
	return u, nil
}

// SearchUsers implements service.Service.
// Results are in id order.
func (f *FakeService) SearchUsers(ctx context.Context, query string) ([]service.User, error) {
	f.record("SearchUsers")
	f.mu.RLock()
	defer f.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []service.User
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// TokenFor returns the fake bearer token issued to a user.
func TokenFor(userID int64) string {
	return "token-" + strconv.FormatInt(userID, 10)
}

func notFound(msg string) error {
	return &service.RejectionError{StatusCode: http.StatusNotFound, Message: msg}
}
