package service

import "context"

// Service defines the interface for calendar backend operations.
// All HTTP calls go through this interface.
// Commands never build requests directly.
type Service interface {
	// Login checks credentials and returns the user id and bearer token.
	Login(ctx context.Context, username, password string) (LoginResult, error)

	// Signup registers a new account.
	Signup(ctx context.Context, username, password, confirmPassword string) error

	// FetchShares returns the pending and accepted shares addressed to userID.
	FetchShares(ctx context.Context, userID int64) ([]ShareRecord, error)

	// FetchTasksByIDs resolves many task ids in a single request.
	// Unknown ids are omitted from the result.
	FetchTasksByIDs(ctx context.Context, ids []int64) ([]Task, error)

	// FetchOwnTasks returns every task owned by userID.
	FetchOwnTasks(ctx context.Context, userID int64) ([]Task, error)

	// FetchTask returns a single task by id.
	FetchTask(ctx context.Context, id int64) (Task, error)

	// CreateTask creates a task owned by ownerID and returns it with its new id.
	CreateTask(ctx context.Context, ownerID int64, draft TaskDraft) (Task, error)

	// UpdateTask replaces the mutable fields of an existing task.
	UpdateTask(ctx context.Context, task Task) error

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id int64) error

	// RespondToShare moves a pending share to Accepted or Rejected.
	RespondToShare(ctx context.Context, shareID int64, decision ShareStatus) error

	// CreateShare invites sharedWithID to taskID.
	// The backend rejects self-shares and duplicates.
	CreateShare(ctx context.Context, taskID, sharedWithID int64) error

	// FetchUser returns a user profile.
	FetchUser(ctx context.Context, id int64) (User, error)

	// SearchUsers returns users whose name contains query (case-insensitive).
	SearchUsers(ctx context.Context, query string) ([]User, error)
}
