package restapi

import (
	"fmt"
	"strings"
	"time"

	"todocal/internal/service"
)

// timestampLayouts are accepted when decoding backend timestamps.
// Zone-less values are read in the client's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", service.ErrMalformedResponse, s)
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

type taskJSON struct {
	TaskID      int64   `json:"task_id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	IsDone      bool    `json:"is_done"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	ImagePath   *string `json:"image_path"`
}

func (t taskJSON) toTask(loc *time.Location) (service.Task, error) {
	start, err := parseTimestamp(t.StartDate, loc)
	if err != nil {
		return service.Task{}, err
	}
	end, err := parseTimestamp(t.EndDate, loc)
	if err != nil {
		return service.Task{}, err
	}
	if t.TaskID == 0 {
		return service.Task{}, fmt.Errorf("%w: task without id", service.ErrMalformedResponse)
	}
	task := service.Task{
		ID:          t.TaskID,
		OwnerID:     t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Start:       start,
		End:         end,
		IsDone:      t.IsDone,
	}
	if t.ImagePath != nil {
		task.ImagePath = *t.ImagePath
	}
	return task, nil
}

func fromTask(t service.Task) taskJSON {
	out := taskJSON{
		TaskID:      t.ID,
		UserID:      t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		IsDone:      t.IsDone,
		StartDate:   formatTimestamp(t.Start),
		EndDate:     formatTimestamp(t.End),
	}
	if t.ImagePath != "" {
		path := t.ImagePath
		out.ImagePath = &path
	}
	return out
}

type shareJSON struct {
	ID         int64  `json:"id"`
	TaskID     int64  `json:"taskId"`
	ShareWith  int64  `json:"shareWith"`
	CreatedAt  string `json:"createdAt"`
	IsAccepted string `json:"isAccepted"`
}

func (s shareJSON) toShare(loc *time.Location) (service.ShareRecord, error) {
	status, err := service.ParseShareStatus(s.IsAccepted)
	if err != nil {
		return service.ShareRecord{}, fmt.Errorf("%w: %w", service.ErrMalformedResponse, err)
	}
	created, err := parseTimestamp(s.CreatedAt, loc)
	if err != nil {
		return service.ShareRecord{}, err
	}
	return service.ShareRecord{
		ID:           s.ID,
		TaskID:       s.TaskID,
		SharedWithID: s.ShareWith,
		Status:       status,
		CreatedAt:    created,
	}, nil
}

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID  int64  `json:"user_id"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

type signupRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type userRequest struct {
	UserID int64 `json:"user_id"`
}

type batchRequest struct {
	IDs []int64 `json:"ids"`
}

type createTaskRequest struct {
	UserID      int64  `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	ImagePath   string `json:"imagePath,omitempty"`
}

type respondRequest struct {
	ShareTodoID int64 `json:"share_todo_id"`
}

type createShareRequest struct {
	TaskID    int64 `json:"task_id"`
	ShareWith int64 `json:"share_with"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
