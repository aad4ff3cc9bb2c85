// Package googletasks mirrors calendar tasks into a Google Tasks list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todocal/internal/config"
	"todocal/internal/service"
)

const (
	// PageSize is the number of items requested per page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// markerPattern finds the calendar task id recorded in exported notes.
var markerPattern = regexp.MustCompile(`todocal:(\d+)`)

// Marker returns the notes marker identifying an exported task.
func Marker(taskID int64) string {
	return "todocal:" + strconv.FormatInt(taskID, 10)
}

// Result counts what an export did.
type Result struct {
	Created int
	Skipped int
}

// Exporter writes tasks to Google Tasks.
type Exporter struct {
	svc *tasks.Service
	loc *time.Location
	log *slog.Logger
}

// New creates an exporter from oauth_client.json and google_token.json.
func New(ctx context.Context, cfg *config.Config) (*Exporter, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", config.OAuthClientFile, err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.OAuthClientFile, err)
	}

	token, err := LoadToken(cfg.GoogleTokenPath())
	if err != nil {
		return nil, err
	}

	// Create token source that auto-refreshes
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	e, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	e.loc = cfg.Loc()
	e.log = cfg.Logger()
	return e, nil
}

// NewWithHTTPClient creates an exporter with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Exporter, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	return &Exporter{
		svc: svc,
		loc: time.Local,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// LoadToken reads a stored OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: not authorized for Google Tasks (run: todocal google-login)", service.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to read %s: %w", config.GoogleTokenFile, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.GoogleTokenFile, err)
	}
	return &token, nil
}

// SaveToken saves an OAuth token to a file with mode 0600.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureList returns the id of the list with the given title (case-insensitive,
// trimmed), creating it if no list matches.
func (e *Exporter) EnsureList(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("list name required")
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var matches []string
	err := e.svc.Tasklists.List().MaxResults(PageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			if strings.EqualFold(strings.TrimSpace(list.Title), title) {
				matches = append(matches, list.Id)
			}
		}
		return nil
	})
	if err != nil {
		return "", wrapError(err)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
	default:
		return "", fmt.Errorf("ambiguous list name: %s", title)
	}

	created, err := e.svc.Tasklists.Insert(&tasks.TaskList{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", wrapError(err)
	}
	e.log.Debug("google list created", "title", title, "id", created.Id)
	return created.Id, nil
}

// Export inserts every task not already present in the list.
// Tasks are matched by the marker in their notes, so exporting twice is harmless.
func (e *Exporter) Export(ctx context.Context, listID string, items []service.Task) (Result, error) {
	exported, err := e.exportedIDs(ctx, listID)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, t := range items {
		if exported[t.ID] {
			res.Skipped++
			continue
		}
		if err := e.insert(ctx, listID, t); err != nil {
			return res, err
		}
		exported[t.ID] = true
		res.Created++
	}
	return res, nil
}

func (e *Exporter) exportedIDs(ctx context.Context, listID string) (map[int64]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	ids := make(map[int64]bool)
	err := e.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, item := range resp.Items {
				m := markerPattern.FindStringSubmatch(item.Notes)
				if m == nil {
					continue
				}
				if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
					ids[id] = true
				}
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return ids, nil
}

func (e *Exporter) insert(ctx context.Context, listID string, t service.Task) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	_, err := e.svc.Tasks.Insert(listID, toGoogle(t, e.loc)).Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// toGoogle converts a calendar task. Google Tasks keeps only the due date,
// so the time range goes into the notes.
func toGoogle(t service.Task, loc *time.Location) *tasks.Task {
	start := t.Start.In(loc)
	end := t.End.In(loc)
	y, m, d := start.Date()

	notes := fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
	if desc := strings.TrimSpace(t.Description); desc != "" {
		notes += "\n" + desc
	}
	notes += "\n" + Marker(t.ID)

	gt := &tasks.Task{
		Title:  t.Title,
		Notes:  notes,
		Due:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Status: statusNeedsAction,
	}
	if t.IsDone {
		gt.Status = statusCompleted
	}
	return gt
}

// wrapError classifies API errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: google token expired or revoked (run: todocal google-login)", service.ErrUnauthorized)
		case http.StatusNotFound:
			return fmt.Errorf("%w: google list", service.ErrNotFound)
		}
		return &service.RejectionError{StatusCode: gerr.Code, Message: gerr.Message}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", service.ErrNetwork)
	}
	return fmt.Errorf("%w: %v", service.ErrNetwork, err)
}
