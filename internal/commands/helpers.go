package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"todocal/internal/calendar"
	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/planner"
	"todocal/internal/service"
	"todocal/internal/session"
)

// now is the clock used to pick the current week.
var now = time.Now

// inputLayouts are accepted for --start and --end, in the configured time zone.
var inputLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime parses a user supplied timestamp.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time: %s (use YYYY-MM-DD HH:MM)", s)
}

// weekStart returns the first day of the week containing date (today if empty),
// moved by offset weeks.
func weekStart(cfg *config.Config, date string, offset int) (time.Time, error) {
	loc := cfg.Loc()
	day := now().In(loc)
	if date != "" {
		var err error
		day, err = time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date: %s (use YYYY-MM-DD)", date)
		}
	}
	return calendar.Shift(calendar.StartOfWeek(day, cfg.WeekStart), offset), nil
}

// tasksInWeek returns the tasks starting within the week, ordered by start time then id.
func tasksInWeek(tasks []service.Task, start time.Time) []service.Task {
	end := calendar.Shift(start, 1)
	var out []service.Task
	for _, t := range tasks {
		if !t.Start.Before(start) && t.Start.Before(end) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// loadPlanner builds the session's planner and loads tasks and shares.
func loadPlanner(ctx context.Context, cfg *config.Config, sess *session.Session, svc service.Service, errOut io.Writer) (*planner.Planner, int) {
	p := planner.New(svc, sess, cfg.Logger())
	if err := p.Reload(ctx); err != nil {
		return nil, reportError(errOut, err)
	}
	return p, exitcode.Success
}

func okLine(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
