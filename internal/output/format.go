// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"todocal/internal/calendar"
	"todocal/internal/service"
)

const (
	// CellWidth is the width of one day column in the week grid.
	CellWidth = 10

	// EmptyCell marks a grid cell with no tasks.
	EmptyCell = "."

	clockLayout = "15:04"
	dateLayout  = "Mon 2006-01-02 15:04"
)

// FormatWeekHeader writes the month title of a week.
func FormatWeekHeader(w io.Writer, weekStart time.Time) {
	fmt.Fprintln(w, calendar.Title(weekStart))
}

// FormatBadge writes the pending invitation count.
func FormatBadge(w io.Writer, pending int) {
	if pending == 1 {
		fmt.Fprintln(w, "1 pending invitation")
		return
	}
	fmt.Fprintf(w, "%d pending invitations\n", pending)
}

// FormatGrid writes the 7x24 grid. Each cell shows the first task id and how
// many more tasks share the hour. In compact mode empty hours are skipped.
func FormatGrid(w io.Writer, weekStart time.Time, grid calendar.Grid, compact bool) {
	cells := make([]string, 0, calendar.DaysPerWeek)
	for _, day := range calendar.Days(weekStart) {
		cells = append(cells, calendar.DayLabel(day))
	}
	writeRow(w, "", cells)

	for h := 0; h < calendar.HoursPerDay; h++ {
		cells = cells[:0]
		busy := false
		for d := 0; d < calendar.DaysPerWeek; d++ {
			c := formatCell(grid[d][h])
			if c != EmptyCell {
				busy = true
			}
			cells = append(cells, c)
		}
		if compact && !busy {
			continue
		}
		writeRow(w, calendar.HourLabel(h), cells)
	}
}

func writeRow(w io.Writer, label string, cells []string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s", label)
	for _, c := range cells {
		fmt.Fprintf(&b, "  %-*s", CellWidth, c)
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
}

func formatCell(tasks []service.Task) string {
	if len(tasks) == 0 {
		return EmptyCell
	}
	s := "#" + strconv.FormatInt(tasks[0].ID, 10)
	if len(tasks) > 1 {
		s += "+" + strconv.Itoa(len(tasks)-1)
	}
	if len(s) > CellWidth {
		s = s[:CellWidth]
	}
	return s
}

// FormatTaskLine formats one legend line.
// Format: "{#ID:>6}  [x] {DAY} {HH:MM}-{HH:MM}  {TITLE}[ (shared)]\n"
func FormatTaskLine(w io.Writer, task service.Task, shared bool, loc *time.Location) {
	start := task.Start.In(loc)
	end := task.End.In(loc)
	suffix := ""
	if shared {
		suffix = " (shared)"
	}
	fmt.Fprintf(w, "%6s  [%s] %s %s-%s  %s%s\n",
		"#"+strconv.FormatInt(task.ID, 10),
		doneMark(task.IsDone),
		calendar.DayLabel(start),
		start.Format(clockLayout),
		end.Format(clockLayout),
		normalizeTitle(task.Title),
		suffix,
	)
}

// FormatTaskDetail writes every field of a task.
func FormatTaskDetail(w io.Writer, task service.Task, shared bool, loc *time.Location) {
	fmt.Fprintf(w, "task #%d: %s\n", task.ID, normalizeTitle(task.Title))
	fmt.Fprintf(w, "  start:  %s\n", task.Start.In(loc).Format(dateLayout))
	fmt.Fprintf(w, "  end:    %s\n", task.End.In(loc).Format(dateLayout))
	fmt.Fprintf(w, "  done:   %s\n", yesNo(task.IsDone))
	if shared {
		fmt.Fprintf(w, "  owner:  user %d (shared with you)\n", task.OwnerID)
	}
	if desc := strings.TrimSpace(task.Description); desc != "" {
		fmt.Fprintf(w, "  notes:  %s\n", normalizeTitle(desc))
	}
	if task.ImagePath != "" {
		fmt.Fprintf(w, "  image:  %s\n", task.ImagePath)
	}
}

// FormatInvitation formats a pending share with the title of its task.
// An empty title means the task could not be resolved.
func FormatInvitation(w io.Writer, rec service.ShareRecord, title string) {
	if title == "" {
		title = "(unavailable)"
	} else {
		title = normalizeTitle(title)
	}
	fmt.Fprintf(w, "%6s  task #%d  %s\n", "#"+strconv.FormatInt(rec.ID, 10), rec.TaskID, title)
}

// FormatUser formats a user search result.
func FormatUser(w io.Writer, user service.User) {
	fmt.Fprintf(w, "%6d  %s\n", user.ID, normalizeTitle(user.Username))
}

func doneMark(done bool) string {
	if done {
		return "x"
	}
	return " "
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
