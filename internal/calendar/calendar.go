// Package calendar projects tasks onto a weekly hour grid.
package calendar

import (
	"fmt"
	"time"

	"todocal/internal/service"
)

const (
	DaysPerWeek = 7
	HoursPerDay = 24
)

// Grid holds the tasks occupying each (day, hour) cell of one week.
type Grid [DaysPerWeek][HoursPerDay][]service.Task

// Project places each task on the day its start date falls on, in every hour
// from its start hour through its end hour. Only hours of day are compared, so
// a task spanning midnight appears on its start day only.
func Project(tasks []service.Task, weekStart time.Time) Grid {
	var g Grid
	loc := weekStart.Location()
	days := Days(weekStart)

	for _, t := range tasks {
		start := t.Start.In(loc)
		end := t.End.In(loc)
		for d, day := range days {
			if !sameDate(start, day) {
				continue
			}
			for h := start.Hour(); h <= end.Hour() && h < HoursPerDay; h++ {
				g[d][h] = append(g[d][h], t)
			}
		}
	}
	return g
}

// Count returns how many tasks occupy a cell.
func (g *Grid) Count(day, hour int) int {
	return len(g[day][hour])
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfWeek returns midnight of the first day of the week containing t.
func StartOfWeek(t time.Time, first time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(first) + DaysPerWeek) % DaysPerWeek
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// Days returns the seven dates starting at weekStart.
func Days(weekStart time.Time) [DaysPerWeek]time.Time {
	var days [DaysPerWeek]time.Time
	y, m, d := weekStart.Date()
	for i := range days {
		days[i] = time.Date(y, m, d+i, 0, 0, 0, 0, weekStart.Location())
	}
	return days
}

// Shift moves weekStart by n weeks.
func Shift(weekStart time.Time, n int) time.Time {
	y, m, d := weekStart.Date()
	return time.Date(y, m, d+n*DaysPerWeek, 0, 0, 0, 0, weekStart.Location())
}

// Title is the month header for a week: "August, 2025" or, when the week
// crosses a month boundary, "August 2025 - September 2025".
func Title(weekStart time.Time) string {
	days := Days(weekStart)
	first, last := days[0], days[DaysPerWeek-1]
	if first.Month() == last.Month() {
		return fmt.Sprintf("%s, %d", first.Month(), first.Year())
	}
	return fmt.Sprintf("%s %d - %s %d", first.Month(), first.Year(), last.Month(), last.Year())
}

// DayLabel formats a column header such as "Sun 17th".
func DayLabel(day time.Time) string {
	return fmt.Sprintf("%s %d%s", day.Format("Mon"), day.Day(), ordinal(day.Day()))
}

func ordinal(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// HourLabel formats a row header such as "09:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
