package analytics

import (
	"errors"
	"sort"
	"time"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
)

var ErrInvalidSpan = errors.New("checkbook span must cover at least one week")

// CheckbookCell is one occurrence in the grid.
type CheckbookCell struct {
	TaskID      uint             `json:"taskId"`
	Status      model.TaskStatus `json:"status"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// CheckbookRow holds one title; Cells line up with Checkbook.Dates and a nil
// cell means nothing was scheduled that day.
type CheckbookRow struct {
	Title string           `json:"title"`
	Cells []*CheckbookCell `json:"cells"`
}

// Checkbook is a title-by-date pivot of occurrence status.
type Checkbook struct {
	Start time.Time      `json:"start"`
	Weeks int            `json:"weeks"`
	Dates []string       `json:"dates"`
	Rows  []CheckbookRow `json:"rows"`
}

// BuildCheckbook lays tasks out over weeks*7 days from start. Rows are sorted
// by title; tasks outside the span are ignored.
func BuildCheckbook(start time.Time, weeks int, tasks []model.Task) (Checkbook, error) {
	if weeks <= 0 {
		return Checkbook{}, ErrInvalidSpan
	}
	start = calendar.Day(start)
	days := calendar.Range(start, calendar.AddDays(start, weeks*7))

	cb := Checkbook{Start: start, Weeks: weeks, Dates: make([]string, len(days))}
	for i, d := range days {
		cb.Dates[i] = calendar.Key(d)
	}

	rows := make(map[string]*CheckbookRow)
	for _, t := range tasks {
		col := calendar.DaysBetween(start, t.Date)
		if col < 0 || col >= len(days) {
			continue
		}
		row, ok := rows[t.Title]
		if !ok {
			row = &CheckbookRow{Title: t.Title, Cells: make([]*CheckbookCell, len(days))}
			rows[t.Title] = row
		}
		if row.Cells[col] != nil {
			continue
		}
		row.Cells[col] = &CheckbookCell{TaskID: t.ID, Status: t.Status, CompletedAt: t.CompletedAt}
	}

	cb.Rows = make([]CheckbookRow, 0, len(rows))
	for _, row := range rows {
		cb.Rows = append(cb.Rows, *row)
	}
	sort.Slice(cb.Rows, func(i, j int) bool { return cb.Rows[i].Title < cb.Rows[j].Title })
	return cb, nil
}
