// Package analytics derives productivity figures from occurrence snapshots.
//
// Every function here is pure: the same snapshot and reference time always
// produce the same result, and nothing touches the store.
package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
)

var ErrInvalidSnapshot = errors.New("invalid analytics snapshot")

const (
	declineThreshold = 10.0 // percentage points
	heavyDayLoad     = 10.0 // occurrences per active day
)

// Burnout levels.
const (
	BurnoutLow    = "low"
	BurnoutMedium = "medium"
	BurnoutHigh   = "high"
)

// Recommendation texts, in the order they are emitted.
const (
	RecommendOverdue = "You have overdue tasks. Reschedule them or break them into smaller steps."
	RecommendUrgent  = "Several urgent tasks are still open. Focus on those first or delegate where you can."
	RecommendDecline = "Your completion rate dropped compared to the previous period. Consider taking on less."
	RecommendHeavy   = "You are averaging more than 10 tasks per active day. Try to spread work more evenly."
	RecommendHealthy = "Your workload looks healthy. Keep it up!"
)

// Input is everything Aggregate looks at.
type Input struct {
	Period         Period
	Window         Window
	Tasks          []model.Task
	PreviousWindow Window
	Previous       []model.Task
	Now            time.Time
	// Truncated marks a snapshot that hit the record cap.
	Truncated bool
}

type Summary struct {
	Total                 int     `json:"total"`
	Completed             int     `json:"completed"`
	Pending               int     `json:"pending"`
	CompletionRate        float64 `json:"completionRate"`
	ActiveDays            int     `json:"activeDays"`
	AveragePerActiveDay   float64 `json:"averagePerActiveDay"`
	MostProductiveWeekday string  `json:"mostProductiveWeekday,omitempty"`
}

type Comparison struct {
	PreviousTotal          int     `json:"previousTotal"`
	PreviousCompleted      int     `json:"previousCompleted"`
	PreviousCompletionRate float64 `json:"previousCompletionRate"`
	CompletionRateChange   float64 `json:"completionRateChange"`
	TotalChange            int     `json:"totalChange"`
	CompletedChange        int     `json:"completedChange"`
}

type DayBreakdown struct {
	Date      string  `json:"date"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Pending   int     `json:"pending"`
	Rate      float64 `json:"rate"`
}

type LabelBreakdown struct {
	Label     string  `json:"label"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Pending   int     `json:"pending"`
	Rate      float64 `json:"rate"`
}

type TimeTracking struct {
	TotalEstimatedMinutes int      `json:"totalEstimatedMinutes"`
	TotalActualMinutes    int      `json:"totalActualMinutes"`
	TrackedTasks          int      `json:"trackedTasks"`
	AverageEstimated      float64  `json:"averageEstimated"`
	AverageActual         float64  `json:"averageActual"`
	Efficiency            *float64 `json:"efficiency"`
}

type Burnout struct {
	Level           string   `json:"level"`
	Score           int      `json:"score"`
	Overdue         int      `json:"overdue"`
	UrgentPending   int      `json:"urgentPending"`
	RateDeclined    bool     `json:"rateDeclined"`
	AveragePerDay   float64  `json:"averagePerDay"`
	Recommendations []string `json:"recommendations"`
}

// Heatmap counts completions by weekday (0=Sunday) and hour of day.
type Heatmap [7][24]int

// Snapshot is the analytics payload for one owner and period.
type Snapshot struct {
	Period       Period           `json:"period"`
	Window       Window           `json:"window"`
	Truncated    bool             `json:"truncated"`
	Summary      Summary          `json:"summary"`
	Comparison   Comparison       `json:"comparison"`
	Daily        []DayBreakdown   `json:"daily"`
	Categories   []LabelBreakdown `json:"categories"`
	Priorities   []LabelBreakdown `json:"priorities"`
	Heatmap      Heatmap          `json:"heatmap"`
	TimeTracking TimeTracking     `json:"timeTracking"`
	Burnout      Burnout          `json:"burnout"`
	PerfectDays  Streak           `json:"perfectDays"`
}

// Aggregate computes the snapshot for in.
func Aggregate(in Input) (Snapshot, error) {
	if in.Tasks == nil {
		return Snapshot{}, fmt.Errorf("%w: task list is required", ErrInvalidSnapshot)
	}
	if !in.Window.valid() {
		return Snapshot{}, fmt.Errorf("%w: empty window", ErrInvalidSnapshot)
	}

	loc := in.Now.Location()
	today := calendar.Day(in.Now)

	out := Snapshot{
		Period:    in.Period,
		Window:    in.Window,
		Truncated: in.Truncated,
	}

	cur := countOf(in.Tasks)
	prev := countOf(in.Previous)

	days := dailyBreakdown(in.Tasks)
	out.Daily = days
	out.Summary = Summary{
		Total:          cur.total,
		Completed:      cur.completed,
		Pending:        cur.total - cur.completed,
		CompletionRate: cur.rate(),
		ActiveDays:     len(days),
	}
	if len(days) > 0 {
		out.Summary.AveragePerActiveDay = round2(float64(cur.total) / float64(len(days)))
	}
	out.Summary.MostProductiveWeekday = mostProductiveWeekday(in.Tasks, loc)

	out.Comparison = Comparison{
		PreviousTotal:          prev.total,
		PreviousCompleted:      prev.completed,
		PreviousCompletionRate: prev.rate(),
		CompletionRateChange:   round2(cur.rate() - prev.rate()),
		TotalChange:            cur.total - prev.total,
		CompletedChange:        cur.completed - prev.completed,
	}

	out.Categories = categoryBreakdown(in.Tasks)
	out.Priorities = priorityBreakdown(in.Tasks)
	out.Heatmap = heatmap(in.Tasks, loc)
	out.TimeTracking = timeTracking(in.Tasks)
	out.Burnout = burnout(in.Tasks, today, cur, prev, out.Summary.AveragePerActiveDay)
	out.PerfectDays = Streaks(perfectDays(days), today)

	return out, nil
}

type counts struct {
	total, completed int
}

func countOf(tasks []model.Task) counts {
	var c counts
	for _, t := range tasks {
		c.total++
		if t.IsCompleted() {
			c.completed++
		}
	}
	return c
}

func (c counts) rate() float64 {
	return rate(c.completed, c.total)
}

func rate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(completed) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dailyBreakdown(tasks []model.Task) []DayBreakdown {
	byDay := make(map[string]*DayBreakdown)
	for _, t := range tasks {
		key := calendar.Key(calendar.Day(t.Date))
		d, ok := byDay[key]
		if !ok {
			d = &DayBreakdown{Date: key}
			byDay[key] = d
		}
		d.Total++
		if t.IsCompleted() {
			d.Completed++
		} else {
			d.Pending++
		}
	}

	out := make([]DayBreakdown, 0, len(byDay))
	for _, d := range byDay {
		d.Rate = rate(d.Completed, d.Total)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// completionDay is the weekday an occurrence was finished on, falling back to
// its scheduled date when no completion time was recorded.
func completionDay(t model.Task, loc *time.Location) time.Weekday {
	if t.CompletedAt != nil {
		return t.CompletedAt.In(loc).Weekday()
	}
	return t.Date.Weekday()
}

func mostProductiveWeekday(tasks []model.Task, loc *time.Location) string {
	var perDay [7]int
	for _, t := range tasks {
		if t.IsCompleted() {
			perDay[completionDay(t, loc)]++
		}
	}
	best := -1
	for i, n := range perDay {
		if n > 0 && (best < 0 || n > perDay[best]) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return time.Weekday(best).String()
}

func labelBreakdown(tasks []model.Task, label func(model.Task) string) map[string]*LabelBreakdown {
	out := make(map[string]*LabelBreakdown)
	for _, t := range tasks {
		key := label(t)
		b, ok := out[key]
		if !ok {
			b = &LabelBreakdown{Label: key}
			out[key] = b
		}
		b.Total++
		if t.IsCompleted() {
			b.Completed++
		} else {
			b.Pending++
		}
	}
	for _, b := range out {
		b.Rate = rate(b.Completed, b.Total)
	}
	return out
}

func categoryBreakdown(tasks []model.Task) []LabelBreakdown {
	byLabel := labelBreakdown(tasks, func(t model.Task) string { return model.CategoryLabel(t.Category) })
	out := make([]LabelBreakdown, 0, len(byLabel))
	for _, b := range byLabel {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// priorityBreakdown always lists every level, most pressing first.
func priorityBreakdown(tasks []model.Task) []LabelBreakdown {
	byLabel := labelBreakdown(tasks, func(t model.Task) string { return string(t.Priority.Normalize()) })
	out := make([]LabelBreakdown, 0, len(model.Priorities))
	for _, p := range model.Priorities {
		if b, ok := byLabel[string(p)]; ok {
			out = append(out, *b)
			continue
		}
		out = append(out, LabelBreakdown{Label: string(p)})
	}
	return out
}

func heatmap(tasks []model.Task, loc *time.Location) Heatmap {
	var h Heatmap
	for _, t := range tasks {
		if !t.IsCompleted() || t.CompletedAt == nil {
			continue
		}
		at := t.CompletedAt.In(loc)
		h[at.Weekday()][at.Hour()]++
	}
	return h
}

func validMinutes(v *int) (int, bool) {
	if v == nil || *v < 0 {
		return 0, false
	}
	return *v, true
}

func timeTracking(tasks []model.Task) TimeTracking {
	var tt TimeTracking
	var estimated, actual int
	for _, t := range tasks {
		est, hasEst := validMinutes(t.EstimatedMinutes)
		act, hasAct := validMinutes(t.ActualMinutes)
		if hasEst {
			tt.TotalEstimatedMinutes += est
			estimated++
		}
		if hasAct {
			tt.TotalActualMinutes += act
			actual++
		}
		if hasEst || hasAct {
			tt.TrackedTasks++
		}
	}
	if estimated > 0 {
		tt.AverageEstimated = round2(float64(tt.TotalEstimatedMinutes) / float64(estimated))
	}
	if actual > 0 {
		tt.AverageActual = round2(float64(tt.TotalActualMinutes) / float64(actual))
	}
	if tt.TotalEstimatedMinutes > 0 {
		eff := round2(float64(tt.TotalActualMinutes) / float64(tt.TotalEstimatedMinutes) * 100)
		tt.Efficiency = &eff
	}
	return tt
}

func burnout(tasks []model.Task, today time.Time, cur, prev counts, avgPerDay float64) Burnout {
	b := Burnout{AveragePerDay: avgPerDay}
	for _, t := range tasks {
		if t.IsCompleted() {
			continue
		}
		if t.DueDate != nil && calendar.Day(*t.DueDate).Before(today) {
			b.Overdue++
		}
		if t.Priority.Normalize() == model.PriorityUrgent {
			b.UrgentPending++
		}
	}
	b.RateDeclined = prev.total > 0 && prev.rate()-cur.rate() > declineThreshold
	heavy := avgPerDay > heavyDayLoad

	b.Score = b.Overdue*2 + b.UrgentPending*3
	if b.RateDeclined {
		b.Score += 5
	}
	if heavy {
		b.Score += 2
	}

	switch {
	case b.Score < 5:
		b.Level = BurnoutLow
	case b.Score < 10:
		b.Level = BurnoutMedium
	default:
		b.Level = BurnoutHigh
	}

	if b.Overdue > 0 {
		b.Recommendations = append(b.Recommendations, RecommendOverdue)
	}
	if b.UrgentPending > 0 {
		b.Recommendations = append(b.Recommendations, RecommendUrgent)
	}
	if b.RateDeclined {
		b.Recommendations = append(b.Recommendations, RecommendDecline)
	}
	if heavy {
		b.Recommendations = append(b.Recommendations, RecommendHeavy)
	}
	if len(b.Recommendations) == 0 {
		b.Recommendations = []string{RecommendHealthy}
	}
	return b
}

// perfectDays lists the dates on which every occurrence was completed.
func perfectDays(days []DayBreakdown) []time.Time {
	var out []time.Time
	for _, d := range days {
		if d.Total == 0 || d.Completed != d.Total {
			continue
		}
		if date, err := calendar.Parse(d.Date); err == nil {
			out = append(out, date)
		}
	}
	return out
}
