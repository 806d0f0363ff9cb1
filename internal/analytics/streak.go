package analytics

import (
	"sort"
	"time"

	"recurring-planner/internal/calendar"
)

// Streak is the pair of consecutive-day counts for one item.
type Streak struct {
	Current int `json:"current"`
	Best    int `json:"best"`
}

// Streaks computes the current and best runs of consecutive calendar days.
//
// The current run starts at today: if today is not in dates it is 0. Callers
// wanting "streak as of yesterday" drop today from the input themselves.
func Streaks(dates []time.Time, today time.Time) Streak {
	if len(dates) == 0 {
		return Streak{}
	}

	seen := make(map[time.Time]struct{}, len(dates))
	unique := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := calendar.Day(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		unique = append(unique, day)
	}

	var s Streak
	for d := calendar.Day(today); ; d = d.AddDate(0, 0, -1) {
		if _, ok := seen[d]; !ok {
			break
		}
		s.Current++
	}

	sort.Slice(unique, func(i, j int) bool { return unique[i].After(unique[j]) })
	run := 0
	for i, d := range unique {
		if i > 0 && d.Equal(unique[i-1].AddDate(0, 0, -1)) {
			run++
		} else {
			run = 1
		}
		if run > s.Best {
			s.Best = run
		}
	}
	return s
}
