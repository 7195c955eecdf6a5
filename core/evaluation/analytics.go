package evaluation

import (
	"math"
	"sort"
)

// Stats aggregates mixed interaction counts over a set of records.
type Stats struct {
	Count         int     `json:"count"`
	AverageBefore float64 `json:"averageBefore"`
	AverageAfter  float64 `json:"averageAfter"`
}

type GroupStats struct {
	GroupName string `json:"groupName"`
	Stats
}

type SessionStats struct {
	SessionNumber int `json:"sessionNumber"`
	Stats
}

type DayStats struct {
	Day string `json:"day"` // YYYY-MM-DD
	Stats
}

// Summary is the analytics overview of a collection.
// Scores are the afterMixedInteractions counts.
type Summary struct {
	TotalEvaluations int            `json:"totalEvaluations"`
	AverageScore     float64        `json:"averageScore"`
	HighestScore     int            `json:"highestScore"`
	LowestScore      int            `json:"lowestScore"`
	ByGroup          []GroupStats   `json:"byGroup"`
	BySession        []SessionStats `json:"bySession"`
	ByDay            []DayStats     `json:"byDay"`
}

type accumulator struct {
	count, before, after int
}

func (acc *accumulator) add(r Record) {
	acc.count++
	acc.before += r.BeforeMixedInteractions
	acc.after += r.AfterMixedInteractions
}

func (acc accumulator) stats() Stats {
	if acc.count == 0 {
		return Stats{}
	}
	return Stats{
		Count:         acc.count,
		AverageBefore: round2(float64(acc.before) / float64(acc.count)),
		AverageAfter:  round2(float64(acc.after) / float64(acc.count)),
	}
}

// Summarize computes the analytics overview of records.
// Groups keep first-seen order, sessions are sorted by number and days ascending;
// records whose date cannot be parsed are left out of the per-day breakdown.
func Summarize(records []Record) Summary {
	sum := Summary{
		TotalEvaluations: len(records),
		ByGroup:          []GroupStats{},
		BySession:        []SessionStats{},
		ByDay:            []DayStats{},
	}
	if len(records) == 0 {
		return sum
	}

	var (
		total    int
		groups   []string
		byGroup  = make(map[string]*accumulator)
		bySess   = make(map[int]*accumulator)
		byDay    = make(map[string]*accumulator)
		highest  = math.MinInt64
		lowest   = math.MaxInt64
		getOrAdd = func(m map[string]*accumulator, key string) *accumulator {
			acc, ok := m[key]
			if !ok {
				acc = &accumulator{}
				m[key] = acc
			}
			return acc
		}
	)
	for _, r := range records {
		score := r.AfterMixedInteractions
		total += score
		if score > highest {
			highest = score
		}
		if score < lowest {
			lowest = score
		}

		if _, ok := byGroup[r.GroupName]; !ok {
			groups = append(groups, r.GroupName)
		}
		getOrAdd(byGroup, r.GroupName).add(r)

		acc, ok := bySess[r.SessionNumber]
		if !ok {
			acc = &accumulator{}
			bySess[r.SessionNumber] = acc
		}
		acc.add(r)

		if day := r.Day(); day != "" {
			getOrAdd(byDay, day).add(r)
		}
	}

	sum.AverageScore = round2(float64(total) / float64(len(records)))
	sum.HighestScore = highest
	sum.LowestScore = lowest

	for _, g := range groups {
		sum.ByGroup = append(sum.ByGroup, GroupStats{GroupName: g, Stats: byGroup[g].stats()})
	}

	sessions := make([]int, 0, len(bySess))
	for n := range bySess {
		sessions = append(sessions, n)
	}
	sort.Ints(sessions)
	for _, n := range sessions {
		sum.BySession = append(sum.BySession, SessionStats{SessionNumber: n, Stats: bySess[n].stats()})
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		sum.ByDay = append(sum.ByDay, DayStats{Day: d, Stats: byDay[d].stats()})
	}
	return sum
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
