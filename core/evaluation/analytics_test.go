package evaluation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSummarize(t *testing.T) {
	records := []Record{
		{ID: "1", SessionNumber: 2, Date: "2024-03-02T09:00:00Z", GroupName: "B", BeforeMixedInteractions: 1, AfterMixedInteractions: 4},
		{ID: "2", SessionNumber: 1, Date: "2024-03-01", GroupName: "A", BeforeMixedInteractions: 0, AfterMixedInteractions: 2},
		{ID: "3", SessionNumber: 2, Date: "2024-03-02", GroupName: "A", BeforeMixedInteractions: 2, AfterMixedInteractions: 3},
		{ID: "4", SessionNumber: 1, Date: "someday", GroupName: "B", BeforeMixedInteractions: 1, AfterMixedInteractions: 1},
	}

	want := Summary{
		TotalEvaluations: 4,
		AverageScore:     2.5,
		HighestScore:     4,
		LowestScore:      1,
		ByGroup: []GroupStats{
			{GroupName: "B", Stats: Stats{Count: 2, AverageBefore: 1, AverageAfter: 2.5}},
			{GroupName: "A", Stats: Stats{Count: 2, AverageBefore: 1, AverageAfter: 2.5}},
		},
		BySession: []SessionStats{
			{SessionNumber: 1, Stats: Stats{Count: 2, AverageBefore: 0.5, AverageAfter: 1.5}},
			{SessionNumber: 2, Stats: Stats{Count: 2, AverageBefore: 1.5, AverageAfter: 3.5}},
		},
		ByDay: []DayStats{
			{Day: "2024-03-01", Stats: Stats{Count: 1, AverageBefore: 0, AverageAfter: 2}},
			{Day: "2024-03-02", Stats: Stats{Count: 2, AverageBefore: 1.5, AverageAfter: 3.5}},
		},
	}
	if diff := cmp.Diff(want, Summarize(records)); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	want := Summary{ByGroup: []GroupStats{}, BySession: []SessionStats{}, ByDay: []DayStats{}}
	if diff := cmp.Diff(want, Summarize(nil)); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Rounding(t *testing.T) {
	records := []Record{
		{ID: "1", SessionNumber: 1, Date: "2024-01-01", GroupName: "A", AfterMixedInteractions: 1},
		{ID: "2", SessionNumber: 1, Date: "2024-01-01", GroupName: "A", AfterMixedInteractions: 1},
		{ID: "3", SessionNumber: 1, Date: "2024-01-01", GroupName: "A", AfterMixedInteractions: 2},
	}
	if got := Summarize(records).AverageScore; got != 1.33 {
		t.Errorf("AverageScore = %v, want 1.33", got)
	}
}
