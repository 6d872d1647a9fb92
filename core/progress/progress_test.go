package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/irsalhamdi/members-portal/core/course"
)

func TestIsDayAccessible(t *testing.T) {
	sets := []DaySet{
		NewDaySet(),
		NewDaySet(1, 2, 3, 4),
		NewDaySet(1, 3, 5, 29),
		NewDaySet(2, 30),
	}

	for _, days := range sets {
		for day := 1; day <= 30; day++ {
			want := day == 1 || days.Has(day-1)
			if got := IsDayAccessible(days, day); got != want {
				t.Errorf("days=%v day=%d: expected %v, got %v", days.Sorted(), day, want, got)
			}
		}
	}
}

func TestCompleteDayNeverMutatesOnLocked(t *testing.T) {
	days := NewDaySet(1, 3)
	for day := 1; day <= 30; day++ {
		before := days.Sorted()
		next, err := CompleteDay(days, day)

		if diff := cmp.Diff(before, days.Sorted()); diff != "" {
			t.Fatalf("day %d mutated the input set (-before +after):\n%s", day, diff)
		}

		if IsDayAccessible(days, day) {
			if err != nil {
				t.Errorf("day %d: expected success, got %v", day, err)
			}
			if !next.Has(day) {
				t.Errorf("day %d: expected the day in the result", day)
			}
			continue
		}
		if !errors.Is(err, ErrNotAccessible) {
			t.Errorf("day %d: expected ErrNotAccessible, got %v", day, err)
		}
	}
}

func TestCompleteDayScenario(t *testing.T) {
	days := NewDaySet(1, 2, 3, 4)

	if !IsDayAccessible(days, 5) {
		t.Fatal("day 5 must be accessible after days 1-4")
	}
	next, err := CompleteDay(days, 5)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5}, next.Sorted()); diff != "" {
		t.Errorf("completed days mismatch (-want +got):\n%s", diff)
	}

	if IsDayAccessible(days, 7) {
		t.Fatal("day 7 must be locked after days 1-4")
	}
	if _, err := CompleteDay(days, 7); !errors.Is(err, ErrNotAccessible) {
		t.Fatalf("expected ErrNotAccessible, got %v", err)
	}
}

func TestChapterCompleted(t *testing.T) {
	ch := course.Chapter{ID: "intro", Slides: []course.Slide{{ID: "s1"}, {ID: "s2"}}}

	tests := []struct {
		name   string
		slides IDSet
		want   bool
	}{
		{"none", NewIDSet(), false},
		{"partial", NewIDSet("s1"), false},
		{"all", NewIDSet("s1", "s2"), true},
		{"superset", NewIDSet("s1", "s2", "other"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChapterCompleted(CourseProgress{CompletedSlideIDs: tt.slides}, ch)
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestChapterWithoutSlidesIsComplete(t *testing.T) {
	empty := course.Chapter{ID: "placeholder"}
	if !ChapterCompleted(CourseProgress{CompletedSlideIDs: NewIDSet()}, empty) {
		t.Fatal("a chapter without slides is complete")
	}
}

func TestStreak(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	today := time.Date(2024, time.March, 2, 9, 0, 0, 0, loc)
	at := func(y int, m time.Month, d, h int) time.Time { return time.Date(y, m, d, h, 0, 0, 0, loc) }

	tests := []struct {
		name        string
		completions []time.Time
		want        int
	}{
		{"empty", nil, 0},
		{"only yesterday", []time.Time{at(2024, time.March, 1, 10)}, 0},
		{"today", []time.Time{at(2024, time.March, 2, 8)}, 1},
		{
			"across month boundary",
			[]time.Time{at(2024, time.February, 28, 20), at(2024, time.February, 29, 7), at(2024, time.March, 1, 23), at(2024, time.March, 2, 1)},
			4,
		},
		{
			"gap breaks the run",
			[]time.Time{at(2024, time.February, 27, 12), at(2024, time.March, 1, 12), at(2024, time.March, 2, 6)},
			2,
		},
		{
			"same day counted once",
			[]time.Time{at(2024, time.March, 2, 1), at(2024, time.March, 2, 5)},
			1,
		},
		{
			"utc timestamps are read in today's zone",
			[]time.Time{time.Date(2024, time.March, 1, 23, 30, 0, 0, time.UTC)},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.completions, today); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestParseDay(t *testing.T) {
	for _, raw := range []string{"0", "31", "-1", "abc", "1.5", ""} {
		if _, err := ParseDay(raw, 30); err == nil {
			t.Errorf("%q: expected an error", raw)
		}
	}
	for _, raw := range []string{"1", "15", "30"} {
		if _, err := ParseDay(raw, 30); err != nil {
			t.Errorf("%q: unexpected error %v", raw, err)
		}
	}
}
