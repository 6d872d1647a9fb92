package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/irsalhamdi/members-portal/core/course"
	"github.com/irsalhamdi/members-portal/validate"
)

var (
	ErrNotAccessible = errors.New("day is not accessible")
	ErrUnknownSlide  = errors.New("slide does not belong to the course")
)

// IDSet is a set of slide or chapter ids, encoded as a sorted JSON array.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// CourseProgress is the completion state of one user. Chapter completion
// is always derived from the slide set.
type CourseProgress struct {
	CompletedSlideIDs   IDSet `json:"completedSlideIds"`
	CompletedChapterIDs IDSet `json:"completedChapterIds"`
}

// ChapterCompleted is true iff every slide of ch is completed. A chapter
// without slides is complete.
func ChapterCompleted(p CourseProgress, ch course.Chapter) bool {
	for _, s := range ch.Slides {
		if !p.CompletedSlideIDs.Has(s.ID) {
			return false
		}
	}
	return true
}

func deriveCourse(cat *course.Catalog, slides IDSet) CourseProgress {
	p := CourseProgress{
		CompletedSlideIDs:   slides,
		CompletedChapterIDs: make(IDSet),
	}
	for _, ch := range cat.Chapters() {
		if ChapterCompleted(p, ch) {
			p.CompletedChapterIDs[ch.ID] = struct{}{}
		}
	}
	return p
}

// DaySet is a set of completed sprint days, encoded as a sorted JSON array.
type DaySet map[int]struct{}

func NewDaySet(days ...int) DaySet {
	s := make(DaySet, len(days))
	for _, d := range days {
		s[d] = struct{}{}
	}
	return s
}

func (s DaySet) Has(day int) bool {
	_, ok := s[day]
	return ok
}

func (s DaySet) Sorted() []int {
	out := make([]int, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func (s DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s DaySet) clone() DaySet {
	out := make(DaySet, len(s)+1)
	for d := range s {
		out[d] = struct{}{}
	}
	return out
}

func IsDayAccessible(days DaySet, day int) bool {
	return day == 1 || days.Has(day-1)
}

// CompleteDay returns a new set with day added. The input set is never
// modified; a locked day yields ErrNotAccessible.
func CompleteDay(days DaySet, day int) (DaySet, error) {
	if !IsDayAccessible(days, day) {
		return nil, fmt.Errorf("day %d: %w", day, ErrNotAccessible)
	}
	out := days.clone()
	out[day] = struct{}{}
	return out, nil
}

// Streak counts consecutive calendar days with at least one completion,
// ending at today in today's location. No completion today means 0.
func Streak(completions []time.Time, today time.Time) int {
	loc := today.Location()

	type date struct {
		y int
		m time.Month
		d int
	}
	seen := make(map[date]bool, len(completions))
	for _, c := range completions {
		y, m, d := c.In(loc).Date()
		seen[date{y, m, d}] = true
	}

	y, m, d := today.Date()
	cur := time.Date(y, m, d, 12, 0, 0, 0, loc)

	n := 0
	for {
		y, m, d := cur.Date()
		if !seen[date{y, m, d}] {
			return n
		}
		n++
		cur = cur.AddDate(0, 0, -1)
	}
}

// ParseDay converts a path segment to a day number within [1, total].
func ParseDay(raw string, total int) (int, error) {
	day, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("day must be an integer, got %q", raw)
	}
	if err := validate.CheckVar("day", day, fmt.Sprintf("min=1,max=%d", total)); err != nil {
		return 0, err
	}
	return day, nil
}
