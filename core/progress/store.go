package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/irsalhamdi/members-portal/core/course"
	"github.com/sirupsen/logrus"
)

type DayCompletion struct {
	Day         int       `db:"day"`
	CompletedAt time.Time `db:"completed_at"`
}

// Repository persists completion events. Every insert must be idempotent:
// adding an existing slide or day keeps the first record.
type Repository interface {
	CompletedSlides(ctx context.Context, userID string) ([]string, error)
	AddSlide(ctx context.Context, userID, slideID string, at time.Time) error
	DayCompletions(ctx context.Context, userID string) ([]DayCompletion, error)
	AddDay(ctx context.Context, userID string, day int, at time.Time) error
}

// Store owns the unlock and completion rules. Gating decisions are always
// taken from the repository, never from client input.
type Store struct {
	log     logrus.FieldLogger
	repo    Repository
	catalog *course.Catalog
	days    int
	now     func() time.Time
}

func NewStore(log logrus.FieldLogger, repo Repository, catalog *course.Catalog, days int, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		log:     log,
		repo:    repo,
		catalog: catalog,
		days:    days,
		now:     now,
	}
}

// Days is the sprint length.
func (s *Store) Days() int { return s.days }

func (s *Store) CourseProgress(ctx context.Context, userID string) (CourseProgress, error) {
	ids, err := s.repo.CompletedSlides(ctx, userID)
	if err != nil {
		return CourseProgress{}, fmt.Errorf("fetching completed slides of user[%s]: %w", userID, err)
	}
	return deriveCourse(s.catalog, NewIDSet(ids...)), nil
}

func (s *Store) MarkSlideComplete(ctx context.Context, userID, slideID string) (CourseProgress, error) {
	if !s.catalog.HasSlide(slideID) {
		return CourseProgress{}, fmt.Errorf("slide[%s]: %w", slideID, ErrUnknownSlide)
	}

	before, err := s.CourseProgress(ctx, userID)
	if err != nil {
		return CourseProgress{}, err
	}
	if before.CompletedSlideIDs.Has(slideID) {
		return before, nil
	}

	if err := s.repo.AddSlide(ctx, userID, slideID, s.now().UTC()); err != nil {
		return CourseProgress{}, fmt.Errorf("storing slide[%s] of user[%s]: %w", slideID, userID, err)
	}

	after, err := s.CourseProgress(ctx, userID)
	if err != nil {
		return CourseProgress{}, err
	}

	for _, ch := range s.catalog.ChaptersContaining(slideID) {
		if after.CompletedChapterIDs.Has(ch.ID) && !before.CompletedChapterIDs.Has(ch.ID) {
			s.log.WithFields(logrus.Fields{"user_id": userID, "chapter_id": ch.ID}).Info("chapter completed")
		}
	}
	return after, nil
}

// IsChapterCompleted is false for chapters outside the course.
func (s *Store) IsChapterCompleted(p CourseProgress, chapterID string) bool {
	ch, ok := s.catalog.Chapter(chapterID)
	if !ok {
		return false
	}
	return ChapterCompleted(p, ch)
}

type SprintProgress struct {
	CompletedDays DaySet `json:"completedDays"`
	Streak        int    `json:"streak"`
	TotalDays     int    `json:"totalDays"`
}

type DayState struct {
	Day          int  `json:"day"`
	IsCompleted  bool `json:"isCompleted"`
	IsAccessible bool `json:"isAccessible"`
}

func (s *Store) SprintProgress(ctx context.Context, userID string) (SprintProgress, error) {
	cs, err := s.repo.DayCompletions(ctx, userID)
	if err != nil {
		return SprintProgress{}, fmt.Errorf("fetching completed days of user[%s]: %w", userID, err)
	}

	days := make(DaySet, len(cs))
	at := make([]time.Time, 0, len(cs))
	for _, c := range cs {
		days[c.Day] = struct{}{}
		at = append(at, c.CompletedAt)
	}

	return SprintProgress{
		CompletedDays: days,
		Streak:        Streak(at, s.now()),
		TotalDays:     s.days,
	}, nil
}

func (s *Store) DayState(ctx context.Context, userID string, day int) (DayState, error) {
	if err := s.checkRange(day); err != nil {
		return DayState{}, err
	}

	sp, err := s.SprintProgress(ctx, userID)
	if err != nil {
		return DayState{}, err
	}

	return DayState{
		Day:          day,
		IsCompleted:  sp.CompletedDays.Has(day),
		IsAccessible: IsDayAccessible(sp.CompletedDays, day),
	}, nil
}

// MarkDayComplete applies CompleteDay to the stored set and persists the
// result. A locked day returns ErrNotAccessible and writes nothing.
func (s *Store) MarkDayComplete(ctx context.Context, userID string, day int) (DaySet, error) {
	if err := s.checkRange(day); err != nil {
		return nil, err
	}

	sp, err := s.SprintProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, err := CompleteDay(sp.CompletedDays, day)
	if err != nil {
		return nil, err
	}
	if sp.CompletedDays.Has(day) {
		return next, nil
	}

	if err := s.repo.AddDay(ctx, userID, day, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("storing day[%d] of user[%s]: %w", day, userID, err)
	}
	return next, nil
}

func (s *Store) checkRange(day int) error {
	if day < 1 || day > s.days {
		return &RangeError{Day: day, Max: s.days}
	}
	return nil
}

type RangeError struct {
	Day int
	Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("day %d is outside the sprint (1-%d)", e.Day, e.Max)
}
