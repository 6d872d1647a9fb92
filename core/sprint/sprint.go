// Package sprint serves the days of the fixed-length sprint course.
package sprint

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/api/weberr"
	"github.com/irsalhamdi/members-portal/core/claims"
	"github.com/irsalhamdi/members-portal/core/content"
	"github.com/irsalhamdi/members-portal/core/progress"
)

// ContentType is the content directory holding one file per day.
const ContentType = "sprint"

func Slug(day int) string { return fmt.Sprintf("day-%d", day) }

// Day is one sprint day as seen by a member. Content is empty while the
// day is locked.
type Day struct {
	progress.DayState
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
}

type Service struct {
	repo  *content.Repository
	store *progress.Store
}

func NewService(repo *content.Repository, store *progress.Store) *Service {
	return &Service{repo: repo, store: store}
}

// Day loads a day with its state recomputed from stored completions.
func (s *Service) Day(ctx context.Context, userID string, day int) (Day, error) {
	it, err := s.repo.GetBySlug(ctx, ContentType, Slug(day))
	if err != nil {
		return Day{}, err
	}

	st, err := s.store.DayState(ctx, userID, day)
	if err != nil {
		return Day{}, err
	}

	d := Day{
		DayState:    st,
		Title:       it.Frontmatter.Title,
		Description: it.Frontmatter.Description,
	}
	if st.IsAccessible {
		d.Content = it.Content
	}
	return d, nil
}

func HandleShow(svc *Service) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		n, err := progress.ParseDay(web.Param(r, "dayNumber"), svc.store.Days())
		if err != nil {
			return weberr.BadRequest(err)
		}

		d, err := svc.Day(ctx, clm.UserID, n)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				return weberr.NotFound(fmt.Errorf("sprint day[%d]: %w", n, err))
			}
			return progress.DayError(err)
		}

		resp := struct {
			Day Day `json:"day"`
		}{d}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}
