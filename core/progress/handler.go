package progress

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/api/weberr"
	"github.com/irsalhamdi/members-portal/core/claims"
)

func HandleShowCourse(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		p, err := store.CourseProgress(ctx, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCompleteSlide(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		slideID := web.Param(r, "slide_id")
		p, err := store.MarkSlideComplete(ctx, clm.UserID, slideID)
		if err != nil {
			if errors.Is(err, ErrUnknownSlide) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleShowSprint(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		sp, err := store.SprintProgress(ctx, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, sp, http.StatusOK)
	}
}

// HandleCompleteDay takes no body: whether the day may be completed is
// decided from stored progress only.
func HandleCompleteDay(store *Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		day, err := ParseDay(web.Param(r, "day"), store.Days())
		if err != nil {
			return weberr.BadRequest(err)
		}

		days, err := store.MarkDayComplete(ctx, clm.UserID, day)
		if err != nil {
			return DayError(err)
		}

		resp := struct {
			CompletedDays DaySet `json:"completedDays"`
		}{days}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}

// DayError maps the sprint gating errors onto web errors.
func DayError(err error) error {
	var re *RangeError
	switch {
	case errors.As(err, &re):
		return weberr.BadRequest(err)
	case errors.Is(err, ErrNotAccessible):
		return weberr.Locked(err)
	default:
		return fmt.Errorf("sprint progress: %w", err)
	}
}
