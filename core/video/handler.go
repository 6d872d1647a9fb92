package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/api/weberr"
	"github.com/irsalhamdi/members-portal/core/claims"
	"github.com/irsalhamdi/members-portal/validate"
)

func HandleToken(issuer *Issuer) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if _, err := claims.Get(ctx); err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		videoID := web.Param(r, "videoId")
		if err := validate.CheckVar("videoId", videoID, "required,max=64,printascii,excludesall=/?#"); err != nil {
			return weberr.BadRequest(err)
		}

		return web.Respond(ctx, w, issuer.Issue(videoID), http.StatusOK)
	}
}

type listResponse struct {
	Videos      []Video    `json:"videos"`
	Cached      bool       `json:"cached"`
	CachedAt    *time.Time `json:"cachedAt,omitempty"`
	TotalCount  *int       `json:"totalCount,omitempty"`
	CurrentPage *int       `json:"currentPage,omitempty"`
}

func HandleList(cache *Cache) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if _, err := claims.Get(ctx); err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		res, err := cache.List(ctx)
		if err != nil {
			var ue *UpstreamError
			if errors.As(err, &ue) {
				return weberr.BadGateway(err, weberr.WithFields(map[string]interface{}{
					"endpoint": ue.Endpoint,
					"status":   ue.Status,
				}))
			}
			return fmt.Errorf("listing videos: %w", err)
		}

		resp := listResponse{Videos: res.Videos, Cached: res.Cached}
		if res.Cached {
			at := res.Timestamp
			resp.CachedAt = &at
		} else {
			total, page := res.TotalCount, res.CurrentPage
			resp.TotalCount = &total
			resp.CurrentPage = &page
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
}
