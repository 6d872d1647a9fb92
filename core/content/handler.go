package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/api/weberr"
)

func HandleList(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		typ := web.Param(r, "type")

		items, err := repo.ListByType(ctx, typ)
		if err != nil {
			return fmt.Errorf("listing content[%s]: %w", typ, err)
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}

func HandleShow(repo *Repository) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		typ := web.Param(r, "type")
		slug := web.Param(r, "slug")

		it, err := repo.GetBySlug(ctx, typ, slug)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(fmt.Errorf("content[%s/%s]: %w", typ, slug, err))
			}
			return fmt.Errorf("fetching content[%s/%s]: %w", typ, slug, err)
		}

		return web.Respond(ctx, w, it, http.StatusOK)
	}
}
