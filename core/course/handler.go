package course

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/members-portal/api/web"
)

func HandleList(cat *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, cat.Chapters(), http.StatusOK)
	}
}
