package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/irsalhamdi/members-portal/api/middleware"
	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/core/ask"
	"github.com/irsalhamdi/members-portal/core/auth"
	"github.com/irsalhamdi/members-portal/core/content"
	"github.com/irsalhamdi/members-portal/core/course"
	"github.com/irsalhamdi/members-portal/core/order"
	"github.com/irsalhamdi/members-portal/core/progress"
	"github.com/irsalhamdi/members-portal/core/sprint"
	"github.com/irsalhamdi/members-portal/core/video"
	"github.com/irsalhamdi/members-portal/rate"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

// APIConfig carries the collaborators of every route. Paypal and Stripe
// are optional; their routes are only mounted when set.
type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	Session          *scs.SessionManager
	TestToken        string
	Content          *content.Repository
	Catalog          *course.Catalog
	Progress         *progress.Store
	Issuer           *video.Issuer
	Videos           *video.Cache
	Proxy            *ask.Proxy
	AskLimiter       *rate.Limiter
	Ledger           order.Ledger
	Membership       order.Membership
	Paypal           *paypal.Client
	Stripe           *stripecl.API
	WebhookSecret    string
	Providers        map[string]auth.Provider
	LoginRedirectURL string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadSession(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session, cfg.TestToken)

	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/content/{type}", content.HandleList(cfg.Content))
	a.Handle(http.MethodGet, "/content/{type}/{slug}", content.HandleShow(cfg.Content))

	a.Handle(http.MethodGet, "/course/chapters", course.HandleList(cfg.Catalog))
	a.Handle(http.MethodGet, "/course/progress", progress.HandleShowCourse(cfg.Progress), authen)
	a.Handle(http.MethodPost, "/course/slides/{slide_id}/complete", progress.HandleCompleteSlide(cfg.Progress), authen)

	days := sprint.NewService(cfg.Content, cfg.Progress)
	a.Handle(http.MethodGet, "/sprint/progress", progress.HandleShowSprint(cfg.Progress), authen)
	a.Handle(http.MethodGet, "/sprint/{dayNumber}", sprint.HandleShow(days), authen)
	a.Handle(http.MethodPost, "/sprint/{day}/complete", progress.HandleCompleteDay(cfg.Progress), authen)

	a.Handle(http.MethodGet, "/video/{videoId}/token", video.HandleToken(cfg.Issuer), authen)
	a.Handle(http.MethodGet, "/videos", video.HandleList(cfg.Videos), authen)

	a.Handle(http.MethodPost, "/ask", ask.HandleAsk(cfg.Log, cfg.Proxy), authen, middleware.RateLimit(cfg.AskLimiter))

	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.Ledger), authen)
	if cfg.Paypal != nil {
		a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(cfg.Ledger, cfg.Paypal, cfg.Membership), authen)
		a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.Log, cfg.Ledger, cfg.Paypal), authen)
	}
	if cfg.Stripe != nil {
		a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(cfg.Ledger, cfg.Stripe, cfg.Membership), authen)
		a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.Log, cfg.Ledger, cfg.WebhookSecret))
	}

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
