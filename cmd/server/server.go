package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/members-portal/api"
	"github.com/irsalhamdi/members-portal/config"
	"github.com/irsalhamdi/members-portal/core/ask"
	"github.com/irsalhamdi/members-portal/core/auth"
	"github.com/irsalhamdi/members-portal/core/content"
	"github.com/irsalhamdi/members-portal/core/course"
	"github.com/irsalhamdi/members-portal/core/order"
	"github.com/irsalhamdi/members-portal/core/progress"
	"github.com/irsalhamdi/members-portal/core/video"
	"github.com/irsalhamdi/members-portal/database"
	"github.com/irsalhamdi/members-portal/rate"
	"github.com/plutov/paypal/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

type stores struct {
	progress progress.Repository
	ledger   order.Ledger
	closers  []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores wires the persistence named by cfg.Progress.Store. Purchases
// live in postgres unless everything runs in memory.
func openStores(ctx context.Context, logger logrus.FieldLogger, cfg config.Config) (*stores, error) {
	s := &stores{}

	if cfg.Progress.Store == "memory" {
		logger.Warn("progress and purchases are kept in memory")
		s.progress = progress.NewMemoryRepository()
		s.ledger = order.NewMemoryLedger()
		return s, nil
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}
	s.closers = append(s.closers, db.Close)

	if err := database.StatusCheck(ctx, db); err != nil {
		s.Close()
		return nil, fmt.Errorf("db not reachable: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		s.Close()
		return nil, err
	}
	s.ledger = order.NewPostgresLedger(db)

	switch cfg.Progress.Store {
	case "postgres":
		s.progress = progress.NewPostgresRepository(db)

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, rdb.Close)

		if err := rdb.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis not reachable: %w", err)
		}
		s.progress = progress.NewRedisRepository(rdb)

	default:
		s.Close()
		return nil, fmt.Errorf("unknown progress store %q", cfg.Progress.Store)
	}

	return s, nil
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "PORTAL"
	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := openStores(startCtx, logger, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	catalog, err := course.Load(cfg.Content.Chapters)
	if err != nil {
		return fmt.Errorf("failed to load course chapters: %w", err)
	}

	book, err := ask.LoadBook(cfg.LLM.BookPath)
	if err != nil {
		return err
	}

	llmTransport := http.DefaultTransport.(*http.Transport).Clone()
	llmTransport.ResponseHeaderTimeout = cfg.LLM.Timeout
	llm := ask.NewClient(&http.Client{Transport: llmTransport}, ask.ClientConfig{
		BaseURL:   cfg.LLM.URL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
	})

	bunny := video.NewBunnyClient(nil, video.BunnyConfig{
		BaseURL:   cfg.Video.CatalogURL,
		LibraryID: cfg.Video.LibraryID,
		APIKey:    cfg.Video.APIKey,
		CDNHost:   cfg.Video.CDNHost,
		PageSize:  cfg.Video.PageSize,
	})

	limiter := rate.NewLimiter(cfg.Rate.AskBurst, cfg.Rate.Expiry, rate.Every(cfg.Rate.AskInterval))
	defer limiter.Close()

	var pp *paypal.Client
	if cfg.Paypal.ClientID != "" {
		pp, err = paypal.NewClient(
			cfg.Paypal.ClientID,
			cfg.Paypal.Secret,
			cfg.Paypal.URL,
		)
		if err != nil {
			return fmt.Errorf("failed to build the paypal client: %w", err)
		}

		if _, err = pp.GetAccessToken(startCtx); err != nil {
			return fmt.Errorf("failed to get the first paypal access token: %w", err)
		}
	}

	var strp *stripecl.API
	if cfg.Stripe.APISecret != "" {
		strp = &stripecl.API{}
		strp.Init(cfg.Stripe.APISecret, nil)
	}

	ctx, cancelDiscovery := context.WithTimeout(context.Background(), cfg.Oauth.DiscoveryTimeout)
	defer cancelDiscovery()
	google := cfg.Oauth.Google
	oauthProvs, err := auth.MakeProviders(ctx, []auth.ProviderConfig{
		{Name: "google", Client: google.Client, Secret: google.Secret, URL: google.URL, RedirectURL: google.RedirectURL},
	})
	if err != nil {
		return fmt.Errorf("failed to discover oauth providers: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Auth.SessionLifetime

	if cfg.Auth.TestToken != "" {
		logger.Warn("test token authentication is enabled")
	}

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		Session:    sessionManager,
		TestToken:  cfg.Auth.TestToken,
		Content:    content.NewRepository(cfg.Content.Root),
		Catalog:    catalog,
		Progress:   progress.NewStore(logger, st.progress, catalog, cfg.Content.SprintDays, nil),
		Issuer:     video.NewIssuer(cfg.Video.LibraryID, cfg.Video.APIKey, cfg.Video.CDNHost, cfg.Video.TokenWindow, nil),
		Videos:     video.NewCache(logger, bunny, cfg.Video.CacheTTL, nil),
		Proxy:      ask.NewProxy(logger, llm, book),
		AskLimiter: limiter,
		Ledger:     st.ledger,
		Membership: order.Membership{
			Name:       cfg.Stripe.MembershipName,
			Price:      cfg.Stripe.MembershipPrice,
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
		},
		Paypal:           pp,
		Stripe:           strp,
		WebhookSecret:    cfg.Stripe.WebhookSecret,
		Providers:        oauthProvs,
		LoginRedirectURL: cfg.Oauth.LoginRedirectURL,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}
