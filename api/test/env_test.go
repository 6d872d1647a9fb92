package test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/members-portal/api"
	"github.com/irsalhamdi/members-portal/core/ask"
	"github.com/irsalhamdi/members-portal/core/auth"
	"github.com/irsalhamdi/members-portal/core/content"
	"github.com/irsalhamdi/members-portal/core/course"
	"github.com/irsalhamdi/members-portal/core/order"
	"github.com/irsalhamdi/members-portal/core/progress"
	"github.com/irsalhamdi/members-portal/core/video"
	"github.com/irsalhamdi/members-portal/rate"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

const (
	testToken     = "integration-token"
	webhookSecret = "whsec_test"
)

var contentFiles = map[string]string{
	"blog/hello.md":   "---\ntitle: Hello\ndate: 2024-05-01\n---\n# Hi\n",
	"blog/draft.md":   "---\ntitle: Draft\npublished: false\n---\nsecret\n",
	"sprint/day-1.md": "---\ntitle: Day one\n---\nStart here.\n",
	"sprint/day-2.md": "---\ntitle: Day two\n---\nKeep going.\n",
	"book/book.md":    "The whole book.",
}

var chapters = []course.Chapter{
	{ID: "intro", Title: "Intro", Part: 1, Slides: []course.Slide{{ID: "s1"}, {ID: "s2"}}},
	{ID: "money", Title: "Money", Part: 2, Slides: []course.Slide{{ID: "s3"}}},
}

type TestEnv struct {
	*httptest.Server
	Videos *mockBunny
	LLM    *mockLLM
	Paypal *mockPaypal
	Stripe *mockStripe
	Ledger *order.MemoryLedger
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	root := t.TempDir()
	for name, body := range contentFiles {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	catalog, err := course.New(chapters)
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}

	env := &TestEnv{
		Videos: &mockBunny{},
		LLM:    &mockLLM{},
		Paypal: &mockPaypal{},
		Stripe: &mockStripe{},
		Ledger: order.NewMemoryLedger(),
	}

	bunnySrv := httptest.NewServer(env.Videos.handle())
	t.Cleanup(bunnySrv.Close)
	llmSrv := httptest.NewServer(env.LLM.handle())
	t.Cleanup(llmSrv.Close)
	paypalSrv := httptest.NewServer(env.Paypal.handle())
	t.Cleanup(paypalSrv.Close)
	stripeSrv := httptest.NewServer(env.Stripe.handle())
	t.Cleanup(stripeSrv.Close)

	pp, err := paypal.NewClient("client", "secret", paypalSrv.URL)
	if err != nil {
		t.Fatalf("building paypal client: %v", err)
	}

	strp := &stripecl.API{}
	strp.Init("sk_test_123", &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(stripeSrv.URL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		}),
	})

	fetcher := video.NewBunnyClient(bunnySrv.Client(), video.BunnyConfig{
		BaseURL:   bunnySrv.URL,
		LibraryID: "lib-1",
		APIKey:    "bunny-key",
		CDNHost:   "cdn.example.com",
	})

	book, err := ask.LoadBook(filepath.Join(root, "book", "book.md"))
	if err != nil {
		t.Fatal(err)
	}
	llm := ask.NewClient(llmSrv.Client(), ask.ClientConfig{BaseURL: llmSrv.URL, APIKey: "llm-key", Model: "test-model"})

	limiter := rate.NewLimiter(100, time.Minute, 100)
	t.Cleanup(limiter.Close)

	sm := scs.New()
	sm.Lifetime = time.Hour

	env.Server = httptest.NewServer(api.APIMux(api.APIConfig{
		Log:        log,
		Session:    sm,
		TestToken:  testToken,
		Content:    content.NewRepository(root),
		Catalog:    catalog,
		Progress:   progress.NewStore(log, progress.NewMemoryRepository(), catalog, 30, nil),
		Issuer:     video.NewIssuer("lib-1", "bunny-key", "cdn.example.com", 24*time.Hour, nil),
		Videos:     video.NewCache(log, fetcher, 5*time.Minute, nil),
		Proxy:      ask.NewProxy(log, llm, book),
		AskLimiter: limiter,
		Ledger:     env.Ledger,
		Membership: order.Membership{
			Name:       "Members portal",
			Price:      99,
			SuccessURL: "http://localhost/success",
			CancelURL:  "http://localhost/canceled",
		},
		Paypal:        pp,
		Stripe:        strp,
		WebhookSecret: webhookSecret,
		Providers:     map[string]auth.Provider{},
	}))
	t.Cleanup(env.Server.Close)

	return env
}

// Do sends a request, authenticated with the test token when authed is set.
func (env *TestEnv) Do(t *testing.T, method, path string, body io.Reader, authed bool) *http.Response {
	t.Helper()

	r, err := http.NewRequest(method, env.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if authed {
		r.Header.Set(auth.TestTokenHeader, testToken)
	}

	w, err := env.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Body.Close() })
	return w
}

func expectStatus(t *testing.T, w *http.Response, want int) {
	t.Helper()
	if w.StatusCode != want {
		b, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: expected status %d, got %d: %s", w.Request.Method, w.Request.URL.Path, want, w.StatusCode, b)
	}
}
