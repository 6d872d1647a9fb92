package config

import "time"

type Config struct {
	Web      Web
	DB       DB
	Redis    Redis
	Progress Progress
	Content  Content
	Video    Video
	LLM      LLM
	Auth     Auth
	Oauth    Oauth
	Stripe   Stripe
	Paypal   Paypal
	Cors     Cors
	Rate     Rate
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:120s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:portal"`
	MaxIdleConns int    `conf:"default:3"`
	MaxOpenConns int    `conf:"default:5"`
	DisableTLS   bool   `conf:"default:true"`
}

type Redis struct {
	Address  string `conf:"default:localhost:6379"`
	Password string `conf:"mask"`
	DB       int    `conf:"default:0"`
}

type Progress struct {
	// Store selects the persistence backend: postgres, redis or memory.
	Store string `conf:"default:postgres"`
}

type Content struct {
	Root       string `conf:"default:./content"`
	Chapters   string `conf:"default:./content/course/chapters.yml"`
	SprintDays int    `conf:"default:30"`
}

type Video struct {
	LibraryID   string        `conf:"required"`
	APIKey      string        `conf:"required,mask"`
	CDNHost     string        `conf:"required"`
	CatalogURL  string        `conf:"default:https://video.bunnycdn.com"`
	PageSize    int           `conf:"default:100"`
	CacheTTL    time.Duration `conf:"default:5m"`
	TokenWindow time.Duration `conf:"default:24h"`
}

type LLM struct {
	URL       string        `conf:"default:https://api.anthropic.com"`
	APIKey    string        `conf:"required,mask"`
	Model     string        `conf:"default:claude-3-5-sonnet-latest"`
	MaxTokens int           `conf:"default:1024"`
	BookPath  string        `conf:"default:./content/book/book.md"`
	Timeout   time.Duration `conf:"default:90s"`
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`
	// TestToken enables the X-Test-Token credential when non-empty.
	TestToken string `conf:"mask"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:10s"`
	LoginRedirectURL string        `conf:"default:/"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string
}

type Stripe struct {
	APISecret       string `conf:"mask"`
	WebhookSecret   string `conf:"mask"`
	SuccessURL      string `conf:"default:http://localhost:3000/success"`
	CancelURL       string `conf:"default:http://localhost:3000/canceled"`
	MembershipName  string `conf:"default:Members portal"`
	MembershipPrice int    `conf:"default:99"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api-m.sandbox.paypal.com"`
}

type Cors struct {
	Origin string
}

type Rate struct {
	AskBurst    int           `conf:"default:3"`
	AskInterval time.Duration `conf:"default:10s"`
	Expiry      time.Duration `conf:"default:10m"`
}
