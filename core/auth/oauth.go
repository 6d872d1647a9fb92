package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/api/weberr"
	"github.com/irsalhamdi/members-portal/random"
	"golang.org/x/oauth2"
)

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	Name     string
	Config   oauth2.Config
	Verifier *oidc.IDTokenVerifier
}

// MakeProviders runs OIDC discovery for every configured provider. Entries
// without a client id are skipped.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, c := range cfgs {
		if c.Client == "" {
			continue
		}

		p, err := oidc.NewProvider(ctx, c.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider %s: %w", c.Name, err)
		}

		provs[c.Name] = Provider{
			Name: c.Name,
			Config: oauth2.Config{
				ClientID:     c.Client,
				ClientSecret: c.Secret,
				RedirectURL:  c.RedirectURL,
				Endpoint:     p.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			Verifier: p.Verifier(&oidc.Config{ClientID: c.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(sm *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		p, ok := provs[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("provider %q not configured", name))
		}

		state, err := random.StringSecure(32)
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}

		sm.Put(ctx, stateKey, state)
		if err := commit(ctx, w, sm); err != nil {
			return err
		}

		http.Redirect(w, r, p.Config.AuthCodeURL(state), http.StatusFound)
		return nil
	}
}

func HandleOauthCallback(sm *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		p, ok := provs[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("provider %q not configured", name))
		}

		state := sm.PopString(ctx, stateKey)
		if state == "" || r.URL.Query().Get("state") != state {
			return weberr.NotAuthorized(errors.New("oauth state mismatch"))
		}

		tok, err := p.Config.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("exchanging oauth code: %w", err))
		}

		raw, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.NotAuthorized(errors.New("id_token missing from oauth response"))
		}

		idt, err := p.Verifier.Verify(ctx, raw)
		if err != nil {
			return weberr.NotAuthorized(fmt.Errorf("verifying id_token: %w", err))
		}

		var info struct {
			Email string `json:"email"`
		}
		if err := idt.Claims(&info); err != nil {
			return fmt.Errorf("decoding id_token claims: %w", err)
		}

		if err := sm.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}
		sm.Put(ctx, userIDKey, p.Name+":"+idt.Subject)
		sm.Put(ctx, emailKey, info.Email)
		if err := commit(ctx, w, sm); err != nil {
			return err
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
		return nil
	}
}
