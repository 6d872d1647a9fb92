package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/api/weberr"
	"github.com/irsalhamdi/members-portal/core/claims"
)

const (
	TestTokenHeader = "X-Test-Token"
	TestUserID      = "test-user"
)

const (
	userIDKey = "userID"
	emailKey  = "email"
	stateKey  = "oauthState"
)

// LoadSession loads the session into the context. Unlike scs.LoadAndSave it
// does not buffer the response, so streaming handlers keep flushing;
// handlers that change the session call commit before writing.
func LoadSession(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var token string
			if c, err := r.Cookie(sm.Cookie.Name); err == nil {
				token = c.Value
			}

			ctx, err := sm.Load(ctx, token)
			if err != nil {
				return fmt.Errorf("loading session: %w", err)
			}

			return handler(ctx, w, r.WithContext(ctx))
		}
		return h
	}
	return m
}

// Authenticate accepts either a signed-in session or, when testToken is
// configured, a matching X-Test-Token header.
func Authenticate(sm *scs.SessionManager, testToken string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if testToken != "" {
				got := r.Header.Get(TestTokenHeader)
				if got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(testToken)) == 1 {
					ctx = claims.Set(ctx, claims.Claims{UserID: TestUserID, Source: claims.SourceTest})
					return handler(ctx, w, r)
				}
			}

			userID := sm.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			ctx = claims.Set(ctx, claims.Claims{
				UserID: userID,
				Email:  sm.GetString(ctx, emailKey),
				Source: claims.SourceSession,
			})
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func HandleLogout(sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := sm.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}
		if err := commit(ctx, w, sm); err != nil {
			return err
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func commit(ctx context.Context, w http.ResponseWriter, sm *scs.SessionManager) error {
	switch sm.Status(ctx) {
	case scs.Modified:
		token, expiry, err := sm.Commit(ctx)
		if err != nil {
			return fmt.Errorf("committing session: %w", err)
		}
		writeCookie(w, sm, token, expiry)
	case scs.Destroyed:
		writeCookie(w, sm, "", time.Time{})
	}
	return nil
}

func writeCookie(w http.ResponseWriter, sm *scs.SessionManager, token string, expiry time.Time) {
	c := &http.Cookie{
		Name:     sm.Cookie.Name,
		Value:    token,
		Path:     sm.Cookie.Path,
		Domain:   sm.Cookie.Domain,
		Secure:   sm.Cookie.Secure,
		HttpOnly: sm.Cookie.HttpOnly,
		SameSite: sm.Cookie.SameSite,
	}

	switch {
	case expiry.IsZero():
		c.Expires = time.Unix(1, 0)
		c.MaxAge = -1
	case sm.Cookie.Persist:
		c.Expires = time.Unix(expiry.Unix()+1, 0)
		c.MaxAge = int(time.Until(expiry).Seconds() + 1)
	}

	w.Header().Add("Set-Cookie", c.String())
	w.Header().Add("Vary", "Cookie")
}
