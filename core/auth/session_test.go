package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/members-portal/api/weberr"
	"github.com/irsalhamdi/members-portal/core/claims"
)

func TestAuthenticate(t *testing.T) {
	sm := scs.New()

	var got claims.Claims
	next := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			t.Fatalf("claims missing from context: %v", err)
		}
		got = clm
		return nil
	}

	h := Authenticate(sm, "secret-test-token")(next)

	t.Run("session user", func(t *testing.T) {
		ctx, err := sm.Load(context.Background(), "")
		if err != nil {
			t.Fatal(err)
		}
		sm.Put(ctx, userIDKey, "google:123")
		sm.Put(ctx, emailKey, "member@example.com")

		r := httptest.NewRequest(http.MethodGet, "/videos", nil)
		if err := h(ctx, httptest.NewRecorder(), r); err != nil {
			t.Fatalf("expected session to authenticate, got %v", err)
		}
		if got.UserID != "google:123" || got.Source != claims.SourceSession || got.Email != "member@example.com" {
			t.Errorf("unexpected claims %+v", got)
		}
	})

	t.Run("test token", func(t *testing.T) {
		ctx, err := sm.Load(context.Background(), "")
		if err != nil {
			t.Fatal(err)
		}

		r := httptest.NewRequest(http.MethodGet, "/videos", nil)
		r.Header.Set(TestTokenHeader, "secret-test-token")
		if err := h(ctx, httptest.NewRecorder(), r); err != nil {
			t.Fatalf("expected test token to authenticate, got %v", err)
		}
		if got.UserID != TestUserID || got.Source != claims.SourceTest {
			t.Errorf("unexpected claims %+v", got)
		}
	})

	t.Run("wrong test token", func(t *testing.T) {
		ctx, err := sm.Load(context.Background(), "")
		if err != nil {
			t.Fatal(err)
		}

		r := httptest.NewRequest(http.MethodGet, "/videos", nil)
		r.Header.Set(TestTokenHeader, "guess")
		err = h(ctx, httptest.NewRecorder(), r)
		if _, status, ok := weberr.Response(err); !ok || status != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %v", err)
		}
	})
}

func TestAuthenticateTestTokenDisabled(t *testing.T) {
	sm := scs.New()
	called := false
	h := Authenticate(sm, "")(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		called = true
		return nil
	})

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	r := httptest.NewRequest(http.MethodGet, "/videos", nil)
	r.Header.Set(TestTokenHeader, "")
	err = h(ctx, httptest.NewRecorder(), r)
	if _, status, ok := weberr.Response(err); !ok || status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if called {
		t.Fatal("handler must not run without credentials")
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	sm := scs.New()
	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	sm.Put(ctx, userIDKey, "google:123")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	if err := HandleLogout(sm)(ctx, w, r); err != nil {
		t.Fatal(err)
	}

	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}

	res := w.Result()
	var found bool
	for _, c := range res.Cookies() {
		if c.Name == sm.Cookie.Name {
			found = true
			if c.Value != "" || c.MaxAge >= 0 {
				t.Errorf("expected an expired cookie, got %+v", c)
			}
		}
	}
	if !found {
		t.Error("expected the session cookie to be cleared")
	}
}
