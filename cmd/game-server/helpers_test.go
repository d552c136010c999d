package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ASAPmarius/WebBackend/internal/auth"
	"github.com/ASAPmarius/WebBackend/internal/store"
)

func TestRequestTokenSources(t *testing.T) {
	mk := func() *http.Request {
		return httptest.NewRequest(http.MethodGet, "/active-game", nil)
	}

	r := mk()
	r.AddCookie(&http.Cookie{Name: "auth_token", Value: "from-cookie"})
	if got := requestToken(r); got != "from-cookie" {
		t.Errorf("cookie token = %q", got)
	}

	r = mk()
	r.Header.Set("Authorization", "Bearer from-header")
	if got := requestToken(r); got != "from-header" {
		t.Errorf("header token = %q", got)
	}

	r = httptest.NewRequest(http.MethodPost, "/disconnect-from-game?auth_token=from-query", nil)
	if got := requestToken(r); got != "from-query" {
		t.Errorf("query token = %q", got)
	}

	// Cookie wins over the other sources.
	r = httptest.NewRequest(http.MethodGet, "/active-game?auth_token=from-query", nil)
	r.AddCookie(&http.Cookie{Name: "auth_token", Value: "from-cookie"})
	r.Header.Set("Authorization", "Bearer from-header")
	if got := requestToken(r); got != "from-cookie" {
		t.Errorf("precedence token = %q", got)
	}

	if got := requestToken(mk()); got != "" {
		t.Errorf("empty request token = %q", got)
	}
}

func TestAuthMiddlewarePassesClaims(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var got *auth.Claims
	handler := authMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = claimsFrom(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/create-game", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got == nil || got.UserID != 42 || got.UserName != "alice" {
		t.Errorf("claims = %+v", got)
	}
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	forged, err := auth.NewTokenIssuer("other-secret", time.Hour).Issue(42, "alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	handler := authMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with forged token")
	}))
	req := httptest.NewRequest(http.MethodPost, "/create-game", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUserToPayloadHidesPassword(t *testing.T) {
	bio := "hello"
	u := &store.User{
		ID:             7,
		Username:       "alice",
		Password:       "$2a$10$secret",
		ProfilePicture: []byte{1, 2, 3},
		Bio:            &bio,
	}

	p := userToPayload(u, false)
	if p.ProfilePicture != nil {
		t.Error("picture included when not requested")
	}
	if p.ID != 7 || p.Username != "alice" || p.Bio == nil || *p.Bio != "hello" {
		t.Errorf("payload = %+v", p)
	}

	p = userToPayload(u, true)
	if p.ProfilePicture == nil || *p.ProfilePicture == "" {
		t.Error("picture missing when requested")
	}
}
