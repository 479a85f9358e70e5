package web

import (
	"net/http"
	"net/url"
	"testing"
)

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	expectStatus(t, env.get("/login", nil), http.StatusOK)

	w := env.post("/login", url.Values{"username": {"admin"}, "password": {"wrong"}}, nil)
	expectStatus(t, w, http.StatusBadRequest)

	w = env.post("/login", url.Values{
		"username": {"admin"},
		"password": {"hunter22"},
		"redirect": {"/admin/timers/"},
	}, nil)
	expectRedirect(t, w, "/admin/timers/")

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("no session cookie set")
	}
	expectStatus(t, env.get("/admin/timers/", session), http.StatusOK)

	w = env.get("/logout", session)
	expectRedirect(t, w, "/login?message=logged_out")
	expectRedirect(t, env.get("/admin/", session), "/login?redirect=%2Fadmin%2F")
}

func TestSafeRedirect(t *testing.T) {
	cases := map[string]string{
		"":                     "/admin/",
		"/admin/commands/":     "/admin/commands/",
		"//evil.example/":      "/admin/",
		"https://evil.example": "/admin/",
		"/\\evil":              "/admin/",
	}
	for in, want := range cases {
		if got := safeRedirect(in); got != want {
			t.Errorf("safeRedirect(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)
	w := env.get("/ping", nil)
	expectStatus(t, w, http.StatusOK)
	if w.Body.String() != "pong" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}
