package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/models"
	"github.com/go-while/go-tyggbot/internal/notify"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func validTimerValues() url.Values {
	return url.Values{
		"name":             {"  follow "},
		"interval_online":  {"5"},
		"interval_offline": {"30"},
		"message_type":     {"say"},
		"message":          {"  Follow the stream!  "},
	}
}

func TestTimerCreateAndEdit(t *testing.T) {
	env := newTestEnv(t)

	w := env.post("/admin/timers/create", validTimerValues(), env.admin)
	expectRedirect(t, w, "/admin/timers/")

	timers := env.timers()
	if len(timers) != 1 {
		t.Fatalf("expected 1 timer, got %d", len(timers))
	}
	tm := timers[0]
	if tm.Name != "follow" || tm.Action.Message != "Follow the stream!" || tm.IntervalOffline != 30 {
		t.Fatalf("unexpected timer: %+v", tm)
	}

	w = env.get("/admin/timers/", env.admin)
	if !strings.Contains(w.Body.String(), `id="created"`) {
		t.Fatal("created notice missing")
	}

	form := validTimerValues()
	form.Set("id", itoa(tm.ID))
	form.Set("message_type", "me")
	form.Set("interval_online", "0")
	w = env.post("/admin/timers/create", form, env.admin)
	expectRedirect(t, w, "/admin/timers/")

	timers = env.timers()
	if len(timers) != 1 {
		t.Fatalf("edit must not insert, have %d timers", len(timers))
	}
	if timers[0].Action.Type != models.ActionMe || timers[0].IntervalOnline != 0 {
		t.Fatalf("timer not updated: %+v", timers[0])
	}

	w = env.get("/admin/timers/", env.admin)
	body := w.Body.String()
	if !strings.Contains(body, `id="edited"`) || strings.Contains(body, `id="created"`) {
		t.Fatalf("expected only the edited notice:\n%s", body)
	}

	msgs := env.published.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.Event != notify.EventTimerUpdate || m.Data["timer_id"] != tm.ID {
			t.Fatalf("unexpected notification: %+v", m)
		}
	}
}

func TestTimerEditMissingIDRedirects(t *testing.T) {
	env := newTestEnv(t)

	form := validTimerValues()
	form.Set("id", "777")
	w := env.post("/admin/timers/create", form, env.admin)
	expectRedirect(t, w, "/admin/timers/")

	if n := len(env.timers()); n != 0 {
		t.Fatalf("missing id must not write, have %d timers", n)
	}
	if n := len(env.published.messages()); n != 0 {
		t.Fatalf("missing id must not notify, got %d", n)
	}
}

func TestTimerCreateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	tests := map[string]func(url.Values){
		"missing name":        func(v url.Values) { v.Del("name") },
		"missing message":     func(v url.Values) { v.Del("message") },
		"negative online":     func(v url.Values) { v.Set("interval_online", "-1") },
		"offline not numeric": func(v url.Values) { v.Set("interval_offline", "soon") },
		"whisper not allowed": func(v url.Values) { v.Set("message_type", "whisper") },
		"blank message":       func(v url.Values) { v.Set("message", "   ") },
		"bad id":              func(v url.Values) { v.Set("id", "x") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			form := validTimerValues()
			mutate(form)
			expectStatus(t, env.post("/admin/timers/create", form, env.admin), http.StatusBadRequest)
		})
	}
	if n := len(env.timers()); n != 0 {
		t.Fatalf("invalid input wrote %d timers", n)
	}
}

func TestTimerEditView(t *testing.T) {
	env := newTestEnv(t)
	tm := &models.Timer{Name: "discord", IntervalOnline: 10, Action: models.Action{Type: "say", Message: "join us"}, Enabled: true}
	env.inTx(func(tx *database.Tx) error { return tx.InsertTimer(tm) })

	w := env.get("/admin/timers/edit/"+itoa(tm.ID), env.admin)
	expectStatus(t, w, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, `name="id" value="`+itoa(tm.ID)+`"`) || !strings.Contains(body, "join us") {
		t.Fatalf("form not prefilled:\n%s", body)
	}

	expectStatus(t, env.get("/admin/timers/edit/999", env.admin), http.StatusNotFound)
}
