package web

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-while/go-tyggbot/internal/models"
)

func TestGroupModerators(t *testing.T) {
	users := []*models.User{
		{Username: "boss", Level: 2500},
		{Username: "admin", Level: 2000},
		{Username: "streamer", Level: 1999},
		{Username: "supermod", Level: 1000},
		{Username: "mod", Level: 999},
		{Username: "newmod", Level: 500},
		{Username: "helper", Level: 499},
		{Username: "notable", Level: 101},
	}
	tiers := groupModerators(users)

	want := []struct {
		name  string
		users []string
	}{
		{"Admins", []string{"boss", "admin"}},
		{"Super Moderators/Broadcaster", []string{"streamer", "supermod"}},
		{"Moderators", []string{"mod", "newmod"}},
		{"Notables/Helpers", []string{"helper", "notable"}},
	}
	if len(tiers) != len(want) {
		t.Fatalf("expected %d tiers, got %d", len(want), len(tiers))
	}
	for i, w := range want {
		if tiers[i].Name != w.name {
			t.Errorf("tier %d: got %q, want %q", i, tiers[i].Name, w.name)
		}
		if len(tiers[i].Users) != len(w.users) {
			t.Fatalf("tier %s: got %d users, want %d", w.name, len(tiers[i].Users), len(w.users))
		}
		for j, name := range w.users {
			if tiers[i].Users[j].Username != name {
				t.Errorf("tier %s user %d: got %s, want %s", w.name, j, tiers[i].Users[j].Username, name)
			}
		}
	}
}

func TestModeratorsPage(t *testing.T) {
	env := newTestEnv(t)
	env.login("helperbob", 300)

	w := env.get("/admin/moderators/", env.admin)
	expectStatus(t, w, http.StatusOK)
	body := w.Body.String()

	admins := strings.Index(body, "<h2>Admins</h2>")
	helpers := strings.Index(body, "<h2>Notables/Helpers</h2>")
	if admins < 0 || helpers < 0 || admins > helpers {
		t.Fatalf("tiers missing or out of order:\n%s", body)
	}
	if !strings.Contains(body[helpers:], "helperbob") {
		t.Error("helper not in Notables/Helpers tier")
	}
	if strings.Contains(body, ">viewer<") {
		t.Error("level 100 user must not be listed")
	}
}
