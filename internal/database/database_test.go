package database

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-while/go-tyggbot/internal/models"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	cfg := DefaultDBConfig()
	cfg.DataDir = t.TempDir()
	db, err := OpenDatabase(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	var n int
	if err := db.GetMainDB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 applied migration, got %d", n)
	}
}

func TestParseMigrationFileName(t *testing.T) {
	m, err := parseMigrationFileName("0007_main_add_things.sql")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Version != 7 || m.Type != MigrationTypeMain || m.Description != "add_things" {
		t.Fatalf("unexpected migration: %+v", m)
	}
	for _, bad := range []string{"0001_main.sql", "x_main_a.sql", "0001_other_a.sql", "0001_main_a.txt"} {
		if _, err := parseMigrationFileName(bad); err == nil {
			t.Errorf("expected error for %s", bad)
		}
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.InTx(ctx, func(tx *Tx) error {
		if err := tx.InsertTimer(&models.Timer{Name: "t", Action: models.Action{Type: "say", Message: "hi"}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_ = db.InTx(ctx, func(tx *Tx) error {
		timers, err := tx.ListTimers()
		if err != nil {
			t.Fatalf("ListTimers: %v", err)
		}
		if len(timers) != 0 {
			t.Fatalf("rollback left %d timers", len(timers))
		}
		return nil
	})
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = db.InTx(ctx, func(tx *Tx) error {
			_ = tx.InsertTimer(&models.Timer{Name: "t"})
			panic("oops")
		})
	}()

	_ = db.InTx(ctx, func(tx *Tx) error {
		timers, _ := tx.ListTimers()
		if len(timers) != 0 {
			t.Fatalf("panic left %d timers", len(timers))
		}
		return nil
	})
}

func TestCommandsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	cmd := &models.Command{
		Aliases: "hello|hi", Description: "greets", Level: 100, DelayAll: 5, DelayUser: 15,
		Enabled: true, Action: models.Action{Type: "say", Message: "Hello!"},
	}
	if err := db.InTx(ctx, func(tx *Tx) error { return tx.InsertCommand(cmd) }); err != nil {
		t.Fatalf("InsertCommand: %v", err)
	}
	if !cmd.HasID() || cmd.Data == nil || cmd.Data.CommandID != *cmd.ID {
		t.Fatalf("ids not propagated: %+v", cmd)
	}

	disabled := &models.Command{Aliases: "off", Action: models.Action{Type: "say", Message: "x"}}
	if err := db.InTx(ctx, func(tx *Tx) error { return tx.InsertCommand(disabled) }); err != nil {
		t.Fatalf("InsertCommand disabled: %v", err)
	}

	err := db.InTx(ctx, func(tx *Tx) error {
		got, err := tx.GetCommand(*cmd.ID)
		if err != nil {
			return err
		}
		if got.Aliases != "hello|hi" || got.Action.Message != "Hello!" || got.Data == nil {
			t.Errorf("unexpected command: %+v", got)
		}

		all, err := tx.ListCommands(false)
		if err != nil {
			return err
		}
		enabled, err := tx.ListCommands(true)
		if err != nil {
			return err
		}
		if len(all) != 2 || len(enabled) != 1 {
			t.Errorf("got %d all, %d enabled", len(all), len(enabled))
		}

		aliases, err := tx.CommandAliases()
		if err != nil {
			return err
		}
		if len(aliases) != 2 {
			t.Errorf("expected aliases of both commands, got %v", aliases)
		}

		if _, err := tx.GetCommand(9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
}

func TestTimersUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tm := &models.Timer{Name: "ad", IntervalOnline: 5, IntervalOffline: 30, Enabled: true,
		Action: models.Action{Type: "say", Message: "follow"}}
	if err := db.InTx(ctx, func(tx *Tx) error { return tx.InsertTimer(tm) }); err != nil {
		t.Fatalf("InsertTimer: %v", err)
	}

	tm.Name = "ad2"
	tm.Action = models.Action{Type: "me", Message: "follows"}
	if err := db.InTx(ctx, func(tx *Tx) error { return tx.UpdateTimer(tm) }); err != nil {
		t.Fatalf("UpdateTimer: %v", err)
	}

	err := db.InTx(ctx, func(tx *Tx) error {
		got, err := tx.GetTimer(tm.ID)
		if err != nil {
			return err
		}
		if got.Name != "ad2" || got.Action.Type != "me" || !got.Enabled {
			t.Errorf("unexpected timer: %+v", got)
		}
		if _, err := tx.GetTimer(tm.ID + 100); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if err := tx.UpdateTimer(&models.Timer{ID: tm.ID + 100}); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on update, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
}

func TestListsAndModerators(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, u := range []*models.User{
		{Username: "viewer", Level: 100},
		{Username: "helper", Level: 250},
		{Username: "bmod", Level: 500},
		{Username: "amod", Level: 500},
		{Username: "admin", Level: 2000},
	} {
		if err := db.InsertUser(u); err != nil {
			t.Fatalf("InsertUser: %v", err)
		}
	}

	err := db.InTx(ctx, func(tx *Tx) error {
		if err := tx.InsertBanphrase(&models.Filter{Phrase: "bad", Enabled: true}); err != nil {
			return err
		}
		if err := tx.InsertBanphrase(&models.Filter{Phrase: "off", Enabled: false}); err != nil {
			return err
		}
		if err := tx.InsertBanphrase(&models.Filter{Phrase: "other", Type: "regex", Enabled: true}); err != nil {
			return err
		}
		if err := tx.InsertBlacklistedLink(&models.BlacklistedLink{Domain: "evil.com", Level: 1}); err != nil {
			return err
		}
		return tx.InsertWhitelistedLink(&models.WhitelistedLink{Domain: "good.com"})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	err = db.InTx(ctx, func(tx *Tx) error {
		bp, err := tx.ListBanphrases()
		if err != nil {
			return err
		}
		if len(bp) != 1 || bp[0].Phrase != "bad" {
			t.Errorf("unexpected banphrases: %+v", bp)
		}
		bl, err := tx.ListBlacklistedLinks()
		if err != nil {
			return err
		}
		wl, err := tx.ListWhitelistedLinks()
		if err != nil {
			return err
		}
		if len(bl) != 1 || len(wl) != 1 {
			t.Errorf("got %d blacklisted, %d whitelisted", len(bl), len(wl))
		}

		mods, err := tx.ListModerators(100)
		if err != nil {
			return err
		}
		want := []string{"admin", "amod", "bmod", "helper"}
		if len(mods) != len(want) {
			t.Fatalf("expected %d moderators, got %d", len(want), len(mods))
		}
		for i, name := range want {
			if mods[i].Username != name {
				t.Errorf("moderator %d: got %s, want %s", i, mods[i].Username, name)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
}

func TestUserSessions(t *testing.T) {
	db := openTestDB(t)

	u := &models.User{Username: "admin", Level: 2000, PasswordHash: "x"}
	if err := db.InsertUser(u); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}

	sid, err := db.CreateUserSession(u.ID, "127.0.0.1")
	if err != nil {
		t.Fatalf("CreateUserSession: %v", err)
	}
	if len(sid) != SessionIDLength {
		t.Fatalf("session id length %d", len(sid))
	}

	got, err := db.ValidateUserSession(sid)
	if err != nil {
		t.Fatalf("ValidateUserSession: %v", err)
	}
	if got.Username != "admin" || got.Level != 2000 {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := db.ValidateUserSession("nope"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	if err := db.InvalidateUserSession(u.ID); err != nil {
		t.Fatalf("InvalidateUserSession: %v", err)
	}
	if _, err := db.ValidateUserSession(sid); err == nil {
		t.Fatal("session still valid after invalidation")
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	db := openTestDB(t)

	u := &models.User{Username: "old", Level: 500}
	if err := db.InsertUser(u); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	sid, err := db.CreateUserSession(u.ID, "")
	if err != nil {
		t.Fatalf("CreateUserSession: %v", err)
	}

	prev := now
	now = func() time.Time { return time.Now().UTC().Add(SessionTimeout + time.Minute) }
	t.Cleanup(func() { now = prev })

	n, err := db.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 cleaned session, got %d", n)
	}
	if _, err := db.ValidateUserSession(sid); err == nil {
		t.Fatal("expired session validated")
	}
}

func TestLoginLockout(t *testing.T) {
	db := openTestDB(t)
	if err := db.InsertUser(&models.User{Username: "bob", Level: 500}); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	for i := 0; i < MaxLoginAttempts; i++ {
		if err := db.IncrementLoginAttempts("bob"); err != nil {
			t.Fatalf("IncrementLoginAttempts: %v", err)
		}
	}
	locked, err := db.IsUserLockedOut("bob")
	if err != nil || !locked {
		t.Fatalf("expected lockout, got %v %v", locked, err)
	}
}

func TestUserAdmin(t *testing.T) {
	db := openTestDB(t)
	u := &models.User{Username: "carol", Level: 100}
	if err := db.InsertUser(u); err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	if err := db.SetUserLevel(u.ID, 1500); err != nil {
		t.Fatalf("SetUserLevel: %v", err)
	}
	if err := db.SetUserPassword(u.ID, "hash"); err != nil {
		t.Fatalf("SetUserPassword: %v", err)
	}
	got, err := db.GetUserByUsername("carol")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if got.Level != 1500 || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := db.DeleteUser(u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := db.GetUserByUsername("carol"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := db.DeleteUser(u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	users, err := db.GetAllUsers()
	if err != nil || len(users) != 0 {
		t.Fatalf("GetAllUsers: %v %d", err, len(users))
	}
}
