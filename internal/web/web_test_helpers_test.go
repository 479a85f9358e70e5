package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-tyggbot/internal/config"
	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/flash"
	"github.com/go-while/go-tyggbot/internal/metrics"
	"github.com/go-while/go-tyggbot/internal/models"
	"github.com/go-while/go-tyggbot/internal/notify"
)

// recordingPublisher keeps every published message
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingPublisher) Publish(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	return nil
}

func (r *recordingPublisher) messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.msgs...)
}

type testEnv struct {
	t         *testing.T
	server    *WebServer
	db        *database.Database
	flash     *flash.MemoryStore
	published *recordingPublisher
	admin     *http.Cookie
	viewer    *http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbcfg := database.DefaultDBConfig()
	dbcfg.DataDir = t.TempDir()
	db, err := database.OpenDatabase(dbcfg, logger)
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	pub := &recordingPublisher{}
	store := flash.NewMemoryStore(time.Minute)
	webcfg := config.NewDefaultConfig().Web
	server := NewServer(ServerDeps{
		DB:       db,
		Config:   &webcfg,
		Flash:    store,
		Notifier: notify.New(pub, time.Second, logger, nil),
		Metrics:  metrics.New(),
		Logger:   logger,
	})

	env := &testEnv{t: t, server: server, db: db, flash: store, published: pub}
	env.admin = env.login("admin", 2000)
	env.viewer = env.login("viewer", 100)
	return env
}

// login creates a user with level and returns its session cookie
func (e *testEnv) login(username string, level int) *http.Cookie {
	e.t.Helper()
	hash, err := hashPassword("hunter22")
	if err != nil {
		e.t.Fatalf("hashPassword: %v", err)
	}
	u := &models.User{Username: username, Level: level, PasswordHash: hash}
	if err := e.db.InsertUser(u); err != nil {
		e.t.Fatalf("InsertUser: %v", err)
	}
	sid, err := e.db.CreateUserSession(u.ID, "127.0.0.1")
	if err != nil {
		e.t.Fatalf("CreateUserSession: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: sid}
}

func (e *testEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return e.do(http.MethodGet, path, nil, cookie)
}

func (e *testEnv) post(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, path, form, cookie)
}

func (e *testEnv) do(method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.server.Router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) inTx(fn func(tx *database.Tx) error) {
	e.t.Helper()
	if err := e.db.InTx(context.Background(), fn); err != nil {
		e.t.Fatalf("InTx: %v", err)
	}
}

func (e *testEnv) commands() []*models.Command {
	e.t.Helper()
	var list []*models.Command
	e.inTx(func(tx *database.Tx) (err error) {
		list, err = tx.ListCommands(false)
		return err
	})
	return list
}

func (e *testEnv) timers() []*models.Timer {
	e.t.Helper()
	var list []*models.Timer
	e.inTx(func(tx *database.Tx) (err error) {
		list, err = tx.ListTimers()
		return err
	})
	return list
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	expectStatus(t, w, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}
