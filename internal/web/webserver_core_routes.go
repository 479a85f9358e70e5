// Package web provides the HTTP server and admin panel for go-tyggbot
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"github.com/go-while/go-tyggbot/internal/config"
	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/flash"
	"github.com/go-while/go-tyggbot/internal/metrics"
	"github.com/go-while/go-tyggbot/internal/notify"
)

// WebServer represents the web server
type WebServer struct {
	DB        *database.Database
	Router    *gin.Engine
	Config    *config.WebConfig
	Flash     flash.Store
	Notifier  *notify.Notifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	StartTime time.Time

	httpServer *http.Server
}

// ServerDeps are the collaborators of the web server. Flash, Notifier and Metrics may be nil.
type ServerDeps struct {
	DB       *database.Database
	Config   *config.WebConfig
	Flash    flash.Store
	Notifier *notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewServer creates a new web server instance
func NewServer(deps ServerDeps) *WebServer {
	webconfig := deps.Config
	if webconfig == nil {
		webconfig = &config.NewDefaultConfig().Web
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := deps.Flash
	if store == nil {
		store = flash.NewMemoryStore(config.DefaultFlashTTL)
	}

	if webconfig.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Configure gin to trust reverse proxy headers
	router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	// SSL headers only when we terminate TLS ourselves, not behind a proxy
	if webconfig.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	router.Use(secure.New(secureConfig))

	server := &WebServer{
		DB:       deps.DB,
		Router:   router,
		Config:   webconfig,
		Flash:    store,
		Notifier: deps.Notifier,
		Metrics:  deps.Metrics,
		Logger:   logger,
	}

	if webconfig.Debug {
		router.Use(server.ApacheLogFormat())
	}
	// promhttp compresses on its own
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	server.setupRoutes()
	server.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(webconfig.ListenPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	s.Router.GET("/static/*filepath", EmbeddedStaticHandler("/static"))
	s.Router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	s.Router.GET("/robots.txt", func(c *gin.Context) {
		c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
	})
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	if s.Metrics != nil {
		if strings.TrimSpace(s.Config.MetricsAPIKey) == "" {
			s.Logger.Warn("/metrics is served without authentication, set TYGG_METRICS_API_KEY to protect it")
		}
		s.Router.GET("/metrics", metrics.APIKeyAuth(s.Config.MetricsAPIKey), gin.WrapH(s.Metrics.Handler()))
	}

	s.Router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/admin/")
	})

	// Authentication routes
	s.Router.GET("/login", s.loginPage)
	s.Router.POST("/login", s.loginSubmit)
	s.Router.GET("/logout", s.logout)

	admin := s.Router.Group("/admin")
	admin.Use(s.RequireLevel(config.LevelAdminPanel))
	{
		admin.GET("/", s.adminHome)
		admin.GET("/banphrases/", s.adminBanphrases)
		admin.GET("/links/blacklist/", s.adminLinksBlacklist)
		admin.GET("/links/whitelist/", s.adminLinksWhitelist)

		admin.GET("/commands/", s.adminCommands)
		admin.GET("/commands/edit/:id", s.adminCommandsEdit)
		admin.GET("/commands/create", s.adminCommandsCreate)
		admin.POST("/commands/create", s.adminCommandsCreate)

		admin.GET("/timers/", s.adminTimers)
		admin.GET("/timers/edit/:id", s.adminTimersEdit)
		admin.GET("/timers/create", s.adminTimersCreate)
		admin.POST("/timers/create", s.adminTimersCreate)

		admin.GET("/moderators/", s.adminModerators)
	}
}

// Start listens until Shutdown is called
func (s *WebServer) Start() error {
	addr := s.httpServer.Addr
	s.StartTime = time.Now()

	var err error
	if s.Config.SSL {
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		s.Logger.Info("starting HTTPS server", "addr", addr)
		err = s.httpServer.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
	} else {
		s.Logger.Info("starting HTTP server", "addr", addr)
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for running requests
func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ApacheLogFormat is the access log used in debug mode
func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}
