// Admin panel web server for go-tyggbot
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/valkey-io/valkey-go"
	"golang.org/x/sync/errgroup"

	"github.com/go-while/go-tyggbot/internal/config"
	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/flash"
	"github.com/go-while/go-tyggbot/internal/logging"
	"github.com/go-while/go-tyggbot/internal/metrics"
	"github.com/go-while/go-tyggbot/internal/notify"
	"github.com/go-while/go-tyggbot/internal/web"
)

const shutdownTimeout = 10 * time.Second

var appVersion = "-unset-"

var (
	// command-line flags, override env and defaults when set
	webport     int
	webssl      bool
	webcertFile string
	webkeyFile  string
	webdebug    bool
	dataDir     string
	valkeyAddr  string
	logLevel    string
	envFile     string
)

func main() {
	config.AppVersion = appVersion

	flag.IntVar(&webport, "webport", 0, "Web server port (default: 11990)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.BoolVar(&webdebug, "debug", false, "Enable gin debug mode and access log")
	flag.StringVar(&dataDir, "data", "", "Data directory (default: ./data)")
	flag.StringVar(&valkeyAddr, "valkey", "", "Valkey address host:port for live updates (empty: log only)")
	flag.StringVar(&logLevel, "loglevel", "", "Log level: debug, info, warn, error")
	flag.StringVar(&envFile, "env", ".env", "Optional dotenv file")
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tyggbot-web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load(envFile)

	cfg := config.NewDefaultConfig()
	cfg.ApplyEnv()
	applyFlags(cfg)

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	if envErr != nil && !os.IsNotExist(envErr) {
		logger.Warn("failed to load env file", "file", envFile, "err", envErr)
	}
	logger.Info("starting go-tyggbot admin panel", "version", appVersion, "port", cfg.Web.ListenPort, "ssl", cfg.Web.SSL)

	dbcfg := database.DefaultDBConfig()
	dbcfg.DataDir = cfg.Database.DataDir
	db, err := database.OpenDatabase(dbcfg, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("database close failed", "err", err)
		}
	}()

	m := metrics.New()

	var (
		store     flash.Store
		publisher notify.Publisher
	)
	if cfg.Valkey.Enabled() {
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{cfg.Valkey.Addr},
			Password:    cfg.Valkey.Password,
			SelectDB:    cfg.Valkey.DB,
		})
		if err != nil {
			return fmt.Errorf("connect valkey %s: %w", cfg.Valkey.Addr, err)
		}
		defer client.Close()
		logger.Info("valkey connected", "addr", cfg.Valkey.Addr, "channel", cfg.Valkey.Channel)

		store = flash.NewValkeyStore(client, cfg.Valkey.FlashTTL)
		publisher = notify.NewValkeyPublisher(client, cfg.Valkey.Channel)
	} else {
		logger.Warn("valkey not configured, bot updates are only logged")
		store = flash.NewMemoryStore(cfg.Valkey.FlashTTL)
		publisher = notify.LogPublisher{Logger: logger}
	}

	server := web.NewServer(web.ServerDeps{
		DB:       db,
		Config:   &cfg.Web,
		Flash:    store,
		Notifier: notify.New(publisher, cfg.Valkey.NotifyTimeout, logger, m),
		Metrics:  m,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server.StartSessionCleanup(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("web server stopped", "uptime", time.Since(server.StartTime).Round(time.Second))
	return nil
}

func applyFlags(cfg *config.MainConfig) {
	if webport > 0 {
		cfg.Web.ListenPort = webport
	}
	if webssl {
		cfg.Web.SSL = true
	}
	if webcertFile != "" {
		cfg.Web.CertFile = webcertFile
	}
	if webkeyFile != "" {
		cfg.Web.KeyFile = webkeyFile
	}
	if webdebug {
		cfg.Web.Debug = true
	}
	if dataDir != "" {
		cfg.Database.DataDir = dataDir
	}
	if valkeyAddr != "" {
		cfg.Valkey.Addr = valkeyAddr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}
