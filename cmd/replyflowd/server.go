package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/replyflow/replyflow/automation/acctcache"
	"github.com/replyflow/replyflow/automation/countstore"
	"github.com/replyflow/replyflow/automation/engine"
	"github.com/replyflow/replyflow/automation/rulestore"
	"github.com/replyflow/replyflow/graph"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
)

type Config struct {
	Logger           *slog.Logger
	RedisURL         string
	GraphAPIHost     string
	MetaAppID        string
	MetaAppSecret    string
	VerifyToken      string
	OAuthRedirectURL string
}

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
	httpd  *http.Server
	engine *engine.Engine
	store  rulestore.Store
	cache  acctcache.AccountCache
	graph  *graph.Client

	appID       string
	appSecret   string
	verifyToken string
	redirectURL string
}

func NewServer(store rulestore.Store, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	var counters countstore.CountStore
	var cache acctcache.AccountCache
	if config.RedisURL != "" {
		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %w", err)
		}
		counters = cnt

		csh, err := acctcache.NewRedisAccountCache(config.RedisURL, 30*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("initializing redis account cache: %w", err)
		}
		cache = csh
	} else {
		counters = countstore.NewMemCountStore()
		cache = acctcache.NewMemAccountCache(5_000, 30*time.Minute)
	}

	gc := graph.NewClient(config.GraphAPIHost)

	eng := &engine.Engine{
		Logger:   logger,
		Store:    store,
		Platform: gc,
		Cache:    cache,
		Counters: counters,
	}

	s := &Server{
		logger:      logger,
		engine:      eng,
		store:       store,
		cache:       cache,
		graph:       gc,
		appID:       config.MetaAppID,
		appSecret:   config.MetaAppSecret,
		verifyToken: config.VerifyToken,
		redirectURL: config.OAuthRedirectURL,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("replyflowd"))
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/_health", s.handleHealthCheck)

	e.GET("/webhook", s.handleWebhookVerify)
	e.POST("/webhook", s.handleWebhookDelivery)

	e.GET("/auth/callback", s.handleOAuthCallback)

	e.GET("/accounts/:account/media", s.handleListMedia)
	e.GET("/accounts/:account/rules", s.handleListRules)
	e.POST("/accounts/:account/rules", s.handleCreateRule)
	e.POST("/rules/:id/activate", s.handleSetRuleActive(true))
	e.POST("/rules/:id/deactivate", s.handleSetRuleActive(false))
	e.DELETE("/rules/:id", s.handleDeleteRule)

	s.echo = e
	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, mux)
}

// Starts the HTTP API and blocks until an exit signal, then shuts down
// gracefully.
func (s *Server) RunAPI(listen string) error {
	var (
		httpTimeout        = 1 * time.Minute
		httpMaxHeaderBytes = 1 * (1024 * 1024)
	)

	s.httpd = &http.Server{
		Handler:        s.echo,
		Addr:           listen,
		WriteTimeout:   httpTimeout,
		ReadTimeout:    httpTimeout,
		MaxHeaderBytes: httpMaxHeaderBytes,
	}

	s.logger.Info("starting server", "bind", listen)
	go func() {
		if err := s.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exitSignals
	s.logger.Info("received OS exit signal", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpd.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
