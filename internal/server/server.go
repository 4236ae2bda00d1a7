package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/mohammad-safakhou/fincoach/config"
	"github.com/mohammad-safakhou/fincoach/internal/advisor"
	"github.com/mohammad-safakhou/fincoach/internal/memory"
	"github.com/mohammad-safakhou/fincoach/internal/prompt"
	"github.com/mohammad-safakhou/fincoach/internal/store"
	"github.com/mohammad-safakhou/fincoach/internal/telemetry"
	"github.com/mohammad-safakhou/fincoach/provider"
	"github.com/mohammad-safakhou/fincoach/repository/redis_repository"
)

// Run wires the whole service together and serves the HTTP API. All
// dependencies are constructed once here and passed down by reference; no
// component holds hidden global state.
func Run(cfg *appconfig.Config) error {
	if err := cfg.LLM.Validate(); err != nil {
		return err
	}
	cfg.Context = cfg.Context.Normalize()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.New(prometheus.DefaultRegisterer)
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	ctx := context.Background()

	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	// Optional Redis embedding cache; absent config means the provider is
	// used directly.
	var embedder memory.Embedder = llm
	if cfg.Storage.Redis.Enabled() {
		rdb, err := redis_repository.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.General.DefaultTimeout)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		embedder = redis_repository.NewEmbeddingCache(rdb, llm, cfg.Storage.Redis.CacheTTL, nil)
	}

	ctxStore := memory.NewStore(st, embedder, cfg.Context.QueryLimit, nil)
	if err := ctxStore.Initialize(ctx); err != nil {
		return err
	}
	ingestor := memory.NewIngestor(ctxStore, nil)
	assembler := prompt.New(cfg.Context.PromptDocumentCap)
	svc := advisor.NewService(ctxStore, ingestor, assembler, llm, tele, cfg.Context.AdviceQueryLimit, nil)

	api := e.Group("/api")

	ch := &ChatHandler{Store: st, Advisor: svc}
	ch.Register(api.Group("/chat"))

	ah := &AdviceHandler{Advisor: svc}
	ah.Register(api.Group("/advice"))

	xh := &ContextHandler{Memory: ctxStore, Ingestor: ingestor}
	xh.Register(api.Group("/context"))

	return e.Start(cfg.Server.Address)
}
