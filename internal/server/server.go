// Package server exposes the research pipeline over HTTP.
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

	"github.com/briefops/briefer/config"
	"github.com/briefops/briefer/internal/brief"
	"github.com/briefops/briefer/internal/llm"
	"github.com/briefops/briefer/internal/recall"
	"github.com/briefops/briefer/internal/store"
	"github.com/briefops/briefer/internal/telemetry"
)

// Run wires the full service and blocks serving HTTP on addr.
func Run(addr string, cfg *config.Config) error {
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
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	ctx := context.Background()

	// Credential check happens here, before any request reaches the
	// pipeline.
	llmClient, err := llm.New(cfg.LLM)
	if err != nil {
		return err
	}
	searcher, err := newSearcher(cfg.Search)
	if err != nil {
		return err
	}
	fetcher, err := newFetcher(cfg.Fetch)
	if err != nil {
		return err
	}
	st, err := store.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	recaller := recall.New(st, llmClient, cfg.Pipeline.RecallTopK)

	var tele *telemetry.Telemetry
	if cfg.Telemetry.Enabled {
		tele = telemetry.New(prometheus.DefaultRegisterer)
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	engine := brief.NewEngine(cfg.Pipeline, llmClient, searcher, fetcher, recaller, st,
		log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags), tele)

	h := &BriefsHandler{Runner: engine, Store: st, Logger: baseLogger}
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.POST("/api/briefs", h.generate)
	e.GET("/api/briefs/:user_id", h.history)

	return e.Start(addr)
}
