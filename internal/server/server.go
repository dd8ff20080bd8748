// Package server exposes the workflow engine over HTTP.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/probaah/probaah/config"
	"github.com/probaah/probaah/internal/orchestrator"
	"github.com/probaah/probaah/internal/telemetry"
	"github.com/probaah/probaah/internal/tools"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run builds the full service (telemetry, tool registry, orchestrator)
// and serves the API until the listener fails.
func Run(cfg *config.Config) error {
	e := newEcho()

	tele := telemetry.NewTelemetry(cfg.Telemetry)
	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)

	packmol := tools.NewPackmol(cfg.Tools.Packmol, nil)
	viamd := tools.NewViamd(cfg.Tools.Viamd, nil)
	analyzer := tools.NewAnalyzer(cfg.Tools.Analysis, nil)
	slides := tools.NewSlideGenerator(cfg.Tools.Slides, nil)

	registry, err := tools.NewRegistry(packmol, viamd, analyzer, slides)
	if err != nil {
		return err
	}

	orch, err := orchestrator.NewOrchestrator(cfg, orchLogger, tele, registry, orchestrator.Toolset{
		Packer:    packmol,
		Validator: viamd,
		Analyzer:  analyzer,
		Presenter: slides,
	})
	if err != nil {
		return err
	}

	h := &RequestsHandler{Service: orch}
	h.Register(e.Group("/api"))

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10011"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho configures the bare router: recovery, CORS, JSON error
// handling, health and metrics endpoints. Split from Run so handler
// tests can mount routes without building the whole service.
func newEcho() *echo.Echo {
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
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}
