package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"zhypo/adapters/chart"
	"zhypo/adapters/excel"
	"zhypo/adapters/stats/engine"
	"zhypo/app"
	"zhypo/internal"
	"zhypo/internal/config"
	"zhypo/internal/metrics"
	"zhypo/ui"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Log.Level))
	defer logger.Sync()

	var collector *metrics.Collector
	if appConfig.Metrics.Enabled {
		collector = metrics.NewCollector(appConfig.Metrics.Namespace)
	}

	service := newService(appConfig, collector, logger)
	server := ui.NewServer(appConfig, service, collector, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	// Start pprof server for performance profiling
	var pprofServer *http.Server
	if appConfig.Profiling.Enabled {
		pprofServer = &http.Server{Addr: ":" + appConfig.Profiling.Port, Handler: http.DefaultServeMux}
		g.Go(func() error {
			logger.Info("Performance profiling server starting on :%s", appConfig.Profiling.Port)
			if err := pprofServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("pprof server failed: %v", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down z-test server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		if pprofServer != nil {
			_ = pprofServer.Shutdown(shutdownCtx)
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error: %v", err)
		os.Exit(1)
	}
}

// newService wires the engine, chart renderer and upload reader from config
func newService(appConfig *config.Config, collector *metrics.Collector, logger *internal.Logger) *app.ZTestService {
	tester := engine.NewZTestEngine(engine.WithStrictAlternative(appConfig.Engine.StrictAlternative))

	opts := []app.ServiceOption{
		app.WithLogger(logger),
		app.WithMetrics(collector),
		app.WithObservationReader(excel.NewDataReader(excel.ExcelConfig{
			Sheet:   appConfig.Upload.Sheet,
			MaxRows: appConfig.Upload.MaxRows,
		}, logger)),
	}
	if appConfig.Chart.Enabled {
		opts = append(opts, app.WithChartRenderer(chart.NewRenderer(chart.RenderConfig{
			WidthInches:  appConfig.Chart.WidthInches,
			HeightInches: appConfig.Chart.HeightInches,
			Samples:      appConfig.Chart.Samples,
		})))
	}

	return app.NewZTestService(tester, opts...)
}
