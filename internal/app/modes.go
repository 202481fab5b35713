package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solverworks/fusionscan/internal/monitor"
	"github.com/solverworks/fusionscan/internal/scanner"
	"github.com/solverworks/fusionscan/internal/server"
	"github.com/solverworks/fusionscan/internal/server/handler"
	"github.com/solverworks/fusionscan/internal/server/ws"
	"github.com/solverworks/fusionscan/internal/service"
)

// ScanMode runs one scan with the configured parameters and writes the
// report as indented JSON to stdout.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	params, err := a.scanParams()
	if err != nil {
		return err
	}

	svc := a.buildScanService(deps)
	report, err := svc.RunScan(ctx, params)
	if err != nil {
		return fmt.Errorf("app: scan: %w", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("app: encode report: %w", err)
	}
	out = append(out, '\n')
	if _, err := os.Stdout.Write(out); err != nil {
		return fmt.Errorf("app: write report: %w", err)
	}
	return nil
}

// MonitorMode scans on the configured interval until cancelled.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	runner, err := a.buildMonitor(deps)
	if err != nil {
		return err
	}

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: monitor: %w", err)
	}
	return nil
}

// ServerMode serves the HTTP and WebSocket API until cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: server: %w", err)
	}
	return nil
}

// FullMode runs the monitor loop and the API server together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	runner, err := a.buildMonitor(deps)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(ctx)
	})
	a.startHTTPServer(ctx, g, deps)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: full: %w", err)
	}
	return nil
}

// startHTTPServer builds the hub, handlers, and server, and registers their
// goroutines on g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	svc := a.buildScanService(deps)

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.cfg.Mode, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(a.logger),
			Scan:    handler.NewScanHandler(svc, a.logger),
			Reports: handler.NewReportHandler(svc, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// buildScanService assembles the scanner core and its surrounding service.
func (a *App) buildScanService(deps *Dependencies) *service.ScanService {
	core := scanner.New(deps.Provider, a.scannerConfig(), a.logger)
	return service.NewScanService(
		core,
		deps.ScanStore,
		deps.ReportCache,
		deps.SignalBus,
		deps.RateLimiter,
		deps.Notifier,
		service.ScanConfig{
			RateLimit:      a.cfg.OneInch.RateLimit,
			RateWindow:     a.cfg.OneInch.RateWindow.Duration,
			ReportCacheTTL: a.cfg.Monitor.ReportCacheTTL.Duration,
		},
		a.logger,
	)
}

func (a *App) buildMonitor(deps *Dependencies) (*monitor.Runner, error) {
	params, err := a.scanParams()
	if err != nil {
		return nil, err
	}

	return monitor.New(
		a.buildScanService(deps),
		deps.Archiver,
		monitor.Config{
			Interval:        a.cfg.Monitor.Interval.Duration,
			ArchiveInterval: a.cfg.Monitor.ArchiveInterval.Duration,
			RetentionDays:   a.cfg.Monitor.ArchiveRetentionDays,
			Params:          params,
		},
		a.logger,
	), nil
}

// scannerConfig maps the file configuration onto the scanner core.
func (a *App) scannerConfig() scanner.Config {
	sc := a.cfg.Scanner

	major := make(map[int64]bool, len(sc.MajorChains))
	for _, chain := range sc.MajorChains {
		major[chain] = true
	}

	return scanner.Config{
		PageSize:    sc.PageSize,
		EvalLimit:   sc.EvalLimit,
		Concurrency: sc.Concurrency,
		EvalTimeout: sc.EvalTimeout.Duration,
		MaxResults:  sc.MaxResults,
		Score: scanner.ScoreConfig{
			ProfitWeight:      sc.ProfitWeight,
			ProfitCap:         sc.ProfitCap,
			MaturityThreshold: sc.MaturityThreshold,
			MaturityWeight:    sc.MaturityWeight,
			GasBonus:          sc.GasBonus,
			GasPenalty:        sc.GasPenalty,
			MajorChainBonus:   sc.MajorChainBonus,
			FillNowThreshold:  sc.FillNowThreshold,
			MonitorThreshold:  sc.MonitorThreshold,
			MajorChains:       major,
		},
	}
}

// scanParams builds the scan parameters used by scan and monitor modes.
func (a *App) scanParams() (scanner.ScanParams, error) {
	mon := a.cfg.Monitor

	params := scanner.ScanParams{
		ResolverAddress:    mon.ResolverAddress,
		MinProfitThreshold: mon.MinProfitThreshold,
		TargetChains:       mon.TargetChains,
		MaxResults:         a.cfg.Scanner.MaxResults,
	}
	if mon.MaxGasPrice != "" {
		gas, ok := new(big.Int).SetString(mon.MaxGasPrice, 10)
		if !ok || gas.Sign() < 0 {
			return scanner.ScanParams{}, fmt.Errorf("app: monitor.max_gas_price %q is not a non-negative decimal", mon.MaxGasPrice)
		}
		params.MaxGasPrice = gas
	}
	return params, nil
}
