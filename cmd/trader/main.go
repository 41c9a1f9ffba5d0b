package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"

	"scalper/internal/adapter"
	"scalper/internal/engine"
	"scalper/internal/journal"
	"scalper/internal/ledger"
	"scalper/internal/obs"
	"scalper/internal/ops"
	"scalper/internal/risk"
	"scalper/internal/sched"
	"scalper/pkg/conn"
)

const closeAllTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		logs.Errorf("config load failed: %+v", err)
		os.Exit(1)
	}

	if loaded.Profiler.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: loaded.Profiler.ApplicationName,
			ServerAddress:   loaded.Profiler.ServerAddress,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			logs.Errorf("pyroscope start failed: %+v", err)
			os.Exit(1)
		}
		defer func() { _ = profiler.Stop() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, loaded); err != nil {
		logs.Errorf("trader failed: %+v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, loaded ops.Loaded) error {
	paper := adapter.NewPaper(loaded.Paper)
	for _, sym := range loaded.Symbols {
		paper.ListSymbol(sym.Name, sym.Price)
	}
	if loaded.ScriptsFile != "" {
		if err := adapter.LoadTickScripts(paper, loaded.ScriptsFile); err != nil {
			return err
		}
	}

	var j *journal.Journal
	if loaded.Journal.Enabled {
		client, err := conn.New(loaded.Journal.PGOption())
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		j, err = journal.New(client)
		if err != nil {
			return err
		}
		j.Start()
		defer j.Close()
	}

	metrics := obs.NewMetrics()
	eng := engine.New(loaded.Engine, engine.Deps{
		Feed:    paper,
		Orders:  paper,
		Ledger:  ledger.New(loaded.InitialBalance),
		Gate:    risk.NewGate(loaded.Risk),
		Journal: j,
		Metrics: metrics,
	})

	if loaded.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: loaded.Metrics.Listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logs.Errorf("metrics server failed: %+v", err)
			}
		}()
		defer func() { _ = srv.Close() }()
		logs.Infof("metrics listening on %s", loaded.Metrics.Listen)
	}

	scheduler := sched.New(ctx, paper, eng, j)
	if err := scheduler.Register(loaded.Schedule.SummaryCron, loaded.Schedule.SyncCron); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	eng.Run(ctx)
	symbols := paper.Symbols()
	for _, symbol := range symbols {
		eng.Track(ctx, symbol)
	}
	logs.Infof("trader started: %d symbols, balance %.4f", len(symbols), loaded.InitialBalance)

	<-ctx.Done()
	logs.Info("shutdown signal received, closing positions")

	closeCtx, cancel := context.WithTimeout(context.Background(), closeAllTimeout)
	defer cancel()
	eng.CloseAll(closeCtx)
	eng.Wait()

	logs.Infof("trader stopped: balance %.4f peak %.4f", eng.CurrentBalance(), eng.PeakBalance())
	return nil
}
