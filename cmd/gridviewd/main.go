// Command gridviewd serves one append-only delimited text file to
// interactive viewport clients over WebSocket, per spec.md.
//
// Flag and startup-sequence style grounded on cmd/amethystd/main.go
// (flag.Parse, sequential component construction, fatal-on-setup-error
// via os.Exit rather than panic); the construction order itself —
// open data file, load-or-build index, register in the catalog, wire
// the dispatcher, start serving, poll for rebuilds in the background —
// follows SPEC_FULL.md's component graph.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridview/internal/catalog"
	"gridview/internal/config"
	"gridview/internal/datafile"
	"gridview/internal/dispatcher"
	"gridview/internal/freshness"
	"gridview/internal/indexcodec"
	"gridview/internal/logging"
	"gridview/internal/metrics"
	"gridview/internal/rebuild"
	"gridview/internal/rowindex"
	"gridview/internal/server"
	"gridview/internal/slicer"
	"gridview/internal/viewport"
	"gridview/internal/wsserver"
)

var (
	configFlag = flag.String("config", "", "Path to a YAML config file (defaults are used if omitted)")
	dataFlag   = flag.String("data", "", "Path to the data file to serve (overrides config's data_file)")
)

// indexPathFunc builds the data-path-to-index-path mapping used by
// both openEntry and pollRebuilds, honoring cfg.IndexPath (spec.md §6's
// "Optional cached-index location") before falling back to the
// `<dataFile>.idx` default.
func indexPathFunc(cfg *config.Config) func(dataPath string) string {
	return func(dataPath string) string {
		if cfg.IndexPath != "" {
			return cfg.IndexPath
		}
		return dataPath + ".idx"
	}
}

func openFileFunc(cfg *config.Config) rebuild.OpenFunc {
	if cfg.UseMmap {
		return datafile.OpenMmap
	}
	return datafile.Open
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gridviewd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dataFlag != "" {
		cfg.DataFile = *dataFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "gridviewd: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel)).
		With(logging.Component("gridviewd"))

	reg := metrics.NewRegistry()
	cat := catalog.New()

	entry, err := openEntry(cfg, log, reg)
	if err != nil {
		log.Error("failed to open data file", logging.Error(err))
		os.Exit(1)
	}
	cat.Register(entry)

	defaults := viewport.Request{
		DefaultRowHeight:   cfg.Viewport.DefaultRowHeight,
		DefaultColumnWidth: cfg.Viewport.DefaultColumnWidth,
		HorizontalBuffer:   cfg.Viewport.HorizontalBuffer,
		VerticalBuffer:     cfg.Viewport.VerticalBuffer,
	}
	s := slicer.New(entry)
	d := dispatcher.New(s, entry, cfg.MaxRowsCeiling, defaults, log.With(logging.Component("dispatcher")), reg)
	wsHandler := wsserver.New(d, log.With(logging.Component("wsserver")), reg)

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(struct {
			TotalRows  uint64 `json:"totalRows"`
			TotalCols  int    `json:"totalCols"`
			IndexBuilt bool   `json:"indexBuilt"`
		}{
			TotalRows:  entry.Index().TotalRows,
			TotalCols:  2,
			IndexBuilt: true,
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.HandleFunc("/healthz", healthHandler)

	srv := server.New(cfg.Server.ListenAddr, mux, log.With(logging.Component("server")))
	srv.SetReloadFunc(func() error {
		if *configFlag == "" {
			return nil
		}
		reloaded, err := config.Load(*configFlag)
		if err != nil {
			return err
		}
		cfg = reloaded
		return nil
	})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg.PrometheusRegistry(), promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux}
	go func() {
		log.Info("starting metrics server", logging.String("addr", cfg.Server.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", logging.Error(err))
		}
	}()

	// A dedicated health port, per spec.md §6's optional health
	// surface, is served alongside the always-on /healthz already
	// registered on mux above — operators that want /healthz isolated
	// from request traffic can point a probe at it instead.
	var healthSrv *http.Server
	if cfg.Server.HealthPort != 0 {
		healthMux := http.NewServeMux()
		healthMux.HandleFunc("/healthz", healthHandler)
		healthSrv = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.HealthPort), Handler: healthMux}
		go func() {
			log.Info("starting health server", logging.Int("port", cfg.Server.HealthPort))
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("health server stopped", logging.Error(err))
			}
		}()
	}

	stopRebuild := make(chan struct{})
	go pollRebuilds(cat, cfg, log.With(logging.Component("rebuild")), reg, stopRebuild)

	go func() {
		<-srv.ShutdownChannel()
		close(stopRebuild)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		metricsSrv.Shutdown(ctx)
		if healthSrv != nil {
			healthSrv.Shutdown(ctx)
		}
	}()

	log.Info("gridviewd ready",
		logging.Path(cfg.DataFile),
		logging.String("listen_addr", cfg.Server.ListenAddr),
		logging.Uint64("total_rows", entry.Index().TotalRows),
	)

	if err := srv.Start(); err != nil {
		log.Error("server exited with error", logging.Error(err))
		os.Exit(1)
	}
}

// openEntry opens cfg.DataFile, loads its on-disk index if fresh or
// builds a new one otherwise, and returns a ready-to-register catalog
// Entry.
func openEntry(cfg *config.Config, log logging.Logger, reg *metrics.Registry) (*catalog.Entry, error) {
	var h datafile.Handle
	var err error
	if cfg.UseMmap {
		h, err = datafile.OpenMmap(cfg.DataFile)
	} else {
		h, err = datafile.Open(cfg.DataFile)
	}
	if err != nil {
		return nil, err
	}

	indexPath := indexPathFunc(cfg)(cfg.DataFile)
	controller := freshness.Default(indexPath)

	size, mtime, err := h.Stat()
	if err != nil {
		h.Close()
		return nil, err
	}

	idx, ok, err := indexcodec.Load(indexPath)
	if err != nil {
		h.Close()
		return nil, err
	}

	if !ok || !controller.IsFresh(idx, size, mtime) {
		timer := logging.StartTimer(log, "building row index", logging.Path(cfg.DataFile))
		f, err := os.Open(cfg.DataFile)
		if err != nil {
			h.Close()
			timer.EndError(err)
			return nil, err
		}
		built, err := rowindex.NewBuilder(0).Build(context.Background(), f, cfg.IndexGranularity)
		f.Close()
		if err != nil {
			h.Close()
			timer.EndError(err)
			return nil, err
		}
		idx = built

		if err := indexcodec.Save(indexPath, idx); err != nil {
			h.Close()
			timer.EndError(err)
			return nil, err
		}
		if err := indexcodec.SaveSidecar(indexPath, size, mtime); err != nil {
			h.Close()
			timer.EndError(err)
			return nil, err
		}
		timer.End()
	}

	reg.SetOpenFiles(1)

	return catalog.NewEntry(cfg.DataFile, cfg.DataFile, h, idx), nil
}

// pollRebuilds periodically checks the catalog for files whose index
// has gone stale and rebuilds them, until stop is closed.
func pollRebuilds(cat catalog.Catalog, cfg *config.Config, log logging.Logger, reg *metrics.Registry, stop <-chan struct{}) {
	indexPath := indexPathFunc(cfg)
	controller := freshness.Default(indexPath(cfg.DataFile))
	director := rebuild.NewDirector(cat, controller, indexPath)
	executor := rebuild.NewExecutor(cat, cfg.IndexGranularity, log, indexPath, openFileFunc(cfg))

	ticker := time.NewTicker(cfg.RebuildPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			plan, err := director.MaybePlan(ctx)
			if err != nil {
				log.Warn("rebuild check failed", logging.Error(err))
				cancel()
				continue
			}
			if plan == nil {
				cancel()
				continue
			}

			start := time.Now()
			if err := executor.Execute(ctx, plan); err != nil {
				log.Error("index rebuild failed", logging.Path(plan.Path), logging.Error(err))
				reg.RecordRebuild("error", time.Since(start))
			} else {
				reg.RecordRebuild("ok", time.Since(start))
			}
			cancel()
		}
	}
}
