package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"idlekingdom.dev/internal/host"
	"idlekingdom.dev/internal/persistence/journal"
	"idlekingdom.dev/internal/persistence/savedb"
	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/persistence/store"
	"idlekingdom.dev/internal/sim/catalogs"
	"idlekingdom.dev/internal/sim/engine"
	"idlekingdom.dev/internal/sim/tuning"
	"idlekingdom.dev/internal/transport/httpapi"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		dbPath     = flag.String("db", "", "sqlite save database (default: <data>/kingdom.sqlite; ignored when -save is set)")
		savePath   = flag.String("save", "", "zstd save file; when set the sqlite database is not used")
		slot       = flag.String("slot", savedb.DefaultSlot, "save slot in the sqlite database")
		history    = flag.Int("history", savedb.DefaultHistory, "saves kept per slot in the sqlite history")
		noJournal  = flag.Bool("no_journal", false, "disable the JSONL.zst event journal")
		cmdRate    = flag.Float64("cmd_rate", 20, "commands per second per session")
		cmdBurst   = flag.Int("cmd_burst", 40, "command burst per session")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "server",
		ReportTimestamp: true,
		TimeFormat:      time.StampMilli,
	})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatal("load catalogs", "err", err)
	}
	for _, w := range cats.Warnings {
		logger.Warn("catalog", "warning", w)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatal("load tuning", "err", err)
	}
	eng, err := engine.New(cats, tune, logger.With("component", "engine"))
	if err != nil {
		logger.Fatal("engine", "err", err)
	}
	defaults := snapshot.Defaults{Loop: eng.LoopDefaults()}

	opts := host.Options{Logger: logger.With("component", "host")}
	var db *savedb.DB
	if p := strings.TrimSpace(*savePath); p != "" {
		opts.Store = store.NewFileStore(p, defaults)
		logger.Info("using save file", "path", p)
	} else {
		p := strings.TrimSpace(*dbPath)
		if p == "" {
			p = filepath.Join(*dataDir, "kingdom.sqlite")
		}
		db, err = savedb.Open(p, savedb.Options{Slot: *slot, History: *history, Defaults: defaults})
		if err != nil {
			logger.Fatal("open save database", "path", p, "err", err)
		}
		defer db.Close()
		opts.Store = db
		opts.Sinks = append(opts.Sinks, db)
		logger.Info("using save database", "path", p, "slot", *slot)
	}
	if !*noJournal {
		j := journal.New(filepath.Join(*dataDir, "events"), "events")
		defer j.Close()
		opts.Sinks = append(opts.Sinks, j)
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt := host.New(eng, opts)
	if err := rt.Boot(ctx); err != nil {
		logger.Fatal("boot", "err", err)
	}
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("runtime stopped", "err", err)
		}
	}()

	api := httpapi.NewHandler(rt, logger.With("component", "http"), httpapi.Options{
		CommandsPerSecond: *cmdRate,
		Burst:             *cmdBurst,
	})
	router := api.Routes()
	router.Get("/metrics", metricsHandler(rt, db))
	if envBool("IK_ENABLE_PPROF_HTTP", false) {
		mountPprof(router)
	} else {
		logger.Debug("pprof endpoints disabled (IK_ENABLE_PPROF_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Info("listening", "addr", *addr, "catalog_digest", cats.Digest())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("ListenAndServe", "err", err)
	}
	<-runDone
	logger.Info("stopped")
}

func mountPprof(r chi.Router) {
	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
