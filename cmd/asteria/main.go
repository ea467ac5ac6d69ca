// Command asteria is the engine's CLI driver: a thin cobra wrapper
// around internal/driver, wiring the natives modules, the ambient
// logging/tracing/metrics stack, and (for the `watch` subcommand) a
// config hot-reload loop grounded on an fsnotify-based file watcher.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/asteria-lang/asteria/internal/config"
	"github.com/asteria-lang/asteria/internal/diagnostics"
	"github.com/asteria-lang/asteria/internal/driver"
	"github.com/asteria-lang/asteria/internal/examples"
	"github.com/asteria-lang/asteria/internal/global"
	"github.com/asteria-lang/asteria/internal/obslog"
	"github.com/asteria-lang/asteria/internal/obsmetrics"
	"github.com/asteria-lang/asteria/internal/obstrace"
	"github.com/asteria-lang/asteria/natives/docstore"
	"github.com/asteria-lang/asteria/natives/kv"
	"github.com/asteria-lang/asteria/natives/sql"
	"github.com/asteria-lang/asteria/natives/ws"
)

var version = "0.1.0"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:     "asteria",
		Short:   "Asteria — an embeddable tree-walking scripting engine",
		Version: version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (optional, see internal/config)")

	root.AddCommand(
		runCmd(&configPath),
		listCmd(),
		watchCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func loadConfig(path string) config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.YellowString("warning: %v, falling back to defaults", err))
		return config.Default()
	}
	return cfg
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in sample programs run can execute",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range examples.All() {
				fmt.Printf("%-16s %s\n", p.Name, p.Description)
			}
			return nil
		},
	}
}

func runCmd(configPath *string) *cobra.Command {
	var serveMetrics bool
	var enableTracing bool

	cmd := &cobra.Command{
		Use:   "run <example>",
		Short: "Run one of the built-in sample programs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(*configPath)
			result, log, metrics, tp, err := runOnce(cmd.Context(), cfg, args[0], serveMetrics, enableTracing)
			if log != nil {
				defer log.Close()
			}
			if tp != nil {
				defer tp.Shutdown(context.Background())
			}
			_ = metrics
			if err != nil {
				fmt.Fprintln(os.Stderr, diagnostics.Render(err, ""))
				os.Exit(driver.ExitCode(err))
			}
			fmt.Println(result.Value.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&serveMetrics, "metrics", false, "serve a /metrics Prometheus endpoint for the run's duration")
	cmd.Flags().BoolVar(&enableTracing, "trace", false, "emit an OpenTelemetry span for the run (bind and execute) to stdout")
	return cmd
}

func watchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <example>",
		Short: "Re-run a sample program every time the config file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if *configPath == "" {
				return fmt.Errorf("watch requires --config, since there is no script source file to watch (the parser is out of scope for this engine)")
			}
			return watchConfigAndRun(cmd.Context(), *configPath, args[0])
		},
	}
}

// runOnce binds and executes one named sample program under a fresh
// Global Context, wiring every natives module unconditionally (each
// only registers an *_open native; no connection is attempted until a
// script calls one) plus the ambient observability stack.
func runOnce(ctx context.Context, cfg config.Config, name string, serveMetrics, enableTracing bool) (driver.Result, *obslog.Logger, *obsmetrics.Metrics, *obstrace.Provider, error) {
	prog, ok := examples.Find(name)
	if !ok {
		return driver.Result{}, nil, nil, nil, fmt.Errorf("no such example %q (see `asteria list`)", name)
	}

	level := obslog.Info
	if cfg.Log.Level == "debug" {
		level = obslog.Debug
	}
	format := obslog.Text
	if cfg.Log.Format == "json" {
		format = obslog.JSON
	}
	log := obslog.New(obslog.Config{MinLevel: level, Format: format, BufferSize: cfg.Log.BufferSize}, "")

	metrics := obsmetrics.New(obsmetrics.DefaultConfig())

	tp, err := obstrace.Init(cfg.Tracing.ServiceName, enableTracing || cfg.Tracing.Enabled)
	if err != nil {
		return driver.Result{}, log, metrics, nil, err
	}

	if serveMetrics || cfg.Metrics.Enabled {
		addr := cfg.Metrics.Addr
		if addr == "" {
			addr = ":9090"
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warnf("metrics server: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("serving metrics on %s/metrics", addr)
	}

	g := global.New(cfg.CollectorThreshold)
	g.Collector.SetSweepObserver(metrics.ObserveSweep)
	sql.Register(g)
	kv.Register(g)
	docstore.Register(g)
	ws.Register(g)

	log.Infof("running example %q", prog.Name)
	var result driver.Result
	runErr := obstrace.WithSpan(ctx, "run."+prog.Name, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = driver.Run(g, prog.Header, prog.Body, nil)
		return innerErr
	}, obstrace.ScriptAttributes(prog.Name)...)

	if runErr != nil {
		if driver.ExitCode(runErr) == 1 {
			metrics.ObserveException(false)
		}
		log.Thrown(prog.Name, prog.Header.FuncName, prog.Header.Loc.Line, runErr.Error())
	}
	return result, log, metrics, tp, runErr
}

// watchConfigAndRun mirrors a typical fsnotify-based watch loop:
// watch the config file's directory (so editors that save atomically are
// still seen), debounce rapid successive writes, and re-run on change.
// There is no script source file to watch since the lexer/parser are
// out of scope for this engine; the config file is what stands in for
// "the thing that changed" in a hot-reload loop.
func watchConfigAndRun(ctx context.Context, path, example string) error {
	if _, _, _, _, err := runOnce(ctx, loadConfig(path), example, false, false); err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Render(err, ""))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	filename := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}

	var debounce *time.Timer
	const debounceDelay = 150 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				fmt.Println(color.YellowString("config changed, re-running %s...", example))
				if _, _, _, _, err := runOnce(ctx, loadConfig(path), example, false, false); err != nil {
					fmt.Fprintln(os.Stderr, diagnostics.Render(err, ""))
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, color.RedString("watcher error: %v", err))
		case <-ctx.Done():
			return nil
		}
	}
}
