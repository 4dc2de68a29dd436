package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/okian/duelo/internal/adapters/persistence"
	"github.com/okian/duelo/internal/adapters/resolve"
	service "github.com/okian/duelo/internal/app"
	"github.com/okian/duelo/internal/config"
	"github.com/okian/duelo/internal/domain/cohort"
	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/pkg/logger"
	"github.com/okian/duelo/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP server timeout constants for the optional metrics listener.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second

	topEntriesShown = 10
)

func main() {
	root := flag.String("root", ".", "Directory whose files become the comparison corpus")
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Optional Prometheus metrics listener.
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	// Walk the corpus directory into the resolver.
	resolver, count, err := buildResolver(*root)
	if err != nil {
		os.Stderr.WriteString("failed to scan corpus: " + err.Error() + "\n")
		return
	}
	loggerInstance.Info(ctx, "corpus scanned", logger.String("root", *root), logger.Int("items", count))

	// Create and start the session with configuration options
	svc := service.New(
		service.WithLogger(loggerInstance),
		service.WithStorage(persistence.NewFileStorage(cfg.DataFile)),
		service.WithResolver(resolver),
		service.WithBaseK(cfg.BaseK),
		service.WithHeuristics(cfg.Heuristics()),
		service.WithMatchmaking(cfg.Matchmaking()),
		service.WithSaveDebounce(cfg.SaveDebounce()),
		service.WithUndoDepth(cfg.UndoDepth),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start session: " + err.Error() + "\n")
		return
	}

	runPrompt(ctx, svc)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "session shutdown failed", logger.Error(err))
	}
	loggerInstance.Info(ctx, "session stopped")
}

// serveMetrics exposes the engine's Prometheus registry.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Get().Info(ctx, "serving metrics", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Get().Error(ctx, "metrics server failed", logger.Error(err))
	}
}

// buildResolver walks root and registers every regular file as a
// corpus item. The relative path doubles as the stable id; the file
// extension becomes a tag so extension cohorts work out of the box.
func buildResolver(root string) (*resolve.InMemoryResolver, int, error) {
	resolver := resolve.NewInMemoryResolver()
	count := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		item := resolve.Item{ID: rel, Path: "/" + filepath.ToSlash(rel)}
		if ext := strings.TrimPrefix(filepath.Ext(rel), "."); ext != "" {
			item.Tags = []string{ext}
		}
		resolver.Upsert(item)
		count++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return resolver, count, nil
}

// runPrompt drives the compare loop on stdin until the user quits or
// the context is cancelled.
func runPrompt(ctx context.Context, svc *service.Service) {
	def := cohort.Definition{Scope: cohort.AllScope{}, Label: "all items"}
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Commands: 1 = first wins, 2 = second wins, d = draw, u = undo, r = rankings, q = quit")

	for ctx.Err() == nil {
		pair, ok, err := svc.NextPair(ctx, def)
		if err != nil {
			fmt.Println("error picking a pair:", err)
			return
		}
		if !ok {
			fmt.Println("need at least two items to compare")
			return
		}

		fmt.Printf("\n  [1] %s\n  [2] %s\n> ", pair.First, pair.Second)
		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "1":
			svc.RecordJudgment(ctx, def.Key(), pair.First, pair.Second, model.FirstWins)
		case "2":
			svc.RecordJudgment(ctx, def.Key(), pair.First, pair.Second, model.SecondWins)
		case "d", "=":
			svc.RecordJudgment(ctx, def.Key(), pair.First, pair.Second, model.Draw)
		case "u":
			if svc.Undo(ctx) {
				fmt.Println("last judgment undone")
			} else {
				fmt.Println("nothing to undo")
			}
		case "r":
			printStandings(ctx, svc, def.Key())
		case "q":
			return
		default:
			fmt.Println("unrecognized command")
		}
	}
}

// printStandings shows the cohort's top entries.
func printStandings(ctx context.Context, svc *service.Service, key string) {
	standings := svc.Standings(ctx, key)
	if len(standings) == 0 {
		fmt.Println("no judgments yet")
		return
	}

	n := len(standings)
	if n > topEntriesShown {
		n = topEntriesShown
	}
	for _, entry := range standings[:n] {
		fmt.Printf("  %3d. %-40s %7.1f  (%d matches)\n", entry.Rank, entry.ID, entry.Rating, entry.Matches)
	}
}
