package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"yenfolio/internal/api"
	"yenfolio/internal/config"
	"yenfolio/internal/logging"
	"yenfolio/pkg/yenfolio"
)

var getppid = os.Getppid
var sleep = time.Sleep
var exit = os.Exit

func main() {
	var dataDir string
	var port int
	var host string
	var webDir string

	flag.StringVar(&dataDir, "data-dir", "", "Directory for storing database and application data")
	flag.IntVar(&port, "port", 0, "Port to run the server on (overrides YENFOLIO_PORT)")
	flag.StringVar(&host, "host", "", "Host to bind the server to (overrides YENFOLIO_HOST)")
	flag.StringVar(&webDir, "web-dir", "", "Directory for SPA static files (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
		cfg.LogDir = filepath.Join(dataDir, "logs")
	}
	if port > 0 {
		cfg.Port = port
	}
	if host != "" {
		cfg.Host = host
	}
	if webDir != "" {
		cfg.WebDir = webDir
	}

	logger, writer, err := logging.NewLogger(cfg.LogDir, slog.LevelInfo)
	if err != nil {
		slog.Error("failed to initialize logger", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close log writer", "err", err)
		}
	}()

	core, err := yenfolio.OpenWithOptions(yenfolio.Options{
		DBPath:           cfg.DBPath(),
		Logger:           logger,
		FinnhubAPIKey:    cfg.FinnhubAPIKey,
		TwelveDataAPIKey: cfg.TwelveDataAPIKey,
		JPXProxyURL:      cfg.JPXProxyURL,
	})
	if err != nil {
		logger.Error("failed to initialize core", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := core.Close(); err != nil {
			logger.Error("failed to close core", "err", err)
		}
	}()

	if os.Getenv("YENFOLIO_PARENT_WATCH") == "1" {
		go watchParent(logger)
	}

	scheduler := startSnapshotScheduler(core, logger, cfg.SnapshotSchedule)

	addr := cfg.Addr()
	handler := api.NewRouter(core, logger)
	if resolvedWebDir := resolveWebDir(cfg.WebDir); resolvedWebDir != "" {
		logger.Info("serving SPA", "web_dir", resolvedWebDir)
		handler = api.WithSPA(handler, resolvedWebDir)
	}
	handler = middleware.Compress(5)(handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("server starting", "addr", addr)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Info("server shutting down")
	if scheduler != nil {
		scheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}

// startSnapshotScheduler runs the daily portfolio snapshot on the configured
// cron schedule, evaluated in Asia/Tokyo. An empty schedule disables the job.
func startSnapshotScheduler(core *yenfolio.Core, logger *slog.Logger, schedule string) *cron.Cron {
	if schedule == "" {
		return nil
	}

	c := cron.New(cron.WithLocation(yenfolio.TokyoLocation()))
	_, err := c.AddFunc(schedule, func() {
		snapshot, err := core.CreateSnapshot()
		if err != nil {
			logger.Error("scheduled snapshot failed", "err", err)
			return
		}
		logger.Info("scheduled snapshot saved", "date", snapshot.Date)
	})
	if err != nil {
		logger.Error("invalid snapshot schedule", "schedule", schedule, "err", err)
		return nil
	}
	c.Start()
	logger.Info("snapshot scheduler started", "schedule", schedule)
	return c
}

func watchParent(logger *slog.Logger) {
	for {
		sleep(1 * time.Second)
		if getppid() == 1 {
			logger.Info("parent process exited; shutting down")
			exit(0)
		}
	}
}

func resolveWebDir(input string) string {
	if input != "" {
		if dirExists(input) {
			return input
		}
		return ""
	}

	candidates := []string{"static", "../static"}
	for _, candidate := range candidates {
		if dirExists(candidate) {
			return candidate
		}
	}
	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		for _, candidate := range candidates {
			path := filepath.Join(base, candidate)
			if dirExists(path) {
				return path
			}
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
