package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pdfchat/internal/app"
	"pdfchat/internal/config"
	"pdfchat/internal/ingest"
	"pdfchat/internal/logger"
	"pdfchat/internal/service"
	"pdfchat/internal/web"
	"pdfchat/internal/workspace"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, addr string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	flag.Parse()

	if err := run(cfgPath, addr); err != nil {
		log.Fatal(err)
	}
}

func run(cfgPath, addr string) error {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	lg := logger.NewZapLogger(logger.Options{FilePath: cfg.Log.File, Level: cfg.Log.Level, Console: true})
	defer lg.Sync()

	a := app.New(workspace.NewManager(cfg.Workspace.Root), service.NewFactory(*cfg, lg), ingest.NewBridge(""), lg)
	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			lg.Error("main", "cleanup failed", map[string]interface{}{"error": err})
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           web.NewServer(a, lg).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("main", "listening", map[string]interface{}{"addr": addr, "workspace": a.WorkspacePath()})
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
