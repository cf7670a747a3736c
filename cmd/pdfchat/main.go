package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"pdfchat/internal/app"
	"pdfchat/internal/config"
	"pdfchat/internal/ingest"
	"pdfchat/internal/logger"
	"pdfchat/internal/service"
	"pdfchat/internal/tui"
	"pdfchat/internal/workspace"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./pdfchat.yaml or ~/.config/pdfchat/config.yaml if not provided)")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		log.Fatal(err)
	}
}

func run(cfgPath string) error {
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

	// stdout belongs to the terminal UI, so logs only go to the file
	lg := logger.NewZapLogger(logger.Options{FilePath: cfg.Log.File, Level: cfg.Log.Level})
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if _, err := tea.NewProgram(tui.New(ctx, a, cwd), tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return nil
}
