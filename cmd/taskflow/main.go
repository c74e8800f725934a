package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/taskflow/internal/config"
	"github.com/sandeepkv93/taskflow/internal/lifecycle"
	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/notify"
	"github.com/sandeepkv93/taskflow/internal/storage"
	"github.com/sandeepkv93/taskflow/internal/store"
	"github.com/sandeepkv93/taskflow/internal/update"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", config.ResolvePath(), "path to the taskflow configuration file")
	flag.Parse()

	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, closer, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := run(cfg, log); err != nil {
		log.Error("taskflow failed", "error", err)
		fmt.Fprintf(os.Stderr, "taskflow failed: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	log.Info("starting taskflow", "driver", cfg.Storage.Driver)

	repo, err := storage.Open(log, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	broadcaster := notify.NewBroadcaster(cfg.UI.NotifyBuffer, log)
	broadcaster.Start()
	defer broadcaster.Stop()

	coord := lifecycle.NewCoordinator(
		store.NewTaskStore(repo),
		store.NewCategoryStore(repo),
		log,
		broadcaster,
	)

	if cfg.UI.SeedCategories {
		if _, err := coord.SeedCategories(context.Background(), lifecycle.DefaultCategories); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
	}

	program := tea.NewProgram(update.NewModel(update.Deps{
		Coordinator:   coord,
		Events:        broadcaster.C(),
		Log:           log,
		DefaultStatus: model.Status(cfg.UI.DefaultStatus),
	}), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	log.Info("taskflow stopped", "dropped_notifications", broadcaster.Dropped())
	return nil
}
