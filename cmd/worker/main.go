package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/designstudio/portfolio-backend/config"
	"github.com/designstudio/portfolio-backend/internal/bootstrap"
	"github.com/designstudio/portfolio-backend/internal/logging"
	"github.com/designstudio/portfolio-backend/internal/media"
	"github.com/designstudio/portfolio-backend/internal/projects/repository"
	"github.com/designstudio/portfolio-backend/internal/storage/postgres"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker sweep [--once]")
	}

	switch os.Args[1] {
	case "sweep":
		once := len(os.Args) > 2 && os.Args[2] == "--once"
		if err := runSweep(once); err != nil {
			log.Fatalf("sweep: %v", err)
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// runSweep removes uploaded media no project references. With once set it
// runs a single pass; otherwise it follows SWEEP_SCHEDULE until stopped.
func runSweep(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	closer, err := logging.Setup(logging.Options{File: cfg.App.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := bootstrap.OpenMediaStore(ctx, &cfg.Media)
	if err != nil {
		return err
	}

	sweeper := media.NewSweeper(store, repository.NewProjectRepository(db), cfg.Sweep.Grace)
	if once {
		removed, err := sweeper.Sweep(ctx)
		log.Printf("[info] operation=media.sweep removed=%d", removed)
		return err
	}

	scheduler := media.NewSweepScheduler(sweeper)
	if err := scheduler.Start(cfg.Sweep.Schedule); err != nil {
		return err
	}
	<-ctx.Done()
	scheduler.Stop()
	return nil
}
