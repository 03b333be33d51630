package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/designstudio/portfolio-backend/config"
	"github.com/designstudio/portfolio-backend/internal/bootstrap"
	"github.com/designstudio/portfolio-backend/internal/logging"
	"github.com/designstudio/portfolio-backend/internal/media"
	"github.com/designstudio/portfolio-backend/internal/projects/events"
	projhttp "github.com/designstudio/portfolio-backend/internal/projects/http"
	"github.com/designstudio/portfolio-backend/internal/projects/repository"
	"github.com/designstudio/portfolio-backend/internal/projects/service"
	"github.com/designstudio/portfolio-backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	closer, err := logging.Setup(logging.Options{File: cfg.App.LogFile})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.App.Environment)

	db, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	pool, err := bootstrap.OpenPool(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer pool.Close()

	deps := bootstrap.RouterDeps{
		ServiceName:  cfg.App.ServiceName,
		Version:      cfg.App.Version,
		CORSOrigins:  cfg.Server.CORSOrigins,
		SecureCookie: cfg.Auth.CookieSecure,
		DB:           pool,
		MaxUpload:    cfg.Media.MaxBytes,
	}

	var publisher service.Publisher
	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Printf("[warn] operation=redis.init message=live updates disabled error=%v", err)
	} else {
		defer rdb.Close()
		bus := events.NewBus(rdb)
		publisher = bus
		deps.Redis = rdb
		deps.Subscriber = projhttp.Subscriber(bus)
	}

	store, err := bootstrap.OpenMediaStore(ctx, &cfg.Media)
	if err != nil {
		log.Fatalf("media: %v", err)
	}
	deps.MediaStore = store
	if local, ok := store.(*media.LocalStore); ok {
		deps.UploadsDir = local.Dir()
	}

	deps.Auth, err = bootstrap.NewAuthService(ctx, cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	deps.Projects = service.NewProjectService(repository.NewProjectRepository(db), publisher)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           bootstrap.BuildRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[info] operation=api.start service=%s version=%s port=%s media=%s", cfg.App.ServiceName, cfg.App.Version, cfg.Server.Port, cfg.Media.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("[info] operation=api.stop message=shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[error] operation=api.stop error=%v", err)
	}
}
