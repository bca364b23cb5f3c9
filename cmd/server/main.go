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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/venue-reservation/internal/app"
	"github.com/iliyamo/venue-reservation/internal/config"
	"github.com/iliyamo/venue-reservation/internal/handler"
	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/queue"
	"github.com/iliyamo/venue-reservation/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not read .env: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, config.LoadVenueConfig(), app.Options{Redis: config.NewRedisClient()})
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	if cfg.Events.Enabled {
		go queue.StartAuditConsumer(cfg.Events.URL, queue.NewAuditLog(cfg.Events.AuditLogPath))
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, a.Users),
		Reservations: handler.NewReservationHandler(a.Engine),
		Admin:        handler.NewAdminHandler(a.Engine),
		Venues:       handler.NewVenueHandler(a.Catalog),
		Users:        handler.NewUserHandler(a.Users, cfg.BcryptCost),
		JWTSecret:    cfg.JWTSecret,
		RateLimit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), a.Redis),
		Cache:        middleware.NewRedisCache(config.LoadCacheConfig(), a.Redis),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s, lock=%s)", addr, cfg.Env, cfg.Store.Driver, cfg.Lock.Backend)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
