package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"campusevents/internal/config"
	"campusevents/internal/devapi"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
		log.Println("warning: devapi keeps all state in memory and is not meant for production")
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	store := devapi.NewStore()
	if cfg.Seed {
		if err := devapi.Seed(store, time.Now()); err != nil {
			return err
		}
		log.Printf("seeded demo accounts: %s / %s, %s / %s",
			devapi.SeedAdminEmail, devapi.SeedAdminPassword, devapi.SeedStudentEmail, devapi.SeedStudentPassword)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tokens := devapi.NewTokens(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTTL)
	r := devapi.NewRouter(devapi.NewHandler(store, tokens), devapi.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		AccessLog:       true,
		Registry:        reg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("devapi listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down devapi...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("devapi exited")
	return nil
}
