// Command worker consumes queued check-ins and records them as attendance
// using the admin session stored by campusctl.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusevents/internal/api"
	"campusevents/internal/config"
	"campusevents/internal/model"
	"campusevents/internal/queue"
	"campusevents/internal/session"
)

// marker is the API call the worker makes per check-in.
type marker interface {
	CreateAttendance(ctx context.Context, registrationID, eventID model.ID) (model.Attendance, error)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	sessions, closeSessions, err := session.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer closeSessions()

	sess := sessions.Load(ctx)
	if !sess.IsAuthenticated() || !sess.User.IsAdmin() {
		log.Fatalf("worker needs an admin session: run campusctl login as an admin first")
	}

	reg := prometheus.NewRegistry()
	client := api.New(cfg.APIBaseURL, sessions, api.WithTimeout(cfg.APITimeout), api.WithMetrics(api.NewMetrics(reg)))
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, reg)
	}

	q, closeQueue, err := queue.Open(cfg)
	if err != nil {
		log.Fatalf("queue: %v", err)
	}
	defer closeQueue()

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Printf("worker started as %s, waiting for check-ins...", sess.User.Email)
	if err := process(ctx, messages, client); err != nil {
		log.Printf("worker stopped: %v", err)
		return
	}
	log.Println("worker stopped")
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Printf("metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("metrics server: %v", err)
	}
}

// process marks attendance once per check-in until the channel closes. It
// returns early when the API ends the session.
func process(ctx context.Context, messages <-chan queue.Message, m marker) error {
	for msg := range messages {
		if msg.Type != queue.TypeCheckIn {
			log.Printf("skipping message of type %q", msg.Type)
			continue
		}
		c, err := msg.CheckIn()
		if err != nil {
			log.Printf("skipping check-in: %v", err)
			continue
		}

		a, err := m.CreateAttendance(ctx, c.RegistrationID, c.EventID)
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			return fmt.Errorf("session ended: %w", err)
		case err != nil:
			log.Printf("check-in %s for event %s failed: %s", c.RegistrationID, c.EventID, api.Detail(err, err.Error()))
		default:
			log.Printf("registration %s checked in at %s", c.RegistrationID, a.CheckInTime.Format(time.RFC3339))
		}
	}
	return nil
}
