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

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"counseling/internal/config"
	"counseling/internal/database"
	"counseling/internal/modules/admin"
	"counseling/internal/modules/auth"
	"counseling/internal/modules/booking"
	"counseling/internal/modules/reservation"
	jwtsvc "counseling/internal/pkg/jwt"
	"counseling/internal/refresh"
	"counseling/internal/repository"
	"counseling/internal/server"
	"counseling/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	reservationRepo := repository.NewReservationRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.SessionTTL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := refresh.NewHub()
	defer hub.Close()

	var refresher refresh.Revalidator = hub

	if cfg.RabbitMQURL != "" {
		publisher, err := refresh.NewPublisher(cfg.RabbitMQURL, uuid.NewString())
		if err != nil {
			log.Fatalf("rabbitmq publisher: %v", err)
		}
		defer publisher.Close()

		consumer, err := refresh.NewConsumer(cfg.RabbitMQURL, cfg.RefreshQueueName)
		if err != nil {
			log.Fatalf("rabbitmq consumer: %v", err)
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ctx, hub); err != nil {
				log.Printf("refresh_consumer_stopped error=%q", err.Error())
			}
		}()
		refresher = publisher
		log.Printf("[RabbitMQ] refresh signals fan out through exchange %s", refresh.ExchangeName)
	}

	policy := admin.NewPolicy(cfg.AdminIDs...)
	if policy.Len() == 0 {
		log.Println("WARNING: ADMIN_UIDS is empty, nobody can manage slots")
	}

	authService := auth.NewService(userRepo, j)
	unsubscribe := authService.Subscribe(func(event auth.Event, s *auth.Session) {
		if s == nil {
			log.Printf("auth_event event=%s", event)
			return
		}
		log.Printf("auth_event event=%s user_id=%s", event, s.User.ID)
	})
	defer unsubscribe()

	renderer, err := web.NewRenderer(cfg.DisplayLocation)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	router := server.NewRouter(server.Deps{
		Auth:        authService,
		Booking:     booking.NewService(slotRepo, reservationRepo, refresher),
		Reservation: reservation.NewService(reservationRepo, refresher),
		Admin:       admin.NewService(slotRepo, policy, refresher, cfg.InputLocation),
		Hub:         hub,
		Renderer:    renderer,
		Cookie: auth.CookieConfig{
			Secure:   cfg.CookieSecure,
			SameSite: server.ParseSameSite(cfg.CookieSameSite),
			TTL:      cfg.SessionTTL,
		},
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.WithCSRF(router, []byte(cfg.CSRFKey), cfg.CookieSecure),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server started on %s (env=%s)", cfg.HTTPAddr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server stopped")
}
