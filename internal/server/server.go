package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/driveline-motors/apiserver/config"
	"github.com/driveline-motors/apiserver/internal/db"
	"github.com/driveline-motors/apiserver/internal/handlers"
	"github.com/driveline-motors/apiserver/internal/mq"
	"github.com/driveline-motors/apiserver/internal/services"
	"github.com/driveline-motors/apiserver/internal/storage"
	"github.com/driveline-motors/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const requestTimeout = 60 * time.Second

// Server owns the HTTP listener and the resources it serves from.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	broker     *mq.MQ
}

// New builds the full application: database, optional object storage and
// event broker, services, and the HTTP router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	database, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	images, err := buildStorage(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	broker, err := buildBroker(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, err
	}

	userService := services.NewUserService(store.NewUserRepository(database))
	carService := services.NewCarService(store.NewCarRepository(database), imageStore(images))
	orderService := services.NewOrderService(store.NewOrderRepository(database), eventPublisher(broker))
	contactService := services.NewContactService(store.NewContactRepository(database))
	statsService := services.NewStatsService(store.NewStatsRepository(database))

	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret)
	carHandler := handlers.NewCarHandler(carService, userService, cfg.JWTSecret)
	orderHandler := handlers.NewOrderHandler(orderService, userService, cfg.JWTSecret)
	contactHandler := handlers.NewContactHandler(contactService, userService, cfg.JWTSecret)
	adminHandler := handlers.NewAdminHandler(statsService, userService, cfg.JWTSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", handlers.Healthz)
	r.Mount("/api/user", authHandler.UserRouter())
	r.Mount("/api/car", carHandler.CarRouter())
	r.Mount("/api/order", orderHandler.OrderRouter())
	r.Mount("/api/contact", contactHandler.ContactRouter())
	r.Mount("/api/admin", adminHandler.AdminRouter())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
			Handler: r,
		},
		db:     database,
		broker: broker,
	}, nil
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Printf("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases held resources.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		if cerr := s.broker.Close(); cerr != nil {
			log.Printf("failed to close broker: %v", cerr)
		}
	}
	if dberr := s.db.Close(); dberr != nil && err == nil {
		err = dberr
	}
	return err
}

// buildStorage selects the configured object storage backend. A nil result
// with a nil error means image uploads are disabled.
func buildStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage

	switch cfg.Storage.Backend {
	case "":
		return nil, nil
	case config.StorageBackendMinio:
		client, err := storage.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		backend = client
	case config.StorageBackendGCS:
		client, err := storage.NewGCSClient(ctx, cfg.Storage.GCS)
		if err != nil {
			return nil, fmt.Errorf("connect gcs: %w", err)
		}
		backend = client
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	wrapped := storage.NewStorage(backend, cfg.Storage.PublicBaseURL)
	if err := wrapped.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	return wrapped, nil
}

// buildBroker selects the configured event broker. A nil result with a nil
// error means order events are disabled.
func buildBroker(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.MQ.Backend {
	case "":
		return nil, nil
	case config.MQBackendRabbitMQ:
		client, err := mq.NewRabbitMQClient(cfg.MQ.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return mq.New(client), nil
	case config.MQBackendPubSub:
		client, err := mq.NewPubSubClient(ctx, cfg.MQ.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}

// eventPublisher converts a possibly-nil broker into the interface the
// order service accepts. A typed nil inside a non-nil interface would defeat
// the service's nil check.
func eventPublisher(broker *mq.MQ) services.EventPublisher {
	if broker == nil {
		return nil
	}
	return broker
}

// imageStore is the same conversion for the optional object storage.
func imageStore(s *storage.Storage) services.ImageStore {
	if s == nil {
		return nil
	}
	return s
}
