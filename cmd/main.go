package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motor-insurance/internal/auth"
	"github.com/ukydev/motor-insurance/internal/catalog"
	"github.com/ukydev/motor-insurance/internal/certificate"
	"github.com/ukydev/motor-insurance/internal/config"
	"github.com/ukydev/motor-insurance/internal/db"
	"github.com/ukydev/motor-insurance/internal/events"
	"github.com/ukydev/motor-insurance/internal/handlers"
	"github.com/ukydev/motor-insurance/internal/issuance"
	"github.com/ukydev/motor-insurance/internal/metrics"
	"github.com/ukydev/motor-insurance/internal/middleware"
	"github.com/ukydev/motor-insurance/internal/models"
	"github.com/ukydev/motor-insurance/internal/quote"
	"github.com/ukydev/motor-insurance/internal/rates"
)

func main() {
	configFile := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	table, err := loadRates(cfg.RatesFile)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"rate_version": table.Version(),
		"currency":     table.Currency(),
	}).Info("Rate table loaded")

	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	database := client.Database(cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return err
	}

	users := &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}
	vehicles := &db.MongoVehicleCollection{Collection: database.Collection(db.VehiclesCollection)}
	payments := &db.MongoPaymentCollection{Collection: database.Collection(db.PaymentsCollection)}
	stats := &db.MongoStatsCollection{
		Payments: database.Collection(db.PaymentsCollection),
		Vehicles: database.Collection(db.VehiclesCollection),
	}

	authService, err := auth.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)
	if err != nil {
		return err
	}
	if err := bootstrapAdmin(ctx, users, authService, cfg.Bootstrap); err != nil {
		return err
	}

	publisher, err := newPublisher(cfg.MQTT)
	if err != nil {
		return err
	}
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	engine, err := quote.NewEngine(table)
	if err != nil {
		return err
	}
	issuer := issuance.NewService(vehicles, payments, engine,
		issuance.WithPublisher(publisher),
		issuance.WithMetrics(m),
	)
	renderer, err := certificate.New()
	if err != nil {
		return err
	}
	vehicleCatalog, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("load vehicle catalog: %w", err)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:           handlers.NewAuthHandler(authService, users),
		Quotes:         handlers.NewQuoteHandler(engine, m),
		Vehicles:       handlers.NewVehicleHandler(vehicles, issuer),
		Payments:       handlers.NewPaymentHandler(payments, issuer, renderer),
		Stats:          handlers.NewStatsHandler(stats),
		Meta:           handlers.NewMetaHandler(vehicleCatalog),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		RateLimiter:    middleware.NewRateLimitMiddleware(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		Metrics:        m,
		TrustProxy:     cfg.TrustProxy,
		Gatherer:       registry,
		Ping: func(r *http.Request) error {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx, nil)
		},
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return serve(ctx, srv)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadRates reads the rate schedule at path, or the built-in one when path
// is empty.
func loadRates(path string) (*rates.Table, error) {
	if path == "" {
		return rates.Default()
	}
	table, err := rates.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rates %s: %w", path, err)
	}
	return table, nil
}

func newPublisher(cfg config.MQTTConfig) (events.Publisher, error) {
	if cfg.Broker == "" {
		log.Info("No MQTT broker configured, policy events are not published")
		return events.Noop{}, nil
	}
	return events.NewMQTTPublisher(events.MQTTConfig{
		Broker:   cfg.Broker,
		ClientID: cfg.ClientID,
		Topic:    cfg.Topic,
	})
}

// bootstrapAdmin creates the configured admin account if it does not exist
// yet. Registration is admin-only, so this is how the first account appears.
func bootstrapAdmin(ctx context.Context, users db.UserCollection, authService *auth.Service, cfg config.BootstrapConfig) error {
	if cfg.Username == "" {
		return nil
	}

	existing, err := users.FindUserByUsername(ctx, cfg.Username)
	switch {
	case err == nil:
		log.WithField("username", existing.Username).Debug("Bootstrap admin already exists")
		return nil
	case !errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	hash, err := authService.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}
	user, err := users.InsertUser(ctx, models.User{
		Username:     cfg.Username,
		Email:        cfg.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		FirstName:    "Administrator",
	})
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	log.WithFields(log.Fields{"user_id": user.ID.Hex(), "username": user.Username}).Info("Bootstrap admin created")
	return nil
}
