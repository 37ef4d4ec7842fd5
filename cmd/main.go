package main

import (
	"context"
	"net/http"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/alerts"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/ingest"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/schedule"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment")
	}
	cfg := config.Load()

	log.SetFormatter(&log.JSONFormatter{})

	client, err := db.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	store := db.NewStore(client.Database(cfg.MongoDB))
	if err := db.EnsureIndexes(context.Background(), store); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	var tx db.TxRunner = db.SequentialTx{}
	if cfg.MongoTx {
		tx = &db.MongoTx{Client: client}
	}

	engine := alerts.NewEngine(store)
	ingestSvc := ingest.NewService(store, store, engine, tx, cfg)
	schedSvc := schedule.NewService(store, store, store, engine, cfg)

	authService, err := auth.NewService()
	if err != nil {
		log.Fatalf("Failed to create auth service: %v", err)
	}
	authMW := middleware.NewAuthMiddleware(authService)
	rateMW := middleware.NewRateLimitMiddleware()

	fleetHandler := handlers.NewFleetHandler(store, store, store, schedSvc)
	ingestHandler := handlers.NewIngestHandler(ingestSvc, schedSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/vehicles", fleetHandler.Vehicles)
	mux.HandleFunc("/api/alerts", fleetHandler.Alerts)
	mux.HandleFunc("/api/work-orders", fleetHandler.WorkOrders)
	mux.HandleFunc("/api/work-orders/complete", fleetHandler.CompleteWorkOrder)
	mux.HandleFunc("/api/fuel-fills", ingestHandler.FuelFills)
	mux.HandleFunc("/api/novelties", ingestHandler.Novelties)
	mux.HandleFunc("/api/checks/run", ingestHandler.RunChecks)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handler := middleware.LoggingMiddleware(
		rateMW.RateLimit(100, 60)(
			authMW.Authenticate(mux)))

	if cfg.MQTTBroker != "" {
		mqttClient, err := ingest.StartSubscriber(cfg, ingestSvc)
		if err != nil {
			log.Fatalf("Failed to start MQTT subscriber: %v", err)
		}
		defer mqttClient.Disconnect(250)
	}

	log.Infof("HTTP server listening on :%s", cfg.HTTPPort)
	log.Fatal(http.ListenAndServe(":"+cfg.HTTPPort, handler))
}
