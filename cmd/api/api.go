package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fitsync/schedule-service/cmd/utils"
	"github.com/fitsync/schedule-service/service/availability"
	"github.com/fitsync/schedule-service/service/booking"
	"github.com/fitsync/schedule-service/service/events"
	"github.com/fitsync/schedule-service/service/identity"
	"github.com/fitsync/schedule-service/service/session"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type APIServer struct {
	address  string
	db       *gorm.DB
	rdb      *redis.Client
	identity *identity.Client
	logger   *zap.Logger
}

func NewApiServer(address string, db *gorm.DB, rdb *redis.Client, identityClient *identity.Client, logger *zap.Logger) *APIServer {
	return &APIServer{
		address:  address,
		db:       db,
		rdb:      rdb,
		identity: identityClient,
		logger:   logger,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.healthCheck).Methods("GET")

	subrouter := router.PathPrefix("/api/v1").Subrouter()
	subrouter.Use(utils.AuthMiddleware)

	publisher := events.NewPublisher(s.rdb, s.logger)

	availabilityHandler := availability.NewAvailabilityHandler(s.db, s.logger)
	availabilityHandler.RegisterRoutes(subrouter)

	bookingHandler := booking.NewBookingHandler(s.db, publisher, s.identity, s.logger)
	bookingHandler.RegisterRoutes(subrouter)

	sessionHandler := session.NewSessionHandler(s.db, s.logger)
	sessionHandler.RegisterRoutes(subrouter)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	s.logger.Info("server running", zap.String("address", s.address))
	return http.ListenAndServe(s.address, cors(router))
}

func (s *APIServer) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"service":   "schedule-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
