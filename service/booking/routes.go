package booking

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/fitsync/schedule-service/cmd/models"
	"github.com/fitsync/schedule-service/cmd/utils"
	"github.com/fitsync/schedule-service/service/events"
	"github.com/fitsync/schedule-service/service/identity"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BookingHandler struct {
	ledger    *Ledger
	publisher *events.Publisher
	identity  *identity.Client
	logger    *zap.Logger
}

func NewBookingHandler(db *gorm.DB, publisher *events.Publisher, identityClient *identity.Client, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		ledger:    NewLedger(db),
		publisher: publisher,
		identity:  identityClient,
		logger:    logger,
	}
}

func (h *BookingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/bookings", h.CreateBooking).Methods("POST")
	router.HandleFunc("/bookings", h.ListBookings).Methods("GET")
	router.HandleFunc("/bookings/{id}", h.GetBooking).Methods("GET")
	router.HandleFunc("/bookings/{id}/cancel", h.CancelBooking).Methods("PUT")
	router.HandleFunc("/bookings/{id}/complete",
		utils.RequireRole(h.CompleteBooking, utils.RoleTrainer, utils.RoleAdmin)).Methods("PUT")
}

type createBookingRequest struct {
	Type        string  `json:"type" validate:"required,oneof=one_on_one group_class"`
	TrainerID   string  `json:"trainer_id" validate:"required,uuid4"`
	GymID       *string `json:"gym_id,omitempty" validate:"omitempty,uuid4"`
	BookingDate string  `json:"booking_date" validate:"required"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	Notes       string  `json:"notes,omitempty"`
}

type cancelBookingRequest struct {
	CancellationReason *string `json:"cancellation_reason"`
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	clientID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date, err := models.ParseDate(req.BookingDate)
	if err != nil {
		http.Error(w, "Invalid booking date. Use YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	start, err := models.ParseTimeOfDay(req.StartTime)
	if err != nil {
		http.Error(w, "Invalid start time. Use HH:MM", http.StatusBadRequest)
		return
	}
	end, err := models.ParseTimeOfDay(req.EndTime)
	if err != nil {
		http.Error(w, "Invalid end time. Use HH:MM", http.StatusBadRequest)
		return
	}

	tr, err := models.NewTimeRange(
		models.CombineDateTime(date, start),
		models.CombineDateTime(date, end),
	)
	if err != nil {
		http.Error(w, "End time must be after start time", http.StatusBadRequest)
		return
	}

	token := r.Header.Get("Authorization")

	// Trainer identity is load-bearing: a definitive "not found" blocks the
	// booking, while an unreachable user service only downgrades the check.
	trainer, err := h.identity.ValidateUser(r.Context(), req.TrainerID, token)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		http.Error(w, "Trainer not found", http.StatusNotFound)
		return
	case errors.Is(err, identity.ErrServiceUnavailable):
		h.logger.Warn("user service unavailable, skipping trainer validation")
	case err != nil:
		http.Error(w, "Error validating trainer", http.StatusInternalServerError)
		return
	default:
		if trainer.Role != utils.RoleTrainer {
			http.Error(w, "Specified user is not a trainer", http.StatusBadRequest)
			return
		}
	}

	// Advisory only: log when the client has no active program with this
	// trainer, never block the booking on it.
	if programs := h.identity.ActivePrograms(r.Context(), clientID, token); len(programs) > 0 {
		hasProgram := false
		for _, p := range programs {
			if p.TrainerID == req.TrainerID {
				hasProgram = true
				break
			}
		}
		if !hasProgram {
			h.logger.Warn("client booking trainer without active program",
				zap.String("client_id", clientID),
				zap.String("trainer_id", req.TrainerID))
		}
	}

	b := models.Booking{
		Type:        req.Type,
		TrainerID:   req.TrainerID,
		ClientID:    clientID,
		GymID:       req.GymID,
		BookingDate: date,
		StartTime:   tr.Start,
		EndTime:     tr.End,
		Notes:       req.Notes,
	}

	if err := h.ledger.Create(r.Context(), &b); err != nil {
		switch {
		case errors.Is(err, ErrSlotConflict):
			http.Error(w, "Time slot already booked", http.StatusConflict)
		case errors.Is(err, models.ErrInvalidRange):
			http.Error(w, "End time must be after start time", http.StatusBadRequest)
		default:
			http.Error(w, "Error creating booking", http.StatusInternalServerError)
		}
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelBookingCreated, map[string]interface{}{
		"booking_id":   b.ID,
		"client_id":    b.ClientID,
		"trainer_id":   b.TrainerID,
		"booking_date": b.BookingDate.Format("2006-01-02"),
		"start_time":   b.StartTime.Format("15:04:05"),
		"end_time":     b.EndTime.Format("15:04:05"),
		"type":         b.Type,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    b,
	})
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	role, err := utils.GetUserRoleFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "Limit must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	filter := ListFilter{
		Status: r.URL.Query().Get("status"),
		Page:   page,
		Limit:  limit,
	}
	// Clients see their own bookings, trainers their own schedule, admins
	// everything.
	switch role {
	case utils.RoleClient:
		filter.ClientID = userID
	case utils.RoleTrainer:
		filter.TrainerID = userID
	}

	bookings, total, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "Error retrieving bookings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    bookings,
		"pagination": map[string]interface{}{
			"page":        page,
			"limit":       limit,
			"total_count": total,
			"total_pages": int64(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	b, err := h.ledger.Get(r.Context(), vars["id"])
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error retrieving booking", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    b,
	})
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req cancelBookingRequest
	if r.Body != nil {
		// An empty or absent body is fine, the reason is optional.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	b, err := h.ledger.Cancel(r.Context(), vars["id"], req.CancellationReason)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error cancelling booking", http.StatusInternalServerError)
		return
	}

	reason := ""
	if req.CancellationReason != nil {
		reason = *req.CancellationReason
	}
	h.publisher.Publish(r.Context(), events.ChannelBookingCancelled, map[string]interface{}{
		"booking_id": b.ID,
		"client_id":  b.ClientID,
		"reason":     reason,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    b,
	})
}

func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	b, durationMinutes, err := h.ledger.Complete(r.Context(), vars["id"])
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			http.Error(w, "Booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error completing booking", http.StatusInternalServerError)
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelBookingCompleted, map[string]interface{}{
		"booking_id":       b.ID,
		"client_id":        b.ClientID,
		"trainer_id":       b.TrainerID,
		"workout_date":     b.BookingDate.Format("2006-01-02"),
		"start_time":       b.StartTime.Format("15:04:05"),
		"end_time":         b.EndTime.Format("15:04:05"),
		"duration_minutes": durationMinutes,
		"trainer_notes":    b.Notes,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    b,
	})
}
