package availability

import (
	"encoding/json"
	"net/http"

	"github.com/fitsync/schedule-service/cmd/models"
	"github.com/fitsync/schedule-service/cmd/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AvailabilityHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAvailabilityHandler(db *gorm.DB, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{db: db, logger: logger}
}

func (h *AvailabilityHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/availability",
		utils.RequireRole(h.CreateAvailability, utils.RoleTrainer, utils.RoleAdmin)).Methods("POST")
	router.HandleFunc("/availability/trainer/{trainerId}", h.GetTrainerAvailability).Methods("GET")
	router.HandleFunc("/availability/{id}",
		utils.RequireRole(h.DeleteAvailability, utils.RoleTrainer, utils.RoleAdmin)).Methods("DELETE")
}

type createAvailabilityRequest struct {
	TrainerID    string  `json:"trainer_id,omitempty" validate:"omitempty,uuid4"`
	GymID        *string `json:"gym_id,omitempty" validate:"omitempty,uuid4"`
	DayOfWeek    int     `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime    string  `json:"start_time" validate:"required"`
	EndTime      string  `json:"end_time" validate:"required"`
	IsRecurring  *bool   `json:"is_recurring,omitempty"`
	SpecificDate string  `json:"specific_date,omitempty"`
	MaxSlots     int     `json:"max_slots,omitempty" validate:"omitempty,gte=1"`
}

func (h *AvailabilityHandler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	role, _ := utils.GetUserRoleFromContext(r)

	var req createAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
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
	if err := (models.TimeRange{Start: start, End: end}).Validate(); err != nil {
		http.Error(w, "End time must be after start time", http.StatusBadRequest)
		return
	}

	// Trainers declare their own windows; admins may declare for a trainer.
	trainerID := userID
	if role == utils.RoleAdmin && req.TrainerID != "" {
		trainerID = req.TrainerID
	}

	slot := models.AvailabilitySlot{
		TrainerID:   trainerID,
		GymID:       req.GymID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   start,
		EndTime:     end,
		IsRecurring: true,
		MaxSlots:    1,
		IsActive:    true,
	}
	if req.IsRecurring != nil {
		slot.IsRecurring = *req.IsRecurring
	}
	if req.MaxSlots > 0 {
		slot.MaxSlots = req.MaxSlots
	}
	if req.SpecificDate != "" {
		date, err := models.ParseDate(req.SpecificDate)
		if err != nil {
			http.Error(w, "Invalid specific date. Use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		slot.SpecificDate = &date
	}

	if err := h.db.WithContext(r.Context()).Create(&slot).Error; err != nil {
		http.Error(w, "Error creating availability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    slot,
	})
}

func (h *AvailabilityHandler) GetTrainerAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var slots []models.AvailabilitySlot
	err := h.db.WithContext(r.Context()).
		Where("trainer_id = ? AND is_active = true", vars["trainerId"]).
		Order("day_of_week, start_time").
		Find(&slots).Error
	if err != nil {
		http.Error(w, "Error retrieving availability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    slots,
	})
}

// DeleteAvailability soft-deletes the window so historical bookings made
// against it keep their context.
func (h *AvailabilityHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	result := h.db.WithContext(r.Context()).Model(&models.AvailabilitySlot{}).
		Where("id = ?", vars["id"]).
		Update("is_active", false)
	if result.Error != nil {
		http.Error(w, "Error removing availability", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Availability not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Availability removed",
	})
}
