package session

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/fitsync/schedule-service/cmd/models"
	"github.com/fitsync/schedule-service/cmd/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SessionHandler struct {
	roster *Roster
	logger *zap.Logger
}

func NewSessionHandler(db *gorm.DB, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		roster: NewRoster(db),
		logger: logger,
	}
}

func (h *SessionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sessions/group",
		utils.RequireRole(h.CreateGroupSession, utils.RoleTrainer, utils.RoleAdmin)).Methods("POST")
	router.HandleFunc("/sessions/group", h.ListGroupSessions).Methods("GET")
	router.HandleFunc("/sessions/group/{id}/enroll", h.EnrollInGroupSession).Methods("POST")
}

type createSessionRequest struct {
	TrainerID       string `json:"trainer_id" validate:"required,uuid4"`
	SessionName     string `json:"session_name" validate:"required"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"max_participants" validate:"required,gt=0"`
	GymID           string `json:"gym_id" validate:"required,uuid4"`
	SessionDate     string `json:"session_date" validate:"required"`
	StartTime       string `json:"start_time" validate:"required"`
	EndTime         string `json:"end_time" validate:"required"`
}

func (h *SessionHandler) CreateGroupSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date, err := models.ParseDate(req.SessionDate)
	if err != nil {
		http.Error(w, "Invalid session date. Use YYYY-MM-DD", http.StatusBadRequest)
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

	s := models.GroupSession{
		TrainerID:       req.TrainerID,
		SessionName:     req.SessionName,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		GymID:           req.GymID,
		SessionDate:     date,
		StartTime:       models.CombineDateTime(date, start),
		EndTime:         models.CombineDateTime(date, end),
	}

	if err := h.roster.Create(r.Context(), &s); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCapacity):
			http.Error(w, "Max participants must be a positive integer", http.StatusBadRequest)
		case errors.Is(err, models.ErrInvalidRange):
			http.Error(w, "End time must be after start time", http.StatusBadRequest)
		default:
			http.Error(w, "Error creating group session", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    s,
	})
}

func (h *SessionHandler) ListGroupSessions(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "Limit must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	sessions, total, err := h.roster.List(r.Context(), page, limit)
	if err != nil {
		http.Error(w, "Error retrieving group sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    sessions,
		"pagination": map[string]interface{}{
			"page":        page,
			"limit":       limit,
			"total_count": total,
			"total_pages": int64(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

func (h *SessionHandler) EnrollInGroupSession(w http.ResponseWriter, r *http.Request) {
	clientID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)

	s, err := h.roster.Enroll(r.Context(), vars["id"], clientID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			http.Error(w, "Session not found", http.StatusNotFound)
		case errors.Is(err, ErrAlreadyEnrolled):
			http.Error(w, "Already enrolled", http.StatusBadRequest)
		case errors.Is(err, ErrSessionFull):
			http.Error(w, "Session is full", http.StatusBadRequest)
		default:
			h.logger.Error("enrollment failed", zap.Error(err))
			http.Error(w, "Error enrolling in session", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    s,
	})
}
