package session

import (
	"context"
	"errors"

	"github.com/fitsync/schedule-service/cmd/models"
	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session is full")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrInvalidCapacity = errors.New("max participants must be a positive integer")
	ErrInvalidLimit    = errors.New("limit must be a positive integer")
)

// Roster manages group sessions and their enrollment. Capacity is enforced by
// a single conditional UPDATE, so two concurrent enrollments can never both
// take the last seat.
type Roster struct {
	db *gorm.DB
}

func NewRoster(db *gorm.DB) *Roster {
	return &Roster{db: db}
}

// Create inserts a new scheduled group session. Sessions are not checked for
// conflicts against the trainer's bookings or other sessions.
func (r *Roster) Create(ctx context.Context, s *models.GroupSession) error {
	if s.MaxParticipants <= 0 {
		return ErrInvalidCapacity
	}
	if err := (models.TimeRange{Start: s.StartTime, End: s.EndTime}).Validate(); err != nil {
		return err
	}

	s.Status = models.SessionStatusScheduled
	s.CurrentParticipants = 0
	s.EnrolledClients = []string{}
	return r.db.WithContext(ctx).Create(s).Error
}

// Enroll appends the client and bumps the participant counter in one
// statement. The guards in the WHERE clause make the read-check-append
// sequence atomic; when no row matches, the session is re-read to decide
// which rejection applies, in priority order: not found, already enrolled,
// full.
func (r *Roster) Enroll(ctx context.Context, sessionID, clientID string) (*models.GroupSession, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE group_sessions
		SET enrolled_clients = array_append(enrolled_clients, ?::uuid),
		    current_participants = current_participants + 1
		WHERE id = ?
		  AND current_participants < max_participants
		  AND NOT (?::uuid = ANY(enrolled_clients))`,
		clientID, sessionID, clientID)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		var s models.GroupSession
		if err := r.db.WithContext(ctx).First(&s, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSessionNotFound
			}
			return nil, err
		}
		if s.IsEnrolled(clientID) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, ErrSessionFull
	}

	var s models.GroupSession
	if err := r.db.WithContext(ctx).First(&s, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Roster) Get(ctx context.Context, sessionID string) (*models.GroupSession, error) {
	var s models.GroupSession
	if err := r.db.WithContext(ctx).First(&s, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns one page of scheduled sessions plus the unpaginated total.
func (r *Roster) List(ctx context.Context, page, limit int) ([]models.GroupSession, int64, error) {
	if limit <= 0 {
		return nil, 0, ErrInvalidLimit
	}
	if page < 1 {
		page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.GroupSession{}).
		Where("status = ?", models.SessionStatusScheduled)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []models.GroupSession
	err := query.Offset((page - 1) * limit).Limit(limit).
		Order("session_date, start_time").Find(&sessions).Error
	if err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}
