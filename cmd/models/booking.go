package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BookingTypeOneOnOne   = "one_on_one"
	BookingTypeGroupClass = "group_class"
)

const (
	BookingStatusScheduled = "scheduled"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusNoShow    = "no_show"
)

type Booking struct {
	ID                 string     `gorm:"type:uuid;primaryKey" json:"id"`
	Type               string     `gorm:"size:20;not null" json:"type"`
	TrainerID          string     `gorm:"type:uuid;not null;index" json:"trainer_id"`
	ClientID           string     `gorm:"type:uuid;not null;index" json:"client_id"`
	GymID              *string    `gorm:"type:uuid" json:"gym_id,omitempty"`
	BookingDate        time.Time  `gorm:"type:date;not null;index" json:"booking_date"`
	StartTime          time.Time  `gorm:"not null" json:"start_time"`
	EndTime            time.Time  `gorm:"not null" json:"end_time"`
	Status             string     `gorm:"size:20;default:'scheduled';index" json:"status"`
	Notes              string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `gorm:"type:text" json:"cancellation_reason,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Range returns the booking's time range anchored on its booking date.
func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.StartTime, End: b.EndTime}
}
