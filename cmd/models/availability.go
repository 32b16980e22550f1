package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AvailabilitySlot struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID    string     `gorm:"type:uuid;not null;index" json:"trainer_id"`
	GymID        *string    `gorm:"type:uuid" json:"gym_id,omitempty"`
	DayOfWeek    int        `gorm:"not null" json:"day_of_week"`
	StartTime    time.Time  `gorm:"not null" json:"start_time"`
	EndTime      time.Time  `gorm:"not null" json:"end_time"`
	IsRecurring  bool       `gorm:"default:true" json:"is_recurring"`
	SpecificDate *time.Time `gorm:"type:date;index" json:"specific_date,omitempty"`
	MaxSlots     int        `gorm:"default:1" json:"max_slots"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (AvailabilitySlot) TableName() string {
	return "availability"
}

func (a *AvailabilitySlot) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
