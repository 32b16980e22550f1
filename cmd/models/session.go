package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

type GroupSession struct {
	ID                  string         `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID           string         `gorm:"type:uuid;not null;index" json:"trainer_id"`
	SessionName         string         `gorm:"size:255;not null" json:"session_name"`
	Description         string         `gorm:"type:text" json:"description"`
	MaxParticipants     int            `gorm:"not null" json:"max_participants"`
	CurrentParticipants int            `gorm:"default:0" json:"current_participants"`
	GymID               string         `gorm:"type:uuid;not null" json:"gym_id"`
	SessionDate         time.Time      `gorm:"type:date;not null;index" json:"session_date"`
	StartTime           time.Time      `gorm:"not null" json:"start_time"`
	EndTime             time.Time      `gorm:"not null" json:"end_time"`
	Status              string         `gorm:"size:20;default:'scheduled'" json:"status"`
	EnrolledClients     pq.StringArray `gorm:"type:uuid[];default:'{}'" json:"enrolled_clients"`
	CreatedAt           time.Time      `json:"created_at"`
}

func (GroupSession) TableName() string {
	return "group_sessions"
}

func (s *GroupSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *GroupSession) IsEnrolled(clientID string) bool {
	for _, id := range s.EnrolledClients {
		if id == clientID {
			return true
		}
	}
	return false
}

func (s *GroupSession) IsFull() bool {
	return s.CurrentParticipants >= s.MaxParticipants
}
