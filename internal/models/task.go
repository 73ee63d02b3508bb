package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title       string    `gorm:"not null"`
	Description string
	Status      string     `gorm:"not null;default:pending"`
	Priority    string     `gorm:"not null;default:medium"`
	DueDate     time.Time  `gorm:"type:date"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null;index"`
	AssignedTo  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relationships
	Creator  User  `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignee *User `gorm:"foreignKey:AssignedTo;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
