package types

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for due dates.
const DateLayout = "2006-01-02"

// TaskResponse is the external shape of a task. AssignedTo is always an
// email string or null, never the internal user identifier.
type TaskResponse struct {
	ID             uuid.UUID `json:"uid"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	DueDate        string    `json:"due_date"`
	AssignedTo     *string   `json:"assigned_to"`
	AssignedToName *string   `json:"assigned_to_name"`
	CreatedBy      uuid.UUID `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
