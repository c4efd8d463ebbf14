package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all persisted entities
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const (
	// DateLayout is the wire format for calendar dates
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for time-of-day slots
	TimeLayout = "15:04"
)
