package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/booking-api/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateSlot is returned when the database rejects a booking
// because an active booking already holds the slot.
var ErrDuplicateSlot = errors.New("slot already booked")

// All repository interfaces in one file
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByEmail(ctx context.Context, email string) (*model.Patient, error)
		FindByContact(ctx context.Context, email, phone string) ([]*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		// Delete removes the patient and, per the documented cascade
		// policy, all of their bookings in one transaction.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Patient, error)
	}

	TestRepository interface {
		Create(ctx context.Context, test *model.Test) error
		Get(ctx context.Context, id uuid.UUID) (*model.Test, error)
		Update(ctx context.Context, test *model.Test) error
		// Delete removes the test and cascades to its bookings.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, activeOnly bool) ([]*model.Test, error)
	}

	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		// CreateWithPatient upserts the patient (matched by email) and
		// inserts the booking in a single transaction.
		CreateWithPatient(ctx context.Context, patient *model.Patient, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.BookingDetail, error)
		Update(ctx context.Context, booking *model.Booking) error
		// UpdateStatus applies the transition and, when notes is non-nil,
		// replaces the notes in the same statement.
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, notes *string) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.BookingFilters) ([]*model.BookingDetail, error)
		// ExistsActiveSlot reports whether a pending or confirmed booking
		// already occupies the (test, date, time) slot.
		ExistsActiveSlot(ctx context.Context, testID uuid.UUID, date time.Time, timeOfDay string) (bool, error)
		ListBookedTimes(ctx context.Context, testID uuid.UUID, date time.Time) ([]string, error)
		Stats(ctx context.Context, today time.Time) (*model.BookingStats, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}
)
