package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Lab working hours; bookings outside this window are rejected.
const (
	LabOpenTime  = "08:00"
	LabCloseTime = "20:00"
)

// Booking links one patient to one test at a date/time slot.
// BookingTime is kept as an HH:MM string so the time-of-day column
// never picks up a timezone from the date.
type Booking struct {
	Base
	PatientID   uuid.UUID     `db:"patient_id" json:"patient_id"`
	TestID      uuid.UUID     `db:"test_id" json:"test_id"`
	BookingDate time.Time     `db:"booking_date" json:"booking_date"`
	BookingTime string        `db:"booking_time" json:"booking_time"`
	Status      BookingStatus `db:"status" json:"status"`
	Notes       string        `db:"notes" json:"notes,omitempty"`
}

// BookingDetail is a booking joined with its patient and test rows,
// used by listing and confirmation views.
type BookingDetail struct {
	Booking
	PatientName string  `db:"patient_name" json:"patient_name"`
	TestName    string  `db:"test_name" json:"test_name"`
	Price       float64 `db:"price" json:"price"`
}

// CreateBookingRequest is the public combined form: patient contact
// data plus the selected test and slot. The patient is matched by
// email and created when unknown.
type CreateBookingRequest struct {
	PatientName    string `json:"patient_name" binding:"required,min=2,max=100"`
	PatientAge     int    `json:"patient_age" binding:"required,min=1,max=120"`
	PatientGender  Gender `json:"patient_gender" binding:"required,oneof=M F O"`
	PatientPhone   string `json:"patient_phone" binding:"required"`
	PatientEmail   string `json:"patient_email" binding:"required,email"`
	PatientAddress string `json:"patient_address" binding:"required"`

	TestID      uuid.UUID `json:"test_id" binding:"required"`
	BookingDate string    `json:"booking_date" binding:"required,dateonly"`
	BookingTime string    `json:"booking_time" binding:"required,hhmm"`
	Notes       string    `json:"notes" binding:"max=1000"`
}

// CreateBookingForPatientRequest is the staff path for an already
// registered patient.
type CreateBookingForPatientRequest struct {
	PatientID   uuid.UUID `json:"patient_id" binding:"required"`
	TestID      uuid.UUID `json:"test_id" binding:"required"`
	BookingDate string    `json:"booking_date" binding:"required,dateonly"`
	BookingTime string    `json:"booking_time" binding:"required,hhmm"`
	Notes       string    `json:"notes" binding:"max=1000"`
}

type UpdateBookingRequest struct {
	BookingDate *string `json:"booking_date" binding:"omitempty,dateonly"`
	BookingTime *string `json:"booking_time" binding:"omitempty,hhmm"`
	Notes       *string `json:"notes" binding:"omitempty,max=1000"`
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required,oneof=pending confirmed completed cancelled"`
	Reason string        `json:"reason"`
}

type BookingFilters struct {
	PatientID uuid.UUID
	TestID    uuid.UUID
	Status    BookingStatus
	DateFrom  time.Time
	DateTo    time.Time
}

// BookingStats backs the staff dashboard.
type BookingStats struct {
	TotalPatients     int `db:"total_patients" json:"total_patients"`
	TotalTests        int `db:"total_tests" json:"total_tests"`
	TotalBookings     int `db:"total_bookings" json:"total_bookings"`
	TodayBookings     int `db:"today_bookings" json:"today_bookings"`
	PendingBookings   int `db:"pending_bookings" json:"pending_bookings"`
	ConfirmedBookings int `db:"confirmed_bookings" json:"confirmed_bookings"`
}
