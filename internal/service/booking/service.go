package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository"
	"github.com/medlab/booking-api/internal/service/patient"
)

var (
	ErrValidation   = errors.New("invalid booking data")
	ErrSlotTaken    = errors.New("time slot is already booked for this test")
	ErrPastSlot     = errors.New("cannot book for a past date or time")
	ErrOutsideHours = errors.New("lab hours are from 08:00 to 20:00")
	ErrNotCancelled = errors.New("only cancelled bookings can be deleted")
	ErrFinalStatus  = errors.New("booking is already in a final state")
)

// Notifier delivers booking confirmations. Failures are logged, never
// surfaced to the caller.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, to string, booking *model.BookingDetail) error
}

type Service struct {
	repo        repository.BookingRepository
	patientRepo repository.PatientRepository
	testRepo    repository.TestRepository
	notifier    Notifier
}

func NewService(repo repository.BookingRepository, patientRepo repository.PatientRepository, testRepo repository.TestRepository, notifier Notifier) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		testRepo:    testRepo,
		notifier:    notifier,
	}
}

// CreateBooking books an existing patient onto a test slot. The row is
// written in pending state; nothing is committed when any check fails.
func (s *Service) CreateBooking(ctx context.Context, req *model.CreateBookingForPatientRequest) (*model.BookingDetail, error) {
	if _, err := s.patientRepo.Get(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("patient: %w", err)
	}

	test, err := s.testRepo.Get(ctx, req.TestID)
	if err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	if !test.Active {
		return nil, fmt.Errorf("test: %w", repository.ErrNotFound)
	}

	date, timeOfDay, err := s.validateSlot(ctx, req.TestID, req.BookingDate, req.BookingTime)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   req.PatientID,
		TestID:      req.TestID,
		BookingDate: date,
		BookingTime: timeOfDay,
		Status:      model.BookingStatusPending,
		Notes:       req.Notes,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return s.confirmAndFetch(ctx, booking.ID)
}

// CreatePublicBooking handles the combined public form: the patient is
// upserted by email and the booking written in the same transaction.
func (s *Service) CreatePublicBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.BookingDetail, error) {
	p := &model.Patient{
		Base:    model.Base{ID: uuid.New()},
		Name:    req.PatientName,
		Age:     req.PatientAge,
		Gender:  req.PatientGender,
		Phone:   req.PatientPhone,
		Email:   req.PatientEmail,
		Address: req.PatientAddress,
	}
	if err := patient.Normalize(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	test, err := s.testRepo.Get(ctx, req.TestID)
	if err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	if !test.Active {
		return nil, fmt.Errorf("test: %w", repository.ErrNotFound)
	}

	date, timeOfDay, err := s.validateSlot(ctx, req.TestID, req.BookingDate, req.BookingTime)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		Base:        model.Base{ID: uuid.New()},
		TestID:      req.TestID,
		BookingDate: date,
		BookingTime: timeOfDay,
		Status:      model.BookingStatusPending,
		Notes:       req.Notes,
	}

	// A concurrent submit can slip past the availability check and hit
	// the unique index instead; that still reports as a slot conflict.
	if err := s.repo.CreateWithPatient(ctx, p, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlot) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return s.confirmAndFetch(ctx, booking.ID)
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*model.BookingDetail, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, filters *model.BookingFilters) ([]*model.BookingDetail, error) {
	return s.repo.List(ctx, filters)
}

// ListPatientBookings serves the public "my bookings" lookup.
func (s *Service) ListPatientBookings(ctx context.Context, patientID uuid.UUID) ([]*model.BookingDetail, error) {
	return s.repo.List(ctx, &model.BookingFilters{PatientID: patientID})
}

func (s *Service) UpdateBooking(ctx context.Context, id uuid.UUID, req *model.UpdateBookingRequest) (*model.BookingDetail, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	booking := existing.Booking
	dateStr := existing.BookingDate.Format(model.DateLayout)
	timeStr := existing.BookingTime
	if req.BookingDate != nil {
		dateStr = *req.BookingDate
	}
	if req.BookingTime != nil {
		timeStr = *req.BookingTime
	}
	// Only a moved slot needs revalidation; comparing against itself
	// would always conflict.
	if dateStr != existing.BookingDate.Format(model.DateLayout) || timeStr != existing.BookingTime {
		date, timeOfDay, err := s.validateSlot(ctx, existing.TestID, dateStr, timeStr)
		if err != nil {
			return nil, err
		}
		booking.BookingDate = date
		booking.BookingTime = timeOfDay
	}
	if req.Notes != nil {
		booking.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, &booking); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// UpdateStatus applies an admin-triggered transition. Forward
// progression (pending, confirmed, completed) is advisory and not
// enforced; cancellation is blocked only when the booking already
// reached a final state.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, reason string) (*model.BookingDetail, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// The reason rides the same UPDATE as the status; a failed write
	// leaves neither applied.
	var notes *string
	if status == model.BookingStatusCancelled {
		if existing.Status == model.BookingStatusCancelled || existing.Status == model.BookingStatusCompleted {
			return nil, ErrFinalStatus
		}
		if reason != "" {
			n := existing.Notes
			if n != "" {
				n += "\n"
			}
			n += "Cancelled: " + reason
			notes = &n
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, status, notes); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Cancel is the one mutation a patient may perform after creation.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.BookingDetail, error) {
	return s.UpdateStatus(ctx, id, model.BookingStatusCancelled, reason)
}

func (s *Service) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != model.BookingStatusCancelled {
		return ErrNotCancelled
	}
	return s.repo.Delete(ctx, id)
}

// BookedTimes returns the occupied HH:MM slots for a test on a date.
func (s *Service) BookedTimes(ctx context.Context, testID uuid.UUID, dateStr string) ([]string, error) {
	if _, err := s.testRepo.Get(ctx, testID); err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	date, err := time.Parse(model.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", ErrValidation)
	}
	return s.repo.ListBookedTimes(ctx, testID, date)
}

func (s *Service) Stats(ctx context.Context) (*model.BookingStats, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.Stats(ctx, today)
}

// validateSlot parses the date/time pair and enforces the temporal
// rules: never in the past, inside lab hours, slot not already held by
// a pending or confirmed booking.
func (s *Service) validateSlot(ctx context.Context, testID uuid.UUID, dateStr, timeStr string) (time.Time, string, error) {
	date, err := time.Parse(model.DateLayout, dateStr)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: invalid booking date", ErrValidation)
	}
	slotTime, err := time.Parse(model.TimeLayout, timeStr)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: invalid booking time", ErrValidation)
	}
	timeOfDay := slotTime.Format(model.TimeLayout)

	if timeOfDay < model.LabOpenTime || timeOfDay > model.LabCloseTime {
		return time.Time{}, "", ErrOutsideHours
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return time.Time{}, "", ErrPastSlot
	}
	if date.Equal(today) && timeOfDay <= now.Format(model.TimeLayout) {
		return time.Time{}, "", ErrPastSlot
	}

	taken, err := s.repo.ExistsActiveSlot(ctx, testID, date, timeOfDay)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		return time.Time{}, "", ErrSlotTaken
	}

	return date, timeOfDay, nil
}

func (s *Service) confirmAndFetch(ctx context.Context, id uuid.UUID) (*model.BookingDetail, error) {
	detail, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if s.notifier != nil {
		patient, err := s.patientRepo.Get(ctx, detail.PatientID)
		if err == nil {
			if err := s.notifier.SendBookingConfirmation(ctx, patient.Email, detail); err != nil {
				log.Warn().Err(err).Str("booking_id", id.String()).Msg("failed to send booking confirmation")
			}
		}
	}

	return detail, nil
}
