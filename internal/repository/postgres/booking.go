package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository"
)

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{BaseRepository: NewBaseRepository(db)}
}

const bookingInsert = `
	INSERT INTO bookings (id, patient_id, test_id, booking_date, booking_time, status, notes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

const bookingDetailSelect = `
	SELECT b.id, b.patient_id, b.test_id, b.booking_date, b.booking_time,
		   b.status, b.notes, b.created_at, b.updated_at,
		   p.name AS patient_name, t.name AS test_name, t.price AS price
	FROM bookings b
	JOIN patients p ON p.id = b.patient_id
	JOIN tests t ON t.id = b.test_id
`

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, bookingInsert,
		booking.ID,
		booking.PatientID,
		booking.TestID,
		booking.BookingDate,
		booking.BookingTime,
		booking.Status,
		booking.Notes,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if isSlotTaken(err) {
			return repository.ErrDuplicateSlot
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// isSlotTaken detects the partial unique index rejecting a second
// pending/confirmed booking on the same (test, date, time) slot.
func isSlotTaken(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "idx_bookings_active_slot"
}

// CreateWithPatient matches the patient by email: an existing row gets
// its demographics refreshed, an unknown email creates a new patient.
// The booking insert shares the transaction, so a slot conflict leaves
// no partial state behind.
func (r *bookingRepository) CreateWithPatient(ctx context.Context, patient *model.Patient, booking *model.Booking) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var existing model.Patient
		err := tx.GetContext(ctx, &existing, `SELECT * FROM patients WHERE email = $1 FOR UPDATE`, patient.Email)
		switch {
		case err == nil:
			patient.ID = existing.ID
			patient.CreatedAt = existing.CreatedAt
			patient.UpdatedAt = time.Now()
			_, err = tx.ExecContext(ctx, `
				UPDATE patients
				SET name = $1, age = $2, gender = $3, phone = $4, address = $5, updated_at = $6
				WHERE id = $7`,
				patient.Name, patient.Age, patient.Gender, patient.Phone, patient.Address,
				patient.UpdatedAt, patient.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update patient: %w", err)
			}
		case errors.Is(err, sql.ErrNoRows):
			patient.CreatedAt = time.Now()
			patient.UpdatedAt = patient.CreatedAt
			_, err = tx.ExecContext(ctx, `
				INSERT INTO patients (id, name, age, gender, phone, email, address, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				patient.ID, patient.Name, patient.Age, patient.Gender, patient.Phone,
				patient.Email, patient.Address, patient.CreatedAt, patient.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create patient: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up patient: %w", err)
		}

		booking.PatientID = patient.ID
		booking.CreatedAt = time.Now()
		booking.UpdatedAt = booking.CreatedAt

		_, err = tx.ExecContext(ctx, bookingInsert,
			booking.ID,
			booking.PatientID,
			booking.TestID,
			booking.BookingDate,
			booking.BookingTime,
			booking.Status,
			booking.Notes,
			booking.CreatedAt,
			booking.UpdatedAt,
		)
		if err != nil {
			if isSlotTaken(err) {
				return repository.ErrDuplicateSlot
			}
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.BookingDetail, error) {
	query := bookingDetailSelect + ` WHERE b.id = $1`
	var booking model.BookingDetail
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, wrapNotFound(err)
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET booking_date = $1, booking_time = $2, notes = $3, updated_at = $4
		WHERE id = $5
	`
	booking.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		booking.BookingDate,
		booking.BookingTime,
		booking.Notes,
		booking.UpdatedAt,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, notes *string) error {
	query := `UPDATE bookings SET status = $1, notes = COALESCE($2, notes), updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.BookingDetail, error) {
	query := bookingDetailSelect + ` WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND b.patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.TestID != uuid.Nil {
			query += fmt.Sprintf(" AND b.test_id = $%d", argCount)
			args = append(args, filters.TestID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND b.status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.DateFrom.IsZero() {
			query += fmt.Sprintf(" AND b.booking_date >= $%d", argCount)
			args = append(args, filters.DateFrom)
			argCount++
		}
		if !filters.DateTo.IsZero() {
			query += fmt.Sprintf(" AND b.booking_date <= $%d", argCount)
			args = append(args, filters.DateTo)
			argCount++
		}
	}

	query += " ORDER BY b.booking_date DESC, b.booking_time DESC"

	var bookings []*model.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ExistsActiveSlot(ctx context.Context, testID uuid.UUID, date time.Time, timeOfDay string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE test_id = $1
			AND booking_date = $2
			AND booking_time = $3
			AND status IN ('pending', 'confirmed')
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, testID, date, timeOfDay); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return exists, nil
}

func (r *bookingRepository) ListBookedTimes(ctx context.Context, testID uuid.UUID, date time.Time) ([]string, error) {
	query := `
		SELECT booking_time FROM bookings
		WHERE test_id = $1
		AND booking_date = $2
		AND status IN ('pending', 'confirmed')
		ORDER BY booking_time ASC
	`
	var times []string
	if err := r.db.SelectContext(ctx, &times, query, testID, date); err != nil {
		return nil, fmt.Errorf("failed to list booked times: %w", err)
	}
	return times, nil
}

func (r *bookingRepository) Stats(ctx context.Context, today time.Time) (*model.BookingStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM patients) AS total_patients,
			(SELECT COUNT(*) FROM tests WHERE active = TRUE) AS total_tests,
			(SELECT COUNT(*) FROM bookings) AS total_bookings,
			(SELECT COUNT(*) FROM bookings WHERE booking_date = $1) AS today_bookings,
			(SELECT COUNT(*) FROM bookings WHERE status = 'pending') AS pending_bookings,
			(SELECT COUNT(*) FROM bookings WHERE status = 'confirmed') AS confirmed_bookings
	`
	var stats model.BookingStats
	if err := r.db.GetContext(ctx, &stats, query, today); err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	return &stats, nil
}
