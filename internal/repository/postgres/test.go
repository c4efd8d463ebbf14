package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository"
)

type testRepository struct {
	BaseRepository
}

func NewTestRepository(db *sqlx.DB) repository.TestRepository {
	return &testRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	query := `
		INSERT INTO tests (id, name, description, price, duration_hours, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	test.CreatedAt = time.Now()
	test.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		test.ID,
		test.Name,
		test.Description,
		test.Price,
		test.DurationHours,
		test.Active,
		test.CreatedAt,
		test.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

func (r *testRepository) Get(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	query := `SELECT * FROM tests WHERE id = $1`
	var test model.Test
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		return nil, wrapNotFound(err)
	}
	return &test, nil
}

func (r *testRepository) Update(ctx context.Context, test *model.Test) error {
	query := `
		UPDATE tests
		SET name = $1, description = $2, price = $3, duration_hours = $4, active = $5, updated_at = $6
		WHERE id = $7
	`
	test.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		test.Name,
		test.Description,
		test.Price,
		test.DurationHours,
		test.Active,
		test.UpdatedAt,
		test.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update test: %w", err)
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

// Delete cascades to the test's bookings, same policy as patients.
func (r *testRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE test_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete test bookings: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM tests WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete test: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *testRepository) List(ctx context.Context, activeOnly bool) ([]*model.Test, error) {
	query := `SELECT * FROM tests`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name ASC`

	var tests []*model.Test
	if err := r.db.SelectContext(ctx, &tests, query); err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}
