package model

// Test is a catalog entry for a priced lab procedure.
type Test struct {
	Base
	Name          string  `db:"name" json:"name"`
	Description   string  `db:"description" json:"description"`
	Price         float64 `db:"price" json:"price"`
	DurationHours int     `db:"duration_hours" json:"duration_hours"`
	Active        bool    `db:"active" json:"active"`
}

type CreateTestRequest struct {
	Name          string  `json:"name" binding:"required,max=100"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	DurationHours int     `json:"duration_hours" binding:"required,min=1,max=24"`
}

type UpdateTestRequest struct {
	Name          *string  `json:"name" binding:"omitempty,max=100"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price" binding:"omitempty,gt=0"`
	DurationHours *int     `json:"duration_hours" binding:"omitempty,min=1,max=24"`
	Active        *bool    `json:"active"`
}
