package model

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

const (
	MinPatientAge = 1
	MaxPatientAge = 120
)

type Patient struct {
	Base
	Name    string `db:"name" json:"name"`
	Age     int    `db:"age" json:"age"`
	Gender  Gender `db:"gender" json:"gender"`
	Phone   string `db:"phone" json:"phone"`
	Email   string `db:"email" json:"email"`
	Address string `db:"address" json:"address"`
}

type CreatePatientRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=100"`
	Age     int    `json:"age" binding:"required,min=1,max=120"`
	Gender  Gender `json:"gender" binding:"required,oneof=M F O"`
	Phone   string `json:"phone" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Address string `json:"address" binding:"required"`
}

type UpdatePatientRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=2,max=100"`
	Age     *int    `json:"age" binding:"omitempty,min=1,max=120"`
	Gender  *Gender `json:"gender" binding:"omitempty,oneof=M F O"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`
}

// PatientLookupRequest identifies a patient without an account,
// used by the public "my bookings" page.
type PatientLookupRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}
