package patient

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository"
)

type Service struct {
	repo repository.PatientRepository
}

func NewService(repo repository.PatientRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreatePatient(ctx context.Context, patient *model.Patient) error {
	if err := Normalize(patient); err != nil {
		return fmt.Errorf("invalid patient data: %w", err)
	}

	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	if err := s.repo.Create(ctx, patient); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}

	if err := Normalize(patient); err != nil {
		return nil, fmt.Errorf("invalid patient data: %w", err)
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// FindByContact resolves a patient from self-service identification
// (email and/or phone), used by the public bookings lookup.
func (s *Service) FindByContact(ctx context.Context, email, phone string) (*model.Patient, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = NormalizePhone(phone)
	if email == "" && phone == "" {
		return nil, fmt.Errorf("email or phone is required")
	}

	// Match the last 10 digits so country-code variations still hit.
	if len(phone) > 10 {
		phone = phone[len(phone)-10:]
	}

	patients, err := s.repo.FindByContact(ctx, email, phone)
	if err != nil {
		return nil, err
	}
	switch len(patients) {
	case 0:
		return nil, repository.ErrNotFound
	case 1:
		return patients[0], nil
	default:
		return nil, fmt.Errorf("multiple patients match the provided details")
	}
}

// Normalize cleans and validates patient fields in place: name is
// trimmed and must be alphabetic, phone is reduced to digits, email is
// lowercased.
func Normalize(patient *model.Patient) error {
	patient.Name = strings.TrimSpace(patient.Name)
	if len(patient.Name) < 2 {
		return fmt.Errorf("name must be at least 2 characters long")
	}
	for _, c := range patient.Name {
		if !unicode.IsLetter(c) && !unicode.IsSpace(c) && c != '.' && c != '\'' {
			return fmt.Errorf("name should contain only letters and spaces")
		}
	}

	if patient.Age < model.MinPatientAge || patient.Age > model.MaxPatientAge {
		return fmt.Errorf("age must be between %d and %d", model.MinPatientAge, model.MaxPatientAge)
	}

	switch patient.Gender {
	case model.GenderMale, model.GenderFemale, model.GenderOther:
	default:
		return fmt.Errorf("invalid gender")
	}

	patient.Phone = NormalizePhone(patient.Phone)
	if len(strings.TrimPrefix(patient.Phone, "+")) < 10 {
		return fmt.Errorf("phone number must be at least 10 digits")
	}

	patient.Email = strings.ToLower(strings.TrimSpace(patient.Email))
	if patient.Email == "" {
		return fmt.Errorf("email is required")
	}

	patient.Address = strings.TrimSpace(patient.Address)
	if patient.Address == "" {
		return fmt.Errorf("address is required")
	}

	return nil
}

// NormalizePhone strips everything but digits and a leading +.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, c := range phone {
		if c >= '0' && c <= '9' || (c == '+' && i == 0) {
			b.WriteRune(c)
		}
	}
	return b.String()
}
