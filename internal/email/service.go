package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medlab/booking-api/internal/config"
	"github.com/medlab/booking-api/internal/model"
)

// Service sends booking confirmations over SMTP. A zero Host disables
// sending, which keeps local and test environments quiet.
type Service struct {
	cfg config.SMTPConfig
}

func NewService(cfg config.SMTPConfig) *Service {
	return &Service{cfg: cfg}
}

func (s *Service) SendBookingConfirmation(ctx context.Context, to string, booking *model.BookingDetail) error {
	if s.cfg.Host == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Booking confirmation: "+booking.TestName)
	m.SetBody("text/plain", fmt.Sprintf(
		"Dear %s,\n\nYour booking for %s on %s at %s has been received and is pending confirmation.\nTotal cost: %.2f\n\nBooking reference: %s\n",
		booking.PatientName,
		booking.TestName,
		booking.BookingDate.Format(model.DateLayout),
		booking.BookingTime,
		booking.Price,
		booking.ID,
	))

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}
