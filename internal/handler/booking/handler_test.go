package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository"
	bookingService "github.com/medlab/booking-api/internal/service/booking"
	patientService "github.com/medlab/booking-api/internal/service/patient"
)

var (
	_ repository.BookingRepository = (*memBookingRepo)(nil)
	_ repository.PatientRepository = (*memPatientRepo)(nil)
	_ repository.TestRepository    = (*memTestRepo)(nil)
)

type memPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (m *memPatientRepo) Create(ctx context.Context, p *model.Patient) error {
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *memPatientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPatientRepo) GetByEmail(ctx context.Context, email string) (*model.Patient, error) {
	for _, p := range m.patients {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memPatientRepo) FindByContact(ctx context.Context, email, phone string) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range m.patients {
		if (email != "" && p.Email == email) || (phone != "" && strings.HasSuffix(p.Phone, phone)) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPatientRepo) Update(ctx context.Context, p *model.Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *memPatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *memPatientRepo) List(ctx context.Context) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range m.patients {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memTestRepo struct {
	tests map[uuid.UUID]*model.Test
}

func (m *memTestRepo) Create(ctx context.Context, t *model.Test) error {
	cp := *t
	m.tests[t.ID] = &cp
	return nil
}

func (m *memTestRepo) Get(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t, ok := m.tests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTestRepo) Update(ctx context.Context, t *model.Test) error {
	if _, ok := m.tests[t.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *t
	m.tests[t.ID] = &cp
	return nil
}

func (m *memTestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.tests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tests, id)
	return nil
}

func (m *memTestRepo) List(ctx context.Context, activeOnly bool) ([]*model.Test, error) {
	var out []*model.Test
	for _, t := range m.tests {
		if activeOnly && !t.Active {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

type memBookingRepo struct {
	bookings map[uuid.UUID]*model.Booking
	patients *memPatientRepo
	tests    *memTestRepo
}

func (m *memBookingRepo) Create(ctx context.Context, b *model.Booking) error {
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memBookingRepo) CreateWithPatient(ctx context.Context, p *model.Patient, b *model.Booking) error {
	if existing, err := m.patients.GetByEmail(ctx, p.Email); err == nil {
		p.ID = existing.ID
		if err := m.patients.Update(ctx, p); err != nil {
			return err
		}
	} else if err := m.patients.Create(ctx, p); err != nil {
		return err
	}
	b.PatientID = p.ID
	return m.Create(ctx, b)
}

func (m *memBookingRepo) Get(ctx context.Context, id uuid.UUID) (*model.BookingDetail, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	detail := &model.BookingDetail{Booking: *b}
	if p, err := m.patients.Get(ctx, b.PatientID); err == nil {
		detail.PatientName = p.Name
	}
	if t, err := m.tests.Get(ctx, b.TestID); err == nil {
		detail.TestName = t.Name
		detail.Price = t.Price
	}
	return detail, nil
}

func (m *memBookingRepo) Update(ctx context.Context, b *model.Booking) error {
	if _, ok := m.bookings[b.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BookingStatus, notes *string) error {
	b, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	if notes != nil {
		b.Notes = *notes
	}
	return nil
}

func (m *memBookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.bookings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

func (m *memBookingRepo) List(ctx context.Context, filters *model.BookingFilters) ([]*model.BookingDetail, error) {
	var out []*model.BookingDetail
	for id, b := range m.bookings {
		if filters != nil {
			if filters.PatientID != uuid.Nil && b.PatientID != filters.PatientID {
				continue
			}
			if filters.TestID != uuid.Nil && b.TestID != filters.TestID {
				continue
			}
			if filters.Status != "" && b.Status != filters.Status {
				continue
			}
		}
		detail, _ := m.Get(ctx, id)
		out = append(out, detail)
	}
	return out, nil
}

func (m *memBookingRepo) ExistsActiveSlot(ctx context.Context, testID uuid.UUID, date time.Time, timeOfDay string) (bool, error) {
	for _, b := range m.bookings {
		if b.TestID == testID && b.BookingDate.Equal(date) && b.BookingTime == timeOfDay &&
			(b.Status == model.BookingStatusPending || b.Status == model.BookingStatusConfirmed) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBookingRepo) ListBookedTimes(ctx context.Context, testID uuid.UUID, date time.Time) ([]string, error) {
	var out []string
	for _, b := range m.bookings {
		if b.TestID == testID && b.BookingDate.Equal(date) &&
			(b.Status == model.BookingStatusPending || b.Status == model.BookingStatusConfirmed) {
			out = append(out, b.BookingTime)
		}
	}
	return out, nil
}

func (m *memBookingRepo) Stats(ctx context.Context, today time.Time) (*model.BookingStats, error) {
	stats := &model.BookingStats{
		TotalPatients: len(m.patients.patients),
		TotalBookings: len(m.bookings),
	}
	for _, b := range m.bookings {
		switch b.Status {
		case model.BookingStatusPending:
			stats.PendingBookings++
		case model.BookingStatusConfirmed:
			stats.ConfirmedBookings++
		}
	}
	return stats, nil
}

type testServer struct {
	engine   *gin.Engine
	patients *memPatientRepo
	tests    *memTestRepo
	bookings *memBookingRepo
	cbc      *model.Test
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, model.RegisterValidations())

	patients := &memPatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
	tests := &memTestRepo{tests: make(map[uuid.UUID]*model.Test)}
	bookings := &memBookingRepo{
		bookings: make(map[uuid.UUID]*model.Booking),
		patients: patients,
		tests:    tests,
	}

	cbc := &model.Test{
		Base:          model.Base{ID: uuid.New()},
		Name:          "Complete Blood Count",
		Price:         25.00,
		DurationHours: 1,
		Active:        true,
	}
	require.NoError(t, tests.Create(context.Background(), cbc))

	svc := bookingService.NewService(bookings, patients, tests, nil)
	h := NewHandler(svc, patientService.NewService(patients))

	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterPublicRoutes(api)
	h.RegisterStaffRoutes(api.Group("/staff"))

	return &testServer{
		engine:   engine,
		patients: patients,
		tests:    tests,
		bookings: bookings,
		cbc:      cbc,
	}
}

func (ts *testServer) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format(model.DateLayout)
}

func publicBookingBody(testID uuid.UUID) gin.H {
	return gin.H{
		"patient_name":    "Jane Doe",
		"patient_age":     34,
		"patient_gender":  "F",
		"patient_phone":   "+1 555-010-0100",
		"patient_email":   "jane.doe@example.com",
		"patient_address": "12 Elm Street",
		"test_id":         testID,
		"booking_date":    tomorrow(),
		"booking_time":    "10:00",
	}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateBookingEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeResponse(t, w)
	assert.Equal(t, "success", resp["status"])

	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "Jane Doe", data["patient_name"])
	assert.Equal(t, "Complete Blood Count", data["test_name"])
	assert.Len(t, ts.bookings.bookings, 1)
	assert.Len(t, ts.patients.patients, 1)
}

func TestCreateBookingEndpointBindingErrors(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name   string
		mutate func(gin.H)
	}{
		{"missing name", func(b gin.H) { delete(b, "patient_name") }},
		{"bad gender", func(b gin.H) { b["patient_gender"] = "Q" }},
		{"bad email", func(b gin.H) { b["patient_email"] = "not-an-email" }},
		{"bad date format", func(b gin.H) { b["booking_date"] = "01/02/2030" }},
		{"bad time format", func(b gin.H) { b["booking_time"] = "10am" }},
		{"age above range", func(b gin.H) { b["patient_age"] = 130 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := publicBookingBody(ts.cbc.ID)
			tc.mutate(body)
			w := ts.request(t, http.MethodPost, "/api/v1/bookings", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, ts.bookings.bookings)
		})
	}
}

func TestCreateBookingEndpointUnknownTest(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, ts.bookings.bookings)
	assert.Empty(t, ts.patients.patients, "no patient row without a booking")
}

func TestCreateBookingEndpointSlotConflict(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	body := publicBookingBody(ts.cbc.ID)
	body["patient_email"] = "john.smith@example.com"
	body["patient_name"] = "John Smith"
	w = ts.request(t, http.MethodPost, "/api/v1/bookings", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, ts.bookings.bookings, 1)
}

func TestGetBookingEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeResponse(t, w)["data"].(map[string]interface{})["id"].(string)

	w = ts.request(t, http.MethodGet, "/api/v1/bookings/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodGet, "/api/v1/bookings/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.request(t, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelBookingEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeResponse(t, w)["data"].(map[string]interface{})["id"].(string)

	w = ts.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", id), gin.H{"reason": "changed plans"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "cancelled", data["status"])
	assert.Contains(t, data["notes"], "changed plans")

	// Already cancelled: final state.
	w = ts.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", id), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMyBookingsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.request(t, http.MethodPost, "/api/v1/my-bookings", gin.H{"email": "jane.doe@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["bookings"], 1)

	w = ts.request(t, http.MethodPost, "/api/v1/my-bookings", gin.H{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	path := fmt.Sprintf("/api/v1/availability?test_id=%s&date=%s", ts.cbc.ID, tomorrow())
	w = ts.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{"10:00"}, data["booked_times"])

	w = ts.request(t, http.MethodGet, "/api/v1/availability?test_id="+ts.cbc.ID.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.request(t, http.MethodGet, fmt.Sprintf("/api/v1/availability?test_id=%s&date=%s", uuid.New(), tomorrow()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeResponse(t, w)["data"].(map[string]interface{})["id"].(string)

	w = ts.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/staff/bookings/%s/status", id), gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "confirmed", data["status"])

	w = ts.request(t, http.MethodPatch, fmt.Sprintf("/api/v1/staff/bookings/%s/status", id), gin.H{"status": "no-such-status"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteBookingEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeResponse(t, w)["data"].(map[string]interface{})["id"].(string)

	w = ts.request(t, http.MethodDelete, "/api/v1/staff/bookings/"+id, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "pending bookings cannot be deleted")

	w = ts.request(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%s/cancel", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.request(t, http.MethodDelete, "/api/v1/staff/bookings/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ts.bookings.bookings)
}

func TestStaffCreateBookingEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	p := &model.Patient{
		Base:   model.Base{ID: uuid.New()},
		Name:   "Jane Doe",
		Age:    34,
		Gender: model.GenderFemale,
		Phone:  "5550100100",
		Email:  "jane.doe@example.com",
	}
	require.NoError(t, ts.patients.Create(ctx, p))

	w := ts.request(t, http.MethodPost, "/api/v1/staff/bookings", gin.H{
		"patient_id":   p.ID,
		"test_id":      ts.cbc.ID,
		"booking_date": tomorrow(),
		"booking_time": "14:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, p.ID.String(), data["patient_id"])
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.request(t, http.MethodPost, "/api/v1/bookings", publicBookingBody(ts.cbc.ID))
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.request(t, http.MethodGet, "/api/v1/staff/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_bookings"])
	assert.Equal(t, float64(1), data["pending_bookings"])
}
