package catalog

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medlab/booking-api/internal/handler"
	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository"
	"github.com/medlab/booking-api/internal/service/booking"
	"github.com/medlab/booking-api/internal/service/catalog"
)

type Handler struct {
	service    *catalog.Service
	bookingSvc *booking.Service
}

func NewHandler(service *catalog.Service, bookingSvc *booking.Service) *Handler {
	return &Handler{service: service, bookingSvc: bookingSvc}
}

// RegisterPublicRoutes exposes catalog browsing: active tests and a
// detail view with the test's upcoming bookings.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	tests := r.Group("/tests")
	{
		tests.GET("", h.ListActiveTests)
		tests.GET("/:id", h.GetTestDetail)
	}
}

// RegisterStaffRoutes exposes full catalog CRUD.
func (h *Handler) RegisterStaffRoutes(r *gin.RouterGroup) {
	tests := r.Group("/tests")
	{
		tests.POST("", h.CreateTest)
		tests.GET("", h.ListAllTests)
		tests.PUT("/:id", h.UpdateTest)
		tests.DELETE("/:id", h.DeleteTest)
	}
}

func (h *Handler) ListActiveTests(c *gin.Context) {
	tests, err := h.service.ListTests(c.Request.Context(), true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tests))
}

func (h *Handler) ListAllTests(c *gin.Context) {
	tests, err := h.service.ListTests(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(tests))
}

func (h *Handler) GetTestDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid test ID"))
		return
	}

	test, err := h.service.GetActiveTest(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("test not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	upcoming, err := h.bookingSvc.ListBookings(c.Request.Context(), &model.BookingFilters{
		TestID:   id,
		DateFrom: todayStart(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"test":              test,
		"upcoming_bookings": upcoming,
	}))
}

func todayStart() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (h *Handler) CreateTest(c *gin.Context) {
	var req model.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	test := &model.Test{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		DurationHours: req.DurationHours,
	}

	if err := h.service.CreateTest(c.Request.Context(), test); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(test))
}

func (h *Handler) UpdateTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid test ID"))
		return
	}

	var req model.UpdateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	test, err := h.service.UpdateTest(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("test not found"))
			return
		}
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(test))
}

func (h *Handler) DeleteTest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid test ID"))
		return
	}

	if err := h.service.DeleteTest(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, handler.NewErrorResponse("test not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "test deleted"}))
}
