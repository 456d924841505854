package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/dto"
	"github.com/princinho/parkingbackend/middleware"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/utils"
)

// GET /api/v1/bookings?slot_id=
func GetBookings(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q dto.ListBookingsQuery
		if err := utils.BindQuery(c, &q); err != nil {
			utils.SendError(c, err)
			return
		}

		items, err := bookings.List(c.Request.Context(), middleware.CurrentPrincipal(c), q.SlotID)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// POST /api/v1/bookings
func CreateBooking(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateBookingDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.SendError(c, utils.BindingError(err))
			return
		}
		date, err := models.ParseDate(body.BookingDate)
		if err != nil {
			utils.SendError(c, apperror.FieldValidation("booking_date", err.Error()))
			return
		}

		booking, err := bookings.Create(c.Request.Context(), middleware.CurrentPrincipal(c), body.SlotID, date)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusCreated, booking)
	}
}

// GET /api/v1/bookings/:id
func GetBooking(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params dto.IDParam
		if err := utils.BindURI(c, &params); err != nil {
			utils.SendError(c, err)
			return
		}

		booking, err := bookings.Get(c.Request.Context(), middleware.CurrentPrincipal(c), params.ID)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

// PUT /api/v1/bookings/:id
func UpdateBookingStatus(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params dto.IDParam
		if err := utils.BindURI(c, &params); err != nil {
			utils.SendError(c, err)
			return
		}
		var body dto.UpdateBookingStatusDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.SendError(c, utils.BindingError(err))
			return
		}

		booking, err := bookings.UpdateStatus(c.Request.Context(), middleware.CurrentPrincipal(c), params.ID, models.BookingStatus(body.Status))
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, booking)
	}
}

// DELETE /api/v1/bookings/:id
func CancelBooking(bookings *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params dto.IDParam
		if err := utils.BindURI(c, &params); err != nil {
			utils.SendError(c, err)
			return
		}

		if err := bookings.Cancel(c.Request.Context(), middleware.CurrentPrincipal(c), params.ID); err != nil {
			utils.SendError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
