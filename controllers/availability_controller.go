package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/dto"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/utils"
)

// GET /api/v1/availability?target_date=&code=
func GetAvailability(availability *services.AvailabilityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q dto.AvailabilityQuery
		if err := utils.BindQuery(c, &q); err != nil {
			utils.SendError(c, err)
			return
		}
		date, err := models.ParseDate(q.TargetDate)
		if err != nil {
			utils.SendError(c, apperror.FieldValidation("target_date", err.Error()))
			return
		}

		res, err := availability.Availability(c.Request.Context(), date, q.Code)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
