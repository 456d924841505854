package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/princinho/parkingbackend/dto"
	"github.com/princinho/parkingbackend/middleware"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/utils"
)

// POST /api/v1/slots
func AddSlot(slots *services.SlotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.CreateSlotDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.SendError(c, utils.BindingError(err))
			return
		}

		slot, err := slots.Create(c.Request.Context(), middleware.CurrentPrincipal(c), body.Code, body.Description)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusCreated, slot)
	}
}

// GET /api/v1/slots?limit=&offset=
func GetSlots(slots *services.SlotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q dto.ListSlotsQuery
		if err := utils.BindQuery(c, &q); err != nil {
			utils.SendError(c, err)
			return
		}

		page, err := slots.List(c.Request.Context(), middleware.CurrentPrincipal(c), q.Limit, q.Offset)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GET /api/v1/slots/:id
func GetSlot(slots *services.SlotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params dto.IDParam
		if err := utils.BindURI(c, &params); err != nil {
			utils.SendError(c, err)
			return
		}

		slot, err := slots.Get(c.Request.Context(), middleware.CurrentPrincipal(c), params.ID)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, slot)
	}
}

// PATCH /api/v1/slots/:id
func UpdateSlot(slots *services.SlotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params dto.IDParam
		if err := utils.BindURI(c, &params); err != nil {
			utils.SendError(c, err)
			return
		}
		var body dto.UpdateSlotDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.SendError(c, utils.BindingError(err))
			return
		}

		slot, err := slots.Update(c.Request.Context(), middleware.CurrentPrincipal(c), params.ID, body.Description)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, slot)
	}
}

// DELETE /api/v1/slots/:id
func DeleteSlot(slots *services.SlotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params dto.IDParam
		if err := utils.BindURI(c, &params); err != nil {
			utils.SendError(c, err)
			return
		}

		if err := slots.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), params.ID); err != nil {
			utils.SendError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
