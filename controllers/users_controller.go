package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/princinho/parkingbackend/dto"
	"github.com/princinho/parkingbackend/middleware"
	"github.com/princinho/parkingbackend/models"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/utils"
)

// GET /api/v1/users/me
func Me(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Me(c.Request.Context(), middleware.CurrentPrincipal(c))
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// POST /api/v1/users/me/password
func ChangeMyPassword(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ChangeMyPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.SendError(c, utils.BindingError(err))
			return
		}

		err := auth.ChangePassword(c.Request.Context(), middleware.CurrentPrincipal(c), body.CurrentPassword, body.NewPassword)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// PATCH /api/v1/admin/users/:id/role
func SetUserRole(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params dto.IDParam
		if err := utils.BindURI(c, &params); err != nil {
			utils.SendError(c, err)
			return
		}
		var body dto.SetRoleDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.SendError(c, utils.BindingError(err))
			return
		}

		user, err := auth.SetRole(c.Request.Context(), middleware.CurrentPrincipal(c), params.ID, models.Role(body.Role))
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
