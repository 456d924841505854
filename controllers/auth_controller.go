package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/princinho/parkingbackend/dto"
	"github.com/princinho/parkingbackend/middleware"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/utils"
)

// POST /api/v1/auth/register
func Register(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.SendError(c, utils.BindingError(err))
			return
		}

		user, err := auth.Register(c.Request.Context(), body.Email, body.FullName, body.Password)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

// POST /api/v1/auth/login
func Login(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.SendError(c, utils.BindingError(err))
			return
		}

		res, err := auth.Login(c.Request.Context(), body.Email, body.Password)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// POST /api/v1/auth/logout
// Runs without the Authenticate middleware so an already revoked token
// can log out again.
func Logout(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := middleware.BearerToken(c)
		if err != nil {
			utils.SendError(c, err)
			return
		}
		if err := auth.Logout(c.Request.Context(), token); err != nil {
			utils.SendError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
