package routes

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/princinho/parkingbackend/apperror"
	"github.com/princinho/parkingbackend/controllers"
	"github.com/princinho/parkingbackend/middleware"
	"github.com/princinho/parkingbackend/services"
	"github.com/princinho/parkingbackend/utils"
)

type Deps struct {
	DB            *gorm.DB
	Authenticator *services.Authenticator
	Auth          *services.AuthService
	Slots         *services.SlotService
	Bookings      *services.BookingService
	Availability  *services.AvailabilityService
	// RateLimiter is nil when rate limiting is disabled.
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins map[string]bool
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if err := utils.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.CorrelationID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			allowed := d.AllowedOrigins[origin]
			slog.Debug("CORS check", slog.String("origin", origin), slog.Bool("allowed", allowed))
			return allowed
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", utils.CorrelationIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", utils.CorrelationIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if d.RateLimiter != nil {
		r.Use(middleware.RateLimit(d.RateLimiter))
	}

	r.NoRoute(func(c *gin.Context) {
		utils.SendError(c, apperror.NotFound("NOT_FOUND", "Not found", "No route matches "+c.Request.URL.Path))
	})

	r.GET("/", controllers.Root())
	r.GET("/health", controllers.Health(d.DB))

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", controllers.Register(d.Auth))
		auth.POST("/login", controllers.Login(d.Auth))
		auth.POST("/logout", controllers.Logout(d.Auth))
	}

	protected := v1.Group("")
	protected.Use(middleware.Authenticate(d.Authenticator))
	{
		protected.GET("/users/me", controllers.Me(d.Auth))
		protected.POST("/users/me/password", controllers.ChangeMyPassword(d.Auth))

		// /items is the older name for /slots
		for _, prefix := range []string{"/slots", "/items"} {
			slots := protected.Group(prefix)
			slots.GET("", controllers.GetSlots(d.Slots))
			slots.POST("", controllers.AddSlot(d.Slots))
			slots.GET("/:id", controllers.GetSlot(d.Slots))
			slots.PATCH("/:id", controllers.UpdateSlot(d.Slots))
			slots.DELETE("/:id", controllers.DeleteSlot(d.Slots))
		}

		protected.GET("/bookings", controllers.GetBookings(d.Bookings))
		protected.POST("/bookings", controllers.CreateBooking(d.Bookings))
		protected.GET("/bookings/:id", controllers.GetBooking(d.Bookings))
		protected.PUT("/bookings/:id", controllers.UpdateBookingStatus(d.Bookings))
		protected.DELETE("/bookings/:id", controllers.CancelBooking(d.Bookings))

		protected.GET("/availability", controllers.GetAvailability(d.Availability))
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.PATCH("/users/:id/role", controllers.SetUserRole(d.Auth))
	}

	return r, nil
}
