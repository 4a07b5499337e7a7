package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tamagocat/office-booking-backend/internal/auth"
	"github.com/tamagocat/office-booking-backend/internal/booking"
	bookingHttp "github.com/tamagocat/office-booking-backend/internal/booking/http"
	"github.com/tamagocat/office-booking-backend/internal/resource"
	resourceHttp "github.com/tamagocat/office-booking-backend/internal/resource/http"
	"github.com/tamagocat/office-booking-backend/internal/user"
	userHttp "github.com/tamagocat/office-booking-backend/internal/user/http"
)

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(
	userService user.Service,
	resourceService resource.Service,
	bookingService booking.Service,
	jwtManager *auth.JWTManager,
) *gin.Engine {

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(jwtManager)
	// sysAdminMiddleware: Further checks if the authenticated user has System Admin privileges.
	sysAdminMiddleware := RequireSystemAdmin(userService)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(userService, jwtManager)
	resourceHandler := resourceHttp.NewHandler(resourceService)
	bookingHandler := bookingHttp.NewHandler(bookingService, userService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, sysAdminMiddleware)
		resourceHttp.RegisterRoutes(v1, resourceHandler, authMiddleware, sysAdminMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, sysAdminMiddleware)
	}

	return r
}
