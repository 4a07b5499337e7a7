package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tamagocat/office-booking-backend/internal/api"
	"github.com/tamagocat/office-booking-backend/internal/auth"
	"github.com/tamagocat/office-booking-backend/internal/booking"
	"github.com/tamagocat/office-booking-backend/internal/pkg/storage"
	"github.com/tamagocat/office-booking-backend/internal/resource"
	"github.com/tamagocat/office-booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	DBPool      *pgxpool.Pool
	JWTSecret   string
	JWTTTL      time.Duration
	BcryptCost  int
	StoragePath string

	SlotDuration        time.Duration
	OperatingHoursStart string
	OperatingHoursEnd   string
	CheckInGrace        time.Duration
	SuggestionHorizon   time.Duration
	SuggestionLimit     int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	policy, err := bookingPolicy(cfg)
	if err != nil {
		return nil, err
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Resource Module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo, store)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, resService, policy)

	// Router
	router := api.NewRouter(userService, resService, bookingService, jwtManager)

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		BookingService: bookingService,
	}, nil
}

func bookingPolicy(cfg Config) (booking.Policy, error) {
	policy := booking.DefaultPolicy()

	if cfg.SlotDuration > 0 {
		policy.SlotDuration = cfg.SlotDuration
	}
	if cfg.CheckInGrace > 0 {
		policy.CheckInGrace = cfg.CheckInGrace
	}
	if cfg.SuggestionHorizon > 0 {
		policy.SuggestionHorizon = cfg.SuggestionHorizon
	}
	if cfg.SuggestionLimit > 0 {
		policy.SuggestionLimit = cfg.SuggestionLimit
	}

	if cfg.OperatingHoursStart != "" {
		start, err := booking.ParseClockTime(cfg.OperatingHoursStart)
		if err != nil {
			return booking.Policy{}, fmt.Errorf("parse operating hours start: %w", err)
		}
		policy.DayStartMinutes = start
	}
	if cfg.OperatingHoursEnd != "" {
		end, err := booking.ParseClockTime(cfg.OperatingHoursEnd)
		if err != nil {
			return booking.Policy{}, fmt.Errorf("parse operating hours end: %w", err)
		}
		policy.DayEndMinutes = end
	}

	if policy.DayStartMinutes >= policy.DayEndMinutes {
		return booking.Policy{}, fmt.Errorf("operating hours start %q must be before end %q", cfg.OperatingHoursStart, cfg.OperatingHoursEnd)
	}

	return policy, nil
}
