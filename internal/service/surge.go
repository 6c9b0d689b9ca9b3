package service

import (
	"context"
	"log/slog"

	"motodispatch/internal/config"
	"motodispatch/internal/redis"
	"motodispatch/internal/repository"
)

// SurgeService computes a demand/supply multiplier for a location.
// It is deliberately a step function of the demand/supply ratio,
// deterministic and easy to tune.
type SurgeService struct {
	locationStore redis.LocationStoreInterface
	rideRepo      repository.RideRepository
	cfg           config.SurgeConfig
	logger        *slog.Logger
}

// NewSurgeService creates a new SurgeService.
func NewSurgeService(
	locationStore redis.LocationStoreInterface,
	rideRepo repository.RideRepository,
	cfg config.SurgeConfig,
	logger *slog.Logger,
) *SurgeService {
	return &SurgeService{
		locationStore: locationStore,
		rideRepo:      rideRepo,
		cfg:           cfg,
		logger:        logger,
	}
}

// GetMultiplier returns the surge multiplier at the given point.
// Collaborator errors degrade to 1.0: surge estimation must never
// fail the ride flow.
func (s *SurgeService) GetMultiplier(ctx context.Context, lat, lng float64) float64 {
	demand, err := s.rideRepo.CountActiveNear(ctx, lat, lng, s.cfg.RadiusKm)
	if err != nil {
		s.logger.Warn("surge demand count failed, no surge applied", "error", err)
		return 1.0
	}

	supply, err := s.locationStore.CountNearbyDrivers(ctx, lat, lng, s.cfg.RadiusKm)
	if err != nil {
		s.logger.Warn("surge supply count failed, no surge applied", "error", err)
		return 1.0
	}

	return Multiplier(demand, supply)
}

// Multiplier maps a demand/supply pair onto the surge tier table.
// Zero supply always yields 1.5.
func Multiplier(demand, supply int) float64 {
	if supply == 0 {
		return 1.5
	}

	ratio := float64(demand) / float64(supply)

	switch {
	case ratio > 2.0:
		return 2.0
	case ratio > 1.5:
		return 1.75
	case ratio > 1.0:
		return 1.5
	case ratio > 0.8:
		return 1.25
	default:
		return 1.0
	}
}
