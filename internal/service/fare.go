package service

import (
	"math"

	"motodispatch/internal/config"
	"motodispatch/internal/domain"
)

// CalculateFare computes the full fare breakdown for a ride. It is a
// pure function of its inputs; the pricing configuration is injected
// by the caller rather than read from process-wide state.
//
// The platform fee is derived as the remainder of total minus the
// driver share, so the split always sums to the total regardless of
// rounding or how the configured commission percentages relate.
func CalculateFare(cfg config.PricingConfig, distanceKm, durationMin, surgeFactor float64) domain.FareBreakdown {
	if surgeFactor < 1.0 {
		surgeFactor = 1.0
	}

	baseSurge := cfg.BaseSurgeMultiplier
	if baseSurge < 1.0 {
		baseSurge = 1.0
	}

	distanceCost := distanceKm * cfg.PerKmRate
	timeCost := durationMin * cfg.PerMinuteRate

	subtotal := cfg.BaseFare + distanceCost + timeCost
	if subtotal < cfg.MinimumFare {
		subtotal = cfg.MinimumFare
	}

	effectiveSurge := baseSurge * surgeFactor
	surgeAmount := subtotal * (effectiveSurge - 1)
	total := math.Round(subtotal * effectiveSurge)

	driverShare := math.Round(total * cfg.DriverCommissionPct / 100)
	platformFee := total - driverShare

	return domain.FareBreakdown{
		BaseFare:        cfg.BaseFare,
		DistanceCost:    distanceCost,
		TimeCost:        timeCost,
		Subtotal:        subtotal,
		SurgeMultiplier: effectiveSurge,
		SurgeAmount:     surgeAmount,
		Total:           total,
		DriverShare:     driverShare,
		PlatformFee:     platformFee,
		Currency:        cfg.Currency,
	}
}
