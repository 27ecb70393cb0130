package service

import (
	"math"

	"github.com/unisabana/wheels-core/internal/domain"
)

// Constantes del cálculo de tarifa sugerida (spec §4.4): una fórmula
// lineal simple sobre distancia y duración, ajustada por demanda y
// ocupación, con una banda de tolerancia de +/-15% alrededor del valor
// sugerido.
const (
	baseBoardingFare   = 1500.0
	perKmRate          = 700.0
	perMinuteRate      = 80.0
	defaultDemandFactor = 1.0
	defaultOccupancy    = 1
	toleranceBand       = 0.15
)

// TariffService calcula la tarifa sugerida para un tramo dado. Es
// intencionalmente una función pura sin estado ni dependencias externas
// (spec §4.4 "Non-goals": no hay negociación ni cobro real).
type TariffService interface {
	Suggest(req domain.TariffRequest) (*domain.TariffSuggestion, error)
}

type tariffService struct{}

// NewTariffService crea una nueva instancia del calculador de tarifas.
func NewTariffService() TariffService {
	return &tariffService{}
}

func (s *tariffService) Suggest(req domain.TariffRequest) (*domain.TariffSuggestion, error) {
	if req.DistanceKm < 0 || req.DurationMinutes < 0 {
		return nil, domain.ErrTariffInvalidInput
	}

	// demandFactor >= 1 (spec §4.4): la demanda nunca abarata el tramo base.
	demand := defaultDemandFactor
	if req.DemandFactor != nil {
		if *req.DemandFactor < 1 {
			return nil, domain.ErrTariffInvalidInput
		}
		demand = *req.DemandFactor
	}

	// occupancy se satura en 1 (max(1, occupancy)) en vez de rechazarse: un
	// viaje con un solo ocupante no debería fallar la sugerencia.
	occupancy := defaultOccupancy
	if req.Occupancy != nil {
		occupancy = *req.Occupancy
		if occupancy < 1 {
			occupancy = 1
		}
	}

	distanceComponent := req.DistanceKm * perKmRate
	durationComponent := req.DurationMinutes * perMinuteRate

	raw := math.Round((baseBoardingFare + distanceComponent + durationComponent) * demand / float64(occupancy))

	return &domain.TariffSuggestion{
		SuggestedTariff: raw,
		Breakdown: domain.TariffBreakdown{
			BaseBoarding:      baseBoardingFare,
			DistanceComponent: distanceComponent,
			DurationComponent: durationComponent,
		},
		Range: domain.TariffRange{
			Min: raw * (1 - toleranceBand),
			Max: raw * (1 + toleranceBand),
		},
	}, nil
}
