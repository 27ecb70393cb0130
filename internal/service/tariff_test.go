package service

import (
	"testing"

	"github.com/unisabana/wheels-core/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTariffSuggest_RoundsResult(t *testing.T) {
	svc := NewTariffService()
	suggestion, err := svc.Suggest(domain.TariffRequest{DistanceKm: 3.3, DurationMinutes: 7})
	require.NoError(t, err)
	assert.Equal(t, suggestion.SuggestedTariff, float64(int64(suggestion.SuggestedTariff)))
}

func TestTariffSuggest_RejectsDemandFactorBelowOne(t *testing.T) {
	svc := NewTariffService()
	demand := 0.5
	_, err := svc.Suggest(domain.TariffRequest{DistanceKm: 3, DurationMinutes: 5, DemandFactor: &demand})
	assert.Equal(t, domain.ErrTariffInvalidInput, err)
}

func TestTariffSuggest_ClampsNonPositiveOccupancy(t *testing.T) {
	svc := NewTariffService()
	zero := 0
	withZero, err := svc.Suggest(domain.TariffRequest{DistanceKm: 3, DurationMinutes: 5, Occupancy: &zero})
	require.NoError(t, err)

	one := 1
	withOne, err := svc.Suggest(domain.TariffRequest{DistanceKm: 3, DurationMinutes: 5, Occupancy: &one})
	require.NoError(t, err)

	assert.Equal(t, withOne.SuggestedTariff, withZero.SuggestedTariff)
}
