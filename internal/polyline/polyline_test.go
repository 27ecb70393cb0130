package polyline

import (
	"testing"

	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	// Ejemplo clásico de la documentación de Google: _p~iF~ps|U_ulLnnqC_mqNvxq`@
	points := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")

	assert.Len(t, points, 3)
	assert.InDelta(t, 38.5, points[0].Lat, 1e-4)
	assert.InDelta(t, -120.2, points[0].Lng, 1e-4)
	assert.InDelta(t, 40.7, points[1].Lat, 1e-4)
	assert.InDelta(t, -120.95, points[1].Lng, 1e-4)
	assert.InDelta(t, 43.252, points[2].Lat, 1e-4)
	assert.InDelta(t, -126.453, points[2].Lng, 1e-4)
}

func TestDecodeEmpty(t *testing.T) {
	assert.Empty(t, Decode(""))
}

func TestSnapToStops(t *testing.T) {
	stops := []domain.RouteStop{
		{ID: "stop-1", Name: "Portal 80", Lat: 4.7110, Lng: -74.1150},
		{ID: "stop-2", Name: "Calle 100", Lat: 4.6870, Lng: -74.0530},
	}

	route := []domain.LatLng{
		{Lat: 4.7110, Lng: -74.1150},
		{Lat: 4.7111, Lng: -74.1151},
		{Lat: 4.6870, Lng: -74.0530},
		{Lat: 10.0, Lng: 10.0},
	}

	snapped := SnapToStops(route, stops, 50)

	assert.Len(t, snapped, 2)
	assert.Equal(t, "stop-1", snapped[0].ID)
	assert.Equal(t, "stop-2", snapped[1].ID)
}
