package providers

import (
	"context"

	"github.com/unisabana/wheels-core/internal/domain"
)

// RouteProvider abstrae un proveedor externo de cálculo de rutas. Los
// adaptadores concretos (ORS, OSRM, Google Directions) implementan esta
// interfaz; el resto del core nunca depende de un proveedor en concreto
// (spec §4.4 "Route providers").
type RouteProvider interface {
	Name() string
	Route(ctx context.Context, origin, destination domain.LatLng, mode domain.TravelMode) (*domain.RouteEstimate, error)
}
