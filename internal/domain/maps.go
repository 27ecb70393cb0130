package domain

import "time"

// TravelMode es el modo de viaje consultado a un proveedor de rutas.
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
)

// RouteEstimate es el resultado de consultar (o memoizar) la distancia y
// duración entre dos puntos.
type RouteEstimate struct {
	DistanceMeters  float64   `json:"distance_meters"`
	DurationSeconds float64   `json:"duration_seconds"`
	EncodedPolyline string    `json:"encoded_polyline"`
	FetchedAt       time.Time `json:"fetched_at"`
	Provider        string    `json:"provider"`
}

// TariffRequest son los insumos del cálculo de tarifa sugerida.
type TariffRequest struct {
	DistanceKm      float64  `json:"distance_km" binding:"min=0"`
	DurationMinutes float64  `json:"duration_minutes" binding:"min=0"`
	DemandFactor    *float64 `json:"demand_factor,omitempty"`
	Occupancy       *int     `json:"occupancy,omitempty"`
}

// TariffBreakdown descompone la tarifa sugerida en sus componentes.
type TariffBreakdown struct {
	BaseBoarding      float64 `json:"base_boarding"`
	DistanceComponent float64 `json:"distance_component"`
	DurationComponent float64 `json:"duration_component"`
}

// TariffRange es la banda de tolerancia alrededor de la tarifa sugerida.
type TariffRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TariffSuggestion es la respuesta del calculador de tarifas.
type TariffSuggestion struct {
	SuggestedTariff float64         `json:"suggested_tariff"`
	Breakdown       TariffBreakdown `json:"breakdown"`
	Range           TariffRange     `json:"range"`
}
