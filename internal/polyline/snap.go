package polyline

import (
	"math"

	"github.com/unisabana/wheels-core/internal/domain"
)

const earthRadiusMeters = 6371000.0

// SnapToStops asocia cada punto de route con la parada conocida más
// cercana dentro de maxDistanceMeters, deduplicando paradas repetidas
// consecutivas. Se usa al publicar un viaje en su forma "paradas +
// polilínea" (spec §4.3).
func SnapToStops(route []domain.LatLng, stops []domain.RouteStop, maxDistanceMeters float64) []domain.PickupPoint {
	var snapped []domain.PickupPoint
	var lastStopID string

	for _, point := range route {
		stop, dist := nearestStop(point, stops)
		if stop == nil || dist > maxDistanceMeters {
			continue
		}
		if stop.ID == lastStopID {
			continue
		}
		snapped = append(snapped, domain.PickupPoint{
			ID:   stop.ID,
			Name: stop.Name,
			Lat:  stop.Lat,
			Lng:  stop.Lng,
		})
		lastStopID = stop.ID
	}

	return snapped
}

func nearestStop(point domain.LatLng, stops []domain.RouteStop) (*domain.RouteStop, float64) {
	var closest *domain.RouteStop
	minDist := math.MaxFloat64

	for i := range stops {
		d := haversineMeters(point.Lat, point.Lng, stops[i].Lat, stops[i].Lng)
		if d < minDist {
			minDist = d
			closest = &stops[i]
		}
	}

	return closest, minDist
}

// haversineMeters calcula la distancia entre dos coordenadas sobre la
// esfera terrestre.
func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
