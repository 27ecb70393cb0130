// Package polyline decodifica polilíneas codificadas en el formato de
// Google (usado también por OSRM y ORS) y ajusta (snap) una ruta a las
// paradas conocidas más cercanas (spec §4.3 "Paradas + polilínea").
package polyline

import "github.com/unisabana/wheels-core/internal/domain"

const polylinePrecision = 1e5

// Decode convierte una polilínea codificada en la secuencia de puntos que
// representa. Es una función pura: el mismo string siempre produce la
// misma salida.
func Decode(encoded string) []domain.LatLng {
	var points []domain.LatLng
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		var deltaLat int
		deltaLat, index = decodeValue(encoded, index)
		lat += deltaLat

		var deltaLng int
		deltaLng, index = decodeValue(encoded, index)
		lng += deltaLng

		points = append(points, domain.LatLng{
			Lat: float64(lat) / polylinePrecision,
			Lng: float64(lng) / polylinePrecision,
		})
	}

	return points
}

func decodeValue(encoded string, index int) (int, int) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			break
		}
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), index
	}
	return result >> 1, index
}
