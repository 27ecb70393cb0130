// Package stops expone el catálogo estático de estaciones, rutas y
// paradas de Transmilenio que el core usa para "paradas + polilínea" y
// para el snapping de rutas (spec §4.5 "GET /maps/transmilenio/*").
// La integración real con el sistema de información de Transmilenio
// está fuera de alcance (spec, Non-goals); este catálogo es seedable y
// sirve como fuente de verdad local.
package stops

import "github.com/unisabana/wheels-core/internal/domain"

// Station es una estación troncal de Transmilenio.
type Station struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Route es una ruta troncal o alimentadora identificada por su código.
type Route struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	StationIDs []string `json:"station_ids"`
}

// Catalog es el catálogo en memoria de estaciones, rutas y paradas.
type Catalog struct {
	stations []Station
	routes   []Route
}

// NewCatalog crea el catálogo con el seed por defecto.
func NewCatalog() *Catalog {
	return &Catalog{
		stations: defaultStations,
		routes:   defaultRoutes,
	}
}

// Stations devuelve todas las estaciones del catálogo.
func (c *Catalog) Stations() []Station {
	return c.stations
}

// Routes devuelve todas las rutas del catálogo.
func (c *Catalog) Routes() []Route {
	return c.routes
}

// StopsAsRouteStops expone las estaciones como domain.RouteStop, la forma
// que consume el paquete polyline para el snapping.
func (c *Catalog) StopsAsRouteStops() []domain.RouteStop {
	out := make([]domain.RouteStop, len(c.stations))
	for i, s := range c.stations {
		out[i] = domain.RouteStop{ID: s.ID, Name: s.Name, Lat: s.Lat, Lng: s.Lng}
	}
	return out
}

// FindStation busca una estación por id.
func (c *Catalog) FindStation(id string) (Station, bool) {
	for _, s := range c.stations {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// defaultStations es un subconjunto representativo de estaciones
// troncales de Bogotá, suficiente para desarrollo y pruebas sin depender
// de un servicio externo.
var defaultStations = []Station{
	{ID: "portal-80", Name: "Portal 80", Lat: 4.7110, Lng: -74.1150},
	{ID: "portal-norte", Name: "Portal Norte", Lat: 4.7553, Lng: -74.0457},
	{ID: "calle-100", Name: "Calle 100", Lat: 4.6870, Lng: -74.0530},
	{ID: "av-jimenez", Name: "Av. Jiménez", Lat: 4.6018, Lng: -74.0721},
	{ID: "universidades", Name: "Universidades", Lat: 4.6280, Lng: -74.0661},
	{ID: "portal-sur", Name: "Portal Sur", Lat: 4.5734, Lng: -74.1520},
}

var defaultRoutes = []Route{
	{Code: "B74", Name: "Portal 80 - Universidades", StationIDs: []string{"portal-80", "universidades"}},
	{Code: "F20", Name: "Portal Norte - Av. Jiménez", StationIDs: []string{"portal-norte", "calle-100", "av-jimenez"}},
}
