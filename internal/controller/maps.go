package controller

import (
	"net/http"
	"strconv"

	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/middleware"
	"github.com/unisabana/wheels-core/internal/polyline"
	"github.com/unisabana/wheels-core/internal/providers"
	"github.com/unisabana/wheels-core/internal/stops"

	"github.com/gin-gonic/gin"
)

// MapsController expone el cálculo de distancia/ruta (vía RouteCache) y
// el catálogo estático de Transmilenio (spec §4.4, §4.5, §6).
type MapsController interface {
	Distance(c *gin.Context)
	Calculate(c *gin.Context)
	RouteSuggest(c *gin.Context)
	Stations(c *gin.Context)
	Routes(c *gin.Context)
	Stops(c *gin.Context)
}

type mapsController struct {
	routeCache *providers.RouteCache
	catalog    *stops.Catalog
}

// NewMapsController crea una nueva instancia del controlador de mapas.
func NewMapsController(routeCache *providers.RouteCache, catalog *stops.Catalog) MapsController {
	return &mapsController{routeCache: routeCache, catalog: catalog}
}

type routeRequest struct {
	Origin      domain.LatLng `json:"origin" binding:"required"`
	Destination domain.LatLng `json:"destination" binding:"required"`
}

func (ctrl *mapsController) resolve(c *gin.Context, origin, destination domain.LatLng) {
	estimate, err := ctrl.routeCache.Route(c.Request.Context(), origin, destination, domain.ModeDriving)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	stopsOnRoute := polyline.SnapToStops(polyline.Decode(estimate.EncodedPolyline), ctrl.catalog.StopsAsRouteStops(), 150)

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
		"estimate":      estimate,
		"snapped_stops": stopsOnRoute,
	}})
}

func latLngFromQuery(c *gin.Context, prefix string) (domain.LatLng, error) {
	lat, err := strconv.ParseFloat(c.Query(prefix+"_lat"), 64)
	if err != nil {
		return domain.LatLng{}, domain.ErrValidation.WithMessage(prefix + "_lat inválida")
	}
	lng, err := strconv.ParseFloat(c.Query(prefix+"_lng"), 64)
	if err != nil {
		return domain.LatLng{}, domain.ErrValidation.WithMessage(prefix + "_lng inválida")
	}
	return domain.LatLng{Lat: lat, Lng: lng}, nil
}

// Distance calcula la distancia/duración entre dos puntos dados por query.
// GET /maps/distance?origin_lat=&origin_lng=&destination_lat=&destination_lng=
func (ctrl *mapsController) Distance(c *gin.Context) {
	origin, err := latLngFromQuery(c, "origin")
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	destination, err := latLngFromQuery(c, "destination")
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	ctrl.resolve(c, origin, destination)
}

// Calculate calcula (o recupera de cache) la distancia, duración y
// puntos de recogida sugeridos entre dos puntos enviados por JSON.
// POST /maps/calculate
func (ctrl *mapsController) Calculate(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}
	ctrl.resolve(c, req.Origin, req.Destination)
}

// RouteSuggest es la variante pública (sin auth) de Calculate, por query.
// GET /maps/route-suggest?origin_lat=&origin_lng=&destination_lat=&destination_lng=
func (ctrl *mapsController) RouteSuggest(c *gin.Context) {
	ctrl.Distance(c)
}

// Stations devuelve el catálogo estático de estaciones de Transmilenio.
// GET /maps/transmilenio/stations
func (ctrl *mapsController) Stations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ctrl.catalog.Stations()})
}

// Routes devuelve el catálogo estático de rutas de Transmilenio.
// GET /maps/transmilenio/routes
func (ctrl *mapsController) Routes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ctrl.catalog.Routes()})
}

// Stops devuelve las paradas individuales del catálogo (estaciones vistas
// como puntos de recogida snap-eables).
// GET /maps/transmilenio/stops
func (ctrl *mapsController) Stops(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": ctrl.catalog.StopsAsRouteStops()})
}
