package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/middleware"
	"github.com/unisabana/wheels-core/internal/polyline"
	"github.com/unisabana/wheels-core/internal/providers"
	"github.com/unisabana/wheels-core/internal/service"
	"github.com/unisabana/wheels-core/internal/stops"

	"github.com/gin-gonic/gin"
)

// TripController expone la publicación, búsqueda, reserva y cancelación
// de viajes (spec §4.3).
type TripController interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	ListMine(c *gin.Context)
	Cancel(c *gin.Context)
	Reserve(c *gin.Context)
	ConfirmReservation(c *gin.Context)
	RejectReservation(c *gin.Context)
	CancelReservation(c *gin.Context)
	Passengers(c *gin.Context)
	ProposePickupSuggestion(c *gin.Context)
	ResolvePickupSuggestion(c *gin.Context)
	TariffSuggestion(c *gin.Context)
}

type tripController struct {
	tripService   service.TripService
	routeCache    *providers.RouteCache
	catalog       *stops.Catalog
	tariffService service.TariffService
}

// NewTripController crea una nueva instancia del controlador de viajes.
// routeCache y catalog resuelven la forma "paradas + polilínea" de
// CreateTripRequest a distancia/duración/puntos de recogida antes de
// delegar al servicio (spec §4.3 "Create"). tariffService respalda
// POST /trips/tariff/suggest (spec §6, §4.4).
func NewTripController(tripService service.TripService, routeCache *providers.RouteCache, catalog *stops.Catalog, tariffService service.TariffService) TripController {
	return &tripController{tripService: tripService, routeCache: routeCache, catalog: catalog, tariffService: tariffService}
}

// Create publica un viaje nuevo.
// POST /trips
func (ctrl *tripController) Create(c *gin.Context) {
	driverID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req domain.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	if err := ctrl.resolveRouteShape(c, &req); err != nil {
		middleware.Abort(c, err)
		return
	}

	trip, err := ctrl.tripService.Create(driverID, req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": trip})
}

// resolveRouteShape completa origin/destination/distance/duration/pickup
// points cuando la petición llega en su forma "paradas + polilínea"
// (origin_stop_id + destination_stop_id + route), dejando intacta la
// forma "origen/destino libres" si ya viene así.
func (ctrl *tripController) resolveRouteShape(c *gin.Context, req *domain.CreateTripRequest) error {
	if req.OriginStopID == "" && req.DestinationStopID == "" {
		if req.Origin == "" || req.Destination == "" {
			return domain.ErrValidation.WithMessage("se requiere origin/destination o origin_stop_id/destination_stop_id")
		}
		return nil
	}

	originStop, ok := ctrl.catalog.FindStation(req.OriginStopID)
	if !ok {
		return domain.ErrValidation.WithMessage("origin_stop_id no existe en el catálogo")
	}
	destStop, ok := ctrl.catalog.FindStation(req.DestinationStopID)
	if !ok {
		return domain.ErrValidation.WithMessage("destination_stop_id no existe en el catálogo")
	}

	req.Origin = originStop.Name
	req.Destination = destStop.Name

	if len(req.Route) > 0 {
		req.PickupPoints = polylineStopsToPickupPoints(req.Route, ctrl.catalog)
	}

	origin := domain.LatLng{Lat: originStop.Lat, Lng: originStop.Lng}
	destination := domain.LatLng{Lat: destStop.Lat, Lng: destStop.Lng}
	estimate, err := ctrl.routeCache.Route(c.Request.Context(), origin, destination, domain.ModeDriving)
	if err == nil {
		distanceKm := estimate.DistanceMeters / 1000
		durationMin := estimate.DurationSeconds / 60
		req.DistanceKm = &distanceKm
		req.DurationMinutes = &durationMin
		if len(req.Route) == 0 {
			req.PickupPoints = polylineStopsToPickupPoints(polyline.Decode(estimate.EncodedPolyline), ctrl.catalog)
		}
	}

	return nil
}

func polylineStopsToPickupPoints(route []domain.LatLng, catalog *stops.Catalog) []domain.PickupPoint {
	return polyline.SnapToStops(route, catalog.StopsAsRouteStops(), 150)
}

// Get devuelve un viaje por id.
// GET /trips/:id
func (ctrl *tripController) Get(c *gin.Context) {
	trip, err := ctrl.tripService.Get(c.Param("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": trip})
}

// List busca viajes disponibles por criterios de filtro.
// GET /trips
func (ctrl *tripController) List(c *gin.Context) {
	filter := domain.TripFilter{
		DeparturePoint: c.Query("departure_point"),
		MinSeats:       atoiDefault(c.Query("min_seats"), 0),
	}
	if maxPrice, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		filter.MaxPrice = &maxPrice
	}
	if t, err := time.Parse(time.RFC3339, c.Query("start_time")); err == nil {
		filter.StartTime = &t
	}
	if t, err := time.Parse(time.RFC3339, c.Query("end_time")); err == nil {
		filter.EndTime = &t
	}

	page := atoiDefault(c.Query("page"), 1)
	limit := atoiDefault(c.Query("limit"), 20)

	trips, total, err := ctrl.tripService.List(filter, page, limit)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": trips, "meta": gin.H{
		"total": total, "page": page, "limit": limit,
	}})
}

// ListMine lista los viajes publicados por el conductor autenticado.
// GET /trips/mine
func (ctrl *tripController) ListMine(c *gin.Context) {
	driverID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	trips, err := ctrl.tripService.ListByDriver(driverID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": trips})
}

// Cancel cancela un viaje propio y notifica a los pasajeros.
// PUT /trips/:id/cancel
func (ctrl *tripController) Cancel(c *gin.Context) {
	driverID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	if err := ctrl.tripService.Cancel(driverID, c.Param("id")); err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"message": "viaje cancelado"}})
}

// Reserve reserva asientos en un viaje.
// POST /trips/:id/reservations
func (ctrl *tripController) Reserve(c *gin.Context) {
	passengerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req domain.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	trip, err := ctrl.tripService.Reserve(passengerID, c.Param("id"), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": trip})
}

// ConfirmReservation confirma una reserva pendiente.
// PUT /trips/:id/reservations/:resId/confirm
func (ctrl *tripController) ConfirmReservation(c *gin.Context) {
	ctrl.decideReservation(c, true)
}

// RejectReservation rechaza una reserva pendiente y libera los asientos.
// PUT /trips/:id/reservations/:resId/reject
func (ctrl *tripController) RejectReservation(c *gin.Context) {
	ctrl.decideReservation(c, false)
}

func (ctrl *tripController) decideReservation(c *gin.Context, confirm bool) {
	driverID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	trip, err := ctrl.tripService.DecideReservation(driverID, c.Param("id"), c.Param("resId"), confirm)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": trip})
}

// CancelReservation permite que el pasajero dueño de la reserva o el
// conductor dueño del viaje la cancelen (spec.md: "either side cancel").
// PUT /trips/:id/reservations/:resId/cancel
func (ctrl *tripController) CancelReservation(c *gin.Context) {
	callerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	trip, err := ctrl.tripService.CancelReservation(callerID, c.Param("id"), c.Param("resId"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": trip})
}

// Passengers devuelve el manifiesto de pasajeros (reservas pending/confirmed)
// de un viaje propio, para el conductor.
// GET /trips/:id/passengers
func (ctrl *tripController) Passengers(c *gin.Context) {
	driverID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	passengers, err := ctrl.tripService.ListPassengers(driverID, c.Param("id"))
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": passengers})
}

// TariffSuggestion calcula la tarifa sugerida para un tramo (spec §4.4).
// POST /trips/tariff/suggest
func (ctrl *tripController) TariffSuggestion(c *gin.Context) {
	var req domain.TariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	suggestion, err := ctrl.tariffService.Suggest(req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": suggestion})
}

// ProposePickupSuggestion propone un nuevo punto de recogida.
// POST /trips/:id/pickup-suggestions
func (ctrl *tripController) ProposePickupSuggestion(c *gin.Context) {
	passengerID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req domain.CreatePickupSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	trip, err := ctrl.tripService.ProposePickupSuggestion(passengerID, c.Param("id"), req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": trip})
}

// ResolvePickupSuggestion acepta o rechaza una sugerencia de recogida.
// PUT /trips/:id/pickup-suggestions/:suggestionId/decision
func (ctrl *tripController) ResolvePickupSuggestion(c *gin.Context) {
	driverID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var body struct {
		Accept bool `json:"accept"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	trip, err := ctrl.tripService.ResolvePickupSuggestion(driverID, c.Param("id"), c.Param("suggestionId"), body.Accept)
	if err != nil {
		middleware.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": trip})
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
