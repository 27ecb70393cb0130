package service

import (
	"context"
	"sync"
	"time"

	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxPendingSuggestions = 3

// TripService implementa el motor de viajes: publicación, reserva de
// asientos, sugerencias de puntos de recogida y cancelación (spec §4.3).
type TripService interface {
	Create(driverID uint64, req domain.CreateTripRequest) (*domain.Trip, error)
	Get(id string) (*domain.Trip, error)
	List(filter domain.TripFilter, page, limit int) ([]domain.Trip, int64, error)
	ListByDriver(driverID uint64) ([]domain.Trip, error)
	Cancel(driverID uint64, id string) error

	Reserve(passengerID uint64, tripID string, req domain.CreateReservationRequest) (*domain.Trip, error)
	DecideReservation(driverID uint64, tripID, reservationID string, confirm bool) (*domain.Trip, error)
	CancelReservation(callerID uint64, tripID, reservationID string) (*domain.Trip, error)

	ProposePickupSuggestion(passengerID uint64, tripID string, req domain.CreatePickupSuggestionRequest) (*domain.Trip, error)
	ResolvePickupSuggestion(driverID uint64, tripID, suggestionID string, accept bool) (*domain.Trip, error)

	// ListPassengers devuelve el manifiesto de pasajeros de un viaje
	// propio del conductor (spec §4.3, §6 "GET /trips/:id/passengers").
	ListPassengers(driverID uint64, tripID string) ([]domain.Reservation, error)

	// HasActiveFutureTrips implementa ActiveTripChecker para que
	// VehicleService.Delete pueda consultarlo sin un import cycle.
	HasActiveFutureTrips(vehicleID uint64) (bool, error)
}

type tripService struct {
	tripRepo    repository.TripRepository
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
	ratingRepo  repository.RatingRepository
	emailSvc    EmailService
}

// NewTripService crea una nueva instancia del servicio de viajes.
func NewTripService(
	tripRepo repository.TripRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	ratingRepo repository.RatingRepository,
	emailSvc EmailService,
) TripService {
	return &tripService{
		tripRepo:    tripRepo,
		vehicleRepo: vehicleRepo,
		userRepo:    userRepo,
		ratingRepo:  ratingRepo,
		emailSvc:    emailSvc,
	}
}

// Create publica un viaje nuevo. El conductor debe ser dueño del vehículo
// y este debe tener documentos vigentes (spec §4.3 "Create"). La ruta
// admite dos formas: origin/destination libres o paradas + polilínea,
// resueltas mediante internal/polyline antes de persistir.
func (s *tripService) Create(driverID uint64, req domain.CreateTripRequest) (*domain.Trip, error) {
	vehicleDAO, err := s.vehicleRepo.FindByID(req.VehicleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}
	if vehicleDAO.OwnerID != driverID {
		return nil, domain.ErrForbidden
	}
	vehicle := toDomainVehicle(vehicleDAO)
	if !vehicle.IsDocumentsValidAt(time.Now()) {
		return nil, domain.ErrDocumentsInvalid
	}
	if vehicle.Status != domain.VehicleVerified {
		return nil, domain.ErrDocumentsInvalid
	}

	if req.SeatsTotal > vehicle.Capacity {
		return nil, domain.ErrValidation.WithMessage("el número de asientos supera la capacidad del vehículo")
	}
	if !req.DepartureAt.After(time.Now()) {
		return nil, domain.ErrValidation.WithMessage("la hora de salida debe ser futura")
	}

	trip := &domain.Trip{
		DriverID:         driverID,
		VehicleID:        req.VehicleID,
		Origin:           req.Origin,
		Destination:      req.Destination,
		RouteDescription: req.RouteDescription,
		DepartureAt:      req.DepartureAt,
		SeatsTotal:       req.SeatsTotal,
		SeatsAvailable:   req.SeatsTotal,
		PricePerSeat:     req.PricePerSeat,
		DistanceKm:       req.DistanceKm,
		DurationMinutes:  req.DurationMinutes,
		Status:           domain.TripScheduled,
	}

	// La resolución de "paradas + polilínea" a domain.PickupPoint ocurre en
	// el controlador (con el catálogo de internal/stops inyectado); aquí
	// ambas formas de creación ya llegan como req.PickupPoints.
	trip.PickupPoints = toTripPickupPoints(req.PickupPoints)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

func toTripPickupPoints(points []domain.PickupPoint) []domain.TripPickupPoint {
	out := make([]domain.TripPickupPoint, len(points))
	for i, p := range points {
		out[i] = domain.TripPickupPoint{
			ID: p.ID, Name: p.Name, Description: p.Description,
			Lat: p.Lat, Lng: p.Lng,
			Source: domain.PickupFromDriver, Status: domain.PickupActive,
		}
	}
	return out
}

func (s *tripService) Get(id string) (*domain.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTripNotFound
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trip, err := s.tripRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, s.translateRepoErr(err)
	}
	s.enrichDriverStats(trip)
	return trip, nil
}

// List devuelve los viajes disponibles que cumplen filter, enriquecidos
// con la reputación del conductor (spec §9, pregunta abierta 3).
func (s *tripService) List(filter domain.TripFilter, page, limit int) ([]domain.Trip, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	trips, total, err := s.tripRepo.FindAll(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}
	for i := range trips {
		s.enrichDriverStats(&trips[i])
	}
	return trips, total, nil
}

func (s *tripService) ListByDriver(driverID uint64) ([]domain.Trip, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trips, err := s.tripRepo.FindByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// enrichDriverStats adjunta el promedio de calificación del conductor sin
// bloquear la lectura del viaje si el store de calificaciones falla.
func (s *tripService) enrichDriverStats(trip *domain.Trip) {
	avg, count, err := s.ratingRepo.DriverAverage(trip.DriverID)
	if err != nil {
		log.Warn().Err(err).Uint64("driver_id", trip.DriverID).Msg("no se pudo obtener la reputación del conductor")
		return
	}
	trip.DriverStats = &domain.DriverStats{AvgRating: avg, Count: count}
}

// Cancel cancela el viaje y notifica en paralelo a cada pasajero con
// reserva activa (spec §4.3 "Cancel"). El fallo de un correo individual
// nunca revierte ni bloquea la cancelación.
func (s *tripService) Cancel(driverID uint64, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTripNotFound
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trip, err := s.tripRepo.FindByID(ctx, oid)
	if err != nil {
		return s.translateRepoErr(err)
	}
	if trip.DriverID != driverID {
		return domain.ErrForbidden
	}
	if trip.Status == domain.TripCancelled || trip.Status == domain.TripCompleted {
		return domain.ErrTripNotAvailable
	}

	if err := s.tripRepo.SetStatus(ctx, oid, domain.TripCancelled); err != nil {
		return s.translateRepoErr(err)
	}

	s.notifyPassengersOfCancellation(trip)
	return nil
}

func (s *tripService) notifyPassengersOfCancellation(trip *domain.Trip) {
	var wg sync.WaitGroup
	for _, r := range trip.Reservations {
		if !r.Status.IsActive() {
			continue
		}
		wg.Add(1)
		go func(passengerID uint64) {
			defer wg.Done()
			userDAO, err := s.userRepo.FindByID(passengerID)
			if err != nil {
				log.Warn().Err(err).Uint64("passenger_id", passengerID).Msg("no se pudo notificar la cancelación")
				return
			}
			s.emailSvc.SendTripCancelledEmail(userDAO.Email, trip.ID.Hex())
		}(r.PassengerID)
	}
	wg.Wait()
}

// Reserve ejecuta la operación atómica de reserva (spec §4.3 "Reserve",
// §8 propiedad 2). Las precondiciones de negocio viven en el filtro del
// repositorio; aquí solo se resuelve, tras un fallo de match, cuál de
// ellas fue la que no se cumplió, para devolver el AppError correcto.
func (s *tripService) Reserve(passengerID uint64, tripID string, req domain.CreateReservationRequest) (*domain.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		return nil, domain.ErrTripNotFound
	}
	if req.Seats < 1 {
		return nil, domain.ErrValidation.WithMessage("debes reservar al menos un asiento")
	}

	reservation := domain.Reservation{
		ID:            uuid.NewString(),
		PassengerID:   passengerID,
		Seats:         req.Seats,
		PickupPoints:  toTripPickupPoints(req.PickupPoints),
		PaymentMethod: req.PaymentMethod,
		Status:        domain.ReservationPending,
		CreatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updated, err := s.tripRepo.Reserve(ctx, oid, passengerID, reservation)
	if err != nil {
		if err == repository.ErrConcurrentReservation {
			return nil, s.diagnoseReserveFailure(ctx, oid, passengerID, req.Seats)
		}
		return nil, s.translateRepoErr(err)
	}
	return updated, nil
}

// diagnoseReserveFailure relee el viaje fuera de la operación atómica
// para reportar la precondición específica que falló. Es puramente
// informativo: nunca decide si la reserva se aplicó.
func (s *tripService) diagnoseReserveFailure(ctx context.Context, tripID primitive.ObjectID, passengerID uint64, seats int) error {
	trip, err := s.tripRepo.FindByID(ctx, tripID)
	if err != nil {
		return s.translateRepoErr(err)
	}
	if trip.DriverID == passengerID {
		return domain.ErrOwnTrip
	}
	if trip.Status != domain.TripScheduled && trip.Status != domain.TripFull {
		return domain.ErrTripNotAvailable
	}
	for _, r := range trip.Reservations {
		if r.PassengerID == passengerID && r.Status.IsActive() {
			return domain.ErrDuplicateReservation
		}
	}
	if trip.SeatsAvailable < seats {
		return domain.ErrInsufficientSeats
	}
	return domain.ErrTripNotAvailable
}

// DecideReservation confirma o rechaza una reserva pendiente. Rechazarla
// libera los asientos atómicamente (spec §4.3 "Reservation lifecycle").
func (s *tripService) DecideReservation(driverID uint64, tripID, reservationID string, confirm bool) (*domain.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		return nil, domain.ErrTripNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trip, err := s.tripRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, s.translateRepoErr(err)
	}
	if trip.DriverID != driverID {
		return nil, domain.ErrForbidden
	}

	var target *domain.Reservation
	for i := range trip.Reservations {
		if trip.Reservations[i].ID == reservationID {
			target = &trip.Reservations[i]
			break
		}
	}
	if target == nil {
		return nil, domain.ErrNotFound.WithMessage("reserva no encontrada")
	}
	if target.Status != domain.ReservationPending {
		return nil, domain.ErrValidation.WithMessage("la reserva ya fue decidida")
	}

	newStatus := domain.ReservationRejected
	releaseSeats := target.Seats
	if confirm {
		newStatus = domain.ReservationConfirmed
		releaseSeats = 0
	}

	updated, err := s.tripRepo.UpdateReservationStatus(ctx, oid, reservationID, newStatus, releaseSeats)
	if err != nil {
		return nil, s.translateRepoErr(err)
	}
	return updated, nil
}

// CancelReservation permite cancelar una reserva activa (pending o
// confirmed) a cualquiera de las dos partes: el pasajero dueño de la
// reserva, o el conductor dueño del viaje (spec.md: "pending|confirmed
// —(either side cancel)→ cancelled"). En ambos casos libera los asientos.
func (s *tripService) CancelReservation(callerID uint64, tripID, reservationID string) (*domain.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		return nil, domain.ErrTripNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trip, err := s.tripRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, s.translateRepoErr(err)
	}

	var target *domain.Reservation
	for i := range trip.Reservations {
		if trip.Reservations[i].ID == reservationID {
			target = &trip.Reservations[i]
			break
		}
	}
	if target == nil {
		return nil, domain.ErrNotFound.WithMessage("reserva no encontrada")
	}
	if target.PassengerID != callerID && trip.DriverID != callerID {
		return nil, domain.ErrForbidden
	}
	if !target.Status.IsActive() {
		return nil, domain.ErrValidation.WithMessage("la reserva ya no está activa")
	}

	updated, err := s.tripRepo.UpdateReservationStatus(ctx, oid, reservationID, domain.ReservationCancelled, target.Seats)
	if err != nil {
		return nil, s.translateRepoErr(err)
	}
	return updated, nil
}

// ProposePickupSuggestion registra una propuesta de punto de recogida de
// un pasajero, con un tope de 3 pendientes por pasajero y por viaje
// (spec §4.3 "Pickup suggestions").
func (s *tripService) ProposePickupSuggestion(passengerID uint64, tripID string, req domain.CreatePickupSuggestionRequest) (*domain.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		return nil, domain.ErrTripNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pending, err := s.tripRepo.CountPendingSuggestions(ctx, oid, passengerID)
	if err != nil {
		return nil, err
	}
	if pending >= maxPendingSuggestions {
		return nil, domain.ErrTooManySuggestions
	}

	suggestionID := uuid.NewString()
	suggestion := domain.PickupSuggestion{
		ID:          suggestionID,
		PassengerID: passengerID,
		Name:        req.Name,
		Description: req.Description,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Status:      domain.SuggestionPending,
		CreatedAt:   time.Now(),
	}
	point := domain.TripPickupPoint{
		ID:          suggestionID,
		Name:        req.Name,
		Description: req.Description,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Source:      domain.PickupFromPassenger,
		Status:      domain.PickupActive,
	}

	updated, err := s.tripRepo.AddPickupSuggestion(ctx, oid, suggestion, point)
	if err != nil {
		return nil, s.translateRepoErr(err)
	}
	return updated, nil
}

// ResolvePickupSuggestion acepta o rechaza una sugerencia; solo el
// conductor del viaje puede decidir.
func (s *tripService) ResolvePickupSuggestion(driverID uint64, tripID, suggestionID string, accept bool) (*domain.Trip, error) {
	oid, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		return nil, domain.ErrTripNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trip, err := s.tripRepo.FindByID(ctx, oid)
	if err != nil {
		return nil, s.translateRepoErr(err)
	}
	if trip.DriverID != driverID {
		return nil, domain.ErrForbidden
	}

	updated, err := s.tripRepo.ResolvePickupSuggestion(ctx, oid, suggestionID, accept)
	if err != nil {
		return nil, s.translateRepoErr(err)
	}
	return updated, nil
}

// ListPassengers devuelve las reservas activas (pending/confirmed) de un
// viaje propio, para que el conductor vea su manifiesto de pasajeros.
func (s *tripService) ListPassengers(driverID uint64, tripID string) ([]domain.Reservation, error) {
	trip, err := s.Get(tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, domain.ErrForbidden
	}

	passengers := make([]domain.Reservation, 0, len(trip.Reservations))
	for _, r := range trip.Reservations {
		if r.Status.IsActive() {
			passengers = append(passengers, r)
		}
	}
	return passengers, nil
}

// HasActiveFutureTrips implementa ActiveTripChecker para VehicleService
// (spec §4.2 "Delete"): un vehículo con viajes futuros programados o
// llenos no puede eliminarse.
func (s *tripService) HasActiveFutureTrips(vehicleID uint64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trips, err := s.tripRepo.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		return false, err
	}
	now := time.Now()
	for _, t := range trips {
		if t.DepartureAt.After(now) && (t.Status == domain.TripScheduled || t.Status == domain.TripFull) {
			return true, nil
		}
	}
	return false, nil
}

func (s *tripService) translateRepoErr(err error) error {
	if err == repository.ErrTripNotFound {
		return domain.ErrTripNotFound
	}
	return err
}
