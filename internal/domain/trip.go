package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripStatus es el estado del viaje.
type TripStatus string

const (
	TripScheduled TripStatus = "scheduled"
	TripFull      TripStatus = "full"
	TripCancelled TripStatus = "cancelled"
	TripCompleted TripStatus = "completed"
)

// PickupSource identifica quién originó un punto de recogida embebido en
// el viaje.
type PickupSource string

const (
	PickupFromDriver    PickupSource = "driver"
	PickupFromPassenger PickupSource = "passenger"
	PickupFromSystem    PickupSource = "system"
)

// PickupStatus es el estado de un punto de recogida embebido.
type PickupStatus string

const (
	PickupActive   PickupStatus = "active"
	PickupRejected PickupStatus = "rejected"
)

// TripPickupPoint es la instantánea de un punto de recogida dentro de un
// viaje, con su procedencia y estado.
type TripPickupPoint struct {
	ID          string       `json:"id" bson:"id"`
	Name        string       `json:"name" bson:"name"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	Lat         float64      `json:"lat" bson:"lat"`
	Lng         float64      `json:"lng" bson:"lng"`
	Source      PickupSource `json:"source" bson:"source"`
	Status      PickupStatus `json:"status" bson:"status"`
}

// ReservationStatus es el estado de una reserva embebida.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationRejected  ReservationStatus = "rejected"
	ReservationCancelled ReservationStatus = "cancelled"
)

// activeReservationStatuses son los estados que cuentan para la
// conservación de asientos y la regla de una reserva activa por pasajero.
var activeReservationStatuses = map[ReservationStatus]bool{
	ReservationPending:   true,
	ReservationConfirmed: true,
}

// IsActive indica si la reserva ocupa asientos (pending o confirmed).
func (s ReservationStatus) IsActive() bool {
	return activeReservationStatuses[s]
}

// Reservation es una reserva embebida dentro de un Trip.
type Reservation struct {
	ID            string            `json:"id" bson:"id"`
	PassengerID   uint64            `json:"passenger_id" bson:"passenger_id"`
	Seats         int               `json:"seats" bson:"seats"`
	PickupPoints  []TripPickupPoint `json:"pickup_points" bson:"pickup_points"`
	PaymentMethod PaymentMethod     `json:"payment_method" bson:"payment_method"`
	Status        ReservationStatus `json:"status" bson:"status"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
	DecisionAt    *time.Time        `json:"decision_at,omitempty" bson:"decision_at,omitempty"`
}

// SuggestionStatus es el estado de una sugerencia de punto de recogida.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionRejected SuggestionStatus = "rejected"
)

// PickupSuggestion es una propuesta de punto de recogida hecha por un
// pasajero, pendiente de revisión por el conductor.
type PickupSuggestion struct {
	ID          string           `json:"id" bson:"id"`
	PassengerID uint64           `json:"passenger_id" bson:"passenger_id"`
	Name        string           `json:"name" bson:"name"`
	Description string           `json:"description,omitempty" bson:"description,omitempty"`
	Lat         float64          `json:"lat" bson:"lat"`
	Lng         float64          `json:"lng" bson:"lng"`
	Status      SuggestionStatus `json:"status" bson:"status"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
}

// DriverStats es el agregado de calificaciones del conductor, de solo
// lectura para el Trip Engine (spec §9, pregunta abierta 3).
type DriverStats struct {
	AvgRating float64 `json:"avg_rating"`
	Count     int64   `json:"count"`
}

// Trip representa un viaje publicado por un conductor.
type Trip struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DriverID uint64             `json:"driver_id" bson:"driver_id"`
	VehicleID uint64            `json:"vehicle_id" bson:"vehicle_id"`

	Origin            string `json:"origin" bson:"origin"`
	Destination       string `json:"destination" bson:"destination"`
	RouteDescription  string `json:"route_description,omitempty" bson:"route_description,omitempty"`

	DepartureAt time.Time `json:"departure_at" bson:"departure_at"`

	SeatsTotal     int     `json:"seats_total" bson:"seats_total"`
	SeatsAvailable int     `json:"seats_available" bson:"seats_available"`
	PricePerSeat   float64 `json:"price_per_seat" bson:"price_per_seat"`

	DistanceKm      *float64 `json:"distance_km,omitempty" bson:"distance_km,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty" bson:"duration_minutes,omitempty"`

	PickupPoints      []TripPickupPoint  `json:"pickup_points" bson:"pickup_points"`
	PickupSuggestions []PickupSuggestion `json:"pickup_suggestions" bson:"pickup_suggestions"`
	Reservations      []Reservation      `json:"reservations" bson:"reservations"`

	Status TripStatus `json:"status" bson:"status"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	// DriverStats se adjunta en memoria al enriquecer una lectura; nunca
	// se persiste como parte del documento del viaje.
	DriverStats *DriverStats `json:"driver_stats,omitempty" bson:"-"`
}

// SeatsReserved devuelve la suma de asientos en reservas activas.
func (t *Trip) SeatsReserved() int {
	sum := 0
	for _, r := range t.Reservations {
		if r.Status.IsActive() {
			sum += r.Seats
		}
	}
	return sum
}

// NormalizeStatus recalcula scheduled/full según seatsAvailable, sin tocar
// estados terminales (cancelled/completed). Ver spec §3, §4.3.
func (t *Trip) NormalizeStatus() {
	if t.Status == TripCancelled || t.Status == TripCompleted {
		return
	}
	if t.SeatsAvailable <= 0 {
		t.Status = TripFull
	} else {
		t.Status = TripScheduled
	}
}

// RouteStop es un punto de parada conocido del catálogo de paradas
// (Transmilenio u otro), usado para el snapping de polilíneas.
type RouteStop struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// CreateTripRequest son los datos para publicar un viaje nuevo. Admite dos
// formas: origen/destino libres, o paradas + polilínea (spec §4.3).
type CreateTripRequest struct {
	VehicleID  uint64  `json:"vehicle_id" binding:"required"`

	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`

	OriginStopID      string    `json:"origin_stop_id,omitempty"`
	DestinationStopID string    `json:"destination_stop_id,omitempty"`
	Route             []LatLng  `json:"route,omitempty"`

	RouteDescription string        `json:"route_description,omitempty"`
	DepartureAt      time.Time     `json:"departure_at" binding:"required"`
	SeatsTotal       int           `json:"seats_total" binding:"required,min=1"`
	PricePerSeat     float64       `json:"price_per_seat" binding:"min=0"`
	DistanceKm       *float64      `json:"distance_km,omitempty"`
	DurationMinutes  *float64      `json:"duration_minutes,omitempty"`
	PickupPoints     []PickupPoint `json:"pickup_points,omitempty"`
}

// LatLng es un punto geográfico crudo, usado en la forma "paradas +
// polilínea" de creación de viaje y en el resultado de un proveedor de
// rutas.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreateReservationRequest son los datos para reservar asientos en un
// viaje.
type CreateReservationRequest struct {
	Seats         int           `json:"seats" binding:"required,min=1"`
	PickupPoints  []PickupPoint `json:"pickup_points" binding:"required"`
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required,oneof=cash nequi"`
}

// CreatePickupSuggestionRequest propone un nuevo punto de recogida para un
// viaje.
type CreatePickupSuggestionRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat" binding:"required"`
	Lng         float64 `json:"lng" binding:"required"`
}

// TripFilter son los criterios de búsqueda de GET /trips.
type TripFilter struct {
	DeparturePoint string
	MinSeats       int
	MaxPrice       *float64
	StartTime      *time.Time
	EndTime        *time.Time
}
