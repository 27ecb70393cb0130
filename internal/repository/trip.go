package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unisabana/wheels-core/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrTripNotFound y ErrConcurrentReservation son errores de bajo nivel
// del repositorio; la capa de servicio los traduce a domain.AppError.
var (
	ErrTripNotFound         = errors.New("viaje no encontrado")
	ErrConcurrentReservation = errors.New("la reserva no pudo completarse: estado del viaje cambió")
)

// TripRepository define las operaciones de acceso a datos del Trip Engine
// sobre MongoDB.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Trip, error)
	FindAll(ctx context.Context, filter domain.TripFilter, page, limit int) ([]domain.Trip, int64, error)
	FindByDriverID(ctx context.Context, driverID uint64) ([]domain.Trip, error)
	FindByVehicleID(ctx context.Context, vehicleID uint64) ([]domain.Trip, error)
	Update(ctx context.Context, trip *domain.Trip) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.TripStatus) error

	// Reserve es la operación atómica central del Trip Engine (spec §4.3,
	// §8 propiedad 2): en un único FindOneAndUpdate valida precondiciones
	// (viaje reservable, no es el propio conductor, sin reserva activa
	// duplicada, asientos suficientes) y aplica el descuento de asientos
	// junto con el push de la reserva. Dos requests concurrentes por los
	// últimos asientos disponibles nunca pueden sobrevender: Mongo
	// serializa las escrituras sobre el mismo documento.
	Reserve(ctx context.Context, tripID primitive.ObjectID, passengerID uint64, reservation domain.Reservation) (*domain.Trip, error)

	// UpdateReservationStatus transiciona una reserva embebida (confirm,
	// reject, cancel) y, cuando libera asientos, los devuelve al viaje en
	// la misma operación atómica.
	UpdateReservationStatus(ctx context.Context, tripID primitive.ObjectID, reservationID string, newStatus domain.ReservationStatus, releaseSeats int) (*domain.Trip, error)

	AddPickupSuggestion(ctx context.Context, tripID primitive.ObjectID, suggestion domain.PickupSuggestion, point domain.TripPickupPoint) (*domain.Trip, error)
	CountPendingSuggestions(ctx context.Context, tripID primitive.ObjectID, passengerID uint64) (int, error)
	ResolvePickupSuggestion(ctx context.Context, tripID primitive.ObjectID, suggestionID string, accept bool) (*domain.Trip, error)
}

type tripRepository struct {
	collection *mongo.Collection
}

// NewTripRepository crea una nueva instancia del repositorio de viajes.
func NewTripRepository(db *mongo.Database) TripRepository {
	return &tripRepository{collection: db.Collection("trips")}
}

func (r *tripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	if trip.PickupPoints == nil {
		trip.PickupPoints = []domain.TripPickupPoint{}
	}
	if trip.PickupSuggestions == nil {
		trip.PickupSuggestions = []domain.PickupSuggestion{}
	}
	if trip.Reservations == nil {
		trip.Reservations = []domain.Reservation{}
	}

	_, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return fmt.Errorf("error creando el viaje: %w", err)
	}
	return nil
}

func (r *tripRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var trip domain.Trip
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("error buscando el viaje: %w", err)
	}
	return &trip, nil
}

func (r *tripRepository) FindByDriverID(ctx context.Context, driverID uint64) ([]domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": driverID})
	if err != nil {
		return nil, fmt.Errorf("error buscando viajes del conductor: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []domain.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("error decodificando viajes: %w", err)
	}
	return trips, nil
}

func (r *tripRepository) FindByVehicleID(ctx context.Context, vehicleID uint64) ([]domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"vehicle_id": vehicleID})
	if err != nil {
		return nil, fmt.Errorf("error buscando viajes del vehículo: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []domain.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("error decodificando viajes: %w", err)
	}
	return trips, nil
}

func (r *tripRepository) FindAll(ctx context.Context, f domain.TripFilter, page, limit int) ([]domain.Trip, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"status": bson.M{"$in": bson.A{string(domain.TripScheduled), string(domain.TripFull)}}}

	if f.DeparturePoint != "" {
		filter["$or"] = bson.A{
			bson.M{"origin": bson.M{"$regex": f.DeparturePoint, "$options": "i"}},
			bson.M{"destination": bson.M{"$regex": f.DeparturePoint, "$options": "i"}},
		}
	}
	if f.MinSeats > 0 {
		filter["seats_available"] = bson.M{"$gte": f.MinSeats}
	}
	if f.MaxPrice != nil {
		filter["price_per_seat"] = bson.M{"$lte": *f.MaxPrice}
	}
	if f.StartTime != nil || f.EndTime != nil {
		departureFilter := bson.M{}
		if f.StartTime != nil {
			departureFilter["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			departureFilter["$lte"] = *f.EndTime
		}
		filter["departure_at"] = departureFilter
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error contando viajes: %w", err)
	}

	skip := (page - 1) * limit
	findOptions := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "departure_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("error buscando viajes: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []domain.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, 0, fmt.Errorf("error decodificando viajes: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

func (r *tripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	trip.UpdatedAt = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": trip.ID}, bson.M{"$set": trip})
	if err != nil {
		return fmt.Errorf("error actualizando el viaje: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrTripNotFound
	}
	return nil
}

func (r *tripRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.TripStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": string(status), "updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("error actualizando el estado del viaje: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrTripNotFound
	}
	return nil
}

// Reserve aplica la reserva en una única operación atómica (ver
// comentario de la interfaz). El filtro codifica todas las precondiciones
// de negocio; si alguna falla, FindOneAndUpdate no encuentra documento, se
// devuelve ErrConcurrentReservation y el llamador decide, con un FindByID
// adicional, cuál fue la causa exacta del rechazo.
func (r *tripRepository) Reserve(ctx context.Context, tripID primitive.ObjectID, passengerID uint64, reservation domain.Reservation) (*domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":             tripID,
		"driver_id":       bson.M{"$ne": passengerID},
		"status":          bson.M{"$in": bson.A{string(domain.TripScheduled), string(domain.TripFull)}},
		"seats_available": bson.M{"$gte": reservation.Seats},
		"reservations": bson.M{
			"$not": bson.M{
				"$elemMatch": bson.M{
					"passenger_id": passengerID,
					"status":       bson.M{"$in": bson.A{string(domain.ReservationPending), string(domain.ReservationConfirmed)}},
				},
			},
		},
	}

	update := bson.M{
		"$inc":  bson.M{"seats_available": -reservation.Seats},
		"$push": bson.M{"reservations": reservation},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	after := options.After
	var updated domain.Trip
	err := r.collection.FindOneAndUpdate(ctx, filter, update, &options.FindOneAndUpdateOptions{ReturnDocument: &after}).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrConcurrentReservation
		}
		return nil, fmt.Errorf("error reservando asientos: %w", err)
	}

	updated.NormalizeStatus()
	_ = r.SetStatus(ctx, tripID, updated.Status)

	return &updated, nil
}

// UpdateReservationStatus transiciona el estado de una reserva embebida
// identificándola por su ID dentro del array posicional de Mongo
// ($[elem]). Cuando releaseSeats > 0 (rechazo o cancelación) los asientos
// se devuelven en la misma operación.
func (r *tripRepository) UpdateReservationStatus(ctx context.Context, tripID primitive.ObjectID, reservationID string, newStatus domain.ReservationStatus, releaseSeats int) (*domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"reservations.$[elem].status":      string(newStatus),
			"reservations.$[elem].decision_at": &now,
			"updated_at":                       now,
		},
	}
	if releaseSeats > 0 {
		update["$inc"] = bson.M{"seats_available": releaseSeats}
	}

	arrayFilters := options.ArrayFilters{
		Filters: bson.A{bson.M{"elem.id": reservationID}},
	}
	after := options.After
	opts := &options.FindOneAndUpdateOptions{ReturnDocument: &after, ArrayFilters: &arrayFilters}

	var updated domain.Trip
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": tripID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("error actualizando la reserva: %w", err)
	}

	updated.NormalizeStatus()
	_ = r.SetStatus(ctx, tripID, updated.Status)

	return &updated, nil
}

// AddPickupSuggestion agrega, en la misma operación atómica, tanto la
// sugerencia (pickup_suggestions, status=pending) como su punto espejo en
// pickup_points (source=passenger, status=active), según spec §4.3: "On
// success the point is appended to trip.pickupPoints ... and a mirror
// entry is queued in trip.pickupSuggestions".
func (r *tripRepository) AddPickupSuggestion(ctx context.Context, tripID primitive.ObjectID, suggestion domain.PickupSuggestion, point domain.TripPickupPoint) (*domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	after := options.After
	var updated domain.Trip
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": tripID},
		bson.M{
			"$push": bson.M{"pickup_suggestions": suggestion, "pickup_points": point},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("error agregando la sugerencia: %w", err)
	}
	return &updated, nil
}

// CountPendingSuggestions cuenta las sugerencias pendientes de un
// pasajero en un viaje, usado para aplicar el tope de 3 (spec §4.3
// "Pickup suggestions").
func (r *tripRepository) CountPendingSuggestions(ctx context.Context, tripID primitive.ObjectID, passengerID uint64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"_id": tripID}}},
		bson.D{{Key: "$project", Value: bson.M{
			"count": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$pickup_suggestions",
				"as":    "s",
				"cond": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$$s.passenger_id", passengerID}},
					bson.M{"$eq": bson.A{"$$s.status", string(domain.SuggestionPending)}},
				}},
			}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("error contando sugerencias: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Count int `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, fmt.Errorf("error decodificando el conteo: %w", err)
		}
	}
	return result.Count, nil
}

func (r *tripRepository) ResolvePickupSuggestion(ctx context.Context, tripID primitive.ObjectID, suggestionID string, accept bool) (*domain.Trip, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	newStatus := domain.SuggestionRejected
	if accept {
		newStatus = domain.SuggestionAccepted
	}

	arrayFilters := options.ArrayFilters{Filters: bson.A{bson.M{"elem.id": suggestionID}}}
	after := options.After
	opts := &options.FindOneAndUpdateOptions{ReturnDocument: &after, ArrayFilters: &arrayFilters}

	var updated domain.Trip
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": tripID},
		bson.M{"$set": bson.M{"pickup_suggestions.$[elem].status": string(newStatus), "updated_at": time.Now()}},
		opts,
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("error resolviendo la sugerencia: %w", err)
	}
	return &updated, nil
}
