package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/unisabana/wheels-core/internal/dao"
	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeTripRepository es un doble de prueba en memoria para TripRepository.
// A diferencia de un mock basado en expectativas, modela el estado real
// del documento para poder ejercer condiciones de carrera en Reserve.
type fakeTripRepository struct {
	mu    sync.Mutex
	trips map[primitive.ObjectID]*domain.Trip
}

func newFakeTripRepository() *fakeTripRepository {
	return &fakeTripRepository{trips: map[primitive.ObjectID]*domain.Trip{}}
}

func (f *fakeTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if trip.ID.IsZero() {
		trip.ID = primitive.NewObjectID()
	}
	cp := *trip
	f.trips[trip.ID] = &cp
	return nil
}

func (f *fakeTripRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok {
		return nil, repository.ErrTripNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTripRepository) FindAll(ctx context.Context, filter domain.TripFilter, page, limit int) ([]domain.Trip, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Trip
	for _, t := range f.trips {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTripRepository) FindByDriverID(ctx context.Context, driverID uint64) ([]domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Trip
	for _, t := range f.trips {
		if t.DriverID == driverID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTripRepository) FindByVehicleID(ctx context.Context, vehicleID uint64) ([]domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Trip
	for _, t := range f.trips {
		if t.VehicleID == vehicleID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.trips[trip.ID]; !ok {
		return repository.ErrTripNotFound
	}
	cp := *trip
	f.trips[trip.ID] = &cp
	return nil
}

func (f *fakeTripRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.TripStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok {
		return repository.ErrTripNotFound
	}
	t.Status = status
	return nil
}

// Reserve reproduce, bajo un mutex del doble de prueba, la misma
// semántica atómica y "todo o nada" que el FindOneAndUpdate real: valida
// todas las precondiciones y aplica el cambio en un único paso protegido.
func (f *fakeTripRepository) Reserve(ctx context.Context, tripID primitive.ObjectID, passengerID uint64, reservation domain.Reservation) (*domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.trips[tripID]
	if !ok {
		return nil, repository.ErrTripNotFound
	}
	if t.DriverID == passengerID {
		return nil, repository.ErrConcurrentReservation
	}
	if t.Status != domain.TripScheduled && t.Status != domain.TripFull {
		return nil, repository.ErrConcurrentReservation
	}
	if t.SeatsAvailable < reservation.Seats {
		return nil, repository.ErrConcurrentReservation
	}
	for _, r := range t.Reservations {
		if r.PassengerID == passengerID && r.Status.IsActive() {
			return nil, repository.ErrConcurrentReservation
		}
	}

	t.SeatsAvailable -= reservation.Seats
	t.Reservations = append(t.Reservations, reservation)
	t.NormalizeStatus()

	cp := *t
	return &cp, nil
}

func (f *fakeTripRepository) UpdateReservationStatus(ctx context.Context, tripID primitive.ObjectID, reservationID string, newStatus domain.ReservationStatus, releaseSeats int) (*domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok {
		return nil, repository.ErrTripNotFound
	}
	for i := range t.Reservations {
		if t.Reservations[i].ID == reservationID {
			t.Reservations[i].Status = newStatus
			break
		}
	}
	t.SeatsAvailable += releaseSeats
	t.NormalizeStatus()
	cp := *t
	return &cp, nil
}

func (f *fakeTripRepository) AddPickupSuggestion(ctx context.Context, tripID primitive.ObjectID, suggestion domain.PickupSuggestion, point domain.TripPickupPoint) (*domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok {
		return nil, repository.ErrTripNotFound
	}
	t.PickupSuggestions = append(t.PickupSuggestions, suggestion)
	t.PickupPoints = append(t.PickupPoints, point)
	cp := *t
	return &cp, nil
}

func (f *fakeTripRepository) CountPendingSuggestions(ctx context.Context, tripID primitive.ObjectID, passengerID uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok {
		return 0, repository.ErrTripNotFound
	}
	count := 0
	for _, s := range t.PickupSuggestions {
		if s.PassengerID == passengerID && s.Status == domain.SuggestionPending {
			count++
		}
	}
	return count, nil
}

func (f *fakeTripRepository) ResolvePickupSuggestion(ctx context.Context, tripID primitive.ObjectID, suggestionID string, accept bool) (*domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok {
		return nil, repository.ErrTripNotFound
	}
	for i := range t.PickupSuggestions {
		if t.PickupSuggestions[i].ID == suggestionID {
			if accept {
				t.PickupSuggestions[i].Status = domain.SuggestionAccepted
			} else {
				t.PickupSuggestions[i].Status = domain.SuggestionRejected
			}
		}
	}
	cp := *t
	return &cp, nil
}

// fakeVehicleRepository implementa solo lo que TripService necesita de
// VehicleRepository para estas pruebas.
type fakeVehicleRepository struct {
	vehicles map[uint64]*dao.VehicleDAO
}

func (f *fakeVehicleRepository) Create(v *dao.VehicleDAO) error { return nil }
func (f *fakeVehicleRepository) FindByID(id uint64) (*dao.VehicleDAO, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}
func (f *fakeVehicleRepository) FindByOwner(ownerID uint64) ([]*dao.VehicleDAO, error) {
	return nil, nil
}
func (f *fakeVehicleRepository) FindByPlate(plate string) (*dao.VehicleDAO, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeVehicleRepository) Update(v *dao.VehicleDAO) error { return nil }
func (f *fakeVehicleRepository) Delete(id uint64) error         { return nil }
func (f *fakeVehicleRepository) ReplacePickupPoints(vehicleID uint64, points []dao.PickupPointDAO) error {
	return nil
}

// fakeUserRepository y fakeRatingRepository son dobles mínimos, solo lo
// que usa TripService (notificación de cancelación y reputación).
type fakeUserRepository struct{ users map[uint64]*dao.UserDAO }

func (f *fakeUserRepository) Create(u *dao.UserDAO) error { return nil }
func (f *fakeUserRepository) FindByID(id uint64) (*dao.UserDAO, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}
func (f *fakeUserRepository) FindByEmail(email string) (*dao.UserDAO, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeUserRepository) Update(u *dao.UserDAO) error                     { return nil }
func (f *fakeUserRepository) UpdatePassword(userID uint64, hash string) error { return nil }
func (f *fakeUserRepository) SetActiveVehicle(userID uint64, vehicleID *uint64) error {
	return nil
}
func (f *fakeUserRepository) SetRolesAndActiveRole(userID uint64, roles []string, activeRole string) error {
	return nil
}

type fakeRatingRepository struct{}

func (f *fakeRatingRepository) DriverAverage(driverID uint64) (float64, int64, error) {
	return 4.5, 10, nil
}

type fakeEmailService struct {
	mu              sync.Mutex
	cancelledEmails []string
}

func (f *fakeEmailService) SendWelcomeEmail(toEmail, firstName string)    {}
func (f *fakeEmailService) SendPasswordResetEmail(toEmail, token string) {}
func (f *fakeEmailService) SendTripCancelledEmail(toEmail, tripID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelledEmails = append(f.cancelledEmails, toEmail)
}

func newTestTripService(tripRepo repository.TripRepository, vehicles map[uint64]*dao.VehicleDAO, users map[uint64]*dao.UserDAO) (TripService, *fakeEmailService) {
	emailSvc := &fakeEmailService{}
	svc := NewTripService(
		tripRepo,
		&fakeVehicleRepository{vehicles: vehicles},
		&fakeUserRepository{users: users},
		&fakeRatingRepository{},
		emailSvc,
	)
	return svc, emailSvc
}

func verifiedVehicle(id, ownerID uint64, capacity int) *dao.VehicleDAO {
	future := time.Now().Add(365 * 24 * time.Hour)
	return &dao.VehicleDAO{
		ID: id, OwnerID: ownerID, Plate: "ABC123", Capacity: capacity,
		Status: string(domain.VehicleVerified),
		SoatExpiration: future, LicenseExpiration: future,
	}
}

func TestCreateTrip_Success(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	req := domain.CreateTripRequest{
		VehicleID: 1, Origin: "Chía", Destination: "Campus",
		DepartureAt: time.Now().Add(2 * time.Hour), SeatsTotal: 3, PricePerSeat: 5000,
	}

	trip, err := svc.Create(100, req)

	require.NoError(t, err)
	assert.Equal(t, 3, trip.SeatsAvailable)
	assert.Equal(t, domain.TripScheduled, trip.Status)
}

func TestCreateTrip_NotOwner(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	req := domain.CreateTripRequest{VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 2}

	_, err := svc.Create(999, req)

	assert.Equal(t, domain.ErrForbidden, err)
}

func TestCreateTrip_UnverifiedVehicle(t *testing.T) {
	repo := newFakeTripRepository()
	v := verifiedVehicle(1, 100, 4)
	v.Status = string(domain.VehiclePending)
	svc, _ := newTestTripService(repo, map[uint64]*dao.VehicleDAO{1: v}, nil)

	req := domain.CreateTripRequest{VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 2}

	_, err := svc.Create(100, req)

	assert.Equal(t, domain.ErrDocumentsInvalid, err)
}

func TestReserve_OwnTrip(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)
	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 3,
	})
	require.NoError(t, err)

	_, err = svc.Reserve(100, trip.ID.Hex(), domain.CreateReservationRequest{
		Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
	})

	assert.Equal(t, domain.ErrOwnTrip, err)
}

func TestReserve_InsufficientSeats(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)
	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 1,
	})
	require.NoError(t, err)

	_, err = svc.Reserve(200, trip.ID.Hex(), domain.CreateReservationRequest{
		Seats: 2, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
	})

	assert.Equal(t, domain.ErrInsufficientSeats, err)
}

func TestReserve_DuplicateReservation(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)
	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	req := domain.CreateReservationRequest{Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{}}
	_, err = svc.Reserve(200, trip.ID.Hex(), req)
	require.NoError(t, err)

	_, err = svc.Reserve(200, trip.ID.Hex(), req)
	assert.Equal(t, domain.ErrDuplicateReservation, err)
}

// TestReserve_NoOversell ejerce la propiedad central del Trip Engine
// (spec §8, propiedad 2): con un solo asiento disponible, N goroutines
// compitiendo por reservarlo nunca deben lograr que más de una tenga
// éxito, sin importar el orden de llegada.
func TestReserve_NoOversell(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)
	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 1,
	})
	require.NoError(t, err)

	const attempts = 20
	var wg sync.WaitGroup
	successes := make([]bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Reserve(uint64(1000+i), trip.ID.Hex(), domain.CreateReservationRequest{
				Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
			})
			successes[i] = err == nil
		}(i)
	}
	wg.Wait()

	successCount := 0
	for _, ok := range successes {
		if ok {
			successCount++
		}
	}
	assert.Equal(t, 1, successCount)

	final, err := repo.FindByID(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.SeatsAvailable)
	assert.Equal(t, domain.TripFull, final.Status)
}

func TestCancel_NotifiesActivePassengers(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	users := map[uint64]*dao.UserDAO{200: {ID: 200, Email: "passenger@unisabana.edu.co"}}
	svc, emailSvc := newTestTripService(repo, vehicles, users)

	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	_, err = svc.Reserve(200, trip.ID.Hex(), domain.CreateReservationRequest{
		Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
	})
	require.NoError(t, err)

	err = svc.Cancel(100, trip.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, []string{"passenger@unisabana.edu.co"}, emailSvc.cancelledEmails)
}

func TestProposePickupSuggestion_TooMany(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	req := domain.CreatePickupSuggestionRequest{Name: "Parada", Lat: 4.7, Lng: -74.1}
	for i := 0; i < 3; i++ {
		_, err := svc.ProposePickupSuggestion(200, trip.ID.Hex(), req)
		require.NoError(t, err)
	}

	_, err = svc.ProposePickupSuggestion(200, trip.ID.Hex(), req)
	assert.Equal(t, domain.ErrTooManySuggestions, err)
}

func TestProposePickupSuggestion_MirrorsPickupPoint(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	req := domain.CreatePickupSuggestionRequest{Name: "Portal 80", Lat: 4.7, Lng: -74.1}
	updated, err := svc.ProposePickupSuggestion(200, trip.ID.Hex(), req)
	require.NoError(t, err)

	require.Len(t, updated.PickupSuggestions, 1)
	require.Len(t, updated.PickupPoints, 1)
	point := updated.PickupPoints[0]
	assert.Equal(t, updated.PickupSuggestions[0].ID, point.ID)
	assert.Equal(t, "Portal 80", point.Name)
	assert.Equal(t, domain.PickupFromPassenger, point.Source)
	assert.Equal(t, domain.PickupActive, point.Status)
}

func TestListPassengers_OnlyActiveReservations(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	_, err = svc.Reserve(200, trip.ID.Hex(), domain.CreateReservationRequest{
		Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
	})
	require.NoError(t, err)
	trip, err = svc.Reserve(300, trip.ID.Hex(), domain.CreateReservationRequest{
		Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
	})
	require.NoError(t, err)

	rejected := trip.Reservations[1]
	_, err = svc.DecideReservation(100, trip.ID.Hex(), rejected.ID, false)
	require.NoError(t, err)

	passengers, err := svc.ListPassengers(100, trip.ID.Hex())
	require.NoError(t, err)
	require.Len(t, passengers, 1)
	assert.Equal(t, uint64(200), passengers[0].PassengerID)
}

func TestListPassengers_NotOwner(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	_, err = svc.ListPassengers(999, trip.ID.Hex())
	assert.Equal(t, domain.ErrForbidden, err)
}

func TestCancelReservation_ByPassenger(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	trip, err = svc.Reserve(200, trip.ID.Hex(), domain.CreateReservationRequest{
		Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
	})
	require.NoError(t, err)

	updated, err := svc.CancelReservation(200, trip.ID.Hex(), trip.Reservations[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, updated.Reservations[0].Status)
	assert.Equal(t, 4, updated.SeatsAvailable)
}

func TestCancelReservation_ByDriver(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	trip, err = svc.Reserve(200, trip.ID.Hex(), domain.CreateReservationRequest{
		Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
	})
	require.NoError(t, err)
	_, err = svc.DecideReservation(100, trip.ID.Hex(), trip.Reservations[0].ID, true)
	require.NoError(t, err)

	// El conductor cancela la reserva confirmada de su propio viaje.
	updated, err := svc.CancelReservation(100, trip.ID.Hex(), trip.Reservations[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, updated.Reservations[0].Status)
	assert.Equal(t, 4, updated.SeatsAvailable)
}

func TestCancelReservation_ForbiddenForStranger(t *testing.T) {
	repo := newFakeTripRepository()
	vehicles := map[uint64]*dao.VehicleDAO{1: verifiedVehicle(1, 100, 4)}
	svc, _ := newTestTripService(repo, vehicles, nil)

	trip, err := svc.Create(100, domain.CreateTripRequest{
		VehicleID: 1, DepartureAt: time.Now().Add(time.Hour), SeatsTotal: 4,
	})
	require.NoError(t, err)

	trip, err = svc.Reserve(200, trip.ID.Hex(), domain.CreateReservationRequest{
		Seats: 1, PaymentMethod: domain.PaymentCash, PickupPoints: []domain.PickupPoint{},
	})
	require.NoError(t, err)

	_, err = svc.CancelReservation(999, trip.ID.Hex(), trip.Reservations[0].ID)
	assert.Equal(t, domain.ErrForbidden, err)
}
