package service

import (
	"testing"
	"time"

	"github.com/unisabana/wheels-core/internal/config"
	"github.com/unisabana/wheels-core/internal/dao"
	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statefulVehicleRepository, a diferencia del doble usado en trip_test.go,
// persiste de verdad los puntos de recogida para poder ejercer el ciclo
// add/update/delete sobre el mismo vehículo.
type statefulVehicleRepository struct {
	vehicles map[uint64]*dao.VehicleDAO
	points   map[uint64][]dao.PickupPointDAO
	nextID   uint64
}

func newStatefulVehicleRepository() *statefulVehicleRepository {
	return &statefulVehicleRepository{
		vehicles: map[uint64]*dao.VehicleDAO{},
		points:   map[uint64][]dao.PickupPointDAO{},
	}
}

func (r *statefulVehicleRepository) Create(v *dao.VehicleDAO) error {
	r.nextID++
	v.ID = r.nextID
	r.vehicles[v.ID] = v
	return nil
}

func (r *statefulVehicleRepository) FindByID(id uint64) (*dao.VehicleDAO, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	cp.PickupPoints = r.points[id]
	return &cp, nil
}

func (r *statefulVehicleRepository) FindByOwner(ownerID uint64) ([]*dao.VehicleDAO, error) {
	var out []*dao.VehicleDAO
	for _, v := range r.vehicles {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *statefulVehicleRepository) FindByPlate(plate string) (*dao.VehicleDAO, error) {
	for _, v := range r.vehicles {
		if v.Plate == plate {
			return v, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *statefulVehicleRepository) Update(v *dao.VehicleDAO) error {
	r.vehicles[v.ID] = v
	return nil
}

func (r *statefulVehicleRepository) Delete(id uint64) error {
	delete(r.vehicles, id)
	delete(r.points, id)
	return nil
}

func (r *statefulVehicleRepository) ReplacePickupPoints(vehicleID uint64, points []dao.PickupPointDAO) error {
	out := make([]dao.PickupPointDAO, len(points))
	for i, p := range points {
		r.nextID++
		p.ID = r.nextID
		p.VehicleID = vehicleID
		out[i] = p
	}
	r.points[vehicleID] = out
	return nil
}

func newTestVehicleService() (VehicleService, *statefulVehicleRepository, *fakeUserRepository) {
	vehicleRepo := newStatefulVehicleRepository()
	userRepo := &fakeUserRepository{users: map[uint64]*dao.UserDAO{
		100: {ID: 100, Roles: "passenger", ActiveRole: "passenger"},
	}}
	cfg := &config.Config{VehicleMinCapacity: 1, VehicleMaxCapacity: 8}
	return NewVehicleService(cfg, vehicleRepo, userRepo), vehicleRepo, userRepo
}

func vehicleCreateRequest() domain.VehicleRequest {
	future := time.Now().Add(365 * 24 * time.Hour)
	return domain.VehicleRequest{
		Plate: "ABC123", Brand: "Toyota", Model: "Corolla", Capacity: 4,
		SoatPhotoURL: "soat.jpg", SoatExpiration: future,
		LicenseNumber: "LIC-1", LicensePhotoURL: "license.jpg", LicenseExpiration: future,
	}
}

func TestAddPickupPoint_ThenListHasIt(t *testing.T) {
	svc, _, _ := newTestVehicleService()
	vehicle, err := svc.Create(100, vehicleCreateRequest())
	require.NoError(t, err)

	updated, err := svc.AddPickupPoint(100, vehicle.ID, domain.PickupPointRequest{
		Name: "Portal Norte", Lat: 4.76, Lng: -74.04,
	})
	require.NoError(t, err)
	require.Len(t, updated.PickupPoints, 1)
	assert.Equal(t, "Portal Norte", updated.PickupPoints[0].Name)
}

func TestUpdatePickupPoint_NotFound(t *testing.T) {
	svc, _, _ := newTestVehicleService()
	vehicle, err := svc.Create(100, vehicleCreateRequest())
	require.NoError(t, err)

	_, err = svc.UpdatePickupPoint(100, vehicle.ID, "999", domain.PickupPointRequest{
		Name: "X", Lat: 0, Lng: 0,
	})
	assert.Equal(t, domain.ErrNotFound, err)
}

func TestAddThenDeletePickupPoint(t *testing.T) {
	svc, _, _ := newTestVehicleService()
	vehicle, err := svc.Create(100, vehicleCreateRequest())
	require.NoError(t, err)

	added, err := svc.AddPickupPoint(100, vehicle.ID, domain.PickupPointRequest{
		Name: "Portal Norte", Lat: 4.76, Lng: -74.04,
	})
	require.NoError(t, err)
	require.Len(t, added.PickupPoints, 1)
	pointID := added.PickupPoints[0].ID

	deleted, err := svc.DeletePickupPoint(100, vehicle.ID, pointID)
	require.NoError(t, err)
	assert.Empty(t, deleted.PickupPoints)
}

func TestValidate_RejectsMalformedPlate(t *testing.T) {
	svc, _, _ := newTestVehicleService()
	req := vehicleCreateRequest()
	req.Plate = "AB1234"

	err := svc.Validate(req)
	assert.Error(t, err)
}

func TestValidate_AcceptsWellFormedVehicle(t *testing.T) {
	svc, _, _ := newTestVehicleService()
	err := svc.Validate(vehicleCreateRequest())
	assert.NoError(t, err)
}
