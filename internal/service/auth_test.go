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

// statefulUserRepository, a diferencia del doble de solo-lectura de
// trip_test.go, persiste de verdad el usuario creado para poder ejercer el
// ciclo register → switch-role sobre el mismo registro.
type statefulUserRepository struct {
	users  map[uint64]*dao.UserDAO
	byMail map[string]uint64
	nextID uint64
}

func newStatefulUserRepository() *statefulUserRepository {
	return &statefulUserRepository{users: map[uint64]*dao.UserDAO{}, byMail: map[string]uint64{}}
}

func (r *statefulUserRepository) Create(u *dao.UserDAO) error {
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	r.byMail[u.Email] = u.ID
	return nil
}
func (r *statefulUserRepository) FindByID(id uint64) (*dao.UserDAO, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}
func (r *statefulUserRepository) FindByEmail(email string) (*dao.UserDAO, error) {
	id, ok := r.byMail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.users[id], nil
}
func (r *statefulUserRepository) Update(u *dao.UserDAO) error { r.users[u.ID] = u; return nil }
func (r *statefulUserRepository) UpdatePassword(userID uint64, hash string) error {
	r.users[userID].PasswordHash = hash
	return nil
}
func (r *statefulUserRepository) SetActiveVehicle(userID uint64, vehicleID *uint64) error {
	r.users[userID].ActiveVehicleID = vehicleID
	return nil
}
func (r *statefulUserRepository) SetRolesAndActiveRole(userID uint64, roles []string, activeRole string) error {
	u := r.users[userID]
	joined := ""
	for i, role := range roles {
		if i > 0 {
			joined += ","
		}
		joined += role
	}
	u.Roles = joined
	u.ActiveRole = activeRole
	return nil
}

// statefulVehicleOwnerRepository persiste vehículos ya verificados, para que
// SwitchRole encuentre un vehículo usable sin depender del flujo completo de
// revisión del VehicleService.
type statefulVehicleOwnerRepository struct {
	vehicles map[uint64]*dao.VehicleDAO
	nextID   uint64
}

func (r *statefulVehicleOwnerRepository) Create(v *dao.VehicleDAO) error {
	r.nextID++
	v.ID = r.nextID
	v.Status = string(domain.VehicleVerified)
	r.vehicles[v.ID] = v
	return nil
}
func (r *statefulVehicleOwnerRepository) FindByID(id uint64) (*dao.VehicleDAO, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}
func (r *statefulVehicleOwnerRepository) FindByOwner(ownerID uint64) ([]*dao.VehicleDAO, error) {
	var out []*dao.VehicleDAO
	for _, v := range r.vehicles {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	return out, nil
}
func (r *statefulVehicleOwnerRepository) FindByPlate(plate string) (*dao.VehicleDAO, error) {
	return nil, repository.ErrNotFound
}
func (r *statefulVehicleOwnerRepository) Update(v *dao.VehicleDAO) error { return nil }
func (r *statefulVehicleOwnerRepository) Delete(id uint64) error        { return nil }
func (r *statefulVehicleOwnerRepository) ReplacePickupPoints(vehicleID uint64, points []dao.PickupPointDAO) error {
	return nil
}

type fakePasswordResetRepository struct{}

func (f *fakePasswordResetRepository) IssueToken(userID uint64, tokenHash string, expiresAt time.Time) error {
	return nil
}
func (f *fakePasswordResetRepository) FindValidByHash(tokenHash string) (*dao.PasswordResetDAO, error) {
	return nil, repository.ErrNotFound
}
func (f *fakePasswordResetRepository) MarkUsed(id uint64) error { return nil }

func newTestAuthService() (AuthService, *statefulUserRepository) {
	cfg := &config.Config{
		InstitutionalDomain: "unisabana.edu.co",
		JWTSecret:           "test-secret",
		JWTTTLHours:         24,
		ResetTTLMin:         15,
	}
	userRepo := newStatefulUserRepository()
	vehicleRepo := &statefulVehicleOwnerRepository{vehicles: map[uint64]*dao.VehicleDAO{}}
	svc := NewAuthService(cfg, userRepo, vehicleRepo, &fakePasswordResetRepository{}, &fakeEmailService{}, NewSessionRevoker())
	return svc, userRepo
}

func registerDriverRequest(email string) domain.RegisterRequest {
	future := time.Now().Add(365 * 24 * time.Hour)
	return domain.RegisterRequest{
		Email: email, Password: "password123",
		FirstName: "A", LastName: "B", UniversityID: "1", Phone: "123",
		Role: domain.RoleDriver,
		Vehicle: &domain.VehicleRequest{
			Plate: "ABC123", Brand: "Toyota", Model: "Corolla", Capacity: 4,
			SoatExpiration: future, LicenseNumber: "LIC-1", LicenseExpiration: future,
		},
	}
}

func TestRegister_DriverAlwaysGetsPassengerRoleToo(t *testing.T) {
	svc, _ := newTestAuthService()

	user, err := svc.Register(registerDriverRequest("driver@unisabana.edu.co"))
	require.NoError(t, err)

	assert.Contains(t, user.Roles, domain.RolePassenger)
	assert.Contains(t, user.Roles, domain.RoleDriver)
	assert.Equal(t, domain.RoleDriver, user.ActiveRole)
}

func TestRegister_PassengerOnlyGetsPassengerRole(t *testing.T) {
	svc, _ := newTestAuthService()

	user, err := svc.Register(domain.RegisterRequest{
		Email: "passenger@unisabana.edu.co", Password: "password123",
		FirstName: "A", LastName: "B", UniversityID: "1", Phone: "123",
		Role: domain.RolePassenger,
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.Role{domain.RolePassenger}, user.Roles)
}

// TestSwitchRole_DriverRegisteredAccountCanSwitchBackToPassenger cubre la
// regresión señalada en revisión: antes de incluir siempre el rol passenger
// en Register, un usuario registrado como driver no podía volver nunca a
// passenger (ErrRoleNotEnabled), porque "passenger" no era miembro de su
// conjunto de roles.
func TestSwitchRole_DriverRegisteredAccountCanSwitchBackToPassenger(t *testing.T) {
	svc, _ := newTestAuthService()

	user, err := svc.Register(registerDriverRequest("driver2@unisabana.edu.co"))
	require.NoError(t, err)

	_, err = svc.SwitchRole(user.ID, domain.SwitchRoleRequest{Role: domain.RolePassenger})
	assert.NoError(t, err)
}
