package service

import (
	"strings"
	"time"

	"github.com/unisabana/wheels-core/internal/config"
	"github.com/unisabana/wheels-core/internal/dao"
	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/repository"
)

// VehicleService gestiona el ciclo de vida de los vehículos: alta,
// edición, activación y el catálogo de puntos de recogida (spec §4.2).
type VehicleService interface {
	Create(ownerID uint64, req domain.VehicleRequest) (*domain.Vehicle, error)
	Get(id uint64) (*domain.Vehicle, error)
	ListByOwner(ownerID uint64) ([]*domain.Vehicle, error)
	Update(ownerID, id uint64, req domain.VehicleUpdateRequest) (*domain.Vehicle, error)
	Delete(ownerID, id uint64, activeTripChecker ActiveTripChecker) error
	RequestReview(ownerID, id uint64) (*domain.Vehicle, error)
	Activate(ownerID, id uint64) (*domain.Vehicle, error)

	ReplacePickupPoints(ownerID, id uint64, points []domain.PickupPointRequest) (*domain.Vehicle, error)
	AddPickupPoint(ownerID, id uint64, point domain.PickupPointRequest) (*domain.Vehicle, error)
	UpdatePickupPoint(ownerID, id uint64, pointID string, point domain.PickupPointRequest) (*domain.Vehicle, error)
	DeletePickupPoint(ownerID, id uint64, pointID string) (*domain.Vehicle, error)

	// Validate corre las mismas comprobaciones que Create sin persistir
	// nada (spec §6 "POST /vehicles/validate").
	Validate(req domain.VehicleRequest) error
}

// ActiveTripChecker indica si un vehículo tiene viajes futuros activos; lo
// implementa TripService para evitar un import cycle entre paquetes.
type ActiveTripChecker func(vehicleID uint64) (bool, error)

type vehicleService struct {
	cfg         *config.Config
	vehicleRepo repository.VehicleRepository
	userRepo    repository.UserRepository
}

// NewVehicleService crea una nueva instancia del servicio de vehículos.
func NewVehicleService(cfg *config.Config, vehicleRepo repository.VehicleRepository, userRepo repository.UserRepository) VehicleService {
	return &vehicleService{cfg: cfg, vehicleRepo: vehicleRepo, userRepo: userRepo}
}

func (s *vehicleService) Create(ownerID uint64, req domain.VehicleRequest) (*domain.Vehicle, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	plate := strings.ToUpper(strings.TrimSpace(req.Plate))
	if _, err := s.vehicleRepo.FindByPlate(plate); err == nil {
		return nil, domain.ErrDuplicatePlate
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	vehicleDAO := &dao.VehicleDAO{
		OwnerID:           ownerID,
		Plate:             plate,
		Brand:             req.Brand,
		Model:             req.Model,
		Capacity:          req.Capacity,
		Year:              req.Year,
		Color:             req.Color,
		VehiclePhotoURL:   req.VehiclePhotoURL,
		SoatPhotoURL:      req.SoatPhotoURL,
		LicensePhotoURL:   req.LicensePhotoURL,
		SoatExpiration:    req.SoatExpiration,
		LicenseNumber:     req.LicenseNumber,
		LicenseExpiration: req.LicenseExpiration,
		Status:            string(domain.VehiclePending),
		StatusUpdatedAt:   time.Now(),
	}

	if err := s.vehicleRepo.Create(vehicleDAO); err != nil {
		return nil, err
	}

	if len(req.PickupPoints) > 0 {
		points := toPickupPointDAOs(vehicleDAO.ID, req.PickupPoints)
		if err := s.vehicleRepo.ReplacePickupPoints(vehicleDAO.ID, points); err != nil {
			return nil, err
		}
	}

	// Registrar un vehículo habilita el rol driver y, si el dueño no tenía
	// vehículo activo, adopta este (spec §4.2 "Create").
	if err := s.grantDriverCapability(ownerID, vehicleDAO.ID); err != nil {
		return nil, err
	}

	return s.Get(vehicleDAO.ID)
}

func (s *vehicleService) grantDriverCapability(ownerID, vehicleID uint64) error {
	userDAO, err := s.userRepo.FindByID(ownerID)
	if err != nil {
		return err
	}

	roles := splitRoles(userDAO.Roles)
	hasDriver := false
	for _, r := range roles {
		if r == string(domain.RoleDriver) {
			hasDriver = true
			break
		}
	}
	if !hasDriver {
		roles = append(roles, string(domain.RoleDriver))
		if err := s.userRepo.SetRolesAndActiveRole(ownerID, roles, userDAO.ActiveRole); err != nil {
			return err
		}
	}

	if userDAO.ActiveVehicleID == nil {
		if err := s.userRepo.SetActiveVehicle(ownerID, &vehicleID); err != nil {
			return err
		}
	}
	return nil
}

func (s *vehicleService) validateCreate(req domain.VehicleRequest) error {
	plate := strings.ToUpper(strings.TrimSpace(req.Plate))
	if !domain.MatchesPlateFormat(plate) {
		return domain.ErrValidation.WithMessage("la placa no cumple el formato esperado")
	}
	if req.Capacity < s.cfg.VehicleMinCapacity || req.Capacity > s.cfg.VehicleMaxCapacity {
		return domain.ErrValidation.WithMessage("la capacidad del vehículo está fuera del rango permitido")
	}
	return nil
}

func (s *vehicleService) Get(id uint64) (*domain.Vehicle, error) {
	vehicleDAO, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}
	return toDomainVehicle(vehicleDAO), nil
}

func (s *vehicleService) ListByOwner(ownerID uint64) ([]*domain.Vehicle, error) {
	vehicleDAOs, err := s.vehicleRepo.FindByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	vehicles := make([]*domain.Vehicle, len(vehicleDAOs))
	for i, v := range vehicleDAOs {
		vehicles[i] = toDomainVehicle(v)
	}
	return vehicles, nil
}

// Update aplica los campos presentes en req. Tocar cualquier campo
// material (placa, documentos, etc.) reinicia el estado a pending, sin
// importar el estado previo (spec §4.2 "Update").
func (s *vehicleService) Update(ownerID, id uint64, req domain.VehicleUpdateRequest) (*domain.Vehicle, error) {
	vehicleDAO, err := s.mustOwn(ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Plate != nil {
		plate := strings.ToUpper(strings.TrimSpace(*req.Plate))
		if !domain.MatchesPlateFormat(plate) {
			return nil, domain.ErrValidation.WithMessage("la placa no cumple el formato esperado")
		}
		if plate != vehicleDAO.Plate {
			if _, err := s.vehicleRepo.FindByPlate(plate); err == nil {
				return nil, domain.ErrDuplicatePlate
			} else if !repository.IsNotFound(err) {
				return nil, err
			}
		}
		vehicleDAO.Plate = plate
	}
	if req.Brand != nil {
		vehicleDAO.Brand = *req.Brand
	}
	if req.Model != nil {
		vehicleDAO.Model = *req.Model
	}
	if req.Capacity != nil {
		if *req.Capacity < s.cfg.VehicleMinCapacity || *req.Capacity > s.cfg.VehicleMaxCapacity {
			return nil, domain.ErrValidation.WithMessage("la capacidad del vehículo está fuera del rango permitido")
		}
		vehicleDAO.Capacity = *req.Capacity
	}
	if req.Year != nil {
		vehicleDAO.Year = req.Year
	}
	if req.Color != nil {
		vehicleDAO.Color = *req.Color
	}
	if req.VehiclePhotoURL != nil {
		vehicleDAO.VehiclePhotoURL = *req.VehiclePhotoURL
	}
	if req.SoatPhotoURL != nil {
		vehicleDAO.SoatPhotoURL = *req.SoatPhotoURL
	}
	if req.SoatExpiration != nil {
		vehicleDAO.SoatExpiration = *req.SoatExpiration
	}
	if req.LicenseNumber != nil {
		vehicleDAO.LicenseNumber = *req.LicenseNumber
	}
	if req.LicensePhotoURL != nil {
		vehicleDAO.LicensePhotoURL = *req.LicensePhotoURL
	}
	if req.LicenseExpiration != nil {
		vehicleDAO.LicenseExpiration = *req.LicenseExpiration
	}

	if req.IsMaterial() {
		vehicleDAO.Status = string(domain.VehiclePending)
		vehicleDAO.StatusUpdatedAt = time.Now()
		vehicleDAO.ReviewedAt = nil
		vehicleDAO.ReviewedBy = nil
	}

	if err := s.vehicleRepo.Update(vehicleDAO); err != nil {
		return nil, err
	}

	if req.PickupPoints != nil {
		points := toPickupPointDAOs(vehicleDAO.ID, req.PickupPoints)
		if err := s.vehicleRepo.ReplacePickupPoints(vehicleDAO.ID, points); err != nil {
			return nil, err
		}
	}

	return s.Get(vehicleDAO.ID)
}

// Delete elimina el vehículo, a menos que tenga viajes futuros activos
// (spec §4.2 "Delete"): esa verificación depende del Trip Engine, por eso
// recibe un ActiveTripChecker inyectado por el llamador. Tras eliminar,
// recalcula la capacidad de conducir del dueño: si no le quedan
// vehículos, pierde el rol driver y cae a passenger; si le quedan, el
// vehículo activo se reasigna al primero con documentos vigentes (o al
// más antiguo si ninguno los tiene).
func (s *vehicleService) Delete(ownerID, id uint64, activeTripChecker ActiveTripChecker) error {
	if _, err := s.mustOwn(ownerID, id); err != nil {
		return err
	}
	if activeTripChecker != nil {
		hasActive, err := activeTripChecker(id)
		if err != nil {
			return err
		}
		if hasActive {
			return domain.ErrBlockedByActiveTrips
		}
	}
	if err := s.vehicleRepo.Delete(id); err != nil {
		return err
	}
	return s.recomputeDriverCapability(ownerID)
}

func (s *vehicleService) recomputeDriverCapability(ownerID uint64) error {
	remaining, err := s.vehicleRepo.FindByOwner(ownerID)
	if err != nil {
		return err
	}
	userDAO, err := s.userRepo.FindByID(ownerID)
	if err != nil {
		return err
	}

	if len(remaining) == 0 {
		roles := make([]string, 0, 1)
		for _, r := range splitRoles(userDAO.Roles) {
			if r != string(domain.RoleDriver) {
				roles = append(roles, r)
			}
		}
		if err := s.userRepo.SetRolesAndActiveRole(ownerID, roles, string(domain.RolePassenger)); err != nil {
			return err
		}
		return s.userRepo.SetActiveVehicle(ownerID, nil)
	}

	next := remaining[0]
	now := time.Now()
	for _, v := range remaining {
		if v.SoatExpiration.After(now) && v.LicenseExpiration.After(now) {
			next = v
			break
		}
	}
	return s.userRepo.SetActiveVehicle(ownerID, &next.ID)
}

// Activate fija el vehículo como activo del dueño; requiere que esté
// verificado y con documentos vigentes (spec §4.2 "Activate").
func (s *vehicleService) Activate(ownerID, id uint64) (*domain.Vehicle, error) {
	vehicleDAO, err := s.mustOwn(ownerID, id)
	if err != nil {
		return nil, err
	}
	vehicle := toDomainVehicle(vehicleDAO)
	if vehicle.Status != domain.VehicleVerified || !vehicle.IsDocumentsValidAt(time.Now()) {
		return nil, domain.ErrDocumentsInvalid
	}
	if err := s.userRepo.SetActiveVehicle(ownerID, &id); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// RequestReview mueve el vehículo a under_review si los documentos están
// vigentes y el estado actual lo permite (spec §4.2 "Verificación").
func (s *vehicleService) RequestReview(ownerID, id uint64) (*domain.Vehicle, error) {
	vehicleDAO, err := s.mustOwn(ownerID, id)
	if err != nil {
		return nil, err
	}

	vehicle := toDomainVehicle(vehicleDAO)
	if !vehicle.Decorate().CanRequestReview {
		return nil, domain.ErrValidation.WithMessage("el vehículo no está en condiciones de solicitar revisión")
	}

	now := time.Now()
	vehicleDAO.Status = string(domain.VehicleUnderReview)
	vehicleDAO.StatusUpdatedAt = now
	vehicleDAO.RequestedReviewAt = &now

	if err := s.vehicleRepo.Update(vehicleDAO); err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *vehicleService) ReplacePickupPoints(ownerID, id uint64, reqPoints []domain.PickupPointRequest) (*domain.Vehicle, error) {
	if _, err := s.mustOwn(ownerID, id); err != nil {
		return nil, err
	}
	points := make([]domain.PickupPoint, len(reqPoints))
	for i, p := range reqPoints {
		points[i] = domain.PickupPoint{Name: p.Name, Description: p.Description, Lat: p.Lat, Lng: p.Lng}
	}
	if err := s.vehicleRepo.ReplacePickupPoints(id, toPickupPointDAOs(id, points)); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// AddPickupPoint agrega un punto al catálogo existente del vehículo.
func (s *vehicleService) AddPickupPoint(ownerID, id uint64, point domain.PickupPointRequest) (*domain.Vehicle, error) {
	vehicleDAO, err := s.mustOwn(ownerID, id)
	if err != nil {
		return nil, err
	}
	points := append(toDomainVehicle(vehicleDAO).PickupPoints, domain.PickupPoint{
		Name: point.Name, Description: point.Description, Lat: point.Lat, Lng: point.Lng,
	})
	if err := s.vehicleRepo.ReplacePickupPoints(id, toPickupPointDAOs(id, points)); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// UpdatePickupPoint reemplaza los datos de un punto existente, identificado
// por su id (pointID).
func (s *vehicleService) UpdatePickupPoint(ownerID, id uint64, pointID string, point domain.PickupPointRequest) (*domain.Vehicle, error) {
	vehicleDAO, err := s.mustOwn(ownerID, id)
	if err != nil {
		return nil, err
	}
	current := toDomainVehicle(vehicleDAO).PickupPoints
	found := false
	for i, p := range current {
		if p.ID == pointID {
			current[i] = domain.PickupPoint{ID: p.ID, Name: point.Name, Description: point.Description, Lat: point.Lat, Lng: point.Lng}
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	if err := s.vehicleRepo.ReplacePickupPoints(id, toPickupPointDAOs(id, current)); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// DeletePickupPoint elimina un punto del catálogo por id.
func (s *vehicleService) DeletePickupPoint(ownerID, id uint64, pointID string) (*domain.Vehicle, error) {
	vehicleDAO, err := s.mustOwn(ownerID, id)
	if err != nil {
		return nil, err
	}
	current := toDomainVehicle(vehicleDAO).PickupPoints
	kept := make([]domain.PickupPoint, 0, len(current))
	found := false
	for _, p := range current {
		if p.ID == pointID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	if err := s.vehicleRepo.ReplacePickupPoints(id, toPickupPointDAOs(id, kept)); err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Validate corre las comprobaciones de Create sin persistir el vehículo
// (spec §6 "POST /vehicles/validate").
func (s *vehicleService) Validate(req domain.VehicleRequest) error {
	if err := s.validateCreate(req); err != nil {
		return err
	}
	plate := strings.ToUpper(strings.TrimSpace(req.Plate))
	if _, err := s.vehicleRepo.FindByPlate(plate); err == nil {
		return domain.ErrDuplicatePlate
	} else if !repository.IsNotFound(err) {
		return err
	}
	return nil
}

func (s *vehicleService) mustOwn(ownerID, id uint64) (*dao.VehicleDAO, error) {
	vehicleDAO, err := s.vehicleRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}
	if vehicleDAO.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return vehicleDAO, nil
}

func toPickupPointDAOs(vehicleID uint64, points []domain.PickupPoint) []dao.PickupPointDAO {
	out := make([]dao.PickupPointDAO, len(points))
	for i, p := range points {
		out[i] = dao.PickupPointDAO{
			VehicleID:   vehicleID,
			Name:        p.Name,
			Description: p.Description,
			Lat:         p.Lat,
			Lng:         p.Lng,
		}
	}
	return out
}

func toDomainVehicle(v *dao.VehicleDAO) *domain.Vehicle {
	points := make([]domain.PickupPoint, len(v.PickupPoints))
	for i, p := range v.PickupPoints {
		points[i] = domain.PickupPoint{
			ID:   uintToString(p.ID),
			Name: p.Name, Description: p.Description, Lat: p.Lat, Lng: p.Lng,
		}
	}

	return &domain.Vehicle{
		ID:                v.ID,
		OwnerID:           v.OwnerID,
		Plate:             v.Plate,
		Brand:             v.Brand,
		Model:             v.Model,
		Capacity:          v.Capacity,
		Year:              v.Year,
		Color:             v.Color,
		VehiclePhotoURL:   v.VehiclePhotoURL,
		SoatPhotoURL:      v.SoatPhotoURL,
		LicensePhotoURL:   v.LicensePhotoURL,
		SoatExpiration:    v.SoatExpiration,
		LicenseNumber:     v.LicenseNumber,
		LicenseExpiration: v.LicenseExpiration,
		Status:            domain.VehicleStatus(v.Status),
		StatusUpdatedAt:   v.StatusUpdatedAt,
		RequestedReviewAt: v.RequestedReviewAt,
		ReviewedAt:        v.ReviewedAt,
		ReviewedBy:        v.ReviewedBy,
		VerificationNotes: v.VerificationNotes,
		PickupPoints:      points,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}
