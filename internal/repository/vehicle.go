package repository

import (
	"github.com/unisabana/wheels-core/internal/dao"

	"gorm.io/gorm"
)

// VehicleRepository define las operaciones de acceso a datos para
// vehículos y sus puntos de recogida.
type VehicleRepository interface {
	Create(vehicle *dao.VehicleDAO) error
	FindByID(id uint64) (*dao.VehicleDAO, error)
	FindByOwner(ownerID uint64) ([]*dao.VehicleDAO, error)
	FindByPlate(plate string) (*dao.VehicleDAO, error)
	Update(vehicle *dao.VehicleDAO) error
	Delete(id uint64) error
	ReplacePickupPoints(vehicleID uint64, points []dao.PickupPointDAO) error
}

type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository crea una nueva instancia del repositorio de
// vehículos.
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(vehicle *dao.VehicleDAO) error {
	return r.db.Create(vehicle).Error
}

func (r *vehicleRepository) FindByID(id uint64) (*dao.VehicleDAO, error) {
	var vehicle dao.VehicleDAO
	err := r.db.Preload("PickupPoints").Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) FindByOwner(ownerID uint64) ([]*dao.VehicleDAO, error) {
	var vehicles []*dao.VehicleDAO
	err := r.db.Preload("PickupPoints").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&vehicles).Error
	if err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) FindByPlate(plate string) (*dao.VehicleDAO, error) {
	var vehicle dao.VehicleDAO
	err := r.db.Where("plate = ?", plate).First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) Update(vehicle *dao.VehicleDAO) error {
	return r.db.Save(vehicle).Error
}

func (r *vehicleRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_id = ?", id).Delete(&dao.PickupPointDAO{}).Error; err != nil {
			return err
		}
		return tx.Delete(&dao.VehicleDAO{}, id).Error
	})
}

// ReplacePickupPoints reemplaza por completo el catálogo de puntos de
// recogida de un vehículo (spec §4.2 "Update": "fully replace the prior
// list after validation").
func (r *vehicleRepository) ReplacePickupPoints(vehicleID uint64, points []dao.PickupPointDAO) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vehicle_id = ?", vehicleID).Delete(&dao.PickupPointDAO{}).Error; err != nil {
			return err
		}
		if len(points) == 0 {
			return nil
		}
		for i := range points {
			points[i].VehicleID = vehicleID
			points[i].ID = 0
		}
		return tx.Create(&points).Error
	})
}
