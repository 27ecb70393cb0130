package repository

import (
	"errors"

	"github.com/unisabana/wheels-core/internal/dao"

	"gorm.io/gorm"
)

// ErrNotFound envuelve gorm.ErrRecordNotFound para que las capas
// superiores no dependan directamente de GORM.
var ErrNotFound = gorm.ErrRecordNotFound

// UserRepository define las operaciones de acceso a datos para usuarios.
type UserRepository interface {
	Create(user *dao.UserDAO) error
	FindByID(id uint64) (*dao.UserDAO, error)
	FindByEmail(email string) (*dao.UserDAO, error)
	Update(user *dao.UserDAO) error
	UpdatePassword(userID uint64, newPasswordHash string) error
	SetActiveVehicle(userID uint64, vehicleID *uint64) error
	SetRolesAndActiveRole(userID uint64, roles []string, activeRole string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository crea una nueva instancia del repositorio de usuarios.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *dao.UserDAO) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id uint64) (*dao.UserDAO, error) {
	var user dao.UserDAO
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*dao.UserDAO, error) {
	var user dao.UserDAO
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *dao.UserDAO) error {
	return r.db.Save(user).Error
}

func (r *userRepository) UpdatePassword(userID uint64, newPasswordHash string) error {
	return r.db.Model(&dao.UserDAO{}).
		Where("id = ?", userID).
		Update("password_hash", newPasswordHash).Error
}

func (r *userRepository) SetActiveVehicle(userID uint64, vehicleID *uint64) error {
	return r.db.Model(&dao.UserDAO{}).
		Where("id = ?", userID).
		Update("active_vehicle_id", vehicleID).Error
}

func (r *userRepository) SetRolesAndActiveRole(userID uint64, roles []string, activeRole string) error {
	return r.db.Model(&dao.UserDAO{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"roles":       joinRoles(roles),
			"active_role": activeRole,
		}).Error
}

func joinRoles(roles []string) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return out
}

// IsNotFound indica si err representa "registro no encontrado".
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
