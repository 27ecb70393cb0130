package service

import (
	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/repository"
)

// UserService expone la gestión del perfil del usuario autenticado.
type UserService interface {
	GetProfile(id uint64) (*domain.User, error)
	UpdateProfile(id uint64, req domain.UpdateProfileRequest) (*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService crea una nueva instancia del servicio de usuarios.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(id uint64) (*domain.User, error) {
	userDAO, err := s.userRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return toDomainUser(userDAO), nil
}

// UpdateProfile aplica solo los campos presentes en req (spec §4.1
// "Update profile"): los punteros nulos dejan el valor actual intacto.
func (s *userService) UpdateProfile(id uint64, req domain.UpdateProfileRequest) (*domain.User, error) {
	userDAO, err := s.userRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if req.FirstName != nil {
		userDAO.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		userDAO.LastName = *req.LastName
	}
	if req.Phone != nil {
		userDAO.Phone = *req.Phone
	}
	if req.PhotoURL != nil {
		userDAO.PhotoURL = *req.PhotoURL
	}
	if req.EmergencyContact != nil {
		userDAO.EmergencyName = req.EmergencyContact.Name
		userDAO.EmergencyPhone = req.EmergencyContact.Phone
	}
	if req.PreferredPayment != nil {
		userDAO.PreferredPayment = string(*req.PreferredPayment)
	}

	if err := s.userRepo.Update(userDAO); err != nil {
		return nil, err
	}
	return toDomainUser(userDAO), nil
}
