package controller

import (
	"net/http"

	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/middleware"
	"github.com/unisabana/wheels-core/internal/service"

	"github.com/gin-gonic/gin"
)

// UserController expone la lectura y edición del perfil del usuario
// autenticado (spec §4.1 "Profile").
type UserController interface {
	GetProfile(c *gin.Context)
	UpdateProfile(c *gin.Context)
}

type userController struct {
	userService service.UserService
}

// NewUserController crea una nueva instancia del controlador de usuarios.
func NewUserController(userService service.UserService) UserController {
	return &userController{userService: userService}
}

// GetProfile devuelve el perfil del usuario autenticado.
// GET /auth/me
func (ctrl *userController) GetProfile(c *gin.Context) {
	userID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	user, err := ctrl.userService.GetProfile(userID)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// UpdateProfile aplica una actualización parcial del perfil.
// PUT /auth/me
func (ctrl *userController) UpdateProfile(c *gin.Context) {
	userID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	user, err := ctrl.userService.UpdateProfile(userID, req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}
