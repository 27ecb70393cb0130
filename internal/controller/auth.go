package controller

import (
	"errors"
	"net/http"

	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/middleware"
	"github.com/unisabana/wheels-core/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// AuthController expone el registro, login y el flujo de recuperación de
// contraseña (spec §4.1).
type AuthController interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	SwitchRole(c *gin.Context)
	ForgotPassword(c *gin.Context)
	ResetPassword(c *gin.Context)
}

type authController struct {
	authService service.AuthService
}

// bindRegisterError traduce el fallo de binding de RegisterRequest al
// código específico de la taxonomía cuando aplica: el único campo con una
// semántica de negocio propia es Password (spec.md: código WEAK_PASSWORD
// para una contraseña que no cumple la longitud mínima).
func bindRegisterError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Password" && fe.Tag() == "min" {
				return domain.ErrWeakPassword
			}
		}
	}
	return domain.ErrValidation.WithMessage(err.Error())
}

// NewAuthController crea una nueva instancia del controlador de
// autenticación.
func NewAuthController(authService service.AuthService) AuthController {
	return &authController{authService: authService}
}

// Register crea un usuario nuevo y, si aplica, su vehículo. El correo de
// bienvenida lo dispara el propio AuthService.
// POST /auth/register
func (ctrl *authController) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, bindRegisterError(err))
		return
	}

	user, err := ctrl.authService.Register(req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": user})
}

// Login valida credenciales y emite un bearer token.
// POST /auth/login
func (ctrl *authController) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	resp, err := ctrl.authService.Login(req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// Logout revoca el token actual hasta su expiración natural.
// POST /auth/logout
func (ctrl *authController) Logout(c *gin.Context) {
	token := middleware.RawToken(c)
	if token == "" {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	if err := ctrl.authService.Logout(token); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"message": "sesión cerrada"}})
}

// SwitchRole cambia el rol activo del usuario autenticado.
// PUT /auth/role
func (ctrl *authController) SwitchRole(c *gin.Context) {
	userID, err := domain.GetUserIDFromContext(c)
	if err != nil {
		middleware.Abort(c, domain.ErrUnauthenticated)
		return
	}

	var req domain.SwitchRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	user, err := ctrl.authService.SwitchRole(userID, req)
	if err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// ForgotPassword inicia el flujo de recuperación de contraseña. Responde
// siempre 200 para no revelar si el correo existe.
// POST /auth/forgot-password
func (ctrl *authController) ForgotPassword(c *gin.Context) {
	var req domain.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	if err := ctrl.authService.ForgotPassword(req); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"message": "si el correo existe, recibirás instrucciones para restablecer tu contraseña"},
	})
}

// ResetPassword consume un token de recuperación y fija una nueva
// contraseña.
// POST /auth/reset-password
func (ctrl *authController) ResetPassword(c *gin.Context) {
	var req domain.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Abort(c, domain.ErrValidation.WithMessage(err.Error()))
		return
	}

	if err := ctrl.authService.ResetPassword(req); err != nil {
		middleware.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"message": "contraseña restablecida"}})
}
