package domain

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// Llaves que AuthMiddleware deja en el contexto de Gin.
const (
	CtxUserID     = "user_id"
	CtxEmail      = "email"
	CtxActiveRole = "active_role"
)

// GetUserIDFromContext extrae el id del usuario autenticado, puesto por
// AuthMiddleware tras validar el JWT.
func GetUserIDFromContext(c *gin.Context) (uint64, error) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		return 0, errors.New("no autenticado")
	}
	id, ok := v.(uint64)
	if !ok {
		return 0, errors.New("claims de usuario inválidos")
	}
	return id, nil
}
