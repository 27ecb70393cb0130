package middleware

import (
	"errors"

	"github.com/unisabana/wheels-core/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorHandler traduce el último error registrado en el contexto a la
// respuesta JSON final, usando la taxonomía de domain.AppError (spec §7)
// cuando el error la implementa.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("request error")

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			c.JSON(domain.StatusForCode(appErr.Code), gin.H{"error": appErr.Code})
			return
		}

		c.JSON(domain.StatusForCode(""), gin.H{"error": domain.ErrInternal.Code})
	}
}

// Abort registra err en el contexto de gin para que ErrorHandler lo
// traduzca a la respuesta JSON y detiene la cadena de handlers.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
