package middleware

import (
	"strings"

	"github.com/unisabana/wheels-core/internal/domain"
	"github.com/unisabana/wheels-core/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// AuthMiddleware valida el token JWT, rechaza tokens revocados por logout
// y deja user_id/email/active_role en el contexto de gin.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			Abort(c, domain.ErrUnauthenticated)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			Abort(c, domain.ErrUnauthenticated.WithMessage("formato de token inválido, usar: Bearer TOKEN"))
			return
		}
		tokenString := parts[1]

		if authService.IsRevoked(tokenString) {
			Abort(c, domain.ErrTokenRevoked)
			return
		}

		token, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("token validation failed")
			Abort(c, domain.ErrUnauthenticated.WithMessage("token inválido o expirado"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			Abort(c, domain.ErrUnauthenticated)
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			Abort(c, domain.ErrUnauthenticated.WithMessage("claims del token inválidos"))
			return
		}
		email, _ := claims["email"].(string)
		activeRole, _ := claims["active_role"].(string)

		c.Set(domain.CtxUserID, uint64(userIDFloat))
		c.Set(domain.CtxEmail, email)
		c.Set(domain.CtxActiveRole, activeRole)
		c.Set(ctxRawToken, tokenString)

		c.Next()
	}
}

// ctxRawToken guarda el token crudo para que el handler de logout pueda
// revocarlo sin volver a parsear el header.
const ctxRawToken = "raw_token"

// RawToken extrae el token crudo puesto por AuthMiddleware.
func RawToken(c *gin.Context) string {
	v, _ := c.Get(ctxRawToken)
	token, _ := v.(string)
	return token
}

// RequireRole exige que el rol activo del token sea uno de los permitidos.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, _ := c.Get(domain.CtxActiveRole)
		activeRole, _ := active.(string)
		for _, r := range roles {
			if string(r) == activeRole {
				c.Next()
				return
			}
		}
		Abort(c, domain.ErrForbidden.WithMessage("esta acción requiere otro rol activo"))
	}
}
