package http

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-portal/internal/domain"
	"auth-portal/internal/service"
)

// SessionCookieName es el nombre de la cookie que transporta el id de sesión.
const SessionCookieName = "session_id"

const currentUserKey = "current_user"

// SessionAuth valida la cookie de sesión y guarda el usuario en el contexto.
// Sesión ausente, inválida o expirada producen la misma respuesta 401.
func SessionAuth(logger *zap.Logger, sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no session found"})
			c.Abort()
			return
		}

		user, err := sessions.Validate(c.Request.Context(), sessionID)
		if err != nil {
			logger.Error("session validation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not validate session"})
			c.Abort()
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser obtiene el usuario autenticado desde el contexto.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}

// RequirePermissions rechaza la petición si al usuario autenticado le falta
// alguno de los permisos requeridos. Debe registrarse después de SessionAuth:
// un llamador sin sesión recibe 401, nunca 403.
func RequirePermissions(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no session found"})
			c.Abort()
			return
		}

		var missing []string
		for _, name := range required {
			if !user.HasPermission(name) {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			c.JSON(http.StatusForbidden, gin.H{
				"error": "missing required permission(s): " + strings.Join(missing, ", "),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
