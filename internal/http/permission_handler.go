package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auth-portal/internal/repository"
)

// PermissionHandler expone el catálogo de permisos del sistema.
type PermissionHandler struct {
	logger      *zap.Logger
	permissions repository.PermissionRepository
}

func NewPermissionHandler(logger *zap.Logger, permissions repository.PermissionRepository) *PermissionHandler {
	return &PermissionHandler{
		logger:      logger,
		permissions: permissions,
	}
}

// List maneja GET /permissions. Devuelve todos los nombres ordenados.
func (h *PermissionHandler) List(c *gin.Context) {
	catalog, err := h.permissions.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list permissions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list permissions"})
		return
	}

	names := make([]string, 0, len(catalog))
	for _, p := range catalog {
		names = append(names, p.Name)
	}
	c.JSON(http.StatusOK, gin.H{"permissions": names})
}
