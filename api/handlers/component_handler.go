// api/handlers/component_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-studio/internal/component"
)

// ComponentHandler serves the read-only component catalog.
type ComponentHandler struct {
	Registry *component.Registry
}

func NewComponentHandler(registry *component.Registry) *ComponentHandler {
	return &ComponentHandler{Registry: registry}
}

// ListComponents returns active components, optionally filtered by ?category= and ?type=.
func (h *ComponentHandler) ListComponents(c *gin.Context) {
	defs := h.Registry.ListActive(c.Query("category"), c.Query("type"))
	c.JSON(http.StatusOK, gin.H{"data": defs})
}

// GetComponent returns one component definition by type key.
func (h *ComponentHandler) GetComponent(c *gin.Context) {
	def, err := h.Registry.Get(c.Param("type"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, def)
}
