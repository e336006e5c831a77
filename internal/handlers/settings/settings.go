package handlers_settings

import (
	"net/http"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clsettings"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	service *clsettings.SettingsService
}

func NewSettingsHandler(service *clsettings.SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get crée la ligne par défaut au premier appel
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context())
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération des paramètres")
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) Patch(c *gin.Context) {
	var req clsettings.PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}
	settings, err := h.service.Patch(c.Request.Context(), req)
	if err != nil {
		handlers_common.Error(c, err, "Erreur mise à jour des paramètres")
		return
	}
	c.JSON(http.StatusOK, settings)
}
