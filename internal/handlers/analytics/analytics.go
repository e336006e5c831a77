package handlers_analytics

import (
	"net/http"
	"strings"
	"vitrine/internal/clmiddleware"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clanalytics"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service  *clanalytics.AnalyticsService
	recorder clmiddleware.Tracker
}

func NewAnalyticsHandler(service *clanalytics.AnalyticsService, recorder clmiddleware.Tracker) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:  service,
		recorder: recorder,
	}
}

type trackRequest struct {
	Page     string `json:"page"`
	Referrer string `json:"referrer"`
}

// Track enregistre une vue envoyée par le navigateur.
// L'écriture est asynchrone, ses erreurs ne remontent pas au client.
func (ah *AnalyticsHandler) Track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}
	page := strings.TrimSpace(req.Page)
	if page == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le champ page est requis"})
		return
	}

	visit := clmiddleware.Visit(c, page)
	if req.Referrer != "" {
		visit.Referrer = req.Referrer
	}
	ah.recorder.TrackAsync(visit)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetStats30Days retourne les statistiques des 30 derniers jours
func (ah *AnalyticsHandler) GetStats30Days(c *gin.Context) {
	stats, err := ah.service.GetStats30Days(c.Request.Context())
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération des statistiques")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetRealtimeStats retourne les statistiques en temps réel
func (ah *AnalyticsHandler) GetRealtimeStats(c *gin.Context) {
	stats, err := ah.service.GetRealtimeStats(c.Request.Context())
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération des statistiques temps réel")
		return
	}

	c.JSON(http.StatusOK, stats)
}
