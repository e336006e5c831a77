package handlers_common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"vitrine/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Error répond avec le statut associé à l'erreur. Les 500 sont loguées et
// ne portent le détail qu'hors production.
func Error(c *gin.Context, err error, message string) {
	status := apperrors.HTTPStatus(err)
	if status != http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg(message)
	body := gin.H{"error": message}
	if !c.GetBool("production") {
		body["detail"] = err.Error()
	}
	c.JSON(status, body)
}

// BadRequest corps JSON illisible ou incomplet
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
}

// ParseID lit un identifiant numérique, répond 400 sinon
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identifiant invalide"})
		return 0, false
	}
	return uint(id), true
}

// BaseURL URL publique configurée, sinon déduite de la requête
func BaseURL(c *gin.Context, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}

// QueryBool "true" ou "1"
func QueryBool(c *gin.Context, name string) bool {
	v := strings.ToLower(c.Query(name))
	return v == "true" || v == "1"
}
