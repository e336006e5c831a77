package clmiddleware

import (
	"net/http"
	"strings"
	"vitrine/internal/models/clanalytics"

	"github.com/gin-gonic/gin"
)

// Tracker reçoit les vues enregistrées côté serveur
type Tracker interface {
	TrackAsync(v clanalytics.Visit)
}

var untrackedPrefixes = []string{"/api/", "/static/", "/assets/", "/rss.xml", "/favicon"}

// TrackPages enregistre les pages publiques servies avec succès.
// L'enregistrement part après la réponse et n'ajoute pas de latence visible.
func TrackPages(tracker Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}

		tracker.TrackAsync(Visit(c, path))
	}
}

// Visit métadonnées de la requête pour l'analytics
func Visit(c *gin.Context, page string) clanalytics.Visit {
	return clanalytics.Visit{
		Page:      page,
		UserAgent: c.Request.UserAgent(),
		IP:        ClientIP(c),
		Referrer:  c.Request.Referer(),
	}
}

// ClientIP première adresse de X-Forwarded-For, puis X-Real-IP, puis l'adresse de connexion
func ClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	return c.ClientIP()
}
