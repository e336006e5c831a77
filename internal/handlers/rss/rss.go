package handlers_rss

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clmarkdown"
	"vitrine/internal/models/clportfolio"
	"vitrine/internal/models/clrss"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const feedSize = 20

type RSSHandler struct {
	portfolios  *clportfolio.PortfolioService
	siteName    string
	baseURL     string
	staticPath  string
	version     string
	description string
}

func NewRSSHandler(portfolios *clportfolio.PortfolioService, siteName, baseURL, staticPath, version string) *RSSHandler {
	return &RSSHandler{
		portfolios:  portfolios,
		siteName:    siteName,
		baseURL:     baseURL,
		staticPath:  staticPath,
		version:     version,
		description: "Derniers projets réalisés",
	}
}

// Feed flux RSS des derniers projets du portfolio
func (h *RSSHandler) Feed(c *gin.Context) {
	projects, err := h.portfolios.Recent(c.Request.Context(), feedSize)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Erreur récupération projets RSS")
		c.XML(http.StatusInternalServerError, gin.H{"error": "Erreur récupération projets"})
		return
	}

	baseURL := handlers_common.BaseURL(c, h.baseURL)
	now := time.Now()

	rss := clrss.New(h.siteName, baseURL, h.description, fmt.Sprintf("Vitrine v%s", h.version), now)
	rss.Channel.Copyright = fmt.Sprintf("© %d %s", now.Year(), h.siteName)

	for _, project := range projects {
		link := fmt.Sprintf("%s/work#projet-%d", baseURL, project.ID)
		item := clrss.RSSItem{
			Title:       project.Title,
			Link:        link,
			Description: clmarkdown.Summary(project.Description, 500),
			Category:    firstTech(project.TechStack),
			GUID:        link,
			PubDate:     project.CreatedAt.Format(time.RFC1123Z),
		}

		// enclosure seulement pour une image stockée localement
		if image, ok := project.FirstImage(); ok && strings.HasPrefix(image.URL, "/static/") {
			realpath := filepath.Join(h.staticPath, strings.TrimPrefix(image.URL, "/static/"))
			if size, mime, err := clrss.FileInfo(realpath); err == nil {
				item.Enclosure = &clrss.RSSEnclosure{
					URL:    baseURL + image.URL,
					Length: size,
					Type:   mime,
				}
			}
		}

		rss.Channel.Items = append(rss.Channel.Items, item)
	}

	output, err := rss.Marshal()
	if err != nil {
		c.XML(http.StatusInternalServerError, gin.H{"error": "Erreur génération RSS"})
		return
	}

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", output)
}

// RSS 2.0 ne supporte qu'une catégorie par item
func firstTech(techStack string) string {
	first, _, _ := strings.Cut(techStack, ",")
	return strings.TrimSpace(first)
}
