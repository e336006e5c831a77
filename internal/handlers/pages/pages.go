package handlers_pages

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	htmlmin "github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

var pageName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// PagesHandler sert les pages HTML déjà construites du site public
type PagesHandler struct {
	files      fs.FS
	m          *minify.M
	production bool
}

func NewPagesHandler(pagesDir string, production bool) *PagesHandler {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	if production {
		m.AddFunc("text/html", htmlmin.Minify)
	}

	return &PagesHandler{
		files:      os.DirFS(pagesDir),
		m:          m,
		production: production,
	}
}

// Index / et /:page
func (h *PagesHandler) Page(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("page"), ".html")
	if name == "" {
		name = "index"
	}
	if !pageName.MatchString(name) {
		h.NotFound(c)
		return
	}
	h.serve(c, name)
}

// Named sert toujours la même page, pour les routes à paramètre
// comme /feedback/:token dont la page lit le jeton côté navigateur
func (h *PagesHandler) Named(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.serve(c, name)
	}
}

func (h *PagesHandler) serve(c *gin.Context, name string) {
	content, err := fs.ReadFile(h.files, name+".html")
	if err != nil {
		h.NotFound(c)
		return
	}

	if h.production {
		if minified, err := h.m.Bytes("text/html", content); err == nil {
			content = minified
		}
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/html; charset=utf-8", content)
}

// Asset CSS et JS minifiés, servis avec ETag et cache long
func (h *PagesHandler) Asset(c *gin.Context) {
	file := strings.TrimPrefix(path.Clean("/"+c.Param("file")), "/")
	content, err := fs.ReadFile(h.files, path.Join("assets", file))
	if err != nil {
		h.NotFound(c)
		return
	}

	var contentType string
	switch path.Ext(file) {
	case ".css":
		contentType = "text/css"
	case ".js":
		contentType = "application/javascript"
	case ".svg":
		contentType = "image/svg+xml"
	default:
		contentType = http.DetectContentType(content)
	}

	if contentType == "text/css" || contentType == "application/javascript" {
		if minified, err := h.m.Bytes(contentType, content); err == nil {
			content = minified
		}
	}

	etag := generateETag(content)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, contentType, content)
}

func (h *PagesHandler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Page non trouvée"})
}

// Fonction helper pour générer un ETag
func generateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf(`"%x"`, hash[:16])
}
