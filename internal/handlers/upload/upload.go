package handlers_upload

import (
	"io"
	"mime/multipart"
	"net/http"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clstorage"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploader *clstorage.Uploader
}

func NewUploadHandler(uploader *clstorage.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload champ multipart "file", "image" accepté
func (h *UploadHandler) Upload(c *gin.Context) {
	file, header, err := formFile(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier non trouvé"})
		return
	}
	defer file.Close()

	// un octet de plus que la limite pour détecter le dépassement
	data, err := io.ReadAll(io.LimitReader(file, clstorage.MaxVideoSize+1))
	if err != nil {
		handlers_common.Error(c, err, "Erreur lecture fichier")
		return
	}

	upload, err := h.uploader.Store(c.Request.Context(), header.Filename, data)
	if err != nil {
		handlers_common.Error(c, err, "Erreur sauvegarde fichier")
		return
	}
	c.JSON(http.StatusOK, upload)
}

func formFile(c *gin.Context) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile("file")
	if err == nil {
		return file, header, nil
	}
	return c.Request.FormFile("image")
}
