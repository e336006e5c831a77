package handlers_portfolio

import (
	"net/http"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clportfolio"

	"github.com/gin-gonic/gin"
)

type PortfolioHandler struct {
	service *clportfolio.PortfolioService
}

func NewPortfolioHandler(service *clportfolio.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{service: service}
}

func (h *PortfolioHandler) List(c *gin.Context) {
	projects, err := h.service.List(c.Request.Context(), clportfolio.ListOptions{
		FeaturedOnly: handlers_common.QueryBool(c, "featured"),
	})
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération des projets")
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *PortfolioHandler) Get(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	project, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération du projet")
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *PortfolioHandler) Create(c *gin.Context) {
	var req clportfolio.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}
	project, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		handlers_common.Error(c, err, "Erreur création du projet")
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *PortfolioHandler) Update(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	var req clportfolio.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}
	project, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		handlers_common.Error(c, err, "Erreur mise à jour du projet")
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *PortfolioHandler) Delete(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handlers_common.Error(c, err, "Erreur suppression du projet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PortfolioHandler) AddMedia(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	var req clportfolio.MediaInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}
	media, err := h.service.AddMedia(c.Request.Context(), id, req)
	if err != nil {
		handlers_common.Error(c, err, "Erreur ajout du média")
		return
	}
	c.JSON(http.StatusCreated, media)
}

func (h *PortfolioHandler) DeleteMedia(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteMedia(c.Request.Context(), id); err != nil {
		handlers_common.Error(c, err, "Erreur suppression du média")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
