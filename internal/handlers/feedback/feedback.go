package handlers_feedback

import (
	"net/http"
	"strconv"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clfeedback"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	service *clfeedback.FeedbackService
	baseURL string
}

// NewFeedbackHandler baseURL vide: lien construit depuis l'hôte de la requête
func NewFeedbackHandler(service *clfeedback.FeedbackService, baseURL string) *FeedbackHandler {
	return &FeedbackHandler{service: service, baseURL: baseURL}
}

// List publique: seuls les témoignages approuvés et publics, sans jeton.
// includeAll et les jetons ne sont servis qu'à un utilisateur connecté.
func (h *FeedbackHandler) List(c *gin.Context) {
	authenticated := c.GetBool("authenticated")
	opts := clfeedback.ListOptions{
		IncludeAll: handlers_common.QueryBool(c, "includeAll") && authenticated,
	}
	if raw := c.Query("portfolioId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "portfolioId invalide"})
			return
		}
		opts.PortfolioID = uint(id)
	}

	feedbacks, err := h.service.List(c.Request.Context(), opts)
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération des témoignages")
		return
	}
	if authenticated {
		c.JSON(http.StatusOK, clfeedback.ManagedList(feedbacks))
		return
	}
	c.JSON(http.StatusOK, feedbacks)
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	var req clfeedback.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}
	feedback, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		handlers_common.Error(c, err, "Erreur création du témoignage")
		return
	}

	link := handlers_common.BaseURL(c, h.baseURL) + "/feedback/" + feedback.LinkToken
	c.JSON(http.StatusCreated, gin.H{"feedback": clfeedback.ManagedView(*feedback), "link": link})
}

func (h *FeedbackHandler) GetByToken(c *gin.Context) {
	feedback, err := h.service.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération du témoignage")
		return
	}
	c.JSON(http.StatusOK, feedback)
}

// SubmitByToken complété par le client, repasse en attente d'approbation
func (h *FeedbackHandler) SubmitByToken(c *gin.Context) {
	var req clfeedback.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}
	feedback, err := h.service.SubmitByToken(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		handlers_common.Error(c, err, "Erreur enregistrement du témoignage")
		return
	}
	c.JSON(http.StatusOK, feedback)
}

func (h *FeedbackHandler) Patch(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	var req clfeedback.PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}
	feedback, err := h.service.Patch(c.Request.Context(), id, req)
	if err != nil {
		handlers_common.Error(c, err, "Erreur mise à jour du témoignage")
		return
	}
	c.JSON(http.StatusOK, clfeedback.ManagedView(*feedback))
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handlers_common.Error(c, err, "Erreur suppression du témoignage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
