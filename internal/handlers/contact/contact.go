package handlers_contact

import (
	"net/http"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clcontact"

	"github.com/gin-gonic/gin"
)

// CaptchaVerifier vérifie et consomme une réponse captcha
type CaptchaVerifier interface {
	VerifyCaptcha(captchaID string, captchaAnswer string) error
}

type ContactHandler struct {
	service *clcontact.ContactService
	captcha CaptchaVerifier
}

// NewContactHandler captcha nil: formulaire sans captcha
func NewContactHandler(service *clcontact.ContactService, captcha CaptchaVerifier) *ContactHandler {
	return &ContactHandler{
		service: service,
		captcha: captcha,
	}
}

type flagsRequest struct {
	IsRead    *bool `json:"isRead"`
	IsStarred *bool `json:"isStarred"`
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req clcontact.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}

	if h.captcha != nil {
		if err := h.captcha.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	msg, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		handlers_common.Error(c, err, "Erreur enregistrement de la demande")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "id": msg.ID})
}

func (h *ContactHandler) List(c *gin.Context) {
	messages, err := h.service.List(c.Request.Context(), clcontact.ListOptions{
		UnreadOnly:  handlers_common.QueryBool(c, "unread"),
		StarredOnly: handlers_common.QueryBool(c, "starred"),
	})
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération des demandes")
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *ContactHandler) Patch(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	var req flagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}

	msg, err := h.service.SetFlags(c.Request.Context(), id, req.IsRead, req.IsStarred)
	if err != nil {
		handlers_common.Error(c, err, "Erreur mise à jour de la demande")
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	id, ok := handlers_common.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handlers_common.Error(c, err, "Erreur suppression de la demande")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
