package handlers_captcha

import (
	"net/http"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clcaptchas"

	"github.com/gin-gonic/gin"
)

type CaptchaHandler struct {
	captcha *clcaptchas.Captchas
}

func NewCaptchaHandler(captcha *clcaptchas.Captchas) *CaptchaHandler {
	return &CaptchaHandler{captcha: captcha}
}

// Generate la réponse n'est renvoyée qu'hors production
func (h *CaptchaHandler) Generate(c *gin.Context) {
	challenge, err := h.captcha.GenerateCaptcha(c.GetBool("production"))
	if err != nil {
		handlers_common.Error(c, err, "Erreur génération CAPTCHA")
		return
	}
	c.JSON(http.StatusOK, challenge)
}
