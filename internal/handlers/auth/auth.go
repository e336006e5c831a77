package handlers_auth

import (
	"net/http"
	"vitrine/internal/clmiddleware"
	handlers_common "vitrine/internal/handlers/common"
	"vitrine/internal/models/clusers"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	users *clusers.UserService
}

func NewAuthHandler(users *clusers.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Login émet un jeton et ouvre la session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req clusers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}

	logger := zerolog.Ctx(c.Request.Context())
	resp, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		logger.Warn().Str("email", req.Email).Str("ip", clmiddleware.ClientIP(c)).Msg("Tentative de connexion échouée")
		handlers_common.Error(c, err, "Erreur de connexion")
		return
	}
	logger.Info().Str("email", resp.User.Email).Str("ip", clmiddleware.ClientIP(c)).Msg("Connexion réussie")

	if err := clmiddleware.SaveSession(c, resp.User); err != nil {
		handlers_common.Error(c, err, "Erreur session")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Register ouvert au premier compte, ensuite réservé aux admins connectés
func (h *AuthHandler) Register(c *gin.Context) {
	var req clusers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers_common.BadRequest(c, err)
		return
	}

	caller, _ := clmiddleware.Claims(c)
	resp, err := h.users.Register(c.Request.Context(), req, caller)
	if err != nil {
		handlers_common.Error(c, err, "Erreur création du compte")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := clmiddleware.ClearSession(c); err != nil {
		handlers_common.Error(c, err, "Erreur session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		handlers_common.Error(c, err, "Erreur récupération des utilisateurs")
		return
	}
	c.JSON(http.StatusOK, users)
}
