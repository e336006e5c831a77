package clmiddleware

import (
	"net/http"
	"strings"
	"vitrine/internal/models/clusers"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// Clés de session posées à la connexion
const (
	SessionUserID = "user_id"
	SessionEmail  = "email"
	SessionRole   = "role"
)

// TokenValidator valide un jeton bearer
type TokenValidator interface {
	ValidateToken(token string) (*clusers.TokenClaims, error)
}

// AuthRequired accepte la session cookie ou un jeton Authorization: Bearer
func AuthRequired(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, tokens)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentification requise"})
			return
		}
		c.Set(claimsKey, claims)
		c.Set("authenticated", true)
		c.Next()
	}
}

// OptionalAuth renseigne l'utilisateur s'il est connecté, sans rien bloquer
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := authenticate(c, tokens); ok {
			c.Set(claimsKey, claims)
			c.Set("authenticated", true)
		}
		c.Next()
	}
}

// RequireRole à placer après AuthRequired
func RequireRole(roles ...clusers.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentification requise"})
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Accès refusé"})
	}
}

// Claims utilisateur authentifié de la requête
func Claims(c *gin.Context) (*clusers.TokenClaims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*clusers.TokenClaims)
	return claims, ok && claims != nil
}

// SaveSession enregistre l'utilisateur connecté dans le cookie
func SaveSession(c *gin.Context, user clusers.Summary) error {
	session := sessions.Default(c)
	session.Set(SessionUserID, user.ID)
	session.Set(SessionEmail, user.Email)
	session.Set(SessionRole, string(user.Role))
	return session.Save()
}

// ClearSession vide la session si le middleware est présent
func ClearSession(c *gin.Context) error {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}

func authenticate(c *gin.Context, tokens TokenValidator) (*clusers.TokenClaims, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokens == nil {
			return nil, false
		}
		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			return nil, false
		}
		return claims, true
	}

	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil, false
	}
	session := sessions.Default(c)
	userID, ok := session.Get(SessionUserID).(uint)
	if !ok || userID == 0 {
		return nil, false
	}
	email, _ := session.Get(SessionEmail).(string)
	role, _ := session.Get(SessionRole).(string)
	return &clusers.TokenClaims{UserID: userID, Email: email, Role: clusers.Role(role)}, true
}
