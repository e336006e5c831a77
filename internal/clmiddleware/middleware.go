package clmiddleware

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"vitrine/internal/clconfig"
	"vitrine/internal/models/cllog"
	"vitrine/internal/observer"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	HeaderRequestID = "X-Request-ID"
	sessionName     = "vitrine"
)

func InitMiddleware(r *gin.Engine, conf *clconfig.Config) {
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())
	r.Use(Environment(conf.Production))

	// use Compression, with gzip
	r.Use(gzip.Gzip(gzip.BestSpeed))

	r.Use(CORS(conf.Site.CorsOrigins))

	// Configuration des sessions
	r.Use(NewSession([]byte(conf.Auth.Secret), conf.Production))
}

// RequestID reprend l'en-tête X-Request-ID ou en génère un, et place
// un logger portant cet id dans le contexte de la requête
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(cllog.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Environment expose le mode production aux handlers
func Environment(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("production", production)
		c.Next()
	}
}

// CORS avec les origines configurées, toutes si la liste est vide
func CORS(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", HeaderRequestID},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return cors.New(config)
}

// NewLimiter limite par IP cliente, format "5-M", stockage redis si un client est fourni
func NewLimiter(formatted string, client *redis.Client) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("limite invalide %q: %w", formatted, err)
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix: "vitrine:limiter",
		})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStore()
	}

	instance := limiter.New(store, rate)
	return ginlimiter.NewMiddleware(instance,
		// c.ClientIP respecte les proxies de confiance, un en-tête forgé ne change pas la clé
		ginlimiter.WithKeyGetter(func(c *gin.Context) string {
			return c.FullPath() + ":" + c.ClientIP()
		}),
		ginlimiter.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Trop de requêtes, réessayez plus tard"})
		}),
	), nil
}

// NewSession cookie signé, clé aléatoire si aucun secret n'est fourni
func NewSession(secret []byte, production bool) gin.HandlerFunc {
	if len(secret) == 0 {
		secret = generateSecretKey()
	}
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(sessionName, store)
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Traiter la requête
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method

		observer.ObserveHTTP(method, c.FullPath(), statusCode, latency)

		if raw != "" {
			path = path + "?" + raw
		}

		logger := zerolog.Ctx(c.Request.Context())
		var logEvent *zerolog.Event
		switch {
		case statusCode == 404:
			logEvent = logger.Debug()
		case statusCode >= 500:
			logEvent = logger.Error()
		case statusCode >= 400:
			logEvent = logger.Warn()
		default:
			logEvent = logger.Info()
		}

		logEvent.
			Str("method", method).
			Str("path", path).
			Int("status", statusCode).
			Dur("latency", latency).
			Str("ip", ClientIP(c)).
			Str("user_agent", c.Request.UserAgent()).
			Int("body_size", c.Writer.Size()).
			Msg("HTTP Request")

		for _, err := range c.Errors {
			logger.Error().
				Err(err.Err).
				Str("type", strconv.FormatUint(uint64(err.Type), 10)).
				Msg("Request error")
		}
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				zerolog.Ctx(c.Request.Context()).Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Msg("Panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
			}
		}()
		c.Next()
	}
}

// Générer une clé secrète aléatoire
func generateSecretKey() []byte {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		log.Fatal().Err(err).Msg("Erreur génération clé secrète")
	}
	return key
}
