package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"vitrine/internal/clconfig"
	"vitrine/internal/clmiddleware"
	handlers_analytics "vitrine/internal/handlers/analytics"
	handlers_auth "vitrine/internal/handlers/auth"
	handlers_captcha "vitrine/internal/handlers/captcha"
	handlers_contact "vitrine/internal/handlers/contact"
	handlers_feedback "vitrine/internal/handlers/feedback"
	handlers_health "vitrine/internal/handlers/health"
	handlers_pages "vitrine/internal/handlers/pages"
	handlers_portfolio "vitrine/internal/handlers/portfolio"
	handlers_rss "vitrine/internal/handlers/rss"
	handlers_settings "vitrine/internal/handlers/settings"
	handlers_upload "vitrine/internal/handlers/upload"
	"vitrine/internal/models/cllog"
	"vitrine/internal/models/clsite"
	"vitrine/internal/observer"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const VERSION string = "1.0.0"

const shutdownTimeout = 10 * time.Second

var BuildID string

func parseCommandLineArgs() (configFile string, shouldCreateExample bool, versionDisplay bool, err error) {
	var config = flag.String("config", "", "Fichier de configuration YAML")
	var example = flag.Bool("example", false, "Créer un fichier de configuration exemple")
	var version = flag.Bool("version", false, "version du produit")
	flag.Parse()

	if *version {
		return "", false, true, nil
	}

	if *example {
		return "", true, false, nil
	}

	if *config == "" {
		return "", false, false, fmt.Errorf("fichier de configuration requis")
	}

	return *config, false, false, nil
}

func initConfiguration() *clconfig.Config {
	configFile, shouldCreateExample, versionDisplay, err := parseCommandLineArgs()
	if err != nil {
		fmt.Println("Usage:")
		fmt.Println("  vitrine -config vitrine.yaml")
		fmt.Println("  vitrine -example  (pour créer un fichier exemple)")
		fmt.Println("  vitrine -version  (affiche la version)")
		os.Exit(1)
	}

	if versionDisplay {
		fmt.Println(VERSION)
		os.Exit(0)
	}

	clconfig.CreateExample(shouldCreateExample, configFile)

	conf, err := clconfig.Load(configFile)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	return conf
}

func newServer(site *clsite.Site) (*gin.Engine, error) {
	conf := site.Configuration
	if conf.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// liste vide: aucun proxy de confiance, X-Forwarded-For est ignoré par c.ClientIP()
	if err := r.SetTrustedProxies(conf.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trustedproxies invalide: %w", err)
	}
	if conf.TrustedPlatform != "" {
		switch conf.TrustedPlatform {
		case "cloudflare":
			r.TrustedPlatform = gin.PlatformCloudflare
		case "google":
			r.TrustedPlatform = gin.PlatformGoogleAppEngine
		case "flyio":
			r.TrustedPlatform = gin.PlatformFlyIO
		default:
			r.TrustedPlatform = conf.TrustedPlatform
		}
	}

	clmiddleware.InitMiddleware(r, conf)

	if err := setRoutes(r, site); err != nil {
		return nil, err
	}
	return r, nil
}

func setRoutes(r *gin.Engine, site *clsite.Site) error {
	conf := site.Configuration

	loginLimiter, err := clmiddleware.NewLimiter(conf.Limits.Login, site.Redis)
	if err != nil {
		return err
	}
	formsLimiter, err := clmiddleware.NewLimiter(conf.Limits.Forms, site.Redis)
	if err != nil {
		return err
	}

	authRequired := clmiddleware.AuthRequired(site.Users)
	optionalAuth := clmiddleware.OptionalAuth(site.Users)

	var contactCaptcha handlers_contact.CaptchaVerifier
	if conf.Contact.Captcha {
		contactCaptcha = site.Captcha
	}

	pages := handlers_pages.NewPagesHandler(conf.Site.PagesDir, conf.Production)
	analytics := handlers_analytics.NewAnalyticsHandler(site.Analytics, site.Recorder)
	contact := handlers_contact.NewContactHandler(site.Contacts, contactCaptcha)
	portfolio := handlers_portfolio.NewPortfolioHandler(site.Portfolios)
	feedback := handlers_feedback.NewFeedbackHandler(site.Feedbacks, conf.Site.BaseURL)
	settings := handlers_settings.NewSettingsHandler(site.Settings)
	auth := handlers_auth.NewAuthHandler(site.Users)
	upload := handlers_upload.NewUploadHandler(site.Uploader)
	captcha := handlers_captcha.NewCaptchaHandler(site.Captcha)
	health := handlers_health.NewHealthHandler(site, site.Version)
	rss := handlers_rss.NewRSSHandler(site.Portfolios, conf.Site.Name, conf.Site.BaseURL, conf.Site.StaticPath, site.Version)

	//default
	r.NoRoute(pages.NotFound)

	// Route statiques
	r.Static("/static", conf.Site.StaticPath)
	r.GET("/assets/*file", pages.Asset)

	// Flux RSS
	r.GET("/rss.xml", rss.Feed)

	// Pages publiques
	public := r.Group("/")
	if conf.Analytics.ServerSide {
		public.Use(clmiddleware.TrackPages(site.Recorder))
	}
	public.GET("/", pages.Page)
	public.GET("/:page", pages.Page)
	public.GET("/feedback/:token", pages.Named("feedback"))

	api := r.Group("/api")
	{
		api.GET("/ping", health.Ping)
		api.GET("/health", health.Health)
		api.GET("/captcha", captcha.Generate)

		api.POST("/analytics/track", analytics.Track)
		api.GET("/analytics/stats", authRequired, analytics.GetStats30Days)
		api.GET("/analytics/realtime", authRequired, analytics.GetRealtimeStats)

		api.POST("/contact", formsLimiter, contact.Submit)
		api.GET("/contact", authRequired, contact.List)
		api.PATCH("/contact/:id", authRequired, contact.Patch)
		api.DELETE("/contact/:id", authRequired, contact.Delete)

		api.GET("/portfolio", portfolio.List)
		api.GET("/portfolio/:id", portfolio.Get)
		api.POST("/portfolio", authRequired, portfolio.Create)
		api.PATCH("/portfolio/:id", authRequired, portfolio.Update)
		api.DELETE("/portfolio/:id", authRequired, portfolio.Delete)
		api.POST("/portfolio/:id/media", authRequired, portfolio.AddMedia)
		api.DELETE("/portfolio/media/:id", authRequired, portfolio.DeleteMedia)

		api.GET("/feedback", optionalAuth, feedback.List)
		api.POST("/feedback", authRequired, feedback.Create)
		api.GET("/feedback/:token", feedback.GetByToken)
		api.POST("/feedback/:token", formsLimiter, feedback.SubmitByToken)
		api.PATCH("/feedback/manage/:id", authRequired, feedback.Patch)
		api.DELETE("/feedback/manage/:id", authRequired, feedback.Delete)

		api.GET("/settings", settings.Get)
		api.PATCH("/settings", authRequired, settings.Patch)

		api.POST("/auth/login", loginLimiter, auth.Login)
		api.POST("/auth/register", optionalAuth, auth.Register)
		api.POST("/auth/logout", auth.Logout)
		api.GET("/users", authRequired, auth.ListUsers)

		api.POST("/upload", authRequired, upload.Upload)
	}

	return nil
}

// startMetrics écoute sur un port séparé, rien si listen.metrics est vide
func startMetrics(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	srv := &http.Server{Addr: addr, Handler: observer.Handler(), ReadHeaderTimeout: 5 * time.Second}
	log.Info().Msgf("Metrics disponible sur http://%s/metrics", addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Erreur serveur metrics")
		}
	}()
	return srv
}

// startServer sert jusqu'à l'annulation du contexte puis arrête proprement
func startServer(ctx context.Context, r *gin.Engine, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Website démarré sur http://%s", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Arrêt du serveur")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if BuildID == "" {
		BuildID = VERSION
	}

	conf := initConfiguration()
	cllog.InitLogger(conf.Logger, conf.Production)
	clconfig.DisplayConfiguration(conf, VERSION)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	site, err := clsite.New(ctx, conf, VERSION, BuildID)
	if err != nil {
		log.Fatal().Err(err).Msg("Erreur initialisation")
	}

	r, err := newServer(site)
	if err != nil {
		site.Close()
		log.Fatal().Err(err).Msg("Erreur initialisation du serveur")
	}

	metrics := startMetrics(conf.Listen.Metrics)

	if err := startServer(ctx, r, conf.Listen.Website); err != nil {
		log.Error().Err(err).Msg("Erreur serveur")
	}

	if metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		metrics.Shutdown(shutdownCtx)
		cancel()
	}
	if err := site.Close(); err != nil {
		log.Error().Err(err).Msg("Erreur fermeture des ressources")
	}
	log.Info().Msg("Arrêt terminé")
}
