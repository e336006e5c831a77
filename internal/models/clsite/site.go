package clsite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"path/filepath"
	"time"
	"vitrine/internal/clconfig"
	"vitrine/internal/clredis"
	"vitrine/internal/gormzerologger"
	"vitrine/internal/models/clanalytics"
	"vitrine/internal/models/clcaptchas"
	"vitrine/internal/models/clcontact"
	"vitrine/internal/models/clfeedback"
	"vitrine/internal/models/clportfolio"
	"vitrine/internal/models/clsettings"
	"vitrine/internal/models/clstorage"
	"vitrine/internal/models/clusers"

	"github.com/cenkalti/backoff/v4"
	"github.com/oschwald/geoip2-golang/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const closeTimeout = 10 * time.Second

// Site regroupe les clients et services construits au démarrage,
// passé explicitement aux handlers
type Site struct {
	Configuration *clconfig.Config
	Version       string
	BuildID       string

	Db       *gorm.DB
	Redis    *redis.Client
	GeoIP    *geoip2.Reader
	Captcha  *clcaptchas.Captchas
	Storage  clstorage.Storage
	Uploader *clstorage.Uploader

	Recorder   *clanalytics.Recorder
	Analytics  *clanalytics.AnalyticsService
	Contacts   *clcontact.ContactService
	Portfolios *clportfolio.PortfolioService
	Feedbacks  *clfeedback.FeedbackService
	Settings   *clsettings.SettingsService
	Users      *clusers.UserService

	ownsDB bool
}

// Models tables gérées par AutoMigrate
func Models() []any {
	return []any{
		&clanalytics.PageView{},
		&clanalytics.DailyAnalytics{},
		&clcontact.ContactMessage{},
		&clportfolio.Portfolio{},
		&clportfolio.Media{},
		&clportfolio.TeamMember{},
		&clfeedback.Feedback{},
		&clsettings.CompanySettings{},
		&clusers.User{},
	}
}

// New ouvre la base puis construit le site
func New(ctx context.Context, conf *clconfig.Config, version, buildID string) (*Site, error) {
	db, err := OpenDatabase(ctx, conf)
	if err != nil {
		return nil, err
	}
	site, err := NewWithDB(ctx, conf, db, version, buildID)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, err
	}
	site.ownsDB = true
	return site, nil
}

// OpenDatabase ouvre la connexion, vérifie l'accès avec des essais espacés puis migre
func OpenDatabase(ctx context.Context, conf *clconfig.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch conf.Database.Db {
	case "sqlite":
		dialector = sqlite.Open(conf.Database.Path)
	case "mysql":
		dialector = mysql.Open(conf.Database.Dsn)
	case "postgres":
		dialector = postgres.Open(conf.Database.Dsn)
	default:
		return nil, fmt.Errorf("le type de database doit etre sqlite, mysql ou postgres")
	}

	gormLogger := gormzerologger.New(gormzerologger.LevelFor(conf.Logger.Level, conf.Production))
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("erreur connexion base de données: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if conf.Database.Db == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	notify := func(err error, d time.Duration) {
		log.Warn().Err(err).Dur("after", d).Msg("Base de données injoignable, nouvel essai")
	}
	if err := backoff.RetryNotify(func() error { return sqlDB.PingContext(ctx) }, backoff.WithContext(b, ctx), notify); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("base de données injoignable: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("erreur migration: %w", err)
	}
	return db, nil
}

// NewWithDB construit les services sur une base déjà ouverte et migrée.
// La base reste à la charge de l'appelant.
func NewWithDB(ctx context.Context, conf *clconfig.Config, db *gorm.DB, version, buildID string) (_ *Site, err error) {
	site := &Site{
		Configuration: conf,
		Version:       version,
		BuildID:       buildID,
		Db:            db,
		Redis:         clredis.New(conf.Database.Redis.Addr, conf.Database.Redis.Db),
	}
	site.Captcha = clcaptchas.New(site.Redis)
	defer func() {
		if err != nil {
			site.releaseClients()
		}
	}()

	loc := time.Local
	if conf.Analytics.Timezone != "" {
		if loc, err = time.LoadLocation(conf.Analytics.Timezone); err != nil {
			return nil, fmt.Errorf("fuseau horaire invalide %q: %w", conf.Analytics.Timezone, err)
		}
	}

	if conf.Analytics.GeoIP != "" {
		reader, err := geoip2.Open(conf.Analytics.GeoIP)
		if err != nil {
			return nil, fmt.Errorf("erreur ouverture base GeoIP: %w", err)
		}
		site.GeoIP = reader
	}

	if err := site.initStorage(ctx); err != nil {
		return nil, err
	}

	opts := []clanalytics.RecorderOption{
		clanalytics.WithLocation(loc),
		clanalytics.WithRedis(site.Redis),
	}
	if site.GeoIP != nil {
		opts = append(opts, clanalytics.WithGeoIP(site.GeoIP))
	}
	if conf.Analytics.Workers > 0 {
		pool, err := clanalytics.NewPool(conf.Analytics.Workers)
		if err != nil {
			return nil, fmt.Errorf("erreur création pool analytics: %w", err)
		}
		opts = append(opts, clanalytics.WithPool(pool))
	}
	site.Recorder = clanalytics.NewRecorder(db, opts...)

	site.Contacts = clcontact.NewContactService(db, site.Recorder)
	site.Analytics = clanalytics.NewAnalyticsService(db, site.Redis, site.Contacts, loc)
	site.Portfolios = clportfolio.NewPortfolioService(db, conf.Portfolio.Seed)
	site.Feedbacks = clfeedback.NewFeedbackService(db, site.Portfolios)
	site.Settings = clsettings.NewSettingsService(db, clsettings.CompanySettings{CompanyName: conf.Site.Name})

	ttl := time.Duration(conf.Auth.TTLHours) * time.Hour
	site.Users = clusers.NewUserService(db, jwtSecret(conf.Auth.Secret), ttl)
	if err := site.Users.EnsureSuperAdmin(ctx, conf.User.Email, conf.User.Name, conf.User.Hash); err != nil {
		return nil, fmt.Errorf("erreur création du compte administrateur: %w", err)
	}

	if err := site.Analytics.StartCleanup(conf.Analytics.CleanupCron, conf.Analytics.RetentionDays); err != nil {
		return nil, err
	}

	return site, nil
}

func (s *Site) initStorage(ctx context.Context) error {
	conf := s.Configuration
	switch conf.Upload.Backend {
	case "gcs":
		store, err := clstorage.NewGCS(ctx, conf.Upload.Bucket, conf.Upload.Credentials)
		if err != nil {
			return err
		}
		s.Storage = store
	default:
		s.Storage = clstorage.NewLocal(filepath.Join(conf.Site.StaticPath, "uploads"), "/static/uploads")
	}
	s.Uploader = clstorage.NewUploader(s.Storage, conf.Upload.MaxWidth)
	return nil
}

// secret aléatoire si absent: les jetons ne survivent pas au redémarrage
func jwtSecret(secret string) []byte {
	if secret != "" {
		return []byte(secret)
	}
	log.Warn().Msg("auth.secret absent, secret JWT aléatoire généré pour ce processus")
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msg("Erreur génération secret JWT")
	}
	return b
}

// Close libère les ressources dans l'ordre inverse de leur création,
// la base n'est fermée que si elle a été ouverte par New
func (s *Site) Close() error {
	errs := s.releaseClients()
	if s.ownsDB && s.Db != nil {
		if sqlDB, err := s.Db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Site) releaseClients() []error {
	var errs []error
	if s.Analytics != nil {
		s.Analytics.Stop()
	}
	if s.Recorder != nil {
		if err := s.Recorder.Close(closeTimeout); err != nil {
			errs = append(errs, fmt.Errorf("analytics: %w", err))
		}
	}
	if s.Storage != nil {
		if err := s.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.GeoIP != nil {
		if err := s.GeoIP.Close(); err != nil {
			errs = append(errs, fmt.Errorf("geoip: %w", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errs
}

// Ping vérifie l'accès à la base
func (s *Site) Ping(ctx context.Context) error {
	sqlDB, err := s.Db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
