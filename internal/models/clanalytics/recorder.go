package clanalytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"
	"vitrine/internal/apperrors"
	"vitrine/internal/clredis"
	"vitrine/internal/models/cltext"
	"vitrine/internal/observer"

	"github.com/oschwald/geoip2-golang/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxFieldLength = 500
	trackTimeout   = 5 * time.Second
)

// Visit décrit une vue de page et les métadonnées de la requête
type Visit struct {
	Page      string
	UserAgent string
	IP        string
	Referrer  string
}

// Recorder enregistre les vues: une ligne page_views et l'incrément du jour
type Recorder struct {
	db       *gorm.DB
	counters *clredis.DayCounters
	geo      *geoip2.Reader
	pool     *ants.Pool
	loc      *time.Location
	now      func() time.Time
}

type RecorderOption func(*Recorder)

// WithRedis recopie les compteurs du jour dans redis
func WithRedis(client *redis.Client) RecorderOption {
	return func(r *Recorder) {
		if client != nil {
			r.counters = clredis.NewDayCounters(client)
		}
	}
}

func WithGeoIP(reader *geoip2.Reader) RecorderOption {
	return func(r *Recorder) {
		r.geo = reader
	}
}

// WithPool exécute TrackAsync sur le pool, sinon l'appel est synchrone
func WithPool(pool *ants.Pool) RecorderOption {
	return func(r *Recorder) {
		r.pool = pool
	}
}

func WithLocation(loc *time.Location) RecorderOption {
	return func(r *Recorder) {
		if loc != nil {
			r.loc = loc
		}
	}
}

func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

func NewRecorder(db *gorm.DB, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		db:  db,
		loc: time.Local,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewPool crée un pool non bloquant, une tâche refusée est abandonnée
func NewPool(size int) (*ants.Pool, error) {
	return ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			observer.AnalyticsFailuresTotal.WithLabelValues("panic").Inc()
			log.Error().Interface("panic", p).Msg("Panic dans le pool analytics")
		}),
	)
}

// Day retourne la clé du jour courant
func (r *Recorder) Day() string {
	return r.now().In(r.loc).Format(DateLayout)
}

// Track écrit la vue puis incrémente le jour. Les deux écritures sont
// indépendantes: l'échec de la première n'empêche pas la seconde.
func (r *Recorder) Track(ctx context.Context, v Visit) error {
	page := cltext.Clean(v.Page, maxFieldLength)
	if page == "" {
		return apperrors.NewValidation("le champ page est requis")
	}

	now := r.now()
	view := PageView{
		Page:      page,
		UserAgent: cltext.Clean(v.UserAgent, maxFieldLength),
		IPAddress: cltext.CleanPtr(v.IP, 64),
		Referrer:  cltext.CleanPtr(v.Referrer, maxFieldLength),
		Country:   r.country(v.IP),
		CreatedAt: now,
	}

	var errs []error
	if err := r.db.WithContext(ctx).Create(&view).Error; err != nil {
		observer.AnalyticsFailuresTotal.WithLabelValues("page_view").Inc()
		errs = append(errs, fmt.Errorf("page view: %w", err))
	}

	counters := []Counter{CounterTotal}
	label := "other"
	if counter, ok := CounterForPage(page); ok {
		counters = append(counters, counter)
		label = strings.TrimSuffix(string(counter), "_views")
	}

	if err := r.increment(ctx, now, counters...); err != nil {
		observer.AnalyticsFailuresTotal.WithLabelValues("daily").Inc()
		errs = append(errs, fmt.Errorf("daily analytics: %w", err))
	} else {
		observer.PageViewsTrackedTotal.WithLabelValues(label).Inc()
	}

	r.mirror(ctx, now, visitorID(v.IP, v.UserAgent), counters...)

	return errors.Join(errs...)
}

// TrackAsync enregistre la vue hors de la requête, les erreurs sont seulement loguées
func (r *Recorder) TrackAsync(v Visit) {
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
		defer cancel()
		if err := r.Track(ctx, v); err != nil {
			log.Warn().Err(err).Str("page", v.Page).Msg("Erreur enregistrement vue")
		}
	}

	if r.pool == nil {
		task()
		return
	}
	if err := r.pool.Submit(task); err != nil {
		observer.AnalyticsFailuresTotal.WithLabelValues("pool").Inc()
		log.Warn().Err(err).Str("page", v.Page).Msg("Vue ignorée, pool analytics indisponible")
	}
}

// IncrementFormSubmissions incrémente le compteur de formulaires du jour
func (r *Recorder) IncrementFormSubmissions(ctx context.Context) error {
	now := r.now()
	if err := r.increment(ctx, now, CounterForms); err != nil {
		observer.AnalyticsFailuresTotal.WithLabelValues("daily").Inc()
		return err
	}
	r.mirror(ctx, now, "", CounterForms)
	return nil
}

// Close attend la fin des tâches en cours
func (r *Recorder) Close(timeout time.Duration) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.ReleaseTimeout(timeout)
}

// increment crée la ligne du jour à 1 ou incrémente les compteurs existants,
// en une seule requête INSERT ... ON CONFLICT (ON DUPLICATE KEY sur mysql)
func (r *Recorder) increment(ctx context.Context, now time.Time, counters ...Counter) error {
	row := DailyAnalytics{
		Date:      now.In(r.loc).Format(DateLayout),
		CreatedAt: now,
		UpdatedAt: now,
	}

	assignments := map[string]any{"updated_at": now}
	for _, counter := range counters {
		switch counter {
		case CounterTotal:
			row.TotalViews = 1
		case CounterHome:
			row.HomeViews = 1
		case CounterWork:
			row.WorkViews = 1
		case CounterContact:
			row.ContactViews = 1
		case CounterForms:
			row.FormSubmissions = 1
		default:
			return fmt.Errorf("compteur inconnu %q", counter)
		}
		assignments[string(counter)] = gorm.Expr(r.column(counter)+" + ?", 1)
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&row).Error
}

// postgres refuse une colonne non qualifiée dans DO UPDATE SET
func (r *Recorder) column(counter Counter) string {
	if r.db.Dialector.Name() == "postgres" {
		return DailyAnalytics{}.TableName() + "." + string(counter)
	}
	return string(counter)
}

func (r *Recorder) mirror(ctx context.Context, now time.Time, visitor string, counters ...Counter) {
	if r.counters == nil {
		return
	}
	fields := make([]string, len(counters))
	for i, counter := range counters {
		fields[i] = string(counter)
	}
	if err := r.counters.Incr(ctx, now.In(r.loc).Format(DateLayout), visitor, fields...); err != nil {
		observer.AnalyticsFailuresTotal.WithLabelValues("redis").Inc()
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Erreur mise à jour compteurs redis")
	}
}

func (r *Recorder) country(ip string) string {
	if r.geo == nil || ip == "" {
		return ""
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return ""
	}
	record, err := r.geo.Country(addr)
	if err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Identifiant visiteur anonyme, hash de l'IP et du user agent
func visitorID(ip, userAgent string) string {
	if ip == "" && userAgent == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(ip + userAgent))
	return hex.EncodeToString(hash[:])[:32]
}
