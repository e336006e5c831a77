package clanalytics

import (
	"context"
	"errors"
	"fmt"
	"time"
	"vitrine/internal/clredis"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	reportWindow     = 30 * 24 * time.Hour
	reportDays       = 30
	recentViewsLimit = 20
)

// EnquiryCounter compte les demandes de contact (total et non lues)
type EnquiryCounter interface {
	CountEnquiries(ctx context.Context) (total int64, unread int64, err error)
}

type AnalyticsService struct {
	db        *gorm.DB
	counters  *clredis.DayCounters
	enquiries EnquiryCounter
	loc       *time.Location
	now       func() time.Time
	cron      *cron.Cron
}

func NewAnalyticsService(db *gorm.DB, redisClient *redis.Client, enquiries EnquiryCounter, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	as := &AnalyticsService{
		db:        db,
		enquiries: enquiries,
		loc:       loc,
		now:       time.Now,
	}
	if redisClient != nil {
		as.counters = clredis.NewDayCounters(redisClient)
	}
	return as
}

// Totals somme des compteurs sur la période
type Totals struct {
	TotalViews      int64 `json:"totalViews"`
	HomeViews       int64 `json:"homeViews"`
	WorkViews       int64 `json:"workViews"`
	ContactViews    int64 `json:"contactViews"`
	FormSubmissions int64 `json:"formSubmissions"`
}

type RecentView struct {
	Page      string    `json:"page"`
	Referrer  *string   `json:"referrer"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats rapport affiché sur le tableau de bord
type Stats struct {
	Today           DailyAnalytics   `json:"today"`
	Last30Days      Totals           `json:"last30Days"`
	History         []DailyAnalytics `json:"history"`
	TotalEnquiries  int64            `json:"totalEnquiries"`
	UnreadEnquiries int64            `json:"unreadEnquiries"`
	RecentViews     []RecentView     `json:"recentViews"`
}

// GetStats30Days construit le rapport. La fenêtre porte sur created_at
// (now - 30x24h) et non sur la chaîne date.
func (as *AnalyticsService) GetStats30Days(ctx context.Context) (*Stats, error) {
	now := as.now()
	since := now.Add(-reportWindow)
	db := as.db.WithContext(ctx)

	stats := &Stats{
		History:     make([]DailyAnalytics, 0, reportDays),
		RecentViews: make([]RecentView, 0, recentViewsLimit),
	}

	err := db.Where("created_at >= ?", since).
		Order("date DESC").
		Limit(reportDays).
		Find(&stats.History).Error
	if err != nil {
		return nil, fmt.Errorf("error getting daily analytics: %w", err)
	}
	stats.Last30Days = Sum(stats.History)

	today := now.In(as.loc).Format(DateLayout)
	err = db.Where("date = ?", today).First(&stats.Today).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats.Today = DailyAnalytics{Date: today}
	} else if err != nil {
		return nil, fmt.Errorf("error getting today analytics: %w", err)
	}

	if as.enquiries != nil {
		stats.TotalEnquiries, stats.UnreadEnquiries, err = as.enquiries.CountEnquiries(ctx)
		if err != nil {
			return nil, fmt.Errorf("error counting enquiries: %w", err)
		}
	}

	err = db.Model(&PageView{}).
		Select("page_path AS page, referrer, created_at").
		Order("created_at DESC").
		Order("id DESC").
		Limit(recentViewsLimit).
		Scan(&stats.RecentViews).Error
	if err != nil {
		return nil, fmt.Errorf("error getting recent views: %w", err)
	}

	return stats, nil
}

// Sum additionne les cinq compteurs
func Sum(rows []DailyAnalytics) Totals {
	var t Totals
	for _, row := range rows {
		t.TotalViews += row.TotalViews
		t.HomeViews += row.HomeViews
		t.WorkViews += row.WorkViews
		t.ContactViews += row.ContactViews
		t.FormSubmissions += row.FormSubmissions
	}
	return t
}

// GetRealtimeStats récupère les stats du jour depuis Redis, zéros sans redis
func (as *AnalyticsService) GetRealtimeStats(ctx context.Context) (map[string]any, error) {
	today := as.now().In(as.loc).Format(DateLayout)
	result := map[string]any{
		"date":                today,
		"todayPageViews":      int64(0),
		"todayUniqueVisitors": int64(0),
		"counters":            map[string]int64{},
		"source":              "none",
	}
	if as.counters == nil {
		return result, nil
	}

	counters, visitors, err := as.counters.Day(ctx, today)
	if err != nil {
		return nil, err
	}
	result["todayPageViews"] = counters[string(CounterTotal)]
	result["todayUniqueVisitors"] = visitors
	result["counters"] = counters
	result["source"] = "redis"
	return result, nil
}

// CleanupOldPageViews supprime les vues plus anciennes que retentionDays.
// Les agrégats journaliers sont conservés.
func (as *AnalyticsService) CleanupOldPageViews(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	limit := as.now().AddDate(0, 0, -retentionDays)

	result := as.db.WithContext(ctx).Where("created_at < ?", limit).Delete(&PageView{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// StartCleanup planifie la purge des vues, rien n'est planifié si retentionDays <= 0
func (as *AnalyticsService) StartCleanup(spec string, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		deleted, err := as.CleanupOldPageViews(context.Background(), retentionDays)
		if err != nil {
			log.Error().Err(err).Msg("Cleanup failed")
			return
		}
		log.Info().Int64("deleted", deleted).Int("retention_days", retentionDays).Msg("Cleanup completed successfully")
	})
	if err != nil {
		return fmt.Errorf("cron analytics invalide %q: %w", spec, err)
	}

	c.Start()
	as.cron = c
	return nil
}

// Stop arrête la purge planifiée
func (as *AnalyticsService) Stop() {
	if as.cron != nil {
		<-as.cron.Stop().Done()
	}
}
