package clanalytics

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"vitrine/internal/apperrors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ============= Setup =============

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// une seule connexion: une seule base en mémoire partagée
	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(&PageView{}, &DailyAnalytics{}))
	return testDB
}

func getDay(t *testing.T, db *gorm.DB, date string) DailyAnalytics {
	var row DailyAnalytics
	require.NoError(t, db.Where("date = ?", date).First(&row).Error)
	return row
}

// ============= Tests =============

func TestCounterForPage(t *testing.T) {
	tests := []struct {
		page    string
		want    Counter
		matched bool
	}{
		{"/", CounterHome, true},
		{"/work", CounterWork, true},
		{"/contact", CounterContact, true},
		{"/work/", "", false},
		{"/Work", "", false},
		{"/pricing", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			counter, ok := CounterForPage(tt.page)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.want, counter)
		})
	}
}

func TestTrackIncrementsCounters(t *testing.T) {
	tests := []struct {
		page                 string
		home, work, contact int64
	}{
		{"/", 1, 0, 0},
		{"/work", 0, 1, 0},
		{"/contact", 0, 0, 1},
		{"/services", 0, 0, 0},
		{"/work?ref=x", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			db := setupTestDB(t)
			rec := NewRecorder(db)

			require.NoError(t, rec.Track(context.Background(), Visit{Page: tt.page, UserAgent: "test"}))

			row := getDay(t, db, rec.Day())
			assert.Equal(t, int64(1), row.TotalViews)
			assert.Equal(t, tt.home, row.HomeViews)
			assert.Equal(t, tt.work, row.WorkViews)
			assert.Equal(t, tt.contact, row.ContactViews)
			assert.Equal(t, int64(0), row.FormSubmissions)

			var views int64
			db.Model(&PageView{}).Count(&views)
			assert.Equal(t, int64(1), views)
		})
	}
}

func TestTrackSecondViewIncrements(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	require.NoError(t, rec.Track(ctx, Visit{Page: "/"}))
	before := getDay(t, db, rec.Day())
	require.NoError(t, rec.Track(ctx, Visit{Page: "/contact"}))
	after := getDay(t, db, rec.Day())

	assert.Equal(t, before.TotalViews+1, after.TotalViews)
	assert.Equal(t, before.HomeViews, after.HomeViews)
	assert.Equal(t, before.ContactViews+1, after.ContactViews)
	assert.Equal(t, before.ID, after.ID)

	var days int64
	db.Model(&DailyAnalytics{}).Count(&days)
	assert.Equal(t, int64(1), days)
}

func TestTrackConcurrentViews(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- rec.Track(context.Background(), Visit{Page: "/work"})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	row := getDay(t, db, rec.Day())
	assert.Equal(t, int64(n), row.TotalViews)
	assert.Equal(t, int64(n), row.WorkViews)

	var views int64
	db.Model(&PageView{}).Count(&views)
	assert.Equal(t, int64(n), views)
}

func TestTrackRejectsEmptyPage(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	err := rec.Track(context.Background(), Visit{Page: "   "})
	assert.True(t, apperrors.IsValidationError(err))

	var days int64
	db.Model(&DailyAnalytics{}).Count(&days)
	assert.Equal(t, int64(0), days)
}

func TestTrackStoresMetadata(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)

	longUA := strings.Repeat("a", 600)
	require.NoError(t, rec.Track(context.Background(), Visit{
		Page:      "/pricing",
		UserAgent: longUA,
		IP:        " 203.0.113.7 ",
		Referrer:  strings.Repeat("r", 700),
	}))
	require.NoError(t, rec.Track(context.Background(), Visit{Page: "/pricing"}))

	var views []PageView
	require.NoError(t, db.Order("id").Find(&views).Error)
	require.Len(t, views, 2)

	assert.Len(t, views[0].UserAgent, 500)
	require.NotNil(t, views[0].IPAddress)
	assert.Equal(t, "203.0.113.7", *views[0].IPAddress)
	require.NotNil(t, views[0].Referrer)
	assert.Len(t, *views[0].Referrer, 500)

	assert.Nil(t, views[1].IPAddress)
	assert.Nil(t, views[1].Referrer)
	assert.Empty(t, views[1].Country)
}

func TestTrackIncrementsEvenIfPageViewFails(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	require.NoError(t, db.Migrator().DropTable(&PageView{}))

	err := rec.Track(context.Background(), Visit{Page: "/work"})
	assert.Error(t, err)

	row := getDay(t, db, rec.Day())
	assert.Equal(t, int64(1), row.TotalViews)
	assert.Equal(t, int64(1), row.WorkViews)
}

func TestTrackAsyncWithPool(t *testing.T) {
	db := setupTestDB(t)
	const n = 20
	pool, err := NewPool(2 * n)
	require.NoError(t, err)
	rec := NewRecorder(db, WithPool(pool))

	for i := 0; i < n; i++ {
		rec.TrackAsync(Visit{Page: "/"})
	}
	require.NoError(t, rec.Close(5*time.Second))

	row := getDay(t, db, rec.Day())
	assert.Equal(t, int64(n), row.TotalViews)
	assert.Equal(t, int64(n), row.HomeViews)
}

func TestTrackAsyncNeverPanicsOnError(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	require.NoError(t, db.Migrator().DropTable(&DailyAnalytics{}, &PageView{}))

	assert.NotPanics(t, func() {
		rec.TrackAsync(Visit{Page: "/"})
	})
}

func TestIncrementFormSubmissions(t *testing.T) {
	db := setupTestDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	require.NoError(t, rec.IncrementFormSubmissions(ctx))
	require.NoError(t, rec.IncrementFormSubmissions(ctx))

	row := getDay(t, db, rec.Day())
	assert.Equal(t, int64(2), row.FormSubmissions)
	assert.Equal(t, int64(0), row.TotalViews)
}

func TestDayUsesLocation(t *testing.T) {
	fixed := time.Date(2025, time.March, 1, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)

	rec := NewRecorder(nil, WithClock(func() time.Time { return fixed }), WithLocation(tokyo))
	assert.Equal(t, "2025-03-02", rec.Day())

	rec = NewRecorder(nil, WithClock(func() time.Time { return fixed }), WithLocation(time.UTC))
	assert.Equal(t, "2025-03-01", rec.Day())
}

func TestUpsertIsSingleStatementOnMySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO `daily_analytics` .* ON DUPLICATE KEY UPDATE .*`form_submissions`=form_submissions \\+ \\?").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := NewRecorder(db)
	require.NoError(t, rec.IncrementFormSubmissions(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnQualifiedOnPostgres(t *testing.T) {
	pg := &gorm.DB{Config: &gorm.Config{Dialector: postgres.New(postgres.Config{})}}
	assert.Equal(t, "daily_analytics.work_views", NewRecorder(pg).column(CounterWork))

	lite := &gorm.DB{Config: &gorm.Config{Dialector: sqlite.Open(":memory:")}}
	assert.Equal(t, "work_views", NewRecorder(lite).column(CounterWork))
}

func TestVisitorID(t *testing.T) {
	assert.Empty(t, visitorID("", ""))
	id := visitorID("203.0.113.7", "Mozilla")
	assert.Len(t, id, 32)
	assert.Equal(t, id, visitorID("203.0.113.7", "Mozilla"))
	assert.NotEqual(t, id, visitorID("203.0.113.8", "Mozilla"))
}
