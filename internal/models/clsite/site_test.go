package clsite

import (
	"context"
	"testing"
	"vitrine/internal/clconfig"
	"vitrine/internal/models/clanalytics"
	"vitrine/internal/models/clusers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *clconfig.Config {
	conf := &clconfig.Config{}
	conf.Database.Db = "sqlite"
	conf.Database.Path = ":memory:"
	conf.Logger.Level = "error"
	conf.Site.Name = "Vitrine"
	conf.Site.StaticPath = t.TempDir()
	conf.Auth.Secret = "secret-de-test"
	conf.Auth.TTLHours = 1
	conf.Upload.Backend = "local"
	conf.Upload.MaxWidth = 800
	conf.User.Email = "Admin@Vitrine.test"
	conf.User.Name = "Admin"
	conf.User.Hash = "hash-argon2"
	return conf
}

func TestNewOpensAndWiresEverything(t *testing.T) {
	ctx := context.Background()
	site, err := New(ctx, testConfig(t), "1.0.0", "abc")
	require.NoError(t, err)
	defer site.Close()

	for _, model := range Models() {
		assert.True(t, site.Db.Migrator().HasTable(model))
	}

	assert.NotNil(t, site.Recorder)
	assert.NotNil(t, site.Analytics)
	assert.NotNil(t, site.Contacts)
	assert.NotNil(t, site.Portfolios)
	assert.NotNil(t, site.Feedbacks)
	assert.NotNil(t, site.Settings)
	assert.NotNil(t, site.Users)
	assert.NotNil(t, site.Captcha)
	assert.NotNil(t, site.Uploader)
	assert.Nil(t, site.Redis)
	assert.NoError(t, site.Ping(ctx))

	users, err := site.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@vitrine.test", users[0].Email)
	assert.Equal(t, clusers.RoleSuperAdmin, users[0].Role)

	settings, err := site.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Vitrine", settings.CompanyName)
}

func TestNewRejectsUnknownDatabase(t *testing.T) {
	conf := testConfig(t)
	conf.Database.Db = "oracle"
	_, err := New(context.Background(), conf, "", "")
	assert.Error(t, err)
}

func TestNewWithDBKeepsCallerDatabaseOpen(t *testing.T) {
	ctx := context.Background()
	conf := testConfig(t)
	db, err := OpenDatabase(ctx, conf)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	conf.Analytics.Workers = 4
	site, err := NewWithDB(ctx, conf, db, "", "")
	require.NoError(t, err)

	site.Recorder.TrackAsync(clanalytics.Visit{Page: "/work"})
	require.NoError(t, site.Close())
	assert.NoError(t, sqlDB.Ping())

	var row clanalytics.DailyAnalytics
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, int64(1), row.WorkViews)
}

func TestNewWithDBInvalidSettings(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*clconfig.Config)
	}{
		{"fuseau inconnu", func(c *clconfig.Config) { c.Analytics.Timezone = "Mars/Olympus" }},
		{"geoip absente", func(c *clconfig.Config) { c.Analytics.GeoIP = "/nulle/part.mmdb" }},
		{"cron invalide", func(c *clconfig.Config) {
			c.Analytics.RetentionDays = 30
			c.Analytics.CleanupCron = "pas un cron"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := testConfig(t)
			db, err := OpenDatabase(ctx, conf)
			require.NoError(t, err)
			sqlDB, _ := db.DB()
			defer sqlDB.Close()

			tt.modify(conf)
			site, err := NewWithDB(ctx, conf, db, "", "")
			assert.Error(t, err)
			assert.Nil(t, site)
		})
	}
}

func TestJWTSecret(t *testing.T) {
	assert.Equal(t, []byte("abc"), jwtSecret("abc"))

	a, b := jwtSecret(""), jwtSecret("")
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
