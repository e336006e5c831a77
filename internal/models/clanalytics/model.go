package clanalytics

import "time"

// PageView représente une vue de page, jamais modifiée
type PageView struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Page      string    `gorm:"column:page_path;size:500;index;not null" json:"page"`
	UserAgent string    `gorm:"size:500" json:"userAgent"`
	IPAddress *string   `gorm:"size:64" json:"ipAddress"`
	Referrer  *string   `gorm:"size:500" json:"referrer"`
	Country   string    `gorm:"size:2" json:"country"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// DailyAnalytics agrège les compteurs d'une journée (date unique)
type DailyAnalytics struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Date            string    `gorm:"size:10;uniqueIndex;not null" json:"date"`
	TotalViews      int64     `gorm:"not null" json:"totalViews"`
	HomeViews       int64     `gorm:"not null" json:"homeViews"`
	WorkViews       int64     `gorm:"not null" json:"workViews"`
	ContactViews    int64     `gorm:"not null" json:"contactViews"`
	FormSubmissions int64     `gorm:"not null" json:"formSubmissions"`
	CreatedAt       time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Counter identifie une colonne de compteur journalier
type Counter string

const (
	CounterTotal   Counter = "total_views"
	CounterHome    Counter = "home_views"
	CounterWork    Counter = "work_views"
	CounterContact Counter = "contact_views"
	CounterForms   Counter = "form_submissions"
)

// DateLayout format des clés de jour
const DateLayout = "2006-01-02"

func (PageView) TableName() string {
	return "page_views"
}

func (DailyAnalytics) TableName() string {
	return "daily_analytics"
}

// CounterForPage associe un chemin à son compteur dédié.
// Seuls "/", "/work" et "/contact" ont un compteur, les autres chemins ne comptent que dans le total.
func CounterForPage(page string) (Counter, bool) {
	switch page {
	case "/":
		return CounterHome, true
	case "/work":
		return CounterWork, true
	case "/contact":
		return CounterContact, true
	default:
		return "", false
	}
}
