package clsettings

import (
	"context"
	"errors"
	"fmt"
	"time"
	"vitrine/internal/models/cltext"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SingletonKey valeur unique de la colonne singleton
const SingletonKey = "default"

// CompanySettings coordonnées de la société, une seule ligne
type CompanySettings struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Singleton        string    `json:"-" gorm:"size:16;uniqueIndex;not null"`
	CompanyName      string    `json:"companyName" gorm:"size:255"`
	Email            string    `json:"email" gorm:"size:255"`
	Phone            string    `json:"phone" gorm:"size:100"`
	Whatsapp         string    `json:"whatsapp" gorm:"size:100"`
	Address          string    `json:"address" gorm:"size:500"`
	SecondaryAddress string    `json:"secondaryAddress" gorm:"size:500"`
	Tagline          string    `json:"tagline" gorm:"size:500"`
	Description      string    `json:"description" gorm:"type:text"`
	LinkedinURL      string    `json:"linkedinUrl" gorm:"size:500"`
	GithubURL        string    `json:"githubUrl" gorm:"size:500"`
	TwitterURL       string    `json:"twitterUrl" gorm:"size:500"`
	InstagramURL     string    `json:"instagramUrl" gorm:"size:500"`
	CreatedAt        time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// PatchRequest seuls les champs présents sont modifiés
type PatchRequest struct {
	CompanyName      *string `json:"companyName"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	Whatsapp         *string `json:"whatsapp"`
	Address          *string `json:"address"`
	SecondaryAddress *string `json:"secondaryAddress"`
	Tagline          *string `json:"tagline"`
	Description      *string `json:"description"`
	LinkedinURL      *string `json:"linkedinUrl"`
	GithubURL        *string `json:"githubUrl"`
	TwitterURL       *string `json:"twitterUrl"`
	InstagramURL     *string `json:"instagramUrl"`
}

type SettingsService struct {
	db       *gorm.DB
	defaults CompanySettings
}

// NewSettingsService defaults sert à créer la première ligne
func NewSettingsService(db *gorm.DB, defaults CompanySettings) *SettingsService {
	return &SettingsService{db: db, defaults: defaults}
}

// Get lit la ligne unique, créée avec les valeurs par défaut si absente.
// Deux premiers appels concurrents ne créent qu'une ligne (ON CONFLICT DO NOTHING).
func (s *SettingsService) Get(ctx context.Context) (*CompanySettings, error) {
	db := s.db.WithContext(ctx)

	settings, err := s.find(db)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	row := s.defaults
	row.ID = 0
	row.Singleton = SingletonKey
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "singleton"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("error creating settings: %w", err)
	}

	return s.find(db)
}

// Patch fusionne les champs présents dans la ligne unique
func (s *SettingsService) Patch(ctx context.Context, req PatchRequest) (*CompanySettings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	set := func(column string, value *string, max int) {
		if value != nil {
			updates[column] = cltext.Clean(*value, max)
		}
	}
	set("company_name", req.CompanyName, 255)
	set("email", req.Email, 255)
	set("phone", req.Phone, 100)
	set("whatsapp", req.Whatsapp, 100)
	set("address", req.Address, 500)
	set("secondary_address", req.SecondaryAddress, 500)
	set("tagline", req.Tagline, 500)
	set("description", req.Description, 0)
	set("linkedin_url", req.LinkedinURL, 500)
	set("github_url", req.GithubURL, 500)
	set("twitter_url", req.TwitterURL, 500)
	set("instagram_url", req.InstagramURL, 500)

	if len(updates) == 0 {
		return current, nil
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&CompanySettings{ID: current.ID}).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.find(db)
}

func (s *SettingsService) find(db *gorm.DB) (*CompanySettings, error) {
	var settings CompanySettings
	if err := db.Where("singleton = ?", SingletonKey).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}
