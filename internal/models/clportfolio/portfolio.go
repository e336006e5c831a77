package clportfolio

import (
	"html/template"
	"time"
	"vitrine/internal/models/clmarkdown"

	"gorm.io/gorm"
)

const summaryLength = 200

// Types de média acceptés
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Portfolio projet présenté sur la page /work
type Portfolio struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	Title           string        `json:"title" gorm:"size:255;not null"`
	Description     string        `json:"description" gorm:"type:text;not null"`
	DescriptionHTML template.HTML `json:"descriptionHtml" gorm:"-"`
	Summary         string        `json:"summary" gorm:"-"`
	TechStack       string        `json:"techStack" gorm:"size:500"`
	ProjectURL      string        `json:"projectUrl" gorm:"size:500"`
	Featured        bool          `json:"featured" gorm:"index"`
	DisplayOrder    int           `json:"displayOrder" gorm:"index"`
	CreatedAt       time.Time     `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt       time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`
	Media           []Media       `json:"media" gorm:"foreignKey:PortfolioID"`
	TeamMembers     []TeamMember  `json:"teamMembers" gorm:"foreignKey:PortfolioID"`
}

type Media struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PortfolioID uint      `json:"portfolioId" gorm:"not null;index"`
	Type        string    `json:"type" gorm:"size:10;not null"`
	URL         string    `json:"url" gorm:"size:1000;not null"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

type TeamMember struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	PortfolioID uint   `json:"portfolioId" gorm:"not null;index"`
	Name        string `json:"name" gorm:"size:255;not null"`
	Role        string `json:"role" gorm:"size:255"`
	LinkedinURL string `json:"linkedinUrl" gorm:"size:500"`
	GithubURL   string `json:"githubUrl" gorm:"size:500"`
	WebsiteURL  string `json:"websiteUrl" gorm:"size:500"`
}

func (Media) TableName() string {
	return "media"
}

// AfterFind calcule le HTML et le résumé, non stockés
func (p *Portfolio) AfterFind(tx *gorm.DB) error {
	p.render()
	return nil
}

func (p *Portfolio) render() {
	p.DescriptionHTML = clmarkdown.ToHTML(p.Description)
	p.Summary = clmarkdown.Summary(p.Description, summaryLength)
	if p.Media == nil {
		p.Media = []Media{}
	}
	if p.TeamMembers == nil {
		p.TeamMembers = []TeamMember{}
	}
}

// FirstImage retourne la première image du projet
func (p *Portfolio) FirstImage() (Media, bool) {
	for _, m := range p.Media {
		if m.Type == MediaImage {
			return m, true
		}
	}
	return Media{}, false
}
