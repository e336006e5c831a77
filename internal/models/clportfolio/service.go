package clportfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"vitrine/internal/apperrors"
	"vitrine/internal/models/cltext"
	"vitrine/internal/validator"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MediaInput struct {
	Type string `json:"type" validate:"omitempty,oneof=image video"`
	URL  string `json:"url" validate:"required"`
}

type TeamMemberInput struct {
	Name        string `json:"name" validate:"required"`
	Role        string `json:"role"`
	LinkedinURL string `json:"linkedinUrl"`
	GithubURL   string `json:"githubUrl"`
	WebsiteURL  string `json:"websiteUrl"`
}

type CreateRequest struct {
	Title        string            `json:"title" validate:"required"`
	Description  string            `json:"description" validate:"required"`
	TechStack    string            `json:"techStack"`
	ProjectURL   string            `json:"projectUrl"`
	Featured     bool              `json:"featured"`
	DisplayOrder *int              `json:"displayOrder"`
	Media        []MediaInput      `json:"media"`
	TeamMembers  []TeamMemberInput `json:"teamMembers"`
}

// UpdateRequest champs absents (nil) inchangés. Media et TeamMembers
// présents remplacent entièrement les enfants existants.
type UpdateRequest struct {
	Title        *string            `json:"title"`
	Description  *string            `json:"description"`
	TechStack    *string            `json:"techStack"`
	ProjectURL   *string            `json:"projectUrl"`
	Featured     *bool              `json:"featured"`
	DisplayOrder *int               `json:"displayOrder"`
	Media        *[]MediaInput      `json:"media"`
	TeamMembers  *[]TeamMemberInput `json:"teamMembers"`
}

type ListOptions struct {
	FeaturedOnly bool
}

type PortfolioService struct {
	db       *gorm.DB
	seed     bool
	seedOnce sync.Once
}

func NewPortfolioService(db *gorm.DB, seed bool) *PortfolioService {
	return &PortfolioService{db: db, seed: seed}
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("TeamMembers", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// List retourne les projets triés par displayOrder puis id
func (s *PortfolioService) List(ctx context.Context, opts ListOptions) ([]Portfolio, error) {
	if s.seed {
		s.seedOnce.Do(func() {
			// détaché de la requête: une annulation ne doit pas bloquer le seeding
			if err := s.seedSamples(context.WithoutCancel(ctx)); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("Erreur création des projets d'exemple")
			}
		})
	}

	projects := make([]Portfolio, 0)
	query := withChildren(s.db.WithContext(ctx)).Order("display_order ASC").Order("id ASC")
	if opts.FeaturedOnly {
		query = query.Where("featured = ?", true)
	}
	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("error listing portfolio: %w", err)
	}
	return projects, nil
}

// Recent retourne les derniers projets créés (flux RSS)
func (s *PortfolioService) Recent(ctx context.Context, limit int) ([]Portfolio, error) {
	projects := make([]Portfolio, 0, limit)
	err := withChildren(s.db.WithContext(ctx)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (s *PortfolioService) Get(ctx context.Context, id uint) (*Portfolio, error) {
	var p Portfolio
	if err := withChildren(s.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("projet")
		}
		return nil, err
	}
	return &p, nil
}

// Exists indique si le projet existe
func (s *PortfolioService) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Portfolio{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PortfolioService) Create(ctx context.Context, req CreateRequest) (*Portfolio, error) {
	req.Title = cltext.Clean(req.Title, 255)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	// description stockée telle quelle, seule une description blanche est refusée
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperrors.NewValidation("le champ 'description' est requis")
	}

	media, err := buildMedia(req.Media)
	if err != nil {
		return nil, err
	}
	members, err := buildTeamMembers(req.TeamMembers)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	p := Portfolio{
		Title:       req.Title,
		Description: req.Description,
		TechStack:   cltext.Clean(req.TechStack, 500),
		ProjectURL:  cltext.Clean(req.ProjectURL, 500),
		Featured:    req.Featured,
		Media:       media,
		TeamMembers: members,
	}
	if req.DisplayOrder != nil {
		p.DisplayOrder = *req.DisplayOrder
	} else {
		var count int64
		if err := db.Model(&Portfolio{}).Count(&count).Error; err != nil {
			return nil, err
		}
		p.DisplayOrder = int(count)
	}

	// les enfants sont créés avec le parent
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("error creating portfolio: %w", err)
	}
	return s.Get(ctx, p.ID)
}

// Update applique les champs présents dans une transaction
func (s *PortfolioService) Update(ctx context.Context, id uint, req UpdateRequest) (*Portfolio, error) {
	updates := map[string]any{}
	if req.Title != nil {
		title := cltext.Clean(*req.Title, 255)
		if title == "" {
			return nil, apperrors.NewValidation("le champ 'title' est requis")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, apperrors.NewValidation("le champ 'description' est requis")
		}
		updates["description"] = *req.Description
	}
	if req.TechStack != nil {
		updates["tech_stack"] = cltext.Clean(*req.TechStack, 500)
	}
	if req.ProjectURL != nil {
		updates["project_url"] = cltext.Clean(*req.ProjectURL, 500)
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.DisplayOrder != nil {
		updates["display_order"] = *req.DisplayOrder
	}

	var media []Media
	if req.Media != nil {
		var err error
		if media, err = buildMedia(*req.Media); err != nil {
			return nil, err
		}
	}
	var members []TeamMember
	if req.TeamMembers != nil {
		var err error
		if members, err = buildTeamMembers(*req.TeamMembers); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Portfolio
		if err := tx.Select("id").First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("projet")
			}
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&Portfolio{ID: id}).Omit(clause.Associations).Updates(updates).Error; err != nil {
				return err
			}
		}

		if req.Media != nil {
			if err := tx.Where("portfolio_id = ?", id).Delete(&Media{}).Error; err != nil {
				return err
			}
			for i := range media {
				media[i].PortfolioID = id
			}
			if len(media) > 0 {
				if err := tx.Create(&media).Error; err != nil {
					return err
				}
			}
		}

		if req.TeamMembers != nil {
			if err := tx.Where("portfolio_id = ?", id).Delete(&TeamMember{}).Error; err != nil {
				return err
			}
			for i := range members {
				members[i].PortfolioID = id
			}
			if len(members) > 0 {
				if err := tx.Create(&members).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete supprime les médias, l'équipe puis le projet
func (s *PortfolioService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("portfolio_id = ?", id).Delete(&Media{}).Error; err != nil {
			return err
		}
		if err := tx.Where("portfolio_id = ?", id).Delete(&TeamMember{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Portfolio{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NotFound("projet")
		}
		return nil
	})
}

// AddMedia ajoute un média à un projet existant
func (s *PortfolioService) AddMedia(ctx context.Context, portfolioID uint, input MediaInput) (*Media, error) {
	media, err := buildMedia([]MediaInput{input})
	if err != nil {
		return nil, err
	}

	exists, err := s.Exists(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("projet")
	}

	m := media[0]
	m.PortfolioID = portfolioID
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PortfolioService) DeleteMedia(ctx context.Context, mediaID uint) error {
	result := s.db.WithContext(ctx).Delete(&Media{}, mediaID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("média")
	}
	return nil
}

func buildMedia(inputs []MediaInput) ([]Media, error) {
	media := make([]Media, 0, len(inputs))
	for _, in := range inputs {
		in.Type = strings.ToLower(strings.TrimSpace(in.Type))
		in.URL = strings.TrimSpace(in.URL)
		if err := validator.Validate(in); err != nil {
			return nil, err
		}
		if in.Type == "" {
			in.Type = MediaImage
		}
		media = append(media, Media{Type: in.Type, URL: cltext.Truncate(in.URL, 1000)})
	}
	return media, nil
}

func buildTeamMembers(inputs []TeamMemberInput) ([]TeamMember, error) {
	members := make([]TeamMember, 0, len(inputs))
	for _, in := range inputs {
		in.Name = cltext.Clean(in.Name, 255)
		if err := validator.Validate(in); err != nil {
			return nil, err
		}
		members = append(members, TeamMember{
			Name:        in.Name,
			Role:        cltext.Clean(in.Role, 255),
			LinkedinURL: cltext.Clean(in.LinkedinURL, 500),
			GithubURL:   cltext.Clean(in.GithubURL, 500),
			WebsiteURL:  cltext.Clean(in.WebsiteURL, 500),
		})
	}
	return members, nil
}
