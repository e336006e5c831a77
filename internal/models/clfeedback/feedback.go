package clfeedback

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"vitrine/internal/apperrors"
	"vitrine/internal/models/cltext"
	"vitrine/internal/validator"

	"gorm.io/gorm"
)

// Feedback témoignage client lié à un projet
type Feedback struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PortfolioID uint      `json:"portfolioId" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Company     string    `json:"company" gorm:"size:255"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	Rating      int       `json:"rating" gorm:"not null"`
	IsPublic    bool      `json:"isPublic" gorm:"default:false;index"`
	IsApproved  bool      `json:"isApproved" gorm:"default:false;index"`
	LinkToken   string     `json:"-" gorm:"size:32;uniqueIndex;not null"`
	SubmittedAt *time.Time `json:"submittedAt"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Managed vue administrateur, la seule qui expose le jeton du lien
type Managed struct {
	Feedback
	LinkToken string `json:"linkToken"`
}

func ManagedView(f Feedback) Managed {
	return Managed{Feedback: f, LinkToken: f.LinkToken}
}

func ManagedList(feedbacks []Feedback) []Managed {
	out := make([]Managed, 0, len(feedbacks))
	for _, f := range feedbacks {
		out = append(out, ManagedView(f))
	}
	return out
}

// ProjectChecker vérifie l'existence du projet référencé
type ProjectChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

type CreateRequest struct {
	PortfolioID uint   `json:"portfolioId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Company     string `json:"company"`
	Content     string `json:"content" validate:"required"`
	Rating      int    `json:"rating" validate:"gte=1,lte=5"`
	IsPublic    bool   `json:"isPublic"`
}

// SubmitRequest complété par le client via son lien
type SubmitRequest struct {
	Name    string `json:"name" validate:"required"`
	Company string `json:"company"`
	Content string `json:"content" validate:"required"`
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
}

type PatchRequest struct {
	IsApproved *bool   `json:"isApproved"`
	IsPublic   *bool   `json:"isPublic"`
	Name       *string `json:"name"`
	Company    *string `json:"company"`
	Content    *string `json:"content"`
	Rating     *int    `json:"rating"`
}

type ListOptions struct {
	IncludeAll  bool
	PortfolioID uint
}

const tokenBytes = 16

type FeedbackService struct {
	db       *gorm.DB
	projects ProjectChecker
}

func NewFeedbackService(db *gorm.DB, projects ProjectChecker) *FeedbackService {
	return &FeedbackService{db: db, projects: projects}
}

// NewLinkToken 32 caractères hexadécimaux aléatoires
func NewLinkToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *FeedbackService) Create(ctx context.Context, req CreateRequest) (*Feedback, error) {
	req.Name = cltext.Clean(req.Name, 255)
	req.Company = cltext.Clean(req.Company, 255)
	req.Content = cltext.Clean(req.Content, 5000)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	if s.projects != nil {
		exists, err := s.projects.Exists(ctx, req.PortfolioID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, apperrors.NotFound("projet")
		}
	}

	token, err := NewLinkToken()
	if err != nil {
		return nil, fmt.Errorf("error generating link token: %w", err)
	}

	f := Feedback{
		PortfolioID: req.PortfolioID,
		Name:        req.Name,
		Company:     req.Company,
		Content:     req.Content,
		Rating:      req.Rating,
		IsPublic:    req.IsPublic,
		LinkToken:   token,
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		return nil, fmt.Errorf("error creating feedback: %w", err)
	}
	return &f, nil
}

// List sans IncludeAll, seuls les témoignages approuvés et publics
func (s *FeedbackService) List(ctx context.Context, opts ListOptions) ([]Feedback, error) {
	feedbacks := make([]Feedback, 0)
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if !opts.IncludeAll {
		query = query.Where("is_approved = ? AND is_public = ?", true, true)
	}
	if opts.PortfolioID != 0 {
		query = query.Where("portfolio_id = ?", opts.PortfolioID)
	}
	if err := query.Find(&feedbacks).Error; err != nil {
		return nil, err
	}
	return feedbacks, nil
}

func (s *FeedbackService) GetByToken(ctx context.Context, token string) (*Feedback, error) {
	if len(token) != 2*tokenBytes {
		return nil, apperrors.NotFound("témoignage")
	}
	var f Feedback
	if err := s.db.WithContext(ctx).Where("link_token = ?", token).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("témoignage")
		}
		return nil, err
	}
	return &f, nil
}

// SubmitByToken met à jour le témoignage et le repasse en attente de validation.
// Le lien ne sert qu'une fois: un second envoi donne ErrDuplicate.
func (s *FeedbackService) SubmitByToken(ctx context.Context, token string, req SubmitRequest) (*Feedback, error) {
	req.Name = cltext.Clean(req.Name, 255)
	req.Company = cltext.Clean(req.Company, 255)
	req.Content = cltext.Clean(req.Content, 5000)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	f, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":         req.Name,
		"company":      req.Company,
		"content":      req.Content,
		"rating":       req.Rating,
		"is_approved":  false,
		"submitted_at": time.Now(),
	}
	result := s.db.WithContext(ctx).Model(&Feedback{}).
		Where("id = ? AND submitted_at IS NULL", f.ID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: témoignage déjà envoyé", apperrors.ErrDuplicate)
	}
	return s.get(ctx, f.ID)
}

// Patch modération par un administrateur
func (s *FeedbackService) Patch(ctx context.Context, id uint, req PatchRequest) (*Feedback, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.IsApproved != nil {
		updates["is_approved"] = *req.IsApproved
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.Name != nil {
		name := cltext.Clean(*req.Name, 255)
		if name == "" {
			return nil, apperrors.NewValidation("le champ 'name' est requis")
		}
		updates["name"] = name
	}
	if req.Company != nil {
		updates["company"] = cltext.Clean(*req.Company, 255)
	}
	if req.Content != nil {
		content := cltext.Clean(*req.Content, 5000)
		if content == "" {
			return nil, apperrors.NewValidation("le champ 'content' est requis")
		}
		updates["content"] = content
	}
	if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, apperrors.NewValidation("le champ 'rating' doit être compris entre 1 et 5")
		}
		updates["rating"] = *req.Rating
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&Feedback{ID: id}).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.get(ctx, id)
}

func (s *FeedbackService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&Feedback{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("témoignage")
	}
	return nil
}

func (s *FeedbackService) get(ctx context.Context, id uint) (*Feedback, error) {
	var f Feedback
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("témoignage")
		}
		return nil, err
	}
	return &f, nil
}
