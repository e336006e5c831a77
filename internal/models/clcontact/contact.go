package clcontact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"vitrine/internal/apperrors"
	"vitrine/internal/models/cltext"
	"vitrine/internal/observer"
	"vitrine/internal/validator"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ContactMessage demande envoyée par le formulaire de contact
type ContactMessage struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:1000;not null"`
	Email       string    `json:"email" gorm:"size:1000;not null"`
	Phone       string    `json:"phone" gorm:"size:1000"`
	Requirement string    `json:"requirement" gorm:"type:text;not null"`
	Company     string    `json:"company" gorm:"size:200"`
	Country     string    `json:"country" gorm:"size:100"`
	Industry    string    `json:"industry" gorm:"size:100"`
	Service     string    `json:"service" gorm:"size:200"`
	Budget      string    `json:"budget" gorm:"size:100"`
	Timeline    string    `json:"timeline" gorm:"size:100"`
	IsRead      bool      `json:"isRead" gorm:"default:false;index"`
	IsStarred   bool      `json:"isStarred" gorm:"default:false"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// SubmitRequest corps du formulaire public
type SubmitRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required"`
	Phone         string `json:"phone"`
	Requirement   string `json:"requirement" validate:"required"`
	Company       string `json:"company"`
	Country       string `json:"country"`
	Industry      string `json:"industry"`
	Service       string `json:"service"`
	Budget        string `json:"budget"`
	Timeline      string `json:"timeline"`
	CaptchaID     string `json:"captchaId"`
	CaptchaAnswer string `json:"captchaAnswer"`
}

// FormCounter incrémente le compteur de formulaires du jour
type FormCounter interface {
	IncrementFormSubmissions(ctx context.Context) error
}

type ListOptions struct {
	UnreadOnly  bool
	StarredOnly bool
}

const listLimit = 100

type ContactService struct {
	db      *gorm.DB
	counter FormCounter
}

func NewContactService(db *gorm.DB, counter FormCounter) *ContactService {
	return &ContactService{db: db, counter: counter}
}

// normalize coupe et nettoie chaque champ avant validation
func (req SubmitRequest) normalize() SubmitRequest {
	return SubmitRequest{
		Name:        cltext.Clean(req.Name, 1000),
		Email:       strings.ToLower(cltext.Clean(req.Email, 1000)),
		Phone:       cltext.Clean(req.Phone, 1000),
		Requirement: cltext.Clean(req.Requirement, 5000),
		Company:     cltext.Clean(req.Company, 200),
		Country:     cltext.Clean(req.Country, 100),
		Industry:    cltext.Clean(req.Industry, 100),
		Service:     cltext.Clean(req.Service, 200),
		Budget:      cltext.Clean(req.Budget, 100),
		Timeline:    cltext.Clean(req.Timeline, 100),
	}
}

// ValidEmail contrôle minimal: un @ et un point
func ValidEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// Submit enregistre la demande puis incrémente le compteur du jour.
// L'échec du compteur est logué mais ne fait pas échouer la demande.
func (s *ContactService) Submit(ctx context.Context, req SubmitRequest) (*ContactMessage, error) {
	req = req.normalize()
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if !ValidEmail(req.Email) {
		return nil, apperrors.NewValidation("le champ 'email' doit être un email valide")
	}

	msg := ContactMessage{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Requirement: req.Requirement,
		Company:     req.Company,
		Country:     req.Country,
		Industry:    req.Industry,
		Service:     req.Service,
		Budget:      req.Budget,
		Timeline:    req.Timeline,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("error saving contact message: %w", err)
	}
	observer.LeadsSubmittedTotal.Inc()

	if s.counter != nil {
		if err := s.counter.IncrementFormSubmissions(ctx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Uint("id", msg.ID).Msg("Compteur de formulaires non mis à jour")
		}
	}

	return &msg, nil
}

// List retourne les 100 dernières demandes
func (s *ContactService) List(ctx context.Context, opts ListOptions) ([]ContactMessage, error) {
	messages := make([]ContactMessage, 0)
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(listLimit)
	if opts.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if opts.StarredOnly {
		query = query.Where("is_starred = ?", true)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// SetFlags met à jour les drapeaux fournis (nil = inchangé)
func (s *ContactService) SetFlags(ctx context.Context, id uint, isRead, isStarred *bool) (*ContactMessage, error) {
	db := s.db.WithContext(ctx)

	var msg ContactMessage
	if err := db.First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("demande")
		}
		return nil, err
	}

	updates := map[string]any{}
	if isRead != nil {
		updates["is_read"] = *isRead
		msg.IsRead = *isRead
	}
	if isStarred != nil {
		updates["is_starred"] = *isStarred
		msg.IsStarred = *isStarred
	}
	if len(updates) > 0 {
		if err := db.Model(&ContactMessage{ID: msg.ID}).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &msg, nil
}

func (s *ContactService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&ContactMessage{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("demande")
	}
	return nil
}

// CountEnquiries compte toutes les demandes et les non lues
func (s *ContactService) CountEnquiries(ctx context.Context) (int64, int64, error) {
	var total, unread int64
	if err := s.db.WithContext(ctx).Model(&ContactMessage{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := s.db.WithContext(ctx).Model(&ContactMessage{}).Where("is_read = ?", false).Count(&unread).Error; err != nil {
		return 0, 0, err
	}
	return total, unread, nil
}
