package clusers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"vitrine/internal/apperrors"
	"vitrine/internal/models/cltext"
	"vitrine/internal/validator"

	"github.com/andskur/argon2-hashing"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStaff      Role = "staff"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// CanManageUsers admin et super_admin
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"`
	Name      string    `json:"name" gorm:"size:255"`
	Role      Role      `json:"role" gorm:"size:20;not null;default:staff"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Summary vue publique d'un utilisateur
type Summary struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

type TokenClaims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	User      Summary   `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UserService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	params *argon2.Params
	now    func() time.Time

	registerMu sync.Mutex
}

func NewUserService(db *gorm.DB, secret []byte, ttl time.Duration) *UserService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UserService{
		db:     db,
		secret: secret,
		ttl:    ttl,
		params: argon2.DefaultParams,
		now:    time.Now,
	}
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&User{}).Count(&count).Error
	return count, err
}

// Register crée un compte. Ouvert tant qu'aucun utilisateur n'existe
// (le premier devient super_admin), ensuite réservé aux admins.
// Comptage et insertion se font sous le même verrou et dans une transaction.
func (s *UserService) Register(ctx context.Context, req RegisterRequest, caller *TokenClaims) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = cltext.Clean(req.Name, 255)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	// refus rapide avant le hash quand l'inscription est déjà fermée
	if caller == nil {
		count, err := s.Count(ctx)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: inscription fermée", apperrors.ErrUnauthorized)
		}
	}

	hash, err := argon2.GenerateFromPassword([]byte(req.Password), s.params)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	var user *User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Count(&count).Error; err != nil {
			return err
		}
		role, err := registrationRole(count, req.Role, caller)
		if err != nil {
			return err
		}
		user, err = create(tx, req.Email, string(hash), req.Name, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.respond(user)
}

func registrationRole(count int64, role Role, caller *TokenClaims) (Role, error) {
	switch {
	case count == 0:
		return RoleSuperAdmin, nil
	case caller == nil:
		return "", fmt.Errorf("%w: inscription fermée", apperrors.ErrUnauthorized)
	case !caller.Role.CanManageUsers():
		return "", fmt.Errorf("%w: rôle administrateur requis", apperrors.ErrForbidden)
	case role == "":
		return RoleStaff, nil
	case !role.Valid():
		return "", apperrors.NewValidation("le champ 'role' doit valoir l'un de: staff admin super_admin")
	case role == RoleSuperAdmin && caller.Role != RoleSuperAdmin:
		return "", fmt.Errorf("%w: seul un super_admin peut créer un super_admin", apperrors.ErrForbidden)
	}
	return role, nil
}

func create(db *gorm.DB, email, hash, name string, role Role) (*User, error) {
	var existing int64
	if err := db.Model(&User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: email déjà enregistré", apperrors.ErrDuplicate)
	}

	user := User{Email: email, Password: hash, Name: name, Role: role}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return &user, nil
}

// Login vérifie les identifiants et émet un jeton
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	var user User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: identifiants incorrects", apperrors.ErrUnauthorized)
		}
		return nil, err
	}

	if err := argon2.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: identifiants incorrects", apperrors.ErrUnauthorized)
	}
	return s.respond(&user)
}

func (s *UserService) respond(user *User) (*AuthResponse, error) {
	token, expiresAt, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user.Summary(), ExpiresAt: expiresAt}, nil
}

func (s *UserService) List(ctx context.Context) ([]Summary, error) {
	users := make([]Summary, 0)
	err := s.db.WithContext(ctx).Model(&User{}).
		Select("id", "email", "name", "role").
		Order("id").
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("utilisateur")
		}
		return nil, err
	}
	return &user, nil
}

// EnsureSuperAdmin crée le compte de la configuration s'il n'existe pas,
// hash est déjà un hash argon2
func (s *UserService) EnsureSuperAdmin(ctx context.Context, email, name, hash string) error {
	email = normalizeEmail(email)
	if email == "" || hash == "" {
		return nil
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user := User{Email: email, Password: hash, Name: name, Role: RoleSuperAdmin}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("email", email).Msg("Compte super_admin créé depuis la configuration")
	return nil
}

// GenerateToken jeton HS256 signé avec le secret du service
func (s *UserService) GenerateToken(user *User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken vérifie signature et expiration
func (s *UserService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: jeton invalide", apperrors.ErrUnauthorized)
	}
	return claims, nil
}
