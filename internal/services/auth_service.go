package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperror"
	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const invalidCredentials = "No active account found with the given credentials."

// AuthService handles registration, token issuance and token validation.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, cfg config.JWT, log zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		log:        log.With().Str("component", "auth").Logger(),
	}
}

// RegisterInput is the body of POST /api/register.
type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// TokenPair is returned by a successful login.
type TokenPair struct {
	Access  string             `json:"access"`
	Refresh string             `json:"refresh"`
	User    models.UserSummary `json:"user"`
}

// Register validates uniqueness, hashes the password and saves a new active customer.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, apperror.InvalidArgument("Passwords do not match.")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	taken, err := s.userRepo.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.Conflict("A user with this email already exists.")
	}
	if taken, err = s.userRepo.UsernameTaken(ctx, username); err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.Conflict("This username is already taken.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login authenticates by username or email and issues an access/refresh pair.
// Rejected credentials are InvalidArgument; Unauthorized is kept for bad tokens.
func (s *AuthService) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.InvalidArgument(invalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperror.InvalidArgument(invalidCredentials)
	}
	if !user.IsActive {
		return nil, apperror.InvalidArgument("User account is disabled.")
	}

	access, err := s.issue(user.ID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.issue(user.ID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh, User: user.Summary()}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	user, err := s.activeUser(ctx, claims)
	if err != nil {
		return "", err
	}
	return s.issue(user.ID, TokenTypeAccess, s.accessTTL)
}

// Authenticate resolves an access token to a Principal. Role flags are read from
// the store so revoked privileges take effect before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (auth.Principal, error) {
	claims, err := s.ValidateToken(accessToken, TokenTypeAccess)
	if err != nil {
		return auth.Principal{}, err
	}
	user, err := s.activeUser(ctx, claims)
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.Principal{UserID: user.ID, IsStaff: user.IsStaff, IsSuperuser: user.IsSuperuser}, nil
}

func (s *AuthService) activeUser(ctx context.Context, claims jwt.MapClaims) (*models.User, error) {
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, apperror.Unauthorized("Token contained no recognizable user identification")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.Unauthorized("User not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("User is inactive")
	}
	return user, nil
}

func (s *AuthService) issue(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    userID,
		"token_type": tokenType,
		"jti":        uuid.NewString(),
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT of the expected type, returning its claims.
func (s *AuthService) ValidateToken(tokenString, tokenType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("token validation failed")
		return nil, apperror.Wrap(apperror.KindUnauthorized, err, "Token is invalid or expired")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized("Token is invalid or expired")
	}
	if claims["token_type"] != tokenType {
		return nil, apperror.Unauthorized("Token has wrong type")
	}
	return claims, nil
}
