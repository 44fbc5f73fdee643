package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"taskhive/internal/caching"
	"taskhive/internal/models"
	"taskhive/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles signup, login and JWT token management.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	Logout(ctx context.Context, tokenID string) error
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// TokenClaims are the JWT claims issued on login.
type TokenClaims struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

type authService struct {
	userRepo      repositories.UserRepository
	freeUsageRepo repositories.FreeUsageRepository
	cacheSvc      caching.CacheService
	jwtSecret     []byte
	tokenTTL      time.Duration
}

func NewAuthService(userRepo repositories.UserRepository, freeUsageRepo repositories.FreeUsageRepository, cacheSvc caching.CacheService, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		userRepo:      userRepo,
		freeUsageRepo: freeUsageRepo,
		cacheSvc:      cacheSvc,
		jwtSecret:     []byte(jwtSecret),
		tokenTTL:      tokenTTL,
	}
}

// Register creates a user and provisions an empty free-tier usage row so
// the account starts on the FREE plan with zeroed counters.
func (s *authService) Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	usage := &models.FreeTierUsage{ID: uuid.New(), UserID: user.ID}
	if err := s.freeUsageRepo.Insert(ctx, usage); err != nil {
		// The tracker lazily creates the row on first use
		log.Printf("WARN: auth: free-tier usage provisioning failed for user %s: %v", user.ID, err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("invalid credentials")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	now := time.Now()
	tokenID := uuid.NewString()
	claims := TokenClaims{
		UserID:  user.ID.String(),
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taskhive-auth",
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	if s.cacheSvc != nil {
		if err := s.cacheSvc.SetSession(ctx, tokenID, user.ID.String(), s.tokenTTL); err != nil {
			log.Printf("WARN: auth: session store failed for user %s: %v", user.ID, err)
		}
	}

	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if s.cacheSvc != nil && claims.ID != "" {
		session, err := s.cacheSvc.GetSession(ctx, claims.ID)
		if err == nil && session == "" {
			return nil, fmt.Errorf("session revoked")
		}
	}
	return claims, nil
}

func (s *authService) Logout(ctx context.Context, tokenID string) error {
	if s.cacheSvc == nil {
		return nil
	}
	return s.cacheSvc.DeleteSession(ctx, tokenID)
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
