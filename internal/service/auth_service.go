package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/aac-therapy-api/internal/models"
	appErrors "github.com/noah-isme/aac-therapy-api/pkg/errors"
)

// AuthConfig defines token signing parameters.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService issues and validates HS256 access tokens. Identities are owned
// by the upstream platform; tokens only carry the id, role and display name.
type AuthService struct {
	logger *zap.Logger
	config AuthConfig
	now    func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{logger: logger, config: config, now: time.Now}
}

// IssueToken signs an access token for the given identity.
func (s *AuthService) IssueToken(userID string, role models.UserRole, fullName string) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	if !role.Valid() {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if s.config.AccessTokenSecret == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "token secret is not configured")
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:   userID,
		Role:     role,
		FullName: fullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	s.logger.Debug("access token issued", zap.String("user_id", userID), zap.String("role", string(role)))
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a JWT access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if !claims.Role.Valid() || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries an unknown identity")
	}
	return claims, nil
}
