package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	tokenIssuer    = "timefilter-server"
	secretKeyFile  = ".timefilter-secret-key"
	minSecretBytes = 32
)

var ErrAuthNotInitialized = errors.New("auth service not initialized")

// AuthService manages JWT token generation and validation
type AuthService struct {
	secretKey   string
	tokenExpiry time.Duration
}

// CustomClaims represents the JWT claims structure
type CustomClaims struct {
	ClientName string `json:"client_name"`
	jwt.RegisteredClaims
}

var authService *AuthService

// InitAuthService initializes the authentication service.
// An empty secretKey is loaded from (or generated into) ~/.timefilter-secret-key so tokens
// issued by the CLI stay valid across server restarts.
func InitAuthService(secretKey string, tokenExpiry time.Duration, logger *zap.Logger) *AuthService {
	if secretKey == "" {
		secretKey = loadOrCreateSecret(logger)
	}

	if tokenExpiry == 0 {
		tokenExpiry = 90 * 24 * time.Hour
	}

	secretKey = strings.TrimSpace(secretKey)

	if len(secretKey) < minSecretBytes {
		logger.Warn("secret key shorter than recommended, stretching it", zap.Int("length", len(secretKey)))
		secretKey = stretchSecret(secretKey)
	}

	authService = &AuthService{
		secretKey:   secretKey,
		tokenExpiry: tokenExpiry,
	}
	return authService
}

// stretchSecret derives a full length key from a short one. It must be deterministic:
// the token command and the server derive the key in separate processes.
func stretchSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return secret + hex.EncodeToString(sum[:])
}

func secretKeyPath() string {
	homeDir, _ := os.UserHomeDir()
	if homeDir == "" {
		return filepath.Join(os.TempDir(), secretKeyFile)
	}
	return filepath.Join(homeDir, secretKeyFile)
}

func loadOrCreateSecret(logger *zap.Logger) string {
	keyFile := secretKeyPath()

	if data, err := os.ReadFile(keyFile); err == nil && len(data) > 0 {
		logger.Info("loaded persisted secret key", zap.String("path", keyFile))
		return strings.TrimSpace(string(data))
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "timefilter"
	}

	var secretKey string
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		secretKey = fmt.Sprintf("timefilter-%s-%d-backup", hostname, time.Now().UnixNano())
		logger.Warn("random generation failed, using fallback key")
	} else {
		secretKey = fmt.Sprintf("timefilter-%s-%s", hostname, hex.EncodeToString(randomBytes))
	}

	if err := os.WriteFile(keyFile, []byte(secretKey), 0600); err != nil {
		logger.Warn("could not persist secret key", zap.String("path", keyFile), zap.Error(err))
	} else {
		logger.Info("generated and persisted secret key", zap.String("path", keyFile))
	}
	return secretKey
}

// GenerateToken creates a new JWT token for clientName
func (a *AuthService) GenerateToken(clientName string) (string, error) {
	now := time.Now()

	claims := CustomClaims{
		ClientName: clientName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientName,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.secretKey))
}

// ValidateToken verifies and parses a JWT token
func (a *AuthService) ValidateToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.secretKey), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// TokenExpiry returns when a token issued now would expire
func (a *AuthService) TokenExpiry() time.Time {
	return time.Now().Add(a.tokenExpiry)
}

// GenerateToken issues a token with the initialized service
func GenerateToken(clientName string) (string, error) {
	if authService == nil {
		return "", ErrAuthNotInitialized
	}
	return authService.GenerateToken(clientName)
}

// ValidateToken checks a token with the initialized service
func ValidateToken(tokenString string) (*CustomClaims, error) {
	if authService == nil {
		return nil, ErrAuthNotInitialized
	}
	return authService.ValidateToken(tokenString)
}

// GetAuthService returns the initialized auth service
func GetAuthService() *AuthService {
	return authService
}
