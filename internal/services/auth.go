package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmbarbier/blueprint/internal/config"
	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidCredentials = errors.New("invalid client ID or API key")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrMissingSecret      = errors.New("auth secret is not configured")
)

// AuthService exchanges configured API keys for signed tokens. Clients and
// their argon2id key hashes come from the settings file.
type AuthService struct {
	secret      []byte
	tokenExpiry time.Duration
	clients     map[string]string
	argonConfig *argonConfig
	logger      *slog.Logger
}

type argonConfig struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// Claims carried by issued tokens.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

func NewAuthService(cfg config.AuthConfig, logger *slog.Logger) (*AuthService, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	expiry := time.Duration(cfg.ExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	return &AuthService{
		secret:      []byte(cfg.Secret),
		tokenExpiry: expiry,
		clients:     cfg.Clients,
		argonConfig: &argonConfig{
			memory:      64 * 1024,
			iterations:  3,
			parallelism: 2,
			saltLength:  16,
			keyLength:   32,
		},
		logger: logger,
	}, nil
}

// Authenticate verifies an API key against the configured hash for clientID.
func (s *AuthService) Authenticate(clientID, apiKey string) error {
	hash, ok := s.clients[clientID]
	if !ok {
		s.logger.Warn("token request for unknown client", "client_id", clientID)
		return ErrInvalidCredentials
	}

	match, err := s.VerifyAPIKey(hash, apiKey)
	if err != nil {
		return fmt.Errorf("failed to verify API key: %w", err)
	}
	if !match {
		s.logger.Warn("API key mismatch", "client_id", clientID)
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken signs a token for a previously authenticated client.
func (s *AuthService) IssueToken(clientID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenExpiry)

	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "blueprint-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and verifies a token issued by IssueToken.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashAPIKey produces the argon2id hash stored in the settings file.
func (s *AuthService) HashAPIKey(apiKey string) (string, error) {
	salt := make([]byte, s.argonConfig.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey(
		[]byte(apiKey),
		salt,
		s.argonConfig.iterations,
		s.argonConfig.memory,
		s.argonConfig.parallelism,
		s.argonConfig.keyLength,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.argonConfig.memory,
		s.argonConfig.iterations,
		s.argonConfig.parallelism,
		b64Salt,
		b64Hash,
	), nil
}

// VerifyAPIKey checks an API key against an encoded argon2id hash.
func (s *AuthService) VerifyAPIKey(encodedHash, apiKey string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, errors.New("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, errors.New("invalid hash type")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return false, errors.New("incompatible argon2 version")
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("invalid parameters: %w", err)
	}

	decodedSalt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("error decoding salt: %w", err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("error decoding hash: %w", err)
	}

	computedHash := argon2.IDKey(
		[]byte(apiKey),
		decodedSalt,
		iterations,
		memory,
		parallelism,
		uint32(len(decodedHash)),
	)

	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}
