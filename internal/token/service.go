// Package token signs live session ids. Session tokens ride in the cookie
// and may be reused until they expire; connect tokens are embedded in the
// page for the WebSocket handshake and are accepted once.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "objectmodel"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrReplay       = errors.New("token replay detected")
)

// Service issues and verifies HS256 tokens with a per-process key.
type Service struct {
	signingKey []byte
	algorithm  jwt.SigningMethod
	nonceStore *NonceStore
	config     *Config
	mu         sync.RWMutex
}

// Config defines Service configuration
type Config struct {
	TTL         time.Duration // session token lifetime. Default: 24 hours
	ConnectTTL  time.Duration // connect token lifetime. Default: 1 minute
	NonceWindow time.Duration // replay window for connect tokens. Default: 5 minutes
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TTL:         24 * time.Hour,
		ConnectTTL:  time.Minute,
		NonceWindow: 5 * time.Minute,
	}
}

// Claims is the token payload. Connect tokens carry a nonce.
type Claims struct {
	SessionID string `json:"sid"`
	Nonce     string `json:"nonce,omitempty"`
	jwt.RegisteredClaims
}

// NonceStore tracks spent connect-token nonces.
type NonceStore struct {
	nonces map[string]time.Time
	mu     sync.RWMutex
}

func NewNonceStore() *NonceStore {
	return &NonceStore{nonces: make(map[string]time.Time)}
}

// Add stores a nonce with timestamp
func (ns *NonceStore) Add(nonce string) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.nonces[nonce] = time.Now()
}

// Exists checks if a nonce exists and is within the window
func (ns *NonceStore) Exists(nonce string, window time.Duration) bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if timestamp, exists := ns.nonces[nonce]; exists {
		return time.Since(timestamp) < window
	}
	return false
}

// Cleanup removes nonces older than maxAge
func (ns *NonceStore) Cleanup(maxAge time.Duration) int {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	count := 0
	cutoff := time.Now().Add(-maxAge)
	for nonce, timestamp := range ns.nonces {
		if timestamp.Before(cutoff) {
			delete(ns.nonces, nonce)
			count++
		}
	}
	return count
}

// NewService creates a Service with a fresh random signing key.
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}

	signingKey := make([]byte, 32) // 256-bit key for HS256
	if _, err := rand.Read(signingKey); err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}

	return &Service{
		signingKey: signingKey,
		algorithm:  jwt.SigningMethodHS256,
		nonceStore: NewNonceStore(),
		config:     config,
	}, nil
}

// MustNewService is NewService that panics on error.
func MustNewService(config *Config) *Service {
	s, err := NewService(config)
	if err != nil {
		panic(err)
	}
	return s
}

// SessionToken signs a reusable token for sessionID.
func (s *Service) SessionToken(sessionID string) (string, error) {
	return s.sign(sessionID, "", s.config.TTL)
}

// ConnectToken signs a single-use token for sessionID.
func (s *Service) ConnectToken(sessionID string) (string, error) {
	nonce, err := generateNonce()
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.sign(sessionID, nonce, s.config.ConnectTTL)
}

func (s *Service) sign(sessionID, nonce string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	claims := &Claims{
		SessionID: sessionID,
		Nonce:     nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   sessionID,
		},
	}

	signed, err := jwt.NewWithClaims(s.algorithm, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and, for connect tokens, replay. It
// returns the session id.
func (s *Service) Verify(tokenString string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != s.algorithm {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}

	if claims.Nonce != "" {
		if s.nonceStore.Exists(claims.Nonce, s.config.NonceWindow) {
			return "", ErrReplay
		}
		s.nonceStore.Add(claims.Nonce)
	}
	return claims.SessionID, nil
}

// CleanupExpiredNonces drops nonces older than twice the replay window.
func (s *Service) CleanupExpiredNonces() int {
	return s.nonceStore.Cleanup(s.config.NonceWindow * 2)
}

func generateNonce() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
