package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"menuapi/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

const issuer = "menuapi"

// subはユーザーID、tvはtoken_version
type Claims struct {
	Username     string `json:"username"`
	TokenType    Type   `json:"token_type"`
	TokenVersion int    `json:"tv"`
	jwt.RegisteredClaims
}

func (c Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// HS256でaccess/refreshを発行・検証する
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// DI
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *Manager) IssuePair(user model.User) (Pair, error) {
	access, err := m.IssueAccess(user)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := m.issue(user, TypeRefresh, m.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (m *Manager) IssueAccess(user model.User) (string, error) {
	return m.issue(user, TypeAccess, m.accessTTL)
}

// access以外（refreshなど）はBearerとして使えない
func (m *Manager) ParseAccess(raw string) (*Claims, error) {
	return m.parse(raw, TypeAccess)
}

func (m *Manager) ParseRefresh(raw string) (*Claims, error) {
	return m.parse(raw, TypeRefresh)
}

func (m *Manager) issue(user model.User, typ Type, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Username:     user.Username,
		TokenType:    typ,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (m *Manager) parse(raw string, want Type) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || t == nil || !t.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != want || claims.Issuer != issuer || claims.TokenVersion < 0 {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
