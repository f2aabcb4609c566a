package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName 会话 cookie 名称
const CookieName = "podcastr_session"

// ErrInvalidToken token 无效或已过期
var ErrInvalidToken = errors.New("invalid session token")

// TokenIssuer 签发和校验会话 token（HS256）
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option 配置 TokenIssuer
type Option func(*TokenIssuer)

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(i *TokenIssuer) {
		i.now = now
	}
}

// NewTokenIssuer 创建 TokenIssuer
func NewTokenIssuer(secret string, ttl time.Duration, opts ...Option) *TokenIssuer {
	i := &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SessionClaims token 中携带的会话信息
type SessionClaims struct {
	SessionID string
	ExpiresAt time.Time
}

// TTL token 有效期，同时作为 cookie 有效期
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// IssueToken 为会话签发 token
func (i *TokenIssuer) IssueToken(sessionID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// ParseToken 校验 token 并返回会话ID
func (i *TokenIssuer) ParseToken(token string) (string, error) {
	claims, err := i.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// Parse 校验 token 并返回会话信息
func (i *TokenIssuer) Parse(token string) (SessionClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return SessionClaims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return SessionClaims{SessionID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// NeedsRefresh 剩余有效期不足一半时需要重新签发。
// 会话空闲过期是滑动的，cookie 也要跟着续期。
func (i *TokenIssuer) NeedsRefresh(claims SessionClaims) bool {
	return claims.ExpiresAt.Sub(i.now()) < i.ttl/2
}
