package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 只携带注册声明；sub 为用户 ID 的十进制字符串
type Claims struct {
	jwt.RegisteredClaims
}

// JWTer 签发/校验访问令牌（无吊销表，令牌在过期前始终有效）
type JWTer struct {
	Secret    []byte
	Issuer    string
	Algorithm string // HS256 / HS384 / HS512，空则 HS256
	TTL       time.Duration
}

var ErrUnexpectedAlg = errors.New("unexpected signing method")

func (j *JWTer) method() (jwt.SigningMethod, error) {
	switch j.Algorithm {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnexpectedAlg, j.Algorithm)
}

func (j *JWTer) Issue(subject string) (string, error) {
	m, err := j.method()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	return jwt.NewWithClaims(m, claims).SignedString(j.Secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	m, err := j.method()
	if err != nil {
		return nil, err
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != m.Alg() {
			return nil, ErrUnexpectedAlg
		}
		return j.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}
