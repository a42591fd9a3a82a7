package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entrypass/entity"
	"entrypass/lib/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Database interface {
	UserByUsername(ctx context.Context, username string) (*entity.User, error)
	UserById(ctx context.Context, id int64) (*entity.User, error)
}

type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Auth issues and verifies the signed credentials that guard the API.
type Auth struct {
	db   Database
	conf Config
	now  func() time.Time
}

func New(db Database, conf Config) *Auth {
	return &Auth{
		db:   db,
		conf: conf,
		now:  time.Now,
	}
}

// SetClock replaces the time source used for issuing and validating tokens.
func (a *Auth) SetClock(now func() time.Time) {
	a.now = now
}

// UserByToken accepts only access credentials.
func (a *Auth) UserByToken(token string) (*entity.User, error) {
	claims, err := a.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh() {
		return nil, apperr.Auth("refresh token used as access token", nil)
	}
	return claims.User(), nil
}

func (a *Auth) Login(ctx context.Context, username, password string) (*entity.TokenPair, error) {
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}
	if a.db == nil {
		return nil, apperr.Internal("login", fmt.Errorf("user database not connected"))
	}

	user, err := a.db.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = comparePassword(dummyHash, password)
			return nil, apperr.Auth("invalid credentials", nil)
		}
		return nil, apperr.Internal("find user", err)
	}
	if !comparePassword(user.PasswordHash, password) {
		return nil, apperr.Auth("invalid credentials", nil)
	}
	return a.issuePair(user)
}

// Refresh exchanges a refresh credential for a new pair, provided the account
// still exists.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperr.Validation("refresh token is required")
	}
	claims, err := a.parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefresh() {
		return nil, apperr.Auth("access token used as refresh token", nil)
	}
	if a.db == nil {
		return nil, apperr.Internal("refresh", fmt.Errorf("user database not connected"))
	}

	user, err := a.db.UserById(ctx, claims.Id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Auth("user no longer exists", err)
		}
		return nil, apperr.Internal("find user", err)
	}
	return a.issuePair(user)
}

func (a *Auth) issuePair(user *entity.User) (*entity.TokenPair, error) {
	access, err := a.sign(user, "", a.conf.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := a.sign(user, tokenTypeRefresh, a.conf.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &entity.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user.Public(),
	}, nil
}

func (a *Auth) sign(user *entity.User, tokenType string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.conf.Issuer,
			Subject:   fmt.Sprintf("%d", user.Id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Id:       user.Id,
		Username: user.Username,
		Role:     user.Role,
		Type:     tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.conf.Secret)
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}
	return signed, nil
}

func (a *Auth) parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperr.Auth("token not found", nil)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.conf.Issuer != "" {
		options = append(options, jwt.WithIssuer(a.conf.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return a.conf.Secret, nil
	}, options...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Auth("token expired", err)
		}
		return nil, apperr.Auth("invalid token", err)
	}
	if !token.Valid {
		return nil, apperr.Auth("invalid token", nil)
	}
	return claims, nil
}
