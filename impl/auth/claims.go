package auth

import (
	"entrypass/entity"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeRefresh = "refresh"

// Claims is the signed payload of both credential classes. Refresh credentials
// carry Type "refresh"; access credentials leave it empty.
type Claims struct {
	jwt.RegisteredClaims
	Id       int64       `json:"id"`
	Username string      `json:"username"`
	Role     entity.Role `json:"role"`
	Type     string      `json:"type,omitempty"`
}

func (c *Claims) IsRefresh() bool {
	return c.Type == tokenTypeRefresh
}

func (c *Claims) User() *entity.User {
	return &entity.User{
		Id:       c.Id,
		Username: c.Username,
		Role:     c.Role,
	}
}
