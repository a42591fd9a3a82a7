package cont

import (
	"context"

	"entrypass/entity"
)

type ctxKey string

const UserDataKey ctxKey = "userData"

func PutUser(c context.Context, user *entity.User) context.Context {
	return context.WithValue(c, UserDataKey, user)
}

// GetUser returns the authenticated staff member, or nil outside protected routes.
func GetUser(c context.Context) *entity.User {
	user, ok := c.Value(UserDataKey).(*entity.User)
	if !ok {
		return nil
	}
	return user
}
