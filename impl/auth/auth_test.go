package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"entrypass/entity"
	"entrypass/lib/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type usersDB struct {
	users map[string]*entity.User
	err   error
}

func (u *usersDB) UserByUsername(_ context.Context, username string) (*entity.User, error) {
	if u.err != nil {
		return nil, u.err
	}
	if user, ok := u.users[username]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("user %s", username)
}

func (u *usersDB) UserById(_ context.Context, id int64) (*entity.User, error) {
	if u.err != nil {
		return nil, u.err
	}
	for _, user := range u.users {
		if user.Id == id {
			return user, nil
		}
	}
	return nil, apperr.NotFound("user %d", id)
}

func newTestAuth(t *testing.T) (*Auth, *usersDB) {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	db := &usersDB{users: map[string]*entity.User{
		"maria": {Id: 4, Username: "maria", PasswordHash: hash, Role: entity.RoleReceptionist},
	}}
	a := New(db, Config{
		Secret:     []byte("test-signing-key"),
		Issuer:     "entrypass-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	return a, db
}

func TestLoginIssuesPair(t *testing.T) {
	a, _ := newTestAuth(t)

	pair, err := a.Login(context.Background(), "maria", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, &entity.UserInfo{Id: 4, Username: "maria", Role: entity.RoleReceptionist}, pair.User)

	user, err := a.UserByToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(4), user.Id)
	assert.Equal(t, "maria", user.Username)
	assert.Equal(t, entity.RoleReceptionist, user.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a, _ := newTestAuth(t)

	_, err := a.Login(context.Background(), "maria", "wrong")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	_, err = a.Login(context.Background(), "nobody", "s3cret")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	_, err = a.Login(context.Background(), "", "s3cret")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	a, db := newTestAuth(t)
	db.err = errors.New("connection reset")

	_, err := a.Login(context.Background(), "maria", "s3cret")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestAccessTokenExpires(t *testing.T) {
	a, _ := newTestAuth(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a.SetClock(func() time.Time { return now })

	pair, err := a.Login(context.Background(), "maria", "s3cret")
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = a.UserByToken(pair.AccessToken)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = a.UserByToken(pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestCredentialClassesAreNotInterchangeable(t *testing.T) {
	a, _ := newTestAuth(t)
	pair, err := a.Login(context.Background(), "maria", "s3cret")
	require.NoError(t, err)

	_, err = a.UserByToken(pair.RefreshToken)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	_, err = a.Refresh(context.Background(), pair.AccessToken)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestRefresh(t *testing.T) {
	a, db := newTestAuth(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a.SetClock(func() time.Time { return now })

	pair, err := a.Login(context.Background(), "maria", "s3cret")
	require.NoError(t, err)

	now = now.Add(6 * 24 * time.Hour)
	renewed, err := a.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	_, err = a.UserByToken(renewed.AccessToken)
	require.NoError(t, err)

	delete(db.users, "maria")
	_, err = a.Refresh(context.Background(), renewed.RefreshToken)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	now = now.Add(2 * 24 * time.Hour)
	_, err = a.Refresh(context.Background(), pair.RefreshToken)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRejectsForeignSignature(t *testing.T) {
	a, _ := newTestAuth(t)
	other := New(nil, Config{Secret: []byte("another-key"), Issuer: "entrypass-test", AccessTTL: time.Hour})
	token, err := other.sign(&entity.User{Id: 4, Username: "maria"}, "", time.Hour)
	require.NoError(t, err)

	_, err = a.UserByToken(token)
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	_, err = a.UserByToken("not-a-jwt")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))

	_, err = a.UserByToken("")
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}
