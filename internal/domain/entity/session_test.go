package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsAuthenticated(t *testing.T) {
	user := NewUser(map[string]string{AttrSubject: "user-1"})

	assert.False(t, Session{}.IsAuthenticated())
	assert.False(t, Session{User: user}.IsAuthenticated())
	assert.False(t, Session{Tokens: TokenSet{AccessToken: "access-1"}}.IsAuthenticated())
	assert.True(t, Session{User: user, Tokens: TokenSet{AccessToken: "access-1"}}.IsAuthenticated())
}

func TestNewGuestUser(t *testing.T) {
	user := NewGuestUser("device-123")

	assert.Equal(t, "guest-device-123", user.Subject())
	assert.True(t, user.IsGuest())
	assert.Empty(t, user.Email())
}

func TestUser_IsGuest_RegularAccount(t *testing.T) {
	user := NewUser(map[string]string{
		AttrSubject: "user-1",
		AttrEmail:   "user@example.com",
	})

	assert.False(t, user.IsGuest())
	assert.Equal(t, "user@example.com", user.Email())
}
