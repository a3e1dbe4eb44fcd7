// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

// Attribute keys used inside the user profile map. The remote identity
// provider owns the canonical attribute names; these are the ones the
// engine reads back out.
const (
	AttrSubject     = "sub"
	AttrEmail       = "email"
	AttrName        = "name"
	AttrAccountType = "custom:account_type"
)

// AccountTypeGuest marks a profile provisioned from a device identifier
// instead of credentials.
const AccountTypeGuest = "guest"

// User is the cached profile of the currently signed-in identity.
// Attributes mirror whatever the identity provider returned; Subject is the
// only attribute the engine requires.
type User struct {
	Attributes map[string]string
}

// NewUser builds a User from a provider attribute map.
func NewUser(attributes map[string]string) *User {
	if attributes == nil {
		attributes = map[string]string{}
	}

	return &User{Attributes: attributes}
}

// NewGuestUser synthesizes a profile for a device-provisioned account.
func NewGuestUser(deviceID string) *User {
	return &User{Attributes: map[string]string{
		AttrSubject:     "guest-" + deviceID,
		AttrAccountType: AccountTypeGuest,
	}}
}

// Subject returns the stable subject identifier for the user.
func (u *User) Subject() string {
	return u.Attributes[AttrSubject]
}

// Email returns the user's email attribute, empty for guest accounts.
func (u *User) Email() string {
	return u.Attributes[AttrEmail]
}

// IsGuest reports whether this profile belongs to a guest account.
func (u *User) IsGuest() bool {
	return u.Attributes[AttrAccountType] == AccountTypeGuest
}

// TokenSet holds the three opaque bearer credentials issued by the identity
// provider. A refresh replaces all three at once.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
}

// IsZero reports whether no credentials are present.
func (t TokenSet) IsZero() bool {
	return t.AccessToken == "" && t.RefreshToken == "" && t.IDToken == ""
}

// Session is the live authenticated identity context: the cached user
// profile plus the bearer credentials attached to outbound calls.
// Exactly one Session is live per process; it is owned by the session
// service and mirrored to the credential store for durability.
type Session struct {
	User   *User
	Tokens TokenSet
}

// IsAuthenticated is always derived, never stored: a session counts as
// authenticated only when both a user and a non-empty access token exist.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Tokens.AccessToken != ""
}
