package domain

import "time"

type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// NormalizeRole maps unknown or empty roles to member.
func NormalizeRole(role string) Role {
	switch Role(role) {
	case RoleMember, RoleModerator, RoleAdmin:
		return Role(role)
	default:
		return RoleMember
	}
}

type Profile struct {
	Id        UserId
	Username  Username
	FullName  string
	AvatarUrl string
	Role      Role
}

// Identity is who the projector evaluates permissions for.
// The zero value is an anonymous viewer.
type Identity struct {
	UserId UserId
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (i Identity) LoggedIn() bool {
	return i.UserId != ""
}

type Credentials struct {
	Email    Email
	Password Password
}

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserId       UserId
	Email        Email
}

// ExpiresWithin reports whether the access token expires in less than d.
func (s *Session) ExpiresWithin(now time.Time, d time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return s.ExpiresAt.Sub(now) < d
}

// SignUpResult is what the auth service returns on registration. Session
// is nil when the account still needs email confirmation.
type SignUpResult struct {
	UserId  UserId
	Session *Session
}
