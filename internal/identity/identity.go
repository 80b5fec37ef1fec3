package identity

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrNoIdentity          = errors.New("no verified identity on request")
	ErrInvalidToken        = errors.New("identity token is invalid")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CompanyAccess is one company the user may act in, with their role there.
type CompanyAccess struct {
	CompanyID string `json:"company_id"`
	Role      Role   `json:"role"`
}

func (a CompanyAccess) IsAdmin() bool {
	return a.Role == RoleOwner || a.Role == RoleAdmin
}

type Profile struct {
	ID        string
	Username  string
	AvatarURL *string
}

// Provider resolves who is calling and where they are allowed to act.
type Provider interface {
	// Authenticate returns the verified user ID, or ErrNoIdentity/ErrInvalidToken.
	Authenticate(r *http.Request) (string, error)
	AuthorizedCompanies(ctx context.Context, userID string) ([]CompanyAccess, error)
	UserProfile(ctx context.Context, userID string) (Profile, error)
}

// FallbackUsername is used when the provider has no username for the user.
func FallbackUsername(userID string) string {
	short := userID
	if len(short) > 5 {
		short = short[:5]
	}
	return "user_" + short
}

// Find returns the access entry for companyID.
func Find(list []CompanyAccess, companyID string) (CompanyAccess, bool) {
	for _, a := range list {
		if a.CompanyID == companyID {
			return a, true
		}
	}
	return CompanyAccess{}, false
}
