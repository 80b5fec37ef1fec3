package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/yukikurage/questboard-api/internal/constants"
)

// DevProvider trusts a plain header and makes every caller admin of one
// company. Local development only. A request without the header is
// anonymous, same as with the real provider.
type DevProvider struct {
	companyID string
}

func NewDevProvider(companyID string) *DevProvider {
	return &DevProvider{companyID: companyID}
}

func (p *DevProvider) Authenticate(r *http.Request) (string, error) {
	userID := strings.TrimSpace(r.Header.Get(constants.DevUserHeader))
	if userID == "" {
		return "", ErrNoIdentity
	}
	return userID, nil
}

func (p *DevProvider) AuthorizedCompanies(ctx context.Context, userID string) ([]CompanyAccess, error) {
	return []CompanyAccess{{CompanyID: p.companyID, Role: RoleAdmin}}, nil
}

func (p *DevProvider) UserProfile(ctx context.Context, userID string) (Profile, error) {
	return Profile{ID: userID, Username: userID}, nil
}
