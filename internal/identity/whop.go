package identity

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/yukikurage/questboard-api/internal/constants"
	"github.com/yukikurage/questboard-api/internal/logger"
)

type WhopConfig struct {
	APIBaseURL     string
	APIKey         string
	AppID          string
	TokenPublicKey string // PEM encoded ES256 public key
}

// WhopProvider verifies the platform-issued user token and asks the
// platform API for profiles and company access.
type WhopProvider struct {
	log     *logger.Logger
	baseURL string
	appID   string
	key     *ecdsa.PublicKey
	client  *http.Client
}

func NewWhopProvider(cfg WhopConfig, log *logger.Logger) (*WhopProvider, error) {
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.TokenPublicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token public key: %w", err)
	}

	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.APIKey,
		TokenType:   "Bearer",
	}))
	client.Timeout = 10 * time.Second

	return &WhopProvider{
		log:     log.With("service", "WhopProvider"),
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		appID:   cfg.AppID,
		key:     key,
		client:  client,
	}, nil
}

func (p *WhopProvider) Authenticate(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get(constants.IdentityTokenHeader))
	if raw == "" {
		return "", ErrNoIdentity
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()})}
	if p.appID != "" {
		opts = append(opts, jwt.WithAudience(p.appID))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return p.key, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrNoIdentity
	}
	return claims.Subject, nil
}

type whopUser struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture *struct {
		URL string `json:"url"`
	} `json:"profile_picture"`
}

type whopCompanyList struct {
	Data []struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"data"`
}

func (p *WhopProvider) UserProfile(ctx context.Context, userID string) (Profile, error) {
	var u whopUser
	if err := p.get(ctx, "/users/"+url.PathEscape(userID), &u); err != nil {
		return Profile{}, err
	}
	profile := Profile{ID: userID, Username: u.Username}
	if profile.Username == "" {
		profile.Username = FallbackUsername(userID)
	}
	if u.ProfilePicture != nil && u.ProfilePicture.URL != "" {
		avatar := u.ProfilePicture.URL
		profile.AvatarURL = &avatar
	}
	return profile, nil
}

func (p *WhopProvider) AuthorizedCompanies(ctx context.Context, userID string) ([]CompanyAccess, error) {
	var list whopCompanyList
	if err := p.get(ctx, "/users/"+url.PathEscape(userID)+"/companies", &list); err != nil {
		return nil, err
	}
	out := make([]CompanyAccess, 0, len(list.Data))
	for _, c := range list.Data {
		if c.ID == "" {
			continue
		}
		out = append(out, CompanyAccess{CompanyID: c.ID, Role: normalizeRole(c.Role)})
	}
	return out, nil
}

func (p *WhopProvider) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.log.Warn("identity API error", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode identity API response: %w", err)
	}
	return nil
}

func normalizeRole(role string) Role {
	switch Role(strings.ToLower(role)) {
	case RoleOwner:
		return RoleOwner
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// IsUnavailable reports whether err came from the provider being unreachable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
