package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sitebooks/backend/internal/models"
)

// Identity is what a social provider asserts about the token holder.
type Identity struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

// ProviderVerifier validates a provider-issued token and returns the identity
// it proves. Implementations call the provider's user-info API with the token.
type ProviderVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// NewVerifiers builds the verifier set for the enabled provider names.
// Unknown names are skipped.
func NewVerifiers(enabled []string) map[models.AuthProvider]ProviderVerifier {
	verifiers := make(map[models.AuthProvider]ProviderVerifier)
	for _, name := range enabled {
		switch models.AuthProvider(name) {
		case models.ProviderGoogle:
			verifiers[models.ProviderGoogle] = &GoogleVerifier{}
		case models.ProviderGitHub:
			verifiers[models.ProviderGitHub] = &GitHubVerifier{}
		}
	}
	return verifiers
}

func providerClient(ctx context.Context, token string) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

func getJSON(ctx context.Context, client *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrProviderToken, url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GoogleVerifier checks a Google OAuth access token against the userinfo
// endpoint.
type GoogleVerifier struct{}

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Verify implements ProviderVerifier.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	var info struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := getJSON(ctx, providerClient(ctx, token), googleUserInfoURL, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderToken, err)
	}
	if info.Sub == "" || info.Email == "" || !info.EmailVerified {
		return nil, ErrProviderToken
	}
	return &Identity{
		ExternalID: info.Sub,
		Email:      strings.ToLower(info.Email),
		FirstName:  info.GivenName,
		LastName:   info.FamilyName,
	}, nil
}

// GitHubVerifier checks a GitHub OAuth access token against the user API.
type GitHubVerifier struct{}

const (
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
)

// Verify implements ProviderVerifier.
func (v *GitHubVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	client := providerClient(ctx, token)

	var user struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := getJSON(ctx, client, githubUserURL, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderToken, err)
	}
	if user.ID == 0 {
		return nil, ErrProviderToken
	}

	email := user.Email
	if email == "" {
		// Profile email can be private; the emails endpoint lists the
		// verified primary.
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, githubEmailsURL, &emails); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderToken, err)
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		return nil, ErrProviderToken
	}

	first, last := splitName(user.Name)
	return &Identity{
		ExternalID: fmt.Sprintf("%d", user.ID),
		Email:      strings.ToLower(email),
		FirstName:  first,
		LastName:   last,
	}, nil
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
