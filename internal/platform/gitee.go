package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"golang.org/x/oauth2"

	"github.com/opensharing/showcase/internal/domain"
)

// noPublicEmail is the placeholder Gitee returns in the /user profile when
// the account has no public email. Seeing it means the email list is not
// worth fetching at all.
const noPublicEmail = "未公开邮箱"

const giteeAPIBase = "https://gitee.com/api/v5"

var giteeEndpoint = oauth2.Endpoint{
	AuthURL:  "https://gitee.com/oauth/authorize",
	TokenURL: "https://gitee.com/oauth/token",
}

// Gitee implements Client against gitee.com/api/v5. Gitee has no Go SDK,
// so calls are typed wrappers over net/http.
type Gitee struct {
	oauth   *oauth2.Config
	http    *http.Client
	apiBase string
}

// NewGitee creates a Gitee client.
func NewGitee(clientID, clientSecret, redirectURI string) *Gitee {
	return &Gitee{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     giteeEndpoint,
			Scopes:       []string{"user_info", "emails"},
			RedirectURL:  redirectURI,
		},
		http:    &http.Client{Timeout: 15 * time.Second},
		apiBase: giteeAPIBase,
	}
}

func (g *Gitee) Platform() domain.Platform {
	return domain.PlatformGitee
}

func (g *Gitee) AuthorizeURL() string {
	return g.oauth.AuthCodeURL("")
}

// Exchange trades the code for tokens. Gitee issues a refresh token
// alongside the access token.
func (g *Gitee) Exchange(ctx context.Context, code string) (Token, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil || tok.RefreshToken == "" {
		return Token{}, domain.AuthenticationError("Gitee OAuth failed")
	}
	return Token{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}, nil
}

type giteeUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	Email     string `json:"email"`
}

func (g *Gitee) CurrentUser(ctx context.Context, accessToken string) (*Identity, error) {
	var user giteeUser
	if err := g.get(ctx, "/user", accessToken, &user); err != nil {
		return nil, domain.APIError("Gitee user", err)
	}
	return &Identity{
		ID:        user.ID,
		Login:     user.Login,
		AvatarURL: user.AvatarURL,
		Email:     user.Email,
	}, nil
}

type giteeEmail struct {
	Email string   `json:"email"`
	State string   `json:"state"`
	Scope []string `json:"scope"`
}

// VerifiedPrimaryEmail returns the confirmed primary email, or "" when
// the profile carries the no-public-email placeholder. In the placeholder
// case the email-list endpoint is never called; that is Gitee behavior,
// not an optimization.
func (g *Gitee) VerifiedPrimaryEmail(ctx context.Context, accessToken string, user *Identity) (string, error) {
	if user.Email == noPublicEmail {
		return "", nil
	}
	var emails []giteeEmail
	if err := g.get(ctx, "/emails", accessToken, &emails); err != nil {
		return "", domain.APIError("Gitee user emails", err)
	}
	for _, e := range emails {
		if e.State == "confirmed" && slices.Contains(e.Scope, "primary") {
			return e.Email, nil
		}
	}
	return "", nil
}

type giteeRepo struct {
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Homepage        string     `json:"homepage"`
	StargazersCount int        `json:"stargazers_count"`
	ForksCount      int        `json:"forks_count"`
	WatchersCount   int        `json:"watchers_count"`
	OpenIssuesCount int        `json:"open_issues_count"`
	License         *string    `json:"license"`
	Language        *string    `json:"language"`
	PushedAt        *time.Time `json:"pushed_at"`
	CreatedAt       *time.Time `json:"created_at"`
	Owner           struct {
		ID        int64  `json:"id"`
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
}

func (g *Gitee) RepoDetail(ctx context.Context, repoID string) (*domain.RepoDetail, error) {
	var repo giteeRepo
	if err := g.get(ctx, "/repos/"+repoID, "", &repo); err != nil {
		return nil, domain.APIError("Gitee repository", err)
	}

	var contributors []json.RawMessage
	if err := g.get(ctx, "/repos/"+repoID+"/contributors", "", &contributors); err != nil {
		return nil, domain.APIError("Gitee repository contributors", err)
	}

	return &domain.RepoDetail{
		Name:                repo.Name,
		RepoURL:             fmt.Sprintf("https://gitee.com/%s", repo.FullName),
		Avatar:              repo.Owner.AvatarURL,
		WebsiteURL:          repo.Homepage,
		Stars:               repo.StargazersCount,
		Forks:               repo.ForksCount,
		Watchers:            repo.WatchersCount,
		Contributors:        len(contributors),
		Issues:              repo.OpenIssuesCount,
		License:             repo.License,
		ProgrammingLanguage: repo.Language,
		LastCommitAt:        repo.PushedAt,
		RepoCreatedAt:       repo.CreatedAt,
		OwnerPlatformID:     repo.Owner.ID,
	}, nil
}

// get performs a GET against the Gitee API. Gitee authenticates via an
// access_token query parameter rather than a header.
func (g *Gitee) get(ctx context.Context, api, accessToken string, out any) error {
	u, err := url.Parse(g.apiBase + api)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	if accessToken != "" {
		q := u.Query()
		q.Set("access_token", accessToken)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", api, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", api, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", api, err)
	}
	return nil
}
