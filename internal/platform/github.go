package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/opensharing/showcase/internal/domain"
)

// GitHub implements Client against api.github.com.
type GitHub struct {
	oauth *oauth2.Config
	// api is authenticated with the server-wide token (if configured) and
	// used for repository metadata; user calls build a per-token client.
	api *github.Client
}

// NewGitHub creates a GitHub client. serverToken raises the rate limit on
// repository metadata fetches and may be empty.
func NewGitHub(clientID, clientSecret, redirectURI, serverToken string) *GitHub {
	api := github.NewClient(nil)
	if serverToken != "" {
		api = api.WithAuthToken(serverToken)
	}
	return &GitHub{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     githuboauth.Endpoint,
			Scopes:       []string{"user:email"},
			RedirectURL:  redirectURI,
		},
		api: api,
	}
}

func (g *GitHub) Platform() domain.Platform {
	return domain.PlatformGitHub
}

func (g *GitHub) AuthorizeURL() string {
	return g.oauth.AuthCodeURL("")
}

func (g *GitHub) Exchange(ctx context.Context, code string) (Token, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Token{}, domain.AuthenticationError("GitHub OAuth failed")
	}
	return Token{AccessToken: tok.AccessToken}, nil
}

func (g *GitHub) CurrentUser(ctx context.Context, accessToken string) (*Identity, error) {
	user, _, err := g.userClient(accessToken).Users.Get(ctx, "")
	if err != nil {
		return nil, domain.APIError("GitHub user", err)
	}
	return &Identity{
		ID:        user.GetID(),
		Login:     user.GetLogin(),
		AvatarURL: user.GetAvatarURL(),
		Email:     user.GetEmail(),
	}, nil
}

// VerifiedPrimaryEmail lists the user's emails and returns the one marked
// both primary and verified. GitHub always exposes the email list to the
// user:email scope, so the list call is made unconditionally.
func (g *GitHub) VerifiedPrimaryEmail(ctx context.Context, accessToken string, _ *Identity) (string, error) {
	emails, _, err := g.userClient(accessToken).Users.ListEmails(ctx, nil)
	if err != nil {
		return "", domain.APIError("GitHub user emails", err)
	}
	for _, e := range emails {
		if e.GetPrimary() && e.GetVerified() {
			return e.GetEmail(), nil
		}
	}
	return "", nil
}

func (g *GitHub) RepoDetail(ctx context.Context, repoID string) (*domain.RepoDetail, error) {
	owner, name, ok := strings.Cut(repoID, "/")
	if !ok {
		return nil, domain.NotFound("repository " + repoID)
	}

	repo, _, err := g.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, domain.APIError("GitHub repository", err)
	}

	contributors, _, err := g.api.Repositories.ListContributors(ctx, owner, name,
		&github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: 100}})
	if err != nil {
		return nil, domain.APIError("GitHub repository contributors", err)
	}

	detail := &domain.RepoDetail{
		Name:            repo.GetName(),
		RepoURL:         fmt.Sprintf("https://github.com/%s", repo.GetFullName()),
		Avatar:          repo.GetOwner().GetAvatarURL(),
		WebsiteURL:      repo.GetHomepage(),
		Stars:           repo.GetStargazersCount(),
		Forks:           repo.GetForksCount(),
		Watchers:        repo.GetSubscribersCount(),
		Contributors:    len(contributors),
		Issues:          repo.GetOpenIssuesCount(),
		OwnerPlatformID: repo.GetOwner().GetID(),
	}
	if lic := repo.GetLicense(); lic != nil {
		spdx := lic.GetSPDXID()
		detail.License = &spdx
	}
	if lang := repo.GetLanguage(); lang != "" {
		detail.ProgrammingLanguage = &lang
	}
	if pushed := repo.GetPushedAt(); !pushed.IsZero() {
		t := pushed.Time
		detail.LastCommitAt = &t
	}
	if created := repo.GetCreatedAt(); !created.IsZero() {
		t := created.Time
		detail.RepoCreatedAt = &t
	}
	return detail, nil
}

func (g *GitHub) userClient(accessToken string) *github.Client {
	return github.NewClient(nil).WithAuthToken(accessToken)
}
