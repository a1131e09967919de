package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func testGitee(server *httptest.Server) *Gitee {
	return &Gitee{
		oauth: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:  server.URL + "/oauth/authorize",
				TokenURL: server.URL + "/oauth/token",
			},
		},
		http:    server.Client(),
		apiBase: server.URL,
	}
}

func TestGiteeExchange(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "refresh token present",
			body: `{"access_token":"at","refresh_token":"rt","token_type":"bearer"}`,
		},
		{
			name:    "refresh token missing",
			body:    `{"access_token":"at","token_type":"bearer"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/oauth/token", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			g := testGitee(server)
			ctx := context.WithValue(context.Background(), oauth2.HTTPClient, server.Client())
			tok, err := g.Exchange(ctx, "code")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "at", tok.AccessToken)
			assert.Equal(t, "rt", tok.RefreshToken)
		})
	}
}

func TestGiteeCurrentUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		// Gitee authenticates with a query parameter, not a header
		require.Equal(t, "tok", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":777,"login":"octo","avatar_url":"https://img/a.png","email":"octo@example.com"}`))
	}))
	defer server.Close()

	identity, err := testGitee(server).CurrentUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(777), identity.ID)
	assert.Equal(t, "octo", identity.Login)
	assert.Equal(t, "https://img/a.png", identity.AvatarURL)
	assert.Equal(t, "octo@example.com", identity.Email)
}

// The profile placeholder means "no public email": the email list endpoint
// must not even be called.
func TestGiteeNoPublicEmailSkipsListCall(t *testing.T) {
	var emailCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/emails" {
			emailCalls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	email, err := testGitee(server).VerifiedPrimaryEmail(context.Background(), "tok",
		&Identity{ID: 777, Email: noPublicEmail})
	require.NoError(t, err)
	assert.Empty(t, email)
	assert.Zero(t, emailCalls.Load())
}

func TestGiteeVerifiedPrimaryEmail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "confirmed primary wins",
			body: `[
				{"email":"secondary@example.com","state":"confirmed","scope":["secure"]},
				{"email":"primary@example.com","state":"confirmed","scope":["primary","notification"]}
			]`,
			want: "primary@example.com",
		},
		{
			name: "unconfirmed primary is ignored",
			body: `[{"email":"primary@example.com","state":"unconfirmed","scope":["primary"]}]`,
			want: "",
		},
		{
			name: "no primary scope",
			body: `[{"email":"a@example.com","state":"confirmed","scope":["committed"]}]`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/emails", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			email, err := testGitee(server).VerifiedPrimaryEmail(context.Background(), "tok",
				&Identity{ID: 777, Email: "visible@example.com"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, email)
		})
	}
}

func TestGiteeRepoDetail(t *testing.T) {
	pushed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/acme/widget":
			_, _ = w.Write([]byte(`{
				"name":"widget","full_name":"acme/widget","homepage":"https://widget.dev",
				"stargazers_count":10,"forks_count":2,"watchers_count":7,
				"open_issues_count":3,"license":"MIT","language":"Go",
				"pushed_at":"2026-01-02T03:04:05Z",
				"owner":{"id":777,"avatar_url":"https://img/o.png"}
			}`))
		case "/repos/acme/widget/contributors":
			_, _ = w.Write([]byte(`[{},{},{}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	detail, err := testGitee(server).RepoDetail(context.Background(), "acme/widget")
	require.NoError(t, err)

	assert.Equal(t, "widget", detail.Name)
	assert.Equal(t, "https://gitee.com/acme/widget", detail.RepoURL)
	assert.Equal(t, "https://widget.dev", detail.WebsiteURL)
	assert.Equal(t, 10, detail.Stars)
	assert.Equal(t, 2, detail.Forks)
	assert.Equal(t, 7, detail.Watchers)
	assert.Equal(t, 3, detail.Contributors)
	assert.Equal(t, 3, detail.Issues)
	require.NotNil(t, detail.License)
	assert.Equal(t, "MIT", *detail.License)
	require.NotNil(t, detail.LastCommitAt)
	assert.True(t, detail.LastCommitAt.Equal(pushed))
	assert.Equal(t, int64(777), detail.OwnerPlatformID)
	assert.Equal(t, "https://img/o.png", detail.Avatar)
}
