package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

type mockOAuth2Strategy struct {
	authURL       string
	authURLErr    error
	exchanged     []string
	token         *share.AccessToken
	exchangeErr   error
	refreshed     int
	refreshToken  *share.AccessToken
	allowsRefresh bool
}

func (m *mockOAuth2Strategy) Platform() string { return "Mock" }

func (m *mockOAuth2Strategy) BuildAuthURL(ctx context.Context) (string, error) {
	return m.authURL, m.authURLErr
}

func (m *mockOAuth2Strategy) ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error) {
	m.exchanged = append(m.exchanged, code)
	return m.token, m.exchangeErr
}

func (m *mockOAuth2Strategy) Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error) {
	m.refreshed++
	return m.refreshToken, nil
}

func (m *mockOAuth2Strategy) SupportsRefresh() bool { return m.allowsRefresh }

func newOAuth2Fixture(strategy *mockOAuth2Strategy) *OAuth2Session {
	return NewOAuth2Session(strategy, cache.NewMemory(), logger.Nop{})
}

func TestOAuth2GenerateAuthURLCachesState(t *testing.T) {
	strategy := &mockOAuth2Strategy{authURL: "https://provider.example/auth?client_id=c&state=s1"}
	store := cache.NewMemory()
	session := NewOAuth2Session(strategy, store, logger.Nop{})

	url, err := session.GenerateAuthURL(context.Background())
	if err != nil {
		t.Fatalf("generate auth url: %v", err)
	}
	if url != strategy.authURL {
		t.Errorf("expected %q, got %q", strategy.authURL, url)
	}

	cached, _ := store.Get("Mock_oauth2_state")
	if string(cached) != "s1" {
		t.Errorf("expected cached state s1, got %q", cached)
	}
}

func TestOAuth2GenerateAuthURLFailure(t *testing.T) {
	strategy := &mockOAuth2Strategy{authURLErr: errors.New("no endpoint")}
	session := newOAuth2Fixture(strategy)

	_, err := session.GenerateAuthURL(context.Background())
	var cfgErr *share.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestOAuth2GetAccessTokenValidState(t *testing.T) {
	strategy := &mockOAuth2Strategy{
		authURL: "https://provider.example/auth?state=s1",
		token:   &share.AccessToken{Token: "at"},
	}
	store := cache.NewMemory()
	session := NewOAuth2Session(strategy, store, logger.Nop{})

	if _, err := session.GenerateAuthURL(context.Background()); err != nil {
		t.Fatalf("generate auth url: %v", err)
	}

	params := map[string]string{"state": "s1", "code": "c1"}
	token, err := session.GetAccessToken(context.Background(), params)
	if err != nil {
		t.Fatalf("get access token: %v", err)
	}
	if token.Token != "at" {
		t.Errorf("expected token at, got %q", token.Token)
	}
	if len(strategy.exchanged) != 1 || strategy.exchanged[0] != "c1" {
		t.Errorf("expected one exchange of c1, got %v", strategy.exchanged)
	}

	// The state is single-use: the same callback must now fail.
	_, err = session.GetAccessToken(context.Background(), params)
	var stateErr *share.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError on replay, got %v", err)
	}
	if len(strategy.exchanged) != 1 {
		t.Errorf("exchange must not run on replay, got %v", strategy.exchanged)
	}
}

func TestOAuth2GetAccessTokenUnknownState(t *testing.T) {
	strategy := &mockOAuth2Strategy{token: &share.AccessToken{Token: "at"}}
	session := newOAuth2Fixture(strategy)

	_, err := session.GetAccessToken(context.Background(), map[string]string{"state": "forged", "code": "c1"})
	var stateErr *share.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if len(strategy.exchanged) != 0 {
		t.Errorf("exchange must never run for an unissued state")
	}
}

func TestOAuth2GetAccessTokenStateMismatch(t *testing.T) {
	strategy := &mockOAuth2Strategy{authURL: "https://provider.example/auth?state=s1"}
	session := newOAuth2Fixture(strategy)

	if _, err := session.GenerateAuthURL(context.Background()); err != nil {
		t.Fatalf("generate auth url: %v", err)
	}

	_, err := session.GetAccessToken(context.Background(), map[string]string{"state": "s2", "code": "c1"})
	var stateErr *share.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if len(strategy.exchanged) != 0 {
		t.Errorf("exchange must never run on mismatch")
	}
}

func TestOAuth2GetAccessTokenProviderError(t *testing.T) {
	session := newOAuth2Fixture(&mockOAuth2Strategy{})

	_, err := session.GetAccessToken(context.Background(), map[string]string{
		"error": "access_denied", "error_description": "user said no",
	})
	if err == nil {
		t.Fatal("expected error for provider-reported failure")
	}
}

func TestOAuth2ImplicitMode(t *testing.T) {
	strategy := &mockOAuth2Strategy{authURL: "https://provider.example/auth?state=s1"}
	session := newOAuth2Fixture(strategy)
	session.SetMode(ModeImplicit)
	now := time.Unix(1_700_000_000, 0)
	session.now = func() time.Time { return now }

	if _, err := session.GenerateAuthURL(context.Background()); err != nil {
		t.Fatalf("generate auth url: %v", err)
	}

	token, err := session.GetAccessToken(context.Background(), map[string]string{
		"state": "s1", "access_token": "at", "expires_in": "3600", "user_id": "42",
	})
	if err != nil {
		t.Fatalf("get access token: %v", err)
	}
	if token.Token != "at" || token.UserID != "42" {
		t.Errorf("unexpected token %+v", token)
	}
	if token.ExpireTime != now.Unix()+3600 {
		t.Errorf("expected expire time %d, got %d", now.Unix()+3600, token.ExpireTime)
	}
	if len(strategy.exchanged) != 0 {
		t.Errorf("implicit mode must not call the exchange")
	}
}

func TestOAuth2RefreshWithoutToken(t *testing.T) {
	session := newOAuth2Fixture(&mockOAuth2Strategy{allowsRefresh: true})

	_, err := session.RefreshAccessToken(context.Background())
	var cfgErr *share.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestOAuth2RefreshUnsupported(t *testing.T) {
	session := newOAuth2Fixture(&mockOAuth2Strategy{})
	session.SetToken(&share.AccessToken{Token: "at"})

	_, err := session.RefreshAccessToken(context.Background())
	var unsupported *share.UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedError, got %v", err)
	}
}

func TestOAuth2RefreshReplacesToken(t *testing.T) {
	strategy := &mockOAuth2Strategy{
		allowsRefresh: true,
		refreshToken:  &share.AccessToken{Token: "at2", RefreshToken: "rt2"},
	}
	session := newOAuth2Fixture(strategy)
	session.SetToken(&share.AccessToken{Token: "at1", RefreshToken: "rt1"})

	token, err := session.RefreshAccessToken(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if token.Token != "at2" || session.Token().Token != "at2" {
		t.Errorf("expected refreshed token to replace the held one")
	}
}

func TestOAuth2ExpiryBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	session := newOAuth2Fixture(&mockOAuth2Strategy{})
	session.now = func() time.Time { return now }

	cases := []struct {
		name    string
		token   *share.AccessToken
		expired bool
	}{
		{"nil token", nil, false},
		{"never expires", &share.AccessToken{Token: "at"}, false},
		{"at the boundary", &share.AccessToken{Token: "at", ExpireTime: now.Unix()}, false},
		{"past expiry", &share.AccessToken{Token: "at", ExpireTime: now.Unix() - 1}, true},
		{
			"past expiry, live refresh token",
			&share.AccessToken{
				Token: "at", ExpireTime: now.Unix() - 1,
				RefreshToken: "rt", RefreshTokenExpireTime: now.Unix() + 100,
			},
			false,
		},
		{
			"both expired",
			&share.AccessToken{
				Token: "at", ExpireTime: now.Unix() - 10,
				RefreshToken: "rt", RefreshTokenExpireTime: now.Unix() - 1,
			},
			true,
		},
	}
	for _, tc := range cases {
		session.SetToken(tc.token)
		if got := session.IsAccessTokenExpired(); got != tc.expired {
			t.Errorf("%s: expected expired=%v, got %v", tc.name, tc.expired, got)
		}
	}
}

func TestOAuth2AllowRefreshToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	strategy := &mockOAuth2Strategy{allowsRefresh: true}
	session := newOAuth2Fixture(strategy)
	session.now = func() time.Time { return now }

	if session.AllowRefreshToken() {
		t.Error("no token held, refresh must not be allowed")
	}

	session.SetToken(&share.AccessToken{Token: "at"})
	if session.AllowRefreshToken() {
		t.Error("no refresh token, refresh must not be allowed")
	}

	session.SetToken(&share.AccessToken{Token: "at", RefreshToken: "rt"})
	if !session.AllowRefreshToken() {
		t.Error("refresh token without expiry must allow refresh")
	}

	session.SetToken(&share.AccessToken{
		Token: "at", RefreshToken: "rt", RefreshTokenExpireTime: now.Unix() - 1,
	})
	if session.AllowRefreshToken() {
		t.Error("expired refresh token must not allow refresh")
	}

	strategy.allowsRefresh = false
	session.SetToken(&share.AccessToken{Token: "at", RefreshToken: "rt"})
	if session.AllowRefreshToken() {
		t.Error("platform without refresh must never allow it")
	}
}
