package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

type mockOAuth1Strategy struct {
	requestToken    *share.OAuthToken
	requestTokenErr error
	exchanged       int
	token           *share.AccessToken
}

func (m *mockOAuth1Strategy) Platform() string { return "Mock" }

func (m *mockOAuth1Strategy) RequestToken(ctx context.Context) (*share.OAuthToken, error) {
	return m.requestToken, m.requestTokenErr
}

func (m *mockOAuth1Strategy) AuthURL(requestToken string) string {
	return "https://provider.example/authorize?oauth_token=" + requestToken
}

func (m *mockOAuth1Strategy) ExchangeVerifier(ctx context.Context, token *share.OAuthToken, verifier string) (*share.AccessToken, error) {
	m.exchanged++
	return m.token, nil
}

func TestOAuth1GenerateAuthURL(t *testing.T) {
	strategy := &mockOAuth1Strategy{
		requestToken: &share.OAuthToken{Token: "rt", TokenSecret: "rs", CallbackConfirmed: true},
	}
	store := cache.NewMemory()
	session := NewOAuth1Session(strategy, store, logger.Nop{})

	url, err := session.GenerateAuthURL(context.Background())
	if err != nil {
		t.Fatalf("generate auth url: %v", err)
	}
	if url != "https://provider.example/authorize?oauth_token=rt" {
		t.Errorf("unexpected auth url %q", url)
	}

	cached, _ := store.Get("Mock_oauth1_temp_oauth_token")
	if cached == nil {
		t.Fatal("request token was not cached")
	}
}

func TestOAuth1GenerateAuthURLIncompleteToken(t *testing.T) {
	cases := []*share.OAuthToken{
		{Token: "", TokenSecret: "rs", CallbackConfirmed: true},
		{Token: "rt", TokenSecret: "", CallbackConfirmed: true},
		{Token: "rt", TokenSecret: "rs", CallbackConfirmed: false},
	}
	for _, requestToken := range cases {
		session := NewOAuth1Session(&mockOAuth1Strategy{requestToken: requestToken}, cache.NewMemory(), logger.Nop{})
		if _, err := session.GenerateAuthURL(context.Background()); err == nil {
			t.Errorf("expected error for incomplete request token %+v", requestToken)
		}
	}
}

func TestOAuth1GetAccessToken(t *testing.T) {
	strategy := &mockOAuth1Strategy{
		requestToken: &share.OAuthToken{Token: "rt", TokenSecret: "rs", CallbackConfirmed: true},
		token:        &share.AccessToken{Token: "at", TokenSecret: "as"},
	}
	session := NewOAuth1Session(strategy, cache.NewMemory(), logger.Nop{})

	if _, err := session.GenerateAuthURL(context.Background()); err != nil {
		t.Fatalf("generate auth url: %v", err)
	}

	params := map[string]string{"oauth_token": "rt", "oauth_verifier": "v1"}
	token, err := session.GetAccessToken(context.Background(), params)
	if err != nil {
		t.Fatalf("get access token: %v", err)
	}
	if token.Token != "at" || token.TokenSecret != "as" {
		t.Errorf("unexpected token %+v", token)
	}

	// The cached request token is consumed: a replay finds nothing.
	_, err = session.GetAccessToken(context.Background(), params)
	var stateErr *share.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError on replay, got %v", err)
	}
	if strategy.exchanged != 1 {
		t.Errorf("expected exactly one exchange, got %d", strategy.exchanged)
	}
}

func TestOAuth1GetAccessTokenMismatch(t *testing.T) {
	strategy := &mockOAuth1Strategy{
		requestToken: &share.OAuthToken{Token: "rt", TokenSecret: "rs", CallbackConfirmed: true},
	}
	session := NewOAuth1Session(strategy, cache.NewMemory(), logger.Nop{})

	if _, err := session.GenerateAuthURL(context.Background()); err != nil {
		t.Fatalf("generate auth url: %v", err)
	}

	_, err := session.GetAccessToken(context.Background(), map[string]string{
		"oauth_token": "tampered", "oauth_verifier": "v1",
	})
	var stateErr *share.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if strategy.exchanged != 0 {
		t.Errorf("exchange must not run on a tampered oauth_token")
	}
}

func TestOAuth1GetAccessTokenMissingParams(t *testing.T) {
	session := NewOAuth1Session(&mockOAuth1Strategy{}, cache.NewMemory(), logger.Nop{})

	for _, params := range []map[string]string{
		{"oauth_verifier": "v1"},
		{"oauth_token": "rt"},
	} {
		_, err := session.GetAccessToken(context.Background(), params)
		var stateErr *share.StateError
		if !errors.As(err, &stateErr) {
			t.Errorf("expected StateError for params %v, got %v", params, err)
		}
	}
}

func TestOAuth1NeverRefreshable(t *testing.T) {
	session := NewOAuth1Session(&mockOAuth1Strategy{}, cache.NewMemory(), logger.Nop{})
	session.SetToken(&share.AccessToken{Token: "at"})

	if session.AllowRefreshToken() {
		t.Error("OAuth1 must never allow refresh")
	}
	if session.IsAccessTokenExpired() {
		t.Error("OAuth1 tokens do not expire")
	}
	_, err := session.RefreshAccessToken(context.Background())
	var unsupported *share.UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedError, got %v", err)
	}
}
