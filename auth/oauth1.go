package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

// OAuth1Strategy is the platform-specific slice of the OAuth1 flow.
type OAuth1Strategy interface {
	Platform() string
	// RequestToken obtains the short-lived request token that opens the
	// dance.
	RequestToken(ctx context.Context) (*share.OAuthToken, error)
	// AuthURL builds the redirect URL for an issued request token.
	AuthURL(requestToken string) string
	// ExchangeVerifier swaps the request token plus callback verifier
	// for the long-lived access token.
	ExchangeVerifier(ctx context.Context, token *share.OAuthToken, verifier string) (*share.AccessToken, error)
}

// OAuth1Session drives the three-legged OAuth1 flow. The request token
// is cached whole between issuing the auth URL and the callback, and the
// callback's oauth_token must match the cached identity. OAuth1
// platforms never support refresh.
type OAuth1Session struct {
	strategy OAuth1Strategy
	cache    cache.Cache
	log      logger.Logger
	token    *share.AccessToken
	now      func() time.Time
}

func NewOAuth1Session(strategy OAuth1Strategy, store cache.Cache, log logger.Logger) *OAuth1Session {
	return &OAuth1Session{
		strategy: strategy,
		cache:    store,
		log:      log,
		now:      time.Now,
	}
}

// SetToken seeds the session with a previously obtained token.
func (s *OAuth1Session) SetToken(token *share.AccessToken) { s.token = token }

// Token returns the last token seen by this session, if any.
func (s *OAuth1Session) Token() *share.AccessToken { return s.token }

func (s *OAuth1Session) tokenKey() string {
	return s.strategy.Platform() + "_oauth1_temp_oauth_token"
}

// GenerateAuthURL obtains a request token, caches it for the callback
// round-trip and builds the redirect URL from it.
func (s *OAuth1Session) GenerateAuthURL(ctx context.Context) (string, error) {
	requestToken, err := s.strategy.RequestToken(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: obtain request token: %w", s.strategy.Platform(), err)
	}
	if requestToken.Token == "" || requestToken.TokenSecret == "" || !requestToken.CallbackConfirmed {
		return "", fmt.Errorf("%s: incomplete request token response", s.strategy.Platform())
	}

	encoded, err := json.Marshal(requestToken)
	if err != nil {
		return "", fmt.Errorf("encode request token: %w", err)
	}
	if err := s.cache.Set(s.tokenKey(), encoded, cache.NoTTL); err != nil {
		return "", fmt.Errorf("cache request token: %w", err)
	}

	authURL := s.strategy.AuthURL(requestToken.Token)
	s.write(logger.LevelInfo, "generateAuthUrl", "issued auth url: "+authURL)
	return authURL, nil
}

// GetAccessToken validates the callback against the cached request token
// and exchanges the verifier. The cached entry is consumed by the
// validation whether it succeeds or not.
func (s *OAuth1Session) GetAccessToken(ctx context.Context, params map[string]string) (*share.AccessToken, error) {
	callbackToken := params["oauth_token"]
	verifier := params["oauth_verifier"]
	if callbackToken == "" {
		return nil, &share.StateError{Msg: "missing request param oauth_token"}
	}
	if verifier == "" {
		return nil, &share.StateError{Msg: "missing request param oauth_verifier"}
	}

	cached, err := s.cache.Delete(s.tokenKey())
	if err != nil {
		return nil, fmt.Errorf("read request token: %w", err)
	}
	if cached == nil {
		return nil, &share.StateError{Msg: "no request token issued"}
	}
	var requestToken share.OAuthToken
	if err := json.Unmarshal(cached, &requestToken); err != nil {
		return nil, &share.StateError{Msg: "cached request token is corrupt"}
	}
	if requestToken.Token != callbackToken {
		return nil, &share.StateError{Msg: "oauth_token mismatch"}
	}

	token, err := s.strategy.ExchangeVerifier(ctx, &requestToken, verifier)
	if err != nil {
		s.write(logger.LevelError, "getAccessToken", "verifier exchange failed: "+err.Error())
		return nil, err
	}

	s.token = token
	s.write(logger.LevelInfo, "getAccessToken", "access token obtained")
	return token, nil
}

// RefreshAccessToken always fails: OAuth1 tokens are not refreshable.
func (s *OAuth1Session) RefreshAccessToken(ctx context.Context) (*share.AccessToken, error) {
	return nil, &share.UnsupportedError{Platform: s.strategy.Platform(), Op: "refresh access token"}
}

// IsAccessTokenExpired is always false: OAuth1 access tokens do not
// expire.
func (s *OAuth1Session) IsAccessTokenExpired() bool { return false }

// AllowRefreshToken is always false for OAuth1 platforms.
func (s *OAuth1Session) AllowRefreshToken() bool { return false }

func (s *OAuth1Session) write(level, op, msg string) {
	s.log.WriteLog(level, msg, s.strategy.Platform()+"/"+op)
}
