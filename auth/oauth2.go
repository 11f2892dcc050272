// Package auth implements the authorization life-cycle shared by every
// platform adapter. The two session types own the correlation-state
// storage and validation; the handful of platform-specific operations
// (build the auth URL, exchange a code or verifier, refresh) are supplied
// by a small strategy object, so the state machine exists exactly once.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/internal/urlutil"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

// Mode selects how an OAuth2 callback is interpreted.
type Mode int

const (
	// ModeAuthorizationCode exchanges a callback code for a token over
	// the network.
	ModeAuthorizationCode Mode = iota + 1
	// ModeImplicit builds the token directly from fragment-style
	// callback parameters.
	ModeImplicit
)

// OAuth2Strategy is the platform-specific slice of the OAuth2 flow.
type OAuth2Strategy interface {
	// Platform is the adapter name, used for cache keys and log
	// categories.
	Platform() string
	// BuildAuthURL returns the provider authorization URL. The URL must
	// carry the CSRF state as a "state" query parameter.
	BuildAuthURL(ctx context.Context) (string, error)
	// ExchangeCode swaps a callback code for an access token.
	ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error)
	// Refresh renews the access token. Only called when
	// SupportsRefresh is true.
	Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error)
	// SupportsRefresh reports whether the platform issues refresh
	// tokens at all.
	SupportsRefresh() bool
}

// OAuth2Session drives the authorization-code and implicit flows:
// generate-auth-url, exchange the callback for a token, refresh. It
// writes the issued CSRF state to the cache and consumes it exactly once
// on callback.
type OAuth2Session struct {
	strategy OAuth2Strategy
	cache    cache.Cache
	log      logger.Logger
	mode     Mode
	token    *share.AccessToken
	now      func() time.Time
}

func NewOAuth2Session(strategy OAuth2Strategy, store cache.Cache, log logger.Logger) *OAuth2Session {
	return &OAuth2Session{
		strategy: strategy,
		cache:    store,
		log:      log,
		mode:     ModeAuthorizationCode,
		now:      time.Now,
	}
}

// SetMode switches the callback interpretation. The default is
// authorization-code.
func (s *OAuth2Session) SetMode(mode Mode) { s.mode = mode }

// SetToken seeds the session with a previously obtained token.
func (s *OAuth2Session) SetToken(token *share.AccessToken) { s.token = token }

// Token returns the last token seen by this session, if any.
func (s *OAuth2Session) Token() *share.AccessToken { return s.token }

func (s *OAuth2Session) stateKey() string {
	return s.strategy.Platform() + "_oauth2_state"
}

// GenerateAuthURL asks the strategy for the provider URL, extracts the
// state parameter and stores it for the callback round-trip.
func (s *OAuth2Session) GenerateAuthURL(ctx context.Context) (string, error) {
	authURL, err := s.strategy.BuildAuthURL(ctx)
	if err != nil {
		return "", &share.ConfigError{Msg: fmt.Sprintf("%s: build auth url: %v", s.strategy.Platform(), err)}
	}

	state := urlutil.ParseQuery(authURL)["state"]
	if err := s.cache.Set(s.stateKey(), []byte(state), cache.NoTTL); err != nil {
		return "", fmt.Errorf("cache auth state: %w", err)
	}

	s.write(logger.LevelInfo, "generateAuthUrl", "issued auth url: "+authURL)
	return authURL, nil
}

// GetAccessToken validates the callback parameters against the cached
// state and produces an access token. The cached state is consumed by
// the validation whether it succeeds or not.
func (s *OAuth2Session) GetAccessToken(ctx context.Context, params map[string]string) (*share.AccessToken, error) {
	switch s.mode {
	case ModeImplicit:
		return s.implicitToken(params)
	default:
		return s.exchangeToken(ctx, params)
	}
}

func (s *OAuth2Session) exchangeToken(ctx context.Context, params map[string]string) (*share.AccessToken, error) {
	if errParam := params["error"]; errParam != "" {
		if desc := params["error_description"]; desc != "" {
			return nil, fmt.Errorf("provider error: %s: %s", errParam, desc)
		}
		return nil, fmt.Errorf("provider error: %s", errParam)
	}
	state := params["state"]
	code := params["code"]
	if state == "" {
		return nil, &share.StateError{Msg: "missing request param state"}
	}
	if code == "" {
		return nil, &share.StateError{Msg: "missing request param code"}
	}
	if err := s.consumeState(state); err != nil {
		return nil, err
	}

	token, err := s.strategy.ExchangeCode(ctx, code, state)
	if err != nil {
		s.write(logger.LevelError, "getAccessToken", "code exchange failed: "+err.Error())
		return nil, err
	}

	s.token = token
	s.write(logger.LevelInfo, "getAccessToken", "access token obtained")
	return token, nil
}

func (s *OAuth2Session) implicitToken(params map[string]string) (*share.AccessToken, error) {
	if errParam := params["error"]; errParam != "" {
		return nil, fmt.Errorf("provider error: %s", errParam)
	}
	state := params["state"]
	if state == "" {
		return nil, &share.StateError{Msg: "missing request param state"}
	}
	if err := s.consumeState(state); err != nil {
		return nil, err
	}

	expiresIn, _ := strconv.ParseInt(params["expires_in"], 10, 64)
	token := &share.AccessToken{
		Token:  params["access_token"],
		UserID: params["user_id"],
		Raw:    params,
	}
	if expiresIn > 0 {
		token.ExpireTime = s.now().Unix() + expiresIn
	}

	s.token = token
	s.write(logger.LevelInfo, "getAccessToken", "access token obtained (implicit)")
	return token, nil
}

// consumeState pops the cached state and compares it to the callback's
// value. Delete-then-compare keeps the check single-use: a second
// callback with the same state finds nothing.
func (s *OAuth2Session) consumeState(state string) error {
	cached, err := s.cache.Delete(s.stateKey())
	if err != nil {
		return fmt.Errorf("read auth state: %w", err)
	}
	if cached == nil {
		return &share.StateError{Msg: "no auth state issued"}
	}
	if string(cached) != state {
		return &share.StateError{Msg: "state mismatch"}
	}
	return nil
}

// RefreshAccessToken renews the held token through the strategy.
func (s *OAuth2Session) RefreshAccessToken(ctx context.Context) (*share.AccessToken, error) {
	if s.token == nil {
		return nil, &share.ConfigError{Msg: "no access token to refresh"}
	}
	if !s.strategy.SupportsRefresh() {
		return nil, &share.UnsupportedError{Platform: s.strategy.Platform(), Op: "refresh access token"}
	}

	token, err := s.strategy.Refresh(ctx, s.token)
	if err != nil {
		s.write(logger.LevelError, "refreshAccessToken", "refresh failed: "+err.Error())
		return nil, err
	}

	s.token = token
	s.write(logger.LevelInfo, "refreshAccessToken", "access token refreshed")
	return token, nil
}

// IsAccessTokenExpired reports whether the held token is unusable now.
func (s *OAuth2Session) IsAccessTokenExpired() bool {
	return s.token.Expired(s.now())
}

// AllowRefreshToken reports whether a refresh can succeed at this
// instant: the platform supports it and the held refresh credential is
// inside its own validity window.
func (s *OAuth2Session) AllowRefreshToken() bool {
	if !s.strategy.SupportsRefresh() || s.token == nil || s.token.RefreshToken == "" {
		return false
	}
	if s.token.RefreshTokenExpireTime != 0 && s.now().Unix() > s.token.RefreshTokenExpireTime {
		return false
	}
	return true
}

func (s *OAuth2Session) write(level, op, msg string) {
	s.log.WriteLog(level, msg, s.strategy.Platform()+"/"+op)
}
