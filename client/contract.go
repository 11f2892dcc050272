// Package client defines the platform adapter contract, the shared
// adapter plumbing, the error-translation dispatch wrapper and the nine
// platform adapters.
package client

import (
	"context"

	"github.com/getsocialkit/socialkit/share"
)

// Authorizer is the token life-cycle capability.
type Authorizer interface {
	InitAuth(config *share.AuthConfig, token *share.AccessToken) error
	GenerateAuthURL(ctx context.Context) (string, error)
	GetAccessToken(ctx context.Context, params map[string]string) (*share.AccessToken, error)
	IsAccessTokenExpired() bool
	AllowRefreshToken() bool
	RefreshAccessToken(ctx context.Context) (*share.AccessToken, error)
}

// Profiler is the normalized-identity capability. Implementations must
// not fail on missing optional fields; absent values map to defaults.
type Profiler interface {
	GetUserProfile(ctx context.Context) (*share.UserProfile, error)
}

// Sharer is the publish capability. At least one of CanShareToUser and
// CanShareToChannel is true per platform; an empty channel list is valid
// for platforms with no channel concept.
type Sharer interface {
	CanShareToUser() bool
	CanShareToChannel() bool
	GetShareChannelList(ctx context.Context) ([]share.Channel, error)
	ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error)
	// AsyncURL repeats the URL-resolution search for a share that
	// returned with AsyncURLPending. An empty string means still
	// unresolved.
	AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error)
}

// Client is the full capability surface of one platform adapter.
type Client interface {
	Platform() string
	Authorizer
	Profiler
	Sharer
}
