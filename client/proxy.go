package client

import (
	"context"
	"errors"

	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

// Dispatch wraps a concrete adapter and is what the factory hands out.
// Every capability invocation runs through it: failures are logged with
// the operation and platform name, then re-raised translated into the
// uniform taxonomy. Calls to a capability the adapter does not implement
// fail with share.CapabilityError.
type Dispatch struct {
	platform string
	log      logger.Logger

	auth    Authorizer
	profile Profiler
	sharer  Sharer
}

// NewDispatch wraps impl, capturing whichever capability groups it
// implements. The capability surface is closed, so plain type assertions
// replace the reflection the pattern is usually built on.
func NewDispatch(platform string, impl any, log logger.Logger) *Dispatch {
	d := &Dispatch{platform: platform, log: log}
	d.auth, _ = impl.(Authorizer)
	d.profile, _ = impl.(Profiler)
	d.sharer, _ = impl.(Sharer)
	return d
}

func (d *Dispatch) Platform() string { return d.platform }

func (d *Dispatch) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if d.auth == nil {
		return d.missing("initAuth")
	}
	return d.translate("initAuth", d.auth.InitAuth(config, token))
}

func (d *Dispatch) GenerateAuthURL(ctx context.Context) (string, error) {
	if d.auth == nil {
		return "", d.missing("generateAuthUrl")
	}
	url, err := d.auth.GenerateAuthURL(ctx)
	return url, d.translate("generateAuthUrl", err)
}

func (d *Dispatch) GetAccessToken(ctx context.Context, params map[string]string) (*share.AccessToken, error) {
	if d.auth == nil {
		return nil, d.missing("getAccessToken")
	}
	token, err := d.auth.GetAccessToken(ctx, params)
	return token, d.translate("getAccessToken", err)
}

func (d *Dispatch) IsAccessTokenExpired() bool {
	return d.auth != nil && d.auth.IsAccessTokenExpired()
}

func (d *Dispatch) AllowRefreshToken() bool {
	return d.auth != nil && d.auth.AllowRefreshToken()
}

func (d *Dispatch) RefreshAccessToken(ctx context.Context) (*share.AccessToken, error) {
	if d.auth == nil {
		return nil, d.missing("refreshAccessToken")
	}
	token, err := d.auth.RefreshAccessToken(ctx)
	return token, d.translate("refreshAccessToken", err)
}

func (d *Dispatch) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	if d.profile == nil {
		return nil, d.missing("getUserProfile")
	}
	profile, err := d.profile.GetUserProfile(ctx)
	return profile, d.translate("getUserProfile", err)
}

func (d *Dispatch) CanShareToUser() bool {
	return d.sharer != nil && d.sharer.CanShareToUser()
}

func (d *Dispatch) CanShareToChannel() bool {
	return d.sharer != nil && d.sharer.CanShareToChannel()
}

func (d *Dispatch) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	if d.sharer == nil {
		return nil, d.missing("getShareChannelList")
	}
	channels, err := d.sharer.GetShareChannelList(ctx)
	return channels, d.translate("getShareChannelList", err)
}

func (d *Dispatch) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if d.sharer == nil {
		return nil, d.missing("shareVideo")
	}
	result, err := d.sharer.ShareVideo(ctx, params)
	return result, d.translate("shareVideo", err)
}

func (d *Dispatch) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	if d.sharer == nil {
		return "", d.missing("asyncToGetUrl")
	}
	url, err := d.sharer.AsyncURL(ctx, params, result)
	return url, d.translate("asyncToGetUrl", err)
}

func (d *Dispatch) missing(op string) error {
	err := &share.CapabilityError{Platform: d.platform, Method: op}
	d.log.WriteLog(logger.LevelError, err.Error(), d.platform+"/"+op)
	return err
}

// translate logs the failure and maps it into the uniform taxonomy.
// Errors already in the taxonomy pass through unchanged in kind; vendor
// REST failures become share.ShareError with the unauthorized flag set
// from the vendor status; anything else becomes a generic ShareError.
func (d *Dispatch) translate(op string, err error) error {
	if err == nil {
		return nil
	}
	d.log.WriteLog(logger.LevelError, "exception: "+err.Error(), d.platform+"/"+op)

	var (
		configErr      *share.ConfigError
		stateErr       *share.StateError
		unsupportedErr *share.UnsupportedError
		shareErr       *share.ShareError
		apiErr         *APIError
	)
	switch {
	case errors.As(err, &configErr), errors.As(err, &stateErr), errors.As(err, &unsupportedErr), errors.As(err, &shareErr):
		return err
	case errors.As(err, &apiErr):
		return &share.ShareError{
			Msg:          apiErr.Msg,
			DevMsg:       apiErr.Body,
			HTTPCode:     apiErr.Status,
			Unauthorized: apiErr.Unauthorized(),
			Cause:        err,
		}
	default:
		return &share.ShareError{Msg: err.Error(), Cause: err}
	}
}
