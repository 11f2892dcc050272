package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/getsocialkit/socialkit/auth"
	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

const vimeoAPIBase = "https://api.vimeo.com"

var vimeoDefaultScope = []string{
	"public", "private", "purchased", "create", "edit",
	"delete", "interact", "upload", "promo_codes", "video_files",
}

var vimeoEndpoint = oauth2.Endpoint{
	AuthURL:  vimeoAPIBase + "/oauth/authorize",
	TokenURL: vimeoAPIBase + "/oauth/access_token",
}

// Vimeo publishes by handing the platform a pull link: the video is
// fetched server-side, so no local upload is needed. Tokens do not
// expire. A rejected token comes back as 401 with vendor code 8003.
type Vimeo struct {
	*auth.OAuth2Session
	base       *Base
	conf       *oauth2.Config
	thumbRetry Poller
}

func NewVimeo(store cache.Cache, log logger.Logger, tempDir string) *Vimeo {
	v := &Vimeo{
		base:       NewBase("Vimeo", store, log, tempDir),
		thumbRetry: Poller{Attempts: 4, Interval: 30 * time.Second},
	}
	v.OAuth2Session = auth.NewOAuth2Session(v, store, log)
	return v
}

func (v *Vimeo) Platform() string { return v.base.Platform() }

func (v *Vimeo) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return &share.ConfigError{Msg: "vimeo: client id and secret are required"}
	}
	scope := config.Scope
	if len(scope) == 0 {
		scope = vimeoDefaultScope
	}
	v.conf = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       scope,
		Endpoint:     vimeoEndpoint,
	}
	v.SetToken(token)
	return nil
}

func (v *Vimeo) BuildAuthURL(ctx context.Context) (string, error) {
	if v.conf == nil {
		return "", fmt.Errorf("vimeo: auth not initialized")
	}
	return v.conf.AuthCodeURL(uuid.NewString()), nil
}

func (v *Vimeo) ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error) {
	tok, err := v.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("vimeo: code exchange: %w", err)
	}
	token := &share.AccessToken{Token: tok.AccessToken}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		token.Scope = strings.Split(scope, " ")
	}
	// The token response embeds the authorized user.
	if user, ok := tok.Extra("user").(map[string]any); ok {
		if uri, ok := user["uri"].(string); ok {
			token.UserID = lastPathSegment(uri)
		}
	}
	return token, nil
}

func (v *Vimeo) Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error) {
	return nil, &share.UnsupportedError{Platform: v.Platform(), Op: "refresh access token"}
}

func (v *Vimeo) SupportsRefresh() bool { return false }

func (v *Vimeo) bearer() (string, error) {
	token := v.Token()
	if token == nil || token.Token == "" {
		return "", &share.ConfigError{Msg: "vimeo: no access token"}
	}
	return token.Token, nil
}

func (v *Vimeo) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	bearer, err := v.bearer()
	if err != nil {
		return nil, err
	}
	var me struct {
		URI      string `json:"uri"`
		Name     string `json:"name"`
		Link     string `json:"link"`
		Pictures struct {
			Sizes []struct {
				Link string `json:"link"`
			} `json:"sizes"`
		} `json:"pictures"`
	}
	if err := v.base.GetJSON(ctx, vimeoAPIBase+"/me", bearer, &me); err != nil {
		return nil, err
	}
	profile := &share.UserProfile{
		ID:       lastPathSegment(me.URI),
		FullName: me.Name,
		Link:     me.Link,
	}
	if len(me.Pictures.Sizes) > 0 {
		profile.PictureURL = me.Pictures.Sizes[0].Link
	}
	return profile, nil
}

func (v *Vimeo) CanShareToUser() bool    { return true }
func (v *Vimeo) CanShareToChannel() bool { return false }

func (v *Vimeo) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	return []share.Channel{}, nil
}

func (v *Vimeo) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "vimeo: video url is required"}
	}
	bearer, err := v.bearer()
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"upload": map[string]string{
			"approach": "pull",
			"link":     params.VideoURL,
		},
		"name":        params.Title,
		"description": params.Description,
	}
	var created struct {
		URI         string `json:"uri"`
		Link        string `json:"link"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := v.base.PostJSON(ctx, vimeoAPIBase+"/me/videos", bearer, payload, &created); err != nil {
		return nil, err
	}
	if created.Link == "" {
		return nil, &share.ShareError{Msg: "vimeo: publish returned no link"}
	}
	videoID := lastPathSegment(created.URI)

	// The thumbnail cannot be attached right after the pull request is
	// accepted; retry a few times and give up quietly.
	if params.ThumbnailURL != "" {
		_, _ = v.thumbRetry.Resolve(ctx, func(ctx context.Context) (string, error) {
			if err := v.setThumbnail(ctx, bearer, videoID, params.ThumbnailURL); err != nil {
				v.base.WriteLog(logger.LevelError, "thumbnail upload failed: "+err.Error(), "shareVideo")
				return "", err
			}
			return "done", nil
		})
	}

	return &share.VideoShareResult{
		ID:          videoID,
		URL:         created.Link,
		Title:       created.Name,
		Description: created.Description,
		CreatedTime: time.Now().Unix(),
	}, nil
}

func (v *Vimeo) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	return "", nil
}

// setThumbnail downloads the image, reserves a picture slot on the
// video, uploads the bytes and activates the picture.
func (v *Vimeo) setThumbnail(ctx context.Context, bearer, videoID, thumbnailURL string) error {
	var video struct {
		Metadata struct {
			Connections struct {
				Pictures struct {
					URI string `json:"uri"`
				} `json:"pictures"`
			} `json:"connections"`
		} `json:"metadata"`
	}
	if err := v.base.GetJSON(ctx, vimeoAPIBase+"/videos/"+videoID, bearer, &video); err != nil {
		return err
	}
	picturesURI := video.Metadata.Connections.Pictures.URI
	if picturesURI == "" {
		return &share.ShareError{Msg: "vimeo: video has no pictures connection"}
	}

	var slot struct {
		URI  string `json:"uri"`
		Link string `json:"link"`
	}
	if err := v.base.PostJSON(ctx, vimeoAPIBase+picturesURI, bearer, map[string]any{}, &slot); err != nil {
		return err
	}
	if slot.Link == "" {
		return &share.ShareError{Msg: "vimeo: picture slot has no upload link"}
	}

	err := v.base.WithDownload(thumbnailURL, func(localPath string) error {
		return v.base.SendFile(ctx, "PUT", slot.Link, localPath, "", nil)
	})
	if err != nil {
		return err
	}

	activate := map[string]any{"active": true}
	return v.base.PatchJSON(ctx, vimeoAPIBase+slot.URI, bearer, activate, nil)
}

func lastPathSegment(uri string) string {
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
