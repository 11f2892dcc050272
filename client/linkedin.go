package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	liendpoint "golang.org/x/oauth2/linkedin"

	"github.com/getsocialkit/socialkit/auth"
	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

const (
	linkedinAPIBase  = "https://api.linkedin.com/v2"
	linkedinTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
)

var linkedinDefaultScope = []string{"openid", "profile", "email", "w_member_social"}

// LinkedIn shares video as a member UGC post. Refresh tokens exist for
// a limited set of partner applications; when the exchange grants one,
// refresh is supported and the refresh credential carries its own
// expiry.
type LinkedIn struct {
	*auth.OAuth2Session
	base *Base
	conf *oauth2.Config
}

func NewLinkedIn(store cache.Cache, log logger.Logger, tempDir string) *LinkedIn {
	l := &LinkedIn{base: NewBase("LinkedIn", store, log, tempDir)}
	l.OAuth2Session = auth.NewOAuth2Session(l, store, log)
	return l
}

func (l *LinkedIn) Platform() string { return l.base.Platform() }

func (l *LinkedIn) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return &share.ConfigError{Msg: "linkedin: client id and secret are required"}
	}
	scope := config.Scope
	if len(scope) == 0 {
		scope = linkedinDefaultScope
	}
	l.conf = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       scope,
		Endpoint:     liendpoint.Endpoint,
	}
	l.SetToken(token)
	return nil
}

func (l *LinkedIn) BuildAuthURL(ctx context.Context) (string, error) {
	if l.conf == nil {
		return "", fmt.Errorf("linkedin: auth not initialized")
	}
	return l.conf.AuthCodeURL(uuid.NewString()), nil
}

func (l *LinkedIn) ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error) {
	tok, err := l.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("linkedin: code exchange: %w", err)
	}
	return l.tokenFromOAuth2(tok), nil
}

// tokenFromOAuth2 lifts the optional partner-program refresh fields and
// the OIDC id_token out of the token response.
func (l *LinkedIn) tokenFromOAuth2(tok *oauth2.Token) *share.AccessToken {
	token := &share.AccessToken{
		Token: tok.AccessToken,
		Raw:   map[string]string{},
	}
	if !tok.Expiry.IsZero() {
		token.ExpireTime = tok.Expiry.Unix()
	}
	if refresh, ok := tok.Extra("refresh_token").(string); ok && refresh != "" {
		token.RefreshToken = refresh
		if expiresIn, ok := tok.Extra("refresh_token_expires_in").(float64); ok && expiresIn > 0 {
			token.RefreshTokenExpireTime = time.Now().Unix() + int64(expiresIn)
		}
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		token.Raw["id_token"] = idToken
	}
	if sub := l.claimsFromIDToken(token.Raw["id_token"])["sub"]; sub != "" {
		token.UserID = sub
	}
	return token
}

func (l *LinkedIn) Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {token.RefreshToken},
		"client_id":     {l.conf.ClientID},
		"client_secret": {l.conf.ClientSecret},
	}
	var refreshed struct {
		AccessToken           string `json:"access_token"`
		ExpiresIn             int64  `json:"expires_in"`
		RefreshToken          string `json:"refresh_token"`
		RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
	}
	if err := l.base.PostForm(ctx, linkedinTokenURL, "", form, &refreshed); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	next := &share.AccessToken{
		Token:        refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		Scope:        token.Scope,
		UserID:       token.UserID,
	}
	if refreshed.ExpiresIn > 0 {
		next.ExpireTime = now + refreshed.ExpiresIn
	}
	if refreshed.RefreshTokenExpiresIn > 0 {
		next.RefreshTokenExpireTime = now + refreshed.RefreshTokenExpiresIn
	}
	return next, nil
}

func (l *LinkedIn) SupportsRefresh() bool { return true }

// claimsFromIDToken reads the OIDC claims without verifying the
// signature: the token arrived over TLS from the token endpoint and is
// only used for display fields.
func (l *LinkedIn) claimsFromIDToken(idToken string) map[string]string {
	claims := map[string]string{}
	if idToken == "" {
		return claims
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(idToken, jwt.MapClaims{})
	if err != nil {
		return claims
	}
	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return claims
	}
	for _, key := range []string{"sub", "name", "email", "picture"} {
		if value, ok := mapClaims[key].(string); ok {
			claims[key] = value
		}
	}
	return claims
}

func (l *LinkedIn) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	token := l.Token()
	if token == nil || token.Token == "" {
		return nil, &share.ConfigError{Msg: "linkedin: no access token"}
	}

	// Prefer the id_token claims from the exchange; fall back to the
	// userinfo endpoint.
	if claims := l.claimsFromIDToken(token.Raw["id_token"]); claims["sub"] != "" {
		return &share.UserProfile{
			ID:         claims["sub"],
			FullName:   claims["name"],
			Email:      claims["email"],
			PictureURL: claims["picture"],
			Raw:        claims,
		}, nil
	}

	var user struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := l.base.GetJSON(ctx, linkedinAPIBase+"/userinfo", token.Token, &user); err != nil {
		return nil, err
	}
	return &share.UserProfile{
		ID:         user.Sub,
		FullName:   user.Name,
		Email:      user.Email,
		PictureURL: user.Picture,
	}, nil
}

func (l *LinkedIn) CanShareToUser() bool    { return true }
func (l *LinkedIn) CanShareToChannel() bool { return false }

// GetShareChannelList is empty: member shares go straight to the feed.
func (l *LinkedIn) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	return []share.Channel{}, nil
}

func (l *LinkedIn) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "linkedin: video url is required"}
	}
	if params.SocialID == "" {
		return nil, &share.ConfigError{Msg: "linkedin: member id is required"}
	}
	owner := "urn:li:person:" + params.SocialID

	asset, uploadURL, err := l.registerUpload(ctx, params.AccessToken, owner)
	if err != nil {
		return nil, err
	}

	err = l.base.WithDownload(params.VideoURL, func(localPath string) error {
		return l.base.SendFile(ctx, "PUT", uploadURL, localPath, params.AccessToken, nil)
	})
	if err != nil {
		return nil, err
	}

	postID, err := l.createPost(ctx, params, owner, asset)
	if err != nil {
		return nil, err
	}

	return &share.VideoShareResult{
		ID:          postID,
		URL:         "https://www.linkedin.com/feed/update/" + postID,
		Title:       params.Title,
		Description: params.Description,
		CreatedTime: time.Now().Unix(),
	}, nil
}

func (l *LinkedIn) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	return "", nil
}

func (l *LinkedIn) registerUpload(ctx context.Context, bearer, owner string) (asset, uploadURL string, err error) {
	payload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-video"},
			"owner":   owner,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}
	var registered struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism struct {
				Request struct {
					UploadURL string `json:"uploadUrl"`
				} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	registerURL := linkedinAPIBase + "/assets?action=registerUpload"
	if err := l.base.PostJSON(ctx, registerURL, bearer, payload, &registered); err != nil {
		return "", "", err
	}
	if registered.Value.Asset == "" || registered.Value.UploadMechanism.Request.UploadURL == "" {
		return "", "", &share.ShareError{Msg: "linkedin: register upload returned no destination"}
	}
	return registered.Value.Asset, registered.Value.UploadMechanism.Request.UploadURL, nil
}

func (l *LinkedIn) createPost(ctx context.Context, params *share.VideoShareParams, owner, asset string) (string, error) {
	payload := map[string]any{
		"author":         owner,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": params.Description},
				"shareMediaCategory": "VIDEO",
				"media": []map[string]any{{
					"status": "READY",
					"media":  asset,
					"title":  map[string]string{"text": params.Title},
				}},
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := l.base.PostJSON(ctx, linkedinAPIBase+"/ugcPosts", params.AccessToken, payload, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &share.ShareError{Msg: "linkedin: no post id in response"}
	}
	return created.ID, nil
}
