package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/getsocialkit/socialkit/auth"
	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

const (
	googleIssuer      = "https://accounts.google.com"
	youtubeAPIBase    = "https://www.googleapis.com/youtube/v3"
	youtubeUploadBase = "https://www.googleapis.com/upload/youtube/v3"
	youtubeCategoryID = "22"
)

var youtubeDefaultScope = []string{
	oidc.ScopeOpenID,
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube.force-ssl",
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// YouTube uploads to the authorized account's channel over the Data API
// v3. Authorization goes through Google's OIDC issuer; offline access
// plus forced approval guarantees a refresh token on every grant.
type YouTube struct {
	*auth.OAuth2Session
	base     *Base
	authConf *share.AuthConfig
	scope    []string
	conf     *oauth2.Config
	provider *oidc.Provider
}

func NewYouTube(store cache.Cache, log logger.Logger, tempDir string) *YouTube {
	y := &YouTube{base: NewBase("Youtube", store, log, tempDir)}
	y.OAuth2Session = auth.NewOAuth2Session(y, store, log)
	return y
}

func (y *YouTube) Platform() string { return y.base.Platform() }

func (y *YouTube) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return &share.ConfigError{Msg: "youtube: client id and secret are required"}
	}
	y.scope = config.Scope
	if len(y.scope) == 0 {
		y.scope = youtubeDefaultScope
	}
	y.authConf = config
	y.SetToken(token)
	return nil
}

// ensureProvider runs OIDC discovery once per adapter.
func (y *YouTube) ensureProvider(ctx context.Context) error {
	if y.provider != nil {
		return nil
	}
	if y.authConf == nil {
		return fmt.Errorf("youtube: auth not initialized")
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return fmt.Errorf("youtube: oidc discovery: %w", err)
	}
	y.provider = provider
	y.conf = &oauth2.Config{
		ClientID:     y.authConf.ClientID,
		ClientSecret: y.authConf.ClientSecret,
		RedirectURL:  y.authConf.RedirectURL,
		Scopes:       y.scope,
		Endpoint:     provider.Endpoint(),
	}
	return nil
}

func (y *YouTube) BuildAuthURL(ctx context.Context) (string, error) {
	if err := y.ensureProvider(ctx); err != nil {
		return "", err
	}
	return y.conf.AuthCodeURL(uuid.NewString(), oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

func (y *YouTube) ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error) {
	if err := y.ensureProvider(ctx); err != nil {
		return nil, err
	}
	tok, err := y.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("youtube: code exchange: %w", err)
	}
	return y.tokenFromOAuth2(ctx, tok)
}

func (y *YouTube) tokenFromOAuth2(ctx context.Context, tok *oauth2.Token) (*share.AccessToken, error) {
	token := &share.AccessToken{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if !tok.Expiry.IsZero() {
		token.ExpireTime = tok.Expiry.Unix()
	}
	if rawIDToken, ok := tok.Extra("id_token").(string); ok && rawIDToken != "" {
		verifier := y.provider.Verifier(&oidc.Config{ClientID: y.conf.ClientID})
		idToken, err := verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("youtube: verify id token: %w", err)
		}
		token.UserID = idToken.Subject
	}
	return token, nil
}

func (y *YouTube) Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error) {
	if err := y.ensureProvider(ctx); err != nil {
		return nil, err
	}
	source := y.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: token.RefreshToken})
	refreshed, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("youtube: refresh: %w", err)
	}
	next, err := y.tokenFromOAuth2(ctx, refreshed)
	if err != nil {
		return nil, err
	}
	if next.RefreshToken == "" {
		next.RefreshToken = token.RefreshToken
	}
	if next.UserID == "" {
		next.UserID = token.UserID
	}
	return next, nil
}

func (y *YouTube) SupportsRefresh() bool { return true }

func (y *YouTube) bearer() (string, error) {
	token := y.Token()
	if token == nil || token.Token == "" {
		return "", &share.ConfigError{Msg: "youtube: no access token"}
	}
	return token.Token, nil
}

func (y *YouTube) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	bearer, err := y.bearer()
	if err != nil {
		return nil, err
	}
	if err := y.ensureProvider(ctx); err != nil {
		return nil, err
	}
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearer})
	info, err := y.provider.UserInfo(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("youtube: userinfo: %w", err)
	}
	var claims struct {
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := info.Claims(&claims); err != nil {
		return nil, err
	}
	return &share.UserProfile{
		ID:         info.Subject,
		FullName:   claims.Name,
		Email:      info.Email,
		PictureURL: claims.Picture,
	}, nil
}

func (y *YouTube) CanShareToUser() bool    { return false }
func (y *YouTube) CanShareToChannel() bool { return true }

// GetShareChannelList lists the account's channels.
func (y *YouTube) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	bearer, err := y.bearer()
	if err != nil {
		return nil, err
	}
	var listing struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title      string `json:"title"`
				Thumbnails struct {
					Default struct {
						URL string `json:"url"`
					} `json:"default"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	listURL := youtubeAPIBase + "/channels?part=id%2Csnippet&mine=true"
	if err := y.base.GetJSON(ctx, listURL, bearer, &listing); err != nil {
		return nil, err
	}
	channels := make([]share.Channel, 0, len(listing.Items))
	for _, item := range listing.Items {
		channels = append(channels, share.Channel{
			ID:     item.ID,
			Name:   item.Snippet.Title,
			URL:    "https://www.youtube.com/channel/" + item.ID,
			ImgURL: item.Snippet.Thumbnails.Default.URL,
		})
	}
	return channels, nil
}

func (y *YouTube) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "youtube: video url is required"}
	}
	bearer, err := y.bearer()
	if err != nil {
		return nil, err
	}

	var inserted struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	}
	err = y.base.WithDownload(params.VideoURL, func(localPath string) error {
		return y.insertVideo(ctx, bearer, localPath, params, &inserted)
	})
	if err != nil {
		return nil, err
	}
	if inserted.ID == "" {
		return nil, &share.ShareError{Msg: "youtube: no video id in response"}
	}

	if params.ThumbnailURL != "" {
		if err := y.setThumbnail(ctx, bearer, inserted.ID, params.ThumbnailURL); err != nil {
			y.base.WriteLog(logger.LevelError, "thumbnail upload failed: "+err.Error(), "shareVideo")
		}
	}

	return &share.VideoShareResult{
		ID:          inserted.ID,
		URL:         "https://youtu.be/" + inserted.ID,
		Title:       inserted.Snippet.Title,
		Description: params.Description,
		CreatedTime: time.Now().Unix(),
	}, nil
}

func (y *YouTube) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	return "", nil
}

// insertVideo posts the metadata and the file as one multipart/related
// request.
func (y *YouTube) insertVideo(ctx context.Context, bearer, localPath string, params *share.VideoShareParams, out any) error {
	metadata := map[string]any{
		"snippet": map[string]any{
			"title":       params.Title,
			"description": params.Description,
			"tags":        params.Keywords,
			"categoryId":  youtubeCategoryID,
		},
		"status": map[string]string{"privacyStatus": "public"},
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	metaPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return err
	}
	if _, err := metaPart.Write(encoded); err != nil {
		return err
	}
	videoPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"video/*"},
	})
	if err != nil {
		return err
	}
	if _, err := io.Copy(videoPart, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	insertURL := youtubeUploadBase + "/videos?uploadType=multipart&part=snippet%2Cstatus"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, insertURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())
	req.Header.Set("Authorization", "Bearer "+bearer)
	return y.base.Do(y.base.UploadHTTP, req, out)
}

func (y *YouTube) setThumbnail(ctx context.Context, bearer, videoID, thumbnailURL string) error {
	setURL := youtubeUploadBase + "/thumbnails/set?videoId=" + videoID
	return y.base.WithDownload(thumbnailURL, func(localPath string) error {
		return y.base.SendFile(ctx, http.MethodPost, setURL, localPath, bearer, map[string]string{
			"Content-Type": "image/jpeg",
		})
	})
}
