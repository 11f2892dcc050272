package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/getsocialkit/socialkit/auth"
	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

// Overridden in package tests.
var pinterestAPIBase = "https://api.pinterest.com/v5"

var pinterestDefaultScope = []string{
	"boards:read", "boards:write", "pins:read", "pins:write", "user_accounts:read",
}

var pinterestEndpoint = oauth2.Endpoint{
	AuthURL:  "https://www.pinterest.com/oauth/",
	TokenURL: pinterestAPIBase + "/oauth/token",
}

// Pinterest pins video to a board. Boards are the platform's channels;
// a pin always targets exactly one. Granted tokens do not expire and
// are not refreshed.
type Pinterest struct {
	*auth.OAuth2Session
	base      *Base
	conf      *oauth2.Config
	mediaPoll Poller
}

func NewPinterest(store cache.Cache, log logger.Logger, tempDir string) *Pinterest {
	p := &Pinterest{
		base:      NewBase("Pinterest", store, log, tempDir),
		mediaPoll: Poller{Attempts: 10, Interval: 5 * time.Second},
	}
	p.OAuth2Session = auth.NewOAuth2Session(p, store, log)
	return p
}

func (p *Pinterest) Platform() string { return p.base.Platform() }

func (p *Pinterest) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return &share.ConfigError{Msg: "pinterest: app id and secret are required"}
	}
	scope := config.Scope
	if len(scope) == 0 {
		scope = pinterestDefaultScope
	}
	p.conf = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       scope,
		Endpoint:     pinterestEndpoint,
	}
	p.SetToken(token)
	return nil
}

func (p *Pinterest) BuildAuthURL(ctx context.Context) (string, error) {
	if p.conf == nil {
		return "", fmt.Errorf("pinterest: auth not initialized")
	}
	return p.conf.AuthCodeURL(uuid.NewString()), nil
}

func (p *Pinterest) ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("pinterest: code exchange: %w", err)
	}
	return &share.AccessToken{Token: tok.AccessToken}, nil
}

func (p *Pinterest) Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error) {
	return nil, &share.UnsupportedError{Platform: p.Platform(), Op: "refresh access token"}
}

func (p *Pinterest) SupportsRefresh() bool { return false }

func (p *Pinterest) bearer() (string, error) {
	token := p.Token()
	if token == nil || token.Token == "" {
		return "", &share.ConfigError{Msg: "pinterest: no access token"}
	}
	return token.Token, nil
}

func (p *Pinterest) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	bearer, err := p.bearer()
	if err != nil {
		return nil, err
	}
	var account struct {
		Username     string `json:"username"`
		ProfileImage string `json:"profile_image"`
		WebsiteURL   string `json:"website_url"`
	}
	if err := p.base.GetJSON(ctx, pinterestAPIBase+"/user_account", bearer, &account); err != nil {
		return nil, err
	}
	return &share.UserProfile{
		ID:         account.Username,
		FullName:   account.Username,
		PictureURL: account.ProfileImage,
		Link:       "https://www.pinterest.com/" + account.Username + "/",
	}, nil
}

func (p *Pinterest) CanShareToUser() bool    { return false }
func (p *Pinterest) CanShareToChannel() bool { return true }

// GetShareChannelList lists the user's boards.
func (p *Pinterest) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	bearer, err := p.bearer()
	if err != nil {
		return nil, err
	}
	var boards struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := p.base.GetJSON(ctx, pinterestAPIBase+"/boards", bearer, &boards); err != nil {
		return nil, err
	}
	channels := make([]share.Channel, 0, len(boards.Items))
	for _, board := range boards.Items {
		channels = append(channels, share.Channel{ID: board.ID, Name: board.Name})
	}
	return channels, nil
}

func (p *Pinterest) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "pinterest: video url is required"}
	}
	if params.SocialID == "" {
		return nil, &share.ConfigError{Msg: "pinterest: board id is required"}
	}
	bearer, err := p.bearer()
	if err != nil {
		return nil, err
	}

	mediaID, err := p.uploadMedia(ctx, bearer, params.VideoURL)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"board_id":    params.SocialID,
		"title":       params.Title,
		"description": params.Description,
		"media_source": map[string]string{
			"source_type":     "video_id",
			"media_id":        mediaID,
			"cover_image_url": params.ThumbnailURL,
		},
	}
	var pin struct {
		ID string `json:"id"`
	}
	if err := p.base.PostJSON(ctx, pinterestAPIBase+"/pins", bearer, payload, &pin); err != nil {
		return nil, err
	}
	if pin.ID == "" {
		return nil, &share.ShareError{Msg: "pinterest: no pin id in response"}
	}

	return &share.VideoShareResult{
		ID:          pin.ID,
		URL:         "https://www.pinterest.com/pin/" + pin.ID + "/",
		Title:       params.Title,
		Description: params.Description,
		CreatedTime: time.Now().Unix(),
	}, nil
}

func (p *Pinterest) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	return "", nil
}

// uploadMedia registers a media slot, posts the file to the returned
// upload destination and waits for ingestion to succeed.
func (p *Pinterest) uploadMedia(ctx context.Context, bearer, videoURL string) (string, error) {
	var registered struct {
		MediaID          string            `json:"media_id"`
		UploadURL        string            `json:"upload_url"`
		UploadParameters map[string]string `json:"upload_parameters"`
	}
	payload := map[string]string{"media_type": "video"}
	if err := p.base.PostJSON(ctx, pinterestAPIBase+"/media", bearer, payload, &registered); err != nil {
		return "", err
	}
	if registered.MediaID == "" || registered.UploadURL == "" {
		return "", &share.ShareError{Msg: "pinterest: media registration returned no destination"}
	}

	err := p.base.WithDownload(videoURL, func(localPath string) error {
		return p.base.UploadFile(ctx, registered.UploadURL, "file", localPath, registered.UploadParameters, nil)
	})
	if err != nil {
		return "", err
	}

	var terminal error
	resolved, err := p.mediaPoll.Resolve(ctx, func(ctx context.Context) (string, error) {
		var media struct {
			Status string `json:"status"`
		}
		statusURL := pinterestAPIBase + "/media/" + registered.MediaID
		if err := p.base.GetJSON(ctx, statusURL, bearer, &media); err != nil {
			return "", err
		}
		switch media.Status {
		case "succeeded":
			return registered.MediaID, nil
		case "failed":
			terminal = &share.ShareError{
				Msg:    "pinterest: media processing failed",
				DevMsg: "media id " + registered.MediaID,
			}
			return media.Status, nil
		}
		return "", nil
	})
	if err != nil {
		return "", err
	}
	if terminal != nil {
		return "", terminal
	}
	if resolved == "" {
		return "", &share.ShareError{Msg: "pinterest: media not ready after upload", DevMsg: "media id " + registered.MediaID}
	}
	return resolved, nil
}
