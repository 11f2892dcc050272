package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	fbendpoint "golang.org/x/oauth2/facebook"

	"github.com/getsocialkit/socialkit/auth"
	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

var instagramDefaultScope = []string{
	"instagram_basic",
	"instagram_content_publish",
	"pages_show_list",
	"business_management",
}

// Instagram publishes through the Graph API container flow: create a
// media container from the remote video URL, wait for the platform to
// ingest it, publish the container, then resolve the permalink. The
// permalink may lag publishing, which makes this one of the async-URL
// adapters.
type Instagram struct {
	*auth.OAuth2Session
	base *Base
	conf *oauth2.Config

	// ingestPoll waits for the container, urlPoll for the permalink.
	ingestPoll Poller
	urlPoll    Poller
}

func NewInstagram(store cache.Cache, log logger.Logger, tempDir string) *Instagram {
	i := &Instagram{
		base:       NewBase("Instagram", store, log, tempDir),
		ingestPoll: Poller{Attempts: 10, Interval: 6 * time.Second},
		urlPoll:    Poller{Attempts: 6, Interval: 5 * time.Second},
	}
	i.OAuth2Session = auth.NewOAuth2Session(i, store, log)
	return i
}

func (i *Instagram) Platform() string { return i.base.Platform() }

func (i *Instagram) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return &share.ConfigError{Msg: "instagram: client id and secret are required"}
	}
	scope := config.Scope
	if len(scope) == 0 {
		scope = instagramDefaultScope
	}
	i.conf = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       scope,
		Endpoint:     fbendpoint.Endpoint,
	}
	i.SetToken(token)
	return nil
}

func (i *Instagram) BuildAuthURL(ctx context.Context) (string, error) {
	if i.conf == nil {
		return "", fmt.Errorf("instagram: auth not initialized")
	}
	return i.conf.AuthCodeURL(uuid.NewString()), nil
}

func (i *Instagram) ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error) {
	tok, err := i.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("instagram: code exchange: %w", err)
	}
	token := &share.AccessToken{Token: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		token.ExpireTime = tok.Expiry.Unix()
	}
	return token, nil
}

func (i *Instagram) Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error) {
	return nil, &share.UnsupportedError{Platform: i.Platform(), Op: "refresh access token"}
}

func (i *Instagram) SupportsRefresh() bool { return false }

func (i *Instagram) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	token := i.Token()
	if token == nil || token.Token == "" {
		return nil, &share.ConfigError{Msg: "instagram: no access token"}
	}

	var user struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := i.base.GetJSON(ctx, graphAPIBase+"/me?fields=id,name", token.Token, &user); err != nil {
		return nil, err
	}
	return &share.UserProfile{ID: user.ID, FullName: user.Name}, nil
}

func (i *Instagram) CanShareToUser() bool    { return false }
func (i *Instagram) CanShareToChannel() bool { return true }

// GetShareChannelList returns the Instagram business accounts reachable
// through the user's pages.
func (i *Instagram) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	token := i.Token()
	if token == nil || token.Token == "" {
		return nil, &share.ConfigError{Msg: "instagram: no access token"}
	}

	var pages struct {
		Data []struct {
			Name    string `json:"name"`
			Account struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"instagram_business_account"`
		} `json:"data"`
	}
	listURL := graphAPIBase + "/me/accounts?fields=name,instagram_business_account{id,username}"
	if err := i.base.GetJSON(ctx, listURL, token.Token, &pages); err != nil {
		return nil, err
	}

	var channels []share.Channel
	for _, page := range pages.Data {
		if page.Account.ID == "" {
			continue
		}
		name := page.Account.Username
		if name == "" {
			name = page.Name
		}
		channels = append(channels, share.Channel{
			ID:   page.Account.ID,
			Name: name,
			URL:  "https://www.instagram.com/" + page.Account.Username,
		})
	}
	return channels, nil
}

func (i *Instagram) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "instagram: video url is required"}
	}
	if params.SocialID == "" {
		return nil, &share.ConfigError{Msg: "instagram: target account id is required"}
	}

	containerID, err := i.createContainer(ctx, params)
	if err != nil {
		return nil, err
	}

	// Accounts are limited to 25 API-published posts per rolling day;
	// ingestion of a single video usually lands within the poll budget.
	ready, err := i.waitForContainer(ctx, containerID, params.AccessToken)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, &share.ShareError{
			Msg:    "instagram: container not ready",
			DevMsg: "container " + containerID + " still in progress after poll budget",
		}
	}

	mediaID, err := i.publishContainer(ctx, params, containerID)
	if err != nil {
		return nil, err
	}

	result := &share.VideoShareResult{
		ID:          mediaID,
		Title:       params.Title,
		CreatedTime: time.Now().Unix(),
	}
	permalink, err := i.urlPoll.Resolve(ctx, func(ctx context.Context) (string, error) {
		return i.permalink(ctx, mediaID, params.AccessToken)
	})
	if err != nil {
		return nil, err
	}
	if permalink == "" {
		result.AsyncURLPending = true
		i.base.WriteLog(logger.LevelWarn, "permalink unresolved for media "+mediaID, "shareVideo")
	}
	result.URL = permalink
	return result, nil
}

// AsyncURL retries the permalink lookup for a share that came back
// pending.
func (i *Instagram) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	if result == nil || result.ID == "" {
		return "", &share.ConfigError{Msg: "instagram: media id is required"}
	}
	return i.permalink(ctx, result.ID, params.AccessToken)
}

func (i *Instagram) createContainer(ctx context.Context, params *share.VideoShareParams) (string, error) {
	form := url.Values{
		"media_type":   {"REELS"},
		"video_url":    {params.VideoURL},
		"caption":      {params.Title},
		"access_token": {params.AccessToken},
	}
	if params.ThumbnailURL != "" {
		form.Set("cover_url", params.ThumbnailURL)
	}

	var container struct {
		ID string `json:"id"`
	}
	createURL := fmt.Sprintf("%s/%s/media", graphAPIBase, params.SocialID)
	if err := i.base.PostForm(ctx, createURL, "", form, &container); err != nil {
		return "", err
	}
	if container.ID == "" {
		return "", &share.ShareError{Msg: "instagram: container id not found"}
	}
	return container.ID, nil
}

func (i *Instagram) waitForContainer(ctx context.Context, containerID, accessToken string) (bool, error) {
	var terminal error
	done, err := i.ingestPoll.Resolve(ctx, func(ctx context.Context) (string, error) {
		var status struct {
			StatusCode string `json:"status_code"`
		}
		statusURL := fmt.Sprintf("%s/%s?fields=status_code", graphAPIBase, containerID)
		if err := i.base.GetJSON(ctx, statusURL, accessToken, &status); err != nil {
			return "", err
		}
		switch status.StatusCode {
		case "FINISHED", "PUBLISHED":
			return status.StatusCode, nil
		case "ERROR", "EXPIRED":
			terminal = &share.ShareError{
				Msg:    "instagram: container failed",
				DevMsg: "container " + containerID + " state " + status.StatusCode,
			}
			return status.StatusCode, nil
		default: // IN_PROGRESS
			return "", nil
		}
	})
	if err != nil {
		return false, err
	}
	if terminal != nil {
		return false, terminal
	}
	return done != "", nil
}

func (i *Instagram) publishContainer(ctx context.Context, params *share.VideoShareParams, containerID string) (string, error) {
	form := url.Values{
		"creation_id":  {containerID},
		"access_token": {params.AccessToken},
	}
	var published struct {
		ID string `json:"id"`
	}
	publishURL := fmt.Sprintf("%s/%s/media_publish", graphAPIBase, params.SocialID)
	if err := i.base.PostForm(ctx, publishURL, "", form, &published); err != nil {
		return "", err
	}
	if published.ID == "" {
		return "", &share.ShareError{Msg: "instagram: publish returned no media id"}
	}
	return published.ID, nil
}

func (i *Instagram) permalink(ctx context.Context, mediaID, accessToken string) (string, error) {
	var media struct {
		Permalink string `json:"permalink"`
	}
	mediaURL := fmt.Sprintf("%s/%s?fields=permalink", graphAPIBase, mediaID)
	if err := i.base.GetJSON(ctx, mediaURL, accessToken, &media); err != nil {
		return "", err
	}
	return media.Permalink, nil
}
