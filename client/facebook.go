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

// Overridden in package tests.
var (
	graphAPIBase   = "https://graph.facebook.com/v19.0"
	graphVideoBase = "https://graph-video.facebook.com/v19.0"
)

// Permissions requested when the host does not configure its own scope
// list.
var facebookDefaultScope = []string{
	"publish_video",
	"pages_show_list",
	"pages_read_user_content",
	"pages_manage_posts",
	"pages_read_engagement",
	"pages_manage_engagement",
}

// Facebook publishes videos to pages on behalf of an authorized user.
// User tokens cannot be refreshed; a long-lived token is obtained at
// exchange time instead.
type Facebook struct {
	*auth.OAuth2Session
	base *Base
	conf *oauth2.Config
}

func NewFacebook(store cache.Cache, log logger.Logger, tempDir string) *Facebook {
	f := &Facebook{base: NewBase("Facebook", store, log, tempDir)}
	f.OAuth2Session = auth.NewOAuth2Session(f, store, log)
	return f
}

func (f *Facebook) Platform() string { return f.base.Platform() }

func (f *Facebook) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return &share.ConfigError{Msg: "facebook: client id and secret are required"}
	}
	scope := config.Scope
	if len(scope) == 0 {
		scope = facebookDefaultScope
	}
	f.conf = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       scope,
		Endpoint:     fbendpoint.Endpoint,
	}
	f.SetToken(token)
	return nil
}

func (f *Facebook) BuildAuthURL(ctx context.Context) (string, error) {
	if f.conf == nil {
		return "", fmt.Errorf("facebook: auth not initialized")
	}
	return f.conf.AuthCodeURL(uuid.NewString()), nil
}

// ExchangeCode swaps the callback code and then trades the short-lived
// user token for a long-lived one (roughly sixty days).
func (f *Facebook) ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error) {
	tok, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("facebook: code exchange: %w", err)
	}

	exchangeURL := graphAPIBase + "/oauth/access_token?" + url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {f.conf.ClientID},
		"client_secret":     {f.conf.ClientSecret},
		"fb_exchange_token": {tok.AccessToken},
	}.Encode()

	var longLived struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := f.base.GetJSON(ctx, exchangeURL, "", &longLived); err != nil {
		return nil, err
	}

	token := &share.AccessToken{
		Token: longLived.AccessToken,
		Raw:   map[string]string{"short_lived_token": tok.AccessToken},
	}
	if longLived.ExpiresIn > 0 {
		token.ExpireTime = time.Now().Unix() + longLived.ExpiresIn
	}
	return token, nil
}

func (f *Facebook) Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error) {
	return nil, &share.UnsupportedError{Platform: f.Platform(), Op: "refresh access token"}
}

func (f *Facebook) SupportsRefresh() bool { return false }

func (f *Facebook) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	token := f.Token()
	if token == nil || token.Token == "" {
		return nil, &share.ConfigError{Msg: "facebook: no access token"}
	}

	var user struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Gender   string `json:"gender"`
		Birthday string `json:"birthday"` // MM/DD/YYYY
		Email    string `json:"email"`
		Link     string `json:"link"`
		Picture  struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	profileURL := graphAPIBase + "/me?fields=id,name,gender,birthday,email,picture,link"
	if err := f.base.GetJSON(ctx, profileURL, token.Token, &user); err != nil {
		return nil, err
	}

	profile := &share.UserProfile{
		ID:         user.ID,
		FullName:   user.Name,
		Email:      user.Email,
		PictureURL: user.Picture.Data.URL,
		Link:       user.Link,
		Sex:        sexFromString(user.Gender),
	}
	if birthday, err := time.Parse("01/02/2006", user.Birthday); err == nil {
		profile.Birthday = birthday.Unix()
	}
	return profile, nil
}

func (f *Facebook) CanShareToUser() bool    { return false }
func (f *Facebook) CanShareToChannel() bool { return true }

// GetShareChannelList returns the pages the user manages. Each channel
// carries the page access token required for publishing to it.
func (f *Facebook) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	token := f.Token()
	if token == nil || token.Token == "" {
		return nil, &share.ConfigError{Msg: "facebook: no access token"}
	}

	var pages struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Link        string `json:"link"`
			AccessToken string `json:"access_token"`
			Picture     struct {
				Data struct {
					URL string `json:"url"`
				} `json:"data"`
			} `json:"picture"`
		} `json:"data"`
	}
	pagesURL := graphAPIBase + "/me/accounts?type=page&fields=id,name,link,picture,access_token"
	if err := f.base.GetJSON(ctx, pagesURL, token.Token, &pages); err != nil {
		return nil, err
	}

	channels := make([]share.Channel, 0, len(pages.Data))
	for _, page := range pages.Data {
		channels = append(channels, share.Channel{
			ID:     page.ID,
			Name:   page.Name,
			URL:    page.Link,
			ImgURL: page.Picture.Data.URL,
			Token:  page.AccessToken,
		})
	}
	return channels, nil
}

// ShareVideo downloads the video and uploads it to the target page. The
// Graph video endpoint wants raw bytes, not a URL.
func (f *Facebook) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "facebook: video url is required"}
	}
	if params.SocialID == "" {
		return nil, &share.ConfigError{Msg: "facebook: target page id is required"}
	}

	var upload struct {
		ID string `json:"id"`
	}
	err := f.base.WithDownload(params.VideoURL, func(localPath string) error {
		fields := map[string]string{
			"title":        params.Title,
			"description":  params.Description,
			"published":    "true",
			"access_token": params.AccessToken,
		}
		uploadURL := fmt.Sprintf("%s/%s/videos", graphVideoBase, params.SocialID)
		return f.base.UploadFile(ctx, uploadURL, "source", localPath, fields, &upload)
	})
	if err != nil {
		return nil, err
	}
	if upload.ID == "" {
		return nil, &share.ShareError{Msg: "facebook: no post id in upload response"}
	}

	f.base.WriteLog(logger.LevelInfo, "video published, id "+upload.ID, "shareVideo")
	return &share.VideoShareResult{
		ID:          upload.ID,
		URL:         "https://www.facebook.com/" + upload.ID,
		CreatedTime: time.Now().Unix(),
	}, nil
}

// AsyncURL is unused: Facebook returns the final post id synchronously.
func (f *Facebook) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	return "", nil
}

func sexFromString(gender string) share.Sex {
	switch gender {
	case "male":
		return share.SexMale
	case "female":
		return share.SexFemale
	default:
		return share.SexUnknown
	}
}
