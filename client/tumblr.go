package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/getsocialkit/socialkit/auth"
	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

const (
	tumblrBase    = "https://www.tumblr.com"
	tumblrAPIBase = "https://api.tumblr.com/v2"
)

var tumblrEndpoint = oauth1.Endpoint{
	RequestTokenURL: tumblrBase + "/oauth/request_token",
	AuthorizeURL:    tumblrBase + "/oauth/authorize",
	AccessTokenURL:  tumblrBase + "/oauth/access_token",
}

// Tumblr publishes video posts to one of the user's blogs. The post id
// returned by the create call is provisional: transcoding a video post
// assigns a new id, and the real link has to be fished out of the blog's
// post list afterwards, first by genesis_post_id and then by an upload
// time plus title match.
type Tumblr struct {
	*auth.OAuth1Session
	base      *Base
	conf      *oauth1.Config
	linkRetry Poller
}

func NewTumblr(store cache.Cache, log logger.Logger, tempDir string) *Tumblr {
	t := &Tumblr{
		base:      NewBase("Tumblr", store, log, tempDir),
		linkRetry: Poller{Attempts: 10, Interval: 5 * time.Second},
	}
	t.OAuth1Session = auth.NewOAuth1Session(t, store, log)
	return t
}

func (t *Tumblr) Platform() string { return t.base.Platform() }

func (t *Tumblr) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return &share.ConfigError{Msg: "tumblr: consumer key and secret are required"}
	}
	t.conf = &oauth1.Config{
		ConsumerKey:    config.ClientID,
		ConsumerSecret: config.ClientSecret,
		CallbackURL:    config.RedirectURL,
		Endpoint:       tumblrEndpoint,
	}
	t.SetToken(token)
	return nil
}

func (t *Tumblr) RequestToken(ctx context.Context) (*share.OAuthToken, error) {
	if t.conf == nil {
		return nil, fmt.Errorf("tumblr: auth not initialized")
	}
	requestToken, requestSecret, err := t.conf.RequestToken()
	if err != nil {
		return nil, err
	}
	return &share.OAuthToken{
		Token:             requestToken,
		TokenSecret:       requestSecret,
		CallbackConfirmed: true,
	}, nil
}

func (t *Tumblr) AuthURL(requestToken string) string {
	return tumblrBase + "/oauth/authorize?oauth_token=" + url.QueryEscape(requestToken)
}

func (t *Tumblr) ExchangeVerifier(ctx context.Context, token *share.OAuthToken, verifier string) (*share.AccessToken, error) {
	accessToken, accessSecret, err := t.conf.AccessToken(token.Token, token.TokenSecret, verifier)
	if err != nil {
		return nil, err
	}
	return &share.AccessToken{Token: accessToken, TokenSecret: accessSecret}, nil
}

func (t *Tumblr) signedClient(ctx context.Context) (*http.Client, error) {
	token := t.Token()
	if token == nil || token.Token == "" || token.TokenSecret == "" {
		return nil, &share.ConfigError{Msg: "tumblr: no access token"}
	}
	client := t.conf.Client(ctx, oauth1.NewToken(token.Token, token.TokenSecret))
	client.Timeout = apiTimeout
	return client, nil
}

type tumblrBlog struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Admin bool   `json:"admin"`
}

func (t *Tumblr) userInfo(ctx context.Context, client *http.Client) (name string, blogs []tumblrBlog, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tumblrAPIBase+"/user/info", nil)
	if err != nil {
		return "", nil, err
	}
	var info struct {
		Response struct {
			User struct {
				Name  string       `json:"name"`
				Blogs []tumblrBlog `json:"blogs"`
			} `json:"user"`
		} `json:"response"`
	}
	if err := t.base.Do(client, req, &info); err != nil {
		return "", nil, err
	}
	return info.Response.User.Name, info.Response.User.Blogs, nil
}

func (t *Tumblr) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	client, err := t.signedClient(ctx)
	if err != nil {
		return nil, err
	}
	name, _, err := t.userInfo(ctx, client)
	if err != nil {
		return nil, err
	}
	return &share.UserProfile{ID: name, FullName: name}, nil
}

func (t *Tumblr) CanShareToUser() bool    { return false }
func (t *Tumblr) CanShareToChannel() bool { return true }

// GetShareChannelList lists the blogs the user administers.
func (t *Tumblr) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	client, err := t.signedClient(ctx)
	if err != nil {
		return nil, err
	}
	_, blogs, err := t.userInfo(ctx, client)
	if err != nil {
		return nil, err
	}
	channels := make([]share.Channel, 0, len(blogs))
	for _, blog := range blogs {
		if !blog.Admin {
			continue
		}
		channels = append(channels, share.Channel{
			ID:   blog.UUID,
			Name: blog.Name,
			URL:  blog.URL,
		})
	}
	return channels, nil
}

func (t *Tumblr) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "tumblr: video url is required"}
	}
	blogName := params.DisplayName
	if blogName == "" {
		return nil, &share.ConfigError{Msg: "tumblr: blog name is required"}
	}
	client, err := t.signedClient(ctx)
	if err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	form := url.Values{
		"type":    {"video"},
		"state":   {"published"},
		"caption": {params.Title},
		"date":    {createdAt.Format("2006-01-02 15:04:05")},
		"data":    {params.VideoURL},
	}
	postURL := fmt.Sprintf("%s/blog/%s/post", tumblrAPIBase, blogName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var created struct {
		Response struct {
			ID       json.Number `json:"id"`
			IDString string      `json:"id_string"`
			State    string      `json:"state"`
		} `json:"response"`
	}
	if err := t.base.Do(client, req, &created); err != nil {
		return nil, err
	}
	postID := created.Response.IDString
	if postID == "" {
		postID = created.Response.ID.String()
	}
	if postID == "" || postID == "0" {
		return nil, &share.ShareError{Msg: "tumblr: no post id in response"}
	}

	result := &share.VideoShareResult{
		ID:          postID,
		URL:         fmt.Sprintf("https://%s.tumblr.com/post/%s", blogName, postID),
		CreatedTime: createdAt.Unix(),
	}
	// A video post that is still transcoding will get a fresh id; the
	// provisional link above is a 404 until then.
	if created.Response.State != "published" {
		result.AsyncURLPending = true
		resolved, err := t.linkRetry.Resolve(ctx, func(ctx context.Context) (string, error) {
			return t.findPostURL(ctx, client, blogName, params.Title, createdAt.Unix(), postID)
		})
		if err != nil {
			return nil, err
		}
		if resolved != "" {
			result.URL = resolved
			result.AsyncURLPending = false
		} else {
			t.base.WriteLog(logger.LevelWarn, "post url not resolved yet, defer to async lookup", "shareVideo")
		}
	}
	return result, nil
}

// AsyncURL repeats the transcoded-post search for a result that was
// still pending when the share returned.
func (t *Tumblr) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	if result.ID == "" {
		return "", &share.ShareError{Msg: "tumblr: original post id is required"}
	}
	client, err := t.signedClient(ctx)
	if err != nil {
		return "", err
	}
	return t.findPostURL(ctx, client, params.DisplayName, params.Title, result.CreatedTime, result.ID)
}

// findPostURL scans the blog's video posts for the transcoded successor
// of originID. genesis_post_id identifies it directly; otherwise a post
// at or after the upload time whose summary equals the title, with a
// different id, is taken as the match.
func (t *Tumblr) findPostURL(ctx context.Context, client *http.Client, blogName, title string, uploadedAt int64, originID string) (string, error) {
	listURL := fmt.Sprintf("%s/blog/%s/posts?type=video", tumblrAPIBase, blogName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return "", err
	}
	var listing struct {
		Response struct {
			Posts []struct {
				IDString      string `json:"id_string"`
				GenesisPostID string `json:"genesis_post_id"`
				Summary       string `json:"summary"`
				Timestamp     int64  `json:"timestamp"`
				PostURL       string `json:"post_url"`
			} `json:"posts"`
		} `json:"response"`
	}
	if err := t.base.Do(client, req, &listing); err != nil {
		return "", err
	}

	for _, post := range listing.Response.Posts {
		if post.GenesisPostID != "" && post.GenesisPostID == originID {
			return post.PostURL, nil
		}
	}
	for _, post := range listing.Response.Posts {
		if post.Timestamp >= uploadedAt && post.Summary == title && post.IDString != originID {
			return post.PostURL, nil
		}
	}
	return "", nil
}
