package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/dghubble/oauth1"
	twendpoint "github.com/dghubble/oauth1/twitter"

	"github.com/getsocialkit/socialkit/auth"
	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

const (
	twitterAPIBase    = "https://api.twitter.com/1.1"
	twitterUploadURL  = "https://upload.twitter.com/1.1/media/upload.json"
	twitterChunkBytes = 5 * 1024 * 1024
)

// Twitter posts video as a tweet with attached chunked-upload media.
// The platform is OAuth1; tokens never expire and never refresh.
type Twitter struct {
	*auth.OAuth1Session
	base *Base
	conf *oauth1.Config
}

func NewTwitter(store cache.Cache, log logger.Logger, tempDir string) *Twitter {
	t := &Twitter{base: NewBase("Twitter", store, log, tempDir)}
	t.OAuth1Session = auth.NewOAuth1Session(t, store, log)
	return t
}

func (t *Twitter) Platform() string { return t.base.Platform() }

func (t *Twitter) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" || config.ClientSecret == "" {
		return &share.ConfigError{Msg: "twitter: consumer key and secret are required"}
	}
	t.conf = &oauth1.Config{
		ConsumerKey:    config.ClientID,
		ConsumerSecret: config.ClientSecret,
		CallbackURL:    config.RedirectURL,
		Endpoint:       twendpoint.AuthorizeEndpoint,
	}
	t.SetToken(token)
	return nil
}

func (t *Twitter) RequestToken(ctx context.Context) (*share.OAuthToken, error) {
	if t.conf == nil {
		return nil, fmt.Errorf("twitter: auth not initialized")
	}
	requestToken, requestSecret, err := t.conf.RequestToken()
	if err != nil {
		return nil, err
	}
	// The library already rejects responses without
	// oauth_callback_confirmed=true.
	return &share.OAuthToken{
		Token:             requestToken,
		TokenSecret:       requestSecret,
		CallbackConfirmed: true,
	}, nil
}

func (t *Twitter) AuthURL(requestToken string) string {
	authURL, err := t.conf.AuthorizationURL(requestToken)
	if err != nil {
		return ""
	}
	return authURL.String()
}

func (t *Twitter) ExchangeVerifier(ctx context.Context, token *share.OAuthToken, verifier string) (*share.AccessToken, error) {
	accessToken, accessSecret, err := t.conf.AccessToken(token.Token, token.TokenSecret, verifier)
	if err != nil {
		return nil, err
	}
	return &share.AccessToken{Token: accessToken, TokenSecret: accessSecret}, nil
}

// signedClient builds an OAuth1-signing http client from the session
// token.
func (t *Twitter) signedClient(ctx context.Context) (*http.Client, error) {
	token := t.Token()
	if token == nil || token.Token == "" || token.TokenSecret == "" {
		return nil, &share.ConfigError{Msg: "twitter: no access token"}
	}
	client := t.conf.Client(ctx, oauth1.NewToken(token.Token, token.TokenSecret))
	client.Timeout = apiTimeout
	return client, nil
}

type twitterUser struct {
	IDStr           string `json:"id_str"`
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url_https"`
}

func (t *Twitter) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	client, err := t.signedClient(ctx)
	if err != nil {
		return nil, err
	}
	verifyURL := twitterAPIBase + "/account/verify_credentials.json?include_email=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, verifyURL, nil)
	if err != nil {
		return nil, err
	}
	var user twitterUser
	if err := t.base.Do(client, req, &user); err != nil {
		return nil, err
	}
	return &share.UserProfile{
		ID:         user.IDStr,
		FullName:   user.Name,
		Email:      user.Email,
		PictureURL: user.ProfileImageURL,
		Link:       "https://twitter.com/" + user.ScreenName,
		Raw:        map[string]string{"screen_name": user.ScreenName},
	}, nil
}

func (t *Twitter) CanShareToUser() bool    { return true }
func (t *Twitter) CanShareToChannel() bool { return false }

func (t *Twitter) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	return []share.Channel{}, nil
}

func (t *Twitter) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "twitter: video url is required"}
	}
	client, err := t.signedClient(ctx)
	if err != nil {
		return nil, err
	}

	var mediaID string
	err = t.base.WithDownload(params.VideoURL, func(localPath string) error {
		mediaID, err = t.uploadMedia(ctx, client, localPath)
		return err
	})
	if err != nil {
		return nil, err
	}

	status := params.Title
	if status == "" {
		status = params.Description
	}
	form := url.Values{
		"status":    {status},
		"media_ids": {mediaID},
	}
	tweetURL := twitterAPIBase + "/statuses/update.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tweetURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tweet struct {
		IDStr string      `json:"id_str"`
		User  twitterUser `json:"user"`
	}
	if err := t.base.Do(client, req, &tweet); err != nil {
		return nil, err
	}
	if tweet.IDStr == "" {
		return nil, &share.ShareError{Msg: "twitter: no tweet id in response"}
	}

	return &share.VideoShareResult{
		ID:          tweet.IDStr,
		URL:         fmt.Sprintf("https://twitter.com/%s/status/%s", tweet.User.ScreenName, tweet.IDStr),
		Title:       params.Title,
		Description: params.Description,
		CreatedTime: time.Now().Unix(),
	}, nil
}

func (t *Twitter) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	return "", nil
}

// uploadMedia runs the INIT / APPEND / FINALIZE chunked upload and
// waits out any asynchronous processing the platform reports.
func (t *Twitter) uploadMedia(ctx context.Context, client *http.Client, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	initForm := url.Values{
		"command":        {"INIT"},
		"total_bytes":    {strconv.FormatInt(info.Size(), 10)},
		"media_type":     {"video/mp4"},
		"media_category": {"tweet_video"},
	}
	var initResp struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := t.uploadCommand(ctx, client, initForm, &initResp); err != nil {
		return "", err
	}
	if initResp.MediaIDString == "" {
		return "", &share.ShareError{Msg: "twitter: upload INIT returned no media id"}
	}
	mediaID := initResp.MediaIDString

	chunk := make([]byte, twitterChunkBytes)
	for segment := 0; ; segment++ {
		n, readErr := io.ReadFull(file, chunk)
		if n > 0 {
			appendForm := url.Values{
				"command":       {"APPEND"},
				"media_id":      {mediaID},
				"segment_index": {strconv.Itoa(segment)},
				"media_data":    {base64.StdEncoding.EncodeToString(chunk[:n])},
			}
			if err := t.uploadCommand(ctx, client, appendForm, nil); err != nil {
				return "", err
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return "", readErr
		}
	}

	finalizeForm := url.Values{
		"command":  {"FINALIZE"},
		"media_id": {mediaID},
	}
	var finalizeResp struct {
		ProcessingInfo *struct {
			State      string `json:"state"`
			CheckAfter int    `json:"check_after_secs"`
		} `json:"processing_info"`
	}
	if err := t.uploadCommand(ctx, client, finalizeForm, &finalizeResp); err != nil {
		return "", err
	}

	for finalizeResp.ProcessingInfo != nil {
		switch finalizeResp.ProcessingInfo.State {
		case "succeeded":
			return mediaID, nil
		case "failed":
			return "", &share.ShareError{Msg: "twitter: media processing failed"}
		}
		wait := finalizeResp.ProcessingInfo.CheckAfter
		if wait <= 0 {
			wait = 5
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(wait) * time.Second):
		}
		statusURL := twitterUploadURL + "?command=STATUS&media_id=" + mediaID
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return "", err
		}
		finalizeResp.ProcessingInfo = nil
		if err := t.base.Do(client, req, &finalizeResp); err != nil {
			return "", err
		}
	}
	return mediaID, nil
}

func (t *Twitter) uploadCommand(ctx context.Context, client *http.Client, form url.Values, out any) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key := range form {
		if err := writer.WriteField(key, form.Get(key)); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterUploadURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return t.base.Do(client, req, out)
}
