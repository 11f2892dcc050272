package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getsocialkit/socialkit/auth"
	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

const (
	vkOAuthBase   = "https://oauth.vk.com"
	vkMethodBase  = "https://api.vk.com/method"
	vkAPIVersion  = "5.131"
	vkCodeAuthErr = 5
)

// offline keeps the granted token from ever expiring.
var vkDefaultScope = []string{"docs", "friends", "photos", "wall", "groups", "video", "offline"}

// VK authorizes in the implicit flow: the token arrives in the redirect
// fragment and, with the offline scope, never expires. Errors come back
// inside HTTP 200 envelopes and need their own translation.
type VK struct {
	*auth.OAuth2Session
	base  *Base
	conf  *share.AuthConfig
	scope []string
}

func NewVK(store cache.Cache, log logger.Logger, tempDir string) *VK {
	v := &VK{base: NewBase("VK", store, log, tempDir)}
	v.OAuth2Session = auth.NewOAuth2Session(v, store, log)
	return v
}

func (v *VK) Platform() string { return v.base.Platform() }

func (v *VK) InitAuth(config *share.AuthConfig, token *share.AccessToken) error {
	if config.ClientID == "" {
		return &share.ConfigError{Msg: "vk: client id is required"}
	}
	v.scope = config.Scope
	if len(v.scope) == 0 {
		v.scope = vkDefaultScope
	}
	v.conf = config
	v.SetMode(auth.ModeImplicit)
	v.SetToken(token)
	return nil
}

func (v *VK) BuildAuthURL(ctx context.Context) (string, error) {
	if v.conf == nil {
		return "", fmt.Errorf("vk: auth not initialized")
	}
	query := url.Values{
		"client_id":     {v.conf.ClientID},
		"redirect_uri":  {v.conf.RedirectURL},
		"display":       {"page"},
		"scope":         {strings.Join(v.scope, ",")},
		"response_type": {"token"},
		"state":         {uuid.NewString()},
		"revoke":        {"1"},
		"v":             {vkAPIVersion},
	}
	return vkOAuthBase + "/authorize?" + query.Encode(), nil
}

// ExchangeCode covers the server-side flow for hosts that opt out of the
// implicit redirect.
func (v *VK) ExchangeCode(ctx context.Context, code, state string) (*share.AccessToken, error) {
	query := url.Values{
		"client_id":     {v.conf.ClientID},
		"client_secret": {v.conf.ClientSecret},
		"redirect_uri":  {v.conf.RedirectURL},
		"code":          {code},
	}
	var granted struct {
		AccessToken string `json:"access_token"`
		UserID      int64  `json:"user_id"`
	}
	exchangeURL := vkOAuthBase + "/access_token?" + query.Encode()
	if err := v.base.GetJSON(ctx, exchangeURL, "", &granted); err != nil {
		return nil, err
	}
	return &share.AccessToken{
		Token:  granted.AccessToken,
		UserID: fmt.Sprintf("%d", granted.UserID),
	}, nil
}

func (v *VK) Refresh(ctx context.Context, token *share.AccessToken) (*share.AccessToken, error) {
	return nil, &share.UnsupportedError{Platform: v.Platform(), Op: "refresh access token"}
}

func (v *VK) SupportsRefresh() bool { return false }

// call invokes an API method and unwraps the response envelope into
// out. An error envelope becomes an APIError; code 5 is an
// authorization failure and maps to 401.
func (v *VK) call(ctx context.Context, method string, params url.Values, out any) error {
	token := v.Token()
	if token == nil || token.Token == "" {
		return &share.ConfigError{Msg: "vk: no access token"}
	}
	params.Set("access_token", token.Token)
	params.Set("v", vkAPIVersion)

	var envelope struct {
		Error *struct {
			Code int    `json:"error_code"`
			Msg  string `json:"error_msg"`
		} `json:"error"`
		Response json.RawMessage `json:"response"`
	}
	callURL := vkMethodBase + "/" + method + "?" + params.Encode()
	if err := v.base.GetJSON(ctx, callURL, "", &envelope); err != nil {
		return err
	}
	if envelope.Error != nil {
		status := 400
		if envelope.Error.Code == vkCodeAuthErr {
			status = 401
		}
		return &APIError{
			Platform: v.Platform(),
			Status:   status,
			Code:     envelope.Error.Code,
			Msg:      envelope.Error.Msg,
		}
	}
	if out != nil && len(envelope.Response) > 0 {
		return json.Unmarshal(envelope.Response, out)
	}
	return nil
}

type vkUser struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ScreenName string `json:"screen_name"`
	Sex        int    `json:"sex"`
	Photo      string `json:"photo"`
}

func (v *VK) GetUserProfile(ctx context.Context) (*share.UserProfile, error) {
	token := v.Token()
	if token == nil || token.Token == "" {
		return nil, &share.ConfigError{Msg: "vk: no access token"}
	}
	params := url.Values{
		"user_ids": {token.UserID},
		"fields":   {"first_name,last_name,screen_name,sex,photo"},
	}
	var users []vkUser
	if err := v.call(ctx, "users.get", params, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, &share.ShareError{Msg: "vk: empty users.get response"}
	}

	user := users[0]
	sex := share.SexUnknown
	switch user.Sex {
	case 1:
		sex = share.SexFemale
	case 2:
		sex = share.SexMale
	}
	return &share.UserProfile{
		ID:         fmt.Sprintf("%d", user.ID),
		FullName:   strings.TrimSpace(user.FirstName + " " + user.LastName),
		Sex:        sex,
		PictureURL: user.Photo,
		Link:       "https://vk.com/" + user.ScreenName,
	}, nil
}

func (v *VK) CanShareToUser() bool    { return true }
func (v *VK) CanShareToChannel() bool { return true }

// GetShareChannelList lists the open communities the user administers.
func (v *VK) GetShareChannelList(ctx context.Context) ([]share.Channel, error) {
	token := v.Token()
	if token == nil || token.Token == "" {
		return nil, &share.ConfigError{Msg: "vk: no access token"}
	}
	params := url.Values{
		"user_id":  {token.UserID},
		"extended": {"1"},
	}
	var groups struct {
		Items []struct {
			ID       int64  `json:"id"`
			Name     string `json:"name"`
			IsAdmin  int    `json:"is_admin"`
			IsClosed int    `json:"is_closed"`
			Photo50  string `json:"photo_50"`
		} `json:"items"`
	}
	if err := v.call(ctx, "groups.get", params, &groups); err != nil {
		return nil, err
	}

	channels := make([]share.Channel, 0, len(groups.Items))
	for _, item := range groups.Items {
		if item.IsAdmin != 1 || item.IsClosed != 0 {
			continue
		}
		channels = append(channels, share.Channel{
			ID:     fmt.Sprintf("%d", item.ID),
			Name:   item.Name,
			UserID: token.UserID,
			ImgURL: item.Photo50,
		})
	}
	return channels, nil
}

func (v *VK) ShareVideo(ctx context.Context, params *share.VideoShareParams) (*share.VideoShareResult, error) {
	if params.VideoURL == "" {
		return nil, &share.ConfigError{Msg: "vk: video url is required"}
	}

	saveParams := url.Values{
		"name":        {params.Title},
		"description": {params.Description},
		"wallpost":    {"1"},
	}
	if params.PostToChannel {
		saveParams.Set("group_id", params.SocialID)
	}
	var saved struct {
		UploadURL string `json:"upload_url"`
		OwnerID   int64  `json:"owner_id"`
		VideoID   int64  `json:"video_id"`
	}
	if err := v.call(ctx, "video.save", saveParams, &saved); err != nil {
		return nil, err
	}
	if saved.UploadURL == "" {
		return nil, &share.ShareError{Msg: "vk: video.save returned no upload url"}
	}

	var uploaded struct {
		OwnerID     int64  `json:"owner_id"`
		VideoID     int64  `json:"video_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Error       *struct {
			Code int    `json:"error_code"`
			Msg  string `json:"error_msg"`
		} `json:"error"`
	}
	err := v.base.WithDownload(params.VideoURL, func(localPath string) error {
		return v.base.UploadFile(ctx, saved.UploadURL, "video_file", localPath, nil, &uploaded)
	})
	if err != nil {
		return nil, err
	}
	if uploaded.Error != nil {
		return nil, &share.ShareError{
			Msg:    fmt.Sprintf("%d:%s", uploaded.Error.Code, uploaded.Error.Msg),
			DevMsg: "vk upload rejected",
		}
	}

	ownerID := uploaded.OwnerID
	if ownerID == 0 {
		ownerID = saved.OwnerID
	}
	videoID := uploaded.VideoID
	if videoID == 0 {
		videoID = saved.VideoID
	}
	return &share.VideoShareResult{
		ID:          fmt.Sprintf("%d", videoID),
		URL:         fmt.Sprintf("https://vk.com/video%d_%d", ownerID, videoID),
		Title:       uploaded.Title,
		Description: uploaded.Description,
		CreatedTime: time.Now().Unix(),
	}, nil
}

func (v *VK) AsyncURL(ctx context.Context, params *share.VideoShareParams, result *share.VideoShareResult) (string, error) {
	return "", nil
}
