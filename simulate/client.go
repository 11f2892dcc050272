package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

const requestTimeout = 30 * time.Second

// Client calls the automation service. Test mode marks every outbound
// request with test=1 so the service routes it to its sandbox.
type Client struct {
	endpoints Endpoints
	log       logger.Logger
	http      *http.Client
	test      bool
}

func NewClient(endpoints Endpoints, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop{}
	}
	return &Client{
		endpoints: endpoints,
		log:       log,
		http:      &http.Client{Timeout: requestTimeout},
	}
}

// SetTest switches the sandbox marker on outbound requests.
func (c *Client) SetTest(test bool) { c.test = test }

// Test reports whether the sandbox marker is on.
func (c *Client) Test() bool { return c.test }

// PostVideo enqueues a publish task. Status 200 means accepted; 204
// means the same video was already posted and the prior post_url rides
// along, which is reported as a distinct status rather than an error.
func (c *Client) PostVideo(ctx context.Context, params *PostVideoParams) (*PostTask, error) {
	if params.Media == "" {
		return nil, &share.ConfigError{Msg: "simulate: social media name is required"}
	}
	if params.Title == "" {
		return nil, &share.ConfigError{Msg: "simulate: title is required"}
	}
	if c.endpoints.PostVideo == "" {
		return nil, &share.ConfigError{Msg: "simulate: post video endpoint is not configured"}
	}

	form := url.Values{
		"video_url":     {params.VideoURL},
		"title":         {params.Title},
		"keywords":      {strings.Join(params.Keywords, ",")},
		"desc":          {params.Description},
		"thumbnail":     {params.ThumbnailURL},
		"callback":      {params.CallbackURL},
		"media":         {strings.ToLower(params.Media)},
		"user":          {params.Account},
		"video_website": {params.VideoWebsiteURL},
	}
	if params.ShareToChannel {
		form.Set("social_id", params.SocialID)
	}
	if params.AccountType > 0 {
		form.Set("account_type", fmt.Sprintf("%d", params.AccountType))
	}

	var resp struct {
		Status  int    `json:"status"`
		Msg     string `json:"msg"`
		Info    string `json:"info"`
		TaskID  string `json:"task_id"`
		PostURL string `json:"post_url"`
	}
	if err := c.postForm(ctx, "postVideo", c.endpoints.PostVideo, form, &resp, func() bool {
		return resp.Status == 200 || resp.Status == 204
	}); err != nil {
		return nil, err
	}

	return &PostTask{
		TaskID:      resp.TaskID,
		Status:      postStatus(resp.Status),
		Msg:         resp.Msg,
		Info:        resp.Info,
		PostURL:     resp.PostURL,
		CallbackURL: params.CallbackURL,
	}, nil
}

// QueryTask fetches the current record of a publish task.
func (c *Client) QueryTask(ctx context.Context, taskID string) (*TaskInfo, error) {
	if c.endpoints.QueryTask == "" {
		return nil, &share.ConfigError{Msg: "simulate: query task endpoint is not configured"}
	}

	var resp struct {
		Status int `json:"status"`
		List   struct {
			TaskID      string `json:"task_id"`
			Status      int    `json:"status"`
			Msg         string `json:"msg"`
			Info        string `json:"info"`
			PostURL     string `json:"video_ytb_url"`
			CallbackURL string `json:"callback_url"`
			Title       string `json:"title"`
			Description string `json:"descs"`
			Account     string `json:"user"`
			UploadPath  string `json:"uploadpath"`
		} `json:"list"`
	}
	queryURL := c.endpoints.QueryTask + "?task_id=" + url.QueryEscape(taskID)
	if err := c.getJSON(ctx, "queryTaskInfo", queryURL, &resp, func() bool {
		return resp.Status == 200
	}); err != nil {
		return nil, err
	}

	return &TaskInfo{
		TaskID:         resp.List.TaskID,
		Status:         queryStatus(resp.List.Status),
		Msg:            resp.List.Msg,
		Info:           resp.List.Info,
		PostURL:        resp.List.PostURL,
		CallbackURL:    resp.List.CallbackURL,
		Title:          resp.List.Title,
		Description:    resp.List.Description,
		Account:        resp.List.Account,
		OriginVideoURL: resp.List.UploadPath,
	}, nil
}

// AccountList fetches the service's official publishing accounts.
func (c *Client) AccountList(ctx context.Context) ([]Account, error) {
	if c.endpoints.AccountList == "" {
		return nil, &share.ConfigError{Msg: "simulate: account list endpoint is not configured"}
	}

	var resp struct {
		Status int `json:"status"`
		List   []struct {
			User       string `json:"user"`
			Media      string `json:"media"`
			ChannelURL string `json:"channel_url"`
		} `json:"list"`
	}
	if err := c.getJSON(ctx, "getAccountList", c.endpoints.AccountList, &resp, func() bool {
		return resp.Status == 200
	}); err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(resp.List))
	for _, item := range resp.List {
		accounts = append(accounts, Account{
			User:       item.User,
			Media:      item.Media,
			ChannelURL: item.ChannelURL,
		})
	}
	return accounts, nil
}

// BindAccount opens or resumes the binding of a user-owned account.
// Status 202 means bound outright; 200 means the attempt is queued and
// verification may follow through the callback.
func (c *Client) BindAccount(ctx context.Context, params *BindParams) (*BindResult, error) {
	if params.Media == "" {
		return nil, &share.ConfigError{Msg: "simulate: social media name is required"}
	}
	if params.UserID == "" {
		return nil, &share.ConfigError{Msg: "simulate: user id is required"}
	}
	if params.Account == "" {
		return nil, &share.ConfigError{Msg: "simulate: account is required"}
	}
	if params.Password == "" && params.TaskID == "" {
		return nil, &share.ConfigError{Msg: "simulate: password is required"}
	}
	if params.CallbackURL == "" {
		return nil, &share.ConfigError{Msg: "simulate: callback url is required"}
	}
	if c.endpoints.BindAccount == "" {
		return nil, &share.ConfigError{Msg: "simulate: bind account endpoint is not configured"}
	}

	form := url.Values{
		"user_id":  {params.UserID},
		"user":     {params.Account},
		"media":    {strings.ToLower(params.Media)},
		"callback": {params.CallbackURL},
	}
	// Password and task id are mutually exclusive on the wire.
	if params.TaskID == "" {
		form.Set("pwd", params.Password)
	} else {
		form.Set("task_id", params.TaskID)
	}
	if params.Phone != "" {
		form.Set("phone", params.Phone)
	}

	var resp struct {
		Status int    `json:"status"`
		Msg    string `json:"msg"`
		TaskID string `json:"task_id"`
		Data   *struct {
			UserID      string `json:"user_id"`
			Account     string `json:"account"`
			SocialID    string `json:"social_id"`
			Msg         string `json:"msg"`
			VerifyType  int    `json:"verify_type"`
			VerifyTips  string `json:"verify_tips"`
			DisplayName string `json:"display_name"`
			HeadImgURL  string `json:"head_img_url"`
			PageURL     string `json:"page_url"`
		} `json:"data"`
	}
	if err := c.postForm(ctx, "bindAccount", c.endpoints.BindAccount, form, &resp, func() bool {
		return resp.Status < 400 && resp.TaskID != ""
	}); err != nil {
		return nil, err
	}

	result := &BindResult{
		Status: 200,
		Msg:    resp.Msg,
		TaskID: resp.TaskID,
	}
	if resp.Data != nil {
		result.Info = &BindInfo{
			TaskID:      resp.TaskID,
			UserID:      resp.Data.UserID,
			Account:     resp.Data.Account,
			SocialID:    resp.Data.SocialID,
			Msg:         resp.Data.Msg,
			Status:      bindStatus(resp.Status),
			VerifyType:  resp.Data.VerifyType,
			VerifyTips:  resp.Data.VerifyTips,
			DisplayName: resp.Data.DisplayName,
			HeadImgURL:  resp.Data.HeadImgURL,
			PageURL:     resp.Data.PageURL,
		}
	}
	return result, nil
}

// SubmitVerification forwards the user-entered verification string for
// a binding attempt that asked for one.
func (c *Client) SubmitVerification(ctx context.Context, params *VerificationParams) (*CommonResult, error) {
	if params.Media == "" {
		return nil, &share.ConfigError{Msg: "simulate: social media name is required"}
	}
	if params.TaskID == "" {
		return nil, &share.ConfigError{Msg: "simulate: task id is required"}
	}
	if params.Verification == "" {
		return nil, &share.ConfigError{Msg: "simulate: verification string is required"}
	}
	if c.endpoints.SubmitVerification == "" {
		return nil, &share.ConfigError{Msg: "simulate: submit verification endpoint is not configured"}
	}

	form := url.Values{
		"verify":  {params.Verification},
		"task_id": {params.TaskID},
		"media":   {strings.ToLower(params.Media)},
	}
	var resp struct {
		Status int    `json:"status"`
		Msg    string `json:"msg"`
	}
	if err := c.postForm(ctx, "submitVerificationForAccountBinding", c.endpoints.SubmitVerification, form, &resp, func() bool {
		return resp.Status == 200
	}); err != nil {
		return nil, err
	}
	return &CommonResult{Status: resp.Status, Msg: resp.Msg}, nil
}

// UnbindAccount releases a bound account by its binding task id.
func (c *Client) UnbindAccount(ctx context.Context, taskID string) (*CommonResult, error) {
	if taskID == "" {
		return nil, &share.ConfigError{Msg: "simulate: task id is required"}
	}
	if c.endpoints.UnbindAccount == "" {
		return nil, &share.ConfigError{Msg: "simulate: unbind account endpoint is not configured"}
	}

	form := url.Values{"task_id": {taskID}}
	var resp struct {
		Status int    `json:"status"`
		Msg    string `json:"msg"`
	}
	if err := c.postForm(ctx, "unbindAccount", c.endpoints.UnbindAccount, form, &resp, func() bool {
		return resp.Status == 200
	}); err != nil {
		return nil, err
	}
	return &CommonResult{Status: resp.Status, Msg: resp.Msg}, nil
}

func (c *Client) postForm(ctx context.Context, op, endpoint string, form url.Values, out any, accepted func() bool) error {
	if c.test {
		form.Set("test", "1")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(op, req, maskedForm(form), out, accepted)
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, out any, accepted func() bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	return c.send(op, req, rawURL, out, accepted)
}

func (c *Client) send(op string, req *http.Request, logged string, out any, accepted func() bool) error {
	resp, err := c.http.Do(req)
	if err != nil {
		c.write(logger.LevelError, op, fmt.Sprintf("request %s failed: %v", req.URL, err))
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read simulate response: %w", err)
	}

	decodeErr := json.Unmarshal(body, out)
	ok := resp.StatusCode == http.StatusOK && decodeErr == nil && accepted()

	level := logger.LevelInfo
	if !ok {
		level = logger.LevelError
	}
	c.write(level, op, fmt.Sprintf("url: %s\nrequest: %s\nhttp status: %d, response: %s",
		req.URL, logged, resp.StatusCode, body))

	if !ok {
		return &share.ShareError{
			Msg:      "simulate service call failed",
			DevMsg:   string(body),
			HTTPCode: resp.StatusCode,
		}
	}
	return nil
}

func (c *Client) write(level, op, msg string) {
	c.log.WriteLog(level, msg, "simulate/"+op)
}

// maskedForm renders form values for the log with credentials hidden.
func maskedForm(form url.Values) string {
	masked := url.Values{}
	for key, values := range form {
		if key == "pwd" {
			masked.Set(key, "******")
			continue
		}
		masked[key] = values
	}
	return masked.Encode()
}

func postStatus(status int) TaskStatus {
	switch status {
	case 200:
		return TaskStatusSuccess
	case 204:
		return TaskStatusAlreadyPosted
	case 202:
		return TaskStatusReviewing
	default:
		return TaskStatusFail
	}
}

func queryStatus(status int) TaskStatus {
	switch status {
	case 1:
		return TaskStatusSuccess
	case 2:
		return TaskStatusReviewing
	case 3:
		return TaskStatusFail
	default:
		return TaskStatusUnknown
	}
}

func bindStatus(status int) BindStatus {
	switch status {
	case 200:
		return BindStatusNeedVerification
	case 202:
		return BindStatusBound
	default:
		return BindStatusFail
	}
}
