package simulate

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/getsocialkit/socialkit/logger"
)

// ParsePostCallback turns the publish-callback form parameters into a
// task record. The service reports the outcome with the same status
// vocabulary as the synchronous answer.
func (c *Client) ParsePostCallback(params map[string]string) *PostTask {
	status := postStatus(atoi(params["status"]))

	level := logger.LevelWarn
	if status == TaskStatusSuccess {
		level = logger.LevelInfo
	}
	c.write(level, "handlePostCallback", fmt.Sprintf("params: %v", params))

	return &PostTask{
		TaskID:  params["task_id"],
		Status:  status,
		Msg:     params["msg"],
		Info:    params["info"],
		PostURL: params["url"],
	}
}

// bind callback err_code values on the wire.
var bindErrCodes = map[int]BindErrCode{
	0: BindErrNone,
	1: BindErrBadCredentials,
	2: BindErrVerifyExpired,
	3: BindErrNeedHumanVerification,
	4: BindErrUnknown,
}

// ParseBindCallback turns the bind-callback form parameters into a
// BindInfo. page_info carries the discovered channels as a JSON array.
func (c *Client) ParseBindCallback(params map[string]string) *BindInfo {
	c.write(logger.LevelInfo, "handleBindCallback", fmt.Sprintf("params: %v", params))

	errCode, ok := bindErrCodes[atoi(params["err_code"])]
	if !ok {
		errCode = BindErrUnknown
	}

	var channels []BoundChannel
	if raw := params["page_info"]; raw != "" {
		var decoded []struct {
			TaskID      string `json:"task_id"`
			UserID      int64  `json:"user_id"`
			Account     string `json:"account"`
			SocialID    string `json:"social_id"`
			DisplayName string `json:"display_name"`
			HeadImgURL  string `json:"head_img_url"`
			PageURL     string `json:"page_url"`
		}
		if json.Unmarshal([]byte(raw), &decoded) == nil {
			for _, ch := range decoded {
				channels = append(channels, BoundChannel{
					TaskID:      ch.TaskID,
					UserID:      ch.UserID,
					Account:     ch.Account,
					SocialID:    ch.SocialID,
					DisplayName: ch.DisplayName,
					ImgURL:      ch.HeadImgURL,
					PageURL:     ch.PageURL,
				})
			}
		}
	}

	return &BindInfo{
		TaskID:      params["task_id"],
		UserID:      params["user_id"],
		Account:     params["account"],
		SocialID:    params["social_id"],
		Msg:         params["msg"],
		Status:      bindStatus(atoi(params["status"])),
		VerifyType:  atoi(params["verify_type"]),
		VerifyTips:  params["verify_tips"],
		VerifyURL:   params["verify_url"],
		DisplayName: params["display_name"],
		HeadImgURL:  params["head_img_url"],
		PageURL:     params["page_url"],
		Media:       params["media"],
		ErrCode:     errCode,
		Channels:    channels,
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
