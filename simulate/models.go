// Package simulate talks to the headless-browser automation service
// that publishes on accounts without an API grant. Publishing is
// asynchronous: a request enqueues a task, and the outcome arrives
// either through polling or through the service's callback.
package simulate

// TaskStatus is the normalized state of a publish task.
type TaskStatus int

const (
	TaskStatusUnknown TaskStatus = iota
	TaskStatusSuccess
	TaskStatusAlreadyPosted
	TaskStatusReviewing
	TaskStatusFail
)

// BindStatus is the state of an account-binding attempt.
type BindStatus int

const (
	BindStatusFail BindStatus = iota
	BindStatusNeedVerification
	BindStatusBound
)

// BindErrCode classifies a failed binding callback.
type BindErrCode int

const (
	BindErrNone BindErrCode = iota
	BindErrBadCredentials
	BindErrVerifyExpired
	BindErrNeedHumanVerification
	BindErrUnknown
)

// Endpoints is the service's operation URL set. Every operation needs
// its endpoint configured; a missing one fails the call.
type Endpoints struct {
	PostVideo          string
	QueryTask          string
	AccountList        string
	BindAccount        string
	SubmitVerification string
	UnbindAccount      string
}

// PostVideoParams is a publish request for the automation service.
type PostVideoParams struct {
	Media           string
	Account         string
	Title           string
	Description     string
	Keywords        []string
	VideoURL        string
	ThumbnailURL    string
	CallbackURL     string
	VideoWebsiteURL string
	SocialID        string
	ShareToChannel  bool
	AccountType     int
}

// PostTask is the service's answer to a publish request.
type PostTask struct {
	TaskID      string
	Status      TaskStatus
	Msg         string
	Info        string
	PostURL     string
	CallbackURL string
}

// TaskInfo is a queried task's full record.
type TaskInfo struct {
	TaskID         string
	Status         TaskStatus
	Msg            string
	Info           string
	PostURL        string
	CallbackURL    string
	Title          string
	Description    string
	Account        string
	OriginVideoURL string
}

// Account is one official publishing account held by the service.
type Account struct {
	User       string
	Media      string
	ChannelURL string
}

// BindParams requests the binding of a user-owned account. Password
// and TaskID are mutually exclusive: a password opens a fresh attempt,
// a task id resumes one that asked for verification.
type BindParams struct {
	UserID      string
	Account     string
	Media       string
	Password    string
	TaskID      string
	Phone       string
	CallbackURL string
}

// BoundChannel is a postable page discovered during binding.
type BoundChannel struct {
	TaskID      string
	UserID      int64
	Account     string
	SocialID    string
	DisplayName string
	ImgURL      string
	PageURL     string
}

// BindInfo describes the progress of one binding attempt.
type BindInfo struct {
	TaskID      string
	UserID      string
	Account     string
	SocialID    string
	Msg         string
	Status      BindStatus
	VerifyType  int
	VerifyTips  string
	VerifyURL   string
	DisplayName string
	HeadImgURL  string
	PageURL     string
	Media       string
	ErrCode     BindErrCode
	Channels    []BoundChannel
}

// BindResult is the synchronous answer to a bind request. Info is nil
// when the service queued the attempt without any detail yet.
type BindResult struct {
	Status int
	Msg    string
	TaskID string
	Info   *BindInfo
}

// VerificationParams submits the user-entered verification string for
// a binding attempt that asked for one.
type VerificationParams struct {
	Media        string
	TaskID       string
	Verification string
}

// CommonResult is the plain status/message answer of the simpler
// operations.
type CommonResult struct {
	Status int
	Msg    string
}
