// Package share holds the platform-neutral data model of socialkit: the
// credentials handed back by the authorization flows, the normalized user
// profile and channel entities, and the request/result pair for a video
// share. Adapters translate vendor payloads to and from these types; the
// host owns every value after it is returned.
package share

import "time"

// Sex is the normalized gender of an authorized user.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// AuthConfig carries the static application credentials and requested
// permissions for one adapter. It is immutable once passed to InitAuth.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        []string
	Options      map[string]string
}

// AccessToken is a granted credential. ExpireTime and
// RefreshTokenExpireTime are unix seconds; zero means "never expires".
type AccessToken struct {
	Token                  string
	TokenSecret            string // OAuth1 only
	RefreshToken           string
	ExpireTime             int64
	RefreshTokenExpireTime int64
	Scope                  []string
	UserID                 string
	Raw                    map[string]string
}

// Expired reports whether the token is unusable at the given instant.
// A token with a live refresh token is not considered expired: the access
// credential can still be renewed without user interaction.
func (t *AccessToken) Expired(now time.Time) bool {
	if t == nil || t.ExpireTime == 0 {
		return false
	}
	if now.Unix() <= t.ExpireTime {
		return false
	}
	if t.RefreshToken != "" && t.RefreshTokenExpireTime != 0 {
		return now.Unix() > t.RefreshTokenExpireTime
	}
	return true
}

// Refreshable reports whether the token carries a refresh credential that
// is still within its own validity window.
func (t *AccessToken) Refreshable(now time.Time) bool {
	if t == nil || t.RefreshToken == "" {
		return false
	}
	if t.RefreshTokenExpireTime == 0 {
		return false
	}
	return now.Unix() <= t.RefreshTokenExpireTime
}

// OAuthToken is the short-lived request token of the OAuth1 dance.
type OAuthToken struct {
	Token             string `json:"oauth_token"`
	TokenSecret       string `json:"oauth_token_secret"`
	CallbackConfirmed bool   `json:"oauth_callback_confirmed"`
}

// UserProfile is the normalized identity of the authorized user.
// Optional fields map to their zero value when the platform omits them.
type UserProfile struct {
	ID         string
	FullName   string
	Email      string
	Birthday   int64 // unix seconds, 0 when unknown
	Sex        Sex
	PictureURL string
	Link       string
	Raw        map[string]string
}

// Channel is a postable destination: a page, board, blog or channel,
// depending on the platform's vocabulary.
type Channel struct {
	ID     string
	Name   string
	UserID string
	Token  string
	URL    string
	ImgURL string
	Raw    map[string]string
}

// VideoShareParams is a publish request, built by the host and consumed
// once. VideoURL is the only required field.
type VideoShareParams struct {
	DisplayName   string
	SocialID      string
	AccessToken   string
	Title         string
	Description   string
	Keywords      []string
	VideoURL      string
	ThumbnailURL  string
	PostToChannel bool
}

// VideoShareResult is a publish outcome. An empty URL is only valid when
// AsyncURLPending is set, in which case AsyncURL on the adapter repeats
// the resolution search.
type VideoShareResult struct {
	ID              string
	URL             string
	Title           string
	Description     string
	ThumbnailURL    string
	CreatedTime     int64
	AsyncURLPending bool
}
