package client

import "fmt"

// Vendor sub-codes that mean "the token is invalid, re-authorize".
const (
	graphCodeInvalidToken   = 190  // Facebook/Instagram Graph API
	twitterCodeInvalidToken = 89   // Twitter REST API
	vimeoCodeInvalidToken   = 8003 // Vimeo API
)

// APIError is a vendor REST failure before translation. Adapters raise
// it; the Dispatch wrapper turns it into a share.ShareError.
type APIError struct {
	Platform string
	Status   int
	Code     int // vendor sub-code, 0 when absent
	Msg      string
	Body     string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s api: status %d code %d: %s", e.Platform, e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s api: status %d: %s", e.Platform, e.Status, e.Msg)
}

// Unauthorized reports whether the failure means the stored token is no
// longer valid at the platform: HTTP 401, or one of the vendor sub-codes
// that express the same thing.
func (e *APIError) Unauthorized() bool {
	if e.Status == 401 {
		return true
	}
	switch e.Code {
	case graphCodeInvalidToken, twitterCodeInvalidToken, vimeoCodeInvalidToken:
		return true
	}
	return false
}
