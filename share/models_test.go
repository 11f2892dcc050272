package share

import (
	"testing"
	"time"
)

func TestAccessTokenExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	cases := []struct {
		name  string
		token *AccessToken
		want  bool
	}{
		{"nil token", nil, false},
		{"no expiry recorded", &AccessToken{Token: "t"}, false},
		{"still valid", &AccessToken{Token: "t", ExpireTime: now.Unix() + 3600}, false},
		{"expires exactly now", &AccessToken{Token: "t", ExpireTime: now.Unix()}, false},
		{"past expiry, no refresh", &AccessToken{Token: "t", ExpireTime: now.Unix() - 1}, true},
		{
			"past expiry, live refresh",
			&AccessToken{Token: "t", ExpireTime: now.Unix() - 1, RefreshToken: "r", RefreshTokenExpireTime: now.Unix() + 3600},
			false,
		},
		{
			"past expiry, refresh also dead",
			&AccessToken{Token: "t", ExpireTime: now.Unix() - 1, RefreshToken: "r", RefreshTokenExpireTime: now.Unix() - 1},
			true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.token.Expired(now); got != tc.want {
				t.Fatalf("Expired() = %v", got)
			}
		})
	}
}

func TestAccessTokenRefreshable(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	cases := []struct {
		name  string
		token *AccessToken
		want  bool
	}{
		{"nil token", nil, false},
		{"no refresh token", &AccessToken{Token: "t"}, false},
		{"refresh without window", &AccessToken{Token: "t", RefreshToken: "r"}, false},
		{"refresh in window", &AccessToken{Token: "t", RefreshToken: "r", RefreshTokenExpireTime: now.Unix() + 60}, true},
		{"refresh window closed", &AccessToken{Token: "t", RefreshToken: "r", RefreshTokenExpireTime: now.Unix() - 60}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.token.Refreshable(now); got != tc.want {
				t.Fatalf("Refreshable() = %v", got)
			}
		})
	}
}
