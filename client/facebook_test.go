package client

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

func TestFacebookAuthURLDefaultScope(t *testing.T) {
	f := NewFacebook(cache.NewMemory(), logger.Nop{}, t.TempDir())
	err := f.InitAuth(&share.AuthConfig{
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		RedirectURL:  "https://host/cb",
	}, nil)
	if err != nil {
		t.Fatalf("InitAuth: %v", err)
	}

	authURL, err := f.GenerateAuthURL(context.Background())
	if err != nil {
		t.Fatalf("GenerateAuthURL: %v", err)
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	want := strings.Join(facebookDefaultScope, " ")
	if got := parsed.Query().Get("scope"); got != want {
		t.Fatalf("scope param %q, want %q", got, want)
	}
}

func TestFacebookAuthURLConfiguredScope(t *testing.T) {
	f := NewFacebook(cache.NewMemory(), logger.Nop{}, t.TempDir())
	err := f.InitAuth(&share.AuthConfig{
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		RedirectURL:  "https://host/cb",
		Scope:        []string{"publish_video"},
	}, nil)
	if err != nil {
		t.Fatalf("InitAuth: %v", err)
	}

	authURL, err := f.GenerateAuthURL(context.Background())
	if err != nil {
		t.Fatalf("GenerateAuthURL: %v", err)
	}
	parsed, _ := url.Parse(authURL)
	if got := parsed.Query().Get("scope"); got != "publish_video" {
		t.Fatalf("scope param %q", got)
	}
}
