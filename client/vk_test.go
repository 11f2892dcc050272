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

func TestVKInitAuthKeepsConfigScope(t *testing.T) {
	v := NewVK(cache.NewMemory(), logger.Nop{}, t.TempDir())
	config := &share.AuthConfig{ClientID: "app-id", RedirectURL: "https://host/cb"}
	if err := v.InitAuth(config, nil); err != nil {
		t.Fatalf("InitAuth: %v", err)
	}

	if len(config.Scope) != 0 {
		t.Fatalf("InitAuth mutated the caller's config scope: %v", config.Scope)
	}

	authURL, err := v.GenerateAuthURL(context.Background())
	if err != nil {
		t.Fatalf("GenerateAuthURL: %v", err)
	}
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parse auth url: %v", err)
	}
	want := strings.Join(vkDefaultScope, ",")
	if got := parsed.Query().Get("scope"); got != want {
		t.Fatalf("scope param %q, want %q", got, want)
	}
}
