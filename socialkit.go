// Package socialkit is a publishing SDK for social video platforms. It
// covers the OAuth token life cycle, normalized profile and channel
// reads and video publishing for nine platforms, plus a client for a
// simulated-login publishing service where no official API exists.
package socialkit

import (
	"strings"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/client"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
	"github.com/getsocialkit/socialkit/simulate"
)

// Factory builds platform adapters over one shared cache, logger and
// temp directory.
type Factory struct {
	store   cache.Cache
	log     logger.Logger
	tempDir string
}

// NewFactory wires the shared collaborators. A nil store falls back to
// the in-memory cache and a nil log to the no-op sink.
func NewFactory(store cache.Cache, log logger.Logger, tempDir string) *Factory {
	if store == nil {
		store = cache.NewMemory()
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Factory{store: store, log: log, tempDir: tempDir}
}

var constructors = map[string]func(cache.Cache, logger.Logger, string) client.Client{
	"facebook":  func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewFacebook(s, l, d) },
	"instagram": func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewInstagram(s, l, d) },
	"linkedin":  func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewLinkedIn(s, l, d) },
	"twitter":   func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewTwitter(s, l, d) },
	"tumblr":    func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewTumblr(s, l, d) },
	"vk":        func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewVK(s, l, d) },
	"pinterest": func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewPinterest(s, l, d) },
	"vimeo":     func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewVimeo(s, l, d) },
	"youtube":   func(s cache.Cache, l logger.Logger, d string) client.Client { return client.NewYouTube(s, l, d) },
}

// CreateClient resolves a platform name to a fresh adapter wrapped in
// the error-translating dispatch. Matching ignores case, so "facebook",
// "Facebook" and "VK" all resolve.
func (f *Factory) CreateClient(platform string) (*client.Dispatch, error) {
	build, ok := constructors[strings.ToLower(platform)]
	if !ok {
		return nil, &share.UnknownPlatformError{Name: platform}
	}
	impl := build(f.store, f.log, f.tempDir)
	return client.NewDispatch(impl.Platform(), impl, f.log), nil
}

// CreateSimulateClient builds a client for the simulated-login service.
func (f *Factory) CreateSimulateClient(endpoints simulate.Endpoints) *simulate.Client {
	return simulate.NewClient(endpoints, f.log)
}
