package socialkit

import (
	"errors"
	"testing"

	"github.com/getsocialkit/socialkit/share"
	"github.com/getsocialkit/socialkit/simulate"
)

func TestCreateClientCaseInsensitive(t *testing.T) {
	f := NewFactory(nil, nil, t.TempDir())

	lower, err := f.CreateClient("facebook")
	if err != nil {
		t.Fatalf("CreateClient(facebook): %v", err)
	}
	upper, err := f.CreateClient("Facebook")
	if err != nil {
		t.Fatalf("CreateClient(Facebook): %v", err)
	}
	if lower.Platform() != "Facebook" || upper.Platform() != "Facebook" {
		t.Fatalf("platforms: %q, %q", lower.Platform(), upper.Platform())
	}

	// Vendor spellings with capitals past the first letter resolve too.
	for name, want := range map[string]string{
		"VK":       "VK",
		"LinkedIn": "LinkedIn",
		"YouTube":  "Youtube",
	} {
		c, err := f.CreateClient(name)
		if err != nil {
			t.Fatalf("CreateClient(%s): %v", name, err)
		}
		if c.Platform() != want {
			t.Errorf("CreateClient(%s).Platform() = %q", name, c.Platform())
		}
	}
}

func TestCreateClientAllPlatforms(t *testing.T) {
	f := NewFactory(nil, nil, t.TempDir())

	for _, name := range []string{
		"facebook", "instagram", "linkedin", "twitter", "tumblr",
		"vk", "pinterest", "vimeo", "youtube",
	} {
		if _, err := f.CreateClient(name); err != nil {
			t.Errorf("CreateClient(%s): %v", name, err)
		}
	}
}

func TestCreateClientUnknownPlatform(t *testing.T) {
	f := NewFactory(nil, nil, t.TempDir())

	_, err := f.CreateClient("myspace")
	var unknown *share.UnknownPlatformError
	if !errors.As(err, &unknown) {
		t.Fatalf("want UnknownPlatformError, got %v", err)
	}
	if unknown.Name != "myspace" {
		t.Fatalf("error carries %q", unknown.Name)
	}
}

func TestCreateClientsAreIndependent(t *testing.T) {
	f := NewFactory(nil, nil, t.TempDir())

	a, _ := f.CreateClient("twitter")
	b, _ := f.CreateClient("twitter")
	if a == b {
		t.Fatal("factory must hand out fresh adapters")
	}
}

func TestCreateSimulateClient(t *testing.T) {
	f := NewFactory(nil, nil, "")
	if f.CreateSimulateClient(simulate.Endpoints{PostVideo: "https://svc/post"}) == nil {
		t.Fatal("nil simulate client")
	}
}
