package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/getsocialkit/socialkit/cache"
	"github.com/getsocialkit/socialkit/logger"
	"github.com/getsocialkit/socialkit/share"
)

func TestPinterestUploadMediaFailedStopsPolling(t *testing.T) {
	var statusCalls atomic.Int32

	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/clip.mp4":
			w.Write([]byte("frames"))
		case r.URL.Path == "/media" && r.Method == http.MethodPost:
			w.Write([]byte(`{"media_id":"m1","upload_url":"` + srvURL + `/upload","upload_parameters":{}}`))
		case r.URL.Path == "/upload":
			w.Write([]byte(`{}`))
		case r.URL.Path == "/media/m1":
			statusCalls.Add(1)
			w.Write([]byte(`{"status":"failed"}`))
		default:
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	prev := pinterestAPIBase
	pinterestAPIBase = srv.URL
	defer func() { pinterestAPIBase = prev }()

	p := NewPinterest(cache.NewMemory(), logger.Nop{}, t.TempDir())
	p.mediaPoll = Poller{Attempts: 5, Sleep: func(time.Duration) {}}

	_, err := p.uploadMedia(context.Background(), "tok", srv.URL+"/clip.mp4")
	var shareErr *share.ShareError
	if !errors.As(err, &shareErr) {
		t.Fatalf("want ShareError, got %v", err)
	}
	if !strings.Contains(shareErr.Msg, "processing failed") {
		t.Fatalf("error %q", shareErr.Msg)
	}
	if calls := statusCalls.Load(); calls != 1 {
		t.Fatalf("terminal failure polled %d times", calls)
	}
}
